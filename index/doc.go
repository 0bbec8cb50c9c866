// Package index builds and queries an inverted index over a corpus of
// HTML web documents.
//
// # On-disk format
//
// The index is split across a small set of files inside an index
// directory:
//
//	inverted_index.bin   sorted concatenation of term records
//	term_directory.json  term -> byte offset into inverted_index.bin
//	doc_id_map.json      doc_id -> canonical source URL
//
// A term record has the fixed layout (all integers little-endian):
//
//	u16 term_len | term_len bytes (UTF-8 term) | u16 posting_count | posting_count * (u32 doc_id | u32 term_frequency)
//
// Records appear in ascending term order. Within a record, postings are
// strictly increasing by doc_id with no duplicates.
//
// Building the index is a two-stage pipeline. [Build] streams a corpus of
// JSON documents, tokenizes and weighs their HTML, and flushes bounded
// in-memory [PartialIndex] values to partial-index files sorted by term.
// [Merge] then reduces those partial-index files, pairwise, into the final
// sealed inverted_index.bin and its term directory. [QueryEngine] opens a
// sealed index read-only and serves boolean-AND and TF-IDF ranked queries
// by random-access lookup through the term directory.
package index
