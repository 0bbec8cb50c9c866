package index

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// DefaultTopK is the default number of results returned by BoolRetrieve
// and RankedRetrieve.
const DefaultTopK = 5

// QueryEngine serves boolean-AND and TF-IDF ranked retrieval against a
// sealed on-disk index. It has exactly two states: construction either
// fails terminally (NewQueryEngine returns an error) or succeeds into a
// ready, read-only engine; there is no mutation after initialization.
type QueryEngine struct {
	path      string
	directory termDirectory
	docURLs   []string // doc_id -> URL
}

// NewQueryEngine opens the sealed index in indexDir. It fails if any
// required artifact (inverted_index.bin, term_directory.json,
// doc_id_map.json) is missing — spec error kind 6, fatal at
// initialization only.
func NewQueryEngine(indexDir string) (*QueryEngine, error) {
	indexPath := filepath.Join(indexDir, "inverted_index.bin")
	if _, err := os.Stat(indexPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingArtifact, indexPath)
		}
		return nil, err
	}
	directory, err := readTermDirectory(indexDir)
	if err != nil {
		return nil, err
	}
	docURLs, err := readDocIDMap(indexDir)
	if err != nil {
		return nil, err
	}
	return &QueryEngine{path: indexPath, directory: directory, docURLs: docURLs}, nil
}

// NumDocs returns the total document count N, as persisted in the
// doc_id map.
func (qe *QueryEngine) NumDocs() int { return len(qe.docURLs) }

// Lookup returns the posting list for term, or an empty list if term is
// not present in the index (spec error kind 5: not an error, handled by
// the caller per retrieval mode).
func (qe *QueryEngine) Lookup(term string) (PostingList, error) {
	offset, ok := qe.directory[term]
	if !ok {
		return PostingList{}, nil
	}

	f, err := os.Open(qe.path)
	if err != nil {
		return PostingList{}, err
	}
	defer f.Close()

	if _, err := f.Seek(offset, 0); err != nil {
		return PostingList{}, err
	}

	got, _, err := readTermAt(f)
	if err != nil {
		return PostingList{}, err
	}
	if got != term {
		return PostingList{}, fmt.Errorf("%w: wanted %q, found %q at offset %d", ErrTermMismatch, term, got, offset)
	}

	pl, err := readPostingListAt(f)
	if err != nil {
		return PostingList{}, err
	}
	return pl, nil
}

// readTermAt decodes a length-prefixed term from the current position of
// f, leaving the cursor positioned immediately after it.
func readTermAt(f *os.File) (string, int, error) {
	var lenBuf [2]byte
	if _, err := readFull(f, lenBuf[:]); err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrCorruptInput, err)
	}
	termLen := int(lenBuf[0]) | int(lenBuf[1])<<8
	termBytes := make([]byte, termLen)
	if _, err := readFull(f, termBytes); err != nil {
		return "", 0, fmt.Errorf("%w: truncated term: %v", ErrCorruptInput, err)
	}
	return string(termBytes), 2 + termLen, nil
}

// readPostingListAt decodes a posting list from the current position of
// f, which must immediately follow a term.
func readPostingListAt(f *os.File) (PostingList, error) {
	var countBuf [2]byte
	if _, err := readFull(f, countBuf[:]); err != nil {
		return PostingList{}, fmt.Errorf("%w: truncated posting count: %v", ErrCorruptInput, err)
	}
	count := int(countBuf[0]) | int(countBuf[1])<<8
	buf := make([]byte, count*postingSize)
	if _, err := readFull(f, buf); err != nil {
		return PostingList{}, fmt.Errorf("%w: truncated posting list: %v", ErrCorruptInput, err)
	}
	postings := make([]Posting, count)
	off := 0
	for i := 0; i < count; i++ {
		p, err := readPosting(buf[off:])
		if err != nil {
			return PostingList{}, err
		}
		postings[i] = p
		off += postingSize
	}
	return PostingListOf(postings), nil
}

func readFull(f *os.File, buf []byte) (int, error) {
	read := 0
	for read < len(buf) {
		n, err := f.Read(buf[read:])
		read += n
		if err != nil {
			return read, err
		}
	}
	return read, nil
}

// distinctTerms stems query into its distinct term set, preserving
// first-occurrence order (order only matters for any future caller that
// cares about it; retrieval itself is order-independent).
func distinctTerms(query string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range StemQuery(query) {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// BoolRetrieve performs boolean-AND retrieval: the intersection of every
// query term's posting list, sorted by doc_id ascending, mapped to URLs,
// truncated to the first topK. topK <= 0 means DefaultTopK. If any query
// term is absent from the index, or the query tokenizes to no terms, the
// result is empty.
func (qe *QueryEngine) BoolRetrieve(query string, topK int) ([]string, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	terms := distinctTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}

	lists := make([]PostingList, len(terms))
	for i, t := range terms {
		pl, err := qe.Lookup(t)
		if err != nil {
			return nil, err
		}
		if pl.Len() == 0 {
			return nil, nil
		}
		lists[i] = pl
	}

	docIDs := intersectDocIDs(lists)
	if len(docIDs) > topK {
		docIDs = docIDs[:topK]
	}
	return qe.urlsFor(docIDs), nil
}

// intersectDocIDs returns the ascending-sorted doc_ids common to every
// list. Lists are already doc_id-sorted: each round finds the largest
// current doc_id across all cursors, advances every other cursor up to
// it, and records a match once all cursors agree.
func intersectDocIDs(lists []PostingList) []uint32 {
	if len(lists) == 0 {
		return nil
	}
	idxs := make([]int, len(lists))
	var result []uint32
	for {
		var maxDoc uint32
		for i, l := range lists {
			if idxs[i] >= l.Len() {
				return result
			}
			if i == 0 || l.At(idxs[i]).DocID > maxDoc {
				maxDoc = l.At(idxs[i]).DocID
			}
		}
		allMatch := true
		for i, l := range lists {
			for idxs[i] < l.Len() && l.At(idxs[i]).DocID < maxDoc {
				idxs[i]++
			}
			if idxs[i] >= l.Len() {
				return result
			}
			if l.At(idxs[i]).DocID != maxDoc {
				allMatch = false
			}
		}
		if allMatch {
			result = append(result, maxDoc)
			for i := range idxs {
				idxs[i]++
			}
		}
	}
}

// RankedRetrieve performs TF-IDF ranked retrieval with the soft-conjunction
// gate: a document missing more than 25% of the distinct query terms
// is dropped from the results. Ties break by doc_id ascending. topK <= 0
// means DefaultTopK.
func (qe *QueryEngine) RankedRetrieve(query string, topK int) ([]string, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	terms := distinctTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}

	type termPostings struct {
		term string
		pl   PostingList
		idx  map[uint32]Posting
	}
	perTerm := make([]termPostings, 0, len(terms))
	for _, t := range terms {
		pl, err := qe.Lookup(t)
		if err != nil {
			return nil, err
		}
		if pl.Len() == 0 {
			continue
		}
		idx := make(map[uint32]Posting, pl.Len())
		for _, p := range pl.Postings() {
			idx[p.DocID] = p
		}
		perTerm = append(perTerm, termPostings{term: t, pl: pl, idx: idx})
	}

	candidates := make(map[uint32]bool)
	for _, tp := range perTerm {
		for _, p := range tp.pl.Postings() {
			candidates[p.DocID] = true
		}
	}

	n := float64(qe.NumDocs())
	threshold := 0.75 * float64(len(terms))

	type scored struct {
		docID uint32
		score float64
	}
	var results []scored
	for docID := range candidates {
		matched := 0
		score := 0.0
		for _, tp := range perTerm {
			p, ok := tp.idx[docID]
			if !ok {
				continue
			}
			matched++
			idfDen := float64(tp.pl.Len())
			if idfDen == 0 {
				continue
			}
			tf := 1 + math.Log10(float64(p.TermFrequency))
			idf := math.Log10(n / idfDen)
			score += tf * idf
		}
		if float64(matched) <= threshold {
			continue
		}
		results = append(results, scored{docID: docID, score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].docID < results[j].docID
	})
	if len(results) > topK {
		results = results[:topK]
	}

	docIDs := make([]uint32, len(results))
	for i, r := range results {
		docIDs[i] = r.docID
	}
	return qe.urlsFor(docIDs), nil
}

func (qe *QueryEngine) urlsFor(docIDs []uint32) []string {
	urls := make([]string, 0, len(docIDs))
	for _, id := range docIDs {
		if int(id) < len(qe.docURLs) {
			urls = append(urls, qe.docURLs[id])
		}
	}
	return urls
}
