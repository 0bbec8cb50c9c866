package index

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"
)

// BatchSize is the default posting-count threshold that triggers a
// partial-index flush: 2^18, as specified.
const BatchSize = 1 << 18

// BuildOptions configures a Build run. Zero values fall back to the
// documented defaults (BatchSize, runtime.NumCPU() workers).
type BuildOptions struct {
	// BatchSize is the num_postings() threshold that triggers a flush.
	BatchSize int
	// Workers is the size of the tokenizer goroutine pool. 0 means
	// runtime.NumCPU().
	Workers int
	// RunID tags every log line emitted during this build, so logs from
	// concurrent or repeated runs against the same corpus can be told
	// apart. Purely observational.
	RunID string
}

// BuildStats summarizes a completed build, mirroring the one-line summary
// the reference indexer prints.
type BuildStats struct {
	Docs              int
	Terms             int
	Postings          int
	PartialIndexFiles int
	Elapsed           time.Duration
}

// corpusDocument is the on-disk JSON shape of one corpus record. Encoding
// is accepted but not otherwise inspected: content is already valid UTF-8
// Go string once json.Unmarshal succeeds.
type corpusDocument struct {
	Content  string `json:"content"`
	URL      string `json:"url"`
	Encoding string `json:"encoding"`
}

// tokenizeJob is one unit of work handed to the tokenizer pool.
type tokenizeJob struct {
	docID uint32
	path  string
}

// tokenizeResult is what feeds the single accumulator goroutine, from
// either a tokenizer worker or a document-load failure in the feeder.
type tokenizeResult struct {
	docID    uint32
	postings map[string]PostingList
	err      error
}

// Build walks webpagesDir, tokenizes every document, and writes a
// sequence of partial-index files to partialIndexDir plus doc_id_map.json
// to indexDir. partialIndexDir and indexDir must both be empty or not yet
// exist; Build refuses to write into a non-empty scratch or output
// directory (spec error kind 3).
func Build(webpagesDir, partialIndexDir, indexDir string, opts BuildOptions) (BuildStats, error) {
	start := time.Now()
	logPrefix := ""
	if opts.RunID != "" {
		logPrefix = "[" + opts.RunID + "] "
	}

	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = BatchSize
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	if err := ensureEmptyDir(partialIndexDir); err != nil {
		return BuildStats{}, err
	}
	if err := ensureEmptyDir(indexDir); err != nil {
		return BuildStats{}, err
	}

	paths, err := walkCorpus(webpagesDir)
	if err != nil {
		return BuildStats{}, err
	}
	log.Printf("%sbuild: found %d document files under %s", logPrefix, len(paths), webpagesDir)

	docMap := newDocIDMap()
	jobs := make(chan tokenizeJob)
	results := make(chan tokenizeResult)

	var wg sync.WaitGroup
	wg.Add(workers + 1)

	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				f, err := os.Open(j.path)
				if err != nil {
					results <- tokenizeResult{docID: j.docID, err: err}
					continue
				}
				postings, err := TokenizeHTML(f, j.docID)
				f.Close()
				results <- tokenizeResult{docID: j.docID, postings: postings, err: err}
			}
		}()
	}

	// Feeder: walks the corpus, assigns doc_ids (the only place docMap is
	// mutated, so no locking is needed), and dispatches tokenizer jobs.
	// Documents that fail to load are reported straight to results rather
	// than dispatched, since there is nothing to tokenize.
	go func() {
		defer wg.Done()
		defer close(jobs)
		for _, p := range paths {
			doc, err := loadCorpusDocument(p)
			if err != nil {
				results <- tokenizeResult{err: err}
				continue
			}
			docID, isNew := docMap.assign(canonicalizeURL(doc.URL))
			if !isNew {
				continue
			}
			jobs <- tokenizeJob{docID: docID, path: p}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// The accumulator owns the in-memory PartialIndex exclusively: every
	// AddPostingList call and flush decision happens serially here, per
	// the worker-pool-feeds-single-accumulator concurrency model.
	current := NewPartialIndex()
	seq := 0
	var filesOut []string
	totalTerms := make(map[string]struct{})
	totalPostings := 0

	for r := range results {
		if r.err != nil {
			return BuildStats{}, fmt.Errorf("index: tokenizing document %d: %w", r.docID, r.err)
		}
		for term, pl := range r.postings {
			if err := current.AddPostingList(term, pl); err != nil {
				return BuildStats{}, fmt.Errorf("index: accumulating doc %d: %w", r.docID, err)
			}
			totalTerms[term] = struct{}{}
			totalPostings += pl.Len()
		}
		if current.NumPostings() >= batchSize {
			path, err := flushPartialIndex(partialIndexDir, seq, current)
			if err != nil {
				return BuildStats{}, err
			}
			filesOut = append(filesOut, path)
			log.Printf("%sbuild: flushed %s (%d terms, %d postings)", logPrefix, path, current.NumTerms(), current.NumPostings())
			seq++
			current = NewPartialIndex()
		}
	}

	if current.NumPostings() > 0 {
		path, err := flushPartialIndex(partialIndexDir, seq, current)
		if err != nil {
			return BuildStats{}, err
		}
		filesOut = append(filesOut, path)
	}

	if err := docMap.writeJSON(indexDir); err != nil {
		return BuildStats{}, fmt.Errorf("index: writing doc_id_map.json: %w", err)
	}

	stats := BuildStats{
		Docs:              docMap.numDocs(),
		Terms:             len(totalTerms),
		Postings:          totalPostings,
		PartialIndexFiles: len(filesOut),
		Elapsed:           time.Since(start),
	}
	log.Printf("%sbuild: done — %d docs, %d distinct terms, %d partial-index files in %s",
		logPrefix, stats.Docs, stats.Terms, stats.PartialIndexFiles, stats.Elapsed)
	return stats, nil
}

func flushPartialIndex(dir string, seq int, pi *PartialIndex) (string, error) {
	data, err := pi.Serialize()
	if err != nil {
		return "", fmt.Errorf("index: serializing partial index %03d: %w", seq, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("partial_index_%03d.bin", seq))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("index: writing %s: %w", path, err)
	}
	return path, nil
}

// requiredCorpusFields are the fields §6 names as required on every
// corpus document; a document JSON object lacking any of them is
// corrupt input regardless of what other fields it carries.
var requiredCorpusFields = []string{"content", "url", "encoding"}

// loadCorpusDocument reads and validates one corpus file: JSON carrying
// all of content, url, and encoding. A missing file, undecodable JSON, or
// JSON object lacking any required field is corrupt input (spec error
// kind 1), fatal to the current build. Presence is checked against the
// raw object rather than the zero value of a string field, so a field
// that is merely present-but-empty (e.g. `"encoding": ""`) is accepted
// while an absent field is not.
func loadCorpusDocument(path string) (corpusDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return corpusDocument{}, &DocumentError{Path: path, Err: err}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return corpusDocument{}, &DocumentError{Path: path, Err: fmt.Errorf("%w: %v", ErrCorruptInput, err)}
	}
	for _, field := range requiredCorpusFields {
		if _, ok := raw[field]; !ok {
			return corpusDocument{}, &DocumentError{Path: path, Err: fmt.Errorf("%w: missing %q field", ErrCorruptInput, field)}
		}
	}

	var doc corpusDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return corpusDocument{}, &DocumentError{Path: path, Err: fmt.Errorf("%w: %v", ErrCorruptInput, err)}
	}
	return doc, nil
}

// walkCorpus returns every regular file under dir in deterministic
// (lexicographic) order, matching the spec's doc_id-assignment-stability
// requirement.
func walkCorpus(dir string) ([]string, error) {
	var paths []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("index: walking %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// ensureEmptyDir creates dir if absent, or confirms it exists and is
// empty. A non-empty pre-existing directory is the spec's "Resource
// precondition" failure kind: fatal before any work starts.
func ensureEmptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(dir, 0o755)
		}
		return err
	}
	if len(entries) > 0 {
		return fmt.Errorf("%w: %s", ErrDirectoryNotEmpty, dir)
	}
	return nil
}
