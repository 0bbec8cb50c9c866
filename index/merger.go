package index

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// MergeOptions configures a Merge run.
type MergeOptions struct {
	// Workers bounds how many merge pairs within one round run
	// concurrently. 0 means sequential (one pair at a time).
	Workers int
	RunID   string
}

// Merge reduces the partial-index files in partialIndexDir (visited in
// the order given, which must already be the builder's deterministic
// sequence order) to a single sealed inverted_index.bin plus
// term_directory.json, both written into indexDir. Scratch merge-run
// files are created and cleaned up inside partialIndexDir.
func Merge(partialIndexFiles []string, partialIndexDir, indexDir string, opts MergeOptions) error {
	logPrefix := ""
	if opts.RunID != "" {
		logPrefix = "[" + opts.RunID + "] "
	}

	if len(partialIndexFiles) == 0 {
		return sealEmptyIndex(indexDir)
	}

	queue := append([]string(nil), partialIndexFiles...)
	var scratch []string
	defer func() {
		for _, p := range scratch {
			os.Remove(p)
		}
	}()
	round := 0
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}

	// Pairwise rounds: a round merges the queue two files at a time,
	// leaving a lone trailing file (if the queue was odd) to carry over
	// untouched to the next round. Rounds are sequential because round
	// k+1 consumes round k's outputs; pairs within a round are
	// independent and run on a bounded worker pool.
	for len(queue) > 2 {
		var pairs [][2]string
		var next []string
		for i := 0; i+1 < len(queue); i += 2 {
			pairs = append(pairs, [2]string{queue[i], queue[i+1]})
		}
		if len(queue)%2 == 1 {
			next = append(next, queue[len(queue)-1])
		}

		outputs := make([]string, len(pairs))
		errs := make([]error, len(pairs))
		sem := make(chan struct{}, workers)
		var wg sync.WaitGroup
		for i, pair := range pairs {
			wg.Add(1)
			go func(i int, pair [2]string) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				out := filepath.Join(partialIndexDir, fmt.Sprintf("tmp_merge_run_%d_%d.bin", round, i))
				if err := twoWayMergeToFile(pair[0], pair[1], out, nil); err != nil {
					errs[i] = err
					return
				}
				outputs[i] = out
			}(i, pair)
		}
		wg.Wait()
		for _, out := range outputs {
			if out != "" {
				scratch = append(scratch, out)
			}
		}
		for _, err := range errs {
			if err != nil {
				return err
			}
		}
		log.Printf("%smerge: round %d merged %d pairs", logPrefix, round, len(pairs))

		queue = append(outputs, next...)
		round++
	}

	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return err
	}
	finalIndexPath := filepath.Join(indexDir, "inverted_index.bin")

	var directory termDirectory
	switch len(queue) {
	case 1:
		// Only one partial index was given (the rounds above always leave
		// two files when they start from more than two): copy it to the
		// final path, building the directory by a single streaming pass.
		var err error
		directory, err = finalizePassthrough(queue[0], finalIndexPath)
		if err != nil {
			return err
		}
	case 2:
		var err error
		directory, err = twoWayMergeToFile(queue[0], queue[1], finalIndexPath, termDirectory{})
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("index: internal error: merge queue has %d entries", len(queue))
	}

	if err := directory.writeJSON(indexDir); err != nil {
		return fmt.Errorf("index: writing term_directory.json: %w", err)
	}
	log.Printf("%smerge: done — %d terms in final index", logPrefix, len(directory))
	return nil
}

// sealEmptyIndex handles the degenerate zero-document corpus: an empty
// inverted_index.bin and an empty term_directory.json, both still valid
// artifacts for QueryEngine initialization.
func sealEmptyIndex(indexDir string) error {
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(indexDir, "inverted_index.bin"), nil, 0o644); err != nil {
		return err
	}
	return termDirectory{}.writeJSON(indexDir)
}

// finalizePassthrough copies a single surviving partial index to its
// final resting place, building the term directory as it goes. This is
// the same bookkeeping twoWayMergeToFile performs, specialized to one
// input.
func finalizePassthrough(src, dstPath string) (termDirectory, error) {
	r, err := OpenPartialIndexReader(src)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	w, err := createCountingWriter(dstPath)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	directory := make(termDirectory)
	for {
		term, pl, err := r.ReadItem()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := writeRecord(w, directory, term, pl); err != nil {
			return nil, err
		}
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return directory, nil
}

// writeRecord serializes one (term, PostingList) record to w, recording
// the byte offset it was written at into directory when directory is
// non-nil (the final merge pass only).
func writeRecord(w *countingWriter, directory termDirectory, term string, pl PostingList) error {
	if directory != nil {
		directory[term] = w.Offset()
	}
	var buf []byte
	buf, err := writeTerm(buf, term)
	if err != nil {
		return err
	}
	plBytes, err := pl.Serialize()
	if err != nil {
		return err
	}
	buf = append(buf, plBytes...)
	_, err = w.Write(buf)
	return err
}

// twoWayCursor holds one side's next pending (term, PostingList) record,
// or a terminal "exhausted" state. It is a pull-based cursor with no
// mutable "don't advance" flag: advance() is only ever called when the
// caller has already consumed the cursor's current value.
type twoWayCursor struct {
	r     *PartialIndexReader
	term  string
	pl    PostingList
	atEOF bool
}

func newTwoWayCursor(path string) (*twoWayCursor, error) {
	r, err := OpenPartialIndexReader(path)
	if err != nil {
		return nil, err
	}
	c := &twoWayCursor{r: r}
	if err := c.advance(); err != nil {
		r.Close()
		return nil, err
	}
	return c, nil
}

// advance pulls the next record into the cursor, or marks it exhausted.
func (c *twoWayCursor) advance() error {
	term, pl, err := c.r.ReadItem()
	if err == io.EOF {
		c.atEOF = true
		return nil
	}
	if err != nil {
		return err
	}
	c.term, c.pl = term, pl
	return nil
}

func (c *twoWayCursor) close() error { return c.r.Close() }

// twoWayMergeToFile streams the two-way merge of left and right (both
// sorted partial-index files) into a fresh file at outPath. When
// directory is non-nil, it is populated with term -> byte offset for
// every record written (the final merge pass only); a nil directory
// means an intermediate merge-run file, where no directory bookkeeping
// is needed.
func twoWayMergeToFile(leftPath, rightPath, outPath string, directory termDirectory) (termDirectory, error) {
	left, err := newTwoWayCursor(leftPath)
	if err != nil {
		return nil, err
	}
	defer left.close()
	right, err := newTwoWayCursor(rightPath)
	if err != nil {
		return nil, err
	}
	defer right.close()

	w, err := createCountingWriter(outPath)
	if err != nil {
		return nil, err
	}
	defer w.Close()

	for !left.atEOF && !right.atEOF {
		switch {
		case left.term < right.term:
			if err := writeRecord(w, directory, left.term, left.pl); err != nil {
				return nil, err
			}
			if err := left.advance(); err != nil {
				return nil, err
			}
		case left.term > right.term:
			if err := writeRecord(w, directory, right.term, right.pl); err != nil {
				return nil, err
			}
			if err := right.advance(); err != nil {
				return nil, err
			}
		default:
			merged, err := mergePostingLists(left.term, left.pl, right.pl)
			if err != nil {
				return nil, err
			}
			if err := writeRecord(w, directory, left.term, merged); err != nil {
				return nil, err
			}
			if err := left.advance(); err != nil {
				return nil, err
			}
			if err := right.advance(); err != nil {
				return nil, err
			}
		}
	}
	for !left.atEOF {
		if err := writeRecord(w, directory, left.term, left.pl); err != nil {
			return nil, err
		}
		if err := left.advance(); err != nil {
			return nil, err
		}
	}
	for !right.atEOF {
		if err := writeRecord(w, directory, right.term, right.pl); err != nil {
			return nil, err
		}
		if err := right.advance(); err != nil {
			return nil, err
		}
	}

	if err := w.Flush(); err != nil {
		return nil, err
	}
	if directory == nil {
		return termDirectory{}, nil
	}
	return directory, nil
}

// mergePostingLists computes the ordered doc_id union of two posting
// lists known to both belong to term. Duplicate doc_ids across the two
// sides are an invariant violation (the same document contributed a
// posting for this term to two different partial indexes, which must
// never happen) and fail loudly rather than silently picking one side.
func mergePostingLists(term string, a, b PostingList) (PostingList, error) {
	ap, bp := a.Postings(), b.Postings()
	merged := make([]Posting, 0, len(ap)+len(bp))
	i, j := 0, 0
	for i < len(ap) && j < len(bp) {
		switch {
		case ap[i].DocID < bp[j].DocID:
			merged = append(merged, ap[i])
			i++
		case ap[i].DocID > bp[j].DocID:
			merged = append(merged, bp[j])
			j++
		default:
			return PostingList{}, fmt.Errorf("%w: term %q doc_id %d", ErrDuplicateDocID, term, ap[i].DocID)
		}
	}
	merged = append(merged, ap[i:]...)
	merged = append(merged, bp[j:]...)
	return PostingListOf(merged), nil
}

// ListPartialIndexFiles returns the partial-index files under dir in
// their deterministic sequence-number order, as written by Build. This
// is the expected input list to Merge when driving it from cmd/widx.
func ListPartialIndexFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	// entries are already returned in filename order by os.ReadDir, and
	// the zero-padded sequence numbers make lexicographic order equal to
	// numeric order.
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths, nil
}
