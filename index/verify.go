package index

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CheckReport summarizes a completed Check pass.
type CheckReport struct {
	Terms    int
	Postings int
}

// Check re-walks a sealed index sequentially and verifies its structural
// invariants: terms appear in strictly ascending order, every posting
// list is doc_id-sorted with no duplicates, and every term_directory
// entry's offset decodes to the term it claims to. It returns the first
// violation found: violations met while walking the records are returned
// as a CorruptIndexError; a term_directory offset that decodes to a
// different term is returned wrapped in ErrTermMismatch, and one that does
// not decode at all wrapped in ErrCorruptInput.
func Check(indexDir string) (CheckReport, error) {
	indexPath := filepath.Join(indexDir, "inverted_index.bin")
	if _, err := os.Stat(indexPath); err != nil {
		if os.IsNotExist(err) {
			return CheckReport{}, fmt.Errorf("%w: %s", ErrMissingArtifact, indexPath)
		}
		return CheckReport{}, err
	}

	directory, err := readTermDirectory(indexDir)
	if err != nil {
		return CheckReport{}, err
	}

	r, err := OpenPartialIndexReader(indexPath)
	if err != nil {
		return CheckReport{}, err
	}
	defer r.Close()

	var report CheckReport
	prevTerm := ""
	first := true
	for {
		term, pl, err := r.ReadItem()
		if err == io.EOF {
			break
		}
		if err != nil {
			return report, newCorruptIndexError(indexPath, err.Error())
		}
		if !first && term <= prevTerm {
			return report, newCorruptIndexError(indexPath,
				fmt.Sprintf("term %q does not follow %q in ascending order", term, prevTerm))
		}
		first = false
		prevTerm = term

		if err := checkPostingListSorted(term, pl); err != nil {
			return report, err
		}

		if _, ok := directory[term]; !ok {
			return report, newCorruptIndexError(indexPath, fmt.Sprintf("term %q missing from term_directory", term))
		}

		report.Terms++
		report.Postings += pl.Len()
	}

	for term, offset := range directory {
		if err := checkDirectoryOffset(indexPath, term, offset); err != nil {
			return report, err
		}
	}

	return report, nil
}

func checkPostingListSorted(term string, pl PostingList) error {
	postings := pl.Postings()
	for i := 1; i < len(postings); i++ {
		if postings[i].DocID <= postings[i-1].DocID {
			return newCorruptIndexError("", fmt.Sprintf(
				"term %q posting list not strictly increasing at index %d (doc_id %d after %d)",
				term, i, postings[i].DocID, postings[i-1].DocID))
		}
	}
	return nil
}

// checkDirectoryOffset confirms that seeking to offset and decoding a
// term yields exactly term, the defining property of the term
// directory.
func checkDirectoryOffset(indexPath, term string, offset int64) error {
	f, err := os.Open(indexPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Seek(offset, 0); err != nil {
		return err
	}
	got, _, err := readTermAt(f)
	if err != nil {
		return err
	}
	if got != term {
		return fmt.Errorf("%w: directory offset %d for %q decodes to %q", ErrTermMismatch, offset, term, got)
	}
	return nil
}
