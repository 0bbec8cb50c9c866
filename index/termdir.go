package index

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

const termDirectoryFileName = "term_directory.json"

// termDirectory maps a term to the byte offset of its record within the
// sealed index's postings file, letting the query engine seek directly to
// a term's posting list instead of scanning.
type termDirectory map[string]int64

// writeJSON persists the directory. JSON keeps the sidecar
// human-inspectable, matching the teacher/pack convention of shipping
// small auxiliary metadata as JSON rather than a second binary format.
func (d termDirectory) writeJSON(indexDir string) error {
	f, err := os.OpenFile(indexDir+string(os.PathSeparator)+termDirectoryFileName,
		os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriterSize(f, 256<<10)
	enc := json.NewEncoder(w)
	if err := enc.Encode(map[string]int64(d)); err != nil {
		return fmt.Errorf("index: marshal term_directory: %w", err)
	}
	return w.Flush()
}

// readTermDirectory loads term_directory.json.
func readTermDirectory(indexDir string) (termDirectory, error) {
	path := indexDir + string(os.PathSeparator) + termDirectoryFileName
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingArtifact, path)
		}
		return nil, err
	}
	var d termDirectory
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptInput, path, err)
	}
	return d, nil
}

// sortedTerms returns the directory's terms in ascending order, useful for
// diagnostics (widx check) where a stable iteration order matters.
func (d termDirectory) sortedTerms() []string {
	terms := make([]string, 0, len(d))
	for t := range d {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}
