package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePartialIndexFile(t *testing.T, dir, name string, pi *PartialIndex) string {
	t.Helper()
	data, err := pi.Serialize()
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestMergeTwoPartialIndexesUnionsPostingLists(t *testing.T) {
	dir := t.TempDir()
	indexDir := t.TempDir()

	left := NewPartialIndex()
	require.NoError(t, left.AddPosting("bar", Posting{DocID: 0, TermFrequency: 1}))
	require.NoError(t, left.AddPosting("foo", Posting{DocID: 0, TermFrequency: 2}))

	right := NewPartialIndex()
	require.NoError(t, right.AddPosting("baz", Posting{DocID: 1, TermFrequency: 5}))
	require.NoError(t, right.AddPosting("foo", Posting{DocID: 1, TermFrequency: 3}))

	p0 := writePartialIndexFile(t, dir, "partial_index_000.bin", left)
	p1 := writePartialIndexFile(t, dir, "partial_index_001.bin", right)

	require.NoError(t, Merge([]string{p0, p1}, dir, indexDir, MergeOptions{}))

	directory, err := readTermDirectory(indexDir)
	require.NoError(t, err)
	assert.Contains(t, directory, "foo")
	assert.Contains(t, directory, "bar")
	assert.Contains(t, directory, "baz")

	r, err := OpenPartialIndexReader(filepath.Join(indexDir, "inverted_index.bin"))
	require.NoError(t, err)
	defer r.Close()

	var terms []string
	postingsByTerm := make(map[string]PostingList)
	for {
		term, pl, err := r.ReadItem()
		if err != nil {
			break
		}
		terms = append(terms, term)
		postingsByTerm[term] = pl
	}
	assert.Equal(t, []string{"bar", "baz", "foo"}, terms, "merged index must be in ascending term order")

	foo := postingsByTerm["foo"]
	require.Equal(t, 2, foo.Len())
	assert.Equal(t, Posting{DocID: 0, TermFrequency: 2}, foo.At(0))
	assert.Equal(t, Posting{DocID: 1, TermFrequency: 3}, foo.At(1))
}

func TestMergeDuplicateDocIDAcrossPartialIndexesFailsLoudly(t *testing.T) {
	dir := t.TempDir()
	indexDir := t.TempDir()

	left := NewPartialIndex()
	require.NoError(t, left.AddPosting("foo", Posting{DocID: 0, TermFrequency: 1}))
	right := NewPartialIndex()
	require.NoError(t, right.AddPosting("foo", Posting{DocID: 0, TermFrequency: 9}))

	p0 := writePartialIndexFile(t, dir, "partial_index_000.bin", left)
	p1 := writePartialIndexFile(t, dir, "partial_index_001.bin", right)

	err := Merge([]string{p0, p1}, dir, indexDir, MergeOptions{})
	assert.ErrorIs(t, err, ErrDuplicateDocID)
}

func TestMergeDirectoryOffsetsDecodeToMatchingTerm(t *testing.T) {
	dir := t.TempDir()
	indexDir := t.TempDir()

	pi := NewPartialIndex()
	for _, term := range []string{"alpha", "beta", "gamma", "delta"} {
		require.NoError(t, pi.AddPosting(term, Posting{DocID: 0, TermFrequency: 1}))
	}
	p0 := writePartialIndexFile(t, dir, "partial_index_000.bin", pi)

	require.NoError(t, Merge([]string{p0}, dir, indexDir, MergeOptions{}))

	directory, err := readTermDirectory(indexDir)
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(indexDir, "inverted_index.bin"))
	require.NoError(t, err)
	defer f.Close()

	for term, offset := range directory {
		_, err := f.Seek(offset, 0)
		require.NoError(t, err)
		got, _, err := readTermAt(f)
		require.NoError(t, err)
		assert.Equal(t, term, got)
	}
}

func TestMergeManyPartialIndexesInRounds(t *testing.T) {
	dir := t.TempDir()
	indexDir := t.TempDir()

	var paths []string
	for i := 0; i < 5; i++ {
		pi := NewPartialIndex()
		require.NoError(t, pi.AddPosting("shared", Posting{DocID: uint32(i), TermFrequency: uint32(i + 1)}))
		paths = append(paths, writePartialIndexFile(t, dir, filFor(i), pi))
	}

	require.NoError(t, Merge(paths, dir, indexDir, MergeOptions{Workers: 2}))

	r, err := OpenPartialIndexReader(filepath.Join(indexDir, "inverted_index.bin"))
	require.NoError(t, err)
	defer r.Close()

	term, pl, err := r.ReadItem()
	require.NoError(t, err)
	assert.Equal(t, "shared", term)
	assert.Equal(t, 5, pl.Len())
	for i, p := range pl.Postings() {
		assert.Equal(t, uint32(i), p.DocID)
	}
}

func filFor(i int) string {
	return "partial_index_" + string(rune('0'+i)) + ".bin"
}
