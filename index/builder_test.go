package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCorpusDoc(t *testing.T, dir, name, content, url string) {
	t.Helper()
	data, err := json.Marshal(corpusDocument{Content: content, URL: url, Encoding: "utf-8"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestBuildAssignsDocIDsByVisitOrderAndDedupesURL(t *testing.T) {
	webpages := t.TempDir()
	partial := filepath.Join(t.TempDir(), "partial")
	indexDir := filepath.Join(t.TempDir(), "out")

	writeCorpusDoc(t, webpages, "a.json", "<p>foo foo foo foo foo foo bar bar bar baz</p>", "http://foo.com")
	writeCorpusDoc(t, webpages, "b.json", "<p>foo foo foo bar bar bar bar bar bar baz</p>", "http://bar.com")
	writeCorpusDoc(t, webpages, "c.json", "<p>duplicate</p>", "http://foo.com#section")

	stats, err := Build(webpages, partial, indexDir, BuildOptions{Workers: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Docs, "the fragment-only duplicate of foo.com must not get its own doc_id")

	urls, err := readDocIDMap(indexDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://foo.com", "http://bar.com"}, urls)
}

func TestBuildRejectsNonEmptyScratchDir(t *testing.T) {
	webpages := t.TempDir()
	writeCorpusDoc(t, webpages, "a.json", "<p>x</p>", "http://x.com")

	partial := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(partial, "stale.bin"), []byte("x"), 0o644))
	indexDir := t.TempDir()

	_, err := Build(webpages, partial, indexDir, BuildOptions{})
	assert.ErrorIs(t, err, ErrDirectoryNotEmpty)
}

func TestBuildFatalOnMissingURLField(t *testing.T) {
	webpages := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(webpages, "bad.json"), []byte(`{"content":"<p>x</p>","encoding":"utf-8"}`), 0o644))

	partial := filepath.Join(t.TempDir(), "partial")
	indexDir := filepath.Join(t.TempDir(), "out")

	_, err := Build(webpages, partial, indexDir, BuildOptions{})
	assert.ErrorIs(t, err, ErrCorruptInput)
}

func TestBuildFatalOnMissingContentField(t *testing.T) {
	webpages := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(webpages, "bad.json"), []byte(`{"url":"http://x.com","encoding":"utf-8"}`), 0o644))

	partial := filepath.Join(t.TempDir(), "partial")
	indexDir := filepath.Join(t.TempDir(), "out")

	_, err := Build(webpages, partial, indexDir, BuildOptions{})
	assert.ErrorIs(t, err, ErrCorruptInput)
}

func TestBuildFatalOnMissingEncodingField(t *testing.T) {
	webpages := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(webpages, "bad.json"), []byte(`{"url":"http://x.com","content":"<p>x</p>"}`), 0o644))

	partial := filepath.Join(t.TempDir(), "partial")
	indexDir := filepath.Join(t.TempDir(), "out")

	_, err := Build(webpages, partial, indexDir, BuildOptions{})
	assert.ErrorIs(t, err, ErrCorruptInput)
}

func TestLoadCorpusDocumentAcceptsPresentButEmptyEncoding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"url":"http://x.com","content":"<p>x</p>","encoding":""}`), 0o644))

	doc, err := loadCorpusDocument(path)
	require.NoError(t, err)
	assert.Equal(t, "", doc.Encoding)
}

func TestBuildFlushesOnBatchSize(t *testing.T) {
	webpages := t.TempDir()
	// Two documents, each contributing enough distinct single-term
	// postings to cross a tiny batch size after the first document.
	writeCorpusDoc(t, webpages, "a.json", "<p>alpha beta gamma</p>", "http://a.com")
	writeCorpusDoc(t, webpages, "b.json", "<p>delta epsilon zeta</p>", "http://b.com")

	partial := filepath.Join(t.TempDir(), "partial")
	indexDir := filepath.Join(t.TempDir(), "out")

	stats, err := Build(webpages, partial, indexDir, BuildOptions{BatchSize: 2, Workers: 1})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.PartialIndexFiles, 2, "a batch size of 2 postings should force more than one flush across two 3-term documents")

	files, err := ListPartialIndexFiles(partial)
	require.NoError(t, err)
	assert.Len(t, files, stats.PartialIndexFiles)
}
