package index

import (
	"strings"
	"testing"

	"github.com/surgebase/porter2"
)

func TestTokenizeHTMLWeighting(t *testing.T) {
	html := `<html><body><title>Cat Cat</title><p>cat dog</p></body></html>`
	postings, err := TokenizeHTML(strings.NewReader(html), 7)
	if err != nil {
		t.Fatal(err)
	}

	catStem := StemQuery("cat")[0]
	dogStem := StemQuery("dog")[0]

	pl, ok := postings[catStem]
	if !ok {
		t.Fatalf("missing postings for %q", catStem)
	}
	if pl.Len() != 1 || pl.At(0).DocID != 7 {
		t.Fatalf("cat postings = %v, want single posting for doc 7", pl.Postings())
	}
	// title weight 5 applied twice (two "Cat" occurrences) plus one more
	// occurrence of "cat" inside the <p> at weight 1.
	if got, want := pl.At(0).TermFrequency, uint32(11); got != want {
		t.Errorf("cat tf = %d, want %d", got, want)
	}

	pl, ok = postings[dogStem]
	if !ok {
		t.Fatalf("missing postings for %q", dogStem)
	}
	if got, want := pl.At(0).TermFrequency, uint32(1); got != want {
		t.Errorf("dog tf = %d, want %d (p weight)", got, want)
	}
}

func TestTokenizeHTMLSkipsScriptAndStyle(t *testing.T) {
	html := `<html><body><script>var x = "secret";</script><style>.c{color:red}</style><p>visible</p></body></html>`
	postings, err := TokenizeHTML(strings.NewReader(html), 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := postings[StemQuery("secret")[0]]; ok {
		t.Error("script content should not be tokenized")
	}
	if _, ok := postings["color"]; ok {
		t.Error("style content should not be tokenized")
	}
	if _, ok := postings[StemQuery("visible")[0]]; !ok {
		t.Error("expected visible paragraph text to be tokenized")
	}
}

func TestTokenizeHTMLEmptyDocument(t *testing.T) {
	postings, err := TokenizeHTML(strings.NewReader(""), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(postings) != 0 {
		t.Errorf("expected empty mapping, got %v", postings)
	}
}

func TestScanTokensCaseAndSplit(t *testing.T) {
	got := scanTokens("Foo-Bar123 baz")
	want := []string{porter2.Stem("foo"), porter2.Stem("bar123"), porter2.Stem("baz")}
	if len(got) != len(want) {
		t.Fatalf("scanTokens = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}
