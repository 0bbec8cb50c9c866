package index

import (
	"io"
	"unicode"

	"golang.org/x/net/html"

	"github.com/surgebase/porter2"
)

// tagWeight is the relative importance given to text found under each
// recognized HTML tag. Tags not present here are ignored at this level:
// their text is still counted, but under the weight of the nearest
// recognized ancestor tag (or not at all, if there is none).
var tagWeight = map[string]int{
	"title":  5,
	"h1":     4,
	"h2":     3,
	"h3":     2,
	"b":      2,
	"strong": 2,
	"p":      1,
	"body":   1,
	"span":   1,
	"div":    1,
}

// rawTextTags hold markup, not visible document text; their contents are
// skipped entirely regardless of weight.
var rawTextTags = map[string]bool{
	"script": true,
	"style":  true,
}

// TokenizeHTML parses the HTML document read from r and returns a mapping
// from stemmed term to a single-posting PostingList carrying docID and the
// term's accumulated weighted frequency in this document. An empty or
// all-markup document yields an empty mapping.
func TokenizeHTML(r io.Reader, docID uint32) (map[string]PostingList, error) {
	tf := make(map[string]uint32)

	z := html.NewTokenizer(r)
	var weights []int // stack of weights of enclosing recognized tags
	skipDepth := 0     // >0 while inside a rawTextTags element

	currentWeight := func() int {
		if len(weights) == 0 {
			return 0
		}
		return weights[len(weights)-1]
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != nil && err != io.EOF {
				return nil, err
			}
			return postingsFromTF(tf, docID), nil

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if rawTextTags[tag] {
				if tt == html.StartTagToken {
					skipDepth++
				}
				continue
			}
			if tt == html.StartTagToken {
				w, recognized := tagWeight[tag]
				if !recognized {
					w = currentWeight()
				}
				weights = append(weights, w)
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if rawTextTags[tag] {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if len(weights) > 0 {
				weights = weights[:len(weights)-1]
			}

		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			w := currentWeight()
			if w == 0 {
				continue
			}
			for _, tok := range scanTokens(string(z.Text())) {
				tf[tok] += uint32(w)
			}
		}
	}
}

// postingsFromTF turns an accumulated term->weighted-frequency mapping
// into term->single-posting PostingList form.
func postingsFromTF(tf map[string]uint32, docID uint32) map[string]PostingList {
	out := make(map[string]PostingList, len(tf))
	for term, freq := range tf {
		out[term] = PostingListOf([]Posting{{DocID: docID, TermFrequency: freq}})
	}
	return out
}

// scanTokens splits text into raw alphanumeric tokens by scanning
// character by character: letters and digits accumulate lowercased into a
// buffer, any other character flushes the buffer, and each flushed token
// is Porter-stemmed. This is the same character-scan/stem discipline the
// query tokenizer (StemQuery) uses over plain text, so index-time and
// query-time terms are produced identically.
func scanTokens(text string) []string {
	var tokens []string
	var buf []rune
	flush := func() {
		if len(buf) > 0 {
			tokens = append(tokens, porter2.Stem(string(buf)))
			buf = buf[:0]
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			buf = append(buf, unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// StemQuery tokenizes plain query text using the same case-folding and
// stemming discipline as indexing, without any HTML tag weighting. Tokens
// are returned in first-occurrence order; callers that need a
// deduplicated term set should dedupe while preserving that order (see
// distinctTerms in query.go).
func StemQuery(text string) []string {
	return scanTokens(text)
}
