package index

import "testing"

func TestCanonicalizeURLStripsFragment(t *testing.T) {
	cases := map[string]string{
		"http://foo.com/page#section": "http://foo.com/page",
		"http://foo.com/page":         "http://foo.com/page",
		"http://foo.com/page#a#b":     "http://foo.com/page",
		"not a url but has #fragment": "not a url but has ",
		// No scheme: even though net/url.Parse accepts this as a valid
		// relative reference, it must still go through the plain textual
		// strip rather than being percent-encoded by u.String().
		"foo.com/page#section": "foo.com/page",
	}
	for in, want := range cases {
		if got := canonicalizeURL(in); got != want {
			t.Errorf("canonicalizeURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDocIDMapAssignIsStableAndFirstWins(t *testing.T) {
	m := newDocIDMap()
	id0, isNew0 := m.assign("http://foo.com")
	if !isNew0 || id0 != 0 {
		t.Fatalf("first assign = (%d, %v), want (0, true)", id0, isNew0)
	}
	id1, isNew1 := m.assign("http://bar.com")
	if !isNew1 || id1 != 1 {
		t.Fatalf("second assign = (%d, %v), want (1, true)", id1, isNew1)
	}
	idAgain, isNewAgain := m.assign("http://foo.com")
	if isNewAgain || idAgain != 0 {
		t.Fatalf("repeat assign = (%d, %v), want (0, false)", idAgain, isNewAgain)
	}
}
