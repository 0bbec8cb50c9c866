package index

import (
	"errors"
	"testing"
)

func TestPostingRoundTrip(t *testing.T) {
	p := Posting{DocID: 42, TermFrequency: 7}
	buf := writePosting(nil, p)
	got, err := readPosting(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got != p {
		t.Errorf("round trip: got %+v, want %+v", got, p)
	}
}

func TestPostingListAddKeepsOrder(t *testing.T) {
	pl := NewPostingList()
	for _, id := range []uint32{5, 1, 3, 2, 4} {
		if err := pl.Add(Posting{DocID: id, TermFrequency: 1}); err != nil {
			t.Fatal(err)
		}
	}
	for i, p := range pl.Postings() {
		if p.DocID != uint32(i+1) {
			t.Errorf("postings[%d].DocID = %d, want %d", i, p.DocID, i+1)
		}
	}
}

func TestPostingListAddDuplicateDocID(t *testing.T) {
	pl := NewPostingList()
	if err := pl.Add(Posting{DocID: 1, TermFrequency: 1}); err != nil {
		t.Fatal(err)
	}
	err := pl.Add(Posting{DocID: 1, TermFrequency: 2})
	if !errors.Is(err, ErrDuplicateDocID) {
		t.Fatalf("got error %v, want ErrDuplicateDocID", err)
	}
}

func TestPostingListSerializeRoundTrip(t *testing.T) {
	pl := PostingListOf([]Posting{
		{DocID: 0, TermFrequency: 6},
		{DocID: 1, TermFrequency: 3},
	})
	data, err := pl.Serialize()
	if err != nil {
		t.Fatal(err)
	}
	got, n, err := DeserializePostingList(data)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(data) {
		t.Errorf("consumed %d bytes, want %d", n, len(data))
	}
	if !got.Equal(pl) {
		t.Errorf("round trip: got %v, want %v", got.Postings(), pl.Postings())
	}
}

func TestPostingListTooLarge(t *testing.T) {
	pl := PostingList{}
	postings := make([]Posting, 1<<16)
	for i := range postings {
		postings[i] = Posting{DocID: uint32(i), TermFrequency: 1}
	}
	pl = PostingListOf(postings)
	_, err := pl.Serialize()
	if !errors.Is(err, ErrPostingListTooLarge) {
		t.Fatalf("got error %v, want ErrPostingListTooLarge", err)
	}
}
