package index

import "sort"

// A PartialIndex is an in-memory mapping from term to PostingList, plus a
// parallel sorted sequence of the distinct terms it has seen. It is
// created empty, populated by a builder, serialized exactly once, and
// discarded; PartialIndex itself enforces none of that lifecycle beyond
// exposing NumPostings/NumTerms for the builder's flush decision.
//
// Invariant, maintained after every successful AddPosting/AddPostingList call:
// sortedTerms is exactly the ascending-ordered key set of postings.
type PartialIndex struct {
	postings    map[string]*PostingList
	sortedTerms []string
	numPostings int
}

// NewPartialIndex returns an empty PartialIndex.
func NewPartialIndex() *PartialIndex {
	return &PartialIndex{postings: make(map[string]*PostingList)}
}

// NumPostings returns the total number of postings across all terms.
func (pi *PartialIndex) NumPostings() int { return pi.numPostings }

// NumTerms returns the number of distinct terms.
func (pi *PartialIndex) NumTerms() int { return len(pi.sortedTerms) }

// SortedTerms returns the terms in ascending lexicographic order. The
// returned slice must not be mutated by the caller.
func (pi *PartialIndex) SortedTerms() []string { return pi.sortedTerms }

// PostingList returns the posting list for term and whether it exists.
func (pi *PartialIndex) PostingList(term string) (PostingList, bool) {
	pl, ok := pi.postings[term]
	if !ok {
		return PostingList{}, false
	}
	return *pl, true
}

// insertTerm inserts term into sortedTerms at its lexicographic position
// and returns a fresh empty posting list registered under it. Called only
// the first time a term is seen.
func (pi *PartialIndex) insertTerm(term string) *PostingList {
	i := sort.SearchStrings(pi.sortedTerms, term)
	pi.sortedTerms = append(pi.sortedTerms, "")
	copy(pi.sortedTerms[i+1:], pi.sortedTerms[i:])
	pi.sortedTerms[i] = term

	pl := &PostingList{}
	pi.postings[term] = pl
	return pl
}

// AddPosting adds a single posting under term. It fails loudly
// (ErrDuplicateDocID) if a posting for the same doc_id already exists
// under this term.
func (pi *PartialIndex) AddPosting(term string, p Posting) error {
	pl, ok := pi.postings[term]
	if !ok {
		pl = pi.insertTerm(term)
	}
	if err := pl.Add(p); err != nil {
		return err
	}
	pi.numPostings++
	return nil
}

// AddPostingList adds every posting in list under term, amortized over a
// batch; it has the same duplicate-detection contract as AddPosting.
func (pi *PartialIndex) AddPostingList(term string, list PostingList) error {
	for _, p := range list.Postings() {
		if err := pi.AddPosting(term, p); err != nil {
			return err
		}
	}
	return nil
}

// Serialize emits the partial index's records in sorted-term order: each
// record is u16 term_len | term | u16 posting_count | postings.
func (pi *PartialIndex) Serialize() ([]byte, error) {
	var buf []byte
	for _, term := range pi.sortedTerms {
		var err error
		buf, err = writeTerm(buf, term)
		if err != nil {
			return nil, err
		}
		plBytes, err := pi.postings[term].Serialize()
		if err != nil {
			return nil, err
		}
		buf = append(buf, plBytes...)
	}
	return buf, nil
}

// DeserializePartialIndex is the inverse of Serialize; used by tests only
// for whole-buffer round-trip verification. Streaming consumers use
// PartialIndexReader instead.
func DeserializePartialIndex(data []byte) (*PartialIndex, error) {
	pi := NewPartialIndex()
	for len(data) > 0 {
		term, n, err := readTerm(data)
		if err != nil {
			return nil, err
		}
		data = data[n:]
		pl, n, err := DeserializePostingList(data)
		if err != nil {
			return nil, err
		}
		data = data[n:]
		if err := pi.AddPostingList(term, pl); err != nil {
			return nil, err
		}
	}
	return pi, nil
}
