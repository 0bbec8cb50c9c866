package index

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// postingSize is the on-disk size, in bytes, of a single Posting:
// u32 doc_id | u32 term_frequency.
const postingSize = 8

// A Posting is a (doc_id, term_frequency) pair. Posting is intentionally a
// fixed record: the on-disk schema carries exactly these two fields, with
// no room for the dynamically-typed extra attributes (tfidf_score, url)
// that the reference Python implementation piggybacks onto its Posting
// objects. Any such extension belongs in a schema-versioned successor
// format, not bolted onto this one.
type Posting struct {
	DocID         uint32
	TermFrequency uint32
}

func (p Posting) String() string {
	return fmt.Sprintf("Posting{doc=%d tf=%d}", p.DocID, p.TermFrequency)
}

func writePosting(buf []byte, p Posting) []byte {
	var tmp [postingSize]byte
	binary.LittleEndian.PutUint32(tmp[0:4], p.DocID)
	binary.LittleEndian.PutUint32(tmp[4:8], p.TermFrequency)
	return append(buf, tmp[:]...)
}

func readPosting(data []byte) (Posting, error) {
	if len(data) < postingSize {
		return Posting{}, fmt.Errorf("%w: truncated posting", ErrCorruptInput)
	}
	return Posting{
		DocID:         binary.LittleEndian.Uint32(data[0:4]),
		TermFrequency: binary.LittleEndian.Uint32(data[4:8]),
	}, nil
}

// A PostingList is an ordered, strictly-increasing-by-doc_id sequence of
// Postings for a single term. PostingList does not know (and does not
// need to know) which term it belongs to.
type PostingList struct {
	postings []Posting
}

// NewPostingList returns an empty PostingList.
func NewPostingList() PostingList {
	return PostingList{}
}

// PostingListOf builds a PostingList from postings already known to be
// sorted and duplicate-free; used by the merger and by tests. It does not
// re-validate its input.
func PostingListOf(postings []Posting) PostingList {
	return PostingList{postings: postings}
}

// Len returns the number of postings in the list.
func (pl PostingList) Len() int { return len(pl.postings) }

// Postings returns the list's postings in ascending doc_id order. The
// returned slice must not be mutated by the caller.
func (pl PostingList) Postings() []Posting { return pl.postings }

// At returns the i'th posting.
func (pl PostingList) At(i int) Posting { return pl.postings[i] }

// Equal reports whether two posting lists contain the same postings in the
// same order; used by round-trip tests.
func (pl PostingList) Equal(other PostingList) bool {
	if len(pl.postings) != len(other.postings) {
		return false
	}
	for i := range pl.postings {
		if pl.postings[i] != other.postings[i] {
			return false
		}
	}
	return true
}

// Add inserts p into the list at the position that keeps doc_ids strictly
// increasing. It fails loudly (returns ErrDuplicateDocID) rather than
// silently corrupting the list if p's doc_id already has a posting.
func (pl *PostingList) Add(p Posting) error {
	i := sort.Search(len(pl.postings), func(i int) bool {
		return pl.postings[i].DocID >= p.DocID
	})
	if i < len(pl.postings) && pl.postings[i].DocID == p.DocID {
		return fmt.Errorf("%w: doc_id %d", ErrDuplicateDocID, p.DocID)
	}
	pl.postings = append(pl.postings, Posting{})
	copy(pl.postings[i+1:], pl.postings[i:])
	pl.postings[i] = p
	return nil
}

// Serialize returns the wire encoding of the list: u16 posting_count
// followed by posting_count * (u32 doc_id, u32 term_frequency), all
// little-endian.
func (pl PostingList) Serialize() ([]byte, error) {
	if len(pl.postings) > 1<<16-1 {
		return nil, fmt.Errorf("%w: has %d", ErrPostingListTooLarge, len(pl.postings))
	}
	buf := make([]byte, 0, 2+len(pl.postings)*postingSize)
	var countBuf [2]byte
	binary.LittleEndian.PutUint16(countBuf[:], uint16(len(pl.postings)))
	buf = append(buf, countBuf[:]...)
	for _, p := range pl.postings {
		buf = writePosting(buf, p)
	}
	return buf, nil
}

// DeserializePostingList decodes a PostingList from the front of data,
// returning the list and the number of bytes consumed. It is used by
// DeserializePartialIndex for whole-buffer round trips; the streaming
// reader (PartialIndexReader) decodes the same layout incrementally.
func DeserializePostingList(data []byte) (PostingList, int, error) {
	if len(data) < 2 {
		return PostingList{}, 0, fmt.Errorf("%w: truncated posting-list length", ErrCorruptInput)
	}
	count := int(binary.LittleEndian.Uint16(data))
	need := 2 + count*postingSize
	if len(data) < need {
		return PostingList{}, 0, fmt.Errorf("%w: truncated posting list", ErrCorruptInput)
	}
	postings := make([]Posting, count)
	off := 2
	for i := 0; i < count; i++ {
		p, err := readPosting(data[off:])
		if err != nil {
			return PostingList{}, 0, err
		}
		postings[i] = p
		off += postingSize
	}
	return PostingList{postings: postings}, need, nil
}
