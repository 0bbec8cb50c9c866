package index

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// A PartialIndexReader is a scoped resource that streams the
// (term, PostingList) records of one partial-index file in order,
// decoding each record without loading the whole file into memory. It is
// strictly forward-only; the query engine's random-access reads go
// through a separate seek/read path (see query.go).
type PartialIndexReader struct {
	f *os.File
	r *bufio.Reader
}

// OpenPartialIndexReader opens path for streaming decode.
func OpenPartialIndexReader(path string) (*PartialIndexReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &PartialIndexReader{f: f, r: bufio.NewReaderSize(f, 256<<10)}, nil
}

// Close releases the underlying file handle.
func (r *PartialIndexReader) Close() error {
	return r.f.Close()
}

// ReadItem returns the next (term, PostingList) record, or io.EOF once the
// file is exhausted.
func (r *PartialIndexReader) ReadItem() (term string, postings PostingList, err error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r.r, lenBuf[:]); err != nil {
		if err == io.EOF {
			return "", PostingList{}, io.EOF
		}
		return "", PostingList{}, fmt.Errorf("%w: %v", ErrCorruptInput, err)
	}
	termLen := int(binary.LittleEndian.Uint16(lenBuf[:]))
	termBytes := make([]byte, termLen)
	if _, err := io.ReadFull(r.r, termBytes); err != nil {
		return "", PostingList{}, fmt.Errorf("%w: truncated term: %v", ErrCorruptInput, err)
	}

	var countBuf [2]byte
	if _, err := io.ReadFull(r.r, countBuf[:]); err != nil {
		return "", PostingList{}, fmt.Errorf("%w: truncated posting count: %v", ErrCorruptInput, err)
	}
	count := int(binary.LittleEndian.Uint16(countBuf[:]))
	postingBytes := make([]byte, count*postingSize)
	if _, err := io.ReadFull(r.r, postingBytes); err != nil {
		return "", PostingList{}, fmt.Errorf("%w: truncated posting list: %v", ErrCorruptInput, err)
	}

	postings = PostingList{postings: make([]Posting, count)}
	off := 0
	for i := 0; i < count; i++ {
		p, err := readPosting(postingBytes[off:])
		if err != nil {
			return "", PostingList{}, err
		}
		postings.postings[i] = p
		off += postingSize
	}
	return string(termBytes), postings, nil
}
