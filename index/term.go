package index

import (
	"encoding/binary"
	"fmt"
)

// maxTermLen is the largest term length representable by the on-disk u16
// length prefix.
const maxTermLen = 1<<16 - 1

// writeTerm appends the length-prefixed encoding of term to buf:
// u16 byte length, little-endian, followed by the UTF-8 bytes.
func writeTerm(buf []byte, term string) ([]byte, error) {
	if len(term) > maxTermLen {
		return nil, fmt.Errorf("index: term %q exceeds %d bytes", term, maxTermLen)
	}
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(term)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, term...)
	return buf, nil
}

// readTerm decodes a length-prefixed term from the front of data and
// returns the term along with the number of bytes consumed.
func readTerm(data []byte) (term string, n int, err error) {
	if len(data) < 2 {
		return "", 0, fmt.Errorf("%w: truncated term length", ErrCorruptInput)
	}
	termLen := int(binary.LittleEndian.Uint16(data))
	if len(data) < 2+termLen {
		return "", 0, fmt.Errorf("%w: truncated term bytes", ErrCorruptInput)
	}
	return string(data[2 : 2+termLen]), 2 + termLen, nil
}
