package index

import (
	"bufio"
	"os"
)

// countingWriter is a small convenience wrapper round a buffered file
// writer that tracks the current write offset, the way the teacher
// package's Buffer type tracked index.Offset() for its trailer bookkeeping.
// Here it is what lets the merger's final pass record
// "term -> byte offset of its record" as it writes.
type countingWriter struct {
	f      *os.File
	w      *bufio.Writer
	offset int64
}

func createCountingWriter(path string) (*countingWriter, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, err
	}
	return &countingWriter{f: f, w: bufio.NewWriterSize(f, 256<<10)}, nil
}

// Offset returns the number of bytes written so far.
func (cw *countingWriter) Offset() int64 { return cw.offset }

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.offset += int64(n)
	return n, err
}

// Flush and close release the buffer and the underlying file handle. The
// caller is expected to Flush before relying on the file's on-disk
// contents (e.g. before renaming it).
func (cw *countingWriter) Flush() error { return cw.w.Flush() }

func (cw *countingWriter) Close() error {
	if err := cw.w.Flush(); err != nil {
		cw.f.Close()
		return err
	}
	return cw.f.Close()
}
