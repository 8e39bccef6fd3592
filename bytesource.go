package jpeg

import (
    "bufio"
    "bytes"
    "io"
)

// ByteSource is the single point at which the lexer ever blocks waiting
// for more data. Any goroutine suspension a caller wants (e.g. reading
// off a socket) happens inside Next, never inside the lexer itself.
type ByteSource interface {
    // Next returns the next byte in the stream, or io.EOF once the source
    // is exhausted. A 0x00 byte in the stream is returned as (0, nil).
    Next() (byte, error)
    // Offset reports the number of bytes already returned by Next, for
    // use in error messages and diagnostics.
    Offset() int64
}

type readerSource struct {
    r       *bufio.Reader
    offset  int64
}

// NewReaderSource wraps an io.Reader with the buffering the lexer needs
// to read one byte at a time without a syscall per byte, the way the
// teacher buffers its own marker scan with bufio.
func NewReaderSource(r io.Reader) ByteSource {
    return &readerSource{r: bufio.NewReaderSize(r, 32*1024)}
}

func (s *readerSource) Next() (byte, error) {
    b, err := s.r.ReadByte()
    if err != nil {
        return 0, err
    }
    s.offset++
    return b, nil
}

func (s *readerSource) Offset() int64 { return s.offset }

// NewSliceSource wraps an in-memory buffer, for callers (and tests) that
// already hold the whole stream, without requiring them to wrap it in an
// io.Reader themselves first.
func NewSliceSource(data []byte) ByteSource {
    return NewReaderSource(bytes.NewReader(data))
}
