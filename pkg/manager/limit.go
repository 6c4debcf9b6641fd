package manager

import (
	"fmt"
	"io"
)

// limitReader fails with ErrTooLarge as soon as more than n bytes have been
// read. The read which crosses the limit returns no data.
type limitReader struct {
	r    io.Reader
	n    uint64
	read uint64
}

func (l *limitReader) Read(p []byte) (int, error) {
	if l.read > l.n {
		return 0, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, l.n)
	}
	n, err := l.r.Read(p)
	l.read += uint64(n)
	if l.read > l.n {
		return 0, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, l.n)
	}
	return n, err
}
