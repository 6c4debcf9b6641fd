package chunk

import (
	"errors"
	"fmt"
	"io"

	// Packages
	uploader "github.com/mutablelogic/go-uploader"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Reader splits a stream into chunks of a fixed size. Only the final chunk
// may be shorter. A stream with no data yields exactly one empty chunk, so
// that an empty object can still be committed.
type Reader struct {
	r     io.Reader
	pool  *Pool
	part  int32
	bytes uint64
	done  bool
	err   error
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewReader returns a chunk reader for r. When pool is nil a private pool
// is created; otherwise the chunk size is the pool buffer size.
func NewReader(r io.Reader, size int, pool *Pool) (*Reader, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: missing reader", uploader.ErrBadParameter)
	}
	if pool == nil {
		if size <= 0 {
			return nil, fmt.Errorf("%w: chunk size must be positive", uploader.ErrBadParameter)
		}
		pool = NewPool(size)
	} else if pool.Size() <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive", uploader.ErrBadParameter)
	}
	return &Reader{r: r, pool: pool}, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Next returns the next chunk, or io.EOF once the stream is exhausted. Any
// other error is returned once and then repeated on later calls. The caller
// owns the chunk until it passes it to Release.
func (r *Reader) Next() (*schema.Chunk, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.done {
		return nil, io.EOF
	}

	buf := r.pool.Get()
	n, err := io.ReadFull(r.r, buf)
	switch {
	case err == nil:
		// Full chunk; the stream may or may not have more data
	case errors.Is(err, io.ErrUnexpectedEOF):
		r.done = true
	case errors.Is(err, io.EOF):
		r.done = true
		if r.part > 0 {
			r.pool.Put(buf)
			return nil, io.EOF
		}
	default:
		r.pool.Put(buf)
		r.err = err
		return nil, err
	}

	r.part++
	r.bytes += uint64(n)
	return &schema.Chunk{Part: r.part, Data: buf[:n]}, nil
}

// Release returns the chunk buffer for reuse. The chunk must not be used
// after calling Release.
func (r *Reader) Release(c *schema.Chunk) {
	if c != nil && c.Data != nil {
		r.pool.Put(c.Data)
		c.Data = nil
	}
}

// Parts returns the number of chunks produced so far
func (r *Reader) Parts() int32 {
	return r.part
}

// Bytes returns the number of bytes read so far
func (r *Reader) Bytes() uint64 {
	return r.bytes
}

// Size returns the chunk size
func (r *Reader) Size() int {
	return r.pool.Size()
}
