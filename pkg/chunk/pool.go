package chunk

import (
	"sync"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Pool hands out part buffers of a single fixed size.
type Pool struct {
	size int
	pool sync.Pool
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewPool returns a pool of buffers with the given size, which must be positive
func NewPool(size int) *Pool {
	p := &Pool{size: size}
	p.pool.New = func() any {
		buf := make([]byte, size)
		return &buf
	}
	return p
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Size returns the buffer size
func (p *Pool) Size() int {
	return p.size
}

// Get returns a buffer of length Size
func (p *Pool) Get() []byte {
	buf := p.pool.Get().(*[]byte)
	return (*buf)[:p.size]
}

// Put returns a buffer to the pool. Buffers of any other capacity are dropped.
// The buffer must not be used after calling Put.
func (p *Pool) Put(buf []byte) {
	if cap(buf) != p.size {
		return
	}
	buf = buf[:0]
	p.pool.Put(&buf)
}
