package limiter

import (
	"context"
	"fmt"
	"sync/atomic"

	// Packages
	uploader "github.com/mutablelogic/go-uploader"
	semaphore "golang.org/x/sync/semaphore"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Limiter bounds the number of operations in flight. It is safe for
// concurrent use, and may be shared between uploads to bound them together.
type Limiter struct {
	size     int
	sem      *semaphore.Weighted
	inflight atomic.Int64
	peak     atomic.Int64
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns a limiter with n permits
func New(n int) (*Limiter, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: limiter size must be positive, got %d", uploader.ErrBadParameter, n)
	}
	return &Limiter{
		size: n,
		sem:  semaphore.NewWeighted(int64(n)),
	}, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Acquire blocks until a permit is available or the context is done
func (l *Limiter) Acquire(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	l.acquired()
	return nil
}

// TryAcquire takes a permit without blocking, and returns false if none is free
func (l *Limiter) TryAcquire() bool {
	if !l.sem.TryAcquire(1) {
		return false
	}
	l.acquired()
	return true
}

// Release returns a permit. Releasing more permits than were acquired panics.
func (l *Limiter) Release() {
	l.inflight.Add(-1)
	l.sem.Release(1)
}

// Size returns the number of permits
func (l *Limiter) Size() int {
	return l.size
}

// InFlight returns the number of permits currently held
func (l *Limiter) InFlight() int {
	return int(l.inflight.Load())
}

// Peak returns the largest number of permits held at once
func (l *Limiter) Peak() int {
	return int(l.peak.Load())
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (l *Limiter) acquired() {
	n := l.inflight.Add(1)
	for {
		peak := l.peak.Load()
		if n <= peak || l.peak.CompareAndSwap(peak, n) {
			return
		}
	}
}
