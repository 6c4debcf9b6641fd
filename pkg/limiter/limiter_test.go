package limiter_test

import (
	"context"
	"sync"
	"testing"
	"time"

	// Packages
	uploader "github.com/mutablelogic/go-uploader"
	limiter "github.com/mutablelogic/go-uploader/pkg/limiter"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

func Test_Limiter_New(t *testing.T) {
	assert := assert.New(t)

	for _, n := range []int{0, -1} {
		_, err := limiter.New(n)
		assert.ErrorIs(err, uploader.ErrBadParameter)
	}

	l, err := limiter.New(3)
	assert.NoError(err)
	assert.Equal(3, l.Size())
	assert.Equal(0, l.InFlight())
}

func Test_Limiter_TryAcquire(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	l, err := limiter.New(2)
	require.NoError(err)

	assert.True(l.TryAcquire())
	assert.True(l.TryAcquire())
	assert.False(l.TryAcquire())
	assert.Equal(2, l.InFlight())

	l.Release()
	assert.True(l.TryAcquire())
	l.Release()
	l.Release()
	assert.Equal(0, l.InFlight())
	assert.Equal(2, l.Peak())
}

func Test_Limiter_Cancel(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	l, err := limiter.New(1)
	require.NoError(err)
	require.NoError(l.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(l.Acquire(ctx), context.DeadlineExceeded)
	assert.Equal(1, l.InFlight())

	l.Release()
	assert.NoError(l.Acquire(context.Background()))
	l.Release()
}

func Test_Limiter_Bound(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	const size, workers = 3, 20
	l, err := limiter.New(size)
	require.NoError(err)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background()); err != nil {
				return
			}
			defer l.Release()
			assert.LessOrEqual(l.InFlight(), size)
			time.Sleep(5 * time.Millisecond)
		}()
	}
	wg.Wait()

	assert.Equal(0, l.InFlight())
	assert.LessOrEqual(l.Peak(), size)
	assert.Positive(l.Peak())
}
