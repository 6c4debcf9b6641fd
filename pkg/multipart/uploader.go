package multipart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	// Packages
	otel "github.com/mutablelogic/go-client/pkg/otel"
	uploader "github.com/mutablelogic/go-uploader"
	chunk "github.com/mutablelogic/go-uploader/pkg/chunk"
	limiter "github.com/mutablelogic/go-uploader/pkg/limiter"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
	errgroup "golang.org/x/sync/errgroup"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Uploader streams objects into a store as concurrent multipart uploads.
// It is safe to call Upload from several goroutines.
type Uploader struct {
	opt
	store   uploader.Multipart
	pool    *chunk.Pool
	metrics *metrics
}

// firstError keeps the first error reported by any goroutine
type firstError struct {
	sync.Mutex
	err error
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// abortTimeout bounds the abort call, which runs even after the upload
// context is done
const abortTimeout = 30 * time.Second

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns an uploader for the store
func New(store uploader.Multipart, opts ...Opt) (*Uploader, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: missing store", ErrInvalidConfig)
	}
	o, err := applyOpts(opts)
	if err != nil {
		return nil, err
	}
	metrics, err := newMetrics(o.meter)
	if err != nil {
		return nil, err
	}
	return &Uploader{
		opt:     o,
		store:   store,
		pool:    chunk.NewPool(o.chunkSize),
		metrics: metrics,
	}, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ChunkSize returns the part size in bytes
func (u *Uploader) ChunkSize() int {
	return u.chunkSize
}

// Concurrency returns the bound on parts in flight
func (u *Uploader) Concurrency() int {
	if u.limiter != nil {
		return u.limiter.Size()
	}
	return u.concurrency
}

// Upload reads req.Body to the end and stores it as a single object. On
// success every byte has been committed in order. On any failure the
// multipart upload is aborted and the returned error wraps one of
// ErrSessionCreate, ErrStreamRead, ErrPartUpload or ErrCommit, joined with
// the abort error if the abort also failed.
func (u *Uploader) Upload(ctx context.Context, req schema.UploadRequest) (*schema.UploadResult, error) {
	var result error
	child, endFunc := otel.StartSpan(u.tracer, ctx, spanName("Upload"))
	defer func() { endFunc(result) }()

	response, err := u.upload(child, req)
	if err != nil {
		result = err
		var uerr *Error
		if errors.As(err, &uerr) {
			u.metrics.failed(child, uerr.Kind)
		}
		return nil, err
	}
	return response, nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (u *Uploader) upload(ctx context.Context, req schema.UploadRequest) (*schema.UploadResult, error) {
	if req.Body == nil {
		return nil, newError(KindStreamRead, req.Key, 0, fmt.Errorf("%w: missing body", uploader.ErrBadParameter))
	}

	// Bound the whole upload
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	// Use the shared limiter, or one for this upload only
	limit := u.limiter
	if limit == nil {
		var err error
		if limit, err = limiter.New(u.concurrency); err != nil {
			return nil, err
		}
	}

	// Create the session
	session, err := Begin(ctx, u.store, req.Key, req.ContentType)
	if err != nil {
		return nil, err
	}
	if u.logger != nil {
		u.logger.DebugContext(ctx, "upload started", "key", req.Key, "id", session.Handle().ID)
	}

	// Upload the parts, then commit them in part order
	parts, err := u.uploadParts(ctx, session, limit, req)
	if err != nil {
		return nil, u.abort(ctx, session, err)
	}
	slices.SortFunc(parts, func(a, b schema.CompletedPart) int {
		return int(a.Part) - int(b.Part)
	})
	response, err := session.Commit(ctx, parts, u.verify)
	if err != nil {
		return nil, u.abort(ctx, session, err)
	}

	// Return success
	if u.logger != nil {
		u.logger.InfoContext(ctx, "upload committed", "key", response.Key, "parts", response.Parts, "bytes", response.Bytes)
	}
	return response, nil
}

// uploadParts splits the body into chunks and uploads them with at most
// limit.Size() in flight. Once any part fails, or the context is done, no
// further chunks are read. Parts already in flight run to completion.
func (u *Uploader) uploadParts(ctx context.Context, session *Session, limit *limiter.Limiter, req schema.UploadRequest) ([]schema.CompletedPart, error) {
	reader, err := chunk.NewReader(req.Body, 0, u.pool)
	if err != nil {
		return nil, newError(KindStreamRead, req.Key, 0, err)
	}

	var first firstError
	var written atomic.Uint64
	results := make(chan schema.CompletedPart)
	collected := make(chan []schema.CompletedPart, 1)

	// Collect receipts in completion order
	go func() {
		var parts []schema.CompletedPart
		for part := range results {
			parts = append(parts, part)
		}
		collected <- parts
	}()

	// Read and dispatch chunks. Parts run on ctx so that a failure stops
	// dispatch without cancelling parts already in flight.
	dispatchctx, stop := context.WithCancel(ctx)
	defer stop()
	group, groupctx := errgroup.WithContext(dispatchctx)
	for groupctx.Err() == nil {
		c, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			first.set(newError(KindStreamRead, req.Key, 0, err))
			break
		}
		if req.Size != nil && reader.Bytes() > *req.Size {
			reader.Release(c)
			first.set(newError(KindStreamRead, req.Key, 0, fmt.Errorf("%w: more than %d bytes", ErrSizeMismatch, *req.Size)))
			break
		}
		if err := limit.Acquire(groupctx); err != nil {
			reader.Release(c)
			break
		} else if groupctx.Err() != nil {
			limit.Release()
			reader.Release(c)
			break
		}
		group.Go(func() error {
			defer limit.Release()
			defer reader.Release(c)
			part, err := u.uploadPart(ctx, session, c)
			if err != nil {
				first.set(err)
				stop()
				return err
			}
			results <- part
			u.report(req, part, written.Add(uint64(part.Size)))
			return nil
		})
	}

	// Drain the parts in flight
	_ = group.Wait()
	close(results)
	parts := <-collected

	// Report the first failure
	if err := first.get(); err != nil {
		return nil, err
	} else if err := ctx.Err(); err != nil {
		return nil, newError(KindStreamRead, req.Key, 0, err)
	} else if req.Size != nil && reader.Bytes() != *req.Size {
		return nil, newError(KindStreamRead, req.Key, 0, fmt.Errorf("%w: read %d bytes, expected %d", ErrSizeMismatch, reader.Bytes(), *req.Size))
	}

	// Return success
	return parts, nil
}

func (u *Uploader) uploadPart(ctx context.Context, session *Session, c *schema.Chunk) (schema.CompletedPart, error) {
	var result error
	child, endFunc := otel.StartSpan(u.tracer, ctx, spanName("UploadPart"))
	defer func() { endFunc(result) }()

	u.metrics.partStarted(child)
	part, err := session.UploadPart(child, c)
	if err != nil {
		result = err
		u.metrics.partFinished(child, nil)
		if u.logger != nil {
			u.logger.ErrorContext(child, "part upload failed", "key", session.Handle().Key, "part", c.Part, "error", err)
		}
		return part, err
	}
	u.metrics.partFinished(child, &part)
	return part, nil
}

// abort discards the session and returns cause, joined with any abort error.
// The abort runs on a context which outlives cancellation of ctx.
func (u *Uploader) abort(ctx context.Context, session *Session, cause error) error {
	abortctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), abortTimeout)
	defer cancel()

	err := session.Abort(abortctx)
	if u.logger != nil {
		attrs := []any{"key", session.Handle().Key, "id", session.Handle().ID, "cause", cause}
		if err != nil {
			u.logger.ErrorContext(ctx, "upload abort failed", append(attrs, "error", err)...)
		} else {
			u.logger.WarnContext(ctx, "upload aborted", attrs...)
		}
	}
	if err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func (u *Uploader) report(req schema.UploadRequest, part schema.CompletedPart, written uint64) {
	if u.progress == nil {
		return
	}
	progress := schema.UploadProgress{
		Key:     req.Key,
		Part:    part.Part,
		Bytes:   int(part.Size),
		Written: written,
	}
	if req.Size != nil {
		progress.Total = *req.Size
	}
	u.progress(progress)
}

func (e *firstError) set(err error) {
	e.Lock()
	defer e.Unlock()
	if e.err == nil {
		e.err = err
	}
}

func (e *firstError) get() error {
	e.Lock()
	defer e.Unlock()
	return e.err
}

func spanName(op string) string {
	return schema.SchemaName + ".multipart." + op
}
