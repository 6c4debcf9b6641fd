package multipart

import (
	"fmt"
	"log/slog"
	"time"

	// Packages
	limiter "github.com/mutablelogic/go-uploader/pkg/limiter"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
	metric "go.opentelemetry.io/otel/metric"
	trace "go.opentelemetry.io/otel/trace"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Opt is a functional option for uploader configuration.
type Opt func(*opt) error

type opt struct {
	chunkSize   int
	concurrency int
	limiter     *limiter.Limiter
	timeout     time.Duration
	verify      bool
	progress    schema.ProgressFunc
	logger      *slog.Logger
	tracer      trace.Tracer
	meter       metric.Meter
}

////////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithChunkSize sets the part size in bytes. Every part except the last is
// exactly this size.
func WithChunkSize(n int) Opt {
	return func(o *opt) error {
		if n <= 0 {
			return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, n)
		}
		o.chunkSize = n
		return nil
	}
}

// WithConcurrency sets the number of parts of one upload which may be in
// flight at once. Each upload gets its own limiter of this size.
func WithConcurrency(n int) Opt {
	return func(o *opt) error {
		if n <= 0 {
			return fmt.Errorf("%w: concurrency must be positive, got %d", ErrInvalidConfig, n)
		}
		o.concurrency = n
		return nil
	}
}

// WithLimiter shares one limiter between all uploads, overriding WithConcurrency.
func WithLimiter(l *limiter.Limiter) Opt {
	return func(o *opt) error {
		if l == nil {
			return fmt.Errorf("%w: nil limiter", ErrInvalidConfig)
		}
		o.limiter = l
		return nil
	}
}

// WithTimeout bounds the duration of each upload. Zero means no limit.
func WithTimeout(d time.Duration) Opt {
	return func(o *opt) error {
		if d < 0 {
			return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
		}
		o.timeout = d
		return nil
	}
}

// WithVerifyParts compares the parts listed by the store against the
// collected receipts before committing.
func WithVerifyParts() Opt {
	return func(o *opt) error {
		o.verify = true
		return nil
	}
}

// WithProgress sets a function which is called after each part is stored.
func WithProgress(fn schema.ProgressFunc) Opt {
	return func(o *opt) error {
		o.progress = fn
		return nil
	}
}

// WithLogger sets the logger. Nothing is logged when unset.
func WithLogger(logger *slog.Logger) Opt {
	return func(o *opt) error {
		o.logger = logger
		return nil
	}
}

// WithTracer sets the tracer used for upload and part spans.
func WithTracer(tracer trace.Tracer) Opt {
	return func(o *opt) error {
		o.tracer = tracer
		return nil
	}
}

// WithMeter sets the meter used to record part, byte and failure counts.
func WithMeter(meter metric.Meter) Opt {
	return func(o *opt) error {
		o.meter = meter
		return nil
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func applyOpts(opts []Opt) (opt, error) {
	// Set defaults
	o := opt{
		chunkSize:   schema.DefaultChunkSize,
		concurrency: schema.DefaultConcurrency,
	}

	// Apply options
	for _, fn := range opts {
		if err := fn(&o); err != nil {
			return o, err
		}
	}

	// Return success
	return o, nil
}
