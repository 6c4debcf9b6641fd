package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	// Packages
	uploader "github.com/mutablelogic/go-uploader"
	backend "github.com/mutablelogic/go-uploader/pkg/backend"
	multipart "github.com/mutablelogic/go-uploader/pkg/multipart"
	metric "go.opentelemetry.io/otel/metric"
	trace "go.opentelemetry.io/otel/trace"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Opt is a functional option for manager configuration.
type Opt func(*opts) error

type opts struct {
	tracer     trace.Tracer
	meter      metric.Meter
	logger     *slog.Logger
	stores     []uploader.Store
	uploadOpts []multipart.Opt
	allowTypes []string
	maxSize    uint64
}

////////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithTracer sets the tracer used for tracing operations.
func WithTracer(tracer trace.Tracer) Opt {
	return func(o *opts) error {
		o.tracer = tracer
		return nil
	}
}

// WithMeter sets the meter used for upload metrics.
func WithMeter(meter metric.Meter) Opt {
	return func(o *opts) error {
		o.meter = meter
		return nil
	}
}

// WithLogger sets the logger for uploads.
func WithLogger(logger *slog.Logger) Opt {
	return func(o *opts) error {
		o.logger = logger
		return nil
	}
}

// WithStore adds a store. Returns an error if a store with the same name
// already exists.
func WithStore(stores ...uploader.Store) Opt {
	return func(o *opts) error {
		for _, store := range stores {
			if store == nil {
				return fmt.Errorf("%w: nil store", uploader.ErrBadParameter)
			}
			for _, existing := range o.stores {
				if existing.Name() == store.Name() {
					return fmt.Errorf("%w: backend with name %q already registered", uploader.ErrBadParameter, store.Name())
				}
			}
			o.stores = append(o.stores, store)
		}
		return nil
	}
}

// WithBackend adds a blob backend (mem://, file://, s3://).
// The url should be in the format "scheme://name" (e.g., "mem://media", "file://media/var/lib/media").
func WithBackend(ctx context.Context, url string, storeOpts ...uploader.Opt) Opt {
	return func(o *opts) error {
		b, err := backend.NewBlobBackend(ctx, url, storeOpts...)
		if err != nil {
			return err
		}
		if err := WithStore(b)(o); err != nil {
			return errors.Join(err, b.Close())
		}
		return nil
	}
}

// WithUploadOpts sets the chunk size, concurrency and other options used for
// every upload.
func WithUploadOpts(uploadOpts ...multipart.Opt) Opt {
	return func(o *opts) error {
		o.uploadOpts = append(o.uploadOpts, uploadOpts...)
		return nil
	}
}

// WithAllowTypes restricts uploads to content types with one of the
// prefixes (e.g. "image/", "video/")
func WithAllowTypes(prefixes ...string) Opt {
	return func(o *opts) error {
		for _, prefix := range prefixes {
			if prefix == "" {
				return fmt.Errorf("%w: empty content type prefix", uploader.ErrBadParameter)
			}
		}
		o.allowTypes = append(o.allowTypes, prefixes...)
		return nil
	}
}

// WithMaxSize sets the largest object accepted, in bytes. Zero means no limit.
func WithMaxSize(n uint64) Opt {
	return func(o *opts) error {
		o.maxSize = n
		return nil
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func applyOpts(opt []Opt) (opts, error) {
	// Set defaults
	o := opts{}

	// Apply options
	for _, fn := range opt {
		if err := fn(&o); err != nil {
			// Close any stores opened by earlier options
			for _, store := range o.stores {
				err = errors.Join(err, store.Close())
			}
			return opts{}, err
		}
	}

	// Return success
	return o, nil
}
