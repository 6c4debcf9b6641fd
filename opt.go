package uploader

import (
	"fmt"
	"net/url"

	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
	trace "go.opentelemetry.io/otel/trace"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type opt struct {
	name           *string
	endpoint       *url.URL
	region         *string
	accessKey      string
	secretKey      string
	tracerProvider trace.TracerProvider
}

// Opt represents a function that modifies the store options
type Opt func(*opt) error

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// ApplyOpts applies the given options to the opt struct
func ApplyOpts(opts ...Opt) (*opt, error) {
	var o opt

	// Apply the options
	for _, fn := range opts {
		if err := fn(&o); err != nil {
			return nil, err
		}
	}

	// Return success
	return &o, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - GET

// Name returns the backend name, or def when none was set
func (o *opt) Name(def string) string {
	if o.name == nil {
		return def
	}
	return *o.name
}

func (o *opt) Endpoint() *url.URL {
	return o.endpoint
}

func (o *opt) Region() string {
	return types.PtrString(o.region)
}

// Credentials returns the static access and secret keys. Both are empty
// when the default credential chain should be used.
func (o *opt) Credentials() (string, string) {
	return o.accessKey, o.secretKey
}

func (o *opt) TracerProvider() trace.TracerProvider {
	return o.tracerProvider
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - SET

// Set the backend name, which is otherwise derived from the bucket
func WithName(name string) Opt {
	return func(o *opt) error {
		if !types.IsIdentifier(name) {
			return fmt.Errorf("%w: invalid backend name %q", ErrBadParameter, name)
		}
		o.name = types.StringPtr(name)
		return nil
	}
}

// Set the S3-compatible endpoint URL
func WithEndpoint(endpoint string) Opt {
	return func(o *opt) error {
		if endpoint == "" {
			o.endpoint = nil
		} else if u, err := url.Parse(endpoint); err != nil {
			return fmt.Errorf("%w: invalid endpoint: %v", ErrBadParameter, err)
		} else if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%w: invalid endpoint scheme: %q", ErrBadParameter, u.Scheme)
		} else {
			o.endpoint = u
		}
		return nil
	}
}

// Set the region
func WithRegion(region string) Opt {
	return func(o *opt) error {
		if region != "" {
			o.region = types.StringPtr(region)
		}
		return nil
	}
}

// Set static credentials
func WithCredentials(accessKey, secretKey string) Opt {
	return func(o *opt) error {
		if (accessKey == "") != (secretKey == "") {
			return fmt.Errorf("%w: access key and secret key must be set together", ErrBadParameter)
		}
		o.accessKey, o.secretKey = accessKey, secretKey
		return nil
	}
}

// Set the tracer provider used to instrument store calls
func WithTracerProvider(tp trace.TracerProvider) Opt {
	return func(o *opt) error {
		o.tracerProvider = tp
		return nil
	}
}
