package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	// Packages
	units "github.com/docker/go-units"
	validator "github.com/go-playground/validator/v10"
	defaults "github.com/mcuadros/go-defaults"
	uploader "github.com/mutablelogic/go-uploader"
	aws "github.com/mutablelogic/go-uploader/pkg/aws"
	backend "github.com/mutablelogic/go-uploader/pkg/backend"
	minio "github.com/mutablelogic/go-uploader/pkg/minio"
	multipart "github.com/mutablelogic/go-uploader/pkg/multipart"
	trace "go.opentelemetry.io/otel/trace"
	yaml "gopkg.in/yaml.v3"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Config holds upload and backend settings. Fields can be set from command
// line flags, the environment or a YAML file.
type Config struct {
	ChunkSize     string        `name:"chunk-size" env:"CHUNK_SIZE_BYTES" yaml:"chunk_size" default:"8MiB" validate:"required" help:"Part size (e.g. 8MiB)"`
	Concurrency   int           `name:"max-concurrent-part-uploads" env:"MAX_CONCURRENT_PART_UPLOADS" yaml:"max_concurrent_part_uploads" default:"24" validate:"gt=0" help:"Part uploads in flight per object"`
	Timeout       time.Duration `name:"upload-timeout" env:"UPLOAD_TIMEOUT" yaml:"upload_timeout" default:"0s" validate:"gte=0" help:"Deadline for a whole upload (0 for none)"`
	MaxObjectSize string        `name:"max-object-size" env:"MAX_OBJECT_SIZE" yaml:"max_object_size" default:"0" help:"Largest object accepted (0 for unlimited)"`
	AllowTypes    []string      `name:"allow-type" env:"ALLOW_TYPES" yaml:"allow_types" help:"Accepted content type prefixes (e.g. image/)"`
	MaxRequests   int           `name:"max-concurrent-requests" env:"MAX_CONCURRENT_REQUESTS" yaml:"max_concurrent_requests" default:"0" validate:"gte=0" help:"HTTP requests served at once (0 for unlimited)"`
	Backends      []string      `name:"backend" env:"BACKENDS" yaml:"backends" validate:"dive,url" help:"Backend URLs (s3://bucket, minio://bucket, mem://name, file://name/dir)"`
	Endpoint      string        `name:"s3-endpoint" env:"S3_ENDPOINT" yaml:"endpoint" validate:"omitempty,url" help:"S3 or MinIO endpoint URL"`
	Region        string        `name:"region" env:"AWS_REGION" yaml:"region" help:"S3 region"`
	AccessKey     string        `name:"access-key" env:"AWS_ACCESS_KEY_ID" yaml:"access_key" help:"S3 access key"`
	SecretKey     string        `name:"secret-key" env:"AWS_SECRET_ACCESS_KEY" yaml:"secret_key" help:"S3 secret key"`
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

var validate = validator.New(validator.WithRequiredStructEnabled())

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns a configuration with defaults applied
func New() *Config {
	c := new(Config)
	defaults.SetDefaults(c)
	return c
}

// Load reads a YAML file over the defaults and validates the result
func Load(path string) (*Config, error) {
	c := New()
	if err := c.Read(path); err != nil {
		return nil, err
	}
	return c, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Validate checks the configuration. A zero chunk size or concurrency is
// rejected here rather than when an upload starts.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			var result error
			for _, verr := range verrs {
				result = errors.Join(result, fmt.Errorf("%w: %s fails %q", uploader.ErrBadParameter, verr.Field(), verr.Tag()))
			}
			return result
		}
		return fmt.Errorf("%w: %v", uploader.ErrBadParameter, err)
	}
	if _, err := c.ChunkSizeBytes(); err != nil {
		return err
	}
	if _, err := c.MaxObjectSizeBytes(); err != nil {
		return err
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		return fmt.Errorf("%w: access key and secret key must be set together", uploader.ErrBadParameter)
	}
	return nil
}

// Read sets any keys present in a YAML file, leaving others unchanged,
// then validates the result
func (c *Config) Read(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: %s: %v", uploader.ErrBadParameter, path, err)
	}
	return c.Validate()
}

// ChunkSizeBytes returns the part size in bytes
func (c *Config) ChunkSizeBytes() (int, error) {
	n, err := units.RAMInBytes(c.ChunkSize)
	if err != nil {
		return 0, fmt.Errorf("%w: chunk size: %v", uploader.ErrBadParameter, err)
	} else if n <= 0 {
		return 0, fmt.Errorf("%w: chunk size must be positive, got %q", uploader.ErrBadParameter, c.ChunkSize)
	}
	return int(n), nil
}

// MaxObjectSizeBytes returns the object size limit, or zero for no limit
func (c *Config) MaxObjectSizeBytes() (uint64, error) {
	if c.MaxObjectSize == "" {
		return 0, nil
	}
	n, err := units.RAMInBytes(c.MaxObjectSize)
	if err != nil {
		return 0, fmt.Errorf("%w: max object size: %v", uploader.ErrBadParameter, err)
	} else if n < 0 {
		return 0, fmt.Errorf("%w: max object size must not be negative, got %q", uploader.ErrBadParameter, c.MaxObjectSize)
	}
	return uint64(n), nil
}

// UploaderOpts returns the multipart options for the configuration
func (c *Config) UploaderOpts() ([]multipart.Opt, error) {
	chunkSize, err := c.ChunkSizeBytes()
	if err != nil {
		return nil, err
	}
	opts := []multipart.Opt{
		multipart.WithChunkSize(chunkSize),
		multipart.WithConcurrency(c.Concurrency),
	}
	if c.Timeout > 0 {
		opts = append(opts, multipart.WithTimeout(c.Timeout))
	}
	return opts, nil
}

// StoreOpts returns the options shared by all backends
func (c *Config) StoreOpts(tp trace.TracerProvider) []uploader.Opt {
	var opts []uploader.Opt
	if c.Endpoint != "" {
		opts = append(opts, uploader.WithEndpoint(c.Endpoint))
	}
	if c.Region != "" {
		opts = append(opts, uploader.WithRegion(c.Region))
	}
	if c.AccessKey != "" || c.SecretKey != "" {
		opts = append(opts, uploader.WithCredentials(c.AccessKey, c.SecretKey))
	}
	if tp != nil {
		opts = append(opts, uploader.WithTracerProvider(tp))
	}
	return opts
}

// OpenStores opens a store for each backend URL. On error any stores
// already opened are closed.
//   - s3://bucket uses the S3 multipart API
//   - s3://bucket/prefix stores objects under a key prefix through a blob bucket
//   - minio://bucket uses the MinIO multipart API (an endpoint is required)
//   - mem://name and file://name/dir emulate multipart uploads on a blob bucket
func (c *Config) OpenStores(ctx context.Context, tp trace.TracerProvider) ([]uploader.Store, error) {
	var result []uploader.Store
	opts := c.StoreOpts(tp)
	for _, u := range c.Backends {
		store, err := openStore(ctx, u, opts)
		if err != nil {
			for _, store := range result {
				err = errors.Join(err, store.Close())
			}
			return nil, err
		}
		result = append(result, store)
	}
	return result, nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func openStore(ctx context.Context, u string, opts []uploader.Opt) (uploader.Store, error) {
	url, err := url.Parse(u)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", uploader.ErrBadParameter, err)
	}
	switch url.Scheme {
	case "s3":
		if strings.Trim(url.Path, "/") != "" {
			return backend.NewBlobBackend(ctx, u, opts...)
		}
		return aws.New(ctx, url.Host, opts...)
	case "minio":
		return minio.New(url.Host, opts...)
	case "mem", "file":
		return backend.NewBlobBackend(ctx, u, opts...)
	default:
		return nil, fmt.Errorf("%w: unsupported backend %q", uploader.ErrBadParameter, u)
	}
}
