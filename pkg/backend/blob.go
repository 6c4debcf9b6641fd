package backend

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"syscall"

	// Packages
	config "github.com/aws/aws-sdk-go-v2/config"
	credentials "github.com/aws/aws-sdk-go-v2/credentials"
	s3 "github.com/aws/aws-sdk-go-v2/service/s3"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	types "github.com/mutablelogic/go-server/pkg/types"
	uploader "github.com/mutablelogic/go-uploader"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
	otelaws "go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	trace "go.opentelemetry.io/otel/trace"
	blob "gocloud.dev/blob"
	s3blob "gocloud.dev/blob/s3blob"
	gcerrors "gocloud.dev/gcerrors"

	// Drivers
	_ "gocloud.dev/blob/fileblob" // file:// URLs
	_ "gocloud.dev/blob/memblob"  // mem:// URLs
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Blob is a store on a Go CDK bucket. Multipart uploads are emulated: each
// part is written as its own blob under a reserved prefix, and the parts
// are concatenated into the object on completion.
type Blob struct {
	url          *url.URL
	bucket       *blob.Bucket
	bucketPrefix string // key prefix for bucket operations (empty for file://)
}

var _ uploader.Store = (*Blob)(nil)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewBlobBackend opens a blob store. The URL host is the backend name.
// Examples:
//   - "mem://media"
//   - "file://media/var/lib/uploads?create_dir=true"
//   - "s3://my-bucket/prefix"
//
// For s3:// URLs the endpoint, region, credentials and tracer provider
// options configure the AWS client.
func NewBlobBackend(ctx context.Context, u string, opt ...uploader.Opt) (*Blob, error) {
	self := new(Blob)
	opts, err := uploader.ApplyOpts(opt...)
	if err != nil {
		return nil, err
	}

	// Parse the URL
	if url, err := url.Parse(u); err != nil {
		return nil, fmt.Errorf("%w: %v", uploader.ErrBadParameter, err)
	} else {
		self.url = url
	}
	if !types.IsIdentifier(self.url.Host) {
		return nil, fmt.Errorf("%w: backend name %q must be a valid identifier", uploader.ErrBadParameter, self.url.Host)
	}

	// For file:// the path is the root directory, otherwise it is a key prefix
	if self.url.Scheme != "file" {
		self.bucketPrefix = strings.Trim(self.url.Path, "/")
	}

	// Open the bucket
	var bucket *blob.Bucket
	switch self.url.Scheme {
	case "s3":
		bucket, err = openS3(ctx, self.url.Host, opts)
	case "file":
		if !path.IsAbs(self.url.Path) || self.url.Path == "/" {
			return nil, fmt.Errorf("%w: file backend %q requires an absolute directory", uploader.ErrBadParameter, self.url.Host)
		}
		openURL := &url.URL{Scheme: "file", Path: self.url.Path, RawQuery: self.url.RawQuery}
		bucket, err = blob.OpenBucket(ctx, openURL.String())
	case "mem":
		bucket, err = blob.OpenBucket(ctx, "mem://")
	default:
		return nil, fmt.Errorf("%w: unsupported backend scheme %q", uploader.ErrBadParameter, self.url.Scheme)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket: %w", err)
	}
	self.bucket = bucket

	// Return success
	return self, nil
}

// Close the backend
func (b *Blob) Close() error {
	var result error
	if b.bucket != nil {
		result = errors.Join(result, b.bucket.Close())
		b.bucket = nil
	}

	// Return any errors
	return result
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Name returns the name of the backend (the host component of the URL)
func (b *Blob) Name() string {
	return b.url.Host
}

func (b *Blob) Bucket() string {
	return b.url.Host
}

// URL returns the location of an object within the backend
func (b *Blob) URL(key string) *url.URL {
	return &url.URL{
		Scheme: b.url.Scheme,
		Host:   b.url.Host,
		Path:   path.Join("/", b.url.Path, key),
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// s3opts is the subset of store options used to configure an S3 client
type s3opts interface {
	Region() string
	Credentials() (string, string)
	Endpoint() *url.URL
	TracerProvider() trace.TracerProvider
}

// openS3 opens an S3 bucket with a client configured from the options
func openS3(ctx context.Context, bucket string, opts s3opts) (*blob.Bucket, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region() != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region()))
	}
	if accessKey, secretKey := opts.Credentials(); accessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	if tp := opts.TracerProvider(); tp != nil {
		otelaws.AppendMiddlewares(&cfg.APIOptions, otelaws.WithTracerProvider(tp))
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if o.Region == "" {
			o.Region = "us-east-1"
		}
		if endpoint := opts.Endpoint(); endpoint != nil {
			o.UsePathStyle = true
			o.BaseEndpoint = types.StringPtr(endpoint.String())
		}
	})
	return s3blob.OpenBucket(ctx, client, bucket, nil)
}

// storageKey returns the blob key for an object key
func (b *Blob) storageKey(key string) string {
	key = strings.TrimPrefix(key, "/")
	if b.bucketPrefix != "" {
		return b.bucketPrefix + "/" + key
	}
	return key
}

func (b *Blob) attrsToObject(key string, attrs *blob.Attributes) *schema.Object {
	obj := &schema.Object{
		Name:        b.Name(),
		Key:         key,
		Size:        attrs.Size,
		ModTime:     attrs.ModTime,
		ContentType: attrs.ContentType,
		ETag:        attrs.ETag,
	}
	if len(attrs.Metadata) > 0 {
		obj.Meta = attrs.Metadata
	}
	return obj
}

// blobErr translates a Go CDK error for the object key
func blobErr(err error, key string) error {
	if err == nil {
		return nil
	}
	// Check for OS-level errors before go-cloud classification, since the
	// gcerrors default path wraps with %v and breaks the chain.
	if errors.Is(err, syscall.EISDIR) || errors.Is(err, syscall.EEXIST) {
		return httpresponse.ErrBadRequest.Withf("cannot overwrite directory with object: %q", key)
	}
	switch gcerrors.Code(err) {
	case gcerrors.NotFound:
		return fmt.Errorf("%w: %q", uploader.ErrNotFound, key)
	case gcerrors.PermissionDenied:
		return httpresponse.ErrForbidden.Withf("permission denied for %q", key)
	case gcerrors.InvalidArgument:
		return httpresponse.ErrBadRequest.Withf("invalid argument for %q: %v", key, err)
	case gcerrors.FailedPrecondition:
		return httpresponse.ErrConflict.Withf("precondition failed for %q: %v", key, err)
	default:
		return httpresponse.ErrInternalError.Withf("blob operation failed: %v", err)
	}
}
