package minio

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	// Packages
	minio "github.com/minio/minio-go/v7"
	credentials "github.com/minio/minio-go/v7/pkg/credentials"
	uploader "github.com/mutablelogic/go-uploader"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Client is a store backed by a bucket on a MinIO or other S3-compatible
// server, using the low-level multipart API.
type Client struct {
	name     string
	bucket   string
	endpoint *url.URL
	core     *minio.Core
}

var _ uploader.Store = (*Client)(nil)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns a store for the bucket. An endpoint is required.
func New(bucket string, opt ...uploader.Opt) (*Client, error) {
	opts, err := uploader.ApplyOpts(opt...)
	if err != nil {
		return nil, err
	}
	if bucket == "" {
		return nil, fmt.Errorf("%w: missing bucket", uploader.ErrBadParameter)
	}
	endpoint := opts.Endpoint()
	if endpoint == nil {
		return nil, fmt.Errorf("%w: missing endpoint for bucket %q", uploader.ErrBadParameter, bucket)
	}

	// Static credentials, or the environment
	var creds *credentials.Credentials
	if accessKey, secretKey := opts.Credentials(); accessKey != "" {
		creds = credentials.NewStaticV4(accessKey, secretKey, "")
	} else {
		creds = credentials.NewEnvMinio()
	}

	core, err := minio.NewCore(endpoint.Host, &minio.Options{
		Creds:  creds,
		Secure: endpoint.Scheme == "https",
		Region: opts.Region(),
	})
	if err != nil {
		return nil, err
	}

	// Return success
	return &Client{
		name:     opts.Name(bucket),
		bucket:   bucket,
		endpoint: endpoint,
		core:     core,
	}, nil
}

func (c *Client) Close() error {
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (c *Client) Name() string {
	return c.name
}

func (c *Client) Bucket() string {
	return c.bucket
}

// URL returns the path-style location of an object on the server
func (c *Client) URL(key string) *url.URL {
	return c.endpoint.JoinPath(c.bucket, strings.TrimPrefix(key, "/"))
}

// EnsureBucket creates the bucket if it does not exist
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.core.BucketExists(ctx, c.bucket)
	if err != nil {
		return Err(err)
	} else if exists {
		return nil
	}
	return Err(c.core.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}))
}
