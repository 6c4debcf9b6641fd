package aws

import (
	"context"
	"fmt"
	"net/url"

	// Packages
	aws "github.com/aws/aws-sdk-go-v2/aws"
	config "github.com/aws/aws-sdk-go-v2/config"
	credentials "github.com/aws/aws-sdk-go-v2/credentials"
	s3 "github.com/aws/aws-sdk-go-v2/service/s3"
	types "github.com/mutablelogic/go-server/pkg/types"
	uploader "github.com/mutablelogic/go-uploader"
	otelaws "go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Client is a store backed by an S3 bucket, or by any S3-compatible
// service when an endpoint is set.
type Client struct {
	name     string
	bucket   string
	region   string
	endpoint *url.URL
	s3       s3API
}

var _ uploader.Store = (*Client)(nil)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns a store for the bucket. Credentials and region are read from
// the environment unless set in the options.
func New(ctx context.Context, bucket string, opt ...uploader.Opt) (*Client, error) {
	opts, err := uploader.ApplyOpts(opt...)
	if err != nil {
		return nil, err
	}
	if bucket == "" {
		return nil, fmt.Errorf("%w: missing bucket", uploader.ErrBadParameter)
	}

	// Load the default configuration
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

	// Trace S3 calls
	if tp := opts.TracerProvider(); tp != nil {
		otelaws.AppendMiddlewares(&cfg.APIOptions, otelaws.WithTracerProvider(tp))
	}

	// Create the S3 client
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if o.Region == "" {
			o.Region = "us-east-1"
		}
		if opts.Endpoint() != nil {
			o.BaseEndpoint = aws.String(opts.Endpoint().String())
		}
	})

	// Return success
	return newClient(opts.Name(bucket), bucket, client.Options().Region, opts.Endpoint(), client), nil
}

func newClient(name, bucket, region string, endpoint *url.URL, api s3API) *Client {
	return &Client{
		name:     name,
		bucket:   bucket,
		region:   region,
		endpoint: endpoint,
		s3:       api,
	}
}

func (aws *Client) Close() error {
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (aws *Client) Name() string {
	return aws.name
}

func (aws *Client) Bucket() string {
	return aws.bucket
}

func (aws *Client) Region() string {
	return aws.region
}

// URL returns the location of an object, as an s3:// URL or under the
// endpoint when one is set
func (aws *Client) URL(key string) *url.URL {
	if aws.endpoint != nil {
		return aws.endpoint.JoinPath(aws.bucket, key)
	}
	return &url.URL{Scheme: "s3", Host: aws.bucket, Path: types.NormalisePath(key)}
}
