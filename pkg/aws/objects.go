package aws

import (
	"context"
	"io"
	"strings"
	"time"

	// Packages
	s3 "github.com/aws/aws-sdk-go-v2/service/s3"
	types "github.com/mutablelogic/go-server/pkg/types"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// GetObject returns object metadata without reading the body
func (aws *Client) GetObject(ctx context.Context, key string) (*schema.Object, error) {
	output, err := aws.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: types.StringPtr(aws.bucket),
		Key:    types.StringPtr(key),
	})
	if err != nil {
		return nil, Err(err)
	}
	return aws.object(key, output.ContentLength, output.LastModified, output.ContentType, output.ETag, output.Metadata), nil
}

// ReadObject returns the object body, which the caller must close
func (aws *Client) ReadObject(ctx context.Context, key string) (io.ReadCloser, *schema.Object, error) {
	output, err := aws.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: types.StringPtr(aws.bucket),
		Key:    types.StringPtr(key),
	})
	if err != nil {
		return nil, nil, Err(err)
	}
	return output.Body, aws.object(key, output.ContentLength, output.LastModified, output.ContentType, output.ETag, output.Metadata), nil
}

// DeleteObject removes the object and returns its last metadata
func (aws *Client) DeleteObject(ctx context.Context, key string) (*schema.Object, error) {
	object, err := aws.GetObject(ctx, key)
	if err != nil {
		return nil, err
	}
	if _, err := aws.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: types.StringPtr(aws.bucket),
		Key:    types.StringPtr(key),
	}); err != nil {
		return nil, Err(err)
	}
	return object, nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (aws *Client) object(key string, size *int64, modtime *time.Time, contentType, etag *string, meta map[string]string) *schema.Object {
	object := &schema.Object{
		Name:        aws.name,
		Key:         strings.TrimPrefix(key, "/"),
		Size:        ptrInt64(size),
		ContentType: types.PtrString(contentType),
		ETag:        types.PtrString(etag),
	}
	if modtime != nil {
		object.ModTime = *modtime
	}
	if len(meta) > 0 {
		object.Meta = make(schema.ObjectMeta, len(meta))
		for k, v := range meta {
			object.Meta[strings.ToLower(k)] = v
		}
	}
	return object
}
