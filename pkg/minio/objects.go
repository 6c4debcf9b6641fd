package minio

import (
	"context"
	"io"
	"strings"

	// Packages
	minio "github.com/minio/minio-go/v7"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (c *Client) GetObject(ctx context.Context, key string) (*schema.Object, error) {
	info, err := c.core.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, Err(err)
	}
	return c.object(info), nil
}

func (c *Client) ReadObject(ctx context.Context, key string) (io.ReadCloser, *schema.Object, error) {
	r, info, _, err := c.core.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, Err(err)
	}
	return r, c.object(info), nil
}

func (c *Client) DeleteObject(ctx context.Context, key string) (*schema.Object, error) {
	object, err := c.GetObject(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := c.core.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return nil, Err(err)
	}
	return object, nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (c *Client) object(info minio.ObjectInfo) *schema.Object {
	object := &schema.Object{
		Name:        c.name,
		Key:         strings.TrimPrefix(info.Key, "/"),
		Size:        info.Size,
		ModTime:     info.LastModified,
		ContentType: info.ContentType,
		ETag:        info.ETag,
	}
	if len(info.UserMetadata) > 0 {
		object.Meta = make(schema.ObjectMeta, len(info.UserMetadata))
		for k, v := range info.UserMetadata {
			object.Meta[strings.ToLower(k)] = v
		}
	}
	return object
}
