package minio

import (
	"bytes"
	"context"

	// Packages
	minio "github.com/minio/minio-go/v7"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

// listPageSize is the number of parts requested per ListParts page
const listPageSize = 1000

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (c *Client) CreateMultipart(ctx context.Context, key, contentType string) (string, error) {
	id, err := c.core.NewMultipartUpload(ctx, c.bucket, key, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", Err(err)
	}
	return id, nil
}

func (c *Client) UploadPart(ctx context.Context, uploadID, key string, part int32, data []byte) (string, error) {
	result, err := c.core.PutObjectPart(ctx, c.bucket, key, uploadID, int(part), bytes.NewReader(data), int64(len(data)), minio.PutObjectPartOptions{})
	if err != nil {
		return "", Err(err)
	}
	return result.ETag, nil
}

func (c *Client) CompleteMultipart(ctx context.Context, uploadID, key string, parts []schema.CompletedPart) error {
	completed := make([]minio.CompletePart, 0, len(parts))
	for _, part := range parts {
		completed = append(completed, minio.CompletePart{
			PartNumber: int(part.Part),
			ETag:       part.ETag,
		})
	}
	_, err := c.core.CompleteMultipartUpload(ctx, c.bucket, key, uploadID, completed, minio.PutObjectOptions{})
	return Err(err)
}

func (c *Client) AbortMultipart(ctx context.Context, uploadID, key string) error {
	return Err(c.core.AbortMultipartUpload(ctx, c.bucket, key, uploadID))
}

func (c *Client) ListParts(ctx context.Context, uploadID, key string) ([]schema.CompletedPart, error) {
	var result []schema.CompletedPart
	var marker int
	for {
		page, err := c.core.ListObjectParts(ctx, c.bucket, key, uploadID, marker, listPageSize)
		if err != nil {
			return nil, Err(err)
		}
		for _, part := range page.ObjectParts {
			result = append(result, schema.CompletedPart{
				Part: int32(part.PartNumber),
				ETag: part.ETag,
				Size: part.Size,
			})
		}
		if !page.IsTruncated {
			break
		}
		marker = page.NextPartNumberMarker
	}
	return result, nil
}
