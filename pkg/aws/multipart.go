package aws

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	// Packages
	s3 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	types "github.com/mutablelogic/go-server/pkg/types"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// CreateMultipart starts a multipart upload and returns the upload id
func (aws *Client) CreateMultipart(ctx context.Context, key, contentType string) (string, error) {
	input := &s3.CreateMultipartUploadInput{
		Bucket:             types.StringPtr(aws.bucket),
		Key:                types.StringPtr(key),
		ContentDisposition: types.StringPtr(fmt.Sprintf("inline; filename=%q", filepath.Base(key))),
	}
	if contentType != "" {
		input.ContentType = types.StringPtr(contentType)
	}
	output, err := aws.s3.CreateMultipartUpload(ctx, input)
	if err != nil {
		return "", Err(err)
	}
	return types.PtrString(output.UploadId), nil
}

// UploadPart stores one part and returns its ETag
func (aws *Client) UploadPart(ctx context.Context, uploadID, key string, part int32, data []byte) (string, error) {
	output, err := aws.s3.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:        types.StringPtr(aws.bucket),
		Key:           types.StringPtr(key),
		UploadId:      types.StringPtr(uploadID),
		PartNumber:    types.Int32Ptr(part),
		ContentLength: types.Int64Ptr(int64(len(data))),
		Body:          bytes.NewReader(data),
	})
	if err != nil {
		return "", Err(err)
	}
	return types.PtrString(output.ETag), nil
}

// CompleteMultipart combines the parts into the object
func (aws *Client) CompleteMultipart(ctx context.Context, uploadID, key string, parts []schema.CompletedPart) error {
	completed := make([]s3types.CompletedPart, 0, len(parts))
	for _, part := range parts {
		completed = append(completed, s3types.CompletedPart{
			PartNumber: types.Int32Ptr(part.Part),
			ETag:       types.StringPtr(part.ETag),
		})
	}
	_, err := aws.s3.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   types.StringPtr(aws.bucket),
		Key:      types.StringPtr(key),
		UploadId: types.StringPtr(uploadID),
		MultipartUpload: &s3types.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	return Err(err)
}

// AbortMultipart discards the upload and its parts
func (aws *Client) AbortMultipart(ctx context.Context, uploadID, key string) error {
	_, err := aws.s3.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   types.StringPtr(aws.bucket),
		Key:      types.StringPtr(key),
		UploadId: types.StringPtr(uploadID),
	})
	return Err(err)
}

// ListParts returns the parts stored so far, following pagination
func (aws *Client) ListParts(ctx context.Context, uploadID, key string) ([]schema.CompletedPart, error) {
	var result []schema.CompletedPart
	var marker *string
	for {
		output, err := aws.s3.ListParts(ctx, &s3.ListPartsInput{
			Bucket:           types.StringPtr(aws.bucket),
			Key:              types.StringPtr(key),
			UploadId:         types.StringPtr(uploadID),
			PartNumberMarker: marker,
		})
		if err != nil {
			return nil, Err(err)
		}
		for _, part := range output.Parts {
			result = append(result, schema.CompletedPart{
				Part: ptrInt32(part.PartNumber),
				ETag: types.PtrString(part.ETag),
				Size: ptrInt64(part.Size),
			})
		}

		// Check if there are more parts to list
		if output.IsTruncated == nil || !*output.IsTruncated || output.NextPartNumberMarker == nil {
			break
		}
		marker = output.NextPartNumberMarker
	}

	// Return success
	return result, nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func ptrInt32(v *int32) int32 {
	if v == nil {
		return 0
	}
	return *v
}

func ptrInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
