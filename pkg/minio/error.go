package minio

import (
	"fmt"
	"net/http"

	// Packages
	minio "github.com/minio/minio-go/v7"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	uploader "github.com/mutablelogic/go-uploader"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Err translates a MinIO error. Missing keys, uploads and buckets wrap
// uploader.ErrNotFound; other service errors keep their HTTP status.
func Err(err error) error {
	if err == nil {
		return nil
	}
	response := minio.ToErrorResponse(err)
	switch {
	case response.Code == "NoSuchKey", response.Code == "NoSuchUpload", response.Code == "NoSuchBucket", response.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %w", uploader.ErrNotFound, err)
	case response.StatusCode >= http.StatusBadRequest:
		return httpresponse.Err(response.StatusCode).With(response.Message)
	default:
		return err
	}
}
