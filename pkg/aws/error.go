package aws

import (
	"errors"
	"fmt"
	"net/http"

	// Packages
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	smithy "github.com/aws/smithy-go"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	uploader "github.com/mutablelogic/go-uploader"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Err translates an S3 error. Missing keys, uploads and buckets wrap
// uploader.ErrNotFound; other service errors keep their HTTP status.
func Err(err error) error {
	if err == nil {
		return nil
	}
	var apierr smithy.APIError
	if errors.As(err, &apierr) {
		switch apierr.ErrorCode() {
		case "NotFound", "NoSuchKey", "NoSuchUpload", "NoSuchBucket":
			return fmt.Errorf("%w: %w", uploader.ErrNotFound, err)
		}
	}
	var awserr *awshttp.ResponseError
	if errors.As(err, &awserr) {
		if awserr.HTTPStatusCode() == http.StatusNotFound {
			return fmt.Errorf("%w: %w", uploader.ErrNotFound, err)
		}
		return httpresponse.Err(awserr.HTTPStatusCode()).With(awserr.Error())
	}
	return err
}
