package aws

import (
	"context"
	"errors"

	// Packages
	s3 "github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	types "github.com/mutablelogic/go-server/pkg/types"
	uploader "github.com/mutablelogic/go-uploader"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// EnsureBucket creates the bucket if it does not exist
func (aws *Client) EnsureBucket(ctx context.Context) error {
	_, err := aws.s3.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: types.StringPtr(aws.bucket),
	})
	if err == nil {
		return nil
	} else if err := Err(err); !errors.Is(err, uploader.ErrNotFound) {
		return err
	}

	// us-east-1 rejects an explicit location constraint
	input := &s3.CreateBucketInput{
		Bucket: types.StringPtr(aws.bucket),
	}
	if aws.region != "" && aws.region != "us-east-1" {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(aws.region),
		}
	}
	_, err = aws.s3.CreateBucket(ctx, input)
	return Err(err)
}
