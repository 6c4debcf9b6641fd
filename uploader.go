package uploader

import (
	"context"
	"errors"
	"io"
	"net/url"

	// Packages
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// INTERFACES

// Multipart is the capability a remote store provides for chunked uploads.
// Implementations must not retain the data slice passed to UploadPart after
// the call returns.
type Multipart interface {
	// Return the bucket which objects are written to
	Bucket() string

	// Start a multipart upload and return its identifier
	CreateMultipart(ctx context.Context, key, contentType string) (string, error)

	// Store one part and return its tag
	UploadPart(ctx context.Context, uploadID, key string, part int32, data []byte) (string, error)

	// Combine the parts, in the order given, into the object
	CompleteMultipart(ctx context.Context, uploadID, key string, parts []schema.CompletedPart) error

	// Discard the upload and any parts stored so far
	AbortMultipart(ctx context.Context, uploadID, key string) error

	// Return the parts stored so far, ordered by part number
	ListParts(ctx context.Context, uploadID, key string) ([]schema.CompletedPart, error)
}

// Objects is read and delete access to committed objects.
type Objects interface {
	GetObject(ctx context.Context, key string) (*schema.Object, error)
	ReadObject(ctx context.Context, key string) (io.ReadCloser, *schema.Object, error)
	DeleteObject(ctx context.Context, key string) (*schema.Object, error)
	URL(key string) *url.URL
}

// Store is a named backend which supports both.
type Store interface {
	io.Closer
	Multipart
	Objects

	// Return the backend name
	Name() string
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

var (
	ErrNotFound     = errors.New("not found")
	ErrBadParameter = errors.New("bad parameter")
)
