package backend

import (
	"context"
	"io"

	// Packages
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// GetObject gets object metadata
func (b *Blob) GetObject(ctx context.Context, key string) (*schema.Object, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	attrs, err := b.bucket.Attributes(ctx, b.storageKey(key))
	if err != nil {
		return nil, blobErr(err, b.Name()+":"+key)
	}
	return b.attrsToObject(key, attrs), nil
}

// ReadObject reads object content. The caller must close the reader.
func (b *Blob) ReadObject(ctx context.Context, key string) (io.ReadCloser, *schema.Object, error) {
	obj, err := b.GetObject(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	r, err := b.bucket.NewReader(ctx, b.storageKey(key), nil)
	if err != nil {
		return nil, nil, blobErr(err, b.Name()+":"+key)
	}
	return r, obj, nil
}

// DeleteObject deletes an object and returns its metadata
func (b *Blob) DeleteObject(ctx context.Context, key string) (*schema.Object, error) {
	obj, err := b.GetObject(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := b.bucket.Delete(ctx, b.storageKey(key)); err != nil {
		return nil, blobErr(err, b.Name()+":"+key)
	}
	return obj, nil
}
