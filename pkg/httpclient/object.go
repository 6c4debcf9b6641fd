package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"

	// Packages
	client "github.com/mutablelogic/go-client"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// PutObject streams body to the named backend with PUT. The server uploads it
// in parts and returns once the object is committed. An empty content type
// lets the server detect it.
func (c *Client) PutObject(ctx context.Context, name, key string, body io.Reader, contentType string) (*schema.UploadResult, error) {
	payload := &putPayload{body: body, contentType: contentType}

	var response schema.UploadResult
	if err := c.DoWithContext(ctx, payload, &response, client.OptPath(name, key)); err != nil {
		return nil, err
	}
	return &response, nil
}

// GetObject retrieves metadata only for an object using HEAD (no body download).
func (c *Client) GetObject(ctx context.Context, name, key string) (*schema.Object, error) {
	var response getObjectResponse
	if err := c.DoWithContext(ctx,
		client.NewRequestEx(http.MethodHead, ""),
		&response,
		client.OptPath(name, key),
	); err != nil {
		return nil, err
	}
	if response.Object == nil {
		return nil, fmt.Errorf("GetObject: missing %s header in response", schema.ObjectMetaHeader)
	}
	return response.Object, nil
}

// ReadObject downloads the content of an object using GET, calling fn with each
// chunk of data as it arrives from the server. The slice passed to fn is
// reused across calls; copy it if retained.
func (c *Client) ReadObject(ctx context.Context, name, key string, fn func([]byte) error) (*schema.Object, error) {
	u := &readObjectUnmarshaler{fn: fn}
	if err := c.DoWithContext(ctx,
		client.NewRequest(),
		u,
		client.OptPath(name, key),
	); err != nil {
		return nil, err
	}
	if u.obj == nil {
		return nil, fmt.Errorf("ReadObject: missing %s header in response", schema.ObjectMetaHeader)
	}
	return u.obj, nil
}

// DeleteObject deletes a single object and returns its metadata.
func (c *Client) DeleteObject(ctx context.Context, name, key string) (*schema.Object, error) {
	var response schema.DeleteObjectResponse
	if err := c.DoWithContext(ctx,
		client.NewRequestEx(http.MethodDelete, "application/json"),
		&response,
		client.OptPath(name, key),
	); err != nil {
		return nil, err
	}
	return &response.Object, nil
}
