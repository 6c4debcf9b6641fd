package httpclient

import (
	"context"

	// Packages
	client "github.com/mutablelogic/go-client"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ListBackends returns a list of registered backends from the upload API.
func (c *Client) ListBackends(ctx context.Context) (*schema.BackendListResponse, error) {
	req := client.NewRequest()

	// Perform request
	var response schema.BackendListResponse
	if err := c.DoWithContext(ctx, req, &response); err != nil {
		return nil, err
	}

	// Return the response
	return &response, nil
}
