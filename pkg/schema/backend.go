package schema

import "github.com/mutablelogic/go-server/pkg/types"

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Backend describes a registered store.
type Backend struct {
	Name   string `json:"name"`
	Bucket string `json:"bucket,omitempty"`
	URL    string `json:"url,omitempty"`
}

type BackendListResponse struct {
	Body []Backend `json:"body"`
}

// HealthResponse is returned by the health check.
type HealthResponse struct {
	Status   string `json:"status"`
	Backends int    `json:"backends"`
}

///////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (b Backend) String() string {
	return types.Stringify(b)
}

func (r BackendListResponse) String() string {
	return types.Stringify(r)
}

func (r HealthResponse) String() string {
	return types.Stringify(r)
}
