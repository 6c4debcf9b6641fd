package schema

import (
	"time"

	// Packages
	"github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// ObjectMeta is a string key-value map for user-defined object metadata.
type ObjectMeta map[string]string

// Object is a stored object as reported by a backend.
type Object struct {
	Name        string     `json:"name,omitempty"`
	Key         string     `json:"key,omitempty"`
	Size        int64      `json:"size"`
	ModTime     time.Time  `json:"modtime,omitzero"`
	ContentType string     `json:"type,omitempty"`
	ETag        string     `json:"etag,omitempty"`
	Meta        ObjectMeta `json:"meta,omitempty"`
}

type DeleteObjectResponse struct {
	Object
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (o Object) String() string {
	return types.Stringify(o)
}
