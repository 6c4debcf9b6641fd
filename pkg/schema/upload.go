package schema

import (
	"io"

	// Packages
	"github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// UploadRequest describes one object to be streamed into a store.
type UploadRequest struct {
	Key         string    `json:"key"`
	ContentType string    `json:"type,omitempty"`
	Size        *uint64   `json:"size,omitempty"` // declared size, if known
	Body        io.Reader `json:"-"`
}

// UploadResult is returned once an object has been committed.
type UploadResult struct {
	Name  string `json:"name,omitempty"`
	Key   string `json:"key"`
	Bytes uint64 `json:"bytes"`
	Parts int    `json:"parts"`
}

// Chunk is a contiguous slice of the source stream. Part numbers start at 1
// and increase by one in stream order.
type Chunk struct {
	Part int32
	Data []byte
}

// CompletedPart is the receipt for one stored part.
type CompletedPart struct {
	Part int32  `json:"part"`
	ETag string `json:"etag"`
	Size int64  `json:"size,omitempty"`
}

// SessionHandle identifies a multipart upload on a store.
type SessionHandle struct {
	ID          string `json:"id"`
	Bucket      string `json:"bucket,omitempty"`
	Key         string `json:"key"`
	ContentType string `json:"type,omitempty"`
}

// SessionState is the lifecycle state of a multipart upload.
type SessionState int

const (
	SessionNone SessionState = iota
	SessionCreated
	SessionActive
	SessionCommitted
	SessionAborted
	SessionFailed
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Len returns the number of bytes in the chunk.
func (c Chunk) Len() int {
	return len(c.Data)
}

// Terminal returns true if no further parts may be written.
func (s SessionState) Terminal() bool {
	return s == SessionCommitted || s == SessionAborted || s == SessionFailed
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (r UploadRequest) String() string {
	return types.Stringify(r)
}

func (r UploadResult) String() string {
	return types.Stringify(r)
}

func (p CompletedPart) String() string {
	return types.Stringify(p)
}

func (h SessionHandle) String() string {
	return types.Stringify(h)
}

func (s SessionState) String() string {
	switch s {
	case SessionNone:
		return "none"
	case SessionCreated:
		return "created"
	case SessionActive:
		return "active"
	case SessionCommitted:
		return "committed"
	case SessionAborted:
		return "aborted"
	case SessionFailed:
		return "failed"
	default:
		return "unknown"
	}
}
