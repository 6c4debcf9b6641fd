package schema

import "github.com/mutablelogic/go-server/pkg/types"

////////////////////////////////////////////////////////////////////////////////
// TYPES

// UploadProgress is reported as an upload proceeds. Written counts bytes
// stored so far across all parts, or bytes received when streamed to an
// HTTP client.
type UploadProgress struct {
	Key     string `json:"key"`
	Part    int32  `json:"part,omitempty"`
	Bytes   int    `json:"bytes,omitempty"` // bytes in this part
	Written uint64 `json:"written"`
	Total   uint64 `json:"total,omitempty"`
}

// ProgressFunc receives progress reports. It may be called concurrently
// from several part uploads.
type ProgressFunc func(UploadProgress)

// UploadError is the final event of a failed streamed upload.
type UploadError struct {
	Key     string `json:"key"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

// Event names for uploads streamed as text/event-stream
const (
	UploadProgressEvent = "progress"
	UploadCompleteEvent = "complete"
	UploadErrorEvent    = "error"
)

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (p UploadProgress) String() string {
	return types.Stringify(p)
}

func (e UploadError) String() string {
	return types.Stringify(e)
}
