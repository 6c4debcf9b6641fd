package schema

////////////////////////////////////////////////////////////////////////////////
// TYPES

const (
	SchemaName = "uploader"

	// HTTP headers
	ObjectMetaHeader = "X-Object-Meta"

	// UploadPrefix is reserved for in-progress part data on stores which
	// emulate multipart uploads. Object keys may not start with it.
	UploadPrefix = ".uploads/"
)

const (
	// DefaultChunkSize is the part size used when none is configured.
	DefaultChunkSize = 8 * 1024 * 1024

	// DefaultConcurrency is the number of part uploads which may be in
	// flight at once for a single object.
	DefaultConcurrency = 24

	// MinPartSize is the smallest non-final part S3 accepts.
	MinPartSize = 5 * 1024 * 1024

	// MaxParts is the largest part number S3 accepts.
	MaxParts = 10000
)
