package multipart

import (
	"context"

	// Packages
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// UploadPart stores one chunk and returns its receipt. It does not retry;
// the chunk data is not retained after it returns.
func (s *Session) UploadPart(ctx context.Context, chunk *schema.Chunk) (schema.CompletedPart, error) {
	if err := s.active(); err != nil {
		return schema.CompletedPart{}, newError(KindPartUpload, s.handle.Key, chunk.Part, err)
	}
	etag, err := s.store.UploadPart(ctx, s.handle.ID, s.handle.Key, chunk.Part, chunk.Data)
	if err != nil {
		return schema.CompletedPart{}, newError(KindPartUpload, s.handle.Key, chunk.Part, err)
	}
	return schema.CompletedPart{
		Part: chunk.Part,
		ETag: etag,
		Size: int64(chunk.Len()),
	}, nil
}
