package multipart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	// Packages
	uploader "github.com/mutablelogic/go-uploader"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Session is one multipart upload on a store. Once committed or aborted no
// further parts may be written.
type Session struct {
	mu     sync.Mutex
	store  uploader.Multipart
	handle schema.SessionHandle
	state  schema.SessionState
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// Begin starts a multipart upload for key
func Begin(ctx context.Context, store uploader.Multipart, key, contentType string) (*Session, error) {
	if err := validateKey(key); err != nil {
		return nil, newError(KindSessionCreate, key, 0, err)
	}

	session := &Session{
		store: store,
		state: schema.SessionCreated,
		handle: schema.SessionHandle{
			Bucket:      store.Bucket(),
			Key:         key,
			ContentType: contentType,
		},
	}

	id, err := store.CreateMultipart(ctx, key, contentType)
	if err != nil {
		return nil, newError(KindSessionCreate, key, 0, err)
	} else if id == "" {
		return nil, newError(KindSessionCreate, key, 0, errors.New("store returned an empty upload id"))
	}

	session.handle.ID = id
	session.state = schema.SessionActive
	return session, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Handle returns the upload identifier, bucket and key
func (s *Session) Handle() schema.SessionHandle {
	return s.handle
}

// State returns the lifecycle state
func (s *Session) State() schema.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Parts returns the parts the store holds for this upload
func (s *Session) Parts(ctx context.Context) ([]schema.CompletedPart, error) {
	return s.store.ListParts(ctx, s.handle.ID, s.handle.Key)
}

// Commit finalizes the object from parts, which must be sorted by part
// number and numbered 1..n without gaps. When verify is true the parts
// held by the store are checked against the receipts first.
func (s *Session) Commit(ctx context.Context, parts []schema.CompletedPart, verify bool) (*schema.UploadResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != schema.SessionActive {
		return nil, newError(KindCommit, s.handle.Key, 0, fmt.Errorf("%w: %s", ErrSessionClosed, s.state))
	}

	// Check the part numbering
	var bytes uint64
	for i, part := range parts {
		if part.Part != int32(i+1) {
			return nil, s.fail(KindCommit, fmt.Errorf("%w: position %d holds part %d", ErrInvalidParts, i+1, part.Part))
		}
		bytes += uint64(part.Size)
	}
	if len(parts) == 0 {
		return nil, s.fail(KindCommit, fmt.Errorf("%w: no parts", ErrInvalidParts))
	}

	// Check the store agrees on what was uploaded
	if verify {
		stored, err := s.store.ListParts(ctx, s.handle.ID, s.handle.Key)
		if err != nil {
			return nil, s.fail(KindCommit, err)
		} else if err := compareParts(parts, stored); err != nil {
			return nil, s.fail(KindCommit, err)
		}
	}

	// Complete the upload
	if err := s.store.CompleteMultipart(ctx, s.handle.ID, s.handle.Key, parts); err != nil {
		return nil, s.fail(KindCommit, err)
	}

	// Return success
	s.state = schema.SessionCommitted
	return &schema.UploadResult{
		Key:   s.handle.Key,
		Bytes: bytes,
		Parts: len(parts),
	}, nil
}

// Abort discards the upload and every part stored so far. It may be called
// after a failed commit, but not after a successful one.
func (s *Session) Abort(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case schema.SessionActive, schema.SessionFailed:
		if err := s.store.AbortMultipart(ctx, s.handle.ID, s.handle.Key); err != nil {
			s.state = schema.SessionFailed
			return err
		}
		s.state = schema.SessionAborted
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrSessionClosed, s.state)
	}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// active returns nil if parts may still be written
func (s *Session) active() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != schema.SessionActive {
		return fmt.Errorf("%w: %s", ErrSessionClosed, s.state)
	}
	return nil
}

// fail moves the session to the failed state and wraps err
func (s *Session) fail(kind Kind, err error) error {
	s.state = schema.SessionFailed
	return newError(kind, s.handle.Key, 0, err)
}

func validateKey(key string) error {
	switch {
	case key == "":
		return fmt.Errorf("%w: empty object key", uploader.ErrBadParameter)
	case strings.HasPrefix(key, "/"):
		return fmt.Errorf("%w: object key %q has a leading slash", uploader.ErrBadParameter, key)
	case strings.HasPrefix(key, schema.UploadPrefix):
		return fmt.Errorf("%w: object key %q uses a reserved prefix", uploader.ErrBadParameter, key)
	}
	return nil
}

func compareParts(parts, stored []schema.CompletedPart) error {
	if len(parts) != len(stored) {
		return fmt.Errorf("%w: expected %d parts, store has %d", ErrPartMismatch, len(parts), len(stored))
	}
	for i := range parts {
		if parts[i].Part != stored[i].Part || !sameTag(parts[i].ETag, stored[i].ETag) {
			return fmt.Errorf("%w: part %d", ErrPartMismatch, parts[i].Part)
		}
	}
	return nil
}

func sameTag(a, b string) bool {
	return strings.Trim(a, `"`) == strings.Trim(b, `"`)
}
