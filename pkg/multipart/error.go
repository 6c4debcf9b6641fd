package multipart

import (
	"errors"
	"fmt"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Kind classifies an upload failure
type Kind int

// Error is returned for any failed upload. Use errors.Is with one of the
// sentinel errors to test the kind, or errors.As to inspect the key and part.
type Error struct {
	Kind Kind
	Key  string
	Part int32 // zero unless the failure belongs to a single part
	Err  error
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	_ Kind = iota
	KindSessionCreate
	KindStreamRead
	KindPartUpload
	KindCommit
)

var (
	ErrSessionCreate = errors.New("session create failed")
	ErrStreamRead    = errors.New("stream read failed")
	ErrPartUpload    = errors.New("part upload failed")
	ErrCommit        = errors.New("commit failed")
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrSessionClosed = errors.New("session is closed")
	ErrInvalidParts  = errors.New("parts are not numbered 1..n")
	ErrSizeMismatch  = errors.New("stream length does not match declared size")
	ErrPartMismatch  = errors.New("stored parts do not match")
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func newError(kind Kind, key string, part int32, err error) *Error {
	return &Error{Kind: kind, Key: key, Part: part, Err: err}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (e *Error) Error() string {
	var prefix string
	if e.Part > 0 {
		prefix = fmt.Sprintf("%s: %q part %d", e.Kind, e.Key, e.Part)
	} else {
		prefix = fmt.Sprintf("%s: %q", e.Kind, e.Key)
	}
	if e.Err == nil {
		return prefix
	}
	return prefix + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error for the kind
func (e *Error) Is(target error) bool {
	if sentinel := e.Kind.sentinel(); sentinel != nil {
		return target == sentinel
	}
	return false
}

func (k Kind) String() string {
	if sentinel := k.sentinel(); sentinel != nil {
		return sentinel.Error()
	}
	return "upload failed"
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (k Kind) sentinel() error {
	switch k {
	case KindSessionCreate:
		return ErrSessionCreate
	case KindStreamRead:
		return ErrStreamRead
	case KindPartUpload:
		return ErrPartUpload
	case KindCommit:
		return ErrCommit
	default:
		return nil
	}
}
