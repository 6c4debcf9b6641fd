// Package storetest provides an in-memory store which records every call
// made to it, and which can be told to fail or delay individual operations.
package storetest

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"slices"
	"sync"
	"time"

	// Packages
	uuid "github.com/google/uuid"
	uploader "github.com/mutablelogic/go-uploader"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Store is an in-memory implementation of uploader.Store
type Store struct {
	opt
	mu        sync.Mutex
	uploads   map[string]*upload
	objects   map[string]*object
	calls     []Call
	completed map[string][]schema.CompletedPart
	inflight  int
	peak      int
	closed    int
}

// Call records one operation made against the store
type Call struct {
	Op   string
	Key  string
	Part int32
}

type upload struct {
	key         string
	contentType string
	parts       map[int32]part
}

type part struct {
	etag string
	data []byte
}

type object struct {
	data        []byte
	contentType string
	etag        string
	modtime     time.Time
}

var _ uploader.Store = (*Store)(nil)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	OpCreate   = "create"
	OpPart     = "part"
	OpComplete = "complete"
	OpAbort    = "abort"
	OpList     = "list"
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns an empty store
func New(opts ...Opt) *Store {
	s := &Store{
		uploads:   make(map[string]*upload),
		objects:   make(map[string]*object),
		completed: make(map[string][]schema.CompletedPart),
	}
	s.opt.name = "mem"
	for _, fn := range opts {
		fn(&s.opt)
	}
	return s
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - STORE

func (s *Store) Name() string {
	return s.name
}

func (s *Store) Bucket() string {
	return s.name
}

func (s *Store) URL(key string) *url.URL {
	return &url.URL{Scheme: "mem", Host: s.name, Path: "/" + key}
}

func (s *Store) CreateMultipart(ctx context.Context, key, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: OpCreate, Key: key})
	if s.failCreate != nil {
		return "", s.failCreate
	}
	id := uuid.New().String()
	s.uploads[id] = &upload{key: key, contentType: contentType, parts: make(map[int32]part)}
	return id, nil
}

func (s *Store) UploadPart(ctx context.Context, uploadID, key string, n int32, data []byte) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, Call{Op: OpPart, Key: key, Part: n})
	s.inflight++
	s.peak = max(s.peak, s.inflight)
	delay := s.delayFor(n)
	s.mu.Unlock()

	// Hold the part in flight for the delay, or until cancelled
	var ctxErr error
	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			ctxErr = ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	if ctxErr != nil {
		return "", ctxErr
	}
	if err, exists := s.failPart[n]; exists {
		return "", err
	}
	u, exists := s.uploads[uploadID]
	if !exists || u.key != key {
		return "", fmt.Errorf("%w: upload %q", uploader.ErrNotFound, uploadID)
	}
	sum := md5.Sum(data)
	etag := `"` + hex.EncodeToString(sum[:]) + `"`
	u.parts[n] = part{etag: etag, data: bytes.Clone(data)}
	return etag, nil
}

func (s *Store) CompleteMultipart(ctx context.Context, uploadID, key string, parts []schema.CompletedPart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: OpComplete, Key: key})
	s.completed[key] = slices.Clone(parts)
	if s.failComplete != nil {
		return s.failComplete
	}
	u, exists := s.uploads[uploadID]
	if !exists || u.key != key {
		return fmt.Errorf("%w: upload %q", uploader.ErrNotFound, uploadID)
	}
	data := []byte{}
	for _, p := range parts {
		stored, exists := u.parts[p.Part]
		if !exists || stored.etag != p.ETag {
			return fmt.Errorf("%w: invalid part %d", uploader.ErrBadParameter, p.Part)
		}
		data = append(data, stored.data...)
	}
	sum := md5.Sum(data)
	s.objects[key] = &object{
		data:        data,
		contentType: u.contentType,
		etag:        fmt.Sprintf(`"%s-%d"`, hex.EncodeToString(sum[:]), len(parts)),
		modtime:     time.Now(),
	}
	delete(s.uploads, uploadID)
	return nil
}

func (s *Store) AbortMultipart(ctx context.Context, uploadID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: OpAbort, Key: key})
	if s.failAbort != nil {
		return s.failAbort
	}
	if _, exists := s.uploads[uploadID]; !exists {
		return fmt.Errorf("%w: upload %q", uploader.ErrNotFound, uploadID)
	}
	delete(s.uploads, uploadID)
	return nil
}

func (s *Store) ListParts(ctx context.Context, uploadID, key string) ([]schema.CompletedPart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: OpList, Key: key})
	u, exists := s.uploads[uploadID]
	if !exists {
		return nil, fmt.Errorf("%w: upload %q", uploader.ErrNotFound, uploadID)
	}
	result := make([]schema.CompletedPart, 0, len(u.parts))
	for n, p := range u.parts {
		result = append(result, schema.CompletedPart{Part: n, ETag: p.etag, Size: int64(len(p.data))})
	}
	slices.SortFunc(result, func(a, b schema.CompletedPart) int {
		return int(a.Part - b.Part)
	})
	return result, nil
}

func (s *Store) GetObject(ctx context.Context, key string) (*schema.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, exists := s.objects[key]
	if !exists {
		return nil, fmt.Errorf("%w: %q", uploader.ErrNotFound, key)
	}
	return s.meta(key, o), nil
}

func (s *Store) ReadObject(ctx context.Context, key string) (io.ReadCloser, *schema.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, exists := s.objects[key]
	if !exists {
		return nil, nil, fmt.Errorf("%w: %q", uploader.ErrNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(o.data)), s.meta(key, o), nil
}

func (s *Store) DeleteObject(ctx context.Context, key string) (*schema.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, exists := s.objects[key]
	if !exists {
		return nil, fmt.Errorf("%w: %q", uploader.ErrNotFound, key)
	}
	delete(s.objects, key)
	return s.meta(key, o), nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - INSPECTION

// Calls returns the operations made so far, in order
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// Count returns the number of calls made for an operation
func (s *Store) Count(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, c := range s.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Peak returns the largest number of part uploads in flight at once
func (s *Store) Peak() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peak
}

// Completed returns the part list most recently passed to CompleteMultipart
// for a key, whether or not completion succeeded
func (s *Store) Completed(key string) []schema.CompletedPart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.completed[key])
}

// Closed returns the number of times Close has been called
func (s *Store) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Open returns the number of uploads which are neither completed nor aborted
func (s *Store) Open() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uploads)
}

// Data returns the stored object bytes, or nil if the object does not
// exist. An empty object returns an empty, non-nil slice.
func (s *Store) Data(key string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, exists := s.objects[key]; exists {
		return append([]byte{}, o.data...)
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (s *Store) delayFor(n int32) time.Duration {
	if s.delay == nil {
		return 0
	}
	return s.delay(n)
}

func (s *Store) meta(key string, o *object) *schema.Object {
	return &schema.Object{
		Name:        s.name,
		Key:         key,
		Size:        int64(len(o.data)),
		ModTime:     o.modtime,
		ContentType: o.contentType,
		ETag:        o.etag,
	}
}
