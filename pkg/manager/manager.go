package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	// Packages
	otel "github.com/mutablelogic/go-client/pkg/otel"
	uploader "github.com/mutablelogic/go-uploader"
	multipart "github.com/mutablelogic/go-uploader/pkg/multipart"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Manager routes uploads and object requests to named stores, and applies
// the upload policy.
type Manager struct {
	opts
	uploaders map[string]*multipart.Uploader
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

var (
	ErrNotAllowed = errors.New("content type not allowed")
	ErrTooLarge   = errors.New("object too large")
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a new manager.
func New(ctx context.Context, opts ...Opt) (*Manager, error) {
	self := new(Manager)

	// Apply options
	if opt, err := applyOpts(opts); err != nil {
		return nil, err
	} else {
		self.opts = opt
	}

	// One uploader per store, sharing the options
	uploadOpts := append([]multipart.Opt{}, self.uploadOpts...)
	if self.tracer != nil {
		uploadOpts = append(uploadOpts, multipart.WithTracer(self.tracer))
	}
	if self.meter != nil {
		uploadOpts = append(uploadOpts, multipart.WithMeter(self.meter))
	}
	if self.logger != nil {
		uploadOpts = append(uploadOpts, multipart.WithLogger(self.logger))
	}
	self.uploaders = make(map[string]*multipart.Uploader, len(self.stores))
	for _, store := range self.stores {
		u, err := multipart.New(store, uploadOpts...)
		if err != nil {
			return nil, errors.Join(err, self.Close())
		}
		self.uploaders[store.Name()] = u
	}

	// Return success
	return self, nil
}

// Close all backends
func (manager *Manager) Close() error {
	var result error
	for _, store := range manager.stores {
		if err := store.Close(); err != nil {
			result = errors.Join(result, err)
		}
	}

	// Return any errors
	return result
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Backends returns the registered stores
func (manager *Manager) Backends() []schema.Backend {
	result := make([]schema.Backend, 0, len(manager.stores))
	for _, store := range manager.stores {
		result = append(result, schema.Backend{
			Name:   store.Name(),
			Bucket: store.Bucket(),
			URL:    store.URL("").String(),
		})
	}
	return result
}

// Upload streams req.Body into the named backend. The content type must be
// allowed and the object no larger than the size limit; a body which turns
// out to be too large fails the upload, which is then aborted.
func (manager *Manager) Upload(ctx context.Context, name string, req schema.UploadRequest) (_ *schema.UploadResult, result error) {
	// Find the right backend
	store, err := manager.backendForName(name)
	if err != nil {
		return nil, err
	}

	// OTEL span
	child, endFunc := otel.StartSpan(manager.tracer, ctx, spanManagerName("Upload"))
	defer func() { endFunc(result) }()

	// Check policy before starting the upload
	if !manager.allowed(req.ContentType) {
		return nil, fmt.Errorf("%w: %q", ErrNotAllowed, req.ContentType)
	}
	if manager.maxSize > 0 {
		if req.Size != nil && *req.Size > manager.maxSize {
			return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, *req.Size, manager.maxSize)
		}
		if req.Body != nil {
			req.Body = &limitReader{r: req.Body, n: manager.maxSize}
		}
	}

	// Run the upload
	response, err := manager.uploaders[store.Name()].Upload(child, req)
	if err != nil {
		return nil, err
	}
	response.Name = store.Name()
	return response, nil
}

// GetObject returns object metadata
func (manager *Manager) GetObject(ctx context.Context, name, key string) (_ *schema.Object, result error) {
	// Find the right backend
	store, err := manager.backendForName(name)
	if err != nil {
		return nil, err
	}

	// OTEL span
	child, endFunc := otel.StartSpan(manager.tracer, ctx, spanManagerName("GetObject"))
	defer func() { endFunc(result) }()

	// Run the backend
	return store.GetObject(child, key)
}

// ReadObject returns the object content, which the caller must close
func (manager *Manager) ReadObject(ctx context.Context, name, key string) (_ io.ReadCloser, _ *schema.Object, result error) {
	// Find the right backend
	store, err := manager.backendForName(name)
	if err != nil {
		return nil, nil, err
	}

	// OTEL span
	child, endFunc := otel.StartSpan(manager.tracer, ctx, spanManagerName("ReadObject"))
	defer func() { endFunc(result) }()

	// Run the backend
	return store.ReadObject(child, key)
}

// DeleteObject removes an object and returns its metadata
func (manager *Manager) DeleteObject(ctx context.Context, name, key string) (_ *schema.Object, result error) {
	// Find the right backend
	store, err := manager.backendForName(name)
	if err != nil {
		return nil, err
	}

	// OTEL span
	child, endFunc := otel.StartSpan(manager.tracer, ctx, spanManagerName("DeleteObject"))
	defer func() { endFunc(result) }()

	// Run the backend
	return store.DeleteObject(child, key)
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (manager *Manager) backendForName(name string) (uploader.Store, error) {
	for _, store := range manager.stores {
		if store.Name() == name {
			return store, nil
		}
	}
	return nil, fmt.Errorf("%w: no backend found for name %q", uploader.ErrNotFound, name)
}

func (manager *Manager) allowed(contentType string) bool {
	if len(manager.allowTypes) == 0 {
		return true
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	for _, prefix := range manager.allowTypes {
		if strings.HasPrefix(contentType, strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

func spanManagerName(op string) string {
	return schema.SchemaName + ".manager." + op
}
