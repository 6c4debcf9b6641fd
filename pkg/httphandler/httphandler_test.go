package httphandler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	// Packages
	httphandler "github.com/mutablelogic/go-uploader/pkg/httphandler"
	manager "github.com/mutablelogic/go-uploader/pkg/manager"
	multipart "github.com/mutablelogic/go-uploader/pkg/multipart"
)

// serveMux registers the handlers on a plain ServeMux
func serveMux(mgr *manager.Manager) *http.ServeMux {
	mux := http.NewServeMux()
	path, handler, _ := httphandler.BackendListHandler(mgr)
	mux.HandleFunc(path, handler)
	path, handler, _ = httphandler.ObjectHandler(mgr)
	mux.HandleFunc(path, handler)
	path, handler, _ = httphandler.HealthHandler(mgr)
	mux.HandleFunc(path, handler)
	return mux
}

// newTestManager creates a manager with the given backend URLs and a small
// chunk size, so that uploads span several parts. Upload options in opts
// override the defaults.
func newTestManager(t *testing.T, opts []manager.Opt, backends ...string) *manager.Manager {
	t.Helper()
	opts = append([]manager.Opt{manager.WithUploadOpts(multipart.WithChunkSize(16), multipart.WithConcurrency(2))}, opts...)
	for _, b := range backends {
		opts = append(opts, manager.WithBackend(context.Background(), b))
	}
	mgr, err := manager.New(context.Background(), opts...)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

// mustPut uploads content and fails the test unless the object is created
func mustPut(t *testing.T, mux http.Handler, path, contentType, content string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(content))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, req)
	if rw.Code != http.StatusCreated {
		t.Fatalf("PUT %s: expected status 201, got %d: %s", path, rw.Code, rw.Body.String())
	}
}
