package httphandler_test

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	// Packages
	manager "github.com/mutablelogic/go-uploader/pkg/manager"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
	storetest "github.com/mutablelogic/go-uploader/pkg/storetest"
)

///////////////////////////////////////////////////////////////////////////////
// PUT

func Test_objectPut(t *testing.T) {
	mux := serveMux(newTestManager(t, nil, "file://media"+t.TempDir()+"?create_dir=true"))

	testContent := "Hello, World! This body spans several parts."
	req := httptest.NewRequest(http.MethodPut, "/media/dir/test.txt", strings.NewReader(testContent))
	req.Header.Set("Content-Type", "text/plain")
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, req)

	resp := rw.Result()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.StatusCode, rw.Body.String())
	}

	var out schema.UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if out.Name != "media" || out.Key != "dir/test.txt" {
		t.Errorf("expected name 'media' and key 'dir/test.txt', got name %q key %q", out.Name, out.Key)
	}
	if out.Bytes != uint64(len(testContent)) {
		t.Errorf("expected %d bytes, got %d", len(testContent), out.Bytes)
	}
	if out.Parts != 3 {
		t.Errorf("expected 3 parts, got %d", out.Parts)
	}

	// Read it back
	req = httptest.NewRequest(http.MethodGet, "/media/dir/test.txt", nil)
	rw = httptest.NewRecorder()
	mux.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rw.Code)
	}
	if body := rw.Body.String(); body != testContent {
		t.Errorf("expected body %q, got %q", testContent, body)
	}
	if ct := rw.Header().Get("Content-Type"); ct != "text/plain" {
		t.Errorf("expected Content-Type 'text/plain', got %q", ct)
	}
}

func Test_objectPut_binary(t *testing.T) {
	mux := serveMux(newTestManager(t, nil, "mem://media"))

	data := make([]byte, 4096+7)
	if _, err := rand.Read(data); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPut, "/media/random.bin", bytes.NewReader(data))
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, req)
	if rw.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rw.Code, rw.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/media/random.bin", nil)
	rw = httptest.NewRecorder()
	mux.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rw.Code)
	}
	if !bytes.Equal(rw.Body.Bytes(), data) {
		t.Errorf("downloaded %d bytes differ from the %d uploaded", rw.Body.Len(), len(data))
	}
}

func Test_objectPut_detectContentType(t *testing.T) {
	mux := serveMux(newTestManager(t, nil, "mem://media"))

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	mustPut(t, mux, "/media/image", "", string(png))

	req := httptest.NewRequest(http.MethodHead, "/media/image", nil)
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rw.Code)
	}
	if ct := rw.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected Content-Type 'image/png', got %q", ct)
	}
}

func Test_objectPut_nonExistentBackend(t *testing.T) {
	mux := serveMux(newTestManager(t, nil, "mem://media"))

	req := httptest.NewRequest(http.MethodPut, "/nonexistent/test.txt", strings.NewReader("Hello"))
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, req)
	if rw.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rw.Code)
	}
}

func Test_objectPut_reservedKey(t *testing.T) {
	mux := serveMux(newTestManager(t, nil, "mem://media"))

	req := httptest.NewRequest(http.MethodPut, "/media/"+schema.UploadPrefix+"x", strings.NewReader("Hello"))
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, req)
	if rw.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rw.Code)
	}
}

func Test_objectPut_policy(t *testing.T) {
	opts := []manager.Opt{manager.WithAllowTypes("image/"), manager.WithMaxSize(32)}
	mux := serveMux(newTestManager(t, opts, "mem://media"))

	tests := []struct {
		name        string
		contentType string
		body        string
		length      int64
		status      int
	}{
		{"allowed", "image/png", "small", 5, http.StatusCreated},
		{"not allowed", "text/plain", "small", 5, http.StatusUnsupportedMediaType},
		{"declared too large", "image/png", strings.Repeat("x", 40), 40, http.StatusRequestEntityTooLarge},
		{"streamed too large", "image/png", strings.Repeat("x", 40), -1, http.StatusRequestEntityTooLarge},
		{"short body", "image/png", "small", 10, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/media/file", io.NopCloser(strings.NewReader(tt.body)))
			req.ContentLength = tt.length
			req.Header.Set("Content-Type", tt.contentType)
			rw := httptest.NewRecorder()
			mux.ServeHTTP(rw, req)
			if rw.Code != tt.status {
				t.Errorf("expected status %d, got %d: %s", tt.status, rw.Code, rw.Body.String())
			}
		})
	}
}

func Test_objectPut_storageError(t *testing.T) {
	store := storetest.New(storetest.WithName("media"), storetest.WithFailPart(2, io.ErrClosedPipe))
	mux := serveMux(newTestManager(t, []manager.Opt{manager.WithStore(store)}))

	req := httptest.NewRequest(http.MethodPut, "/media/file.bin", strings.NewReader(strings.Repeat("x", 64)))
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, req)
	if rw.Code != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", rw.Code)
	}
	if strings.Contains(rw.Body.String(), io.ErrClosedPipe.Error()) {
		t.Errorf("expected the store error to be hidden, got %s", rw.Body.String())
	}
	if n := store.Count(storetest.OpComplete); n != 0 {
		t.Errorf("expected no complete calls, got %d", n)
	}
	if n := store.Count(storetest.OpAbort); n != 1 {
		t.Errorf("expected 1 abort call, got %d", n)
	}
}

///////////////////////////////////////////////////////////////////////////////
// GET, HEAD, DELETE

func Test_objectGet_notFound(t *testing.T) {
	mux := serveMux(newTestManager(t, nil, "mem://media"))

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/media/missing.txt", nil)
			rw := httptest.NewRecorder()
			mux.ServeHTTP(rw, req)
			if rw.Code != http.StatusNotFound {
				t.Errorf("expected status 404, got %d", rw.Code)
			}
		})
	}
}

func Test_objectDelete(t *testing.T) {
	mux := serveMux(newTestManager(t, nil, "mem://media"))
	mustPut(t, mux, "/media/gone.txt", "text/plain", "delete me")

	req := httptest.NewRequest(http.MethodDelete, "/media/gone.txt", nil)
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rw.Code)
	}

	var out schema.DeleteObjectResponse
	if err := json.NewDecoder(rw.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if out.Key != "gone.txt" || out.Size != 9 {
		t.Errorf("unexpected response %+v", out)
	}

	req = httptest.NewRequest(http.MethodGet, "/media/gone.txt", nil)
	rw = httptest.NewRecorder()
	mux.ServeHTTP(rw, req)
	if rw.Code != http.StatusNotFound {
		t.Errorf("expected status 404 after delete, got %d", rw.Code)
	}
}

func Test_object_methodNotAllowed(t *testing.T) {
	mux := serveMux(newTestManager(t, nil, "mem://media"))

	req := httptest.NewRequest(http.MethodPatch, "/media/file.txt", nil)
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, req)
	if rw.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rw.Code)
	}
}
