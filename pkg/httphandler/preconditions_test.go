package httphandler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	// Packages
	manager "github.com/mutablelogic/go-uploader/pkg/manager"
	storetest "github.com/mutablelogic/go-uploader/pkg/storetest"
)

///////////////////////////////////////////////////////////////////////////////
// RESPONSE HEADER TESTS

func Test_objectGet_headers(t *testing.T) {
	mux := serveMux(newTestManager(t, nil, "mem://media"))
	mustPut(t, mux, "/media/sub/hello.txt", "text/plain", "hi")

	for _, method := range []string{http.MethodGet, http.MethodHead} {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/media/sub/hello.txt", nil)
			rw := httptest.NewRecorder()
			mux.ServeHTTP(rw, req)

			resp := rw.Result()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200, got %d", resp.StatusCode)
			}
			cd := resp.Header.Get("Content-Disposition")
			if !strings.Contains(cd, "inline") || !strings.Contains(cd, "hello.txt") {
				t.Errorf("Content-Disposition should be inline with filename 'hello.txt', got %q", cd)
			}
			if cl := resp.Header.Get("Content-Length"); cl != "2" {
				t.Errorf("expected Content-Length 2, got %q", cl)
			}
			if meta := resp.Header.Get("X-Object-Meta"); !strings.Contains(meta, `"key":"sub/hello.txt"`) {
				t.Errorf("expected X-Object-Meta to contain the key, got %q", meta)
			}
		})
	}
}

///////////////////////////////////////////////////////////////////////////////
// CONDITIONAL REQUESTS

func Test_objectGet_preconditions(t *testing.T) {
	store := storetest.New(storetest.WithName("media"))
	mux := serveMux(newTestManager(t, []manager.Opt{manager.WithStore(store)}))
	mustPut(t, mux, "/media/hello.txt", "text/plain", "hello")

	// Fetch the ETag
	req := httptest.NewRequest(http.MethodHead, "/media/hello.txt", nil)
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, req)
	etag := rw.Header().Get("ETag")
	if etag == "" {
		t.Fatal("expected an ETag header")
	}

	future := time.Now().Add(time.Hour).UTC().Format(http.TimeFormat)
	past := time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat)
	tests := []struct {
		name   string
		header string
		value  string
		status int
	}{
		{"If-None-Match match", "If-None-Match", etag, http.StatusNotModified},
		{"If-None-Match weak match", "If-None-Match", "W/" + etag, http.StatusNotModified},
		{"If-None-Match star", "If-None-Match", "*", http.StatusNotModified},
		{"If-None-Match other", "If-None-Match", `"other"`, http.StatusOK},
		{"If-Match match", "If-Match", etag, http.StatusOK},
		{"If-Match weak", "If-Match", "W/" + etag, http.StatusPreconditionFailed},
		{"If-Match other", "If-Match", `"other"`, http.StatusPreconditionFailed},
		{"If-Modified-Since future", "If-Modified-Since", future, http.StatusNotModified},
		{"If-Modified-Since past", "If-Modified-Since", past, http.StatusOK},
		{"If-Unmodified-Since past", "If-Unmodified-Since", past, http.StatusPreconditionFailed},
		{"If-Unmodified-Since future", "If-Unmodified-Since", future, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/media/hello.txt", nil)
			req.Header.Set(tt.header, tt.value)
			rw := httptest.NewRecorder()
			mux.ServeHTTP(rw, req)
			if rw.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rw.Code)
			}
			if tt.status == http.StatusOK && rw.Body.String() != "hello" {
				t.Errorf("expected body 'hello', got %q", rw.Body.String())
			}
		})
	}
}
