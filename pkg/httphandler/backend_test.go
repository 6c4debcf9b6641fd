package httphandler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	// Packages
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

func Test_backendList(t *testing.T) {
	mux := serveMux(newTestManager(t, nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, req)

	resp := rw.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	var out schema.BackendListResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(out.Body) != 0 {
		t.Errorf("expected no backends, got %+v", out.Body)
	}
}

func Test_backendList_methodNotAllowed(t *testing.T) {
	mux := serveMux(newTestManager(t, nil))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, req)

	if rw.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rw.Code)
	}
}

func Test_backendList_withBackends(t *testing.T) {
	mux := serveMux(newTestManager(t, nil, "mem://media", "file://files"+t.TempDir()+"?create_dir=true"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, req)

	if rw.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rw.Code)
	}

	var out schema.BackendListResponse
	if err := json.NewDecoder(rw.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(out.Body) != 2 {
		t.Fatalf("expected 2 backends, got %+v", out.Body)
	}
	if out.Body[0].Name != "media" || out.Body[0].URL != "mem://media/" {
		t.Errorf("unexpected first backend %+v", out.Body[0])
	}
	if out.Body[1].Name != "files" {
		t.Errorf("unexpected second backend %+v", out.Body[1])
	}
}
