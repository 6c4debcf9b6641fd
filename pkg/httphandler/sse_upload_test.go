package httphandler_test

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	// Packages
	manager "github.com/mutablelogic/go-uploader/pkg/manager"
	multipart "github.com/mutablelogic/go-uploader/pkg/multipart"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// HELPERS

// sseEvent holds one parsed Server-Sent Event.
type sseEvent struct {
	Name string
	Data string // raw JSON string, empty for ping events
}

// parseSSEEvents parses a text/event-stream body into a slice of sseEvents.
func parseSSEEvents(body string) []sseEvent {
	var events []sseEvent
	var name, data string

	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if name != "" {
				events = append(events, sseEvent{Name: name, Data: data})
			}
			name, data = "", ""
		}
	}
	if name != "" {
		events = append(events, sseEvent{Name: name, Data: data})
	}
	return events
}

// sseEventsByName filters a slice keeping only events with the given name.
func sseEventsByName(events []sseEvent, name string) []sseEvent {
	var out []sseEvent
	for _, e := range events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

func newSSEPutRequest(path, contentType, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPut, path, strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/event-stream")
	return req
}

///////////////////////////////////////////////////////////////////////////////
// TESTS

func Test_objectPutSSE(t *testing.T) {
	opts := []manager.Opt{manager.WithUploadOpts(multipart.WithChunkSize(512 * 1024))}
	mux := serveMux(newTestManager(t, opts, "mem://media"))

	// Large enough for two progress events
	content := strings.Repeat("x", 2*1024*1024+10)
	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, newSSEPutRequest("/media/big.txt", "text/plain", content))

	if rw.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rw.Code)
	}
	events := parseSSEEvents(rw.Body.String())

	progress := sseEventsByName(events, schema.UploadProgressEvent)
	if len(progress) != 2 {
		t.Fatalf("expected 2 progress events, got %d", len(progress))
	}
	var p schema.UploadProgress
	if err := json.Unmarshal([]byte(progress[1].Data), &p); err != nil {
		t.Fatalf("failed to decode progress event: %v", err)
	}
	if p.Key != "big.txt" || p.Written != 2*1024*1024 || p.Total != uint64(len(content)) {
		t.Errorf("unexpected progress event %+v", p)
	}

	complete := sseEventsByName(events, schema.UploadCompleteEvent)
	if len(complete) != 1 {
		t.Fatalf("expected 1 complete event, got %d", len(complete))
	}
	var result schema.UploadResult
	if err := json.Unmarshal([]byte(complete[0].Data), &result); err != nil {
		t.Fatalf("failed to decode complete event: %v", err)
	}
	if result.Bytes != uint64(len(content)) || result.Name != "media" {
		t.Errorf("unexpected result %+v", result)
	}
	if errs := sseEventsByName(events, schema.UploadErrorEvent); len(errs) != 0 {
		t.Errorf("expected no error events, got %v", errs)
	}
}

func Test_objectPutSSE_error(t *testing.T) {
	mux := serveMux(newTestManager(t, []manager.Opt{manager.WithAllowTypes("image/")}, "mem://media"))

	rw := httptest.NewRecorder()
	mux.ServeHTTP(rw, newSSEPutRequest("/media/doc.txt", "text/plain", "text"))

	events := parseSSEEvents(rw.Body.String())
	errs := sseEventsByName(events, schema.UploadErrorEvent)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error event, got %d in %q", len(errs), rw.Body.String())
	}
	var e schema.UploadError
	if err := json.Unmarshal([]byte(errs[0].Data), &e); err != nil {
		t.Fatalf("failed to decode error event: %v", err)
	}
	if e.Key != "doc.txt" || e.Status != http.StatusUnsupportedMediaType {
		t.Errorf("unexpected error event %+v", e)
	}
	if complete := sseEventsByName(events, schema.UploadCompleteEvent); len(complete) != 0 {
		t.Errorf("expected no complete events, got %v", complete)
	}
}
