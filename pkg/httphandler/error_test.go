package httphandler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	// Packages
	uploader "github.com/mutablelogic/go-uploader"
	manager "github.com/mutablelogic/go-uploader/pkg/manager"
	multipart "github.com/mutablelogic/go-uploader/pkg/multipart"
)

func Test_errStatus(t *testing.T) {
	badParam := fmt.Errorf("%w: part 10001 out of range", uploader.ErrBadParameter)
	tests := []struct {
		name   string
		err    error
		status int
		hidden bool
	}{
		{"too large", &multipart.Error{Kind: multipart.KindStreamRead, Key: "a", Err: manager.ErrTooLarge}, http.StatusRequestEntityTooLarge, false},
		{"not allowed", fmt.Errorf("%w: text/html", manager.ErrNotAllowed), http.StatusUnsupportedMediaType, false},
		{"bad key", &multipart.Error{Kind: multipart.KindSessionCreate, Key: "/a", Err: badParam}, http.StatusBadRequest, false},
		{"missing body", &multipart.Error{Kind: multipart.KindStreamRead, Key: "a", Err: badParam}, http.StatusBadRequest, false},
		{"bad parameter", badParam, http.StatusBadRequest, false},
		{"size mismatch", &multipart.Error{Kind: multipart.KindStreamRead, Key: "a", Err: multipart.ErrSizeMismatch}, http.StatusBadRequest, false},
		{"read error", &multipart.Error{Kind: multipart.KindStreamRead, Key: "a", Err: io.ErrUnexpectedEOF}, http.StatusBadRequest, true},
		{"part rejected by store", &multipart.Error{Kind: multipart.KindPartUpload, Key: "a", Part: 2, Err: badParam}, http.StatusBadGateway, true},
		{"commit rejected by store", &multipart.Error{Kind: multipart.KindCommit, Key: "a", Err: badParam}, http.StatusBadGateway, true},
		{"part failure", &multipart.Error{Kind: multipart.KindPartUpload, Key: "a", Part: 1, Err: io.ErrClosedPipe}, http.StatusBadGateway, true},
		{"not found", fmt.Errorf("%w: key", uploader.ErrNotFound), http.StatusNotFound, false},
		{"other", errors.New("other"), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message := errStatus(tt.err)
			if status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, status)
			}
			if tt.hidden && message == tt.err.Error() {
				t.Errorf("expected the error text to be hidden, got %q", message)
			}
		})
	}
}
