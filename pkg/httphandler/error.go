package httphandler

import (
	"errors"
	"net/http"

	// Packages
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	uploader "github.com/mutablelogic/go-uploader"
	manager "github.com/mutablelogic/go-uploader/pkg/manager"
	multipart "github.com/mutablelogic/go-uploader/pkg/multipart"
)

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// errStatus returns the response status and message for an error, or zero
// if the error should be passed through unchanged. Remote store failures
// are reported without the store's own message.
func errStatus(err error) (int, string) {
	var uerr *multipart.Error
	switch {
	case errors.Is(err, manager.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, manager.ErrNotAllowed):
		return http.StatusUnsupportedMediaType, err.Error()
	case errors.Is(err, uploader.ErrBadParameter) && !storeFailure(err), errors.Is(err, multipart.ErrSizeMismatch):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, multipart.ErrStreamRead):
		return http.StatusBadRequest, "error reading request body"
	case errors.As(err, &uerr):
		return http.StatusBadGateway, "storage error"
	case errors.Is(err, uploader.ErrNotFound):
		return http.StatusNotFound, err.Error()
	default:
		return 0, ""
	}
}

// storeFailure returns true if a part upload or commit failed on the store
func storeFailure(err error) bool {
	var uerr *multipart.Error
	if !errors.As(err, &uerr) {
		return false
	}
	return uerr.Kind == multipart.KindPartUpload || uerr.Kind == multipart.KindCommit
}

// httpErr converts an error into an HTTP error response
func httpErr(err error) error {
	if status, message := errStatus(err); status != 0 {
		return httpresponse.Err(status).With(message)
	}
	return err
}
