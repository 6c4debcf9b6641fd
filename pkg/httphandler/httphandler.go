package httphandler

import (
	"errors"
	"net/http"

	// Packages
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	openapi "github.com/mutablelogic/go-server/pkg/openapi/schema"
	limiter "github.com/mutablelogic/go-uploader/pkg/limiter"
	manager "github.com/mutablelogic/go-uploader/pkg/manager"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Router is the interface required to register HTTP handlers.
type Router interface {
	RegisterFunc(path string, handler http.HandlerFunc, middleware bool, spec *openapi.PathItem) error
}

// Opt is a functional option for handler registration.
type Opt func(*opt) error

type opt struct {
	limiter *limiter.Limiter
}

///////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithRequestLimit allows at most n requests to be served at once. Further
// requests wait until one finishes, or until their context is done.
func WithRequestLimit(n int) Opt {
	return func(o *opt) error {
		l, err := limiter.New(n)
		if err != nil {
			return err
		}
		o.limiter = l
		return nil
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterHandlers registers all HTTP handlers on the provided router.
func RegisterHandlers(mgr *manager.Manager, router Router, opts ...Opt) error {
	var o opt
	for _, fn := range opts {
		if err := fn(&o); err != nil {
			return err
		}
	}

	var result error
	register := func(path string, handler http.HandlerFunc, spec *openapi.PathItem) {
		result = errors.Join(result, router.RegisterFunc(path, Limit(o.limiter, handler), true, spec))
	}
	register(BackendListHandler(mgr))
	register(ObjectHandler(mgr))

	// The health check does not wait for a request permit
	path, handler, spec := HealthHandler(mgr)
	result = errors.Join(result, router.RegisterFunc(path, handler, true, spec))
	return result
}

// Limit wraps a handler so it holds a permit from l while serving. A nil
// limiter returns the handler unchanged.
func Limit(l *limiter.Limiter, handler http.HandlerFunc) http.HandlerFunc {
	if l == nil {
		return handler
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if err := l.Acquire(r.Context()); err != nil {
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusServiceUnavailable), err.Error())
			return
		}
		defer l.Release()
		handler(w, r)
	}
}
