package storetest

import "time"

///////////////////////////////////////////////////////////////////////////////
// TYPES

type opt struct {
	name         string
	failCreate   error
	failComplete error
	failAbort    error
	failPart     map[int32]error
	delay        func(int32) time.Duration
}

// Opt configures the store
type Opt func(*opt)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// WithName sets the store name, which is also the bucket name
func WithName(name string) Opt {
	return func(o *opt) {
		o.name = name
	}
}

// WithFailCreate makes CreateMultipart return err
func WithFailCreate(err error) Opt {
	return func(o *opt) {
		o.failCreate = err
	}
}

// WithFailPart makes UploadPart return err for part n, after any delay
func WithFailPart(n int32, err error) Opt {
	return func(o *opt) {
		if o.failPart == nil {
			o.failPart = make(map[int32]error)
		}
		o.failPart[n] = err
	}
}

// WithFailComplete makes CompleteMultipart return err
func WithFailComplete(err error) Opt {
	return func(o *opt) {
		o.failComplete = err
	}
}

// WithFailAbort makes AbortMultipart return err
func WithFailAbort(err error) Opt {
	return func(o *opt) {
		o.failAbort = err
	}
}

// WithDelay holds each part in flight for the duration returned by fn
func WithDelay(fn func(part int32) time.Duration) Opt {
	return func(o *opt) {
		o.delay = fn
	}
}
