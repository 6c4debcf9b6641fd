package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	// Packages
	backoff "github.com/cenkalti/backoff/v4"
	units "github.com/docker/go-units"
	mimetype "github.com/gabriel-vasile/mimetype"
	uploader "github.com/mutablelogic/go-uploader"
	multipart "github.com/mutablelogic/go-uploader/pkg/multipart"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type UploadCommands struct {
	Upload UploadCommand `cmd:"" group:"UPLOAD" help:"Upload a file directly to a backend"`
}

type UploadCommand struct {
	Backend string `arg:"" name:"backend" help:"Backend URL (e.g. s3://bucket, file://name/dir)"`
	Path    string `arg:"" name:"path" type:"existingfile" help:"Local file to upload"`
	Key     string `name:"key" short:"k" help:"Object key (defaults to the file name)"`
	Type    string `name:"type" help:"Content type (detected from the file when not set)"`
	Verify  bool   `name:"verify" help:"Compare stored parts before committing"`
	Retries uint64 `name:"retries" default:"3" help:"Times to restart a failed upload"`
}

// progress prints upload progress at most once a second
type progress struct {
	sync.Mutex
	w     io.Writer
	total uint64
	last  time.Time
}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *UploadCommand) Run(ctx *Globals) error {
	// Open the backend with the configured store options
	cfg := ctx.Config
	cfg.Backends = []string{cmd.Backend}
	stores, err := cfg.OpenStores(ctx.ctx, nil)
	if err != nil {
		return err
	}
	defer closeStores(stores)

	// Open the file
	f, err := os.Open(cmd.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	size := uint64(info.Size())

	// Set the key and content type
	key := cmd.Key
	if key == "" {
		key = filepath.Base(cmd.Path)
	}
	contentType := cmd.Type
	if contentType == "" {
		if mt, err := mimetype.DetectFile(cmd.Path); err == nil {
			contentType = mt.String()
		}
	}

	// Create the uploader
	opts, err := cfg.UploaderOpts()
	if err != nil {
		return err
	}
	p := &progress{w: os.Stderr, total: size}
	opts = append(opts, multipart.WithLogger(ctx.logger), multipart.WithProgress(p.report))
	if cmd.Verify {
		opts = append(opts, multipart.WithVerifyParts())
	}
	u, err := multipart.New(stores[0], opts...)
	if err != nil {
		return err
	}

	// Upload from the start of the file on each attempt
	var result *schema.UploadResult
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), cmd.Retries), ctx.ctx)
	if err := backoff.RetryNotify(func() error {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return backoff.Permanent(err)
		}
		response, err := u.Upload(ctx.ctx, schema.UploadRequest{
			Key:         key,
			ContentType: contentType,
			Size:        &size,
			Body:        f,
		})
		if err != nil {
			if !retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = response
		return nil
	}, b, func(err error, d time.Duration) {
		ctx.logger.Warn("upload failed, retrying", "key", key, "after", d, "error", err)
	}); err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr)
	return prettyJSON(result)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// retryable returns true for store failures which may succeed on a new
// session. Bad input, read errors and cancellation are final.
func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, uploader.ErrBadParameter), errors.Is(err, multipart.ErrInvalidConfig):
		return false
	case errors.Is(err, multipart.ErrStreamRead):
		return false
	}
	return errors.Is(err, multipart.ErrSessionCreate) || errors.Is(err, multipart.ErrPartUpload) || errors.Is(err, multipart.ErrCommit)
}

func (p *progress) report(event schema.UploadProgress) {
	p.Lock()
	defer p.Unlock()
	if time.Since(p.last) < time.Second && event.Written < p.total {
		return
	}
	p.last = time.Now()
	if p.total > 0 {
		fmt.Fprintf(p.w, "Uploaded %s of %s (%.1f%%)\r", units.HumanSize(float64(event.Written)), units.HumanSize(float64(p.total)), float64(event.Written)/float64(p.total)*100)
	} else {
		fmt.Fprintf(p.w, "Uploaded %s\r", units.HumanSize(float64(event.Written)))
	}
}
