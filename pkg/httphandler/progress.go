package httphandler

import (
	"io"

	// Packages
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// CONSTANTS

// progressChunk is the number of bytes received between successive
// progress events during a streamed upload.
const progressChunk uint64 = 1024 * 1024 // 1 MiB

///////////////////////////////////////////////////////////////////////////////
// TYPES

// progressReader wraps a request body and calls emit after every
// progressChunk bytes have been read. It does not emit on EOF; the caller
// emits a complete event once the upload is committed.
type progressReader struct {
	r       io.Reader
	key     string
	written uint64
	emitted uint64
	total   uint64 // declared size, 0 if unknown
	emit    func(schema.UploadProgress)
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func newProgressReader(r io.Reader, key string, total uint64, emit func(schema.UploadProgress)) *progressReader {
	return &progressReader{r: r, key: key, total: total, emit: emit}
}

///////////////////////////////////////////////////////////////////////////////
// io.Reader

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.written += uint64(n)
		for p.written-p.emitted >= progressChunk {
			p.emitted += progressChunk
			p.emit(schema.UploadProgress{
				Key:     p.key,
				Written: p.emitted,
				Total:   p.total,
			})
		}
	}
	return n, err
}
