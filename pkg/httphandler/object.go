package httphandler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	// Packages
	mimetype "github.com/gabriel-vasile/mimetype"
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	openapi "github.com/mutablelogic/go-server/pkg/openapi/schema"
	types "github.com/mutablelogic/go-server/pkg/types"
	manager "github.com/mutablelogic/go-uploader/pkg/manager"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// sniffLen is the number of leading bytes used to detect a content type
const sniffLen = 3072

///////////////////////////////////////////////////////////////////////////////
// HANDLER FUNCTIONS

// Path: /{name}/{path...}
// GET downloads an object, HEAD returns metadata, PUT streams the request
// body into the backend as a multipart upload, DELETE removes.
func ObjectHandler(mgr *manager.Manager) (string, http.HandlerFunc, *openapi.PathItem) {
	return "/{name}/{path...}", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				_ = objectGet(w, r, mgr)
			case http.MethodHead:
				_ = objectHead(w, r, mgr)
			case http.MethodPut:
				_ = objectPut(w, r, mgr)
			case http.MethodDelete:
				_ = objectDelete(w, r, mgr)
			default:
				_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
			}
		}, types.Ptr(openapi.PathItem{
			Get: &openapi.Operation{
				Description: "Download an object",
			},
			Head: &openapi.Operation{
				Description: "Get object metadata without body",
			},
			Put: &openapi.Operation{
				Description: "Upload an object. The body is streamed to the backend in parts; send Accept: text/event-stream to receive progress events",
			},
			Delete: &openapi.Operation{
				Description: "Delete an object",
			},
		})
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func objectPut(w http.ResponseWriter, r *http.Request, mgr *manager.Manager) error {
	key := objectKey(r)
	if key == "" {
		return httpresponse.Error(w, httpresponse.ErrBadRequest.With("missing object path"))
	}
	req := schema.UploadRequest{
		Key:         key,
		ContentType: r.Header.Get(types.ContentTypeHeader),
		Body:        r.Body,
	}

	// Content-Length is the declared size
	if r.ContentLength >= 0 {
		req.Size = types.Ptr(uint64(r.ContentLength))
	}

	// Detect the content type from the leading bytes when not provided
	if req.ContentType == "" || req.ContentType == types.ContentTypeBinary {
		buf := make([]byte, sniffLen)
		n, err := io.ReadFull(r.Body, buf)
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return httpresponse.Error(w, httpresponse.ErrBadRequest.With("error reading request body"))
		}
		req.ContentType = resolveContentType(req.ContentType, mimetype.Detect(buf[:n]).String(), filepath.Ext(key))
		req.Body = io.MultiReader(bytes.NewReader(buf[:n]), r.Body)
	}

	// Branch to the streaming path if the client accepts text/event-stream
	if accept, _ := types.AcceptContentType(r); accept == types.ContentTypeTextStream {
		return objectPutSSE(w, r, mgr, req)
	}

	result, err := mgr.Upload(r.Context(), r.PathValue("name"), req)
	if err != nil {
		return httpresponse.Error(w, httpErr(err))
	}
	return httpresponse.JSON(w, http.StatusCreated, httprequest.Indent(r), result)
}

// objectPutSSE uploads the object and streams progress to the client as
// Server-Sent Events:
//
//	progress - every MiB received; payload: schema.UploadProgress
//	complete - after the object is committed; payload: schema.UploadResult
//	error    - on failure, after the upload is aborted; payload: schema.UploadError
func objectPutSSE(w http.ResponseWriter, r *http.Request, mgr *manager.Manager, req schema.UploadRequest) error {
	// Open the stream, which commits 200 OK
	stream := httpresponse.NewTextStream(w)

	var total uint64
	if req.Size != nil {
		total = *req.Size
	}
	req.Body = newProgressReader(req.Body, req.Key, total, func(progress schema.UploadProgress) {
		stream.Write(schema.UploadProgressEvent, progress)
	})

	result, err := mgr.Upload(r.Context(), r.PathValue("name"), req)
	if err != nil {
		status, message := errStatus(err)
		if status == 0 {
			status, message = http.StatusInternalServerError, err.Error()
		}
		stream.Write(schema.UploadErrorEvent, schema.UploadError{
			Key:     req.Key,
			Status:  status,
			Message: message,
		})
		return stream.Close()
	}

	stream.Write(schema.UploadCompleteEvent, result)
	return stream.Close()
}

func objectDelete(w http.ResponseWriter, r *http.Request, mgr *manager.Manager) error {
	obj, err := mgr.DeleteObject(r.Context(), r.PathValue("name"), objectKey(r))
	if err != nil {
		return httpresponse.Error(w, httpErr(err))
	}
	return httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), schema.DeleteObjectResponse{Object: *obj})
}

func objectHead(w http.ResponseWriter, r *http.Request, mgr *manager.Manager) error {
	obj, err := mgr.GetObject(r.Context(), r.PathValue("name"), objectKey(r))
	if err != nil {
		return httpresponse.Error(w, httpErr(err))
	}

	contentType := resolveContentType(obj.ContentType, "", filepath.Ext(obj.Key))
	writeObjectHeaders(w, obj, contentType)
	if checkPreconditions(w, r, obj) {
		return nil
	}
	w.WriteHeader(http.StatusOK)
	return nil
}

func objectGet(w http.ResponseWriter, r *http.Request, mgr *manager.Manager) error {
	reader, obj, err := mgr.ReadObject(r.Context(), r.PathValue("name"), objectKey(r))
	if err != nil {
		return httpresponse.Error(w, httpErr(err))
	}
	defer reader.Close()

	buffer := make([]byte, sniffLen)
	n, err := io.ReadFull(reader, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return httpresponse.Error(w, err)
	}

	sniffed := mimetype.Detect(buffer[:n]).String()
	contentType := resolveContentType(obj.ContentType, sniffed, filepath.Ext(obj.Key))
	writeObjectHeaders(w, obj, contentType)
	if checkPreconditions(w, r, obj) {
		return nil
	}
	w.WriteHeader(http.StatusOK)

	if n > 0 {
		if _, err := w.Write(buffer[:n]); err != nil {
			return err
		}
	}
	if _, err := io.Copy(w, reader); err != nil {
		return err
	}

	return nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS - HELPER FUNCTIONS

// objectKey returns the object key from the request path, without a
// leading slash
func objectKey(r *http.Request) string {
	return strings.TrimPrefix(types.NormalisePath(r.PathValue("path")), "/")
}

// resolveContentType returns the best content-type for an object, preferring
// stored metadata over sniffed body content over file-extension over binary fallback.
func resolveContentType(stored, sniffed, ext string) string {
	if stored != "" && stored != types.ContentTypeBinary {
		return stored
	}
	if sniffed != "" && sniffed != types.ContentTypeBinary {
		return sniffed
	}
	if extType := mime.TypeByExtension(ext); extType != "" {
		return extType
	}
	if stored != "" {
		return stored
	}
	return types.ContentTypeBinary
}

// writeObjectHeaders sets Content-Type, Content-Disposition, Content-Length,
// ETag, Last-Modified and X-Object-Meta response headers from the object metadata.
func writeObjectHeaders(w http.ResponseWriter, obj *schema.Object, contentType string) {
	w.Header().Set(types.ContentTypeHeader, contentType)
	if filename := filepath.Base(obj.Key); filename != "" && filename != "." && filename != "/" {
		if cd := mime.FormatMediaType("inline", map[string]string{"filename": filename}); cd != "" {
			w.Header().Set(types.ContentDispositonHeader, cd)
		}
	}
	if obj.ETag != "" {
		w.Header().Set("ETag", obj.ETag)
	}
	if obj.Size >= 0 {
		w.Header().Set(types.ContentLengthHeader, strconv.FormatInt(obj.Size, 10))
	}
	if !obj.ModTime.IsZero() {
		w.Header().Set(types.ContentModifiedHeader, obj.ModTime.UTC().Format(http.TimeFormat))
	}
	if metaJSON, err := json.Marshal(obj); err == nil {
		w.Header().Set(schema.ObjectMetaHeader, string(metaJSON))
	}
}

// checkPreconditions evaluates RFC 7232 conditional request headers in the
// prescribed order. It writes the appropriate status (304 or 412), returns
// true if the caller should stop processing, and false if the request
// should proceed normally.
func checkPreconditions(w http.ResponseWriter, r *http.Request, obj *schema.Object) bool {
	etag := obj.ETag
	modtime := obj.ModTime

	// If-Match, or If-Unmodified-Since when absent
	if im := r.Header.Get("If-Match"); im != "" {
		if !matchETags(im, etag, true) {
			w.WriteHeader(http.StatusPreconditionFailed)
			return true
		}
	} else if ius := r.Header.Get("If-Unmodified-Since"); ius != "" {
		if t, err := http.ParseTime(ius); err == nil && modtime.After(t) {
			w.WriteHeader(http.StatusPreconditionFailed)
			return true
		}
	}

	// If-None-Match, or If-Modified-Since when absent
	if inm := r.Header.Get("If-None-Match"); inm != "" {
		if matchETags(inm, etag, false) {
			w.WriteHeader(http.StatusNotModified)
			return true
		}
	} else if ims := r.Header.Get("If-Modified-Since"); ims != "" {
		if t, err := http.ParseTime(ims); err == nil && !modtime.After(t) {
			w.WriteHeader(http.StatusNotModified)
			return true
		}
	}

	return false
}

// matchETags reports whether the header value ("*" or a comma-separated list
// of quoted ETags) matches etag. Weak tags never satisfy a strong comparison.
func matchETags(header, etag string, strong bool) bool {
	if strings.TrimSpace(header) == "*" {
		return etag != ""
	}
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if strong && strings.HasPrefix(part, "W/") {
			continue
		}
		if strings.Trim(strings.TrimPrefix(part, "W/"), `"`) == strings.Trim(strings.TrimPrefix(etag, "W/"), `"`) {
			return true
		}
	}
	return false
}
