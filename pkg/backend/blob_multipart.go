package backend

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	// Packages
	uuid "github.com/google/uuid"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	uploader "github.com/mutablelogic/go-uploader"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
	blob "gocloud.dev/blob"
	gcerrors "gocloud.dev/gcerrors"
)

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	infoName   = "info"
	partPrefix = "part-"

	// Metadata keys are lowercased by the Go CDK
	metaKey  = "key"
	metaETag = "etag"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// CreateMultipart records a new upload and returns its identifier
func (b *Blob) CreateMultipart(ctx context.Context, key, contentType string) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	id := uuid.New().String()
	if err := b.bucket.WriteAll(ctx, b.uploadKey(id, infoName), nil, &blob.WriterOptions{
		ContentType: contentType,
		Metadata:    map[string]string{metaKey: key},
	}); err != nil {
		return "", blobErr(err, key)
	}
	return id, nil
}

// UploadPart writes one part as its own blob and returns its ETag, the
// quoted hex MD5 of the data
func (b *Blob) UploadPart(ctx context.Context, uploadID, key string, part int32, data []byte) (string, error) {
	if part < 1 || part > schema.MaxParts {
		return "", fmt.Errorf("%w: part number %d", uploader.ErrBadParameter, part)
	}
	if _, err := b.info(ctx, uploadID, key); err != nil {
		return "", err
	}
	sum := md5.Sum(data)
	etag := strconv.Quote(hex.EncodeToString(sum[:]))
	if err := b.bucket.WriteAll(ctx, b.uploadKey(uploadID, partName(part)), data, &blob.WriterOptions{
		ContentType: "application/octet-stream",
		ContentMD5:  sum[:],
		Metadata:    map[string]string{metaETag: etag},
	}); err != nil {
		return "", blobErr(err, key)
	}
	return etag, nil
}

// CompleteMultipart concatenates the parts into the object and removes the
// upload
func (b *Blob) CompleteMultipart(ctx context.Context, uploadID, key string, parts []schema.CompletedPart) error {
	info, err := b.info(ctx, uploadID, key)
	if err != nil {
		return err
	}
	if len(parts) == 0 {
		return httpresponse.ErrBadRequest.With("no parts to complete")
	}

	// Check every part exists with the expected tag before writing anything
	for _, part := range parts {
		attrs, err := b.bucket.Attributes(ctx, b.uploadKey(uploadID, partName(part.Part)))
		if err != nil {
			return blobErr(err, key)
		}
		if etag := attrs.Metadata[metaETag]; etag != part.ETag {
			return httpresponse.ErrConflict.Withf("part %d: etag %s does not match %s", part.Part, part.ETag, etag)
		}
	}

	// Write the object
	w, err := b.bucket.NewWriter(ctx, b.storageKey(key), &blob.WriterOptions{
		ContentType: info.ContentType,
	})
	if err != nil {
		return blobErr(err, key)
	}
	for _, part := range parts {
		if err := b.copyPart(ctx, w, uploadID, part.Part); err != nil {
			return errors.Join(blobErr(err, key), w.Close())
		}
	}
	if err := w.Close(); err != nil {
		return blobErr(err, key)
	}

	// Remove the upload
	return b.removeUpload(ctx, uploadID, key)
}

// AbortMultipart removes the upload and any parts written so far
func (b *Blob) AbortMultipart(ctx context.Context, uploadID, key string) error {
	if _, err := b.info(ctx, uploadID, key); err != nil {
		return err
	}
	return b.removeUpload(ctx, uploadID, key)
}

// ListParts returns the parts written so far, ordered by part number
func (b *Blob) ListParts(ctx context.Context, uploadID, key string) ([]schema.CompletedPart, error) {
	if _, err := b.info(ctx, uploadID, key); err != nil {
		return nil, err
	}

	var result []schema.CompletedPart
	prefix := b.uploadKey(uploadID, partPrefix)
	iter := b.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, blobErr(err, key)
		}
		part, err := strconv.ParseInt(strings.TrimPrefix(obj.Key, prefix), 10, 32)
		if err != nil {
			continue
		}
		attrs, err := b.bucket.Attributes(ctx, obj.Key)
		if err != nil {
			return nil, blobErr(err, key)
		}
		result = append(result, schema.CompletedPart{
			Part: int32(part),
			ETag: attrs.Metadata[metaETag],
			Size: attrs.Size,
		})
	}

	// Part names are zero-padded so listing order is part order
	return result, nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// uploadKey returns the blob key for a named entry of an upload
func (b *Blob) uploadKey(uploadID, name string) string {
	return b.storageKey(schema.UploadPrefix + uploadID + "/" + name)
}

// info returns the attributes of the upload record, checking it belongs to
// the key
func (b *Blob) info(ctx context.Context, uploadID, key string) (*blob.Attributes, error) {
	if uploadID == "" || strings.Contains(uploadID, "/") {
		return nil, fmt.Errorf("%w: upload %q", uploader.ErrBadParameter, uploadID)
	}
	attrs, err := b.bucket.Attributes(ctx, b.uploadKey(uploadID, infoName))
	if err != nil {
		return nil, blobErr(err, uploadID)
	}
	if attrs.Metadata[metaKey] != key {
		return nil, fmt.Errorf("%w: upload %q for key %q", uploader.ErrNotFound, uploadID, key)
	}
	return attrs, nil
}

func (b *Blob) copyPart(ctx context.Context, w io.Writer, uploadID string, part int32) error {
	r, err := b.bucket.NewReader(ctx, b.uploadKey(uploadID, partName(part)), nil)
	if err != nil {
		return err
	}
	defer r.Close()
	_, err = io.Copy(w, r)
	return err
}

// removeUpload deletes every blob stored under the upload
func (b *Blob) removeUpload(ctx context.Context, uploadID, key string) error {
	var result error
	iter := b.bucket.List(&blob.ListOptions{Prefix: b.uploadKey(uploadID, "")})
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return errors.Join(result, blobErr(err, key))
		}
		if obj.IsDir {
			continue
		}
		if err := b.bucket.Delete(ctx, obj.Key); err != nil && gcerrors.Code(err) != gcerrors.NotFound {
			result = errors.Join(result, blobErr(err, key))
		}
	}
	return result
}

func partName(part int32) string {
	return fmt.Sprintf("%s%05d", partPrefix, part)
}

// checkKey rejects keys which cannot name an object
func checkKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return fmt.Errorf("%w: invalid key %q", uploader.ErrBadParameter, key)
	}
	if strings.HasPrefix(key, schema.UploadPrefix) {
		return fmt.Errorf("%w: key %q uses a reserved prefix", uploader.ErrBadParameter, key)
	}
	return nil
}
