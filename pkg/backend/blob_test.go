package backend

import (
	"bytes"
	"context"
	"io"
	"testing"

	// Packages
	uploader "github.com/mutablelogic/go-uploader"
	schema "github.com/mutablelogic/go-uploader/pkg/schema"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

func Test_Blob_New(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"mem", "mem://media", false},
		{"mem with prefix", "mem://media/data", false},
		{"file", "file://media" + t.TempDir() + "?create_dir=true", false},
		{"file relative", "file://media", true},
		{"bad name", "mem://-bad-", true},
		{"bad scheme", "ftp://media", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBlobBackend(context.Background(), tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, uploader.ErrBadParameter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "media", b.Name())
			assert.NoError(t, b.Close())
		})
	}
}

func Test_Blob_StorageKey(t *testing.T) {
	tests := []struct {
		url  string
		key  string
		want string
	}{
		{"mem://media", "a/b.txt", "a/b.txt"},
		{"mem://media/data", "a/b.txt", "data/a/b.txt"},
		{"mem://media/data/sub/", "b.txt", "data/sub/b.txt"},
		{"file://media" + t.TempDir() + "?create_dir=true", "a/b.txt", "a/b.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			b, err := NewBlobBackend(context.Background(), tt.url)
			require.NoError(t, err)
			defer b.Close()
			assert.Equal(t, tt.want, b.storageKey(tt.key))
		})
	}
}

func Test_Blob_URL(t *testing.T) {
	b, err := NewBlobBackend(context.Background(), "mem://media/data")
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, "mem://media/data/a/b.txt", b.URL("a/b.txt").String())
}

func Test_Blob_Objects(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	b, err := NewBlobBackend(ctx, "mem://media")
	require.NoError(err)
	defer b.Close()

	t.Run("missing", func(t *testing.T) {
		_, err := b.GetObject(ctx, "missing.txt")
		assert.ErrorIs(err, uploader.ErrNotFound)
		_, _, err = b.ReadObject(ctx, "missing.txt")
		assert.ErrorIs(err, uploader.ErrNotFound)
		_, err = b.DeleteObject(ctx, "missing.txt")
		assert.ErrorIs(err, uploader.ErrNotFound)
	})

	t.Run("reserved", func(t *testing.T) {
		_, err := b.GetObject(ctx, schema.UploadPrefix+"x/info")
		assert.ErrorIs(err, uploader.ErrBadParameter)
	})

	t.Run("write read delete", func(t *testing.T) {
		writeObject(t, b, "hello.txt", "text/plain", []byte("hello, world"))

		obj, err := b.GetObject(ctx, "hello.txt")
		require.NoError(err)
		assert.Equal("media", obj.Name)
		assert.Equal("hello.txt", obj.Key)
		assert.Equal(int64(12), obj.Size)
		assert.Equal("text/plain", obj.ContentType)

		r, obj, err := b.ReadObject(ctx, "hello.txt")
		require.NoError(err)
		data, err := io.ReadAll(r)
		require.NoError(err)
		require.NoError(r.Close())
		assert.Equal("hello, world", string(data))
		assert.Equal(int64(12), obj.Size)

		obj, err = b.DeleteObject(ctx, "hello.txt")
		require.NoError(err)
		assert.Equal("hello.txt", obj.Key)

		_, err = b.GetObject(ctx, "hello.txt")
		assert.ErrorIs(err, uploader.ErrNotFound)
	})
}

// writeObject stores data under key as a single part upload
func writeObject(t *testing.T, b *Blob, key, contentType string, data []byte) {
	t.Helper()
	ctx := context.Background()
	id, err := b.CreateMultipart(ctx, key, contentType)
	require.NoError(t, err)
	etag, err := b.UploadPart(ctx, id, key, 1, data)
	require.NoError(t, err)
	require.NoError(t, b.CompleteMultipart(ctx, id, key, []schema.CompletedPart{{Part: 1, ETag: etag}}))
}

func readObject(t *testing.T, b *Blob, key string) []byte {
	t.Helper()
	r, _, err := b.ReadObject(context.Background(), key)
	require.NoError(t, err)
	defer r.Close()
	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.Bytes()
}
