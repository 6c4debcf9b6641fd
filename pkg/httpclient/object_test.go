package httpclient_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"strings"
	"testing"
)

func TestListBackends(t *testing.T) {
	c, cleanup := newTestServer(t, "mem://testbucket")
	defer cleanup()

	resp, err := c.ListBackends(context.Background())
	if err != nil {
		t.Fatalf("ListBackends: %v", err)
	}
	if len(resp.Body) != 1 || resp.Body[0].Name != "testbucket" {
		t.Fatalf("expected the testbucket backend, got %+v", resp.Body)
	}
}

func TestPutObject_roundTrip(t *testing.T) {
	c, cleanup := newTestServer(t, "mem://testbucket")
	defer cleanup()
	ctx := context.Background()

	data := make([]byte, 10*1024+3)
	if _, err := rand.Read(data); err != nil {
		t.Fatal(err)
	}

	result, err := c.PutObject(ctx, "testbucket", "dir/random.bin", bytes.NewReader(data), "application/x-test")
	if err != nil {
		t.Fatalf("PutObject: %v", err)
	}
	if result.Key != "dir/random.bin" || result.Bytes != uint64(len(data)) || result.Parts != 11 {
		t.Errorf("unexpected result %+v", result)
	}

	obj, err := c.GetObject(ctx, "testbucket", "dir/random.bin")
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	if obj.Size != int64(len(data)) || obj.ContentType != "application/x-test" {
		t.Errorf("unexpected object %+v", obj)
	}

	var buf bytes.Buffer
	obj, err = c.ReadObject(ctx, "testbucket", "dir/random.bin", func(b []byte) error {
		_, err := buf.Write(b)
		return err
	})
	if err != nil {
		t.Fatalf("ReadObject: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), data) {
		t.Errorf("read %d bytes which differ from the %d written", buf.Len(), len(data))
	}
	if obj.Key != "dir/random.bin" {
		t.Errorf("unexpected key %q", obj.Key)
	}

	deleted, err := c.DeleteObject(ctx, "testbucket", "dir/random.bin")
	if err != nil {
		t.Fatalf("DeleteObject: %v", err)
	}
	if deleted.Key != "dir/random.bin" {
		t.Errorf("unexpected deleted key %q", deleted.Key)
	}
	if _, err := c.GetObject(ctx, "testbucket", "dir/random.bin"); err == nil {
		t.Error("expected an error reading a deleted object")
	}
}

func TestPutObject_detectType(t *testing.T) {
	c, cleanup := newTestServer(t, "mem://testbucket")
	defer cleanup()
	ctx := context.Background()

	if _, err := c.PutObject(ctx, "testbucket", "page", strings.NewReader("<html><body>hello</body></html>"), ""); err != nil {
		t.Fatalf("PutObject: %v", err)
	}
	obj, err := c.GetObject(ctx, "testbucket", "page")
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	if !strings.HasPrefix(obj.ContentType, "text/html") {
		t.Errorf("expected a text/html content type, got %q", obj.ContentType)
	}
}

func TestObject_notFound(t *testing.T) {
	c, cleanup := newTestServer(t, "mem://testbucket")
	defer cleanup()
	ctx := context.Background()

	if _, err := c.GetObject(ctx, "testbucket", "missing"); err == nil {
		t.Error("GetObject: expected an error")
	}
	if _, err := c.ReadObject(ctx, "testbucket", "missing", nil); err == nil {
		t.Error("ReadObject: expected an error")
	}
	if _, err := c.DeleteObject(ctx, "testbucket", "missing"); err == nil {
		t.Error("DeleteObject: expected an error")
	}
	if _, err := c.PutObject(ctx, "nobucket", "key", strings.NewReader("x"), "text/plain"); err == nil {
		t.Error("PutObject: expected an error for an unknown backend")
	}
}
