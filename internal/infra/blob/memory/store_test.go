package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"elnimport/internal/blob/core"
)

func TestStoreMissingKeys(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Head(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found head, got %v", err)
	}
	if _, _, err := store.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found get, got %v", err)
	}
	if ok, err := store.Delete(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected delete false, got %v %v", ok, err)
	}
}

func TestStorePutIsCreateOnly(t *testing.T) {
	store := New()
	ctx := context.Background()
	info, err := store.Put(ctx, "k/a", bytes.NewReader([]byte("v")), core.PutOptions{ContentType: "text/plain", Metadata: map[string]string{"a": "1"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 1 || info.ETag == "" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := store.Put(ctx, "k/a", bytes.NewReader([]byte("v2")), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected exists error, got %v", err)
	}
	_, rc, err := store.Get(ctx, "k/a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != "v" {
		t.Fatalf("expected original payload, got %q", b)
	}
	if _, err := store.Put(ctx, "other", bytes.NewReader(nil), core.PutOptions{}); err != nil {
		t.Fatalf("put other: %v", err)
	}
	list, err := store.List(ctx, "k/")
	if err != nil || len(list) != 1 || list[0].Key != "k/a" {
		t.Fatalf("unexpected list %+v %v", list, err)
	}
	if store.Len() != 2 {
		t.Fatalf("expected two blobs, got %d", store.Len())
	}
	if store.Driver() != core.DriverMemory {
		t.Fatalf("unexpected driver %s", store.Driver())
	}
}
