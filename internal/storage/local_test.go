package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestLocalDiskRoundTrip(t *testing.T) {
	store := NewStorage(NewLocalDisk(t.TempDir()))
	ctx := context.Background()
	if err := store.EnsureBucket(ctx); err != nil {
		t.Fatalf("EnsureBucket: %v", err)
	}

	if err := store.Put(ctx, "tickets/a.txt", strings.NewReader("hello"), 5, "text/plain"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	rc, err := store.Get(ctx, "tickets/a.txt")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "hello" {
		t.Fatalf("body = %q, want hello", body)
	}

	if err := store.Delete(ctx, "tickets/a.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "tickets/a.txt"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("Get after delete err = %v, want ErrObjectNotFound", err)
	}
}

func TestLocalDiskRejectsTraversal(t *testing.T) {
	disk := NewLocalDisk(t.TempDir())
	if err := disk.Put(context.Background(), "../escape.txt", strings.NewReader("x"), 1, ""); err == nil {
		t.Fatalf("Put with traversal key succeeded")
	}
	if _, err := disk.Get(context.Background(), "../../etc/passwd"); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("Get traversal err = %v, want ErrObjectNotFound", err)
	}
}
