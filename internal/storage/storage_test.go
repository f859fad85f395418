package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileKVRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv, err := NewFileKV(filepath.Join(t.TempDir(), "state"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if _, err := kv.Load(ctx, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := kv.Save(ctx, "user-1", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := kv.Save(ctx, "user-1", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	data, err := kv.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != `{"a":2}` {
		t.Fatalf("unexpected data: %s", data)
	}
}

func TestFileKVLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := kv.Save(context.Background(), "u", []byte("x")); err != nil {
		t.Fatalf("save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "u.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected only u.json, got %v", names)
	}
}

func TestFileKVKeepsKeysInsideDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := kv.Save(context.Background(), "../escape", []byte("x")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "escape.json")); err == nil {
		t.Fatalf("expected key to stay inside storage directory")
	}

	if err := kv.Save(context.Background(), "  ", []byte("x")); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestFileKVDistinctKeysDoNotCollide(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv, err := NewFileKV(t.TempDir())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	keys := []string{"preferences:a/b", "preferences:a_b", "preferences:a%2Fb", `preferences:a\b`}
	for _, key := range keys {
		if err := kv.Save(ctx, key, []byte(key)); err != nil {
			t.Fatalf("save %q: %v", key, err)
		}
	}

	for _, key := range keys {
		data, err := kv.Load(ctx, key)
		if err != nil {
			t.Fatalf("load %q: %v", key, err)
		}
		if string(data) != key {
			t.Fatalf("key %q: expected its own value, got %q", key, data)
		}
	}
}

func TestNewFileKVRequiresDirectory(t *testing.T) {
	t.Parallel()

	if _, err := NewFileKV(""); err == nil {
		t.Fatal("expected error for empty directory")
	}
}

func TestRedisKVRoundTrip(t *testing.T) {
	url := os.Getenv("JOBMATCHER_TEST_REDIS_URL")
	if url == "" {
		t.Skip("JOBMATCHER_TEST_REDIS_URL is not set")
	}

	ctx := context.Background()
	client, err := ConnectRedis(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	kv := NewRedisKV(client, "jobmatcher-test:")
	defer client.Del(ctx, "jobmatcher-test:user-1")

	if _, err := kv.Load(ctx, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := kv.Save(ctx, "user-1", []byte("payload")); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := kv.Load(ctx, "user-1")
	if err != nil || string(data) != "payload" {
		t.Fatalf("unexpected load result %q, %v", data, err)
	}
}
