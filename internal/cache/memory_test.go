package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_PutGet(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if err := s.Put(ctx, "k1", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	payload, ok, err := s.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !ok {
		t.Fatal("expected a hit")
	}
	if string(payload) != "payload" {
		t.Errorf("expected payload, got %q", payload)
	}
}

func TestMemoryStore_MissingKey(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	_, ok, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if ok {
		t.Error("expected a miss for a missing key")
	}
}

func TestMemoryStore_Overwrite(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if err := s.Put(ctx, "k1", []byte("old"), time.Minute); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := s.Put(ctx, "k1", []byte("new"), time.Minute); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	payload, ok, _ := s.Get(ctx, "k1")
	if !ok || string(payload) != "new" {
		t.Errorf("expected overwritten value, got %q (hit=%v)", payload, ok)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if err := s.Put(ctx, "k1", []byte("short-lived"), 10*time.Millisecond); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok, _ := s.Get(ctx, "k1"); ok {
		t.Error("expected expired entry to read as a miss")
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if err := s.Put(ctx, "k1", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := s.Delete(ctx, "k1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k1"); ok {
		t.Error("expected a miss after delete")
	}

	// Deleting a missing key is fine.
	if err := s.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("delete of missing key returned error: %v", err)
	}
}

func TestMemoryStore_CallerCannotMutateCachedValue(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	if err := s.Put(ctx, "k1", []byte("stable"), time.Minute); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	first, _, _ := s.Get(ctx, "k1")
	first[0] = 'X'

	second, _, _ := s.Get(ctx, "k1")
	if string(second) != "stable" {
		t.Errorf("mutating a returned payload changed the cached value: %q", second)
	}
}
