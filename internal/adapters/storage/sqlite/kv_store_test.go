package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestStore_Lifecycle(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "meds.db"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "gary_medications"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "gary_medications", `{"v":1}`); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if err := s.Set(ctx, "gary_medications", `{"v":2}`); err != nil {
		t.Fatalf("Set (upsert) error: %v", err)
	}
	v, ok, err := s.Get(ctx, "gary_medications")
	if err != nil || !ok || v != `{"v":2}` {
		t.Fatalf("unexpected Get %q %v %v", v, ok, err)
	}

	if err := s.Remove(ctx, "gary_medications"); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "gary_medications"); ok {
		t.Fatalf("expected key removed")
	}
}

func TestStore_CompareAndSwap(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "meds.db"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	if ok, err := s.CompareAndSwap(ctx, "k", "", "a"); err != nil || !ok {
		t.Fatalf("create via swap failed: %v %v", ok, err)
	}
	if ok, _ := s.CompareAndSwap(ctx, "k", "", "b"); ok {
		t.Fatalf("create must fail when key exists")
	}
	if ok, _ := s.CompareAndSwap(ctx, "k", "stale", "b"); ok {
		t.Fatalf("swap with stale value must fail")
	}
	if ok, err := s.CompareAndSwap(ctx, "k", "a", "b"); err != nil || !ok {
		t.Fatalf("swap with current value failed: %v %v", ok, err)
	}
	if v, _, _ := s.Get(ctx, "k"); v != "b" {
		t.Fatalf("expected b, got %q", v)
	}

	// el archivo persiste entre aperturas
	path := filepath.Join(t.TempDir(), "persist.db")
	s1, _ := Open(path)
	_ = s1.Set(ctx, "x", "1")
	_ = s1.Close()
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer s2.Close()
	if v, ok, _ := s2.Get(ctx, "x"); !ok || v != "1" {
		t.Fatalf("value must survive reopen, got %q %v", v, ok)
	}
}
