package memory

import (
	"context"
	"testing"
)

func TestKV_GetSetRemove(t *testing.T) {
	s := NewKV()
	ctx := context.Background()

	if _, ok, _ := s.Get(ctx, "a"); ok {
		t.Fatalf("expected missing key")
	}
	_ = s.Set(ctx, "a", "1")
	if v, ok, _ := s.Get(ctx, "a"); !ok || v != "1" {
		t.Fatalf("unexpected value %q %v", v, ok)
	}
	_ = s.Remove(ctx, "a")
	if len(s.Keys()) != 0 {
		t.Fatalf("expected empty store, got %v", s.Keys())
	}
}

func TestKV_CompareAndSwap(t *testing.T) {
	s := NewKV()
	ctx := context.Background()

	if ok, _ := s.CompareAndSwap(ctx, "a", "", "1"); !ok {
		t.Fatalf("create via swap must succeed")
	}
	if ok, _ := s.CompareAndSwap(ctx, "a", "", "2"); ok {
		t.Fatalf("create must fail when key exists")
	}
	if ok, _ := s.CompareAndSwap(ctx, "a", "0", "2"); ok {
		t.Fatalf("swap with stale value must fail")
	}
	if ok, _ := s.CompareAndSwap(ctx, "a", "1", "2"); !ok {
		t.Fatalf("swap with current value must succeed")
	}
	if ok, _ := s.CompareAndSwap(ctx, "missing", "x", "y"); ok {
		t.Fatalf("swap on missing key with old value must fail")
	}
	if v, _, _ := s.Get(ctx, "a"); v != "2" {
		t.Fatalf("expected 2, got %q", v)
	}
}
