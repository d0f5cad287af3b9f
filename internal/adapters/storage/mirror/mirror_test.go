package mirror

import (
	"context"
	"errors"
	"testing"

	"github.com/aloc23/medication-tracker-app/internal/adapters/storage/memory"
	"github.com/aloc23/medication-tracker-app/internal/platform/logger"
	"github.com/aloc23/medication-tracker-app/internal/ports/kvstore"
)

// brokenStore falla en toda escritura.
type brokenStore struct {
	writes int
}

func (b *brokenStore) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, kvstore.ErrStorage
}

func (b *brokenStore) Set(ctx context.Context, key, value string) error {
	b.writes++
	return kvstore.ErrStorage
}

func (b *brokenStore) Remove(ctx context.Context, key string) error {
	b.writes++
	return kvstore.ErrStorage
}

func TestMirror_ReplicatesWrites(t *testing.T) {
	primary, secondary := memory.NewKV(), memory.NewKV()
	s := New(primary, secondary, logger.Nop())
	ctx := context.Background()

	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if v, ok, _ := secondary.Get(ctx, "k"); !ok || v != "v" {
		t.Fatalf("expected secondary to hold value, got %q %v", v, ok)
	}

	if ok, err := s.CompareAndSwap(ctx, "k", "v", "w"); err != nil || !ok {
		t.Fatalf("swap failed: %v %v", ok, err)
	}
	if v, _, _ := secondary.Get(ctx, "k"); v != "w" {
		t.Fatalf("expected swapped value mirrored, got %q", v)
	}

	if ok, _ := s.CompareAndSwap(ctx, "k", "stale", "x"); ok {
		t.Fatalf("stale swap must fail")
	}
	if v, _, _ := secondary.Get(ctx, "k"); v != "w" {
		t.Fatalf("failed swap must not reach secondary, got %q", v)
	}

	_ = s.Remove(ctx, "k")
	if _, ok, _ := secondary.Get(ctx, "k"); ok {
		t.Fatalf("expected remove mirrored")
	}
}

func TestMirror_SecondaryFailureNeverFailsPrimary(t *testing.T) {
	primary, secondary := memory.NewKV(), &brokenStore{}
	s := New(primary, secondary, logger.Nop())
	ctx := context.Background()

	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set must succeed despite mirror failure: %v", err)
	}
	if ok, err := s.CompareAndSwap(ctx, "k", "v", "w"); err != nil || !ok {
		t.Fatalf("swap must succeed despite mirror failure: %v %v", ok, err)
	}
	if err := s.Remove(ctx, "k"); err != nil {
		t.Fatalf("Remove must succeed despite mirror failure: %v", err)
	}
	if secondary.writes != 3 {
		t.Fatalf("expected 3 mirror attempts, got %d", secondary.writes)
	}
}

func TestMirror_PrimaryFailureIsReturned(t *testing.T) {
	secondary := memory.NewKV()
	s := New(&brokenStore{}, secondary, logger.Nop())

	if err := s.Set(context.Background(), "k", "v"); !errors.Is(err, kvstore.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if len(secondary.Keys()) != 0 {
		t.Fatalf("secondary must not be written when primary fails")
	}
}
