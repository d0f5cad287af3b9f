package memory

import (
	"context"
	"sync"

	"github.com/aloc23/medication-tracker-app/internal/ports/kvstore"
)

// KV es el store en memoria: sirve para dev, tests y como mirror volátil.
type KV struct {
	mu    sync.RWMutex
	items map[string]string
}

var (
	_ kvstore.Store   = (*KV)(nil)
	_ kvstore.Swapper = (*KV)(nil)
)

func NewKV() *KV {
	return &KV{items: make(map[string]string)}
}

func (s *KV) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[key]
	return v, ok, nil
}

func (s *KV) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = value
	return nil
}

func (s *KV) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
	return nil
}

func (s *KV) CompareAndSwap(ctx context.Context, key, old, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.items[key]
	if (old == "" && ok) || (old != "" && cur != old) {
		return false, nil
	}
	s.items[key] = value
	return true, nil
}

// Keys devuelve las claves guardadas (tests y diagnóstico).
func (s *KV) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.items))
	for k := range s.items {
		out = append(out, k)
	}
	return out
}
