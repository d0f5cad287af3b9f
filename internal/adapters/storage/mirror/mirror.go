// Package mirror replica cada escritura en un segundo store.
// La fuente de verdad es el primario; las fallas del secundario solo se loguean.
package mirror

import (
	"context"

	"github.com/aloc23/medication-tracker-app/internal/platform/logger"
	"github.com/aloc23/medication-tracker-app/internal/ports/kvstore"
)

type Store struct {
	primary   kvstore.Store
	secondary kvstore.Store
	log       logger.Logger
}

var (
	_ kvstore.Store   = (*Store)(nil)
	_ kvstore.Swapper = (*Store)(nil)
)

func New(primary, secondary kvstore.Store, log logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{primary: primary, secondary: secondary, log: log.With(logger.Fields{"component": "mirror"})}
}

// Get lee siempre del primario.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	return s.primary.Get(ctx, key)
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.primary.Set(ctx, key, value); err != nil {
		return err
	}
	s.replicate(ctx, key, value)
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.primary.Remove(ctx, key); err != nil {
		return err
	}
	if err := s.secondary.Remove(ctx, key); err != nil {
		s.log.Warn("mirror remove failed", logger.Fields{"key": key, "error": err.Error()})
	}
	return nil
}

func (s *Store) CompareAndSwap(ctx context.Context, key, old, value string) (bool, error) {
	var (
		ok  bool
		err error
	)
	if sw, can := s.primary.(kvstore.Swapper); can {
		ok, err = sw.CompareAndSwap(ctx, key, old, value)
	} else {
		ok, err = s.compareThenSet(ctx, key, old, value)
	}
	if err != nil || !ok {
		return ok, err
	}
	s.replicate(ctx, key, value)
	return true, nil
}

// compareThenSet no es atómico; solo para primarios sin Swapper.
func (s *Store) compareThenSet(ctx context.Context, key, old, value string) (bool, error) {
	cur, found, err := s.primary.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if (old == "" && found) || (old != "" && cur != old) {
		return false, nil
	}
	return true, s.primary.Set(ctx, key, value)
}

func (s *Store) replicate(ctx context.Context, key, value string) {
	if err := s.secondary.Set(ctx, key, value); err != nil {
		s.log.Warn("mirror write failed", logger.Fields{"key": key, "error": err.Error()})
	}
}
