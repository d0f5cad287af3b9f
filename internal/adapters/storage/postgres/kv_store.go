package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aloc23/medication-tracker-app/internal/ports/kvstore"
)

type KVStore struct {
	db *sql.DB
}

var (
	_ kvstore.Store   = (*KVStore)(nil)
	_ kvstore.Swapper = (*KVStore)(nil)
)

func NewKVStore(db *sql.DB) *KVStore {
	return &KVStore{db: db}
}

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = $1`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: postgres get %s: %v", kvstore.ErrStorage, key, err)
	}
	return v, true, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_entries (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, value)
	if err != nil {
		return fmt.Errorf("%w: postgres set %s: %v", kvstore.ErrStorage, key, err)
	}
	return nil
}

func (s *KVStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = $1`, key); err != nil {
		return fmt.Errorf("%w: postgres remove %s: %v", kvstore.ErrStorage, key, err)
	}
	return nil
}

func (s *KVStore) CompareAndSwap(ctx context.Context, key, old, value string) (bool, error) {
	var (
		res sql.Result
		err error
	)
	if old == "" {
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO kv_entries (key, value, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (key) DO NOTHING
		`, key, value)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE kv_entries SET value = $1, updated_at = now() WHERE key = $2 AND value = $3
		`, value, key, old)
	}
	if err != nil {
		return false, fmt.Errorf("%w: postgres swap %s: %v", kvstore.ErrStorage, key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: postgres swap %s: %v", kvstore.ErrStorage, key, err)
	}
	return n == 1, nil
}
