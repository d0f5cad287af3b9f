// Package sqlite guarda el store clave/valor en un archivo local (modernc.org/sqlite, sin cgo).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aloc23/medication-tracker-app/internal/ports/kvstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv_entries (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

type Store struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ kvstore.Store   = (*Store)(nil)
	_ kvstore.Swapper = (*Store)(nil)
)

// Open abre (o crea) el archivo y aplica el schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: sqlite open: %v", kvstore.ErrStorage, err)
	}

	// un solo writer; así busy_timeout aplica a la única conexión
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: sqlite pragma: %v", kvstore.ErrStorage, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: sqlite migrate: %v", kvstore.ErrStorage, err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: sqlite get %s: %v", kvstore.ErrStorage, key, err)
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, s.now().UTC())
	if err != nil {
		return fmt.Errorf("%w: sqlite set %s: %v", kvstore.ErrStorage, key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%w: sqlite remove %s: %v", kvstore.ErrStorage, key, err)
	}
	return nil
}

func (s *Store) CompareAndSwap(ctx context.Context, key, old, value string) (bool, error) {
	var (
		res sql.Result
		err error
	)
	if old == "" {
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO NOTHING
		`, key, value, s.now().UTC())
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE kv_entries SET value = ?, updated_at = ? WHERE key = ? AND value = ?
		`, value, s.now().UTC(), key, old)
	}
	if err != nil {
		return false, fmt.Errorf("%w: sqlite swap %s: %v", kvstore.ErrStorage, key, err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}
