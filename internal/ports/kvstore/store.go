package kvstore

import (
	"context"
	"errors"
)

var (
	// ErrStorage envuelve cualquier falla del backend de persistencia.
	ErrStorage = errors.New("storage error")

	// ErrConflict indica que otro proceso escribió la misma clave entre la lectura y la escritura.
	ErrConflict = errors.New("concurrent modification")
)

// Store es el almacenamiento clave/valor persistente (equivalente a localStorage).
// Get devuelve ok=false si la clave no existe.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Swapper es opcional. CompareAndSwap escribe value solo si el valor actual es old;
// old == "" exige que la clave no exista. Devuelve false sin error si no coincide.
type Swapper interface {
	CompareAndSwap(ctx context.Context, key, old, value string) (bool, error)
}
