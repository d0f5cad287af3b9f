// Package kvrepo implementa los repositorios del dominio sobre cualquier kvstore.Store.
// Cada valor es un sobre JSON versionado; los valores del formato viejo (schema 0) se migran al leer.
package kvrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aloc23/medication-tracker-app/internal/ports/kvstore"
)

// SchemaVersion es la versión que se escribe. 0 = formato sin sobre.
const SchemaVersion = 1

type envelope struct {
	Schema   int             `json:"schema"`
	Revision int64           `json:"revision"`
	SavedAt  time.Time       `json:"saved_at"`
	Data     json.RawMessage `json:"data"`
}

// Claves por perfil.
func medicationsKey(profile string) string { return profile + "_medications" }
func ledgerKey(profile string) string      { return profile + "_medLogs" }
func historyKey(profile string) string     { return profile + "_history" }

func decode(raw string) (envelope, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return envelope{Data: json.RawMessage("null")}, nil
	}

	if strings.HasPrefix(trimmed, "{") {
		var top map[string]json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &top); err != nil {
			return envelope{}, fmt.Errorf("%w: corrupt value: %v", kvstore.ErrStorage, err)
		}
		if _, ok := top["schema"]; ok {
			var env envelope
			if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
				return envelope{}, fmt.Errorf("%w: corrupt envelope: %v", kvstore.ErrStorage, err)
			}
			if env.Schema > SchemaVersion {
				return envelope{}, fmt.Errorf("%w: unsupported schema %d", kvstore.ErrStorage, env.Schema)
			}
			return env, nil
		}
	}

	// sin sobre: lo que guardaba la app original
	return envelope{Schema: 0, Data: json.RawMessage(trimmed)}, nil
}

// base concentra la lectura/escritura con control de revisión.
type base struct {
	kv      kvstore.Store
	profile string
	loc     *time.Location
	now     func() time.Time
}

func newBase(kv kvstore.Store, profile string, loc *time.Location) base {
	if loc == nil {
		loc = time.Local
	}
	return base{kv: kv, profile: profile, loc: loc, now: time.Now}
}

func (b base) read(ctx context.Context, key string) (envelope, bool, error) {
	raw, found, err := b.kv.Get(ctx, key)
	if err != nil || !found {
		return envelope{}, false, err
	}
	env, err := decode(raw)
	if err != nil {
		return envelope{}, false, fmt.Errorf("%s: %w", key, err)
	}
	return env, true, nil
}

// write guarda data si la revisión actual sigue siendo expected.
// Con un store Swapper el chequeo y la escritura son atómicos.
func (b base) write(ctx context.Context, key string, expected int64, data any) (int64, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: encode %s: %v", kvstore.ErrStorage, key, err)
	}

	raw, found, err := b.kv.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	var current int64
	if found {
		env, err := decode(raw)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		current = env.Revision
	}
	if current != expected {
		return 0, fmt.Errorf("%w: %s revision %d, expected %d", kvstore.ErrConflict, key, current, expected)
	}

	next := envelope{Schema: SchemaVersion, Revision: current + 1, SavedAt: b.now().UTC(), Data: payload}
	enc, err := json.Marshal(next)
	if err != nil {
		return 0, fmt.Errorf("%w: encode %s: %v", kvstore.ErrStorage, key, err)
	}

	sw, ok := b.kv.(kvstore.Swapper)
	if !ok {
		if err := b.kv.Set(ctx, key, string(enc)); err != nil {
			return 0, err
		}
		return next.Revision, nil
	}

	old := ""
	if found {
		old = raw
	}
	swapped, err := sw.CompareAndSwap(ctx, key, old, string(enc))
	if err != nil {
		return 0, err
	}
	if !swapped {
		return 0, fmt.Errorf("%w: %s changed during write", kvstore.ErrConflict, key)
	}
	return next.Revision, nil
}
