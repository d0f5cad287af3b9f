package kvrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aloc23/medication-tracker-app/internal/domain/history"
	"github.com/aloc23/medication-tracker-app/internal/ports/kvstore"
)

type HistoryRepo struct {
	base
}

var _ history.Repository = (*HistoryRepo)(nil)

func NewHistoryRepo(kv kvstore.Store, profile string, loc *time.Location) *HistoryRepo {
	return &HistoryRepo{base: newBase(kv, profile, loc)}
}

// Load: el historial no existía en el formato viejo; un array suelto se lee como snapshots.
func (r *HistoryRepo) Load(ctx context.Context) (history.Log, error) {
	key := historyKey(r.profile)
	env, found, err := r.read(ctx, key)
	if err != nil || !found {
		return history.Log{}, err
	}

	var recs []snapshotRecord
	if err := json.Unmarshal(env.Data, &recs); err != nil {
		return history.Log{}, fmt.Errorf("%w: %s: %v", kvstore.ErrStorage, key, err)
	}
	out := history.Log{Snapshots: make([]history.Snapshot, 0, len(recs)), Revision: env.Revision}
	for _, rec := range recs {
		s, err := fromSnapshotRecord(rec, r.loc)
		if err != nil {
			return history.Log{}, err
		}
		out.Snapshots = append(out.Snapshots, s)
	}
	return out, nil
}

func (r *HistoryRepo) Save(ctx context.Context, l history.Log) (history.Log, error) {
	recs := make([]snapshotRecord, 0, len(l.Snapshots))
	for _, s := range l.Snapshots {
		recs = append(recs, toSnapshotRecord(s))
	}

	rev, err := r.write(ctx, historyKey(r.profile), l.Revision, recs)
	if err != nil {
		return history.Log{}, err
	}
	l.Revision = rev
	return l, nil
}
