package history

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aloc23/medication-tracker-app/internal/domain/medications"
	"github.com/aloc23/medication-tracker-app/internal/platform/logger"
	"github.com/aloc23/medication-tracker-app/internal/ports/clock"
)

type Repository interface {
	Load(ctx context.Context) (Log, error)
	Save(ctx context.Context, l Log) (Log, error)
}

// Tracker guarda un snapshot por cada cambio del catálogo.
// limit <= 0 = sin límite; si no, se descartan los más viejos.
type Tracker struct {
	mu    sync.Mutex
	repo  Repository
	now   func() time.Time
	newID func() string
	limit int
	log   logger.Logger
}

func NewTracker(repo Repository, clk clock.Clock, limit int, log logger.Logger) *Tracker {
	if log == nil {
		log = logger.Nop()
	}
	return &Tracker{
		repo:  repo,
		now:   clk.Now,
		newID: uuid.NewString,
		limit: limit,
		log:   log.With(logger.Fields{"component": "history"}),
	}
}

func (t *Tracker) Snapshot(ctx context.Context, catalog []medications.Medication, reason string) (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		ID:          t.newID(),
		Timestamp:   t.now(),
		Medications: medications.CloneAll(catalog),
		Reason:      strings.TrimSpace(reason),
	}

	l, err := t.repo.Load(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	next := Log{Snapshots: append(cloneAll(l.Snapshots), snap), Revision: l.Revision}
	if t.limit > 0 && len(next.Snapshots) > t.limit {
		next.Snapshots = next.Snapshots[len(next.Snapshots)-t.limit:]
	}

	if _, err := t.repo.Save(ctx, next); err != nil {
		return Snapshot{}, err
	}
	return snap.clone(), nil
}

// MedicationsChanged implementa medications.Observer. El catálogo ya quedó
// escrito, así que una falla acá solo se registra.
func (t *Tracker) MedicationsChanged(ctx context.Context, items []medications.Medication, reason string) {
	if _, err := t.Snapshot(ctx, items, reason); err != nil {
		t.log.Error("history snapshot failed", logger.Fields{"reason": reason, "error": err})
	}
}

// List devuelve los snapshots del más viejo al más nuevo.
func (t *Tracker) List(ctx context.Context) ([]Snapshot, error) {
	l, err := t.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	return cloneAll(l.Snapshots), nil
}

// Changes diffea cada snapshot contra el anterior; el primero contra un catálogo vacío.
func (t *Tracker) Changes(ctx context.Context) ([]Change, error) {
	snaps, err := t.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Change, 0, len(snaps))
	var prev []medications.Medication
	for _, s := range snaps {
		out = append(out, Change{
			SnapshotID: s.ID,
			Timestamp:  s.Timestamp,
			Reason:     s.Reason,
			Diff:       DiffCatalogs(prev, s.Medications),
		})
		prev = s.Medications
	}
	return out, nil
}

func cloneAll(in []Snapshot) []Snapshot {
	out := make([]Snapshot, 0, len(in))
	for _, s := range in {
		out = append(out, s.clone())
	}
	return out
}
