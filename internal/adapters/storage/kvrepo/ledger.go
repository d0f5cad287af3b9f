package kvrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aloc23/medication-tracker-app/internal/domain/doses"
	"github.com/aloc23/medication-tracker-app/internal/platform/dates"
	"github.com/aloc23/medication-tracker-app/internal/ports/kvstore"
)

type LedgerRepo struct {
	base
}

var _ doses.Repository = (*LedgerRepo)(nil)

func NewLedgerRepo(kv kvstore.Store, profile string, loc *time.Location) *LedgerRepo {
	return &LedgerRepo{base: newBase(kv, profile, loc)}
}

func (r *LedgerRepo) Load(ctx context.Context) (doses.Ledger, error) {
	key := ledgerKey(r.profile)
	env, found, err := r.read(ctx, key)
	if err != nil {
		return doses.Ledger{}, err
	}
	if !found {
		return doses.Ledger{Days: map[string][]doses.DoseEvent{}}, nil
	}

	if env.Schema == 0 {
		// las tomas viejas solo traen el nombre; el catálogo dice qué id recibió cada horario
		catalog, err := (&CatalogRepo{base: r.base}).Load(ctx)
		if err != nil {
			return doses.Ledger{}, err
		}
		now := r.now().In(r.loc)
		days, err := migrateLegacyLedger(env.Data, catalog.Items, dates.Day(now), now, r.loc)
		if err != nil {
			return doses.Ledger{}, fmt.Errorf("%w: %s: legacy ledger: %v", kvstore.ErrStorage, key, err)
		}
		return doses.Ledger{Days: days, Revision: env.Revision}, nil
	}

	var recs map[string][]doseEventRecord
	if err := json.Unmarshal(env.Data, &recs); err != nil {
		return doses.Ledger{}, fmt.Errorf("%w: %s: %v", kvstore.ErrStorage, key, err)
	}
	days := make(map[string][]doses.DoseEvent, len(recs))
	for date, list := range recs {
		for _, rec := range list {
			e, err := fromDoseEventRecord(rec, r.loc)
			if err != nil {
				return doses.Ledger{}, err
			}
			days[date] = append(days[date], e)
		}
	}
	return doses.Ledger{Days: days, Revision: env.Revision}, nil
}

func (r *LedgerRepo) Save(ctx context.Context, l doses.Ledger) (doses.Ledger, error) {
	recs := make(map[string][]doseEventRecord, len(l.Days))
	for date, evs := range l.Days {
		list := make([]doseEventRecord, 0, len(evs))
		for _, e := range evs {
			list = append(list, toDoseEventRecord(e))
		}
		recs[date] = list
	}

	rev, err := r.write(ctx, ledgerKey(r.profile), l.Revision, recs)
	if err != nil {
		return doses.Ledger{}, err
	}
	l.Revision = rev
	return l, nil
}
