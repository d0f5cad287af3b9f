package kvrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aloc23/medication-tracker-app/internal/domain/medications"
	"github.com/aloc23/medication-tracker-app/internal/platform/dates"
	"github.com/aloc23/medication-tracker-app/internal/ports/kvstore"
)

type CatalogRepo struct {
	base
}

var _ medications.Repository = (*CatalogRepo)(nil)

func NewCatalogRepo(kv kvstore.Store, profile string, loc *time.Location) *CatalogRepo {
	return &CatalogRepo{base: newBase(kv, profile, loc)}
}

func (r *CatalogRepo) Load(ctx context.Context) (medications.State, error) {
	key := medicationsKey(r.profile)
	env, found, err := r.read(ctx, key)
	if err != nil || !found {
		return medications.State{}, err
	}

	var items []medications.Medication
	if env.Schema == 0 {
		now := r.now().In(r.loc)
		items, err = migrateLegacyCatalog(env.Data, dates.Day(now), now)
		if err != nil {
			return medications.State{}, fmt.Errorf("%w: %s: legacy catalog: %v", kvstore.ErrStorage, key, err)
		}
	} else {
		var recs []medicationRecord
		if err := json.Unmarshal(env.Data, &recs); err != nil {
			return medications.State{}, fmt.Errorf("%w: %s: %v", kvstore.ErrStorage, key, err)
		}
		if items, err = fromMedicationRecords(recs, r.loc); err != nil {
			return medications.State{}, err
		}
	}
	return medications.State{Items: items, Revision: env.Revision}, nil
}

func (r *CatalogRepo) Save(ctx context.Context, st medications.State) (medications.State, error) {
	rev, err := r.write(ctx, medicationsKey(r.profile), st.Revision, toMedicationRecords(st.Items))
	if err != nil {
		return medications.State{}, err
	}
	return medications.State{Items: medications.CloneAll(st.Items), Revision: rev}, nil
}
