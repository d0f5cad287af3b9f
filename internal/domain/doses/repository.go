package doses

import (
	"context"

	"github.com/aloc23/medication-tracker-app/internal/domain/medications"
)

type Repository interface {
	Load(ctx context.Context) (Ledger, error)
	// Save falla con kvstore.ErrConflict si la revisión guardada no es l.Revision.
	Save(ctx context.Context, l Ledger) (Ledger, error)
}

// Catalog es lo que el ledger necesita del catálogo de medicaciones.
type Catalog interface {
	Get(ctx context.Context, id string) (medications.Medication, error)
	ConsumeStock(ctx context.Context, id string, units int, reason string) (medications.Medication, error)
}
