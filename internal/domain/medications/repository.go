package medications

import "context"

// State es el catálogo completo tal como se persiste.
// Revision la asigna el repositorio; Save falla con kvstore.ErrConflict si cambió.
type State struct {
	Items    []Medication
	Revision int64
}

type Repository interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, st State) (State, error)
}

// Observer recibe el catálogo nuevo después de cada mutación exitosa.
type Observer interface {
	MedicationsChanged(ctx context.Context, items []Medication, reason string)
}
