package medications

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aloc23/medication-tracker-app/internal/platform/dates"
	"github.com/aloc23/medication-tracker-app/internal/platform/logger"
	"github.com/aloc23/medication-tracker-app/internal/ports/clock"
)

// Service es el catálogo. Toda mutación pasa por acá: lee el estado completo,
// calcula el nuevo y lo escribe una sola vez.
type Service struct {
	mu        sync.Mutex
	repo      Repository
	now       func() time.Time
	newID     func() string
	log       logger.Logger
	observers []Observer
}

func NewService(repo Repository, clk clock.Clock, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:  repo,
		now:   clk.Now,
		newID: uuid.NewString,
		log:   log.With(logger.Fields{"component": "catalog"}),
	}
}

// Today es el día civil actual según el reloj del servicio.
func (s *Service) Today() time.Time {
	return dates.Day(s.now())
}

// Subscribe registra un observer; llamar antes de servir tráfico.
func (s *Service) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

type Input struct {
	Name       string
	Dosage     int
	Times      []string
	Reminders  []bool
	Notes      string
	Stock      int
	Recurrence Recurrence
}

// Patch: nil = no tocar.
type Patch struct {
	Name       *string
	Dosage     *int
	Times      *[]string
	Reminders  *[]bool
	Notes      *string
	Stock      *int
	Recurrence *Recurrence
}

// BatchError describe una fila rechazada por AddBatch (Index es la posición en la entrada).
type BatchError struct {
	Index int
	Name  string
	Err   error
}

func (s *Service) Add(ctx context.Context, in Input) (Medication, error) {
	now := s.now()
	m := fromInput(in)
	m.ID = s.newID()
	m.CreatedAt = now
	m.UpdatedAt = now
	if err := validate(&m); err != nil {
		return Medication{}, err
	}

	err := s.mutate(ctx, func(items []Medication) ([]Medication, string, error) {
		return append(items, m), "Added " + m.Name, nil
	})
	if err != nil {
		return Medication{}, err
	}
	return m.Clone(), nil
}

// AddBatch agrega todas las entradas válidas en una única escritura.
func (s *Service) AddBatch(ctx context.Context, ins []Input) ([]Medication, []BatchError, error) {
	now := s.now()
	added := make([]Medication, 0, len(ins))
	var rejected []BatchError

	for i, in := range ins {
		m := fromInput(in)
		m.ID = s.newID()
		m.CreatedAt = now
		m.UpdatedAt = now
		if err := validate(&m); err != nil {
			rejected = append(rejected, BatchError{Index: i, Name: strings.TrimSpace(in.Name), Err: err})
			continue
		}
		added = append(added, m)
	}
	if len(added) == 0 {
		return nil, rejected, nil
	}

	err := s.mutate(ctx, func(items []Medication) ([]Medication, string, error) {
		return append(items, added...), fmt.Sprintf("Imported %d medications", len(added)), nil
	})
	if err != nil {
		return nil, rejected, err
	}
	return CloneAll(added), rejected, nil
}

func (s *Service) Update(ctx context.Context, id string, p Patch) (Medication, error) {
	var updated Medication
	err := s.mutate(ctx, func(items []Medication) ([]Medication, string, error) {
		i := indexOf(items, id)
		if i < 0 {
			return nil, "", ErrNotFound
		}
		m := items[i].Clone()
		applyPatch(&m, p)
		// cambiar los horarios sin mandar reminders invalida los flags previos
		if p.Times != nil && p.Reminders == nil {
			m.Reminders = nil
		}
		if err := validate(&m); err != nil {
			return nil, "", err
		}
		m.UpdatedAt = s.now()
		items[i] = m
		updated = m
		return items, "Edited " + m.Name, nil
	})
	if err != nil {
		return Medication{}, err
	}
	return updated.Clone(), nil
}

func (s *Service) Remove(ctx context.Context, id string) error {
	return s.mutate(ctx, func(items []Medication) ([]Medication, string, error) {
		i := indexOf(items, id)
		if i < 0 {
			return nil, "", ErrNotFound
		}
		name := items[i].Name
		return append(items[:i], items[i+1:]...), "Deleted " + name, nil
	})
}

func (s *Service) SetStock(ctx context.Context, id string, stock int) (Medication, error) {
	if stock < 0 {
		return Medication{}, invalid("stock", "must not be negative")
	}
	return s.updateStock(ctx, id, func(int) int { return stock }, func(m Medication) string {
		return "Updated stock for " + m.Name
	})
}

// ConsumeStock descuenta units sin bajar de cero. Lo usa el ledger al registrar una toma.
func (s *Service) ConsumeStock(ctx context.Context, id string, units int, reason string) (Medication, error) {
	if units < 0 {
		return Medication{}, invalid("units", "must not be negative")
	}
	return s.updateStock(ctx, id, func(cur int) int { return max(0, cur-units) }, func(m Medication) string {
		if strings.TrimSpace(reason) != "" {
			return reason
		}
		return "Updated stock for " + m.Name
	})
}

func (s *Service) updateStock(ctx context.Context, id string, next func(int) int, reason func(Medication) string) (Medication, error) {
	var updated Medication
	err := s.mutate(ctx, func(items []Medication) ([]Medication, string, error) {
		i := indexOf(items, id)
		if i < 0 {
			return nil, "", ErrNotFound
		}
		items[i].Stock = next(items[i].Stock)
		items[i].UpdatedAt = s.now()
		updated = items[i].Clone()
		return items, reason(updated), nil
	})
	if err != nil {
		return Medication{}, err
	}
	if updated.LowStock() {
		s.log.Warn("low stock", logger.Fields{"medication_id": updated.ID, "name": updated.Name, "stock": updated.Stock})
	}
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id string) (Medication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Medication{}, ErrNotFound
	}
	st, err := s.repo.Load(ctx)
	if err != nil {
		return Medication{}, err
	}
	i := indexOf(st.Items, id)
	if i < 0 {
		return Medication{}, ErrNotFound
	}
	return st.Items[i].Clone(), nil
}

func (s *Service) List(ctx context.Context) ([]Medication, error) {
	st, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	return CloneAll(st.Items), nil
}

// mutate serializa las escrituras del proceso y notifica a los observers con una copia.
func (s *Service) mutate(ctx context.Context, fn func(items []Medication) ([]Medication, string, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}

	items, reason, err := fn(CloneAll(st.Items))
	if err != nil {
		return err
	}

	saved, err := s.repo.Save(ctx, State{Items: items, Revision: st.Revision})
	if err != nil {
		s.log.Error("catalog write failed", logger.Fields{"reason": reason, "error": err})
		return err
	}

	s.log.Info("catalog changed", logger.Fields{"reason": reason, "revision": saved.Revision, "count": len(saved.Items)})
	for _, o := range s.observers {
		o.MedicationsChanged(ctx, CloneAll(saved.Items), reason)
	}
	return nil
}

func fromInput(in Input) Medication {
	m := Medication{
		Name:       in.Name,
		Dosage:     in.Dosage,
		Times:      append([]string(nil), in.Times...),
		Notes:      in.Notes,
		Stock:      in.Stock,
		Recurrence: in.Recurrence,
	}
	if len(in.Reminders) > 0 {
		m.Reminders = append([]bool(nil), in.Reminders...)
	}
	return m
}

func applyPatch(m *Medication, p Patch) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Dosage != nil {
		m.Dosage = *p.Dosage
	}
	if p.Times != nil {
		m.Times = append([]string(nil), (*p.Times)...)
	}
	if p.Reminders != nil {
		m.Reminders = append([]bool(nil), (*p.Reminders)...)
	}
	if p.Notes != nil {
		m.Notes = *p.Notes
	}
	if p.Stock != nil {
		m.Stock = *p.Stock
	}
	if p.Recurrence != nil {
		m.Recurrence = *p.Recurrence
	}
}

func indexOf(items []Medication, id string) int {
	for i, m := range items {
		if m.ID == id {
			return i
		}
	}
	return -1
}
