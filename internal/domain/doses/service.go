package doses

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aloc23/medication-tracker-app/internal/domain/medications"
	"github.com/aloc23/medication-tracker-app/internal/platform/dates"
	"github.com/aloc23/medication-tracker-app/internal/platform/logger"
	"github.com/aloc23/medication-tracker-app/internal/ports/clock"
)

var ErrInvalidInput = errors.New("invalid input")

// StockError indica que la toma quedó registrada pero el stock no se descontó.
// Reintentar la toma no sirve (ya está registrada); hay que corregir el stock a mano.
type StockError struct {
	Key          string
	MedicationID string
	Err          error
}

func (e *StockError) Error() string {
	return fmt.Sprintf("dose %s recorded but stock not updated: %v", e.Key, e.Err)
}

func (e *StockError) Unwrap() error { return e.Err }

type Service struct {
	mu      sync.Mutex
	repo    Repository
	catalog Catalog
	now     func() time.Time
	log     logger.Logger
}

func NewService(repo Repository, catalog Catalog, clk clock.Clock, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:    repo,
		catalog: catalog,
		now:     clk.Now,
		log:     log.With(logger.Fields{"component": "ledger"}),
	}
}

// Today es el día civil actual en formato YYYY-MM-DD.
func (s *Service) Today() string {
	return dates.Format(s.now())
}

// RecordDose registra la toma medicationID/hhmm/date. Una segunda llamada con la
// misma clave devuelve OutcomeAlreadyRecorded sin tocar el stock.
// Con *StockError el Result es válido: la toma quedó registrada.
func (s *Service) RecordDose(ctx context.Context, medicationID, hhmm, date string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	med, err := s.catalog.Get(ctx, medicationID)
	if err != nil {
		return Result{}, err
	}
	return s.recordLocked(ctx, med, hhmm, date)
}

// RecordAllDue registra todos los horarios del día que aún no estaban tomados.
// Devuelve cuántos se registraron; los que no descontaron stock vuelven como *StockError.
func (s *Service) RecordAllDue(ctx context.Context, medicationID, date string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	med, err := s.catalog.Get(ctx, medicationID)
	if err != nil {
		return 0, err
	}

	count := 0
	var stockErr error
	for _, t := range med.Times {
		res, err := s.recordLocked(ctx, med, t, date)
		var se *StockError
		if errors.As(err, &se) {
			count++
			stockErr = errors.Join(stockErr, err)
			continue
		}
		if err != nil {
			return count, err
		}
		if res.Outcome == OutcomeRecorded {
			count++
			med = res.Medication
		}
	}
	return count, stockErr
}

func (s *Service) recordLocked(ctx context.Context, med medications.Medication, hhmm, date string) (Result, error) {
	hhmm, date, err := normalize(hhmm, date)
	if err != nil {
		return Result{}, err
	}
	if !med.HasSlot(hhmm) {
		return Result{}, fmt.Errorf("%w: %s is not scheduled at %s", ErrInvalidInput, med.Name, hhmm)
	}

	key := Key(med.ID, hhmm, date)

	l, err := s.repo.Load(ctx)
	if err != nil {
		return Result{}, err
	}
	if e, ok := l.find(date, key); ok {
		return Result{Outcome: OutcomeAlreadyRecorded, Event: e, Medication: med}, nil
	}

	ev := DoseEvent{
		Key:          key,
		MedicationID: med.ID,
		Medication:   med.Clone(),
		Time:         hhmm,
		Date:         date,
		RecordedAt:   s.now(),
	}

	next := l.clone()
	if next.Days == nil {
		next.Days = map[string][]DoseEvent{}
	}
	next.Days[date] = append(next.Days[date], ev)

	if _, err := s.repo.Save(ctx, next); err != nil {
		s.log.Error("ledger write failed", logger.Fields{"key": key, "error": err})
		return Result{}, err
	}

	// el ledger ya quedó escrito; si el descuento de stock falla se devuelve *StockError junto con la toma
	updated, err := s.catalog.ConsumeStock(ctx, med.ID, med.Dosage, fmt.Sprintf("Dose taken: %s at %s", med.Name, hhmm))
	if err != nil {
		s.log.Error("stock decrement failed after dose was recorded", logger.Fields{"key": key, "error": err})
		return Result{Outcome: OutcomeRecorded, Event: ev, Medication: med}, &StockError{Key: key, MedicationID: med.ID, Err: err}
	}

	s.log.Info("dose recorded", logger.Fields{"key": key, "stock": updated.Stock})
	return Result{Outcome: OutcomeRecorded, Event: ev, Medication: updated}, nil
}

// IsTaken indica si existe una toma para la clave dada.
func (s *Service) IsTaken(ctx context.Context, medicationID, hhmm, date string) (bool, error) {
	hhmm, date, err := normalize(hhmm, date)
	if err != nil {
		return false, err
	}
	l, err := s.repo.Load(ctx)
	if err != nil {
		return false, err
	}
	_, ok := l.find(date, Key(medicationID, hhmm, date))
	return ok, nil
}

// EntriesOn devuelve las tomas del día en orden de registro.
func (s *Service) EntriesOn(ctx context.Context, date string) ([]DoseEvent, error) {
	d, err := dates.Parse(date, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	l, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	return l.clone().Days[dates.Format(d)], nil
}

// EntriesBetween devuelve las tomas de [from, to], agrupadas por día.
func (s *Service) EntriesBetween(ctx context.Context, from, to string) (map[string][]DoseEvent, error) {
	f, err := dates.Parse(from, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	t, err := dates.Parse(to, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if f.After(t) {
		return nil, fmt.Errorf("%w: from must not be after to", ErrInvalidInput)
	}

	l, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := map[string][]DoseEvent{}
	for d, evs := range l.clone().Days {
		if d >= dates.Format(f) && d <= dates.Format(t) {
			out[d] = evs
		}
	}
	return out, nil
}

// All devuelve todo el ledger ordenado por fecha y hora, para exportar.
func (s *Service) All(ctx context.Context) ([]DoseEvent, error) {
	l, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	l = l.clone()

	var out []DoseEvent
	for _, d := range l.sortedDays() {
		evs := l.Days[d]
		sort.SliceStable(evs, func(i, j int) bool { return evs[i].Time < evs[j].Time })
		out = append(out, evs...)
	}
	return out, nil
}

func normalize(hhmm, date string) (string, string, error) {
	t, err := dates.ParseClock(hhmm)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	d, err := dates.Parse(date, time.UTC)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return t, dates.Format(d), nil
}
