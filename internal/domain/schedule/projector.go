package schedule

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/aloc23/medication-tracker-app/internal/domain/doses"
	"github.com/aloc23/medication-tracker-app/internal/domain/medications"
	"github.com/aloc23/medication-tracker-app/internal/platform/dates"
	"github.com/aloc23/medication-tracker-app/internal/ports/clock"
)

var ErrInvalidInput = errors.New("invalid input")

// MaxTimelineDays limita la grilla que se puede pedir de una vez.
const MaxTimelineDays = 92

type Status string

const (
	StatusTaken    Status = "taken"
	StatusMissed   Status = "missed"
	StatusUpcoming Status = "upcoming"
)

type Catalog interface {
	Get(ctx context.Context, id string) (medications.Medication, error)
	List(ctx context.Context) ([]medications.Medication, error)
}

type DoseLookup interface {
	IsTaken(ctx context.Context, medicationID, hhmm, date string) (bool, error)
	EntriesBetween(ctx context.Context, from, to string) (map[string][]doses.DoseEvent, error)
}

// Projector es solo lectura: todo se recalcula contra el reloj en cada llamada,
// no hay estado "missed" persistido.
type Projector struct {
	catalog Catalog
	ledger  DoseLookup
	now     func() time.Time
}

func NewProjector(catalog Catalog, ledger DoseLookup, clk clock.Clock) *Projector {
	return &Projector{catalog: catalog, ledger: ledger, now: clk.Now}
}

// Today es el día civil actual en la zona del reloj.
func (p *Projector) Today() time.Time {
	return dates.Day(p.now())
}

// IsActiveOn: Daily siempre; Period solo dentro de [start, end], bordes incluidos.
func IsActiveOn(med medications.Medication, day time.Time) bool {
	return med.Recurrence.Covers(day)
}

// StatusAt es la regla pura detrás de DoseStatus.
func StatusAt(taken bool, day time.Time, hhmm string, now time.Time) (Status, error) {
	if taken {
		return StatusTaken, nil
	}
	at, err := dates.At(day, hhmm)
	if err != nil {
		return "", errors.Join(ErrInvalidInput, err)
	}
	if at.Before(now) {
		return StatusMissed, nil
	}
	return StatusUpcoming, nil
}

func (p *Projector) DoseStatus(ctx context.Context, med medications.Medication, hhmm string, day time.Time) (Status, error) {
	hhmm, err := dates.ParseClock(hhmm)
	if err != nil {
		return "", errors.Join(ErrInvalidInput, err)
	}
	taken, err := p.ledger.IsTaken(ctx, med.ID, hhmm, dates.Format(day))
	if err != nil {
		return "", err
	}
	return StatusAt(taken, day, hhmm, p.now())
}

// RunOutDate proyecta el día en que se acaba el stock a partir de today.
// nil si no hay consumo diario o si el período ya terminó.
func RunOutDate(med medications.Medication, today time.Time) *time.Time {
	perDay := med.DosesPerDay()
	if perDay <= 0 {
		return nil
	}
	today = dates.Day(today)
	if med.Recurrence.Kind == medications.RecurrencePeriod && dates.Compare(med.Recurrence.End, today) < 0 {
		return nil
	}

	out := dates.AddDays(today, max(0, med.Stock)/perDay)
	if med.Recurrence.Kind == medications.RecurrencePeriod && dates.Compare(out, med.Recurrence.End) > 0 {
		y, m, d := med.Recurrence.End.Date()
		out = time.Date(y, m, d, 0, 0, 0, 0, today.Location())
	}
	return &out
}

func (p *Projector) ProjectedRunOutDate(med medications.Medication) *time.Time {
	return RunOutDate(med, p.Today())
}

type AgendaItem struct {
	MedicationID string
	Name         string
	Dosage       int
	Time         string
	Status       Status
	Reminder     bool
	Stock        int
	LowStock     bool
}

// Agenda lista cada toma programada del día con su estado, ordenada por horario.
func (p *Projector) Agenda(ctx context.Context, day time.Time) ([]AgendaItem, error) {
	meds, err := p.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	date := dates.Format(day)
	taken, err := p.takenSet(ctx, date, date)
	if err != nil {
		return nil, err
	}

	now := p.now()
	var out []AgendaItem
	for _, m := range meds {
		if !IsActiveOn(m, day) {
			continue
		}
		for _, t := range m.Times {
			st, err := StatusAt(taken[doses.Key(m.ID, t, date)], day, t, now)
			if err != nil {
				return nil, err
			}
			out = append(out, AgendaItem{
				MedicationID: m.ID,
				Name:         m.Name,
				Dosage:       m.Dosage,
				Time:         t,
				Status:       st,
				Reminder:     m.ReminderEnabled(t),
				Stock:        m.Stock,
				LowStock:     m.LowStock(),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

type SlotState struct {
	Time   string
	Status Status
}

// TimelineDay es una fila de la grilla semanal. Inactive => Slots vacío.
type TimelineDay struct {
	Date   string
	Active bool
	Slots  []SlotState
}

// Timeline arma la grilla día x horario de una medicación, desde from por days días.
func (p *Projector) Timeline(ctx context.Context, medicationID string, from time.Time, days int) ([]TimelineDay, error) {
	if days <= 0 || days > MaxTimelineDays {
		return nil, errors.Join(ErrInvalidInput, errors.New("days out of range"))
	}
	med, err := p.catalog.Get(ctx, medicationID)
	if err != nil {
		return nil, err
	}

	from = dates.Day(from)
	to := dates.AddDays(from, days-1)
	taken, err := p.takenSet(ctx, dates.Format(from), dates.Format(to))
	if err != nil {
		return nil, err
	}

	now := p.now()
	out := make([]TimelineDay, 0, days)
	for i := 0; i < days; i++ {
		day := dates.AddDays(from, i)
		date := dates.Format(day)
		row := TimelineDay{Date: date, Active: IsActiveOn(med, day)}
		if row.Active {
			for _, t := range med.Times {
				st, err := StatusAt(taken[doses.Key(med.ID, t, date)], day, t, now)
				if err != nil {
					return nil, err
				}
				row.Slots = append(row.Slots, SlotState{Time: t, Status: st})
			}
		}
		out = append(out, row)
	}
	return out, nil
}

type ForecastItem struct {
	MedicationID string
	Name         string
	Stock        int
	DosesPerDay  int
	RunOutDate   *time.Time
	DaysLeft     *int
	LowStock     bool
}

// Forecast proyecta el agotamiento de stock de todo el catálogo.
func (p *Projector) Forecast(ctx context.Context) ([]ForecastItem, error) {
	meds, err := p.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	today := p.Today()

	out := make([]ForecastItem, 0, len(meds))
	for _, m := range meds {
		it := ForecastItem{
			MedicationID: m.ID,
			Name:         m.Name,
			Stock:        m.Stock,
			DosesPerDay:  m.DosesPerDay(),
			RunOutDate:   RunOutDate(m, today),
			LowStock:     m.LowStock(),
		}
		if it.RunOutDate != nil {
			d := daysBetween(today, *it.RunOutDate)
			it.DaysLeft = &d
		}
		out = append(out, it)
	}
	return out, nil
}

func (p *Projector) takenSet(ctx context.Context, from, to string) (map[string]bool, error) {
	byDay, err := p.ledger.EntriesBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	set := map[string]bool{}
	for _, evs := range byDay {
		for _, e := range evs {
			set[e.Key] = true
		}
	}
	return set, nil
}

// daysBetween cuenta días civiles, sin que los cambios de horario afecten el resultado.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
