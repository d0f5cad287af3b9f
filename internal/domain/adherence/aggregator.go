package adherence

import (
	"context"
	"errors"
	"time"

	"github.com/aloc23/medication-tracker-app/internal/domain/doses"
	"github.com/aloc23/medication-tracker-app/internal/domain/medications"
	"github.com/aloc23/medication-tracker-app/internal/platform/dates"
	"github.com/aloc23/medication-tracker-app/internal/ports/clock"
)

var ErrInvalidRange = errors.New("invalid date range")

// MaxRangeDays es el rango más largo que se agrega de una vez.
const MaxRangeDays = 366

type DayStatus string

const (
	DayFuture   DayStatus = "future"
	DayNone     DayStatus = "none"
	DayComplete DayStatus = "complete"
	DayPartial  DayStatus = "partial"
	DayMissed   DayStatus = "missed"
)

type Catalog interface {
	List(ctx context.Context) ([]medications.Medication, error)
}

type Ledger interface {
	EntriesBetween(ctx context.Context, from, to string) (map[string][]doses.DoseEvent, error)
}

type DayCount struct {
	Date     string
	Expected int
	Taken    int
	Status   DayStatus
}

type Summary struct {
	From string
	To   string
	Days []DayCount

	// Totales sin contar días futuros.
	Expected     int
	Taken        int
	CompleteDays int
	PartialDays  int
	MissedDays   int

	// Rate = Σ min(taken, expected) / Σ expected. 0 si no se esperaba nada.
	Rate float64
}

type Aggregator struct {
	catalog Catalog
	ledger  Ledger
	now     func() time.Time
}

func NewAggregator(catalog Catalog, ledger Ledger, clk clock.Clock) *Aggregator {
	return &Aggregator{catalog: catalog, ledger: ledger, now: clk.Now}
}

func (a *Aggregator) Today() time.Time {
	return dates.Day(a.now())
}

// DailyCounts devuelve expected/taken por día para [from, to], bordes incluidos.
// expected usa el catálogo actual; taken cuenta las entradas del ledger de ese día.
func (a *Aggregator) DailyCounts(ctx context.Context, from, to time.Time) ([]DayCount, error) {
	from, to = dates.Day(from), dates.Day(to)
	if dates.Compare(from, to) > 0 {
		return nil, ErrInvalidRange
	}
	n := 1
	for d := from; dates.Compare(d, to) < 0; d = dates.AddDays(d, 1) {
		n++
		if n > MaxRangeDays {
			return nil, ErrInvalidRange
		}
	}

	meds, err := a.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	byDay, err := a.ledger.EntriesBetween(ctx, dates.Format(from), dates.Format(to))
	if err != nil {
		return nil, err
	}

	today := a.Today()
	out := make([]DayCount, 0, n)
	for i := 0; i < n; i++ {
		day := dates.AddDays(from, i)
		c := DayCount{Date: dates.Format(day), Taken: len(byDay[dates.Format(day)])}
		for _, m := range meds {
			if m.Recurrence.Covers(day) {
				c.Expected += len(m.Times)
			}
		}
		c.Status = statusOf(c, dates.Compare(day, today) > 0)
		out = append(out, c)
	}
	return out, nil
}

func (a *Aggregator) Summary(ctx context.Context, from, to time.Time) (Summary, error) {
	days, err := a.DailyCounts(ctx, from, to)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{From: dates.Format(from), To: dates.Format(to), Days: days}
	covered := 0
	for _, d := range days {
		if d.Status == DayFuture {
			continue
		}
		s.Expected += d.Expected
		s.Taken += d.Taken
		covered += min(d.Taken, d.Expected)

		switch d.Status {
		case DayComplete:
			s.CompleteDays++
		case DayPartial:
			s.PartialDays++
		case DayMissed:
			s.MissedDays++
		}
	}
	if s.Expected > 0 {
		s.Rate = float64(covered) / float64(s.Expected)
	}
	return s, nil
}

func statusOf(c DayCount, future bool) DayStatus {
	switch {
	case future:
		return DayFuture
	case c.Expected == 0 && c.Taken == 0:
		return DayNone
	case c.Taken >= c.Expected:
		return DayComplete
	case c.Taken > 0:
		return DayPartial
	default:
		return DayMissed
	}
}
