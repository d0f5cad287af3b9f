package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aloc23/medication-tracker-app/internal/domain/doses"
	"github.com/aloc23/medication-tracker-app/internal/domain/medications"
	"github.com/aloc23/medication-tracker-app/internal/platform/dates"
	"github.com/aloc23/medication-tracker-app/internal/ports/clock"
)

type testCatalog struct {
	meds []medications.Medication
}

func (c *testCatalog) Get(ctx context.Context, id string) (medications.Medication, error) {
	for _, m := range c.meds {
		if m.ID == id {
			return m, nil
		}
	}
	return medications.Medication{}, medications.ErrNotFound
}

func (c *testCatalog) List(ctx context.Context) ([]medications.Medication, error) {
	return c.meds, nil
}

// testLedger guarda claves tomadas por día.
type testLedger struct {
	byDay map[string][]doses.DoseEvent
}

func (l *testLedger) take(medID, hhmm, date string) {
	if l.byDay == nil {
		l.byDay = map[string][]doses.DoseEvent{}
	}
	l.byDay[date] = append(l.byDay[date], doses.DoseEvent{
		Key: doses.Key(medID, hhmm, date), MedicationID: medID, Time: hhmm, Date: date,
	})
}

func (l *testLedger) IsTaken(ctx context.Context, medID, hhmm, date string) (bool, error) {
	for _, e := range l.byDay[date] {
		if e.Key == doses.Key(medID, hhmm, date) {
			return true, nil
		}
	}
	return false, nil
}

func (l *testLedger) EntriesBetween(ctx context.Context, from, to string) (map[string][]doses.DoseEvent, error) {
	out := map[string][]doses.DoseEvent{}
	for d, evs := range l.byDay {
		if d >= from && d <= to {
			out[d] = evs
		}
	}
	return out, nil
}

func day(s string) time.Time {
	t, err := dates.Parse(s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

var aspirin = medications.Medication{
	ID: "asp", Name: "Aspirin", Dosage: 2, Times: []string{"08:00", "20:00"}, Stock: 10,
	Recurrence: medications.Daily(),
}

func newTestProjector(now time.Time, meds ...medications.Medication) (*Projector, *testLedger) {
	l := &testLedger{}
	p := NewProjector(&testCatalog{meds: meds}, l, clock.Func(func() time.Time { return now }))
	return p, l
}

func TestIsActiveOn_PeriodBoundaries(t *testing.T) {
	m := aspirin
	m.Recurrence = medications.Period(day("2024-01-01"), day("2024-01-10"))

	cases := map[string]bool{
		"2023-12-31": false,
		"2024-01-01": true,
		"2024-01-05": true,
		"2024-01-10": true,
		"2024-01-11": false,
	}
	for d, want := range cases {
		if got := IsActiveOn(m, day(d)); got != want {
			t.Fatalf("IsActiveOn(%s) = %v, want %v", d, got, want)
		}
	}
	if !IsActiveOn(aspirin, day("1999-01-01")) {
		t.Fatalf("daily must be active every day")
	}
}

func TestDoseStatus(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	p, l := newTestProjector(now, aspirin)
	ctx := context.Background()
	today := day("2025-03-10")

	st, _ := p.DoseStatus(ctx, aspirin, "08:00", today)
	if st != StatusMissed {
		t.Fatalf("08:00 before noon should be missed, got %s", st)
	}
	st, _ = p.DoseStatus(ctx, aspirin, "20:00", today)
	if st != StatusUpcoming {
		t.Fatalf("20:00 should be upcoming, got %s", st)
	}

	l.take("asp", "08:00", "2025-03-10")
	st, _ = p.DoseStatus(ctx, aspirin, "08:00", today)
	if st != StatusTaken {
		t.Fatalf("expected taken, got %s", st)
	}

	// a la hora exacta todavía no es missed
	st, _ = StatusAt(false, today, "12:00", now)
	if st != StatusUpcoming {
		t.Fatalf("scheduled == now must be upcoming, got %s", st)
	}

	if _, err := p.DoseStatus(ctx, aspirin, "noon", today); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRunOutDate(t *testing.T) {
	today := day("2025-03-10")

	m := aspirin // 2 tomas x 2 unidades = 4 por día
	got := RunOutDate(m, today)
	if got == nil || dates.Format(*got) != "2025-03-12" {
		t.Fatalf("expected 2025-03-12, got %v", got)
	}

	m.Stock = 0
	if got := RunOutDate(m, today); got == nil || dates.Format(*got) != "2025-03-10" {
		t.Fatalf("stock 0 must run out today, got %v", got)
	}

	m.Stock = 4
	m.Dosage = 5
	m.Times = []string{"08:00"}
	if got := RunOutDate(m, today); got == nil || dates.Format(*got) != "2025-03-10" {
		t.Fatalf("stock 4 with 5 per day must run out today, got %v", got)
	}

	m.Dosage = 0
	if got := RunOutDate(m, today); got != nil {
		t.Fatalf("zero consumption must not project, got %v", got)
	}
}

func TestRunOutDate_PeriodClampAndEnded(t *testing.T) {
	today := day("2025-03-10")
	m := aspirin
	m.Stock = 100
	m.Recurrence = medications.Period(day("2025-03-01"), day("2025-03-15"))

	if got := RunOutDate(m, today); got == nil || dates.Format(*got) != "2025-03-15" {
		t.Fatalf("expected clamp to period end, got %v", got)
	}

	m.Recurrence = medications.Period(day("2025-03-01"), day("2025-03-09"))
	if got := RunOutDate(m, today); got != nil {
		t.Fatalf("ended period must not project, got %v", got)
	}

	m.Recurrence = medications.Period(day("2025-03-01"), day("2025-03-10"))
	if got := RunOutDate(m, today); got == nil || dates.Format(*got) != "2025-03-10" {
		t.Fatalf("period ending today still projects, got %v", got)
	}
}

func TestRunOutDate_Monotonic(t *testing.T) {
	today := day("2025-03-10")
	m := aspirin
	var prev time.Time
	for stock := 0; stock <= 60; stock++ {
		m.Stock = stock
		got := RunOutDate(m, today)
		if got == nil {
			t.Fatalf("unexpected nil at stock %d", stock)
		}
		if got.Before(prev) {
			t.Fatalf("run-out date decreased at stock %d", stock)
		}
		prev = *got
	}
}

func TestAgenda(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	vitD := medications.Medication{ID: "vit", Name: "Vitamin D", Dosage: 1, Times: []string{"09:00"}, Stock: 2,
		Recurrence: medications.Period(day("2025-03-01"), day("2025-03-05"))}
	ibu := medications.Medication{ID: "ibu", Name: "Ibuprofen", Dosage: 1, Times: []string{"08:00"}, Stock: 20,
		Reminders: []bool{false}, Recurrence: medications.Daily()}
	p, l := newTestProjector(now, aspirin, vitD, ibu)
	l.take("asp", "08:00", "2025-03-10")

	items, err := p.Agenda(context.Background(), day("2025-03-10"))
	if err != nil {
		t.Fatalf("Agenda error: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 slots (inactive period skipped), got %d", len(items))
	}
	if items[0].Name != "Aspirin" || items[0].Time != "08:00" || items[0].Status != StatusTaken {
		t.Fatalf("unexpected first item %+v", items[0])
	}
	if items[1].Name != "Ibuprofen" || items[1].Status != StatusMissed || items[1].Reminder {
		t.Fatalf("unexpected second item %+v", items[1])
	}
	if items[2].Time != "20:00" || items[2].Status != StatusUpcoming {
		t.Fatalf("unexpected third item %+v", items[2])
	}
}

func TestTimeline(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	m := aspirin
	m.Recurrence = medications.Period(day("2025-03-09"), day("2025-03-20"))
	p, l := newTestProjector(now, m)
	l.take("asp", "20:00", "2025-03-09")

	rows, err := p.Timeline(context.Background(), "asp", day("2025-03-08"), 3)
	if err != nil {
		t.Fatalf("Timeline error: %v", err)
	}
	if len(rows) != 3 || rows[0].Active || len(rows[0].Slots) != 0 {
		t.Fatalf("first day is outside the period, got %+v", rows[0])
	}
	if rows[1].Slots[0].Status != StatusMissed || rows[1].Slots[1].Status != StatusTaken {
		t.Fatalf("unexpected 2025-03-09 row %+v", rows[1])
	}
	if rows[2].Slots[1].Status != StatusUpcoming {
		t.Fatalf("unexpected 2025-03-10 row %+v", rows[2])
	}

	if _, err := p.Timeline(context.Background(), "asp", day("2025-03-08"), 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero days")
	}
	if _, err := p.Timeline(context.Background(), "nope", day("2025-03-08"), 3); !errors.Is(err, medications.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestForecast(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	noUse := medications.Medication{ID: "x", Name: "Cream", Dosage: 0, Times: []string{"08:00"}, Stock: 3,
		Recurrence: medications.Daily()}
	p, _ := newTestProjector(now, aspirin, noUse)

	items, err := p.Forecast(context.Background())
	if err != nil {
		t.Fatalf("Forecast error: %v", err)
	}
	if items[0].DaysLeft == nil || *items[0].DaysLeft != 2 || items[0].DosesPerDay != 4 {
		t.Fatalf("unexpected aspirin forecast %+v", items[0])
	}
	if items[1].RunOutDate != nil || items[1].DaysLeft != nil || !items[1].LowStock {
		t.Fatalf("unexpected cream forecast %+v", items[1])
	}
}
