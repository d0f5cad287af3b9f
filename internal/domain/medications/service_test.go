package medications

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aloc23/medication-tracker-app/internal/platform/logger"
	"github.com/aloc23/medication-tracker-app/internal/ports/clock"
	"github.com/aloc23/medication-tracker-app/internal/ports/kvstore"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	st      State
	saves   int
	failErr error
}

func (r *testRepo) Load(ctx context.Context) (State, error) {
	return State{Items: CloneAll(r.st.Items), Revision: r.st.Revision}, nil
}

func (r *testRepo) Save(ctx context.Context, st State) (State, error) {
	if r.failErr != nil {
		return State{}, r.failErr
	}
	if st.Revision != r.st.Revision {
		return State{}, kvstore.ErrConflict
	}
	r.saves++
	r.st = State{Items: CloneAll(st.Items), Revision: st.Revision + 1}
	return r.st, nil
}

type recordingObserver struct {
	reasons []string
	last    []Medication
}

func (o *recordingObserver) MedicationsChanged(ctx context.Context, items []Medication, reason string) {
	o.reasons = append(o.reasons, reason)
	o.last = items
}

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestService() (*Service, *testRepo, *recordingObserver) {
	repo := &testRepo{}
	svc := NewService(repo, clock.Func(func() time.Time { return testNow }), logger.Nop())
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("med-%d", n)
	}
	obs := &recordingObserver{}
	svc.Subscribe(obs)
	return svc, repo, obs
}

func aspirin() Input {
	return Input{Name: "Aspirin", Dosage: 2, Times: []string{"20:00", "08:00"}, Stock: 10}
}

// -------------------------
// Tests
// -------------------------

func TestService_Add_NormalizesAndNotifies(t *testing.T) {
	svc, repo, obs := newTestService()

	m, err := svc.Add(context.Background(), Input{
		Name:      "  Aspirin ",
		Dosage:    2,
		Times:     []string{"20:00", "8:00", "08:00"},
		Reminders: []bool{false, true, true},
		Stock:     10,
	})
	if err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if m.ID != "med-1" || m.Name != "Aspirin" {
		t.Fatalf("unexpected medication: %+v", m)
	}
	if fmt.Sprint(m.Times) != "[08:00 20:00]" || fmt.Sprint(m.Reminders) != "[true false]" {
		t.Fatalf("expected sorted, de-duplicated slots with parallel reminders, got %v %v", m.Times, m.Reminders)
	}
	if m.Recurrence.Kind != RecurrenceDaily {
		t.Fatalf("expected daily recurrence by default, got %s", m.Recurrence.Kind)
	}
	if repo.saves != 1 || len(obs.reasons) != 1 || obs.reasons[0] != "Added Aspirin" {
		t.Fatalf("expected one save and reason 'Added Aspirin', got saves=%d reasons=%v", repo.saves, obs.reasons)
	}
}

func TestService_Add_Validation(t *testing.T) {
	cases := map[string]Input{
		"empty name":         {Name: " ", Times: []string{"08:00"}},
		"no times":           {Name: "A"},
		"bad time":           {Name: "A", Times: []string{"8am"}},
		"negative stock":     {Name: "A", Times: []string{"08:00"}, Stock: -1},
		"negative dosage":    {Name: "A", Times: []string{"08:00"}, Dosage: -1},
		"reminders mismatch": {Name: "A", Times: []string{"08:00", "09:00"}, Reminders: []bool{true}},
		"period no bounds":   {Name: "A", Times: []string{"08:00"}, Recurrence: Recurrence{Kind: RecurrencePeriod}},
		"period reversed": {Name: "A", Times: []string{"08:00"}, Recurrence: Period(
			time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))},
	}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			svc, repo, obs := newTestService()
			_, err := svc.Add(context.Background(), in)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Field == "" {
				t.Fatalf("expected ValidationError with field, got %#v", err)
			}
			if repo.saves != 0 || len(obs.reasons) != 0 {
				t.Fatalf("validation failure must not write or notify")
			}
		})
	}
}

func TestService_Update_PatchesOnlyGivenFields(t *testing.T) {
	svc, _, obs := newTestService()
	m, _ := svc.Add(context.Background(), aspirin())

	notes := "after meals"
	dosage := 1
	updated, err := svc.Update(context.Background(), m.ID, Patch{Notes: &notes, Dosage: &dosage})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.Notes != notes || updated.Dosage != 1 || updated.Stock != 10 || len(updated.Times) != 2 {
		t.Fatalf("unexpected patch result: %+v", updated)
	}
	if obs.reasons[len(obs.reasons)-1] != "Edited Aspirin" {
		t.Fatalf("expected 'Edited Aspirin', got %v", obs.reasons)
	}

	empty := ""
	if _, err := svc.Update(context.Background(), m.ID, Patch{Name: &empty}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected validation error on empty name, got %v", err)
	}
	got, _ := svc.Get(context.Background(), m.ID)
	if got.Name != "Aspirin" {
		t.Fatalf("failed update must not mutate, got name %q", got.Name)
	}

	if _, err := svc.Update(context.Background(), "missing", Patch{Notes: &notes}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestService_Update_TimesResetReminders(t *testing.T) {
	svc, _, _ := newTestService()
	in := aspirin()
	in.Reminders = []bool{false, false}
	m, _ := svc.Add(context.Background(), in)

	times := []string{"07:00"}
	updated, err := svc.Update(context.Background(), m.ID, Patch{Times: &times})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if updated.Reminders != nil || !updated.ReminderEnabled("07:00") {
		t.Fatalf("expected reminders reset to all-enabled, got %v", updated.Reminders)
	}
}

func TestService_Remove(t *testing.T) {
	svc, _, obs := newTestService()
	m, _ := svc.Add(context.Background(), aspirin())

	if err := svc.Remove(context.Background(), m.ID); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if _, err := svc.Get(context.Background(), m.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
	if obs.reasons[len(obs.reasons)-1] != "Deleted Aspirin" || len(obs.last) != 0 {
		t.Fatalf("expected 'Deleted Aspirin' with empty catalog, got %v %v", obs.reasons, obs.last)
	}
	if err := svc.Remove(context.Background(), m.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second remove, got %v", err)
	}
}

func TestService_Stock_FloorAndReasons(t *testing.T) {
	svc, _, obs := newTestService()
	m, _ := svc.Add(context.Background(), aspirin())

	if _, err := svc.SetStock(context.Background(), m.ID, -3); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected negative stock rejected, got %v", err)
	}

	m, err := svc.SetStock(context.Background(), m.ID, 3)
	if err != nil {
		t.Fatalf("SetStock error: %v", err)
	}
	if !m.LowStock() {
		t.Fatalf("stock 3 should be low")
	}
	if obs.reasons[len(obs.reasons)-1] != "Updated stock for Aspirin" {
		t.Fatalf("unexpected reason %v", obs.reasons)
	}

	for i := 0; i < 5; i++ {
		m, err = svc.ConsumeStock(context.Background(), m.ID, 2, "Dose taken: Aspirin at 08:00")
		if err != nil {
			t.Fatalf("ConsumeStock error: %v", err)
		}
		if m.Stock < 0 {
			t.Fatalf("stock went negative: %d", m.Stock)
		}
	}
	if m.Stock != 0 {
		t.Fatalf("expected stock clamped at 0, got %d", m.Stock)
	}
	if obs.reasons[len(obs.reasons)-1] != "Dose taken: Aspirin at 08:00" {
		t.Fatalf("expected dose reason, got %v", obs.reasons[len(obs.reasons)-1])
	}
}

func TestService_AddBatch_SingleWriteAndRejections(t *testing.T) {
	svc, repo, obs := newTestService()

	added, rejected, err := svc.AddBatch(context.Background(), []Input{
		aspirin(),
		{Name: "", Times: []string{"08:00"}},
		{Name: "Vitamin D", Dosage: 1, Times: []string{"09:00"}},
	})
	if err != nil {
		t.Fatalf("AddBatch error: %v", err)
	}
	if len(added) != 2 || len(rejected) != 1 || rejected[0].Index != 1 {
		t.Fatalf("unexpected batch result added=%d rejected=%+v", len(added), rejected)
	}
	if repo.saves != 1 || obs.reasons[0] != "Imported 2 medications" {
		t.Fatalf("expected single write with import reason, saves=%d reasons=%v", repo.saves, obs.reasons)
	}
}

func TestService_Conflict_Propagates(t *testing.T) {
	svc, repo, obs := newTestService()
	repo.failErr = kvstore.ErrConflict

	if _, err := svc.Add(context.Background(), aspirin()); !errors.Is(err, kvstore.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if len(obs.reasons) != 0 {
		t.Fatalf("observers must not be notified on failed write")
	}
}

func TestSlotsForDoses(t *testing.T) {
	cases := map[int]string{
		0:  "[]",
		1:  "[08:00]",
		2:  "[08:00 14:00]",
		3:  "[08:00 12:00 16:00]",
		5:  "[08:00 10:00 12:00 14:00 16:00]",
		13: "[08:00 09:00 10:00 11:00 12:00 13:00 14:00 15:00 16:00 17:00 18:00 19:00 20:00]",
	}
	for n, want := range cases {
		if got := fmt.Sprint(SlotsForDoses(n)); got != want {
			t.Fatalf("SlotsForDoses(%d) = %s, want %s", n, got, want)
		}
	}
}

func TestPeriodForWeeks(t *testing.T) {
	rec, err := PeriodForWeeks(testNow, 2)
	if err != nil {
		t.Fatalf("PeriodForWeeks error: %v", err)
	}
	if got := rec.End.Format("2006-01-02"); got != "2025-03-23" {
		t.Fatalf("expected end 2025-03-23, got %s", got)
	}
	if !rec.Covers(testNow) || rec.Covers(testNow.AddDate(0, 0, 14)) {
		t.Fatalf("period must cover exactly 14 days")
	}
	if _, err := PeriodForWeeks(testNow, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected error for zero weeks")
	}
}
