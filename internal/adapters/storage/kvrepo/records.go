package kvrepo

import (
	"fmt"
	"time"

	"github.com/aloc23/medication-tracker-app/internal/domain/doses"
	"github.com/aloc23/medication-tracker-app/internal/domain/history"
	"github.com/aloc23/medication-tracker-app/internal/domain/medications"
	"github.com/aloc23/medication-tracker-app/internal/platform/dates"
	"github.com/aloc23/medication-tracker-app/internal/ports/kvstore"
)

type recurrenceRecord struct {
	Kind  string `json:"kind"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

type medicationRecord struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Dosage     int              `json:"dosage"`
	Times      []string         `json:"times"`
	Reminders  []bool           `json:"reminders,omitempty"`
	Notes      string           `json:"notes,omitempty"`
	Stock      int              `json:"stock"`
	Recurrence recurrenceRecord `json:"recurrence"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

type doseEventRecord struct {
	Key          string           `json:"key"`
	MedicationID string           `json:"medication_id"`
	Medication   medicationRecord `json:"medication"`
	Time         string           `json:"time"`
	Date         string           `json:"date"`
	RecordedAt   time.Time        `json:"recorded_at"`
}

type snapshotRecord struct {
	ID          string             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	Reason      string             `json:"reason"`
	Medications []medicationRecord `json:"medications"`
}

func toMedicationRecord(m medications.Medication) medicationRecord {
	rec := medicationRecord{
		ID:         m.ID,
		Name:       m.Name,
		Dosage:     m.Dosage,
		Times:      append([]string(nil), m.Times...),
		Reminders:  append([]bool(nil), m.Reminders...),
		Notes:      m.Notes,
		Stock:      m.Stock,
		Recurrence: recurrenceRecord{Kind: string(medications.RecurrenceDaily)},
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	if m.Recurrence.Kind == medications.RecurrencePeriod {
		rec.Recurrence = recurrenceRecord{
			Kind:  string(medications.RecurrencePeriod),
			Start: dates.Format(m.Recurrence.Start),
			End:   dates.Format(m.Recurrence.End),
		}
	}
	return rec
}

func fromMedicationRecord(rec medicationRecord, loc *time.Location) (medications.Medication, error) {
	m := medications.Medication{
		ID:         rec.ID,
		Name:       rec.Name,
		Dosage:     rec.Dosage,
		Times:      append([]string(nil), rec.Times...),
		Notes:      rec.Notes,
		Stock:      rec.Stock,
		Recurrence: medications.Daily(),
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}
	if len(rec.Reminders) > 0 {
		m.Reminders = append([]bool(nil), rec.Reminders...)
	}

	switch medications.RecurrenceKind(rec.Recurrence.Kind) {
	case medications.RecurrenceDaily, "":
	case medications.RecurrencePeriod:
		start, err := dates.Parse(rec.Recurrence.Start, loc)
		if err != nil {
			return medications.Medication{}, fmt.Errorf("%w: medication %s: %v", kvstore.ErrStorage, rec.ID, err)
		}
		end, err := dates.Parse(rec.Recurrence.End, loc)
		if err != nil {
			return medications.Medication{}, fmt.Errorf("%w: medication %s: %v", kvstore.ErrStorage, rec.ID, err)
		}
		m.Recurrence = medications.Period(start, end)
	default:
		return medications.Medication{}, fmt.Errorf("%w: medication %s: unknown recurrence %q", kvstore.ErrStorage, rec.ID, rec.Recurrence.Kind)
	}
	return m, nil
}

func toMedicationRecords(items []medications.Medication) []medicationRecord {
	out := make([]medicationRecord, 0, len(items))
	for _, m := range items {
		out = append(out, toMedicationRecord(m))
	}
	return out
}

func fromMedicationRecords(recs []medicationRecord, loc *time.Location) ([]medications.Medication, error) {
	out := make([]medications.Medication, 0, len(recs))
	for _, rec := range recs {
		m, err := fromMedicationRecord(rec, loc)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func toDoseEventRecord(e doses.DoseEvent) doseEventRecord {
	return doseEventRecord{
		Key:          e.Key,
		MedicationID: e.MedicationID,
		Medication:   toMedicationRecord(e.Medication),
		Time:         e.Time,
		Date:         e.Date,
		RecordedAt:   e.RecordedAt,
	}
}

func fromDoseEventRecord(rec doseEventRecord, loc *time.Location) (doses.DoseEvent, error) {
	m, err := fromMedicationRecord(rec.Medication, loc)
	if err != nil {
		return doses.DoseEvent{}, err
	}
	return doses.DoseEvent{
		Key:          rec.Key,
		MedicationID: rec.MedicationID,
		Medication:   m,
		Time:         rec.Time,
		Date:         rec.Date,
		RecordedAt:   rec.RecordedAt,
	}, nil
}

func toSnapshotRecord(s history.Snapshot) snapshotRecord {
	return snapshotRecord{
		ID:          s.ID,
		Timestamp:   s.Timestamp,
		Reason:      s.Reason,
		Medications: toMedicationRecords(s.Medications),
	}
}

func fromSnapshotRecord(rec snapshotRecord, loc *time.Location) (history.Snapshot, error) {
	meds, err := fromMedicationRecords(rec.Medications, loc)
	if err != nil {
		return history.Snapshot{}, err
	}
	return history.Snapshot{ID: rec.ID, Timestamp: rec.Timestamp, Reason: rec.Reason, Medications: meds}, nil
}
