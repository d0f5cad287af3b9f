package history

import (
	"time"

	"github.com/aloc23/medication-tracker-app/internal/domain/medications"
)

// Snapshot es una copia completa del catálogo en un momento dado.
type Snapshot struct {
	ID          string
	Timestamp   time.Time
	Medications []medications.Medication
	Reason      string
}

func (s Snapshot) clone() Snapshot {
	s.Medications = medications.CloneAll(s.Medications)
	return s
}

// Log es el historial persistido, del más viejo al más nuevo.
type Log struct {
	Snapshots []Snapshot
	Revision  int64
}

// Campos que compara Diff.
const (
	FieldDosage = "dosage"
	FieldTimes  = "times"
	FieldNotes  = "notes"
)

type FieldChange struct {
	Name   string
	Fields []string
}

type Diff struct {
	Added   []string
	Removed []string
	Changed []FieldChange
}

func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Change es un snapshot junto con su diff contra el anterior.
type Change struct {
	SnapshotID string
	Timestamp  time.Time
	Reason     string
	Diff       Diff
}
