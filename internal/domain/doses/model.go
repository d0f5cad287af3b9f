package doses

import (
	"sort"
	"strings"
	"time"

	"github.com/aloc23/medication-tracker-app/internal/domain/medications"
)

type Outcome string

const (
	OutcomeRecorded        Outcome = "recorded"
	OutcomeAlreadyRecorded Outcome = "already_recorded"
)

// DoseEvent es una toma registrada. Nunca se modifica ni se borra.
type DoseEvent struct {
	Key          string
	MedicationID string

	// Copia de la medicación al momento de registrar (el catálogo puede cambiar después).
	Medication medications.Medication

	Time       string // HH:MM
	Date       string // YYYY-MM-DD
	RecordedAt time.Time
}

type Result struct {
	Outcome    Outcome
	Event      DoseEvent
	Medication medications.Medication // estado del catálogo después de la toma
}

// Key arma la clave de toma: medicationID|HH:MM|YYYY-MM-DD.
func Key(medicationID, hhmm, date string) string {
	return strings.Join([]string{medicationID, hhmm, date}, "|")
}

// Ledger son las tomas agrupadas por día.
type Ledger struct {
	Days     map[string][]DoseEvent
	Revision int64
}

func (l Ledger) find(date, key string) (DoseEvent, bool) {
	for _, e := range l.Days[date] {
		if e.Key == key {
			return e, true
		}
	}
	return DoseEvent{}, false
}

func (l Ledger) clone() Ledger {
	out := Ledger{Days: make(map[string][]DoseEvent, len(l.Days)), Revision: l.Revision}
	for d, evs := range l.Days {
		cp := make([]DoseEvent, 0, len(evs))
		for _, e := range evs {
			e.Medication = e.Medication.Clone()
			cp = append(cp, e)
		}
		out.Days[d] = cp
	}
	return out
}

// sortedDays devuelve las fechas del ledger en orden ascendente.
func (l Ledger) sortedDays() []string {
	days := make([]string, 0, len(l.Days))
	for d := range l.Days {
		days = append(days, d)
	}
	sort.Strings(days)
	return days
}
