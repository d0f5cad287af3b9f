package medications

import (
	"time"

	"github.com/aloc23/medication-tracker-app/internal/platform/dates"
)

// LowStockThreshold: por debajo de este stock se avisa al usuario.
const LowStockThreshold = 5

type RecurrenceKind string

const (
	RecurrenceDaily  RecurrenceKind = "daily"
	RecurrencePeriod RecurrenceKind = "period"
)

// Recurrence define en qué días aplica una medicación.
// Para Period, Start y End son días civiles inclusivos.
type Recurrence struct {
	Kind  RecurrenceKind
	Start time.Time
	End   time.Time
}

func Daily() Recurrence {
	return Recurrence{Kind: RecurrenceDaily}
}

func Period(start, end time.Time) Recurrence {
	return Recurrence{Kind: RecurrencePeriod, Start: dates.Day(start), End: dates.Day(end)}
}

// Covers indica si la recurrencia aplica al día dado.
func (r Recurrence) Covers(day time.Time) bool {
	if r.Kind != RecurrencePeriod {
		return true
	}
	return dates.Compare(day, r.Start) >= 0 && dates.Compare(day, r.End) <= 0
}

// Medication es una definición de horario.
type Medication struct {
	ID   string
	Name string

	Dosage int      // unidades consumidas por toma
	Times  []string // HH:MM, ordenados y sin repetidos

	// Paralelo a Times. Vacío = todos los recordatorios activos.
	Reminders []bool

	Notes string
	Stock int

	Recurrence Recurrence

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone copia los slices para que nadie mute el catálogo por referencia.
func (m Medication) Clone() Medication {
	m.Times = append([]string(nil), m.Times...)
	if m.Reminders != nil {
		m.Reminders = append([]bool(nil), m.Reminders...)
	}
	return m
}

// DosesPerDay son las unidades que se consumen en un día activo.
func (m Medication) DosesPerDay() int {
	return len(m.Times) * m.Dosage
}

func (m Medication) HasSlot(hhmm string) bool {
	for _, t := range m.Times {
		if t == hhmm {
			return true
		}
	}
	return false
}

func (m Medication) ReminderEnabled(hhmm string) bool {
	if len(m.Reminders) == 0 {
		return m.HasSlot(hhmm)
	}
	for i, t := range m.Times {
		if t == hhmm && i < len(m.Reminders) {
			return m.Reminders[i]
		}
	}
	return false
}

func (m Medication) LowStock() bool {
	return m.Stock < LowStockThreshold
}

// CloneAll copia profundamente una lista.
func CloneAll(items []Medication) []Medication {
	out := make([]Medication, 0, len(items))
	for _, m := range items {
		out = append(out, m.Clone())
	}
	return out
}
