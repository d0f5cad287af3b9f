package medications

import (
	"fmt"
	"time"

	"github.com/aloc23/medication-tracker-app/internal/platform/dates"
)

const firstSlotHour = 8

// SlotsForDoses genera n horarios HH:00 desde las 08:00, separados floor(12/n) horas
// (mínimo una hora, así más de 12 tomas no colapsan en el mismo horario).
// Es lo que hace el formulario de alta cuando el usuario solo indica tomas por día.
func SlotsForDoses(n int) []string {
	if n <= 0 {
		return nil
	}
	step := max(1, 12/n)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		h := (firstSlotHour + i*step) % 24
		out = append(out, fmt.Sprintf("%02d:00", h))
	}
	return out
}

// PeriodForWeeks arma un período de weeks semanas que empieza en start.
func PeriodForWeeks(start time.Time, weeks int) (Recurrence, error) {
	if weeks <= 0 {
		return Recurrence{}, invalid("weeks", "must be positive")
	}
	start = dates.Day(start)
	return Period(start, dates.AddDays(start, weeks*7-1)), nil
}
