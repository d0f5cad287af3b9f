package medications

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aloc23/medication-tracker-app/internal/platform/dates"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("medication not found")
)

// ValidationError es el mensaje que se le muestra al usuario.
// errors.Is(err, ErrInvalidInput) es true.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// validate normaliza m en el lugar y devuelve el primer error encontrado.
func validate(m *Medication) error {
	m.Name = strings.TrimSpace(m.Name)
	m.Notes = strings.TrimSpace(m.Notes)

	if m.Name == "" {
		return invalid("name", "must not be empty")
	}
	if m.Dosage < 0 {
		return invalid("dosage", "must not be negative")
	}
	if m.Stock < 0 {
		return invalid("stock", "must not be negative")
	}
	if len(m.Times) == 0 {
		return invalid("times", "at least one time slot is required")
	}
	if len(m.Reminders) > 0 && len(m.Reminders) != len(m.Times) {
		return invalid("reminders", "must have one flag per time slot")
	}

	times, reminders, err := normalizeSlots(m.Times, m.Reminders)
	if err != nil {
		return err
	}
	m.Times = times
	m.Reminders = reminders

	switch m.Recurrence.Kind {
	case "", RecurrenceDaily:
		m.Recurrence = Daily()
	case RecurrencePeriod:
		if m.Recurrence.Start.IsZero() || m.Recurrence.End.IsZero() {
			return invalid("recurrence", "period requires start and end")
		}
		if dates.Compare(m.Recurrence.Start, m.Recurrence.End) > 0 {
			return invalid("recurrence", "start must not be after end")
		}
		m.Recurrence = Period(m.Recurrence.Start, m.Recurrence.End)
	default:
		return invalid("recurrence", fmt.Sprintf("unknown kind %q", m.Recurrence.Kind))
	}
	return nil
}

type slot struct {
	time     string
	reminder bool
}

// normalizeSlots valida HH:MM, ordena y elimina repetidos manteniendo el flag paralelo.
func normalizeSlots(times []string, reminders []bool) ([]string, []bool, error) {
	seen := map[string]struct{}{}
	slots := make([]slot, 0, len(times))
	for i, raw := range times {
		t, err := dates.ParseClock(raw)
		if err != nil {
			return nil, nil, invalid("times", err.Error())
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		s := slot{time: t, reminder: true}
		if len(reminders) > 0 {
			s.reminder = reminders[i]
		}
		slots = append(slots, s)
	}
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].time < slots[j].time })

	outTimes := make([]string, 0, len(slots))
	var outRem []bool
	if len(reminders) > 0 {
		outRem = make([]bool, 0, len(slots))
	}
	for _, s := range slots {
		outTimes = append(outTimes, s.time)
		if outRem != nil {
			outRem = append(outRem, s.reminder)
		}
	}
	return outTimes, outRem, nil
}
