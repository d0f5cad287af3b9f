// Package dates agrupa el manejo de fechas civiles (YYYY-MM-DD) y horas del día (HH:MM).
package dates

import (
	"fmt"
	"strings"
	"time"
)

const (
	DayLayout   = "2006-01-02"
	ClockLayout = "15:04"
)

// Day trunca t a la medianoche de su propia zona horaria.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Parse interpreta YYYY-MM-DD como medianoche en loc.
func Parse(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DayLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %q", s)
	}
	return t, nil
}

func Format(t time.Time) string {
	return t.Format(DayLayout)
}

func AddDays(day time.Time, n int) time.Time {
	return day.AddDate(0, 0, n)
}

// ParseClock valida HH:MM y lo devuelve normalizado (p.ej. "8:05" -> "08:05").
func ParseClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return "", fmt.Errorf("time must be HH:MM: %q", s)
	}
	return t.Format(ClockLayout), nil
}

// At combina un día con una hora HH:MM en la zona del día.
func At(day time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse(ClockLayout, strings.TrimSpace(hhmm))
	if err != nil {
		return time.Time{}, fmt.Errorf("time must be HH:MM: %q", hhmm)
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

// Compare ordena por fecha civil, sin importar hora ni zona.
func Compare(a, b time.Time) int {
	return strings.Compare(Format(a), Format(b))
}
