package transfer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aloc23/medication-tracker-app/internal/domain/doses"
	"github.com/aloc23/medication-tracker-app/internal/domain/history"
	"github.com/aloc23/medication-tracker-app/internal/domain/medications"
	"github.com/aloc23/medication-tracker-app/internal/platform/dates"
)

var ErrInvalidInput = errors.New("invalid input")

// listSep separa valores múltiples dentro de una celda (times, reminders).
const listSep = ";"

var (
	doseHeader       = []string{"Date", "Medication", "Time", "Dose"}
	historyHeader    = []string{"Timestamp", "Reason", "Added", "Removed", "Changed"}
	medicationHeader = []string{"name", "dosage", "times", "reminders", "stock", "notes", "start", "end"}
)

// WriteDosesCSV escribe el log de tomas en el formato de exportación original.
func WriteDosesCSV(w io.Writer, events []doses.DoseEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(doseHeader); err != nil {
		return err
	}
	for _, e := range events {
		rec := []string{e.Date, e.Medication.Name, e.Time, strconv.Itoa(e.Medication.Dosage)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteHistoryCSV(w io.Writer, changes []history.Change) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(historyHeader); err != nil {
		return err
	}
	for _, c := range changes {
		changed := make([]string, 0, len(c.Diff.Changed))
		for _, fc := range c.Diff.Changed {
			changed = append(changed, fc.Name+": "+strings.Join(fc.Fields, ", "))
		}
		rec := []string{
			c.Timestamp.Format(time.RFC3339),
			c.Reason,
			strings.Join(c.Diff.Added, listSep+" "),
			strings.Join(c.Diff.Removed, listSep+" "),
			strings.Join(changed, listSep+" "),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMedicationsCSV escribe el catálogo en el mismo formato que acepta ParseMedicationsCSV.
func WriteMedicationsCSV(w io.Writer, meds []medications.Medication) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(medicationHeader); err != nil {
		return err
	}
	for _, m := range meds {
		var reminders []string
		for _, r := range m.Reminders {
			reminders = append(reminders, strconv.FormatBool(r))
		}
		var start, end string
		if m.Recurrence.Kind == medications.RecurrencePeriod {
			start, end = dates.Format(m.Recurrence.Start), dates.Format(m.Recurrence.End)
		}
		rec := []string{
			m.Name,
			strconv.Itoa(m.Dosage),
			strings.Join(m.Times, listSep),
			strings.Join(reminders, listSep),
			strconv.Itoa(m.Stock),
			m.Notes,
			start,
			end,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Row es una fila del archivo ya convertida. Line es 1-based e incluye el header.
type Row struct {
	Line  int
	Input medications.Input
}

// RowError es una fila descartada (mal formada o rechazada por el catálogo).
type RowError struct {
	Line   int
	Name   string
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// ParseMedicationsCSV lee un archivo con header. Columnas reconocidas (sin importar
// mayúsculas ni orden): name, dosage, times, doses_per_day, reminders, stock, notes,
// start, end. Se necesita name y times o doses_per_day. Las filas mal formadas se
// devuelven como RowError y no cortan la lectura.
func ParseMedicationsCSV(r io.Reader, loc *time.Location) ([]Row, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: empty file", ErrInvalidInput)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: header: %v", ErrInvalidInput, err)
	}

	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := cols["name"]; !ok {
		return nil, nil, fmt.Errorf("%w: missing column \"name\"", ErrInvalidInput)
	}
	_, hasTimes := cols["times"]
	_, hasDoses := cols["doses_per_day"]
	if !hasTimes && !hasDoses {
		return nil, nil, fmt.Errorf("%w: missing column \"times\" or \"doses_per_day\"", ErrInvalidInput)
	}

	var (
		rows    []Row
		skipped []RowError
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				skipped = append(skipped, RowError{Line: pe.StartLine, Reason: pe.Err.Error()})
				continue
			}
			return nil, nil, err
		}
		if blank(rec) {
			continue
		}
		line, _ := cr.FieldPos(0)

		get := func(col string) string {
			i, ok := cols[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		in, reason := parseRow(get, loc)
		if reason != "" {
			skipped = append(skipped, RowError{Line: line, Name: get("name"), Reason: reason})
			continue
		}
		rows = append(rows, Row{Line: line, Input: in})
	}
	return rows, skipped, nil
}

func parseRow(get func(string) string, loc *time.Location) (medications.Input, string) {
	in := medications.Input{
		Name:       get("name"),
		Notes:      get("notes"),
		Dosage:     1,
		Recurrence: medications.Daily(),
	}

	if v := get("dosage"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return in, fmt.Sprintf("dosage %q is not a whole number", v)
		}
		in.Dosage = n
	}
	if v := get("stock"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return in, fmt.Sprintf("stock %q is not a whole number", v)
		}
		in.Stock = n
	}

	in.Times = splitList(get("times"))
	if len(in.Times) == 0 {
		if v := get("doses_per_day"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 24 {
				return in, fmt.Sprintf("doses_per_day %q must be between 1 and 24", v)
			}
			in.Times = medications.SlotsForDoses(n)
		}
	}

	for _, v := range splitList(get("reminders")) {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return in, fmt.Sprintf("reminder flag %q is not true/false", v)
		}
		in.Reminders = append(in.Reminders, b)
	}

	start, end := get("start"), get("end")
	if start != "" || end != "" {
		s, err := dates.Parse(start, loc)
		if err != nil {
			return in, "start: " + err.Error()
		}
		e, err := dates.Parse(end, loc)
		if err != nil {
			return in, "end: " + err.Error()
		}
		in.Recurrence = medications.Period(s, e)
	}
	return in, ""
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, listSep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
