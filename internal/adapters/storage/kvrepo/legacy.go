package kvrepo

import (
	"bytes"
	"encoding/json"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/aloc23/medication-tracker-app/internal/domain/doses"
	"github.com/aloc23/medication-tracker-app/internal/domain/medications"
	"github.com/aloc23/medication-tracker-app/internal/platform/dates"
)

// legacyNamespace fija los ids derivados del nombre en el formato viejo.
var legacyNamespace = uuid.MustParse("6f1d3c2a-4b7e-4c9a-9e51-2d8f0a7b5c13")

// looseInt acepta número o string ("2", "2 tablets") y se queda con los dígitos iniciales.
type looseInt int

func (n *looseInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (unicode.IsDigit(rune(s[end])) || (end == 0 && s[end] == '-')) {
		end++
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		// "abc" o "1.5e3": lo mismo que parseInt("abc") en la app vieja
		*n = 0
		return nil
	}
	*n = looseInt(v)
	return nil
}

type legacyMedication struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Dosage    looseInt `json:"dosage"`
	Times     []string `json:"times"`
	Reminders []bool   `json:"reminders"`
	Notes     string   `json:"notes"`
	Stock     looseInt `json:"stock"`
	Recurring bool     `json:"recurring"`
	Weeks     *int     `json:"weeks"`
}

// legacyEntry es {...med, time, doseKey} tal como quedaba en <profile>_medLogs.
type legacyEntry struct {
	legacyMedication
	Time    string `json:"time"`
	DoseKey string `json:"doseKey"`
}

func legacyName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// legacyID deriva un id estable del nombre: el formato viejo identificaba por nombre.
// El formato viejo admitía varios horarios con el mismo nombre; n es la repetición (0 la primera).
func legacyID(name string, n int) string {
	key := legacyName(name)
	if n > 0 {
		key += "#" + strconv.Itoa(n)
	}
	return uuid.NewSHA1(legacyNamespace, []byte(key)).String()
}

func (lm legacyMedication) migrate(today time.Time, now time.Time) medications.Medication {
	m := medications.Medication{
		ID:         lm.ID,
		Name:       strings.TrimSpace(lm.Name),
		Dosage:     int(lm.Dosage),
		Notes:      lm.Notes,
		Stock:      max(int(lm.Stock), 0),
		Recurrence: medications.Daily(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if m.Dosage < 1 {
		m.Dosage = 1
	}

	seen := map[string]bool{}
	for i, t := range lm.Times {
		hhmm, err := dates.ParseClock(t)
		if err != nil || seen[hhmm] {
			continue
		}
		seen[hhmm] = true
		m.Times = append(m.Times, hhmm)
		if len(lm.Reminders) == len(lm.Times) {
			m.Reminders = append(m.Reminders, lm.Reminders[i])
		}
	}

	// "weeks" no traía fecha de inicio: el período arranca el día de la migración
	if lm.Weeks != nil && *lm.Weeks > 0 {
		if r, err := medications.PeriodForWeeks(today, *lm.Weeks); err == nil {
			m.Recurrence = r
		}
	}
	return m
}

func migrateLegacyCatalog(data json.RawMessage, today, now time.Time) ([]medications.Medication, error) {
	var legacy []legacyMedication
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, err
	}
	out := make([]medications.Medication, 0, len(legacy))
	repeats := map[string]int{}
	for _, lm := range legacy {
		if strings.TrimSpace(lm.Name) == "" {
			continue
		}
		m := lm.migrate(today, now)
		if m.ID == "" {
			name := legacyName(m.Name)
			m.ID = legacyID(name, repeats[name])
			repeats[name]++
		}
		out = append(out, m)
	}
	return out, nil
}

// legacySchedules resuelve a qué horario del catálogo pertenecía una toma vieja, que solo traía el nombre.
type legacySchedules map[string][]medications.Medication

func newLegacySchedules(catalog []medications.Medication) legacySchedules {
	ls := legacySchedules{}
	for _, m := range catalog {
		name := legacyName(m.Name)
		ls[name] = append(ls[name], m)
	}
	return ls
}

// resolve prefiere el horario con los mismos times que la toma, después cualquiera que tenga ese HH:MM.
func (ls legacySchedules) resolve(med medications.Medication, hhmm string) string {
	if med.ID != "" {
		return med.ID
	}
	candidates := ls[legacyName(med.Name)]
	for _, c := range candidates {
		if slices.Equal(c.Times, med.Times) && slices.Contains(c.Times, hhmm) {
			return c.ID
		}
	}
	for _, c := range candidates {
		if slices.Contains(c.Times, hhmm) {
			return c.ID
		}
	}
	if len(candidates) > 0 {
		return candidates[0].ID
	}
	return legacyID(med.Name, 0)
}

// migrateLegacyLedger convierte <profile>_medLogs; catalog es el catálogo ya cargado, para recuperar los ids.
func migrateLegacyLedger(data json.RawMessage, catalog []medications.Medication, today, now time.Time, loc *time.Location) (map[string][]doses.DoseEvent, error) {
	var legacy map[string][]legacyEntry
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, err
	}

	schedules := newLegacySchedules(catalog)
	out := make(map[string][]doses.DoseEvent, len(legacy))
	for date, entries := range legacy {
		day, err := dates.Parse(date, loc)
		if err != nil {
			continue
		}
		date = dates.Format(day)

		seen := map[string]bool{}
		for _, e := range entries {
			hhmm, err := dates.ParseClock(e.Time)
			if err != nil || strings.TrimSpace(e.Name) == "" {
				continue
			}
			med := e.legacyMedication.migrate(today, now)
			med.ID = schedules.resolve(med, hhmm)
			key := doses.Key(med.ID, hhmm, date)
			if seen[key] {
				continue
			}
			seen[key] = true
			out[date] = append(out[date], doses.DoseEvent{
				Key:          key,
				MedicationID: med.ID,
				Medication:   med,
				Time:         hhmm,
				Date:         date,
				RecordedAt:   day,
			})
		}
	}
	return out, nil
}
