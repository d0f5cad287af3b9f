package history

import (
	"slices"
	"sort"
	"strings"

	"github.com/aloc23/medication-tracker-app/internal/domain/medications"
)

// DiffCatalogs compara dos catálogos por nombre sin distinguir mayúsculas.
// Dos entradas que solo difieren en mayúsculas colisionan: gana la última.
// Es una función pura; no modifica sus argumentos.
func DiffCatalogs(before, after []medications.Medication) Diff {
	b := byName(before)
	a := byName(after)

	var d Diff
	for key, am := range a {
		bm, ok := b[key]
		if !ok {
			d.Added = append(d.Added, am.Name)
			continue
		}
		if fields := changedFields(bm, am); len(fields) > 0 {
			d.Changed = append(d.Changed, FieldChange{Name: am.Name, Fields: fields})
		}
	}
	for key, bm := range b {
		if _, ok := a[key]; !ok {
			d.Removed = append(d.Removed, bm.Name)
		}
	}

	sortNames(d.Added)
	sortNames(d.Removed)
	sort.Slice(d.Changed, func(i, j int) bool {
		return strings.ToLower(d.Changed[i].Name) < strings.ToLower(d.Changed[j].Name)
	})
	return d
}

func byName(items []medications.Medication) map[string]medications.Medication {
	out := make(map[string]medications.Medication, len(items))
	for _, m := range items {
		out[strings.ToLower(strings.TrimSpace(m.Name))] = m
	}
	return out
}

func changedFields(before, after medications.Medication) []string {
	var fields []string
	if before.Dosage != after.Dosage {
		fields = append(fields, FieldDosage)
	}
	if !slices.Equal(before.Times, after.Times) {
		fields = append(fields, FieldTimes)
	}
	if before.Notes != after.Notes {
		fields = append(fields, FieldNotes)
	}
	return fields
}

func sortNames(names []string) {
	sort.Slice(names, func(i, j int) bool { return strings.ToLower(names[i]) < strings.ToLower(names[j]) })
}
