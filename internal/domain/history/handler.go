package history

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aloc23/medication-tracker-app/internal/domain/medications"
)

func RegisterRoutes(r chi.Router, t *Tracker) {
	r.Route("/history", func(hr chi.Router) {
		hr.Get("/", listSnapshotsHandler(t))
		hr.Get("/changes", listChangesHandler(t))
	})
}

type snapshotResponse struct {
	ID          string                           `json:"id"`
	Timestamp   time.Time                        `json:"timestamp"`
	Reason      string                           `json:"reason"`
	Medications []medications.MedicationResponse `json:"medications"`
}

type fieldChangeResponse struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

type diffResponse struct {
	Added   []string              `json:"added"`
	Removed []string              `json:"removed"`
	Changed []fieldChangeResponse `json:"changed"`
}

type changeResponse struct {
	SnapshotID string       `json:"snapshot_id"`
	Timestamp  time.Time    `json:"timestamp"`
	Reason     string       `json:"reason"`
	Diff       diffResponse `json:"diff"`
}

// listSnapshotsHandler godoc
// @Summary Historial del catálogo
// @Description Snapshots completos del catálogo, del más viejo al más nuevo.
// @Tags history
// @Produce json
// @Success 200 {array} snapshotResponse
// @Failure 500 {string} string "internal error"
// @Router /history [get]
func listSnapshotsHandler(t *Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snaps, err := t.List(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]snapshotResponse, 0, len(snaps))
		for _, s := range snaps {
			meds := make([]medications.MedicationResponse, 0, len(s.Medications))
			for _, m := range s.Medications {
				meds = append(meds, medications.ToResponse(m))
			}
			out = append(out, snapshotResponse{ID: s.ID, Timestamp: s.Timestamp, Reason: s.Reason, Medications: meds})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// listChangesHandler godoc
// @Summary Cambios del catálogo
// @Description Diff de cada snapshot contra el anterior (agregadas, borradas y campos cambiados: dosage, times, notes).
// @Tags history
// @Produce json
// @Success 200 {array} changeResponse
// @Failure 500 {string} string "internal error"
// @Router /history/changes [get]
func listChangesHandler(t *Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		changes, err := t.Changes(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]changeResponse, 0, len(changes))
		for _, c := range changes {
			out = append(out, changeResponse{
				SnapshotID: c.SnapshotID,
				Timestamp:  c.Timestamp,
				Reason:     c.Reason,
				Diff:       toDiffResponse(c.Diff),
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func toDiffResponse(d Diff) diffResponse {
	out := diffResponse{
		Added:   append([]string{}, d.Added...),
		Removed: append([]string{}, d.Removed...),
		Changed: make([]fieldChangeResponse, 0, len(d.Changed)),
	}
	for _, c := range d.Changed {
		out.Changed = append(out.Changed, fieldChangeResponse{Name: c.Name, Fields: c.Fields})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
