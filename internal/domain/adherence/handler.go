package adherence

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aloc23/medication-tracker-app/internal/platform/dates"
)

func RegisterRoutes(r chi.Router, a *Aggregator) {
	r.Get("/adherence", summaryHandler(a))
}

type dayCountResponse struct {
	Date     string    `json:"date"`
	Expected int       `json:"expected"`
	Taken    int       `json:"taken"`
	Status   DayStatus `json:"status" enums:"future,none,complete,partial,missed"`
}

type summaryResponse struct {
	From         string             `json:"from"`
	To           string             `json:"to"`
	Expected     int                `json:"expected"`
	Taken        int                `json:"taken"`
	CompleteDays int                `json:"complete_days"`
	PartialDays  int                `json:"partial_days"`
	MissedDays   int                `json:"missed_days"`
	Rate         float64            `json:"rate"`
	Days         []dayCountResponse `json:"days"`
}

// summaryHandler godoc
// @Summary Adherencia por día
// @Description Tomas esperadas vs tomadas por día. Por defecto la semana del calendario: hoy-6 a mañana.
// @Tags adherence
// @Produce json
// @Param from query string false "Desde (YYYY-MM-DD)"
// @Param to query string false "Hasta (YYYY-MM-DD)"
// @Success 200 {object} summaryResponse
// @Failure 400 {string} string "rango inválido"
// @Router /adherence [get]
func summaryHandler(a *Aggregator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		today := a.Today()
		from, to := dates.AddDays(today, -6), dates.AddDays(today, 1)

		q := r.URL.Query()
		if v := strings.TrimSpace(q.Get("from")); v != "" {
			d, err := dates.Parse(v, today.Location())
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			from = d
		}
		if v := strings.TrimSpace(q.Get("to")); v != "" {
			d, err := dates.Parse(v, today.Location())
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			to = d
		}

		s, err := a.Summary(r.Context(), from, to)
		if err != nil {
			if errors.Is(err, ErrInvalidRange) {
				http.Error(w, "invalid date range: from must not be after to and span at most 366 days", http.StatusBadRequest)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := summaryResponse{
			From:         s.From,
			To:           s.To,
			Expected:     s.Expected,
			Taken:        s.Taken,
			CompleteDays: s.CompleteDays,
			PartialDays:  s.PartialDays,
			MissedDays:   s.MissedDays,
			Rate:         s.Rate,
			Days:         make([]dayCountResponse, 0, len(s.Days)),
		}
		for _, d := range s.Days {
			out.Days = append(out.Days, dayCountResponse{Date: d.Date, Expected: d.Expected, Taken: d.Taken, Status: d.Status})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
