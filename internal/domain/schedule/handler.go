package schedule

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aloc23/medication-tracker-app/internal/domain/medications"
	"github.com/aloc23/medication-tracker-app/internal/middleware"
	"github.com/aloc23/medication-tracker-app/internal/platform/dates"
	"github.com/aloc23/medication-tracker-app/internal/platform/logger"
)

func RegisterRoutes(r chi.Router, p *Projector) {
	r.Route("/schedule", func(sr chi.Router) {
		sr.Get("/agenda", agendaHandler(p))
		sr.Get("/forecast", forecastHandler(p))
	})

	r.Get("/medications/{medicationID}/timeline", timelineHandler(p))
}

type agendaItemResponse struct {
	MedicationID string `json:"medication_id"`
	Name         string `json:"name"`
	Dosage       int    `json:"dosage"`
	Time         string `json:"time"`
	Status       Status `json:"status" enums:"taken,missed,upcoming"`
	Reminder     bool   `json:"reminder"`
	Stock        int    `json:"stock"`
	LowStock     bool   `json:"low_stock"`
}

type agendaResponse struct {
	Date  string               `json:"date"`
	Items []agendaItemResponse `json:"items"`
}

type slotResponse struct {
	Time   string `json:"time"`
	Status Status `json:"status"`
}

type timelineDayResponse struct {
	Date   string         `json:"date"`
	Active bool           `json:"active"`
	Slots  []slotResponse `json:"slots"`
}

type forecastItemResponse struct {
	MedicationID string `json:"medication_id"`
	Name         string `json:"name"`
	Stock        int    `json:"stock"`
	DosesPerDay  int    `json:"doses_per_day"`
	RunOutDate   string `json:"run_out_date,omitempty"`
	DaysLeft     *int   `json:"days_left,omitempty"`
	LowStock     bool   `json:"low_stock"`
}

// agendaHandler godoc
// @Summary Agenda del día
// @Description Todas las tomas programadas del día con su estado (taken/missed/upcoming) calculado contra la hora actual.
// @Tags schedule
// @Produce json
// @Param date query string false "Día (YYYY-MM-DD), default hoy"
// @Success 200 {object} agendaResponse
// @Failure 400 {string} string "fecha inválida"
// @Router /schedule/agenda [get]
func agendaHandler(p *Projector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day, err := dayParam(r, "date", p.Today())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := p.Agenda(r.Context(), day)
		if err != nil {
			writeError(w, r, err)
			return
		}

		out := agendaResponse{Date: dates.Format(day), Items: make([]agendaItemResponse, 0, len(items))}
		for _, it := range items {
			out.Items = append(out.Items, agendaItemResponse{
				MedicationID: it.MedicationID,
				Name:         it.Name,
				Dosage:       it.Dosage,
				Time:         it.Time,
				Status:       it.Status,
				Reminder:     it.Reminder,
				Stock:        it.Stock,
				LowStock:     it.LowStock,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// forecastHandler godoc
// @Summary Proyección de stock
// @Description Fecha estimada de agotamiento por medicación: hoy + floor(stock / tomas por día), acotada al fin del período.
// @Tags schedule
// @Produce json
// @Success 200 {array} forecastItemResponse
// @Router /schedule/forecast [get]
func forecastHandler(p *Projector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := p.Forecast(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}

		out := make([]forecastItemResponse, 0, len(items))
		for _, it := range items {
			resp := forecastItemResponse{
				MedicationID: it.MedicationID,
				Name:         it.Name,
				Stock:        it.Stock,
				DosesPerDay:  it.DosesPerDay,
				DaysLeft:     it.DaysLeft,
				LowStock:     it.LowStock,
			}
			if it.RunOutDate != nil {
				resp.RunOutDate = dates.Format(*it.RunOutDate)
			}
			out = append(out, resp)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// timelineHandler godoc
// @Summary Grilla de tomas
// @Description Estado de cada horario por día. Por defecto los últimos 7 días terminando hoy (`direction=past`).
// @Description `direction=next` muestra los próximos días empezando hoy, como la vista semanal. `from` explícito ignora `direction`.
// @Tags schedule
// @Produce json
// @Param medicationID path string true "ID de la medicación"
// @Param direction query string false "past (default) o next" Enums(past, next)
// @Param from query string false "Primer día (YYYY-MM-DD)"
// @Param days query int false "Cantidad de días (1-92), default 7"
// @Success 200 {array} timelineDayResponse
// @Failure 400 {string} string "parámetros inválidos"
// @Failure 404 {string} string "medication not found"
// @Router /medications/{medicationID}/timeline [get]
func timelineHandler(p *Projector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := 7
		if v := strings.TrimSpace(r.URL.Query().Get("days")); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				http.Error(w, "days must be a number", http.StatusBadRequest)
				return
			}
			days = n
		}

		def := dates.AddDays(p.Today(), -(days-1))
		switch strings.TrimSpace(r.URL.Query().Get("direction")) {
		case "", "past":
		case "next":
			def = p.Today()
		default:
			http.Error(w, "direction must be past or next", http.StatusBadRequest)
			return
		}

		from, err := dayParam(r, "from", def)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		rows, err := p.Timeline(r.Context(), chi.URLParam(r, "medicationID"), from, days)
		if err != nil {
			writeError(w, r, err)
			return
		}

		out := make([]timelineDayResponse, 0, len(rows))
		for _, row := range rows {
			slots := make([]slotResponse, 0, len(row.Slots))
			for _, s := range row.Slots {
				slots = append(slots, slotResponse{Time: s.Time, Status: s.Status})
			}
			out = append(out, timelineDayResponse{Date: row.Date, Active: row.Active, Slots: slots})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func dayParam(r *http.Request, name string, def time.Time) (time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def, nil
	}
	return dates.Parse(v, def.Location())
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, medications.ErrNotFound):
		http.Error(w, "medication not found", http.StatusNotFound)
	default:
		middleware.GetLogger(r.Context()).Error("request failed", logger.Fields{"error": err})
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
