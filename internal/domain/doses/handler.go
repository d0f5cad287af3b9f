package doses

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aloc23/medication-tracker-app/internal/domain/medications"
	"github.com/aloc23/medication-tracker-app/internal/middleware"
	"github.com/aloc23/medication-tracker-app/internal/platform/logger"
	"github.com/aloc23/medication-tracker-app/internal/ports/kvstore"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/medications/{medicationID}/doses", func(dr chi.Router) {
		dr.Post("/", recordDoseHandler(svc))
		dr.Post("/all", recordAllDueHandler(svc))
	})

	r.Get("/doses", listDosesHandler(svc))
}

// recordDoseRequest: date es opcional (default: hoy).
type recordDoseRequest struct {
	Time string `json:"time"`
	Date string `json:"date"`
}

type recordAllDueRequest struct {
	Date string `json:"date"`
}

// doseEventResponse representa una toma registrada.
type doseEventResponse struct {
	Key            string    `json:"key"`
	MedicationID   string    `json:"medication_id"`
	MedicationName string    `json:"medication_name"`
	Dosage         int       `json:"dosage"`
	Time           string    `json:"time"`
	Date           string    `json:"date"`
	RecordedAt     time.Time `json:"recorded_at"`
}

type recordDoseResponse struct {
	Outcome      Outcome           `json:"outcome" enums:"recorded,already_recorded"`
	Event        doseEventResponse `json:"event"`
	Stock        int               `json:"stock"`
	StockWarning string            `json:"stock_warning,omitempty"`
}

type recordAllDueResponse struct {
	Date         string `json:"date"`
	Recorded     int    `json:"recorded"`
	StockWarning string `json:"stock_warning,omitempty"`
}

const stockWarning = "dose recorded but stock was not updated; adjust stock manually"

// stockFailure separa el caso "toma registrada, stock sin descontar" del resto de errores.
func stockFailure(err error) bool {
	var se *StockError
	return errors.As(err, &se)
}

type dayEntriesResponse struct {
	Date    string              `json:"date"`
	Entries []doseEventResponse `json:"entries"`
}

// recordDoseHandler godoc
// @Summary Marcar toma
// @Description Registra la toma de un horario. Repetir la misma toma devuelve 200 con `already_recorded` y no descuenta stock.
// @Description Si la toma se registró pero el stock no pudo descontarse responde 201 con `stock_warning`.
// @Tags doses
// @Accept json
// @Produce json
// @Param medicationID path string true "ID de la medicación"
// @Param payload body recordDoseRequest true "Horario (HH:MM) y fecha opcional (YYYY-MM-DD)"
// @Success 201 {object} recordDoseResponse
// @Success 200 {object} recordDoseResponse
// @Failure 400 {string} string "invalid json / horario no programado"
// @Failure 404 {string} string "medication not found"
// @Failure 409 {string} string "conflict"
// @Router /medications/{medicationID}/doses [post]
func recordDoseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recordDoseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Time) == "" {
			http.Error(w, "time required", http.StatusBadRequest)
			return
		}
		date := strings.TrimSpace(req.Date)
		if date == "" {
			date = svc.Today()
		}

		res, err := svc.RecordDose(r.Context(), chi.URLParam(r, "medicationID"), req.Time, date)
		if err != nil && !stockFailure(err) {
			writeError(w, r, err)
			return
		}

		status := http.StatusCreated
		if res.Outcome == OutcomeAlreadyRecorded {
			status = http.StatusOK
		}
		resp := recordDoseResponse{
			Outcome: res.Outcome,
			Event:   toEventResponse(res.Event),
			Stock:   res.Medication.Stock,
		}
		if err != nil {
			resp.StockWarning = stockWarning
		}
		writeJSON(w, status, resp)
	}
}

// recordAllDueHandler godoc
// @Summary Marcar todas las tomas del día
// @Description Registra los horarios del día que todavía no estaban tomados y devuelve cuántos se registraron.
// @Tags doses
// @Accept json
// @Produce json
// @Param medicationID path string true "ID de la medicación"
// @Param payload body recordAllDueRequest false "Fecha opcional (YYYY-MM-DD)"
// @Success 200 {object} recordAllDueResponse
// @Failure 400 {string} string "invalid json / fecha inválida"
// @Failure 404 {string} string "medication not found"
// @Router /medications/{medicationID}/doses/all [post]
func recordAllDueHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recordAllDueRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}
		date := strings.TrimSpace(req.Date)
		if date == "" {
			date = svc.Today()
		}

		n, err := svc.RecordAllDue(r.Context(), chi.URLParam(r, "medicationID"), date)
		if err != nil && !stockFailure(err) {
			writeError(w, r, err)
			return
		}
		resp := recordAllDueResponse{Date: date, Recorded: n}
		if err != nil {
			resp.StockWarning = stockWarning
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// listDosesHandler godoc
// @Summary Listar tomas
// @Description Sin parámetros devuelve las tomas de hoy. `date` filtra un día; `from` y `to` un rango inclusivo.
// @Tags doses
// @Produce json
// @Param date query string false "Día (YYYY-MM-DD)"
// @Param from query string false "Desde (YYYY-MM-DD)"
// @Param to query string false "Hasta (YYYY-MM-DD)"
// @Success 200 {array} dayEntriesResponse
// @Failure 400 {string} string "fecha inválida"
// @Router /doses [get]
func listDosesHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		from, to := strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to"))

		if from == "" && to == "" {
			date := strings.TrimSpace(q.Get("date"))
			if date == "" {
				date = svc.Today()
			}
			entries, err := svc.EntriesOn(r.Context(), date)
			if err != nil {
				writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, []dayEntriesResponse{{Date: date, Entries: toEventResponses(entries)}})
			return
		}

		if from == "" || to == "" {
			http.Error(w, "from and to must be used together", http.StatusBadRequest)
			return
		}
		byDay, err := svc.EntriesBetween(r.Context(), from, to)
		if err != nil {
			writeError(w, r, err)
			return
		}

		days := make([]string, 0, len(byDay))
		for d := range byDay {
			days = append(days, d)
		}
		sort.Strings(days)

		out := make([]dayEntriesResponse, 0, len(days))
		for _, d := range days {
			out = append(out, dayEntriesResponse{Date: d, Entries: toEventResponses(byDay[d])})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func toEventResponse(e DoseEvent) doseEventResponse {
	return doseEventResponse{
		Key:            e.Key,
		MedicationID:   e.MedicationID,
		MedicationName: e.Medication.Name,
		Dosage:         e.Medication.Dosage,
		Time:           e.Time,
		Date:           e.Date,
		RecordedAt:     e.RecordedAt,
	}
}

func toEventResponses(evs []DoseEvent) []doseEventResponse {
	out := make([]doseEventResponse, 0, len(evs))
	for _, e := range evs {
		out = append(out, toEventResponse(e))
	}
	return out
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, medications.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, medications.ErrNotFound):
		http.Error(w, "medication not found", http.StatusNotFound)
	case errors.Is(err, kvstore.ErrConflict):
		http.Error(w, "conflict: ledger changed in another session, reload and retry", http.StatusConflict)
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
