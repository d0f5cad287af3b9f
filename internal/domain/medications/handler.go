package medications

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aloc23/medication-tracker-app/internal/middleware"
	"github.com/aloc23/medication-tracker-app/internal/platform/dates"
	"github.com/aloc23/medication-tracker-app/internal/platform/logger"
	"github.com/aloc23/medication-tracker-app/internal/ports/kvstore"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/medications", func(mr chi.Router) {
		mr.Post("/", createMedicationHandler(svc))
		mr.Get("/", listMedicationsHandler(svc))

		mr.Get("/{medicationID}", getMedicationHandler(svc))
		mr.Patch("/{medicationID}", updateMedicationHandler(svc))
		mr.Delete("/{medicationID}", deleteMedicationHandler(svc))

		mr.Put("/{medicationID}/stock", setStockHandler(svc))
	})
}

// RecurrencePayload es la forma JSON de Recurrence. Fechas YYYY-MM-DD.
type RecurrencePayload struct {
	Kind  RecurrenceKind `json:"kind" enums:"daily,period"`
	Start string         `json:"start,omitempty"`
	End   string         `json:"end,omitempty"`
}

// createMedicationRequest: times o doses_per_day; recurrence o weeks (período desde hoy).
type createMedicationRequest struct {
	Name        string             `json:"name"`
	Dosage      int                `json:"dosage"`
	Times       []string           `json:"times"`
	DosesPerDay int                `json:"doses_per_day"`
	Reminders   []bool             `json:"reminders"`
	Notes       string             `json:"notes"`
	Stock       int                `json:"stock"`
	Recurrence  *RecurrencePayload `json:"recurrence"`
	Weeks       int                `json:"weeks"`
}

type updateMedicationRequest struct {
	Name       *string            `json:"name"`
	Dosage     *int               `json:"dosage"`
	Times      *[]string          `json:"times"`
	Reminders  *[]bool            `json:"reminders"`
	Notes      *string            `json:"notes"`
	Stock      *int               `json:"stock"`
	Recurrence *RecurrencePayload `json:"recurrence"`
}

type setStockRequest struct {
	Stock *int `json:"stock"`
}

// MedicationResponse representa una medicación del catálogo devuelta por la API.
type MedicationResponse struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Dosage     int               `json:"dosage"`
	Times      []string          `json:"times"`
	Reminders  []bool            `json:"reminders,omitempty"`
	Notes      string            `json:"notes"`
	Stock      int               `json:"stock"`
	LowStock   bool              `json:"low_stock"`
	Recurrence RecurrencePayload `json:"recurrence"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// createMedicationHandler godoc
// @Summary Crear medicación
// @Description Agrega una medicación al catálogo. Si no se envían `times`, se generan a partir de `doses_per_day` (desde las 08:00). `weeks` crea un período fijo que empieza hoy.
// @Tags medications
// @Accept json
// @Produce json
// @Param payload body createMedicationRequest true "Datos de la medicación"
// @Success 201 {object} MedicationResponse
// @Failure 400 {string} string "invalid json / validación"
// @Failure 409 {string} string "conflict"
// @Router /medications [post]
func createMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createMedicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		times := req.Times
		if len(times) == 0 && req.DosesPerDay > 0 {
			if req.DosesPerDay > 24 {
				http.Error(w, "doses_per_day must be between 1 and 24", http.StatusBadRequest)
				return
			}
			times = SlotsForDoses(req.DosesPerDay)
		}

		rec := Daily()
		switch {
		case req.Recurrence != nil:
			parsed, err := req.Recurrence.toRecurrence(svc.Today().Location())
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			rec = parsed
		case req.Weeks > 0:
			parsed, err := PeriodForWeeks(svc.Today(), req.Weeks)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			rec = parsed
		}

		m, err := svc.Add(r.Context(), Input{
			Name:       req.Name,
			Dosage:     req.Dosage,
			Times:      times,
			Reminders:  req.Reminders,
			Notes:      req.Notes,
			Stock:      req.Stock,
			Recurrence: rec,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, ToResponse(m))
	}
}

// listMedicationsHandler godoc
// @Summary Listar medicaciones
// @Tags medications
// @Produce json
// @Success 200 {array} MedicationResponse
// @Failure 500 {string} string "internal error"
// @Router /medications [get]
func listMedicationsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}

		out := make([]MedicationResponse, 0, len(items))
		for _, m := range items {
			out = append(out, ToResponse(m))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getMedicationHandler godoc
// @Summary Obtener medicación
// @Tags medications
// @Produce json
// @Param medicationID path string true "ID de la medicación"
// @Success 200 {object} MedicationResponse
// @Failure 404 {string} string "medication not found"
// @Router /medications/{medicationID} [get]
func getMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := svc.Get(r.Context(), chi.URLParam(r, "medicationID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ToResponse(m))
	}
}

// updateMedicationHandler godoc
// @Summary Editar medicación
// @Description PATCH parcial: los campos ausentes no se tocan. Cambiar `times` sin `reminders` reactiva todos los recordatorios.
// @Tags medications
// @Accept json
// @Produce json
// @Param medicationID path string true "ID de la medicación"
// @Param payload body updateMedicationRequest true "Campos a modificar"
// @Success 200 {object} MedicationResponse
// @Failure 400 {string} string "invalid json / validación"
// @Failure 404 {string} string "medication not found"
// @Failure 409 {string} string "conflict"
// @Router /medications/{medicationID} [patch]
func updateMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()

		var req updateMedicationRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p := Patch{
			Name:      req.Name,
			Dosage:    req.Dosage,
			Times:     req.Times,
			Reminders: req.Reminders,
			Notes:     req.Notes,
			Stock:     req.Stock,
		}
		if req.Recurrence != nil {
			rec, err := req.Recurrence.toRecurrence(svc.Today().Location())
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			p.Recurrence = &rec
		}

		m, err := svc.Update(r.Context(), chi.URLParam(r, "medicationID"), p)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ToResponse(m))
	}
}

// deleteMedicationHandler godoc
// @Summary Borrar medicación
// @Description Las tomas registradas se conservan en el ledger.
// @Tags medications
// @Param medicationID path string true "ID de la medicación"
// @Success 204
// @Failure 404 {string} string "medication not found"
// @Router /medications/{medicationID} [delete]
func deleteMedicationHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Remove(r.Context(), chi.URLParam(r, "medicationID")); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// setStockHandler godoc
// @Summary Actualizar stock
// @Description Fija el stock restante. La respuesta incluye `low_stock` cuando queda menos de 5.
// @Tags medications
// @Accept json
// @Produce json
// @Param medicationID path string true "ID de la medicación"
// @Param payload body setStockRequest true "Nuevo stock"
// @Success 200 {object} MedicationResponse
// @Failure 400 {string} string "stock required / validación"
// @Failure 404 {string} string "medication not found"
// @Router /medications/{medicationID}/stock [put]
func setStockHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setStockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Stock == nil {
			http.Error(w, "stock required", http.StatusBadRequest)
			return
		}

		m, err := svc.SetStock(r.Context(), chi.URLParam(r, "medicationID"), *req.Stock)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ToResponse(m))
	}
}

func (p RecurrencePayload) toRecurrence(loc *time.Location) (Recurrence, error) {
	switch RecurrenceKind(strings.ToLower(string(p.Kind))) {
	case "", RecurrenceDaily:
		return Daily(), nil
	case RecurrencePeriod:
		start, err := dates.Parse(p.Start, loc)
		if err != nil {
			return Recurrence{}, invalid("recurrence.start", err.Error())
		}
		end, err := dates.Parse(p.End, loc)
		if err != nil {
			return Recurrence{}, invalid("recurrence.end", err.Error())
		}
		return Period(start, end), nil
	default:
		return Recurrence{}, invalid("recurrence.kind", "must be daily or period")
	}
}

// ToRecurrencePayload es la inversa de toRecurrence.
func ToRecurrencePayload(r Recurrence) RecurrencePayload {
	if r.Kind != RecurrencePeriod {
		return RecurrencePayload{Kind: RecurrenceDaily}
	}
	return RecurrencePayload{Kind: RecurrencePeriod, Start: dates.Format(r.Start), End: dates.Format(r.End)}
}

func ToResponse(m Medication) MedicationResponse {
	times := m.Times
	if times == nil {
		times = []string{}
	}
	return MedicationResponse{
		ID:         m.ID,
		Name:       m.Name,
		Dosage:     m.Dosage,
		Times:      times,
		Reminders:  m.Reminders,
		Notes:      m.Notes,
		Stock:      m.Stock,
		LowStock:   m.LowStock(),
		Recurrence: ToRecurrencePayload(m.Recurrence),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "medication not found", http.StatusNotFound)
	case errors.Is(err, kvstore.ErrConflict):
		http.Error(w, "conflict: catalog changed in another session, reload and retry", http.StatusConflict)
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
