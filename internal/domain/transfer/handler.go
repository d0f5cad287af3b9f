package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aloc23/medication-tracker-app/internal/domain/medications"
	"github.com/aloc23/medication-tracker-app/internal/ports/kvstore"
)

// maxUpload acota el tamaño del archivo importado.
const maxUpload = 5 << 20

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/export", func(er chi.Router) {
		er.Get("/doses.csv", exportHandler(svc, "medication_log", svc.ExportDosesCSV))
		er.Get("/history.csv", exportHandler(svc, "medication_history", svc.ExportHistoryCSV))
		er.Get("/medications.csv", exportHandler(svc, "medications", svc.ExportMedicationsCSV))
	})

	r.Post("/import", importHandler(svc))
}

type rowErrorResponse struct {
	Line   int    `json:"line"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

type importResponse struct {
	Imported    []medications.MedicationResponse `json:"imported"`
	Skipped     int                              `json:"skipped"`
	TotalParsed int                              `json:"total_parsed"`
	Errors      []rowErrorResponse               `json:"errors"`
}

// exportHandler godoc
// @Summary Exportar CSV
// @Description `doses.csv` (Date,Medication,Time,Dose), `history.csv` (Timestamp,Reason,Added,Removed,Changed) o `medications.csv` (formato importable).
// @Tags transfer
// @Produce text/csv
// @Success 200 {string} string "archivo CSV"
// @Failure 500 {string} string "internal error"
// @Router /export/doses.csv [get]
// @Router /export/history.csv [get]
// @Router /export/medications.csv [get]
func exportHandler(svc *Service, name string, export func(ctx context.Context, w io.Writer) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// se arma en memoria para poder responder 500 si falla a mitad de camino
		var buf bytes.Buffer
		if err := export(r.Context(), &buf); err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", svc.Profile()+"_"+name+".csv"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}

// importHandler godoc
// @Summary Importar medicaciones
// @Description Acepta `text/csv` en el body o `multipart/form-data` con el campo `file`. Columnas: name, dosage, times (separados por `;`), doses_per_day, reminders, stock, notes, start, end. Las filas inválidas se saltean y se informan.
// @Tags transfer
// @Accept text/csv
// @Accept multipart/form-data
// @Produce json
// @Success 200 {object} importResponse
// @Failure 400 {string} string "archivo inválido"
// @Failure 409 {string} string "conflict"
// @Router /import [post]
func importHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUpload)

		var src io.Reader = r.Body
		if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
			f, _, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "file field required", http.StatusBadRequest)
				return
			}
			defer f.Close()
			src = f
		}

		rep, err := svc.Import(r.Context(), src)
		if err != nil {
			var tooLarge *http.MaxBytesError
			switch {
			case errors.As(err, &tooLarge):
				http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, kvstore.ErrConflict):
				http.Error(w, "conflict: catalog changed in another session, reload and retry", http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		out := importResponse{
			Imported:    make([]medications.MedicationResponse, 0, len(rep.Imported)),
			Skipped:     rep.Skipped,
			TotalParsed: rep.TotalParsed,
			Errors:      make([]rowErrorResponse, 0, len(rep.RowErrors)),
		}
		for _, m := range rep.Imported {
			out.Imported = append(out.Imported, medications.ToResponse(m))
		}
		for _, e := range rep.RowErrors {
			out.Errors = append(out.Errors, rowErrorResponse{Line: e.Line, Name: e.Name, Reason: e.Reason})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
