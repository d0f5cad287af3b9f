package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/aloc23/medication-tracker-app/docs"
	"github.com/aloc23/medication-tracker-app/internal/app"
	"github.com/aloc23/medication-tracker-app/internal/domain/adherence"
	"github.com/aloc23/medication-tracker-app/internal/domain/doses"
	"github.com/aloc23/medication-tracker-app/internal/domain/history"
	"github.com/aloc23/medication-tracker-app/internal/domain/medications"
	"github.com/aloc23/medication-tracker-app/internal/domain/schedule"
	"github.com/aloc23/medication-tracker-app/internal/domain/transfer"
	"github.com/aloc23/medication-tracker-app/internal/middleware"
	"github.com/aloc23/medication-tracker-app/internal/platform/logger"
)

type Options struct {
	App *app.App

	// Opcional: si es nil se usa el logger de App.
	Logger logger.Logger
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = opts.App.Log
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLog(log))
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Rutas por módulo
	a := opts.App
	medications.RegisterRoutes(r, a.Medications)
	doses.RegisterRoutes(r, a.Doses)
	schedule.RegisterRoutes(r, a.Schedule)
	history.RegisterRoutes(r, a.History)
	adherence.RegisterRoutes(r, a.Adherence)
	transfer.RegisterRoutes(r, a.Transfer)

	return r
}
