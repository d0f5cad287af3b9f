package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aloc23/medication-tracker-app/internal/app"
	"github.com/aloc23/medication-tracker-app/internal/platform/config"
	"github.com/aloc23/medication-tracker-app/internal/platform/logger"
	"github.com/aloc23/medication-tracker-app/internal/router"
)

// @title Medication Tracker API
// @version 1.0
// @description Catálogo de medicaciones, registro de tomas, agenda, adherencia e historial de cambios.
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewFromEnv().Error("config error", logger.Fields{"error": err})
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	a, err := app.New(cfg, log, app.Deps{})
	if err != nil {
		log.Error("startup failed", logger.Fields{"error": err})
		os.Exit(1)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		log.Error("startup failed", logger.Fields{"error": err})
		_ = a.Close()
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router.NewRouter(router.Options{App: a, Logger: log}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", logger.Fields{"addr": cfg.Addr, "profile": cfg.Profile, "store": cfg.Store.Driver})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", logger.Fields{"error": err})
		}
	case <-ctx.Done():
		log.Info("shutting down", nil)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", logger.Fields{"error": err})
	}
}
