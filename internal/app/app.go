// Package app arma el contexto de la aplicación: un único grafo de stores,
// repositorios y servicios construido al arrancar y compartido por el router.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/aloc23/medication-tracker-app/internal/adapters/notify/lognotify"
	"github.com/aloc23/medication-tracker-app/internal/adapters/notify/sendgridmail"
	"github.com/aloc23/medication-tracker-app/internal/adapters/notify/webhook"
	"github.com/aloc23/medication-tracker-app/internal/adapters/storage/kvrepo"
	"github.com/aloc23/medication-tracker-app/internal/adapters/storage/memory"
	"github.com/aloc23/medication-tracker-app/internal/adapters/storage/mirror"
	pg "github.com/aloc23/medication-tracker-app/internal/adapters/storage/postgres"
	"github.com/aloc23/medication-tracker-app/internal/adapters/storage/sqlite"
	"github.com/aloc23/medication-tracker-app/internal/domain/adherence"
	"github.com/aloc23/medication-tracker-app/internal/domain/doses"
	"github.com/aloc23/medication-tracker-app/internal/domain/history"
	"github.com/aloc23/medication-tracker-app/internal/domain/medications"
	"github.com/aloc23/medication-tracker-app/internal/domain/reminders"
	"github.com/aloc23/medication-tracker-app/internal/domain/schedule"
	"github.com/aloc23/medication-tracker-app/internal/domain/transfer"
	"github.com/aloc23/medication-tracker-app/internal/platform/config"
	"github.com/aloc23/medication-tracker-app/internal/platform/httpclient"
	"github.com/aloc23/medication-tracker-app/internal/platform/logger"
	"github.com/aloc23/medication-tracker-app/internal/ports/clock"
	"github.com/aloc23/medication-tracker-app/internal/ports/kvstore"
	"github.com/aloc23/medication-tracker-app/internal/ports/notifier"
)

type App struct {
	Config config.Config
	Log    logger.Logger

	Store    kvstore.Store
	Notifier notifier.Notifier

	Medications *medications.Service
	Doses       *doses.Service
	History     *history.Tracker
	Schedule    *schedule.Projector
	Adherence   *adherence.Aggregator
	Transfer    *transfer.Service
	Reminders   *reminders.Scheduler
	Missed      *reminders.MissedWatcher

	closers []func() error
	cancel  context.CancelFunc
}

// Deps permite reemplazar piezas externas (tests). Lo que quede nil se arma desde Config.
type Deps struct {
	Store    kvstore.Store
	Notifier notifier.Notifier
	Clock    clock.Clock
}

func New(cfg config.Config, log logger.Logger, deps Deps) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	a := &App{Config: cfg, Log: log}

	clk := deps.Clock
	if clk == nil {
		clk = clock.System{Location: cfg.Location}
	}

	a.Store = deps.Store
	if a.Store == nil {
		store, err := a.openStore()
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.Store = store
	}

	a.Notifier = deps.Notifier
	if a.Notifier == nil {
		a.Notifier = newNotifier(cfg, log)
	}

	profile := cfg.Profile
	catalogRepo := kvrepo.NewCatalogRepo(a.Store, profile, cfg.Location)
	ledgerRepo := kvrepo.NewLedgerRepo(a.Store, profile, cfg.Location)
	historyRepo := kvrepo.NewHistoryRepo(a.Store, profile, cfg.Location)

	a.Medications = medications.NewService(catalogRepo, clk, log)
	a.Doses = doses.NewService(ledgerRepo, a.Medications, clk, log)
	a.History = history.NewTracker(historyRepo, clk, cfg.HistoryLimit, log)
	a.Schedule = schedule.NewProjector(a.Medications, a.Doses, clk)
	a.Adherence = adherence.NewAggregator(a.Medications, a.Doses, clk)
	a.Transfer = transfer.NewService(a.Medications, a.Doses, a.History, cfg.Location, profile, log)
	a.Reminders = reminders.NewScheduler(a.Notifier, a.Doses, clk, log)
	a.Missed = reminders.NewMissedWatcher(a.Schedule, a.Notifier, cfg.MissedCheckInterval, log)

	// cada cambio del catálogo queda en el historial y re-arma los recordatorios
	a.Medications.Subscribe(a.History)
	a.Medications.Subscribe(a.Reminders)

	return a, nil
}

// Start pide permiso al notifier, arma los recordatorios y arranca el watcher.
// Sin permiso la app sigue funcionando, solo que sin avisos.
func (a *App) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)

	if err := a.Notifier.RequestPermission(ctx); err != nil {
		a.Log.Warn("notifications disabled", logger.Fields{"error": err})
		a.Reminders.Stop()
		return nil
	}

	meds, err := a.Medications.List(ctx)
	if err != nil {
		return fmt.Errorf("app: load catalog: %w", err)
	}
	a.Reminders.Sync(meds)
	a.Missed.Start(ctx)

	a.Log.Info("reminders armed", logger.Fields{"medications": len(meds), "pending": len(a.Reminders.Pending())})
	return nil
}

// Close frena timers y cierra los stores abiertos.
func (a *App) Close() error {
	if a.cancel != nil {
		a.cancel()
	}
	if a.Reminders != nil {
		a.Reminders.Stop()
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) openStore() (kvstore.Store, error) {
	primary, err := a.openDriver(a.Config.Store.Driver)
	if err != nil {
		return nil, err
	}
	if a.Config.Store.Mirror == "" {
		return primary, nil
	}

	secondary, err := a.openDriver(a.Config.Store.Mirror)
	if err != nil {
		return nil, err
	}
	return mirror.New(primary, secondary, a.Log), nil
}

func (a *App) openDriver(driver string) (kvstore.Store, error) {
	switch driver {
	case config.StoreMemory:
		return memory.NewKV(), nil

	case config.StoreSQLite:
		s, err := sqlite.Open(a.Config.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		a.Log.Info("store opened", logger.Fields{"driver": driver, "path": a.Config.Store.SQLitePath})
		return s, nil

	case config.StorePostgres:
		db, err := pg.Open(a.Config.Store.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("%w: postgres open: %v", kvstore.ErrStorage, err)
		}
		a.closers = append(a.closers, db.Close)
		if err := pg.Migrate(context.Background(), db); err != nil {
			return nil, fmt.Errorf("%w: postgres migrate: %v", kvstore.ErrStorage, err)
		}
		a.Log.Info("store opened", logger.Fields{"driver": driver})
		return pg.NewKVStore(db), nil
	}
	return nil, fmt.Errorf("app: unknown store driver %q", driver)
}

func newNotifier(cfg config.Config, log logger.Logger) notifier.Notifier {
	switch cfg.Notifier.Kind {
	case config.NotifierEmail:
		return sendgridmail.New(sendgridmail.Config{
			APIKey:    cfg.Notifier.SendGridAPIKey,
			FromEmail: cfg.Notifier.FromEmail,
			FromName:  cfg.Notifier.FromName,
			ToEmail:   cfg.Notifier.ToEmail,
			ToName:    cfg.Notifier.ToName,
		})
	case config.NotifierWebhook:
		return webhook.New(httpclient.New(httpclient.DefaultTimeout), cfg.Notifier.WebhookURL, cfg.Profile)
	default:
		return lognotify.New(log)
	}
}
