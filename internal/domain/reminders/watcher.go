package reminders

import (
	"context"
	"time"

	"github.com/aloc23/medication-tracker-app/internal/domain/schedule"
	"github.com/aloc23/medication-tracker-app/internal/platform/dates"
	"github.com/aloc23/medication-tracker-app/internal/platform/logger"
	"github.com/aloc23/medication-tracker-app/internal/ports/notifier"
)

type AgendaSource interface {
	Today() time.Time
	Agenda(ctx context.Context, day time.Time) ([]schedule.AgendaItem, error)
}

// MissedWatcher revisa cada interval las tomas vencidas del día y avisa una sola vez por toma.
type MissedWatcher struct {
	agenda   AgendaSource
	notifier notifier.Notifier
	interval time.Duration
	log      logger.Logger

	day  string
	sent map[string]struct{}
}

func NewMissedWatcher(agenda AgendaSource, n notifier.Notifier, interval time.Duration, log logger.Logger) *MissedWatcher {
	if log == nil {
		log = logger.Nop()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &MissedWatcher{
		agenda:   agenda,
		notifier: n,
		interval: interval,
		log:      log.With(logger.Fields{"component": "missed-watcher"}),
		sent:     map[string]struct{}{},
	}
}

// Start corre el loop hasta que ctx se cancele.
func (w *MissedWatcher) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *MissedWatcher) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Check(ctx); err != nil {
				w.log.Error("missed dose check failed", logger.Fields{"error": err})
			}
		}
	}
}

// Check avisa de las tomas vencidas que todavía no se avisaron hoy y devuelve cuántas.
// No es seguro llamarlo en paralelo; el loop lo llama de a uno.
func (w *MissedWatcher) Check(ctx context.Context) (int, error) {
	today := w.agenda.Today()
	date := dates.Format(today)
	if date != w.day {
		w.day = date
		w.sent = map[string]struct{}{}
	}

	items, err := w.agenda.Agenda(ctx, today)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, it := range items {
		if it.Status != schedule.StatusMissed || !it.Reminder {
			continue
		}
		key := slotKey(it.MedicationID, it.Time) + "|" + date
		if _, done := w.sent[key]; done {
			continue
		}

		title := "Missed dose: " + it.Name
		body := "Scheduled at " + it.Time + " was not marked as taken"
		if err := w.notifier.Notify(ctx, title, body); err != nil {
			w.log.Error("missed dose notification failed", logger.Fields{"key": key, "error": err})
			continue
		}
		w.sent[key] = struct{}{}
		n++
	}
	if n > 0 {
		w.log.Info("missed dose notifications sent", logger.Fields{"count": n, "date": date})
	}
	return n, nil
}
