// Package lognotify es el notifier por defecto: escribe cada aviso en el log.
package lognotify

import (
	"context"

	"github.com/aloc23/medication-tracker-app/internal/platform/logger"
	"github.com/aloc23/medication-tracker-app/internal/ports/notifier"
)

type Notifier struct {
	log logger.Logger
}

var _ notifier.Notifier = (*Notifier)(nil)

func New(log logger.Logger) *Notifier {
	if log == nil {
		log = logger.Nop()
	}
	return &Notifier{log: log.With(logger.Fields{"component": "notifier"})}
}

// RequestPermission no necesita nada: el log siempre está disponible.
func (n *Notifier) RequestPermission(ctx context.Context) error {
	return nil
}

func (n *Notifier) Notify(ctx context.Context, title, body string) error {
	n.log.Info("notification", logger.Fields{"title": title, "body": body})
	return nil
}
