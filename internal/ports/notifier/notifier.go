package notifier

import (
	"context"
	"errors"
)

var ErrNotConfigured = errors.New("notifier not configured")

// Notifier es fire-and-forget: el dominio solo registra el error, nunca reintenta.
type Notifier interface {
	RequestPermission(ctx context.Context) error
	Notify(ctx context.Context, title, body string) error
}
