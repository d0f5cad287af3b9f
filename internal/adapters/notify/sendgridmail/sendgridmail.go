// Package sendgridmail manda cada aviso como email vía SendGrid.
package sendgridmail

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/aloc23/medication-tracker-app/internal/ports/notifier"
)

type Config struct {
	APIKey    string
	FromEmail string
	FromName  string
	ToEmail   string
	ToName    string
}

type Notifier struct {
	from *mail.Email
	to   *mail.Email

	// send se reemplaza en tests
	send func(msg *mail.SGMailV3) error
}

var _ notifier.Notifier = (*Notifier)(nil)

func New(cfg Config) *Notifier {
	client := sendgrid.NewSendClient(cfg.APIKey)

	n := &Notifier{
		from: mail.NewEmail(cfg.FromName, cfg.FromEmail),
		to:   mail.NewEmail(cfg.ToName, cfg.ToEmail),
	}
	n.send = func(msg *mail.SGMailV3) error {
		resp, err := client.Send(msg)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 300 {
			return fmt.Errorf("sendgrid: status=%d body=%s", resp.StatusCode, strings.TrimSpace(resp.Body))
		}
		return nil
	}
	return n
}

// RequestPermission solo verifica que haya remitente y destinatario.
func (n *Notifier) RequestPermission(ctx context.Context) error {
	if n.from.Address == "" || n.to.Address == "" {
		return notifier.ErrNotConfigured
	}
	return nil
}

func (n *Notifier) Notify(ctx context.Context, title, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(title) == "" {
		return errors.New("sendgrid: empty title")
	}

	plain := title
	htmlContent := fmt.Sprintf("<p><strong>%s</strong></p>", html.EscapeString(title))
	if body != "" {
		plain += "\n\n" + body
		htmlContent += fmt.Sprintf("<p>%s</p>", html.EscapeString(body))
	}

	msg := mail.NewSingleEmail(n.from, title, n.to, plain, htmlContent)
	return n.send(msg)
}
