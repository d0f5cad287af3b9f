// Package webhook publica cada aviso como un POST JSON.
package webhook

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/aloc23/medication-tracker-app/internal/platform/httpclient"
	"github.com/aloc23/medication-tracker-app/internal/ports/notifier"
)

// Payload es el cuerpo que recibe el endpoint.
type Payload struct {
	Profile string    `json:"profile"`
	Title   string    `json:"title"`
	Body    string    `json:"body,omitempty"`
	SentAt  time.Time `json:"sent_at"`
}

type Notifier struct {
	client  *httpclient.Client
	url     string
	profile string
	now     func() time.Time
}

var _ notifier.Notifier = (*Notifier)(nil)

func New(client *httpclient.Client, endpoint, profile string) *Notifier {
	if client == nil {
		client = httpclient.New(httpclient.DefaultTimeout)
	}
	return &Notifier{client: client, url: endpoint, profile: profile, now: time.Now}
}

func (n *Notifier) RequestPermission(ctx context.Context) error {
	u, err := url.Parse(n.url)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.Join(notifier.ErrNotConfigured, errors.New("webhook url must be absolute http(s)"))
	}
	return nil
}

func (n *Notifier) Notify(ctx context.Context, title, body string) error {
	p := Payload{Profile: n.profile, Title: title, Body: body, SentAt: n.now().UTC()}
	return n.client.DoJSON(ctx, http.MethodPost, n.url, nil, p, nil)
}
