package sendgridmail

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/aloc23/medication-tracker-app/internal/ports/notifier"
)

func TestNotify_BuildsMessage(t *testing.T) {
	n := New(Config{APIKey: "k", FromEmail: "meds@example.com", FromName: "Meds", ToEmail: "gary@example.com", ToName: "Gary"})

	var got *mail.SGMailV3
	n.send = func(msg *mail.SGMailV3) error {
		got = msg
		return nil
	}

	if err := n.Notify(context.Background(), "Time to take Aspirin (2)", "08:00"); err != nil {
		t.Fatalf("Notify error: %v", err)
	}
	if got == nil || got.Subject != "Time to take Aspirin (2)" || got.From.Address != "meds@example.com" {
		t.Fatalf("unexpected message %+v", got)
	}
	if len(got.Personalizations) != 1 || got.Personalizations[0].To[0].Address != "gary@example.com" {
		t.Fatalf("unexpected recipients %+v", got.Personalizations)
	}
	if len(got.Content) != 2 || !strings.Contains(got.Content[0].Value, "08:00") {
		t.Fatalf("unexpected content %+v", got.Content)
	}
}

func TestNotify_PropagatesSendError(t *testing.T) {
	n := New(Config{FromEmail: "a@example.com", ToEmail: "b@example.com"})
	boom := errors.New("boom")
	n.send = func(msg *mail.SGMailV3) error { return boom }

	if err := n.Notify(context.Background(), "t", ""); !errors.Is(err, boom) {
		t.Fatalf("expected send error, got %v", err)
	}
}

func TestRequestPermission_RequiresAddresses(t *testing.T) {
	if err := New(Config{FromEmail: "a@example.com"}).RequestPermission(context.Background()); !errors.Is(err, notifier.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if err := New(Config{FromEmail: "a@example.com", ToEmail: "b@example.com"}).RequestPermission(context.Background()); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
