package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"

	NotifierLog     = "log"
	NotifierEmail   = "email"
	NotifierWebhook = "webhook"
)

type Store struct {
	Driver      string
	Mirror      string // vacío = sin espejo
	SQLitePath  string
	PostgresDSN string
}

type Notifier struct {
	Kind string

	SendGridAPIKey string
	FromEmail      string
	FromName       string
	ToEmail        string
	ToName         string

	WebhookURL string
}

type Config struct {
	Addr     string
	Profile  string
	Location *time.Location

	LogLevel  string
	LogFormat string
	AppName   string

	Store    Store
	Notifier Notifier

	MissedCheckInterval time.Duration
	HistoryLimit        int
}

// Load lee .env (si existe) y luego el entorno del proceso.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv construye la config desde un lookup arbitrario (os.Getenv en prod).
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Addr:      ":" + get("PORT", "8080"),
		Profile:   get("PROFILE", "default"),
		LogLevel:  get("LOG_LEVEL", "info"),
		LogFormat: get("LOG_FORMAT", "text"),
		AppName:   get("APP_NAME", "medication-tracker"),
		Store: Store{
			Driver:      strings.ToLower(get("STORE_DRIVER", "")),
			Mirror:      strings.ToLower(get("STORE_MIRROR", "")),
			SQLitePath:  get("SQLITE_PATH", ""),
			PostgresDSN: get("DB_DSN", ""),
		},
		Notifier: Notifier{
			Kind:           strings.ToLower(get("NOTIFIER", NotifierLog)),
			SendGridAPIKey: get("SENDGRID_API_KEY", ""),
			FromEmail:      get("SENDGRID_NOTIFICATIONS_FROM_EMAIL", ""),
			FromName:       get("SENDGRID_FROM_NAME", "Medication Tracker"),
			ToEmail:        get("NOTIFY_TO_EMAIL", ""),
			ToName:         get("NOTIFY_TO_NAME", ""),
			WebhookURL:     get("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	loc, err := time.LoadLocation(get("APP_TIMEZONE", "Local"))
	if err != nil {
		return Config{}, fmt.Errorf("config: APP_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	interval, err := time.ParseDuration(get("MISSED_CHECK_INTERVAL", "5m"))
	if err != nil || interval <= 0 {
		return Config{}, fmt.Errorf("config: MISSED_CHECK_INTERVAL must be a positive duration")
	}
	cfg.MissedCheckInterval = interval

	limit, err := strconv.Atoi(get("HISTORY_LIMIT", "0"))
	if err != nil || limit < 0 {
		return Config{}, fmt.Errorf("config: HISTORY_LIMIT must be a non-negative integer")
	}
	cfg.HistoryLimit = limit

	// Sin driver explícito: postgres si hay DSN, sqlite si hay path, si no memoria.
	if cfg.Store.Driver == "" {
		switch {
		case cfg.Store.PostgresDSN != "":
			cfg.Store.Driver = StorePostgres
		case cfg.Store.SQLitePath != "":
			cfg.Store.Driver = StoreSQLite
		default:
			cfg.Store.Driver = StoreMemory
		}
	}
	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = "medications.db"
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if err := validDriver("STORE_DRIVER", c.Store.Driver, false); err != nil {
		return err
	}
	if err := validDriver("STORE_MIRROR", c.Store.Mirror, true); err != nil {
		return err
	}
	if c.Store.Mirror != "" && c.Store.Mirror == c.Store.Driver {
		return errors.New("config: STORE_MIRROR must differ from STORE_DRIVER")
	}
	if (c.Store.Driver == StorePostgres || c.Store.Mirror == StorePostgres) && c.Store.PostgresDSN == "" {
		return errors.New("config: DB_DSN is required for the postgres store")
	}

	switch c.Notifier.Kind {
	case NotifierLog:
	case NotifierEmail:
		if c.Notifier.SendGridAPIKey == "" || c.Notifier.FromEmail == "" || c.Notifier.ToEmail == "" {
			return errors.New("config: NOTIFIER=email requires SENDGRID_API_KEY, SENDGRID_NOTIFICATIONS_FROM_EMAIL and NOTIFY_TO_EMAIL")
		}
	case NotifierWebhook:
		if c.Notifier.WebhookURL == "" {
			return errors.New("config: NOTIFIER=webhook requires NOTIFY_WEBHOOK_URL")
		}
	default:
		return fmt.Errorf("config: unknown NOTIFIER %q", c.Notifier.Kind)
	}
	return nil
}

func validDriver(key, v string, allowEmpty bool) error {
	switch v {
	case StoreMemory, StoreSQLite, StorePostgres:
		return nil
	case "":
		if allowEmpty {
			return nil
		}
	}
	return fmt.Errorf("config: unknown %s %q", key, v)
}
