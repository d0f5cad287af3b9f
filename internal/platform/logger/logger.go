package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return FormatJSON
	}
	return FormatText
}

// Fields son los pares clave/valor que acompañan a cada línea.
type Fields = map[string]any

type Logger interface {
	With(fields Fields) Logger

	Debug(msg string, fields Fields)
	Info(msg string, fields Fields)
	Warn(msg string, fields Fields)
	Error(msg string, fields Fields)
}

// StdLogger escribe una línea por entrada, en texto key=value o JSON.
type StdLogger struct {
	mu     *sync.Mutex
	std    *log.Logger
	level  Level
	format Format
	now    func() time.Time
	base   Fields
}

type Options struct {
	Level  Level
	Format Format
	App    string

	// Output por defecto es os.Stdout.
	Output io.Writer
}

func New(opts Options) Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	base := Fields{}
	if app := strings.TrimSpace(opts.App); app != "" {
		base["app"] = app
	}

	format := opts.Format
	if format == "" {
		format = FormatText
	}

	return &StdLogger{
		mu:     &sync.Mutex{},
		std:    log.New(out, "", 0),
		level:  opts.Level,
		format: format,
		now:    time.Now,
		base:   base,
	}
}

// NewFromEnv lee LOG_LEVEL, LOG_FORMAT y APP_NAME (default medication-tracker).
func NewFromEnv() Logger {
	app := os.Getenv("APP_NAME")
	if strings.TrimSpace(app) == "" {
		app = "medication-tracker"
	}
	return New(Options{
		Level:  ParseLevel(os.Getenv("LOG_LEVEL")),
		Format: ParseFormat(os.Getenv("LOG_FORMAT")),
		App:    app,
	})
}

// Nop descarta todo; útil en tests.
func Nop() Logger {
	return nopLogger{}
}

func (l *StdLogger) With(fields Fields) Logger {
	if len(fields) == 0 {
		return l
	}

	merged := make(Fields, len(l.base)+len(fields))
	for k, v := range l.base {
		merged[k] = v
	}
	for k, v := range fields {
		if strings.TrimSpace(k) == "" {
			continue
		}
		merged[k] = v
	}

	// comparte writer, mutex y nivel con el padre
	return &StdLogger{
		mu:     l.mu,
		std:    l.std,
		level:  l.level,
		format: l.format,
		now:    l.now,
		base:   merged,
	}
}

func (l *StdLogger) Debug(msg string, fields Fields) { l.log(Debug, msg, fields) }
func (l *StdLogger) Info(msg string, fields Fields)  { l.log(Info, msg, fields) }
func (l *StdLogger) Warn(msg string, fields Fields)  { l.log(Warn, msg, fields) }
func (l *StdLogger) Error(msg string, fields Fields) { l.log(Error, msg, fields) }

func (l *StdLogger) log(lvl Level, msg string, fields Fields) {
	if lvl < l.level {
		return
	}

	entry := make(Fields, len(l.base)+len(fields)+3)
	for k, v := range l.base {
		entry[k] = v
	}
	for k, v := range fields {
		if strings.TrimSpace(k) == "" {
			continue
		}
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		entry[k] = v
	}
	entry["ts"] = l.now().Format(time.RFC3339Nano)
	entry["level"] = lvl.String()
	entry["msg"] = msg

	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.format {
	case FormatJSON:
		b, err := json.Marshal(entry)
		if err != nil {
			l.std.Println(formatText(entry))
			return
		}
		l.std.Println(string(b))
	default:
		l.std.Println(formatText(entry))
	}
}

func formatText(m Fields) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := fmt.Sprintf("%v", m[k])
		if strings.ContainsAny(v, " =\"") {
			v = fmt.Sprintf("%q", v)
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, " ")
}

type nopLogger struct{}

func (n nopLogger) With(Fields) Logger { return n }
func (nopLogger) Debug(string, Fields) {}
func (nopLogger) Info(string, Fields)  {}
func (nopLogger) Warn(string, Fields)  {}
func (nopLogger) Error(string, Fields) {}
