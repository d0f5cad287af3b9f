package middleware

import (
	"context"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/aloc23/medication-tracker-app/internal/platform/logger"
)

type ctxKey string

const loggerKey ctxKey = "logger"

// RequestLog loguea una línea por request y deja en el contexto un logger con request_id.
// Va después de chimw.RequestID para que el id ya exista.
func RequestLog(log logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			reqLog := log.With(logger.Fields{"request_id": chimw.GetReqID(r.Context())})
			ctx := context.WithValue(r.Context(), loggerKey, reqLog)

			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := logger.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      status,
				"bytes":       ww.BytesWritten(),
				"duration_ms": time.Since(start).Milliseconds(),
				"remote":      r.RemoteAddr,
			}
			switch {
			case status >= 500:
				reqLog.Error("request", fields)
			case status >= 400:
				reqLog.Warn("request", fields)
			default:
				reqLog.Info("request", fields)
			}
		})
	}
}

// GetLogger devuelve el logger del request, o Nop si no hay.
func GetLogger(ctx context.Context) logger.Logger {
	if l, ok := ctx.Value(loggerKey).(logger.Logger); ok {
		return l
	}
	return logger.Nop()
}
