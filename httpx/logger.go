package httpx

import (
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mbolis/alumni-survey/log"
)

// RequestLogger logs one line per request, once it has been served.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		entry := log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   m.Code,
			"bytes":    m.Written,
			"duration": m.Duration,
			"remote":   r.RemoteAddr,
		})
		if id := middleware.GetReqID(r.Context()); id != "" {
			entry = entry.WithField("request_id", id)
		}

		switch {
		case m.Code >= 500:
			entry.Error("request")
		case m.Code >= 400:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	})
}
