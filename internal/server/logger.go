package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/woozymasta/skyglow/internal/metrics"
)

// RequestLogger is a middleware to log HTTP requests and record request
// metrics.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(ww, r)

		took := time.Since(start)
		route := routeOf(r.URL.Path)
		metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(ww.statusCode)).Inc()
		metrics.RequestDurationMs.WithLabelValues(route).Observe(float64(took.Milliseconds()))

		ev := log.Info()
		if route == "metrics" || route == "healthz" {
			ev = log.Debug()
		}
		ev.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.statusCode).
			Int("bytes", ww.bytes).
			Str("ip", r.RemoteAddr).
			Dur("duration", took).
			Msg("Request processed")
	})
}

// routeOf maps a request path onto a bounded metrics label.
func routeOf(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/lightmap/"):
		return "lightmap"
	case path == "/api/skyquality":
		return "skyquality"
	case path == "/api/darkspots":
		return "darkspots"
	case path == "/healthz":
		return "healthz"
	case path == "/metrics":
		return "metrics"
	}
	return "other"
}

type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

// WriteHeader captures the status code before writing to the underlying response writer.
func (w *responseWriterWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriterWrapper) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}
