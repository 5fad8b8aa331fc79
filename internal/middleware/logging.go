package middleware

import (
	"net/http"
	"time"

	"github.com/HammerMeetNail/friendgraph/internal/logging"
)

// statusRecorder captures the status code and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

// RequestLogger logs each request on the worker's probe server. Successful
// requests to quiet paths are logged at debug level so orchestrator probes
// do not flood the log.
type RequestLogger struct {
	logger *logging.Logger
	quiet  map[string]struct{}
}

func NewRequestLogger(logger *logging.Logger, quietPaths ...string) *RequestLogger {
	if logger == nil {
		logger = logging.Default
	}
	quiet := make(map[string]struct{}, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = struct{}{}
	}
	return &RequestLogger{logger: logger.WithField("component", "http"), quiet: quiet}
}

func (l *RequestLogger) Apply(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(recorder, r)

		fields := map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      recorder.statusCode,
			"size":        recorder.size,
			"duration_ms": time.Since(start).Milliseconds(),
			"remote_addr": r.RemoteAddr,
		}

		_, quiet := l.quiet[r.URL.Path]
		switch {
		case recorder.statusCode >= 500:
			l.logger.Error("HTTP request", fields)
		case recorder.statusCode >= 400:
			l.logger.Warn("HTTP request", fields)
		case quiet:
			l.logger.Debug("HTTP request", fields)
		default:
			l.logger.Info("HTTP request", fields)
		}
	})
}
