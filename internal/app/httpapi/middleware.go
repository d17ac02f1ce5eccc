package httpapi

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/NeoReef/game-backend/pkg/logger"
)

// requestLogger logs every request with method, path, status and duration.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start).String(),
			)
		})
	}
}

// rateLimiter applies a process-wide token bucket. Per-client fairness is
// left to the deployment's front proxy.
func rateLimiter() func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(100), 200)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, errTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

var errTooManyRequests = &rateLimitError{}

type rateLimitError struct{}

func (*rateLimitError) Error() string { return "rate limit exceeded" }

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
