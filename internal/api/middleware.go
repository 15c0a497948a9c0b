package api

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/marcusv/decksched/internal/logger"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// generateRequestID creates a random request ID.
func generateRequestID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// loggingMiddleware logs HTTP requests with timing, status codes, and request IDs.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}

		// Create a request-scoped logger with the request ID
		log := logger.Default().WithFields(map[string]any{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
		})

		if r.RemoteAddr != "" {
			log = log.WithField("remote_addr", r.RemoteAddr)
		}

		// Store logger in context
		ctx := logger.NewContext(r.Context(), log)
		r = r.WithContext(ctx)

		w.Header().Set("X-Request-ID", requestID)

		// Wrap response writer to capture status
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		log.Debug("request started")

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		log = log.WithFields(map[string]any{
			"status":      wrapped.status,
			"size":        wrapped.size,
			"duration_ms": duration.Milliseconds(),
		})

		if wrapped.status >= 500 {
			log.Error("request completed with server error")
		} else if wrapped.status >= 400 {
			log.Warn("request completed with client error")
		} else {
			log.Info("request completed")
		}
	})
}

// recoveryMiddleware recovers from panics and logs them.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log := logger.FromContext(r.Context())
				log.Error("panic recovered: %v", rec)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// securityHeadersMiddleware adds security headers to responses.
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
