package middleware

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"bboard/pkg/common"
	"bboard/pkg/logger"
)

type traceKey int

const requestIDKey traceKey = 0

type Logging struct {
	logger *zap.SugaredLogger
}

func NewLoggingMiddleware(l *zap.SugaredLogger) *Logging {
	return &Logging{logger: l}
}

// SetupTracing tags the request with a random id so all log lines of one
// request can be grepped together.
func (lm *Logging) SetupTracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), requestIDKey, common.RandStringRunes(8))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SetupLogging puts a request-scoped logger into the context for
// logger.Log(ctx) down the handler chain.
func (lm *Logging) SetupLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqLogger := lm.logger
		if id, ok := r.Context().Value(requestIDKey).(string); ok {
			reqLogger = reqLogger.With("request_id", id)
		}
		ctx := logger.ToContext(r.Context(), reqLogger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (lm *Logging) AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Log(r.Context()).Infow("access",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"took", time.Since(start),
		)
	})
}
