package middleware

import (
	"log/slog"
	"net/http"

	"github.com/ironfuel/cartapi/pkg/logger"
)

// RequestLogger stores a request-scoped logger in the context, enriched with
// the correlation id and the active span. Mount it after RequestLogging and
// Tracing so both are available.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
