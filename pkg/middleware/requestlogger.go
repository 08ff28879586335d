package middleware

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/plantstore/pkg/logger"
)

// RequestLogger builds a request-scoped logger enriched with correlation_id,
// user_id, session_id, trace_id and span_id and stores it in the context.
// Handlers retrieve it with logger.FromContext.
//
// Mount it after RequestLogging, Tracing and OptionalAuth so those fields exist.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if claims := ClaimsFromContext(ctx); claims != nil {
				ctx = logger.WithUserID(ctx, claims.UserID)
				if claims.SessionID != "" {
					ctx = logger.WithSessionID(ctx, claims.SessionID)
				}
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
