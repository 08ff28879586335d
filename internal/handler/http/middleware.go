package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/utafrali/plantstore/internal/session"
	apperrors "github.com/utafrali/plantstore/pkg/errors"
	"github.com/utafrali/plantstore/pkg/httputil"
	"github.com/utafrali/plantstore/pkg/logger"
	"github.com/utafrali/plantstore/pkg/middleware"
)

// SessionResolver loads a stored session by id.
type SessionResolver interface {
	Get(ctx context.Context, id string) (*session.UserSession, error)
}

// ContentTypeJSON enforces that POST, PUT and PATCH requests with a body have
// Content-Type: application/json. Bodyless requests such as logout pass.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasBody := r.ContentLength != 0
		if hasBody && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
			ct := r.Header.Get("Content-Type")
			if !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNSUPPORTED_MEDIA_TYPE", Message: "Content-Type must be application/json"},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// SessionContext resolves the session named by the bearer token claims and
// stores it in the request context. Requests without claims, or whose session
// is gone or belongs to another user, continue as anonymous.
func SessionContext(store SessionResolver, base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			var sess session.Session = session.Anonymous()

			if claims := middleware.ClaimsFromContext(ctx); claims != nil && claims.SessionID != "" {
				stored, err := store.Get(ctx, claims.SessionID)
				switch {
				case err == nil && stored.CurrentUser().ID == claims.UserID:
					sess = stored
				case err == nil:
					logger.WithContext(ctx, base).WarnContext(ctx, "session belongs to another user",
						slog.String("session_id", claims.SessionID),
					)
				case errors.Is(err, apperrors.ErrNotFound):
					// expired or logged out
				default:
					logger.WithContext(ctx, base).ErrorContext(ctx, "session lookup failed",
						slog.String("session_id", claims.SessionID),
						slog.String("error", err.Error()),
					)
				}
			}

			next.ServeHTTP(w, r.WithContext(session.NewContext(ctx, sess)))
		})
	}
}

// RequireLogin rejects requests without a logged-in session.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session.FromContext(r.Context()).CurrentUser() == nil {
			httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "login required"},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
