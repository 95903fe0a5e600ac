package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/carbon-tracker/internal/apperror"
	"github.com/sakif/carbon-tracker/internal/auth"
	"github.com/sakif/carbon-tracker/internal/repository"
	"github.com/sakif/carbon-tracker/internal/service"
)

type contextKey string

const (
	storeKey   contextKey = "store"
	sessionKey contextKey = "session"
)

// StoreScope opens one storage handle per request and closes it when the
// request finishes.
func StoreScope(provider repository.Provider, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h, err := provider.Open(r.Context())
			if err != nil {
				logger.Error("failed to open storage handle", slog.String("error", err.Error()))
				writeProblem(w, http.StatusServiceUnavailable, apperror.CodeStorage, "storage is unavailable, try again later")
				return
			}
			defer func() {
				if err := h.Close(); err != nil {
					logger.Warn("failed to release storage handle", slog.String("error", err.Error()))
				}
			}()

			next.ServeHTTP(w, r.WithContext(WithStore(r.Context(), h)))
		})
	}
}

// RequireSession resolves the authenticated user into a
// *service.SessionContext. It must run after auth.RequireAuth and
// StoreScope.
func RequireSession(sessions *service.Sessions, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := auth.UserIDFromContext(r.Context())
			st, hasStore := StoreFrom(r.Context())
			if !ok || !hasStore {
				writeProblem(w, http.StatusUnauthorized, apperror.CodeUnauthorized, "valid session required")
				return
			}

			sess, err := sessions.Resume(r.Context(), st, userID)
			switch {
			case err == nil:
			case errors.Is(err, apperror.ErrNotFound):
				writeProblem(w, http.StatusUnauthorized, apperror.CodeUnauthorized, "session user no longer exists")
				return
			default:
				logger.Error("failed to resume session",
					slog.String("userID", userID),
					slog.String("error", err.Error()),
				)
				writeProblem(w, http.StatusServiceUnavailable, apperror.CodeStorage, "storage is unavailable, try again later")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

func WithStore(ctx context.Context, h repository.Handle) context.Context {
	return context.WithValue(ctx, storeKey, h)
}

func StoreFrom(ctx context.Context) (repository.Handle, bool) {
	h, ok := ctx.Value(storeKey).(repository.Handle)
	return h, ok
}

func WithSession(ctx context.Context, sess *service.SessionContext) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

func SessionFrom(ctx context.Context) (*service.SessionContext, bool) {
	sess, ok := ctx.Value(sessionKey).(*service.SessionContext)
	return sess, ok
}

func writeProblem(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + kind + `","message":"` + message + `"}`))
}
