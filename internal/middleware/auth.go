package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/HammerMeetNail/socialcore/internal/handlers"
	"github.com/HammerMeetNail/socialcore/internal/logging"
	"github.com/HammerMeetNail/socialcore/internal/models"
	"github.com/HammerMeetNail/socialcore/internal/services"
)

type SessionResolver interface {
	Resolve(ctx context.Context, token string) (int64, error)
}

type UserGetter interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type AuthMiddleware struct {
	sessions SessionResolver
	users    UserGetter
}

func NewAuthMiddleware(sessions SessionResolver, users UserGetter) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions, users: users}
}

// Authenticate resolves the session token and adds the user to the context
// if valid. Does not reject unauthenticated requests. A session store outage
// leaves the request anonymous.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := handlers.SessionTokenFromRequest(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := m.sessions.Resolve(r.Context(), token)
		if errors.Is(err, services.ErrUnavailable) {
			logging.Error("Failed to resolve session", map[string]interface{}{"error": err.Error()})
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.users.GetByID(r.Context(), userID)
		if err != nil {
			if !errors.Is(err, services.ErrUserNotFound) {
				logging.Warn("Failed to load session user", map[string]interface{}{"error": err.Error(), "user_id": userID})
			}
			next.ServeHTTP(w, r)
			return
		}
		if user.Status == models.UserStatusSuspended {
			next.ServeHTTP(w, r)
			return
		}

		ctx := handlers.SetUserInContext(r.Context(), user)
		ctx = handlers.SetTokenInContext(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects unauthenticated requests with 401.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handlers.GetUserFromContext(r.Context()) == nil {
			writeJSONError(w, http.StatusUnauthorized, "Authentication required", "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSONError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + message + `","code":"` + code + `"}`))
}
