package http

import (
	"context"
	"net/http"
	"strings"

	"vocab-quiz-service/internal/domain"
)

// Authenticator resolves a bearer token to a user id. Identity itself is an
// external capability; every API operation requires a resolved user first.
type Authenticator interface {
	Authenticate(token string) (int64, error)
}

type contextKey string

const userIDKey contextKey = "userID"

// UserID extracts the authenticated user id from a request context.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// requireUser authenticates the request before any core logic runs. The
// token comes from the Authorization header, or from a token query
// parameter for websocket clients that cannot set headers.
func (h *Handler) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, domain.ErrUnauthorized)
			return
		}
		userID, err := h.auth.Authenticate(token)
		if err != nil {
			writeError(w, domain.ErrUnauthorized)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	}
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
