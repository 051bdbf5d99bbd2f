// Package auth resolves the authenticated caller for wallet endpoints.
// Tokens are opaque and server-side: issued at registration/login, mapped
// to a user ID in the store.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fundlift/custody/internal/model"
	"github.com/fundlift/custody/internal/store"
)

type contextKey struct{}

// NewToken issues a fresh opaque bearer token.
func NewToken() string {
	return uuid.NewString()
}

// FromContext returns the authenticated user placed by Middleware.
func FromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(contextKey{}).(*model.User)
	return u, ok
}

// Middleware authenticates requests by bearer token and attaches the user
// record to the request context. Role checks stay with the handlers and
// the service layer; this only establishes identity.
func Middleware(st *store.Store, lg zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			unauthorized(w, "missing bearer token")
			return
		}

		userID, err := st.UserIDForToken(token)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				unauthorized(w, "invalid token")
				return
			}
			lg.Error().Err(err).Msg("token lookup failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		user, err := st.User(userID)
		if err != nil {
			lg.Error().Err(err).Str("user_id", userID).Msg("user lookup failed")
			unauthorized(w, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, user)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(h, prefix))
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(model.ErrorResponse{Error: msg})
}
