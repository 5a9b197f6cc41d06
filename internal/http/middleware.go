package http

import (
	"context"
	"net/http"
	"strings"

	"moneypal/internal/apperr"
	"moneypal/internal/auth"
)

type contextKey string

const userIDKey contextKey = "user_id"

// requireAuth verifies the Bearer access token and stores the user id
// in the request context.
func requireAuth(tokens *auth.TokenProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, r, apperr.Unauthorized("missing bearer token"))
				return
			}
			userID, err := tokens.VerifyAccess(token)
			if err != nil {
				writeError(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// userID reads the authenticated user id set by requireAuth.
func userID(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}
