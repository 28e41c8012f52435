// Package middleware carries the application's own HTTP middleware: bearer
// authentication, store context resolution and store-role authorization.
// Generic concerns (CORS, logging, rate limiting, panic recovery) live in
// pkg/middleware.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tradeyard/tradeyard/app/models"
	"github.com/tradeyard/tradeyard/app/repositories"
	"github.com/tradeyard/tradeyard/pkg/auth"
	"github.com/tradeyard/tradeyard/pkg/rbac"
	"github.com/tradeyard/tradeyard/pkg/response"
)

type contextKey string

const (
	userKey      contextKey = "user"
	principalKey contextKey = "principal"
	storeKey     contextKey = "store"
	roleKey      contextKey = "storeRole"
)

// Authenticate validates the Bearer token and loads the live user record.
// The principal handed downstream is built from the roles currently in the
// database, not from the token's claims, so a revoked or upgraded store
// role takes effect on the very next request.
func Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			response.Error(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		user, err := repositories.NewUserRepository().FindByID(claims.UserID)
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "account no longer exists")
			return
		}

		rctx := context.WithValue(r.Context(), userKey, user)
		rctx = context.WithValue(rctx, principalKey, user.Principal())
		next.ServeHTTP(w, r.WithContext(rctx))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// UserFrom returns the authenticated user placed by Authenticate.
func UserFrom(r *http.Request) (models.User, bool) {
	u, ok := r.Context().Value(userKey).(models.User)
	return u, ok
}

// PrincipalFrom returns the authorization principal placed by Authenticate.
func PrincipalFrom(r *http.Request) (rbac.Principal, bool) {
	p, ok := r.Context().Value(principalKey).(rbac.Principal)
	return p, ok
}
