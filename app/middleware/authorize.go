package middleware

import (
	"context"
	"net/http"

	"github.com/tradeyard/tradeyard/pkg/metrics"
	"github.com/tradeyard/tradeyard/pkg/rbac"
	"github.com/tradeyard/tradeyard/pkg/response"
	"github.com/tradeyard/tradeyard/pkg/router"
)

// RequireStoreRole gates a route on the resolved store. Global admins pass
// unconditionally; everyone else needs one of the allowed store roles in
// exactly this store. The matched role is exposed downstream via RoleFrom.
// Runs after Authenticate and StoreContext.
func RequireStoreRole(allowed ...rbac.StoreRole) router.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r)
			if !ok {
				response.Unauthorized(w)
				return
			}
			store, ok := StoreFrom(r)
			if !ok {
				response.Error(w, http.StatusBadRequest, "store id is required")
				return
			}

			d := rbac.Authorize(p, store.ID, allowed...)
			metrics.RecordAuthzDecision(d.Allowed, string(d.Reason))
			if err := d.Err(); err != nil {
				response.FromError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), roleKey, d.Role)))
		})
	}
}

// RequireSelfOrStaff authorizes like RequireStoreRole but additionally lets
// a principal act on their own record. The subject is read from the named
// path parameter, so staff-facing endpoints can double as self-service.
func RequireSelfOrStaff(param string, allowed ...rbac.StoreRole) router.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r)
			if !ok {
				response.Unauthorized(w)
				return
			}
			store, ok := StoreFrom(r)
			if !ok {
				response.Error(w, http.StatusBadRequest, "store id is required")
				return
			}

			d := rbac.AuthorizeSelfOrStaff(p, store.ID, router.Param(r, param), allowed...)
			metrics.RecordAuthzDecision(d.Allowed, string(d.Reason))
			if err := d.Err(); err != nil {
				response.FromError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), roleKey, d.Role)))
		})
	}
}

// RequireGlobal restricts a route to the given platform roles.
func RequireGlobal(allowed ...rbac.GlobalRole) router.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r)
			if !ok {
				response.Unauthorized(w)
				return
			}
			for _, a := range allowed {
				if p.GlobalRole == a {
					metrics.RecordAuthzDecision(true, "")
					next.ServeHTTP(w, r)
					return
				}
			}
			metrics.RecordAuthzDecision(false, "insufficient_global_role")
			response.Forbidden(w)
		})
	}
}

// RoleFrom returns the store role the authorization gate matched, empty
// when a global role decided.
func RoleFrom(r *http.Request) rbac.StoreRole {
	role, _ := r.Context().Value(roleKey).(rbac.StoreRole)
	return role
}
