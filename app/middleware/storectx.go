package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/tradeyard/tradeyard/app/models"
	"github.com/tradeyard/tradeyard/app/repositories"
	"github.com/tradeyard/tradeyard/pkg/response"
	"github.com/tradeyard/tradeyard/pkg/router"
)

// StoreContext resolves the tenant for the request and makes it available
// downstream. The store id is read from the request body first, then the
// {storeID} path parameter, then the storeId query parameter. No id at all
// is a bad request; an unknown id is not found; a deactivated store is
// forbidden. Every tenant-scoped route goes through here.
func StoreContext(next http.Handler) http.Handler {
	return resolveStore(next, false)
}

// StoreContextLifecycle resolves the store without the active check. Owner
// and admin lifecycle endpoints use it: a deactivated store must still be
// reachable to reactivate or delete it.
func StoreContextLifecycle(next http.Handler) http.Handler {
	return resolveStore(next, true)
}

func resolveStore(next http.Handler, allowInactive bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := storeIDFromBody(r)
		if id == "" {
			id = router.Param(r, "storeID")
		}
		if id == "" {
			id = r.URL.Query().Get("storeId")
		}
		if id == "" {
			response.Error(w, http.StatusBadRequest, "store id is required")
			return
		}

		store, err := repositories.NewStoreRepository().FindByID(id)
		if err != nil {
			response.FromError(w, err)
			return
		}
		if !store.IsActive && !allowInactive {
			response.Error(w, http.StatusForbidden, "this store is deactivated")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), storeKey, store)))
	})
}

// storeIDFromBody peeks at the request body for a storeId field without
// breaking later binds. JSON bodies are re-buffered onto the request; form
// bodies are parsed once and cached by net/http.
func storeIDFromBody(r *http.Request) string {
	ct := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(ct, "application/json"):
		if r.Body == nil {
			return ""
		}
		buf, err := io.ReadAll(r.Body)
		r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(buf))
		if err != nil {
			return ""
		}
		var probe struct {
			StoreID string `json:"storeId"`
		}
		_ = json.Unmarshal(buf, &probe)
		return probe.StoreID
	case strings.HasPrefix(ct, "multipart/form-data"),
		strings.HasPrefix(ct, "application/x-www-form-urlencoded"):
		return r.PostFormValue("storeId")
	}
	return ""
}

// StoreFrom returns the store resolved by StoreContext.
func StoreFrom(r *http.Request) (models.Store, bool) {
	s, ok := r.Context().Value(storeKey).(models.Store)
	return s, ok
}
