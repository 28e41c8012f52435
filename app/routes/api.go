// Package routes wires the HTTP surface: REST under /api, the GraphQL
// catalogue, realtime feeds, and the operational endpoints.
package routes

import (
	"net/http"

	"github.com/tradeyard/tradeyard/app/controllers"
	"github.com/tradeyard/tradeyard/app/graph"
	"github.com/tradeyard/tradeyard/app/middleware"
	"github.com/tradeyard/tradeyard/app/realtime"
	"github.com/tradeyard/tradeyard/pkg/ctx"
	gql "github.com/tradeyard/tradeyard/pkg/graphql"
	"github.com/tradeyard/tradeyard/pkg/metrics"
	"github.com/tradeyard/tradeyard/pkg/rbac"
	"github.com/tradeyard/tradeyard/pkg/router"
)

// RegisterAPI attaches every route to r. Call once at boot, before the
// server starts listening.
func RegisterAPI(r *router.Router) error {
	r.Use(metrics.Middleware())

	auth := controllers.NewAuthController()
	stores := controllers.NewStoreController()
	categories := controllers.NewCategoryController()
	products := controllers.NewProductController()
	staff := controllers.NewStaffController()
	admin := controllers.NewAdminController()

	r.Get("/health", "health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})
	r.Get("/metrics", "metrics", metrics.Handler())

	api := r.Group("/api")

	// ─── Accounts ───────────────────────────────────────────────

	api.Post("/auth/register", "auth.register", ctx.Wrap(auth.Register))
	api.Post("/auth/login", "auth.login", ctx.Wrap(auth.Login))
	api.Post("/auth/refresh", "auth.refresh", ctx.Wrap(auth.Refresh))

	authed := api.Group("", middleware.Authenticate)
	authed.Get("/auth/me", "auth.me", ctx.Wrap(auth.Me))
	authed.Put("/auth/profile", "auth.profile", ctx.Wrap(auth.UpdateProfile))
	authed.Post("/invites/accept", "staff.invites.accept", ctx.Wrap(staff.AcceptInvite))
	authed.Post("/stores", "stores.create", ctx.Wrap(stores.Create))
	authed.Get("/me/stores", "stores.mine", ctx.Wrap(stores.Mine))

	// ─── Public storefront reads ────────────────────────────────
	// Store metadata stays readable while a store is deactivated (the
	// payload carries isActive); the catalogue group below resolves
	// strictly and fails closed instead.

	api.Get("/stores", "stores.list", ctx.Wrap(stores.List))
	api.Get("/stores/slug/{slug}", "stores.bySlug", ctx.Wrap(stores.ShowBySlug))
	api.Get("/stores/{storeID}", "stores.show", ctx.Wrap(stores.Show))

	catalog := api.Group("/stores/{storeID}", middleware.StoreContext)
	catalog.Get("/categories", "categories.list", ctx.Wrap(categories.List))
	catalog.Get("/categories/{categoryID}", "categories.show", ctx.Wrap(categories.Show))
	catalog.Get("/products", "products.list", ctx.Wrap(products.List))
	catalog.Get("/products/featured", "products.featured", ctx.Wrap(products.Featured))
	catalog.Get("/products/{productID}", "products.show", ctx.Wrap(products.Show))

	// ─── Store lifecycle ────────────────────────────────────────
	// Resolves deactivated stores too, otherwise nobody could reactivate
	// or delete one. Profile edits need store_admin; visibility and
	// deletion are checked in the service against the owner or a global
	// admin.

	lifecycle := api.Group("/stores/{storeID}", middleware.Authenticate, middleware.StoreContextLifecycle)
	lifecycle.Put("", "stores.update", ctx.Wrap(stores.Update),
		middleware.RequireStoreRole(rbac.StoreAdmin))
	lifecycle.Patch("/active", "stores.setActive", ctx.Wrap(stores.SetActive))
	lifecycle.Delete("", "stores.delete", ctx.Wrap(stores.Delete))

	// ─── Catalogue management ───────────────────────────────────

	manage := api.Group("/stores/{storeID}", middleware.Authenticate, middleware.StoreContext)
	writer := middleware.RequireStoreRole(rbac.StoreAdmin, rbac.StoreManager)
	storeAdmin := middleware.RequireStoreRole(rbac.StoreAdmin)

	manage.Post("/categories", "categories.create", ctx.Wrap(categories.Create), writer)
	manage.Put("/categories/{categoryID}", "categories.update", ctx.Wrap(categories.Update), writer)
	manage.Delete("/categories/{categoryID}", "categories.delete", ctx.Wrap(categories.Delete), storeAdmin)

	manage.Post("/products", "products.create", ctx.Wrap(products.Create), writer)
	manage.Put("/products/{productID}", "products.update", ctx.Wrap(products.Update), writer)
	manage.Delete("/products/{productID}", "products.delete", ctx.Wrap(products.Delete), storeAdmin)
	manage.Delete("/products/{productID}/image", "products.deleteImage", ctx.Wrap(products.DeleteImage), writer)

	// ─── Staff ──────────────────────────────────────────────────

	manage.Get("/staff", "staff.list", ctx.Wrap(staff.List), writer)
	manage.Get("/staff/roles", "staff.roles", ctx.Wrap(staff.Roles), writer)
	manage.Put("/staff", "staff.setRole", ctx.Wrap(staff.SetRole), storeAdmin)
	manage.Delete("/staff/{userID}", "staff.remove", ctx.Wrap(staff.RemoveRole),
		middleware.RequireSelfOrStaff("userID", rbac.StoreAdmin))
	manage.Post("/staff/invites", "staff.invite", ctx.Wrap(staff.Invite), storeAdmin)

	// ─── Platform administration ────────────────────────────────

	platform := api.Group("/admin", middleware.Authenticate,
		middleware.RequireGlobal(rbac.RoleAdmin, rbac.RoleSuperadmin))
	platform.Get("/stores", "admin.stores", ctx.Wrap(stores.List))
	platform.Get("/users", "admin.users", ctx.Wrap(admin.Users))

	// ─── Realtime & GraphQL ─────────────────────────────────────

	feed := realtime.NewFeed()
	feed.Start()
	r.Get("/ws/catalog", "ws.catalog", feed.ServeWS)
	r.Get("/events/catalog", "sse.catalog", feed.ServeSSE)

	schema, err := graph.NewSchema(graph.NewResolver())
	if err != nil {
		return err
	}
	r.Mount("/graphql", gql.Handler(schema))

	return nil
}
