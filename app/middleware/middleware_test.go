package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tradeyard/tradeyard/app/models"
	"github.com/tradeyard/tradeyard/app/repositories"
	"github.com/tradeyard/tradeyard/pkg/auth"
	"github.com/tradeyard/tradeyard/pkg/database"
	"github.com/tradeyard/tradeyard/pkg/rbac"
	"github.com/tradeyard/tradeyard/pkg/router"
)

func setupDB(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.StoreRole{}, &models.Store{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	database.DB = db
}

func mkUser(t *testing.T, email, globalRole string) models.User {
	t.Helper()
	user := models.User{Name: "Test User", Email: email, Password: "x", Role: globalRole}
	if err := repositories.NewUserRepository().Create(&user); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func mkStore(t *testing.T, name, slug string, active bool) models.Store {
	t.Helper()
	store := models.Store{Name: name, Slug: slug, IsActive: active, OwnerID: "owner-1"}
	if err := repositories.NewStoreRepository().Create(&store); err != nil {
		t.Fatalf("create store: %v", err)
	}
	return store
}

func grant(t *testing.T, storeID, userID string, role rbac.StoreRole) {
	t.Helper()
	if _, err := repositories.NewStaffRepository().SetRole(storeID, userID, string(role)); err != nil {
		t.Fatalf("grant role: %v", err)
	}
}

func bearer(t *testing.T, u models.User) string {
	t.Helper()
	token, err := auth.GenerateToken(u.ID, u.Role)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + token
}

// echoStore writes the resolved store id so tests can see which store won.
func echoStore(w http.ResponseWriter, r *http.Request) {
	store, _ := StoreFrom(r)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(store.ID))
}

// ─── Authenticate ─────────────────────────────────────────────────────────────

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	setupDB(t)
	handler := Authenticate(http.HandlerFunc(echoStore))

	cases := map[string]string{
		"no header":     "",
		"not bearer":    "Basic abc123",
		"garbage token": "Bearer not.a.jwt",
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: status = %d, want 401", name, rec.Code)
		}
	}
}

func TestAuthenticateRejectsDeletedAccounts(t *testing.T) {
	setupDB(t)
	user := mkUser(t, "gone@example.com", string(rbac.RoleCustomer))
	header := bearer(t, user)

	if err := database.DB.Delete(&models.User{}, "id = ?", user.ID).Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", header)
	rec := httptest.NewRecorder()
	Authenticate(http.HandlerFunc(echoStore)).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("token for a deleted account should be rejected, got %d", rec.Code)
	}
}

// ─── StoreContext ─────────────────────────────────────────────────────────────

func TestStoreContextSourcePrecedence(t *testing.T) {
	setupDB(t)
	pathStore := mkStore(t, "Path Store", "path-store", true)
	bodyStore := mkStore(t, "Body Store", "body-store", true)
	queryStore := mkStore(t, "Query Store", "query-store", true)

	r := router.New()
	r.Post("/t/{storeID}/probe", "", echoStore, StoreContext)
	r.Post("/probe", "", echoStore, StoreContext)

	// The body beats the path parameter.
	req := httptest.NewRequest(http.MethodPost, "/t/"+pathStore.ID+"/probe",
		strings.NewReader(`{"storeId":"`+bodyStore.ID+`"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)
	if rec.Body.String() != bodyStore.ID {
		t.Errorf("body should win over path, got store %q", rec.Body.String())
	}

	// With no body, the path parameter wins over the query.
	req = httptest.NewRequest(http.MethodPost, "/t/"+pathStore.ID+"/probe?storeId="+queryStore.ID, nil)
	rec = httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)
	if rec.Body.String() != pathStore.ID {
		t.Errorf("path should win over query, got store %q", rec.Body.String())
	}

	// The query alone is enough.
	req = httptest.NewRequest(http.MethodPost, "/probe?storeId="+queryStore.ID, nil)
	rec = httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)
	if rec.Body.String() != queryStore.ID {
		t.Errorf("query fallback failed, got store %q", rec.Body.String())
	}
}

func TestStoreContextFailsClosed(t *testing.T) {
	setupDB(t)
	inactive := mkStore(t, "Sleepy Store", "sleepy-store", false)

	r := router.New()
	r.Post("/probe", "", echoStore, StoreContext)
	r.Post("/lifecycle", "", echoStore, StoreContextLifecycle)

	// No id anywhere.
	req := httptest.NewRequest(http.MethodPost, "/probe", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing id: status = %d, want 400", rec.Code)
	}

	// Unknown id.
	req = httptest.NewRequest(http.MethodPost, "/probe?storeId=nope", nil)
	rec = httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id: status = %d, want 404", rec.Code)
	}

	// Deactivated store is forbidden on tenant routes.
	req = httptest.NewRequest(http.MethodPost, "/probe?storeId="+inactive.ID, nil)
	rec = httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("inactive store: status = %d, want 403", rec.Code)
	}

	// But still reachable on lifecycle routes.
	req = httptest.NewRequest(http.MethodPost, "/lifecycle?storeId="+inactive.ID, nil)
	rec = httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("lifecycle route should resolve an inactive store, got %d", rec.Code)
	}
}

// ─── Authorization chain ──────────────────────────────────────────────────────

// mount wires the full chain the way the API routes do.
func adminGated(t *testing.T) http.Handler {
	t.Helper()
	r := router.New()
	r.Post("/probe", "", echoStore, Authenticate, StoreContext, RequireStoreRole(rbac.StoreAdmin))
	return r.Handler()
}

func probeAs(t *testing.T, handler http.Handler, header, storeID string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/probe?storeId="+storeID, nil)
	req.Header.Set("Authorization", header)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestSuperadminPassesWithoutStoreRole(t *testing.T) {
	setupDB(t)
	store := mkStore(t, "Acme Shop", "acme-shop", true)
	root := mkUser(t, "root@example.com", string(rbac.RoleSuperadmin))

	if got := probeAs(t, adminGated(t), bearer(t, root), store.ID); got != http.StatusOK {
		t.Errorf("superadmin with no store role should pass, got %d", got)
	}
}

func TestStoreRoleUpgradeTakesEffectImmediately(t *testing.T) {
	setupDB(t)
	store := mkStore(t, "Acme Shop", "acme-shop", true)
	worker := mkUser(t, "worker@example.com", string(rbac.RoleCustomer))
	grant(t, store.ID, worker.ID, rbac.StoreStaff)

	handler := adminGated(t)
	header := bearer(t, worker)

	// store_staff is not enough for a store_admin action.
	if got := probeAs(t, handler, header, store.ID); got != http.StatusForbidden {
		t.Fatalf("store_staff should be denied, got %d", got)
	}

	// Upgrading the role flips the decision for the same token: the
	// principal is rebuilt from the live record on every request.
	grant(t, store.ID, worker.ID, rbac.StoreAdmin)
	if got := probeAs(t, handler, header, store.ID); got != http.StatusOK {
		t.Errorf("upgraded role should pass with the old token, got %d", got)
	}
}

func TestNoStoreAccessIsDenied(t *testing.T) {
	setupDB(t)
	store := mkStore(t, "Acme Shop", "acme-shop", true)
	other := mkStore(t, "Beta Mart", "beta-mart", true)
	worker := mkUser(t, "worker@example.com", string(rbac.RoleCustomer))
	grant(t, other.ID, worker.ID, rbac.StoreAdmin)

	// A role in another store grants nothing here.
	if got := probeAs(t, adminGated(t), bearer(t, worker), store.ID); got != http.StatusForbidden {
		t.Errorf("role in another store should not grant access, got %d", got)
	}
}

func TestSelfOrStaffAllowsOwnRecord(t *testing.T) {
	setupDB(t)
	store := mkStore(t, "Acme Shop", "acme-shop", true)
	me := mkUser(t, "me@example.com", string(rbac.RoleCustomer))
	peer := mkUser(t, "peer@example.com", string(rbac.RoleCustomer))

	r := router.New()
	r.Get("/t/{storeID}/staff/{userID}", "", echoStore,
		Authenticate, StoreContext, RequireSelfOrStaff("userID", rbac.StoreAdmin, rbac.StoreManager))
	handler := r.Handler()

	get := func(subject string) int {
		req := httptest.NewRequest(http.MethodGet, "/t/"+store.ID+"/staff/"+subject, nil)
		req.Header.Set("Authorization", bearer(t, me))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if got := get(me.ID); got != http.StatusOK {
		t.Errorf("acting on own record should pass, got %d", got)
	}
	if got := get(peer.ID); got != http.StatusForbidden {
		t.Errorf("acting on another's record should be denied, got %d", got)
	}
}
