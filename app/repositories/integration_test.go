//go:build integration
// +build integration

package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tradeyard/tradeyard/app/models"
	_ "github.com/tradeyard/tradeyard/database/migrations"
	"github.com/tradeyard/tradeyard/pkg/assets"
	"github.com/tradeyard/tradeyard/pkg/database"
	"github.com/tradeyard/tradeyard/pkg/errs"
	"github.com/tradeyard/tradeyard/pkg/migration"
)

// These tests run the repository layer against a real Postgres in a
// disposable container. sqlite covers the fast path; this covers what it
// can't: the Postgres duplicate-key codes behind conflict translation, the
// JSON serializer on a real text column, and the migration runner's
// tracking table under a second dialect.
//
//	go test -tags integration ./app/repositories/

// startPostgres boots a Postgres container, runs all registered migrations
// against it and points the shared connection at it.
func startPostgres(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("tradeyard_test"),
		tcpostgres.WithUsername("tradeyard"),
		tcpostgres.WithPassword("tradeyard"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	db, err := gorm.Open(gormpg.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}

	if err := migration.New(db).Run(); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	database.DB = db
}

func TestIntegrationMigrationsApplyAndRollback(t *testing.T) {
	startPostgres(t)
	m := database.DB.Migrator()

	for _, table := range []string{"users", "stores", "store_roles", "categories", "products", "product_categories"} {
		if !m.HasTable(table) {
			t.Errorf("table %s should exist after migrate", table)
		}
	}

	if err := migration.New(database.DB).Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if m.HasTable("products") || m.HasTable("users") {
		t.Error("rollback should drop the schema tables")
	}
	if !m.HasTable("tradeyard_migrations") {
		t.Error("rollback must keep the tracking table")
	}

	if err := migration.New(database.DB).Run(); err != nil {
		t.Fatalf("re-run migrations: %v", err)
	}
	if !m.HasTable("products") {
		t.Error("re-running migrations should restore the schema")
	}
}

func TestIntegrationUniqueIndexesTranslateToConflict(t *testing.T) {
	startPostgres(t)

	s1 := mkStore(t, "Acme Shop", "acme-shop")
	s2 := mkStore(t, "Beta Mart", "beta-mart")

	// Category name is unique per store, free across stores.
	mkCategory(t, s1.ID, "Shoes", nil, false)
	dup := models.Category{StoreID: s1.ID, Name: "Shoes"}
	if err := NewCategoryRepository().Create(&dup); !errs.IsConflict(err) {
		t.Fatalf("duplicate category name should conflict on postgres, got %v", err)
	}
	other := models.Category{StoreID: s2.ID, Name: "Shoes"}
	if err := NewCategoryRepository().Create(&other); err != nil {
		t.Fatalf("same name in another store should pass: %v", err)
	}

	// SKU is unique per store.
	products := NewProductRepository()
	p := models.Product{StoreID: s1.ID, SKU: "SKU-AAAA-0001", Name: "Runner"}
	if err := products.Create(&p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	pdup := models.Product{StoreID: s1.ID, SKU: "SKU-AAAA-0001", Name: "Other"}
	if err := products.Create(&pdup); !errs.IsConflict(err) {
		t.Fatalf("duplicate SKU should conflict on postgres, got %v", err)
	}

	// Email is unique globally.
	users := NewUserRepository()
	u := models.User{Name: "Dana", Email: "dana@example.com", Password: "x"}
	if err := users.Create(&u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	udup := models.User{Name: "Other", Email: "dana@example.com", Password: "x"}
	if err := users.Create(&udup); !errs.IsConflict(err) {
		t.Fatalf("duplicate email should conflict on postgres, got %v", err)
	}

	// The compound (store, user) index backs the role upsert.
	staff := NewStaffRepository()
	if _, err := staff.SetRole(s1.ID, u.ID, "store_staff"); err != nil {
		t.Fatalf("set role: %v", err)
	}
	if _, err := staff.SetRole(s1.ID, u.ID, "store_admin"); err != nil {
		t.Fatalf("upgrade role: %v", err)
	}
	var n int64
	if err := database.DB.Model(&models.StoreRole{}).Where("store_id = ? AND user_id = ?", s1.ID, u.ID).Count(&n).Error; err != nil {
		t.Fatalf("count assignments: %v", err)
	}
	if n != 1 {
		t.Errorf("upsert must keep a single row per (store, user), got %d", n)
	}
}

func TestIntegrationJSONColumnsRoundTrip(t *testing.T) {
	startPostgres(t)

	s := mkStore(t, "Acme Shop", "acme-shop")
	repo := NewProductRepository()

	p := models.Product{
		StoreID: s.ID,
		SKU:     "SKU-AAAA-0002",
		Name:    "Trail Boot",
		Images: []assets.Pair{
			{Original: "http://cdn/products/1-boot.jpg", Thumbnail: "http://cdn/products/thumb-1-boot.jpg"},
			{Original: "http://cdn/products/2-boot.jpg", Thumbnail: "http://cdn/products/thumb-2-boot.jpg"},
		},
		Colors: []models.Color{
			{
				Name:  "Brown",
				Image: assets.Pair{Original: "http://cdn/products/colors/3-brown.jpg", Thumbnail: "http://cdn/products/colors/thumb-3-brown.jpg"},
				Sizes: []models.ColorSize{{Name: "42", Quantity: 5}, {Name: "43", Quantity: 0}},
			},
		},
	}
	if err := repo.Create(&p); err != nil {
		t.Fatalf("create: %v", err)
	}

	loaded, err := repo.FindByID(s.ID, p.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(loaded.Images) != 2 || loaded.Images[1].Thumbnail != "http://cdn/products/thumb-2-boot.jpg" {
		t.Fatalf("images should survive the serializer round trip, got %+v", loaded.Images)
	}
	if len(loaded.Colors) != 1 || len(loaded.Colors[0].Sizes) != 2 {
		t.Fatalf("colors should survive the serializer round trip, got %+v", loaded.Colors)
	}
	if got := len(loaded.AssetPairs()); got != 3 {
		t.Errorf("expected 3 asset pairs (2 images + 1 color), got %d", got)
	}

	// Store settings ride the same serializer.
	store, err := NewStoreRepository().FindByID(s.ID)
	if err != nil {
		t.Fatalf("reload store: %v", err)
	}
	if store.Settings.Currency != "USD" {
		t.Errorf("default settings should round trip, got %+v", store.Settings)
	}
}

func TestIntegrationPaginationAndSearch(t *testing.T) {
	startPostgres(t)

	s := mkStore(t, "Acme Shop", "acme-shop")
	repo := NewProductRepository()

	for i := 0; i < 25; i++ {
		p := models.Product{StoreID: s.ID, SKU: sequentialSKU(i), Name: "Widget"}
		if i == 7 {
			p.Name = "Trail Runner"
		}
		if err := repo.Create(&p); err != nil {
			t.Fatalf("seed product %d: %v", i, err)
		}
	}

	_, pagination, err := repo.ListByStore(s.ID, "", 2, 10)
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if pagination.TotalItems != 25 || pagination.TotalPages != 3 || pagination.CurrentPage != 2 {
		t.Fatalf("unexpected pagination: %+v", pagination)
	}

	// LIKE is case-sensitive on Postgres; exact-case search must still hit.
	got, _, err := repo.ListByStore(s.ID, "Trail", 1, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Trail Runner" {
		t.Fatalf("search should match the one renamed product, got %+v", got)
	}
}

func sequentialSKU(i int) string {
	const digits = "0123456789"
	return "SKU-AAAA-00" + string(digits[i/10]) + string(digits[i%10])
}
