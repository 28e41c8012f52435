package repositories

import (
	"testing"

	"github.com/tradeyard/tradeyard/app/models"
	"github.com/tradeyard/tradeyard/pkg/database"
	"github.com/tradeyard/tradeyard/pkg/errs"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupDB points the shared connection at a fresh in-memory database.
// A single connection keeps sqlite's :memory: database alive across the
// pool.
func setupDB(t *testing.T) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
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

	if err := db.AutoMigrate(
		&models.User{},
		&models.StoreRole{},
		&models.Store{},
		&models.Category{},
		&models.Product{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	database.DB = db
}

func mkStore(t *testing.T, name, slug string) models.Store {
	t.Helper()
	store := models.Store{Name: name, Slug: slug, IsActive: true, OwnerID: "owner-1", Settings: models.DefaultSettings()}
	if err := NewStoreRepository().Create(&store); err != nil {
		t.Fatalf("create store %s: %v", name, err)
	}
	return store
}

func mkCategory(t *testing.T, storeID, name string, parent *string, isSub bool) models.Category {
	t.Helper()
	cat := models.Category{StoreID: storeID, Name: name, IsSubcategory: isSub, ParentCategoryID: parent}
	if err := NewCategoryRepository().Create(&cat); err != nil {
		t.Fatalf("create category %s: %v", name, err)
	}
	return cat
}

// ─── Category: tenant-scoped uniqueness ───────────────────────────────────────

func TestCategoryNameUniquePerStoreOnly(t *testing.T) {
	setupDB(t)
	s1 := mkStore(t, "Acme Shop", "acme-shop")
	s2 := mkStore(t, "Beta Mart", "beta-mart")

	mkCategory(t, s1.ID, "Shoes", nil, false)

	// Same name in the same store collides.
	dup := models.Category{StoreID: s1.ID, Name: "Shoes"}
	err := NewCategoryRepository().Create(&dup)
	if !errs.IsConflict(err) {
		t.Fatalf("expected conflict for duplicate name in same store, got %v", err)
	}

	// Same name in another store is fine.
	other := models.Category{StoreID: s2.ID, Name: "Shoes"}
	if err := NewCategoryRepository().Create(&other); err != nil {
		t.Fatalf("same name in different store should succeed: %v", err)
	}
}

func TestCategoryNameTakenIsCaseSensitive(t *testing.T) {
	setupDB(t)
	s := mkStore(t, "Acme Shop", "acme-shop")
	mkCategory(t, s.ID, "Shoes", nil, false)

	repo := NewCategoryRepository()

	taken, err := repo.NameTaken(s.ID, "Shoes", "")
	if err != nil || !taken {
		t.Fatalf("exact name should be taken, got taken=%v err=%v", taken, err)
	}

	taken, err = repo.NameTaken(s.ID, "shoes", "")
	if err != nil {
		t.Fatalf("NameTaken: %v", err)
	}
	if taken {
		t.Error("category names are case-sensitive; lowercase probe should be free")
	}
}

func TestCategoryNameTakenExcludesSelf(t *testing.T) {
	setupDB(t)
	s := mkStore(t, "Acme Shop", "acme-shop")
	cat := mkCategory(t, s.ID, "Shoes", nil, false)

	taken, err := NewCategoryRepository().NameTaken(s.ID, "Shoes", cat.ID)
	if err != nil {
		t.Fatalf("NameTaken: %v", err)
	}
	if taken {
		t.Error("a category renamed to its own name must not collide with itself")
	}
}

func TestCategoryCrossTenantLookupIsNotFound(t *testing.T) {
	setupDB(t)
	s1 := mkStore(t, "Acme Shop", "acme-shop")
	s2 := mkStore(t, "Beta Mart", "beta-mart")
	cat := mkCategory(t, s1.ID, "Shoes", nil, false)

	_, err := NewCategoryRepository().FindByID(s2.ID, cat.ID)
	if !errs.IsNotFound(err) {
		t.Fatalf("cross-tenant id must behave like a missing id, got %v", err)
	}
}

// ─── Category: derived subcategory projection ─────────────────────────────────

func TestListByStoreDerivesSubcategories(t *testing.T) {
	setupDB(t)
	s := mkStore(t, "Acme Shop", "acme-shop")

	shoes := mkCategory(t, s.ID, "Shoes", nil, false)
	mkCategory(t, s.ID, "Sneakers", &shoes.ID, true)
	mkCategory(t, s.ID, "Boots", &shoes.ID, true)
	mkCategory(t, s.ID, "Hats", nil, false)

	list, err := NewCategoryRepository().ListByStore(s.ID)
	if err != nil {
		t.Fatalf("ListByStore: %v", err)
	}
	if len(list) != 4 {
		t.Fatalf("expected all 4 categories in the list, got %d", len(list))
	}

	byName := map[string]models.CategoryWithChildren{}
	for _, c := range list {
		byName[c.Name] = c
	}

	if got := len(byName["Shoes"].Subcategories); got != 2 {
		t.Errorf("Shoes should report 2 children, got %d", got)
	}
	if got := len(byName["Hats"].Subcategories); got != 0 {
		t.Errorf("Hats should report no children, got %d", got)
	}
	// Subcategories never report children, even if something points at them.
	if got := len(byName["Sneakers"].Subcategories); got != 0 {
		t.Errorf("subcategory must not report children, got %d", got)
	}
}

func TestCategoryDeleteNullsReferences(t *testing.T) {
	setupDB(t)
	s := mkStore(t, "Acme Shop", "acme-shop")
	shoes := mkCategory(t, s.ID, "Shoes", nil, false)
	sneakers := mkCategory(t, s.ID, "Sneakers", &shoes.ID, true)

	product := models.Product{StoreID: s.ID, SKU: "SKU-AAAA-0001", Name: "Runner", Categories: []models.Category{shoes}}
	if err := NewProductRepository().Create(&product); err != nil {
		t.Fatalf("create product: %v", err)
	}

	if err := NewCategoryRepository().Delete(s.ID, shoes.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}

	// The product dropped the dead category from its set.
	got, err := NewProductRepository().FindByID(s.ID, product.ID)
	if err != nil {
		t.Fatalf("reload product: %v", err)
	}
	if len(got.Categories) != 0 {
		t.Errorf("product should no longer reference the deleted category, got %+v", got.Categories)
	}

	// The orphaned subcategory is promoted to top level.
	child, err := NewCategoryRepository().FindByID(s.ID, sneakers.ID)
	if err != nil {
		t.Fatalf("reload subcategory: %v", err)
	}
	if child.IsSubcategory || child.ParentCategoryID != nil {
		t.Errorf("subcategory should be promoted after parent delete, got %+v", child)
	}
}

// ─── Category: cardinality check ──────────────────────────────────────────────

func TestCountByIDsDetectsCrossTenantIDs(t *testing.T) {
	setupDB(t)
	s1 := mkStore(t, "Acme Shop", "acme-shop")
	s2 := mkStore(t, "Beta Mart", "beta-mart")

	mine := mkCategory(t, s1.ID, "Shoes", nil, false)
	theirs := mkCategory(t, s2.ID, "Hats", nil, false)

	n, err := NewCategoryRepository().CountByIDs(s1.ID, []string{mine.ID, theirs.ID})
	if err != nil {
		t.Fatalf("CountByIDs: %v", err)
	}
	if n != 1 {
		t.Fatalf("only the in-store id should count, got %d", n)
	}
}

// ─── Product: tenant-scoped SKU ───────────────────────────────────────────────

func TestProductSKUUniquePerStoreOnly(t *testing.T) {
	setupDB(t)
	s1 := mkStore(t, "Acme Shop", "acme-shop")
	s2 := mkStore(t, "Beta Mart", "beta-mart")
	repo := NewProductRepository()

	p1 := models.Product{StoreID: s1.ID, SKU: "SKU-AAAA-0001", Name: "Runner"}
	if err := repo.Create(&p1); err != nil {
		t.Fatalf("create product: %v", err)
	}

	dup := models.Product{StoreID: s1.ID, SKU: "SKU-AAAA-0001", Name: "Other"}
	if err := repo.Create(&dup); !errs.IsConflict(err) {
		t.Fatalf("expected conflict for duplicate SKU in same store, got %v", err)
	}

	other := models.Product{StoreID: s2.ID, SKU: "SKU-AAAA-0001", Name: "Runner"}
	if err := repo.Create(&other); err != nil {
		t.Fatalf("same SKU in different store should succeed: %v", err)
	}

	exists, err := repo.SKUExists(s1.ID, "SKU-AAAA-0001")
	if err != nil || !exists {
		t.Fatalf("SKUExists should report true, got exists=%v err=%v", exists, err)
	}
}

func TestProductCategoriesPersistAndReplace(t *testing.T) {
	setupDB(t)
	s := mkStore(t, "Acme Shop", "acme-shop")
	shoes := mkCategory(t, s.ID, "Shoes", nil, false)
	hats := mkCategory(t, s.ID, "Hats", nil, false)
	repo := NewProductRepository()

	p := models.Product{
		StoreID:    s.ID,
		SKU:        "SKU-AAAA-0002",
		Name:       "Runner",
		Categories: []models.Category{shoes},
	}
	if err := repo.Create(&p); err != nil {
		t.Fatalf("create: %v", err)
	}

	loaded, err := repo.FindByID(s.ID, p.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(loaded.Categories) != 1 || loaded.Categories[0].Name != "Shoes" {
		t.Fatalf("expected [Shoes], got %+v", loaded.Categories)
	}

	if err := repo.ReplaceCategories(&loaded, []models.Category{hats}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	loaded, err = repo.FindByID(s.ID, p.ID)
	if err != nil {
		t.Fatalf("re-find: %v", err)
	}
	if len(loaded.Categories) != 1 || loaded.Categories[0].Name != "Hats" {
		t.Fatalf("expected [Hats] after replace, got %+v", loaded.Categories)
	}
}

func TestProductSearchFiltersNameDescriptionSKU(t *testing.T) {
	setupDB(t)
	s := mkStore(t, "Acme Shop", "acme-shop")
	repo := NewProductRepository()

	seed := []models.Product{
		{StoreID: s.ID, SKU: "SKU-AAAA-0003", Name: "Trail Runner", Description: "grippy sole"},
		{StoreID: s.ID, SKU: "SKU-AAAA-0004", Name: "City Boot", Description: "leather"},
		{StoreID: s.ID, SKU: "SKU-RUNR-0005", Name: "Sandal", Description: "summer"},
	}
	for i := range seed {
		if err := repo.Create(&seed[i]); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	got, _, err := repo.ListByStore(s.ID, "RUNR", 1, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Sandal" {
		t.Fatalf("SKU search should match Sandal, got %+v", got)
	}

	got, _, err = repo.ListByStore(s.ID, "Runner", 1, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Trail Runner" {
		t.Fatalf("name search should match Trail Runner, got %+v", got)
	}
}

// ─── Staff roles ──────────────────────────────────────────────────────────────

func TestSetRoleUpsertsLastWriteWins(t *testing.T) {
	setupDB(t)
	s := mkStore(t, "Acme Shop", "acme-shop")
	repo := NewStaffRepository()

	if _, err := repo.SetRole(s.ID, "user-1", "store_staff"); err != nil {
		t.Fatalf("set role: %v", err)
	}
	if _, err := repo.SetRole(s.ID, "user-1", "store_admin"); err != nil {
		t.Fatalf("upgrade role: %v", err)
	}

	var assignments []models.StoreRole
	if err := database.DB.Where("store_id = ?", s.ID).Find(&assignments).Error; err != nil {
		t.Fatalf("load assignments: %v", err)
	}
	if len(assignments) != 1 {
		t.Fatalf("upsert must not accumulate rows, got %d", len(assignments))
	}
	if assignments[0].Role != "store_admin" {
		t.Errorf("last write should win, got %s", assignments[0].Role)
	}
}

func TestRemoveRoleIsIdempotent(t *testing.T) {
	setupDB(t)
	s := mkStore(t, "Acme Shop", "acme-shop")
	repo := NewStaffRepository()

	if _, err := repo.SetRole(s.ID, "user-1", "store_staff"); err != nil {
		t.Fatalf("set role: %v", err)
	}
	if err := repo.RemoveRole(s.ID, "user-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := repo.RemoveRole(s.ID, "user-1"); err != nil {
		t.Fatalf("removing an absent role must not error: %v", err)
	}
}

// ─── Store ────────────────────────────────────────────────────────────────────

func TestStoreNameTakenIsCaseInsensitive(t *testing.T) {
	setupDB(t)
	mkStore(t, "Acme Shop", "acme-shop")

	taken, err := NewStoreRepository().NameTaken("ACME shop", "")
	if err != nil {
		t.Fatalf("NameTaken: %v", err)
	}
	if !taken {
		t.Error("store names are case-insensitive; ACME shop should collide")
	}
}

func TestStoreDeleteCascadesRoleRemoval(t *testing.T) {
	setupDB(t)
	s := mkStore(t, "Acme Shop", "acme-shop")
	staff := NewStaffRepository()
	if _, err := staff.SetRole(s.ID, "user-1", "store_admin"); err != nil {
		t.Fatalf("set role: %v", err)
	}
	if _, err := staff.SetRole(s.ID, "user-2", "store_staff"); err != nil {
		t.Fatalf("set role: %v", err)
	}

	if err := NewStoreRepository().Delete(s.ID); err != nil {
		t.Fatalf("delete store: %v", err)
	}

	var n int64
	if err := database.DB.Model(&models.StoreRole{}).Where("store_id = ?", s.ID).Count(&n).Error; err != nil {
		t.Fatalf("count roles: %v", err)
	}
	if n != 0 {
		t.Errorf("deleting a store must remove its role assignments, %d left", n)
	}

	_, err := NewStoreRepository().FindByID(s.ID)
	if !errs.IsNotFound(err) {
		t.Fatalf("deleted store should be gone, got %v", err)
	}
}

// ─── User ─────────────────────────────────────────────────────────────────────

func TestUserFindByIDLoadsLiveRoles(t *testing.T) {
	setupDB(t)
	users := NewUserRepository()

	u := models.User{Name: "Dana", Email: "dana@example.com", Password: "x", Role: "customer"}
	if err := users.Create(&u); err != nil {
		t.Fatalf("create user: %v", err)
	}

	s := mkStore(t, "Acme Shop", "acme-shop")
	if _, err := NewStaffRepository().SetRole(s.ID, u.ID, "store_manager"); err != nil {
		t.Fatalf("set role: %v", err)
	}

	loaded, err := users.FindByID(u.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	p := loaded.Principal()
	if p.StoreRoles[s.ID] != "store_manager" {
		t.Fatalf("principal should carry the live store role, got %+v", p.StoreRoles)
	}
}

func TestUserDuplicateEmailConflicts(t *testing.T) {
	setupDB(t)
	users := NewUserRepository()

	u := models.User{Name: "Dana", Email: "dana@example.com", Password: "x"}
	if err := users.Create(&u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	dup := models.User{Name: "Other", Email: "dana@example.com", Password: "x"}
	if err := users.Create(&dup); !errs.IsConflict(err) {
		t.Fatalf("expected conflict for duplicate email, got %v", err)
	}
}
