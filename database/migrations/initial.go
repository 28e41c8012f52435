package migrations

import (
	"gorm.io/gorm"

	"github.com/tradeyard/tradeyard/app/models"
	"github.com/tradeyard/tradeyard/pkg/migration"
)

func init() {
	migration.Register("20260412000000_create_users_table", &CreateUsersTable{})
	migration.Register("20260412000001_create_stores_table", &CreateStoresTable{})
	migration.Register("20260412000002_create_store_roles_table", &CreateStoreRolesTable{})
	migration.Register("20260412000003_create_categories_table", &CreateCategoriesTable{})
	migration.Register("20260412000004_create_products_table", &CreateProductsTable{})
}

// -------- 0001: users --------

type CreateUsersTable struct{}

func (m *CreateUsersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{})
}

func (m *CreateUsersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("users")
}

// -------- 0002: stores --------

type CreateStoresTable struct{}

func (m *CreateStoresTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Store{})
}

func (m *CreateStoresTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("stores")
}

// -------- 0003: store_roles --------

type CreateStoreRolesTable struct{}

func (m *CreateStoreRolesTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.StoreRole{})
}

func (m *CreateStoreRolesTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("store_roles")
}

// -------- 0004: categories --------

type CreateCategoriesTable struct{}

func (m *CreateCategoriesTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Category{})
}

func (m *CreateCategoriesTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("categories")
}

// -------- 0005: products (and the category join table) --------

type CreateProductsTable struct{}

func (m *CreateProductsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Product{})
}

func (m *CreateProductsTable) Down(db *gorm.DB) error {
	if err := db.Migrator().DropTable("product_categories"); err != nil {
		return err
	}
	return db.Migrator().DropTable("products")
}
