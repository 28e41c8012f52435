package seeders

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/tradeyard/tradeyard/app/models"
	"github.com/tradeyard/tradeyard/pkg/auth"
	"github.com/tradeyard/tradeyard/pkg/rbac"
	"github.com/tradeyard/tradeyard/pkg/sku"
	"github.com/tradeyard/tradeyard/pkg/slug"
)

func init() {
	Register("demo", SeedDemo)
}

// SeedDemo loads a small demo marketplace: a platform admin, a store owner
// with one staffed store, and a shallow catalogue to browse. It refuses to
// run against a database that already has users, so re-running `tradeyard
// seed` is safe.
func SeedDemo(db *gorm.DB) error {
	var users int64
	if err := db.Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		fmt.Print("(database not empty, skipped) ")
		return nil
	}

	password, err := auth.HashPassword("password")
	if err != nil {
		return err
	}

	admin := models.User{
		Name:     "Platform Admin",
		Email:    "admin@tradeyard.test",
		Password: password,
		Role:     string(rbac.RoleAdmin),
	}
	owner := models.User{
		Name:     "Olive Owner",
		Email:    "owner@tradeyard.test",
		Password: password,
		Role:     string(rbac.RoleCustomer),
	}
	manager := models.User{
		Name:     "Manny Manager",
		Email:    "manager@tradeyard.test",
		Password: password,
		Role:     string(rbac.RoleCustomer),
	}
	if err := db.Create(&[]*models.User{&admin, &owner, &manager}).Error; err != nil {
		return err
	}

	store := models.Store{
		Name:        "Northwind Outfitters",
		Slug:        slug.Make("Northwind Outfitters"),
		Description: "Boots, jackets and everything in between.",
		OwnerID:     owner.ID,
		IsActive:    true,
		Settings:    models.DefaultSettings(),
	}
	if err := db.Create(&store).Error; err != nil {
		return err
	}

	roles := []*models.StoreRole{
		{UserID: owner.ID, StoreID: store.ID, Role: string(rbac.StoreAdmin)},
		{UserID: manager.ID, StoreID: store.ID, Role: string(rbac.StoreManager)},
	}
	if err := db.Create(&roles).Error; err != nil {
		return err
	}

	footwear := models.Category{StoreID: store.ID, Name: "Footwear", Description: "Everything for your feet."}
	apparel := models.Category{StoreID: store.ID, Name: "Apparel"}
	if err := db.Create(&[]*models.Category{&footwear, &apparel}).Error; err != nil {
		return err
	}
	sneakers := models.Category{
		StoreID:          store.ID,
		Name:             "Sneakers",
		IsSubcategory:    true,
		ParentCategoryID: &footwear.ID,
	}
	if err := db.Create(&sneakers).Error; err != nil {
		return err
	}

	products := []*models.Product{
		{
			StoreID:     store.ID,
			SKU:         sku.New(store.ID),
			Name:        "Trail Boots",
			Description: "Waterproof leather, ready for mud.",
			Price:       129.99,
			Featured:    true,
			Colors: []models.Color{
				{Name: "Brown", Sizes: []models.ColorSize{{Name: "42", Quantity: 12}, {Name: "44", Quantity: 7}}},
			},
			Categories: []models.Category{footwear},
		},
		{
			StoreID:    store.ID,
			SKU:        sku.New(store.ID),
			Name:       "Court Sneakers",
			Price:      89.50,
			Categories: []models.Category{footwear, sneakers},
		},
		{
			StoreID:    store.ID,
			SKU:        sku.New(store.ID),
			Name:       "Rain Shell",
			Price:      59.00,
			Categories: []models.Category{apparel},
		},
	}
	return db.Create(&products).Error
}
