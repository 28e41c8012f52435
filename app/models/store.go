package models

import "github.com/tradeyard/tradeyard/pkg/assets"

// Store is a tenant. It owns its categories, products and staff role
// assignments; nothing inside a store is visible to another store.
type Store struct {
	Model
	Name        string        `gorm:"size:255;not null" json:"name"`
	Slug        string        `gorm:"uniqueIndex;size:255;not null" json:"slug"`
	Description string        `gorm:"type:text" json:"description"`
	Logo        assets.Pair   `gorm:"serializer:json" json:"logo"`
	Banner      assets.Pair   `gorm:"serializer:json" json:"banner"`
	Address     string        `gorm:"size:500" json:"address"`
	Contact     string        `gorm:"size:100" json:"contact"`
	Settings    StoreSettings `gorm:"serializer:json" json:"settings"`
	IsActive    bool          `gorm:"default:true" json:"isActive"`
	OwnerID     string        `gorm:"size:36;not null;index" json:"ownerId"`
}

// StoreSettings carries per-store commerce settings. TaxRate is a fraction
// in [0,1], not a percentage.
type StoreSettings struct {
	Currency    string  `json:"currency"`
	TaxRate     float64 `json:"taxRate"`
	ShippingFee float64 `json:"shippingFee"`
}

// DefaultSettings returns the settings a store starts with.
func DefaultSettings() StoreSettings {
	return StoreSettings{Currency: "USD"}
}
