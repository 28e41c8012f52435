package models

import "github.com/tradeyard/tradeyard/pkg/assets"

// Product represents one listing in a store's catalogue. SKUs are generated
// server-side and unique within the owning store, never globally.
type Product struct {
	Model
	StoreID     string        `gorm:"size:36;not null;uniqueIndex:idx_products_store_sku;index" json:"storeId"`
	SKU         string        `gorm:"size:100;not null;uniqueIndex:idx_products_store_sku" json:"sku"`
	Name        string        `gorm:"size:255;not null;index" json:"name"`
	Description string        `gorm:"type:text" json:"description"`
	Price       float64       `gorm:"not null;default:0" json:"price"`
	Featured    bool          `gorm:"default:false" json:"featured"`
	Images      []assets.Pair `gorm:"serializer:json" json:"images"`
	Colors      []Color       `gorm:"serializer:json" json:"colors"`
	Categories  []Category    `gorm:"many2many:product_categories" json:"categories"`
}

// Color is a product variant: a named colour with optional imagery and
// per-size stock counts.
type Color struct {
	Name  string      `json:"name"`
	Image assets.Pair `json:"image"`
	Sizes []ColorSize `json:"sizes"`
}

// ColorSize is the stock count for one size of one colour.
type ColorSize struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// AssetPairs returns every asset pair attached to the product: the top-level
// images plus any per-colour images. Used when cascading deletes into the
// object store.
func (p *Product) AssetPairs() []assets.Pair {
	pairs := make([]assets.Pair, 0, len(p.Images)+len(p.Colors))
	pairs = append(pairs, p.Images...)
	for _, c := range p.Colors {
		if !c.Image.Empty() {
			pairs = append(pairs, c.Image)
		}
	}
	return pairs
}
