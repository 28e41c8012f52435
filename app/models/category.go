package models

import "github.com/tradeyard/tradeyard/pkg/assets"

// Category is one node of a store's catalogue tree. Names are unique within
// a store (exact match); two stores may both own a "Shoes" category.
//
// The tree is one level deep: a subcategory points at its parent through
// ParentCategoryID and may not itself have children. A category's
// subcategory list is derived at read time, never stored.
type Category struct {
	Model
	StoreID          string      `gorm:"size:36;not null;uniqueIndex:idx_categories_store_name;index" json:"storeId"`
	Name             string      `gorm:"size:255;not null;uniqueIndex:idx_categories_store_name" json:"name"`
	Description      string      `gorm:"type:text" json:"description"`
	Image            assets.Pair `gorm:"serializer:json" json:"image"`
	IsSubcategory    bool        `gorm:"default:false" json:"isSubcategory"`
	ParentCategoryID *string     `gorm:"size:36;index" json:"parentCategoryId,omitempty"`
}

// Subcategory is the projection of a child category carried on list reads.
type Subcategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CategoryWithChildren is the list-read shape: the category plus its derived
// subcategories. Only non-subcategories report children.
type CategoryWithChildren struct {
	Category
	Subcategories []Subcategory `json:"subcategories"`
}
