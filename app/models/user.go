package models

import (
	"github.com/tradeyard/tradeyard/pkg/rbac"
)

// User is the primary account model. The global role covers platform-wide
// privileges; per-store privileges live in the StoreRoles association.
type User struct {
	Model
	Name       string      `gorm:"size:255;not null" json:"name"`
	Email      string      `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Phone      *string     `gorm:"uniqueIndex;size:50" json:"phone,omitempty"`
	Password   string      `gorm:"size:255;not null" json:"-"` // hashed, never serialised
	Role       string      `gorm:"size:50;default:customer" json:"role"`
	Addresses  []Address   `gorm:"serializer:json" json:"addresses"`
	StoreRoles []StoreRole `gorm:"constraint:OnDelete:CASCADE" json:"storeRoles,omitempty"`
}

// Address is a free-form postal address carried on the user record.
type Address struct {
	Label   string `json:"label"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state,omitempty"`
	Country string `json:"country"`
	Zip     string `json:"zip,omitempty"`
}

// StoreRole grants a user one role within one store. The compound unique
// index guarantees at most one role per (user, store); writes overwrite
// rather than accumulate.
type StoreRole struct {
	Model
	UserID  string `gorm:"size:36;not null;uniqueIndex:idx_store_roles_user_store" json:"userId"`
	StoreID string `gorm:"size:36;not null;uniqueIndex:idx_store_roles_user_store;index" json:"storeId"`
	Role    string `gorm:"size:50;not null" json:"role"`
}

// Principal converts the user record, including its live store-role set,
// into an authorization principal.
func (u *User) Principal() rbac.Principal {
	p := rbac.Principal{
		ID:         u.ID,
		GlobalRole: rbac.GlobalRole(u.Role),
		StoreRoles: make(map[string]rbac.StoreRole, len(u.StoreRoles)),
	}
	for _, sr := range u.StoreRoles {
		p.StoreRoles[sr.StoreID] = rbac.StoreRole(sr.Role)
	}
	return p
}
