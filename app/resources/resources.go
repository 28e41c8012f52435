// Package resources defines the API projections of persisted records.
// A resource decides which fields leave the service; anything not listed
// here never reaches a client regardless of what the model grows later.
package resources

import (
	"github.com/tradeyard/tradeyard/app/models"
	"github.com/tradeyard/tradeyard/pkg/resource"
)

// UserResource is the platform-admin projection of an account.
type UserResource struct{ resource.Base }

func (r *UserResource) ToArray(v interface{}) resource.Map {
	u := v.(models.User)
	out := resource.Map{
		"id":        u.ID,
		"name":      u.Name,
		"email":     u.Email,
		"role":      u.Role,
		"createdAt": u.CreatedAt,
	}
	if u.Phone != nil {
		out["phone"] = *u.Phone
	}
	return out
}

// StoreResource is the owner-facing projection of a store: branding and
// visibility, without the operational settings block the manage surface
// carries.
type StoreResource struct{ resource.Base }

func (r *StoreResource) ToArray(v interface{}) resource.Map {
	s := v.(models.Store)
	return resource.Map{
		"id":          s.ID,
		"name":        s.Name,
		"slug":        s.Slug,
		"description": s.Description,
		"logo":        s.Logo,
		"banner":      s.Banner,
		"isActive":    s.IsActive,
		"createdAt":   s.CreatedAt,
	}
}
