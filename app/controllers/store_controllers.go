package controllers

import (
	"github.com/tradeyard/tradeyard/app/middleware"
	"github.com/tradeyard/tradeyard/app/resources"
	"github.com/tradeyard/tradeyard/app/services"
	"github.com/tradeyard/tradeyard/pkg/ctx"
	"github.com/tradeyard/tradeyard/pkg/resource"
)

type StoreController struct {
	service *services.StoreService
}

func NewStoreController() *StoreController {
	return &StoreController{service: services.NewStoreService()}
}

// Create opens a new store owned by the caller. Accepts a JSON body or a
// multipart form with optional logo and banner uploads.
func (ctl *StoreController) Create(c *ctx.Context) {
	user, ok := middleware.UserFrom(c.R)
	if !ok {
		c.Unauthorized()
		return
	}
	var in services.CreateStoreInput
	if !bindPayload(c, &in) {
		return
	}
	store, err := ctl.service.Create(user.ID, in, c.FormFile("logo"), c.FormFile("banner"))
	if err != nil {
		c.FromError(err)
		return
	}
	c.Created("Store created", store)
}

// Update applies a partial edit to the resolved store.
func (ctl *StoreController) Update(c *ctx.Context) {
	store, ok := middleware.StoreFrom(c.R)
	if !ok {
		c.BadRequest("store id is required")
		return
	}
	var in services.UpdateStoreInput
	if !bindPayload(c, &in) {
		return
	}
	updated, err := ctl.service.Update(store, in, c.FormFile("logo"), c.FormFile("banner"))
	if err != nil {
		c.FromError(err)
		return
	}
	c.Success("Store updated", updated)
}

// Show returns one store by id.
func (ctl *StoreController) Show(c *ctx.Context) {
	store, err := ctl.service.Get(c.Param("storeID"))
	if err != nil {
		c.FromError(err)
		return
	}
	c.Success("OK", store)
}

// ShowBySlug returns one store by its public slug.
func (ctl *StoreController) ShowBySlug(c *ctx.Context) {
	store, err := ctl.service.BySlug(c.Param("slug"))
	if err != nil {
		c.FromError(err)
		return
	}
	c.Success("OK", store)
}

// List returns a page of stores. Admins see deactivated stores too.
func (ctl *StoreController) List(c *ctx.Context) {
	p, _ := middleware.PrincipalFrom(c.R)
	stores, pagination, err := ctl.service.List(p, c.QueryInt("page", 1), c.QueryInt("perPage", 20))
	if err != nil {
		c.FromError(err)
		return
	}
	c.Paginated("OK", stores, pagination)
}

// Mine returns every store the caller owns, projected to the owner view.
func (ctl *StoreController) Mine(c *ctx.Context) {
	user, ok := middleware.UserFrom(c.R)
	if !ok {
		c.Unauthorized()
		return
	}
	stores, err := ctl.service.Mine(user.ID)
	if err != nil {
		c.FromError(err)
		return
	}
	c.Success("OK", resource.CollectionOf(&resources.StoreResource{}, stores))
}

// SetActive deactivates or reactivates the resolved store.
func (ctl *StoreController) SetActive(c *ctx.Context) {
	store, ok := middleware.StoreFrom(c.R)
	if !ok {
		c.BadRequest("store id is required")
		return
	}
	p, _ := middleware.PrincipalFrom(c.R)
	var in struct {
		IsActive *bool `json:"isActive" validate:"required"`
	}
	if !c.BindJSON(&in) {
		return
	}
	updated, err := ctl.service.SetActive(p, store, *in.IsActive)
	if err != nil {
		c.FromError(err)
		return
	}
	c.Success("Store visibility updated", updated)
}

// Delete removes the resolved store and reports any branding images that
// could not be cleaned off the object store.
func (ctl *StoreController) Delete(c *ctx.Context) {
	store, ok := middleware.StoreFrom(c.R)
	if !ok {
		c.BadRequest("store id is required")
		return
	}
	p, _ := middleware.PrincipalFrom(c.R)
	result, err := ctl.service.Delete(p, store)
	if err != nil {
		c.FromError(err)
		return
	}
	c.Success("Store deleted", result)
}
