package controllers

import (
	"github.com/tradeyard/tradeyard/app/middleware"
	"github.com/tradeyard/tradeyard/app/services"
	"github.com/tradeyard/tradeyard/pkg/ctx"
)

type CategoryController struct {
	service *services.CategoryService
}

func NewCategoryController() *CategoryController {
	return &CategoryController{service: services.NewCategoryService()}
}

// Create adds a category to the resolved store, with an optional image.
func (ctl *CategoryController) Create(c *ctx.Context) {
	store, ok := middleware.StoreFrom(c.R)
	if !ok {
		c.BadRequest("store id is required")
		return
	}
	var in services.CreateCategoryInput
	if !bindPayload(c, &in) {
		return
	}
	cat, err := ctl.service.Create(store.ID, in, c.FormFile("image"))
	if err != nil {
		c.FromError(err)
		return
	}
	c.Created("Category created", cat)
}

// Update applies a partial edit, optionally replacing the image.
func (ctl *CategoryController) Update(c *ctx.Context) {
	store, ok := middleware.StoreFrom(c.R)
	if !ok {
		c.BadRequest("store id is required")
		return
	}
	var in services.UpdateCategoryInput
	if !bindPayload(c, &in) {
		return
	}
	cat, err := ctl.service.Update(store.ID, c.Param("categoryID"), in, c.FormFile("image"))
	if err != nil {
		c.FromError(err)
		return
	}
	c.Success("Category updated", cat)
}

// Delete removes a category and reports any image objects that could not
// be cleaned off the object store.
func (ctl *CategoryController) Delete(c *ctx.Context) {
	store, ok := middleware.StoreFrom(c.R)
	if !ok {
		c.BadRequest("store id is required")
		return
	}
	result, err := ctl.service.Delete(store.ID, c.Param("categoryID"))
	if err != nil {
		c.FromError(err)
		return
	}
	c.Success("Category deleted", result)
}

// Show returns one category.
func (ctl *CategoryController) Show(c *ctx.Context) {
	store, ok := middleware.StoreFrom(c.R)
	if !ok {
		c.BadRequest("store id is required")
		return
	}
	cat, err := ctl.service.Get(store.ID, c.Param("categoryID"))
	if err != nil {
		c.FromError(err)
		return
	}
	c.Success("OK", cat)
}

// List returns the store's categories with their derived subcategories.
func (ctl *CategoryController) List(c *ctx.Context) {
	store, ok := middleware.StoreFrom(c.R)
	if !ok {
		c.BadRequest("store id is required")
		return
	}
	cats, err := ctl.service.List(store.ID)
	if err != nil {
		c.FromError(err)
		return
	}
	c.Success("OK", cats)
}
