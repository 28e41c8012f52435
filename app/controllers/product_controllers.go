package controllers

import (
	"github.com/tradeyard/tradeyard/app/middleware"
	"github.com/tradeyard/tradeyard/app/services"
	"github.com/tradeyard/tradeyard/pkg/ctx"
)

type ProductController struct {
	service *services.ProductService
}

func NewProductController() *ProductController {
	return &ProductController{service: services.NewProductService()}
}

// Create adds a product to the resolved store. Multipart requests carry
// the input in the "payload" field and any number of files under "images";
// colours may reference those files by filename.
func (ctl *ProductController) Create(c *ctx.Context) {
	store, ok := middleware.StoreFrom(c.R)
	if !ok {
		c.BadRequest("store id is required")
		return
	}
	var in services.CreateProductInput
	if !bindPayload(c, &in) {
		return
	}
	product, err := ctl.service.Create(store.ID, in, c.FormFiles("images"))
	if err != nil {
		c.FromError(err)
		return
	}
	c.Created("Product created", product)
}

// Update applies a partial edit. Uploaded files are appended to the
// product's images.
func (ctl *ProductController) Update(c *ctx.Context) {
	store, ok := middleware.StoreFrom(c.R)
	if !ok {
		c.BadRequest("store id is required")
		return
	}
	var in services.UpdateProductInput
	if !bindPayload(c, &in) {
		return
	}
	product, err := ctl.service.Update(store.ID, c.Param("productID"), in, c.FormFiles("images"))
	if err != nil {
		c.FromError(err)
		return
	}
	c.Success("Product updated", product)
}

// Delete removes a product and reports any image objects that could not be
// cleaned off the object store.
func (ctl *ProductController) Delete(c *ctx.Context) {
	store, ok := middleware.StoreFrom(c.R)
	if !ok {
		c.BadRequest("store id is required")
		return
	}
	result, err := ctl.service.Delete(store.ID, c.Param("productID"))
	if err != nil {
		c.FromError(err)
		return
	}
	c.Success("Product deleted", result)
}

// DeleteImage detaches a single image from a product by its original URL.
func (ctl *ProductController) DeleteImage(c *ctx.Context) {
	store, ok := middleware.StoreFrom(c.R)
	if !ok {
		c.BadRequest("store id is required")
		return
	}
	var in struct {
		ImageURL string `json:"imageUrl" validate:"required"`
	}
	if !c.BindJSON(&in) {
		return
	}
	product, err := ctl.service.DeleteImage(store.ID, c.Param("productID"), in.ImageURL)
	if err != nil {
		c.FromError(err)
		return
	}
	c.Success("Image removed", product)
}

// Show returns one product with its categories.
func (ctl *ProductController) Show(c *ctx.Context) {
	store, ok := middleware.StoreFrom(c.R)
	if !ok {
		c.BadRequest("store id is required")
		return
	}
	product, err := ctl.service.Get(store.ID, c.Param("productID"))
	if err != nil {
		c.FromError(err)
		return
	}
	c.Success("OK", product)
}

// List returns a page of the store's products, filtered by the optional
// search query across name, description and SKU.
func (ctl *ProductController) List(c *ctx.Context) {
	store, ok := middleware.StoreFrom(c.R)
	if !ok {
		c.BadRequest("store id is required")
		return
	}
	products, pagination, err := ctl.service.List(store.ID,
		c.Query("search"), c.QueryInt("page", 1), c.QueryInt("perPage", 20))
	if err != nil {
		c.FromError(err)
		return
	}
	c.Paginated("OK", products, pagination)
}

// Featured returns the store's featured products.
func (ctl *ProductController) Featured(c *ctx.Context) {
	store, ok := middleware.StoreFrom(c.R)
	if !ok {
		c.BadRequest("store id is required")
		return
	}
	products, err := ctl.service.Featured(store.ID)
	if err != nil {
		c.FromError(err)
		return
	}
	c.Success("OK", products)
}
