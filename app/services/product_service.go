package services

import (
	"mime/multipart"
	"strings"

	"github.com/tradeyard/tradeyard/app/models"
	"github.com/tradeyard/tradeyard/app/repositories"
	"github.com/tradeyard/tradeyard/pkg/assets"
	"github.com/tradeyard/tradeyard/pkg/collection"
	"github.com/tradeyard/tradeyard/pkg/errs"
	"github.com/tradeyard/tradeyard/pkg/event"
	"github.com/tradeyard/tradeyard/pkg/logger"
	"github.com/tradeyard/tradeyard/pkg/orm"
	"github.com/tradeyard/tradeyard/pkg/sku"
)

// ProductService manages a store's listings: products, their images, colour
// variants and category links. All operations are scoped to one store.
type ProductService struct {
	Products   *repositories.ProductRepository
	Categories *repositories.CategoryRepository
	Assets     *assets.Manager
}

func NewProductService() *ProductService {
	return &ProductService{
		Products:   repositories.NewProductRepository(),
		Categories: repositories.NewCategoryRepository(),
		Assets:     assetManager(),
	}
}

// createAttempts bounds the insert retry when a generated SKU races another
// writer between the uniqueness probe and the insert.
const createAttempts = 3

// ColorInput describes one colour variant in a create or update request.
// ImageFilename references one of the files uploaded with the same request;
// Image carries an already-stored pair back unchanged.
type ColorInput struct {
	Name          string             `json:"name" validate:"required"`
	ImageFilename string             `json:"imageFilename"`
	Image         assets.Pair        `json:"image"`
	Sizes         []models.ColorSize `json:"sizes"`
}

// CreateProductInput carries the fields accepted at product creation. The
// SKU is generated server-side; clients never choose it.
type CreateProductInput struct {
	Name        string       `json:"name" validate:"required,min=1,max=255"`
	Description string       `json:"description"`
	Price       float64      `json:"price" validate:"required"`
	Featured    bool         `json:"featured"`
	CategoryIDs []string     `json:"categoryIds"`
	Colors      []ColorInput `json:"colors"`
}

// Create adds a product to the store. Every referenced category must exist
// in the same store; unknown and cross-tenant ids are rejected by name.
// Images are uploaded before the insert, and a failed insert cleans them up.
func (s *ProductService) Create(storeID string, in CreateProductInput, images []*multipart.FileHeader) (models.Product, error) {
	if in.Price < 0 {
		return models.Product{}, errs.Validation("price must not be negative")
	}

	cats, err := s.resolveCategories(storeID, in.CategoryIDs)
	if err != nil {
		return models.Product{}, err
	}

	pairs, byName, err := s.storeImages(images)
	if err != nil {
		return models.Product{}, err
	}

	colors, err := resolveColors(in.Colors, byName)
	if err != nil {
		s.Assets.Delete(pairs...)
		return models.Product{}, err
	}

	product := models.Product{
		StoreID:     storeID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Featured:    in.Featured,
		Images:      pairs,
		Colors:      colors,
		Categories:  cats,
	}

	for attempt := 0; ; attempt++ {
		code, err := sku.Generate(storeID, func(c string) (bool, error) {
			return s.Products.SKUExists(storeID, c)
		})
		if err != nil {
			s.Assets.Delete(pairs...)
			return models.Product{}, err
		}
		product.SKU = code

		err = s.Products.Create(&product)
		if err == nil {
			break
		}
		// A conflict here means the code was claimed between the probe and
		// the insert; regenerate and try again.
		if errs.IsConflict(err) && attempt < createAttempts-1 {
			continue
		}
		s.Assets.Delete(pairs...)
		return models.Product{}, err
	}

	event.FireAsync("catalog.product.created", map[string]string{"storeId": storeID, "productId": product.ID})
	return product, nil
}

// UpdateProductInput carries the optional fields of a partial product
// update. Absent fields stay unchanged; CategoryIDs and Colors, when
// present, replace the previous sets entirely.
type UpdateProductInput struct {
	Name        *string       `json:"name" validate:"nullable,min=1,max=255"`
	Description *string       `json:"description"`
	Price       *float64      `json:"price"`
	Featured    *bool         `json:"featured"`
	CategoryIDs *[]string     `json:"categoryIds"`
	Colors      *[]ColorInput `json:"colors"`
}

// Update applies a partial edit. Files uploaded with the request are
// appended to the product's images. Replaced colour variants release any
// image pairs no longer referenced anywhere on the product.
func (s *ProductService) Update(storeID, id string, in UpdateProductInput, images []*multipart.FileHeader) (models.Product, error) {
	product, err := s.Products.FindByID(storeID, id)
	if err != nil {
		return models.Product{}, err
	}

	if in.Name != nil {
		product.Name = *in.Name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return models.Product{}, errs.Validation("price must not be negative")
		}
		product.Price = *in.Price
	}
	if in.Featured != nil {
		product.Featured = *in.Featured
	}

	var cats []models.Category
	replaceCats := in.CategoryIDs != nil
	if replaceCats {
		cats, err = s.resolveCategories(storeID, *in.CategoryIDs)
		if err != nil {
			return models.Product{}, err
		}
	}

	pairs, byName, err := s.storeImages(images)
	if err != nil {
		return models.Product{}, err
	}
	product.Images = append(product.Images, pairs...)

	var dropped []assets.Pair
	if in.Colors != nil {
		colors, err := resolveColors(*in.Colors, byName)
		if err != nil {
			s.Assets.Delete(pairs...)
			return models.Product{}, err
		}
		dropped = droppedColorImages(product, colors)
		product.Colors = colors
	}

	if err := s.Products.Update(&product); err != nil {
		s.Assets.Delete(pairs...)
		return models.Product{}, err
	}
	if replaceCats {
		if err := s.Products.ReplaceCategories(&product, cats); err != nil {
			return models.Product{}, err
		}
		product.Categories = cats
	}

	if len(dropped) > 0 {
		if result := s.Assets.Delete(dropped...); result.Err() != nil {
			logger.Warn("product: replaced colour images left behind",
				"productId", product.ID, "failed", result.Failed)
			retryCleanup(result)
		}
	}

	event.FireAsync("catalog.product.updated", map[string]string{"storeId": storeID, "productId": product.ID})
	return product, nil
}

// Delete removes the product and everything it stored: top-level images and
// colour images. Asset failures are reported but never block the removal.
func (s *ProductService) Delete(storeID, id string) (assets.Result, error) {
	product, err := s.Products.FindByID(storeID, id)
	if err != nil {
		return assets.Result{}, err
	}

	result := s.Assets.Delete(product.AssetPairs()...)
	if err := s.Products.Delete(storeID, id); err != nil {
		return result, err
	}
	if result.Err() != nil {
		logger.Warn("product: images left behind after delete",
			"productId", id, "failed", result.Failed)
		retryCleanup(result)
	}

	event.FireAsync("catalog.product.deleted", map[string]string{"storeId": storeID, "productId": id})
	return result, nil
}

// DeleteImage detaches one top-level image, matched by its original URL.
// The stored pair is deleted first, then the reference is removed from the
// record; a blob that refuses to die is logged, never surfaced.
func (s *ProductService) DeleteImage(storeID, productID, imageURL string) (models.Product, error) {
	product, err := s.Products.FindByID(storeID, productID)
	if err != nil {
		return models.Product{}, err
	}

	idx := -1
	for i, pair := range product.Images {
		if pair.Original == imageURL {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Product{}, errs.NotFound("image not found on this product")
	}

	removed := product.Images[idx]
	if result := s.Assets.Delete(removed); result.Err() != nil {
		logger.Warn("product: detached image left behind",
			"productId", productID, "failed", result.Failed)
		retryCleanup(result)
	}

	product.Images = append(product.Images[:idx], product.Images[idx+1:]...)
	if err := s.Products.Update(&product); err != nil {
		return models.Product{}, err
	}

	event.FireAsync("catalog.product.updated", map[string]string{"storeId": storeID, "productId": productID})
	return product, nil
}

// Get loads one product with its categories.
func (s *ProductService) Get(storeID, id string) (models.Product, error) {
	return s.Products.FindByID(storeID, id)
}

// List returns one page of the store's products, optionally filtered by a
// search term across name, description and SKU.
func (s *ProductService) List(storeID, search string, page, limit int) ([]models.Product, orm.Pagination, error) {
	return s.Products.ListByStore(storeID, search, page, limit)
}

// Featured returns the store's featured products.
func (s *ProductService) Featured(storeID string) ([]models.Product, error) {
	return s.Products.Featured(storeID)
}

// resolveCategories loads the referenced categories and rejects the request
// when any id is unknown to this store, naming the offenders.
func (s *ProductService) resolveCategories(storeID string, ids []string) ([]models.Category, error) {
	unique := collection.Unique(ids)
	if len(unique) == 0 {
		return nil, nil
	}
	cats, err := s.Categories.FindByIDs(storeID, unique)
	if err != nil {
		return nil, err
	}
	if len(cats) != len(unique) {
		found := collection.Map(cats, func(c models.Category) string { return c.ID })
		missing := collection.Diff(unique, found)
		return nil, errs.Validation("unknown categories for this store: %s", strings.Join(missing, ", "))
	}
	return cats, nil
}

// storeImages uploads the request's files sequentially and indexes the
// resulting pairs by filename so colour variants can reference them. A
// mid-batch failure rolls back what was already stored.
func (s *ProductService) storeImages(files []*multipart.FileHeader) ([]assets.Pair, map[string]assets.Pair, error) {
	pairs := make([]assets.Pair, 0, len(files))
	byName := make(map[string]assets.Pair, len(files))
	for _, fh := range files {
		pair, err := s.Assets.StoreFile(fh, "products", assets.Catalog)
		if err != nil {
			s.Assets.Delete(pairs...)
			return nil, nil, err
		}
		pairs = append(pairs, pair)
		byName[fh.Filename] = pair
	}
	return pairs, byName, nil
}

// resolveColors turns colour inputs into stored variants. A filename must
// match one of the files uploaded with the same request.
func resolveColors(inputs []ColorInput, uploaded map[string]assets.Pair) ([]models.Color, error) {
	colors := make([]models.Color, 0, len(inputs))
	for _, in := range inputs {
		color := models.Color{Name: in.Name, Image: in.Image, Sizes: in.Sizes}
		if in.ImageFilename != "" {
			pair, ok := uploaded[in.ImageFilename]
			if !ok {
				return nil, errs.Validation("colour %q references file %q, which was not uploaded", in.Name, in.ImageFilename)
			}
			color.Image = pair
		}
		if color.Sizes == nil {
			color.Sizes = []models.ColorSize{}
		}
		colors = append(colors, color)
	}
	return colors, nil
}

// droppedColorImages returns the colour image pairs that the replacement
// set no longer references, excluding anything still used by the product's
// top-level images or the new colours.
func droppedColorImages(product models.Product, next []models.Color) []assets.Pair {
	keep := make(map[string]bool)
	for _, pair := range product.Images {
		keep[pair.Original] = true
	}
	for _, c := range next {
		if !c.Image.Empty() {
			keep[c.Image.Original] = true
		}
	}

	var dropped []assets.Pair
	for _, c := range product.Colors {
		if !c.Image.Empty() && !keep[c.Image.Original] {
			dropped = append(dropped, c.Image)
		}
	}
	return dropped
}
