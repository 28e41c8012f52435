package repositories

import (
	"errors"

	"github.com/tradeyard/tradeyard/app/models"
	"github.com/tradeyard/tradeyard/pkg/errs"
	"github.com/tradeyard/tradeyard/pkg/orm"
	"gorm.io/gorm"
)

// ProductRepository handles database operations for Product, always scoped
// to one store.
type ProductRepository struct{}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{}
}

// FindByID looks up one product within the store, with its categories.
func (r *ProductRepository) FindByID(storeID, id string) (models.Product, error) {
	var product models.Product
	err := orm.DB().Model(&models.Product{}).
		Preload("Categories").
		Where("store_id = ? AND id = ?", storeID, id).
		First(&product)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return product, errs.NotFound("product not found")
	}
	return product, err
}

// SKUExists reports whether the store already uses the given SKU. Fed to
// the SKU generator as its uniqueness probe.
func (r *ProductRepository) SKUExists(storeID, sku string) (bool, error) {
	n, err := orm.DB().Model(&models.Product{}).
		Where("store_id = ? AND sku = ?", storeID, sku).
		Count()
	return n > 0, err
}

// Create persists a new product together with its category links. A race
// on the (store, sku) unique index surfaces as a conflict.
func (r *ProductRepository) Create(product *models.Product) error {
	err := orm.DB().Create(product)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.Conflict("a product with this SKU already exists in this store")
	}
	return err
}

// Update persists changes to an existing product. Category links are
// managed separately through ReplaceCategories.
func (r *ProductRepository) Update(product *models.Product) error {
	err := orm.DB().Gorm().Omit("Categories").Save(product).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.Conflict("a product with this SKU already exists in this store")
	}
	return err
}

// ReplaceCategories swaps the product's category set for the given one.
func (r *ProductRepository) ReplaceCategories(product *models.Product, cats []models.Category) error {
	return orm.DB().Gorm().Model(product).Association("Categories").Replace(cats)
}

// Delete removes the product record and its category links.
func (r *ProductRepository) Delete(storeID, id string) error {
	err := orm.DB().Gorm().
		Select("Categories").
		Delete(&models.Product{Model: models.Model{ID: id}}, "store_id = ?", storeID).Error
	return err
}

// ListByStore returns one page of the store's products, newest first.
// search, when set, filters across name, description and SKU.
func (r *ProductRepository) ListByStore(storeID, search string, page, limit int) ([]models.Product, orm.Pagination, error) {
	q := orm.DB().Model(&models.Product{}).
		Preload("Categories").
		Where("store_id = ?", storeID)
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("name LIKE ? OR description LIKE ? OR sku LIKE ?", like, like, like)
	}
	var products []models.Product
	pagination, err := q.Order("created_at desc").GetWithPagination(page, limit, &products)
	return products, pagination, err
}

// Featured returns the store's featured products.
func (r *ProductRepository) Featured(storeID string) ([]models.Product, error) {
	var products []models.Product
	err := orm.DB().Model(&models.Product{}).
		Preload("Categories").
		Where("store_id = ? AND featured = ?", storeID, true).
		Order("created_at desc").
		Get(&products)
	return products, err
}
