package repositories

import (
	"errors"

	"github.com/tradeyard/tradeyard/app/models"
	"github.com/tradeyard/tradeyard/pkg/collection"
	"github.com/tradeyard/tradeyard/pkg/errs"
	"github.com/tradeyard/tradeyard/pkg/orm"
	"gorm.io/gorm"
)

// CategoryRepository handles database operations for Category. Every read
// and write is scoped to one store; a category id from another tenant
// behaves exactly like a missing id.
type CategoryRepository struct{}

func NewCategoryRepository() *CategoryRepository {
	return &CategoryRepository{}
}

// FindByID looks up one category within the store.
func (r *CategoryRepository) FindByID(storeID, id string) (models.Category, error) {
	var cat models.Category
	err := orm.DB().Model(&models.Category{}).
		Where("store_id = ? AND id = ?", storeID, id).
		First(&cat)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cat, errs.NotFound("category not found")
	}
	return cat, err
}

// NameTaken reports whether the store already has a category with exactly
// this name. The match is case-sensitive; "Shoes" and "shoes" may coexist.
// excludeID skips one record so renames do not collide with themselves.
func (r *CategoryRepository) NameTaken(storeID, name, excludeID string) (bool, error) {
	q := orm.DB().Model(&models.Category{}).Where("store_id = ? AND name = ?", storeID, name)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	n, err := q.Count()
	return n > 0, err
}

// Create persists a new category. A race on the (store, name) unique index
// surfaces as a conflict.
func (r *CategoryRepository) Create(cat *models.Category) error {
	err := orm.DB().Create(cat)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.Conflict("a category with this name already exists in this store")
	}
	return err
}

// Update persists changes to an existing category.
func (r *CategoryRepository) Update(cat *models.Category) error {
	err := orm.DB().Save(cat)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.Conflict("a category with this name already exists in this store")
	}
	return err
}

// Delete removes the category record and nulls out every reference to it:
// join rows linking products to the category are dropped, and subcategories
// that pointed at it are promoted to top level rather than left dangling.
func (r *CategoryRepository) Delete(storeID, id string) error {
	if err := orm.DB().Gorm().Exec("DELETE FROM product_categories WHERE category_id = ?", id).Error; err != nil {
		return err
	}
	err := orm.DB().Gorm().Model(&models.Category{}).
		Where("store_id = ? AND parent_category_id = ?", storeID, id).
		Updates(map[string]interface{}{"is_subcategory": false, "parent_category_id": nil}).Error
	if err != nil {
		return err
	}
	return orm.DB().Delete(&models.Category{}, "store_id = ? AND id = ?", storeID, id)
}

// ListByStore returns every category in the store, each annotated with its
// derived subcategory list. Children are computed as a projection over the
// store's category set; only non-subcategories report children.
func (r *CategoryRepository) ListByStore(storeID string) ([]models.CategoryWithChildren, error) {
	var cats []models.Category
	err := orm.DB().Model(&models.Category{}).
		Where("store_id = ?", storeID).
		Order("created_at asc").
		Get(&cats)
	if err != nil {
		return nil, err
	}

	subs := collection.Filter(cats, func(c models.Category) bool {
		return c.IsSubcategory && c.ParentCategoryID != nil
	})
	byParent := collection.GroupBy(subs, func(c models.Category) string {
		return *c.ParentCategoryID
	})

	out := make([]models.CategoryWithChildren, 0, len(cats))
	for _, cat := range cats {
		entry := models.CategoryWithChildren{Category: cat, Subcategories: []models.Subcategory{}}
		if !cat.IsSubcategory {
			entry.Subcategories = collection.Map(byParent[cat.ID], func(c models.Category) models.Subcategory {
				return models.Subcategory{ID: c.ID, Name: c.Name}
			})
			if entry.Subcategories == nil {
				entry.Subcategories = []models.Subcategory{}
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

// CountByIDs reports how many of the given category ids exist within the
// store. Callers compare the count against the request's cardinality to
// detect both unknown and cross-tenant ids in one check.
func (r *CategoryRepository) CountByIDs(storeID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return orm.DB().Model(&models.Category{}).
		Where("store_id = ? AND id IN ?", storeID, ids).
		Count()
}

// FindByIDs returns the store's categories matching the given ids.
func (r *CategoryRepository) FindByIDs(storeID string, ids []string) ([]models.Category, error) {
	var cats []models.Category
	if len(ids) == 0 {
		return cats, nil
	}
	err := orm.DB().Model(&models.Category{}).
		Where("store_id = ? AND id IN ?", storeID, ids).
		Get(&cats)
	return cats, err
}
