package services

import (
	"mime/multipart"

	"github.com/tradeyard/tradeyard/app/models"
	"github.com/tradeyard/tradeyard/app/repositories"
	"github.com/tradeyard/tradeyard/pkg/assets"
	"github.com/tradeyard/tradeyard/pkg/errs"
	"github.com/tradeyard/tradeyard/pkg/event"
	"github.com/tradeyard/tradeyard/pkg/logger"
)

// CategoryService manages a store's category tree: top-level categories,
// subcategories and their images. All operations are scoped to one store.
type CategoryService struct {
	Categories *repositories.CategoryRepository
	Assets     *assets.Manager
}

func NewCategoryService() *CategoryService {
	return &CategoryService{
		Categories: repositories.NewCategoryRepository(),
		Assets:     assetManager(),
	}
}

// CreateCategoryInput carries the fields accepted at category creation.
type CreateCategoryInput struct {
	Name             string  `json:"name" validate:"required,min=1,max=255"`
	Description      string  `json:"description"`
	IsSubcategory    bool    `json:"isSubcategory"`
	ParentCategoryID *string `json:"parentCategoryId"`
}

// Create adds a category to the store. Names are unique within the store
// and compared exactly, so "Shoes" and "shoes" are different categories.
// A subcategory must name a parent that exists in the same store.
func (s *CategoryService) Create(storeID string, in CreateCategoryInput, image *multipart.FileHeader) (models.Category, error) {
	taken, err := s.Categories.NameTaken(storeID, in.Name, "")
	if err != nil {
		return models.Category{}, err
	}
	if taken {
		return models.Category{}, errs.Conflict("a category with this name already exists in this store")
	}

	if !in.IsSubcategory && in.ParentCategoryID != nil {
		return models.Category{}, errs.Validation("parentCategoryId is only valid for a subcategory")
	}
	parentID, err := s.resolveParent(storeID, in.IsSubcategory, in.ParentCategoryID, "")
	if err != nil {
		return models.Category{}, err
	}

	cat := models.Category{
		StoreID:          storeID,
		Name:             in.Name,
		Description:      in.Description,
		IsSubcategory:    in.IsSubcategory,
		ParentCategoryID: parentID,
	}

	if image != nil {
		pair, err := s.Assets.StoreFile(image, "categories", assets.Catalog)
		if err != nil {
			return models.Category{}, err
		}
		cat.Image = pair
	}

	if err := s.Categories.Create(&cat); err != nil {
		s.Assets.Delete(cat.Image)
		return models.Category{}, err
	}

	event.FireAsync("catalog.category.created", map[string]string{"storeId": storeID, "categoryId": cat.ID})
	return cat, nil
}

// UpdateCategoryInput carries the optional fields of a partial category
// update. Absent fields stay unchanged.
type UpdateCategoryInput struct {
	Name             *string `json:"name" validate:"nullable,min=1,max=255"`
	Description      *string `json:"description"`
	IsSubcategory    *bool   `json:"isSubcategory"`
	ParentCategoryID *string `json:"parentCategoryId"`
}

// Update applies a partial edit. A rename re-checks uniqueness excluding the
// category itself. A replacement image deletes the previous pair first; a
// failed deletion is logged and the update proceeds.
func (s *CategoryService) Update(storeID, id string, in UpdateCategoryInput, image *multipart.FileHeader) (models.Category, error) {
	cat, err := s.Categories.FindByID(storeID, id)
	if err != nil {
		return models.Category{}, err
	}

	if in.Name != nil && *in.Name != cat.Name {
		taken, err := s.Categories.NameTaken(storeID, *in.Name, cat.ID)
		if err != nil {
			return models.Category{}, err
		}
		if taken {
			return models.Category{}, errs.Conflict("a category with this name already exists in this store")
		}
		cat.Name = *in.Name
	}
	if in.Description != nil {
		cat.Description = *in.Description
	}

	isSub := cat.IsSubcategory
	if in.IsSubcategory != nil {
		isSub = *in.IsSubcategory
	}
	// A parent supplied on a record that ends up top-level is a
	// contradiction; a stored parent on a record flipping to top-level is
	// simply cleared.
	if in.ParentCategoryID != nil && !isSub {
		return models.Category{}, errs.Validation("parentCategoryId is only valid for a subcategory")
	}
	parentRef := cat.ParentCategoryID
	if in.ParentCategoryID != nil {
		parentRef = in.ParentCategoryID
	}
	parentID, err := s.resolveParent(storeID, isSub, parentRef, cat.ID)
	if err != nil {
		return models.Category{}, err
	}
	cat.IsSubcategory = isSub
	cat.ParentCategoryID = parentID

	if image != nil {
		if !cat.Image.Empty() {
			if result := s.Assets.Delete(cat.Image); result.Err() != nil {
				logger.Warn("category: previous image left behind",
					"categoryId", cat.ID, "failed", result.Failed)
				retryCleanup(result)
			}
		}
		pair, err := s.Assets.StoreFile(image, "categories", assets.Catalog)
		if err != nil {
			return models.Category{}, err
		}
		cat.Image = pair
	}

	if err := s.Categories.Update(&cat); err != nil {
		return models.Category{}, err
	}

	event.FireAsync("catalog.category.updated", map[string]string{"storeId": storeID, "categoryId": cat.ID})
	return cat, nil
}

// resolveParent validates the subcategory/parent relationship and returns
// the parent id to persist. Non-subcategories never carry a parent.
func (s *CategoryService) resolveParent(storeID string, isSub bool, parentID *string, selfID string) (*string, error) {
	if !isSub {
		return nil, nil
	}
	if parentID == nil || *parentID == "" {
		return nil, errs.Validation("parentCategoryId is required for a subcategory")
	}
	if selfID != "" && *parentID == selfID {
		return nil, errs.Validation("a category cannot be its own parent")
	}
	parent, err := s.Categories.FindByID(storeID, *parentID)
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, errs.Validation("parent category not found in this store")
		}
		return nil, err
	}
	if parent.IsSubcategory {
		return nil, errs.Validation("a subcategory cannot be a parent")
	}
	return parentID, nil
}

// Delete removes the category and its image. The image deletion is
// best-effort and reported; the record goes away regardless. References are
// cleaned up: products drop the category from their sets and subcategories
// are promoted to top level.
func (s *CategoryService) Delete(storeID, id string) (assets.Result, error) {
	cat, err := s.Categories.FindByID(storeID, id)
	if err != nil {
		return assets.Result{}, err
	}

	result := s.Assets.Delete(cat.Image)
	if err := s.Categories.Delete(storeID, id); err != nil {
		return result, err
	}
	if result.Err() != nil {
		logger.Warn("category: image left behind after delete",
			"categoryId", id, "failed", result.Failed)
		retryCleanup(result)
	}

	event.FireAsync("catalog.category.deleted", map[string]string{"storeId": storeID, "categoryId": id})
	return result, nil
}

// Get loads one category within the store.
func (s *CategoryService) Get(storeID, id string) (models.Category, error) {
	return s.Categories.FindByID(storeID, id)
}

// List returns the store's categories with their derived subcategory lists.
func (s *CategoryService) List(storeID string) ([]models.CategoryWithChildren, error) {
	return s.Categories.ListByStore(storeID)
}
