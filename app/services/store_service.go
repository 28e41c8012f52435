package services

import (
	"mime/multipart"

	"github.com/tradeyard/tradeyard/app/models"
	"github.com/tradeyard/tradeyard/app/repositories"
	"github.com/tradeyard/tradeyard/pkg/assets"
	"github.com/tradeyard/tradeyard/pkg/errs"
	"github.com/tradeyard/tradeyard/pkg/event"
	"github.com/tradeyard/tradeyard/pkg/logger"
	"github.com/tradeyard/tradeyard/pkg/orm"
	"github.com/tradeyard/tradeyard/pkg/rbac"
	"github.com/tradeyard/tradeyard/pkg/slug"
)

// StoreService manages the tenant lifecycle: creation, settings, branding
// imagery, deactivation and deletion.
type StoreService struct {
	Stores *repositories.StoreRepository
	Staff  *repositories.StaffRepository
	Assets *assets.Manager
}

func NewStoreService() *StoreService {
	return &StoreService{
		Stores: repositories.NewStoreRepository(),
		Staff:  repositories.NewStaffRepository(),
		Assets: assetManager(),
	}
}

// CreateStoreInput carries the fields accepted at store creation.
type CreateStoreInput struct {
	Name        string                `json:"name" validate:"required,min=2,max=255"`
	Description string                `json:"description"`
	Address     string                `json:"address"`
	Contact     string                `json:"contact"`
	Settings    *models.StoreSettings `json:"settings"`
}

// Create registers a new store owned by ownerID. The store's slug is derived
// from the name, and the owner is granted the store_admin role. Names that
// differ only by case or punctuation collapse to the same slug, so both the
// name and the derived slug are checked for collisions.
func (s *StoreService) Create(ownerID string, in CreateStoreInput, logo, banner *multipart.FileHeader) (models.Store, error) {
	derived := slug.Make(in.Name)
	if derived == "" {
		return models.Store{}, errs.Validation("store name must contain at least one letter or digit")
	}

	taken, err := s.Stores.NameTaken(in.Name, "")
	if err != nil {
		return models.Store{}, err
	}
	if taken {
		return models.Store{}, errs.Conflict("a store with this name already exists")
	}
	if _, err := s.Stores.FindBySlug(derived); err == nil {
		return models.Store{}, errs.Conflict("a store with this name already exists")
	} else if !errs.IsNotFound(err) {
		return models.Store{}, err
	}

	settings := models.DefaultSettings()
	if in.Settings != nil {
		settings = *in.Settings
	}
	if err := validateSettings(settings); err != nil {
		return models.Store{}, err
	}

	store := models.Store{
		Name:        in.Name,
		Slug:        derived,
		Description: in.Description,
		Address:     in.Address,
		Contact:     in.Contact,
		Settings:    settings,
		IsActive:    true,
		OwnerID:     ownerID,
	}

	if logo != nil {
		pair, err := s.Assets.StoreFile(logo, "stores/logos", assets.Logo)
		if err != nil {
			return models.Store{}, err
		}
		store.Logo = pair
	}
	if banner != nil {
		pair, err := s.Assets.StoreFile(banner, "stores/banners", assets.Banner)
		if err != nil {
			// Do not leave the already-stored logo stranded.
			s.Assets.Delete(store.Logo)
			return models.Store{}, err
		}
		store.Banner = pair
	}

	if err := s.Stores.Create(&store); err != nil {
		s.Assets.Delete(store.Logo, store.Banner)
		return models.Store{}, err
	}

	if _, err := s.Staff.SetRole(store.ID, ownerID, string(rbac.StoreAdmin)); err != nil {
		return models.Store{}, err
	}

	event.FireAsync("store.created", store.ID)
	return store, nil
}

// UpdateStoreInput carries the optional fields of a partial store update.
// Absent fields stay unchanged.
type UpdateStoreInput struct {
	Name        *string               `json:"name" validate:"nullable,min=2,max=255"`
	Description *string               `json:"description"`
	Address     *string               `json:"address"`
	Contact     *string               `json:"contact"`
	Settings    *models.StoreSettings `json:"settings"`
	IsActive    *bool                 `json:"isActive"`
}

// Update applies a partial edit. A rename re-derives the slug and re-checks
// both uniqueness constraints excluding the store itself. Replacing the logo
// or banner deletes the previous pair first; a failed deletion is logged and
// the update proceeds.
func (s *StoreService) Update(store models.Store, in UpdateStoreInput, logo, banner *multipart.FileHeader) (models.Store, error) {
	if in.Name != nil && *in.Name != store.Name {
		derived := slug.Make(*in.Name)
		if derived == "" {
			return models.Store{}, errs.Validation("store name must contain at least one letter or digit")
		}
		taken, err := s.Stores.NameTaken(*in.Name, store.ID)
		if err != nil {
			return models.Store{}, err
		}
		if taken {
			return models.Store{}, errs.Conflict("a store with this name already exists")
		}
		if existing, err := s.Stores.FindBySlug(derived); err == nil && existing.ID != store.ID {
			return models.Store{}, errs.Conflict("a store with this name already exists")
		} else if err != nil && !errs.IsNotFound(err) {
			return models.Store{}, err
		}
		store.Name = *in.Name
		store.Slug = derived
	}

	if in.Description != nil {
		store.Description = *in.Description
	}
	if in.Address != nil {
		store.Address = *in.Address
	}
	if in.Contact != nil {
		store.Contact = *in.Contact
	}
	if in.Settings != nil {
		if err := validateSettings(*in.Settings); err != nil {
			return models.Store{}, err
		}
		store.Settings = *in.Settings
	}
	if in.IsActive != nil {
		store.IsActive = *in.IsActive
	}

	if logo != nil {
		pair, err := s.replaceBranding(store.Logo, logo, "stores/logos", assets.Logo)
		if err != nil {
			return models.Store{}, err
		}
		store.Logo = pair
	}
	if banner != nil {
		pair, err := s.replaceBranding(store.Banner, banner, "stores/banners", assets.Banner)
		if err != nil {
			return models.Store{}, err
		}
		store.Banner = pair
	}

	if err := s.Stores.Update(&store); err != nil {
		return models.Store{}, err
	}

	event.FireAsync("store.updated", store.ID)
	return store, nil
}

// replaceBranding deletes the previous pair best-effort, then stores the
// replacement.
func (s *StoreService) replaceBranding(old assets.Pair, upload *multipart.FileHeader, prefix string, preset assets.Preset) (assets.Pair, error) {
	if !old.Empty() {
		if result := s.Assets.Delete(old); result.Err() != nil {
			logger.Warn("store: previous branding image left behind",
				"failed", result.Failed)
			retryCleanup(result)
		}
	}
	return s.Assets.StoreFile(upload, prefix, preset)
}

// Delete removes the store, its role assignments and its branding imagery.
// Only the owner or a global admin may delete. Asset deletion failures are
// reported but never block the removal.
func (s *StoreService) Delete(p rbac.Principal, store models.Store) (assets.Result, error) {
	if !canManageStoreLifecycle(p, store) {
		return assets.Result{}, errs.Forbidden("only the store owner or a platform admin can delete a store")
	}

	result := s.Assets.Delete(store.Logo, store.Banner)
	if err := s.Stores.Delete(store.ID); err != nil {
		return result, err
	}
	retryCleanup(result)

	event.FireAsync("store.deleted", store.ID)
	return result, nil
}

// SetActive flips the visibility flag. Only the owner or a global admin may
// deactivate or reactivate a store.
func (s *StoreService) SetActive(p rbac.Principal, store models.Store, active bool) (models.Store, error) {
	if !canManageStoreLifecycle(p, store) {
		return models.Store{}, errs.Forbidden("only the store owner or a platform admin can change store visibility")
	}
	store.IsActive = active
	if err := s.Stores.Update(&store); err != nil {
		return models.Store{}, err
	}
	event.FireAsync("store.updated", store.ID)
	return store, nil
}

// Get loads a store by primary key.
func (s *StoreService) Get(id string) (models.Store, error) {
	return s.Stores.FindByID(id)
}

// BySlug loads a store by its public slug.
func (s *StoreService) BySlug(storeSlug string) (models.Store, error) {
	return s.Stores.FindBySlug(storeSlug)
}

// List returns one page of stores. Unprivileged callers only see active
// stores; admins see everything.
func (s *StoreService) List(p rbac.Principal, page, limit int) ([]models.Store, orm.Pagination, error) {
	switch p.GlobalRole {
	case rbac.RoleSuperadmin, rbac.RoleAdmin:
		return s.Stores.All(page, limit)
	}
	return s.Stores.Active(page, limit)
}

// Mine returns every store the user owns.
func (s *StoreService) Mine(userID string) ([]models.Store, error) {
	return s.Stores.OwnedBy(userID)
}

func canManageStoreLifecycle(p rbac.Principal, store models.Store) bool {
	switch p.GlobalRole {
	case rbac.RoleSuperadmin, rbac.RoleAdmin:
		return true
	}
	return p.ID == store.OwnerID
}

func validateSettings(settings models.StoreSettings) error {
	fields := map[string]string{}
	if settings.TaxRate < 0 || settings.TaxRate > 1 {
		fields["settings.taxRate"] = "must be a fraction between 0 and 1"
	}
	if settings.ShippingFee < 0 {
		fields["settings.shippingFee"] = "must not be negative"
	}
	if len(fields) > 0 {
		return errs.ValidationFields("invalid store settings", fields)
	}
	return nil
}
