package repositories

import (
	"errors"
	"time"

	"github.com/tradeyard/tradeyard/app/models"
	"github.com/tradeyard/tradeyard/pkg/cache"
	"github.com/tradeyard/tradeyard/pkg/errs"
	"github.com/tradeyard/tradeyard/pkg/orm"
	"gorm.io/gorm"
)

// Resolved stores are cached by id; every mutation drops the entry, so the
// TTL only bounds staleness from writes that bypass this repository.
const storeCacheTTL = 5 * time.Minute

func storeCacheKey(id string) string { return "stores:" + id }

// StoreRepository handles database operations for Store.
type StoreRepository struct{}

func NewStoreRepository() *StoreRepository {
	return &StoreRepository{}
}

// FindByID looks up a store by primary key, reading through the cache.
// The store-context middleware calls this on every tenant-scoped request.
func (r *StoreRepository) FindByID(id string) (models.Store, error) {
	var store models.Store
	if cache.Get(storeCacheKey(id), &store) {
		return store, nil
	}
	err := orm.DB().Model(&models.Store{}).Where("id = ?", id).First(&store)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store, errs.NotFound("store not found")
	}
	if err == nil {
		_ = cache.Set(storeCacheKey(id), store, storeCacheTTL)
	}
	return store, err
}

// FindBySlug looks up a store by its derived slug.
func (r *StoreRepository) FindBySlug(slug string) (models.Store, error) {
	var store models.Store
	err := orm.DB().Model(&models.Store{}).Where("slug = ?", slug).First(&store)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store, errs.NotFound("store not found")
	}
	return store, err
}

// NameTaken reports whether any store already uses this name,
// case-insensitively. excludeID skips one record so renames do not
// collide with themselves.
func (r *StoreRepository) NameTaken(name, excludeID string) (bool, error) {
	q := orm.DB().Model(&models.Store{}).Where("LOWER(name) = LOWER(?)", name)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	n, err := q.Count()
	return n > 0, err
}

// Create persists a new store. The slug's unique index is the backstop
// against two names collapsing to the same slug.
func (r *StoreRepository) Create(store *models.Store) error {
	err := orm.DB().Create(store)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.Conflict("a store with this name already exists")
	}
	return err
}

// Update persists changes to an existing store and drops its cache entry,
// so deactivation and renames are visible on the next resolution.
func (r *StoreRepository) Update(store *models.Store) error {
	err := orm.DB().Save(store)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.Conflict("a store with this name already exists")
	}
	if err == nil {
		_ = cache.Del(storeCacheKey(store.ID))
	}
	return err
}

// Delete removes the store record and every role assignment that pointed
// at it, so no user is left holding a role for a dead store.
func (r *StoreRepository) Delete(id string) error {
	if err := orm.DB().Delete(&models.StoreRole{}, "store_id = ?", id); err != nil {
		return err
	}
	if err := orm.DB().Delete(&models.Store{}, "id = ?", id); err != nil {
		return err
	}
	_ = cache.Del(storeCacheKey(id))
	return nil
}

// Active returns one page of active stores, newest first. Deactivated
// stores are invisible to this read.
func (r *StoreRepository) Active(page, limit int) ([]models.Store, orm.Pagination, error) {
	var stores []models.Store
	pagination, err := orm.DB().Model(&models.Store{}).
		Where("is_active = ?", true).
		Order("created_at desc").
		GetWithPagination(page, limit, &stores)
	return stores, pagination, err
}

// All returns one page of stores regardless of active flag. Privileged
// reads only.
func (r *StoreRepository) All(page, limit int) ([]models.Store, orm.Pagination, error) {
	var stores []models.Store
	pagination, err := orm.DB().Model(&models.Store{}).
		Order("created_at desc").
		GetWithPagination(page, limit, &stores)
	return stores, pagination, err
}

// OwnedBy returns every store owned by the given user.
func (r *StoreRepository) OwnedBy(ownerID string) ([]models.Store, error) {
	var stores []models.Store
	err := orm.DB().Model(&models.Store{}).Where("owner_id = ?", ownerID).Order("created_at desc").Get(&stores)
	return stores, err
}
