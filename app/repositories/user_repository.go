package repositories

import (
	"errors"

	"github.com/tradeyard/tradeyard/app/models"
	"github.com/tradeyard/tradeyard/pkg/errs"
	"github.com/tradeyard/tradeyard/pkg/orm"
	"gorm.io/gorm"
)

// UserRepository handles database operations for User.
type UserRepository struct{}

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// FindByEmail looks up a user by their email address.
func (r *UserRepository) FindByEmail(email string) (models.User, error) {
	var user models.User
	err := orm.DB().Model(&models.User{}).Where("email = ?", email).First(&user)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, errs.NotFound("user not found")
	}
	return user, err
}

// FindByID looks up a user by primary key, including the live store-role
// set. Authorization gates re-resolve roles through this read rather than
// trusting token claims.
func (r *UserRepository) FindByID(id string) (models.User, error) {
	var user models.User
	err := orm.DB().Model(&models.User{}).Preload("StoreRoles").Where("id = ?", id).First(&user)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, errs.NotFound("user not found")
	}
	return user, err
}

// Create persists a new user record. Duplicate email or phone surfaces as
// a conflict.
func (r *UserRepository) Create(user *models.User) error {
	err := orm.DB().Create(user)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.Conflict("an account with this email or phone already exists")
	}
	return err
}

// Update persists changes to an existing user.
func (r *UserRepository) Update(user *models.User) error {
	err := orm.DB().Save(user)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.Conflict("an account with this email or phone already exists")
	}
	return err
}

// All returns one page of users.
func (r *UserRepository) All(page, limit int) ([]models.User, orm.Pagination, error) {
	var users []models.User
	pagination, err := orm.DB().Model(&models.User{}).Order("created_at desc").GetWithPagination(page, limit, &users)
	return users, pagination, err
}
