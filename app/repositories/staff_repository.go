package repositories

import (
	"errors"

	"github.com/tradeyard/tradeyard/app/models"
	"github.com/tradeyard/tradeyard/pkg/orm"
	"gorm.io/gorm"
)

// StaffRepository manages per-store role assignments.
type StaffRepository struct{}

func NewStaffRepository() *StaffRepository {
	return &StaffRepository{}
}

// SetRole upserts the user's role for the store: an existing assignment is
// overwritten, otherwise a new one is created. Last write wins.
func (r *StaffRepository) SetRole(storeID, userID, role string) (models.StoreRole, error) {
	var existing models.StoreRole
	err := orm.DB().Model(&models.StoreRole{}).
		Where("store_id = ? AND user_id = ?", storeID, userID).
		First(&existing)

	switch {
	case err == nil:
		existing.Role = role
		return existing, orm.DB().Save(&existing)
	case errors.Is(err, gorm.ErrRecordNotFound):
		assignment := models.StoreRole{StoreID: storeID, UserID: userID, Role: role}
		return assignment, orm.DB().Create(&assignment)
	default:
		return models.StoreRole{}, err
	}
}

// RemoveRole drops the user's assignment for the store. Removing a role
// that does not exist is not an error.
func (r *StaffRepository) RemoveRole(storeID, userID string) error {
	return orm.DB().Delete(&models.StoreRole{}, "store_id = ? AND user_id = ?", storeID, userID)
}

// ListByStore returns every role assignment for the store together with the
// assigned user.
func (r *StaffRepository) ListByStore(storeID string) ([]StaffMember, error) {
	var assignments []models.StoreRole
	err := orm.DB().Model(&models.StoreRole{}).
		Where("store_id = ?", storeID).
		Order("created_at asc").
		Get(&assignments)
	if err != nil {
		return nil, err
	}

	members := make([]StaffMember, 0, len(assignments))
	for _, a := range assignments {
		var user models.User
		if err := orm.DB().Model(&models.User{}).Where("id = ?", a.UserID).First(&user); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		members = append(members, StaffMember{
			UserID: user.ID,
			Name:   user.Name,
			Email:  user.Email,
			Role:   a.Role,
		})
	}
	return members, nil
}

// StaffMember is the staff-listing projection: the user joined with their
// role in the store.
type StaffMember struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}
