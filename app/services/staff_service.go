package services

import (
	"time"

	"github.com/tradeyard/tradeyard/app/models"
	"github.com/tradeyard/tradeyard/app/notifications"
	"github.com/tradeyard/tradeyard/app/repositories"
	"github.com/tradeyard/tradeyard/pkg/crypt"
	"github.com/tradeyard/tradeyard/pkg/errs"
	"github.com/tradeyard/tradeyard/pkg/event"
	"github.com/tradeyard/tradeyard/pkg/logger"
	"github.com/tradeyard/tradeyard/pkg/notification"
	"github.com/tradeyard/tradeyard/pkg/rbac"
)

// StaffService manages who works in a store and with which role. Roles are
// one per user per store; assigning again overwrites.
type StaffService struct {
	Staff  *repositories.StaffRepository
	Users  *repositories.UserRepository
	Stores *repositories.StoreRepository
}

func NewStaffService() *StaffService {
	return &StaffService{
		Staff:  repositories.NewStaffRepository(),
		Users:  repositories.NewUserRepository(),
		Stores: repositories.NewStoreRepository(),
	}
}

// SetRoleInput names the user and the store role to grant.
type SetRoleInput struct {
	UserID string `json:"userId" validate:"required"`
	Role   string `json:"role" validate:"required"`
}

// SetRole grants a store role to an existing user, overwriting any previous
// role in the same store.
func (s *StaffService) SetRole(storeID string, in SetRoleInput) (models.StoreRole, error) {
	role := rbac.StoreRole(in.Role)
	if !role.Valid() {
		return models.StoreRole{}, errs.Validation("unknown store role %q", in.Role)
	}
	if _, err := s.Users.FindByID(in.UserID); err != nil {
		return models.StoreRole{}, err
	}

	assignment, err := s.Staff.SetRole(storeID, in.UserID, in.Role)
	if err != nil {
		return models.StoreRole{}, err
	}

	event.FireAsync("staff.role.assigned", map[string]string{
		"storeId": storeID, "userId": in.UserID, "role": in.Role,
	})
	return assignment, nil
}

// RemoveRole revokes the user's role in the store. Removing a role that was
// never granted is a no-op.
func (s *StaffService) RemoveRole(storeID, userID string) error {
	if err := s.Staff.RemoveRole(storeID, userID); err != nil {
		return err
	}
	event.FireAsync("staff.role.removed", map[string]string{
		"storeId": storeID, "userId": userID,
	})
	return nil
}

// List returns the store's staff with their roles.
func (s *StaffService) List(storeID string) ([]repositories.StaffMember, error) {
	return s.Staff.ListByStore(storeID)
}

// inviteTTL is how long a staff invite token stays redeemable.
const inviteTTL = 7 * 24 * time.Hour

// staffInvite is the sealed payload inside an invite token.
type staffInvite struct {
	StoreID   string `json:"storeId"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	ExpiresAt int64  `json:"expiresAt"`
}

// InviteInput names the address to invite and the role the invite carries.
type InviteInput struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required"`
}

// Invite seals a store/role grant into an encrypted token and notifies the
// address. The invitee does not need an account yet; the token is bound to
// the email and redeemed after registration. Delivery is best-effort: a
// failed channel is logged and the token still returned.
func (s *StaffService) Invite(storeID string, in InviteInput) (string, error) {
	role := rbac.StoreRole(in.Role)
	if !role.Valid() {
		return "", errs.Validation("unknown store role %q", in.Role)
	}
	store, err := s.Stores.FindByID(storeID)
	if err != nil {
		return "", err
	}

	token, err := crypt.EncryptJSON(staffInvite{
		StoreID:   storeID,
		Email:     in.Email,
		Role:      in.Role,
		ExpiresAt: time.Now().Add(inviteTTL).Unix(),
	})
	if err != nil {
		return "", err
	}

	if failed := notification.Send(in.Email, &notifications.StaffInvited{
		Store: store, Email: in.Email, Role: in.Role,
	}); len(failed) > 0 {
		logger.Warn("staff: invite not fully delivered",
			"storeId", storeID, "email", in.Email, "channels_failed", len(failed))
	}

	event.FireAsync("staff.invited", map[string]string{
		"storeId": storeID, "email": in.Email, "role": in.Role,
	})
	return token, nil
}

// AcceptInvite redeems an invite token for the accepting user. The token
// must decrypt, must not be expired, and must be addressed to the user's
// own email. The granted role overwrites any previous role in the store.
func (s *StaffService) AcceptInvite(userID, token string) (models.StoreRole, error) {
	var invite staffInvite
	if err := crypt.DecryptJSON(token, &invite); err != nil {
		return models.StoreRole{}, errs.Validation("invite token is invalid")
	}
	if time.Now().Unix() > invite.ExpiresAt {
		return models.StoreRole{}, errs.Validation("invite token has expired")
	}

	user, err := s.Users.FindByID(userID)
	if err != nil {
		return models.StoreRole{}, err
	}
	if user.Email != invite.Email {
		return models.StoreRole{}, errs.Forbidden("this invite was issued for a different email address")
	}
	// The store may have been deleted since the invite went out.
	if _, err := s.Stores.FindByID(invite.StoreID); err != nil {
		return models.StoreRole{}, err
	}

	assignment, err := s.Staff.SetRole(invite.StoreID, userID, invite.Role)
	if err != nil {
		return models.StoreRole{}, err
	}

	event.FireAsync("staff.role.assigned", map[string]string{
		"storeId": invite.StoreID, "userId": userID, "role": invite.Role,
	})
	return assignment, nil
}
