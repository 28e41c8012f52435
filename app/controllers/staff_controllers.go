package controllers

import (
	"github.com/tradeyard/tradeyard/app/middleware"
	"github.com/tradeyard/tradeyard/app/services"
	"github.com/tradeyard/tradeyard/pkg/ctx"
	"github.com/tradeyard/tradeyard/pkg/rbac"
)

type StaffController struct {
	service *services.StaffService
}

func NewStaffController() *StaffController {
	return &StaffController{service: services.NewStaffService()}
}

// SetRole grants or overwrites a user's role in the resolved store.
func (ctl *StaffController) SetRole(c *ctx.Context) {
	store, ok := middleware.StoreFrom(c.R)
	if !ok {
		c.BadRequest("store id is required")
		return
	}
	var in services.SetRoleInput
	if !c.BindJSON(&in) {
		return
	}
	assignment, err := ctl.service.SetRole(store.ID, in)
	if err != nil {
		c.FromError(err)
		return
	}
	c.Success("Role assigned", assignment)
}

// RemoveRole revokes a user's role in the resolved store.
func (ctl *StaffController) RemoveRole(c *ctx.Context) {
	store, ok := middleware.StoreFrom(c.R)
	if !ok {
		c.BadRequest("store id is required")
		return
	}
	if err := ctl.service.RemoveRole(store.ID, c.Param("userID")); err != nil {
		c.FromError(err)
		return
	}
	c.Success("Role removed", nil)
}

// List returns the store's staff and their roles.
func (ctl *StaffController) List(c *ctx.Context) {
	store, ok := middleware.StoreFrom(c.R)
	if !ok {
		c.BadRequest("store id is required")
		return
	}
	staff, err := ctl.service.List(store.ID)
	if err != nil {
		c.FromError(err)
		return
	}
	c.Success("OK", staff)
}

// Roles lists the store roles that can be assigned.
func (ctl *StaffController) Roles(c *ctx.Context) {
	c.Success("OK", rbac.KnownStoreRoles())
}

// Invite mails an encrypted invite token carrying a store/role grant.
func (ctl *StaffController) Invite(c *ctx.Context) {
	store, ok := middleware.StoreFrom(c.R)
	if !ok {
		c.BadRequest("store id is required")
		return
	}
	var in services.InviteInput
	if !c.BindJSON(&in) {
		return
	}
	token, err := ctl.service.Invite(store.ID, in)
	if err != nil {
		c.FromError(err)
		return
	}
	c.Created("Invite sent", map[string]string{"token": token})
}

// AcceptInvite redeems an invite token for the authenticated user.
func (ctl *StaffController) AcceptInvite(c *ctx.Context) {
	user, ok := middleware.UserFrom(c.R)
	if !ok {
		c.Unauthorized()
		return
	}
	var in struct {
		Token string `json:"token" validate:"required"`
	}
	if !c.BindJSON(&in) {
		return
	}
	assignment, err := ctl.service.AcceptInvite(user.ID, in.Token)
	if err != nil {
		c.FromError(err)
		return
	}
	c.Success("Invite accepted", assignment)
}
