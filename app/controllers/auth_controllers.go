package controllers

import (
	"github.com/tradeyard/tradeyard/app/middleware"
	"github.com/tradeyard/tradeyard/app/services"
	"github.com/tradeyard/tradeyard/pkg/ctx"
)

type AuthController struct {
	service *services.AuthService
}

func NewAuthController() *AuthController {
	return &AuthController{service: services.NewAuthService()}
}

// Register creates an account and signs in the new user.
func (ctl *AuthController) Register(c *ctx.Context) {
	var in services.RegisterInput
	if !c.BindJSON(&in) {
		return
	}
	user, tokens, err := ctl.service.Register(in)
	if err != nil {
		c.FromError(err)
		return
	}
	c.Created("Account created", map[string]any{"user": user, "tokens": tokens})
}

// Login exchanges credentials for a token pair.
func (ctl *AuthController) Login(c *ctx.Context) {
	var in struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}
	if !c.BindJSON(&in) {
		return
	}
	user, tokens, err := ctl.service.Login(in.Email, in.Password)
	if err != nil {
		c.FromError(err)
		return
	}
	c.Success("Logged in", map[string]any{"user": user, "tokens": tokens})
}

// Refresh exchanges a refresh token for a fresh pair.
func (ctl *AuthController) Refresh(c *ctx.Context) {
	var in struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	if !c.BindJSON(&in) {
		return
	}
	tokens, err := ctl.service.Refresh(in.RefreshToken)
	if err != nil {
		c.FromError(err)
		return
	}
	c.Success("Token refreshed", tokens)
}

// Me returns the authenticated user's own record.
func (ctl *AuthController) Me(c *ctx.Context) {
	user, ok := middleware.UserFrom(c.R)
	if !ok {
		c.Unauthorized()
		return
	}
	c.Success("OK", user)
}

// UpdateProfile applies a partial edit to the caller's own profile.
func (ctl *AuthController) UpdateProfile(c *ctx.Context) {
	user, ok := middleware.UserFrom(c.R)
	if !ok {
		c.Unauthorized()
		return
	}
	var in services.UpdateProfileInput
	if !c.BindJSON(&in) {
		return
	}
	updated, err := ctl.service.UpdateProfile(user.ID, in)
	if err != nil {
		c.FromError(err)
		return
	}
	c.Success("Profile updated", updated)
}
