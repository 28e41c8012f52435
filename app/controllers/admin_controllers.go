package controllers

import (
	"github.com/tradeyard/tradeyard/app/repositories"
	"github.com/tradeyard/tradeyard/app/resources"
	"github.com/tradeyard/tradeyard/pkg/ctx"
	"github.com/tradeyard/tradeyard/pkg/resource"
)

// AdminController serves the platform-wide reads behind the global admin
// gate. Store administration itself goes through the regular store routes;
// admins pass those gates by role.
type AdminController struct {
	users *repositories.UserRepository
}

func NewAdminController() *AdminController {
	return &AdminController{users: repositories.NewUserRepository()}
}

// Users lists every account on the platform.
func (ctl *AdminController) Users(c *ctx.Context) {
	users, pagination, err := ctl.users.All(c.QueryInt("page", 1), c.QueryInt("perPage", 20))
	if err != nil {
		c.FromError(err)
		return
	}
	c.Paginated("OK", resource.CollectionOf(&resources.UserResource{}, users), pagination)
}
