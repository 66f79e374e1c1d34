package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/talent-nest-network/src/apperr"
	"github.com/theleywin/talent-nest-network/src/lib"
	"github.com/theleywin/talent-nest-network/src/middleware"
	"github.com/theleywin/talent-nest-network/src/models"
	"github.com/theleywin/talent-nest-network/src/users"
)

type UserController struct {
	users *users.Service
}

func NewUserController(svc *users.Service) *UserController {
	return &UserController{users: svc}
}

// GetCurrentUser returns the authenticated user's profile
func (h *UserController) GetCurrentUser(c *fiber.Ctx) error {
	profile, err := h.users.Get(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

// GetProfile returns a user's profile with followers, following and connections populated
func (h *UserController) GetProfile(c *fiber.Ctx) error {
	id, err := lib.ParseObjectID(c, "id")
	if err != nil {
		return err
	}
	profile, err := h.users.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

func (h *UserController) GetConnections(c *fiber.Ctx) error {
	id, err := lib.ParseObjectID(c, "id")
	if err != nil {
		return err
	}
	list, err := h.users.Connections(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// UpdateProfile updates the authenticated user's editable fields
func (h *UserController) UpdateProfile(c *fiber.Ctx) error {
	var update models.ProfileUpdate
	if err := c.BodyParser(&update); err != nil {
		return apperr.Validation("Invalid request body")
	}
	profile, err := h.users.UpdateProfile(c.UserContext(), middleware.CurrentUserID(c), update)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

func (h *UserController) FollowUser(c *fiber.Ctx) error {
	target, err := lib.ParseObjectID(c, "userId")
	if err != nil {
		return err
	}
	if err := h.users.Follow(c.UserContext(), middleware.CurrentUserID(c), target); err != nil {
		return err
	}
	return c.JSON(lib.MessageResponse("User followed successfully"))
}

func (h *UserController) UnfollowUser(c *fiber.Ctx) error {
	target, err := lib.ParseObjectID(c, "userId")
	if err != nil {
		return err
	}
	if err := h.users.Unfollow(c.UserContext(), middleware.CurrentUserID(c), target); err != nil {
		return err
	}
	return c.JSON(lib.MessageResponse("User unfollowed successfully"))
}

// SearchUsers matches ?query= against usernames and names
func (h *UserController) SearchUsers(c *fiber.Ctx) error {
	list, err := h.users.Search(c.UserContext(), c.Query("query"))
	if err != nil {
		return err
	}
	return c.JSON(list)
}
