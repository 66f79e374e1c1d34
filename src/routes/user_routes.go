package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/talent-nest-network/src/controllers"
)

// UserRoutes sets up routes for the current user, public profiles, profile update, follows and search
func UserRoutes(api fiber.Router, protect fiber.Handler, h *controllers.UserController) {
	user := api.Group("/users", protect)

	user.Get("/me", h.GetCurrentUser)
	user.Put("/profile", h.UpdateProfile)
	user.Post("/follow/:userId", h.FollowUser)
	user.Post("/unfollow/:userId", h.UnfollowUser)
	user.Get("/:id", h.GetProfile)
	user.Get("/:id/connections", h.GetConnections)

	search := api.Group("/search", protect)
	search.Get("/users", h.SearchUsers)
}
