package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/talent-nest-network/src/controllers"
)

// ConnectionRoutes sets up routes for sending, accepting, rejecting and cancelling requests, listing pending requests and connections, removing connections and checking connection status
func ConnectionRoutes(api fiber.Router, protect fiber.Handler, h *controllers.ConnectionController) {
	connection := api.Group("/connections", protect)

	connection.Post("/send/:receiverId", h.SendConnectionRequest)
	connection.Post("/accept/:requestId", h.AcceptConnectionRequest)
	connection.Post("/reject/:requestId", h.RejectConnectionRequest)
	connection.Post("/cancel/:requestId", h.CancelConnectionRequest)
	connection.Get("/pending", h.GetPendingRequests)
	connection.Get("/status/:userId", h.GetConnectionStatus)
	connection.Get("/", h.GetUserConnections)
	connection.Delete("/:userId", h.RemoveConnection)
}
