package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/talent-nest-network/src/controllers"
)

// NotificationRoutes sets up routes for listing, counting, marking as read and deleting notifications
func NotificationRoutes(api fiber.Router, protect fiber.Handler, h *controllers.NotificationController) {
	notification := api.Group("/notifications", protect)

	notification.Get("/", h.GetUserNotifications)
	notification.Get("/unread/count", h.GetUnreadCount)
	notification.Put("/read/all", h.MarkAllAsRead)
	notification.Put("/:id/read", h.MarkNotificationAsRead)
	notification.Delete("/:id", h.DeleteNotification)
}
