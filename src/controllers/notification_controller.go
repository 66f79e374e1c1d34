package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/talent-nest-network/src/lib"
	"github.com/theleywin/talent-nest-network/src/middleware"
	"github.com/theleywin/talent-nest-network/src/notifications"
)

type NotificationController struct {
	notifications *notifications.Service
	api           lib.APIConfig
}

func NewNotificationController(svc *notifications.Service, api lib.APIConfig) *NotificationController {
	return &NotificationController{notifications: svc, api: api}
}

// GetUserNotifications lists the authenticated user's notifications, newest first
func (h *NotificationController) GetUserNotifications(c *fiber.Ctx) error {
	page, err := lib.ParsePage(c, h.api.DefaultPageSize, h.api.MaxPageSize)
	if err != nil {
		return err
	}
	list, err := h.notifications.List(c.UserContext(), middleware.CurrentUserID(c), page)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// MarkNotificationAsRead marks one notification as read and returns it
func (h *NotificationController) MarkNotificationAsRead(c *fiber.Ctx) error {
	id, err := lib.ParseObjectID(c, "id")
	if err != nil {
		return err
	}
	n, err := h.notifications.MarkRead(c.UserContext(), id, middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(n)
}

func (h *NotificationController) MarkAllAsRead(c *fiber.Ctx) error {
	if _, err := h.notifications.MarkAllRead(c.UserContext(), middleware.CurrentUserID(c)); err != nil {
		return err
	}
	return c.JSON(lib.MessageResponse("All notifications marked as read"))
}

func (h *NotificationController) GetUnreadCount(c *fiber.Ctx) error {
	count, err := h.notifications.UnreadCount(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"count": count})
}

// DeleteNotification deletes a notification owned by the authenticated user
func (h *NotificationController) DeleteNotification(c *fiber.Ctx) error {
	id, err := lib.ParseObjectID(c, "id")
	if err != nil {
		return err
	}
	if err := h.notifications.Delete(c.UserContext(), id, middleware.CurrentUserID(c)); err != nil {
		return err
	}
	return c.JSON(lib.MessageResponse("Notification deleted successfully"))
}
