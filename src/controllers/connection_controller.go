package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/talent-nest-network/src/connections"
	"github.com/theleywin/talent-nest-network/src/lib"
	"github.com/theleywin/talent-nest-network/src/middleware"
)

type ConnectionController struct {
	connections *connections.Service
	api         lib.APIConfig
}

func NewConnectionController(svc *connections.Service, api lib.APIConfig) *ConnectionController {
	return &ConnectionController{connections: svc, api: api}
}

// SendConnectionRequest sends a connection request from the authenticated user to another user
func (h *ConnectionController) SendConnectionRequest(c *fiber.Ctx) error {
	receiverID, err := lib.ParseObjectID(c, "receiverId")
	if err != nil {
		return err
	}
	request, err := h.connections.Send(c.UserContext(), middleware.CurrentUserID(c), receiverID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(request)
}

// AcceptConnectionRequest accepts a pending request and connects both users
func (h *ConnectionController) AcceptConnectionRequest(c *fiber.Ctx) error {
	requestID, err := lib.ParseObjectID(c, "requestId")
	if err != nil {
		return err
	}
	if err := h.connections.Accept(c.UserContext(), requestID, middleware.CurrentUserID(c)); err != nil {
		return err
	}
	return c.JSON(lib.MessageResponse("Connection accepted successfully"))
}

// RejectConnectionRequest rejects a pending request addressed to the authenticated user
func (h *ConnectionController) RejectConnectionRequest(c *fiber.Ctx) error {
	requestID, err := lib.ParseObjectID(c, "requestId")
	if err != nil {
		return err
	}
	if err := h.connections.Reject(c.UserContext(), requestID, middleware.CurrentUserID(c)); err != nil {
		return err
	}
	return c.JSON(lib.MessageResponse("Connection request rejected"))
}

// CancelConnectionRequest withdraws a pending request sent by the authenticated user
func (h *ConnectionController) CancelConnectionRequest(c *fiber.Ctx) error {
	requestID, err := lib.ParseObjectID(c, "requestId")
	if err != nil {
		return err
	}
	if err := h.connections.Cancel(c.UserContext(), requestID, middleware.CurrentUserID(c)); err != nil {
		return err
	}
	return c.JSON(lib.MessageResponse("Connection request cancelled"))
}

// GetPendingRequests lists pending requests sent or received, newest first
func (h *ConnectionController) GetPendingRequests(c *fiber.Ctx) error {
	page, err := lib.ParsePage(c, h.api.DefaultPageSize, h.api.MaxPageSize)
	if err != nil {
		return err
	}
	list, err := h.connections.ListPending(c.UserContext(), middleware.CurrentUserID(c), page)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// GetUserConnections returns the authenticated user's connections
func (h *ConnectionController) GetUserConnections(c *fiber.Ctx) error {
	list, err := h.connections.ListConnections(c.UserContext(), middleware.CurrentUserID(c))
	if err != nil {
		return err
	}
	return c.JSON(list)
}

// RemoveConnection removes the connection with another user on both sides
func (h *ConnectionController) RemoveConnection(c *fiber.Ctx) error {
	otherID, err := lib.ParseObjectID(c, "userId")
	if err != nil {
		return err
	}
	if err := h.connections.Remove(c.UserContext(), middleware.CurrentUserID(c), otherID); err != nil {
		return err
	}
	return c.JSON(lib.MessageResponse("Connection removed successfully"))
}

// GetConnectionStatus describes the relationship with another user
func (h *ConnectionController) GetConnectionStatus(c *fiber.Ctx) error {
	otherID, err := lib.ParseObjectID(c, "userId")
	if err != nil {
		return err
	}
	view, err := h.connections.Status(c.UserContext(), middleware.CurrentUserID(c), otherID)
	if err != nil {
		return err
	}
	return c.JSON(view)
}
