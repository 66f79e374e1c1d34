package lib

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/talent-nest-network/src/apperr"
	"github.com/theleywin/talent-nest-network/src/logging"
)

// StatusOf maps an error kind to its HTTP status. Conflicts are reported as
// 400, which is what existing clients expect.
func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindForbidden:
		return fiber.StatusForbidden
	case apperr.KindConflict, apperr.KindValidation:
		return fiber.StatusBadRequest
	case apperr.KindUnauthorized:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler is the fiber.Config ErrorHandler. Controllers return errors
// and this writes {"message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(MessageResponse(fe.Message))
	}

	kind := apperr.KindOf(err)
	status := StatusOf(kind)
	if status == fiber.StatusInternalServerError {
		logging.Error().Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("request failed")
	}
	return c.Status(status).JSON(MessageResponse(apperr.MessageOf(err)))
}
