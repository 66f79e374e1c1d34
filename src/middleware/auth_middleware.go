package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/theleywin/talent-nest-network/src/apperr"
	"github.com/theleywin/talent-nest-network/src/logging"
	"github.com/theleywin/talent-nest-network/src/models"
	"github.com/theleywin/talent-nest-network/src/store"
)

const (
	localUser   = "user"
	localUserID = "userId"
)

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	VerifyJWT(token string) (string, error)
}

// ProtectRoute checks for a valid JWT token, loads the user it names and
// attaches it to the request context.
func ProtectRoute(verifier TokenVerifier, users store.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperr.Unauthorized("Unauthorized - No Token Provided")
		}

		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			return apperr.Unauthorized("Unauthorized - Invalid Token Format")
		}

		userID, err := verifier.VerifyJWT(token)
		if err != nil {
			logging.Debug().Err(err).Str("path", c.Path()).Msg("rejected token")
			return apperr.Unauthorized("Unauthorized - Invalid Token")
		}

		user, err := users.FindUser(c.UserContext(), userID)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Unauthorized("User not found")
		}
		if err != nil {
			return apperr.Internal("Server error", err)
		}

		c.Locals(localUser, user)
		c.Locals(localUserID, user.ID)
		return c.Next()
	}
}

// CurrentUser returns the user attached by ProtectRoute.
func CurrentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(localUser).(*models.User)
	return u
}

// CurrentUserID returns the id of the authenticated user, or "" outside a
// protected route.
func CurrentUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}
