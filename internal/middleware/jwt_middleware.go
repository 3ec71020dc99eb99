package middleware

import (
	"onlyfails/internal/logger"
	"onlyfails/internal/models"
	"onlyfails/internal/token"

	"github.com/gofiber/fiber/v2"
)

// TokenHeader carries the bearer token on requests and login responses.
const TokenHeader = "auth-token"

const (
	localUserID = "user_id"
	localRole   = "role"
)

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// AuthRequired is a Fiber middleware to check for a valid token in the
// auth-token header.
func AuthRequired(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Get(TokenHeader)
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Access denied. No token provided.",
			})
		}

		claims, err := verifier.Verify(tokenString)
		if err != nil {
			logger.Log.Debugw("token rejected", "path", c.Path(), "err", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token.",
			})
		}

		// Store claims in Fiber context for subsequent handlers
		c.Locals(localUserID, claims.ID)
		c.Locals(localRole, models.Role(claims.Role))

		return c.Next()
	}
}

// AdminOnly rejects callers whose token does not carry the admin role. It must
// run after AuthRequired.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if Role(c) != models.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Access denied. Admins only.",
			})
		}
		return c.Next()
	}
}

// UserID returns the authenticated caller's ID, or "" outside AuthRequired.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

// Role returns the authenticated caller's role, or "" outside AuthRequired.
func Role(c *fiber.Ctx) models.Role {
	role, _ := c.Locals(localRole).(models.Role)
	return role
}
