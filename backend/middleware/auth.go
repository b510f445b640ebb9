package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/cardvault/cardvault/backend/handlers"
	"github.com/cardvault/cardvault/backend/utils"
	dbmodels "github.com/cardvault/cardvault/cardvault/database/models"
)

// AuthRequired middleware ensures the user is authenticated
func AuthRequired(webApp *handlers.WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := webApp.GetSession(c)
		if err != nil {
			slog.Debug("Auth required: no valid session", slog.String("error", err.Error()))
			return utils.SendUnauthorized(c, "Authentication required")
		}

		// Store user in context
		c.Locals("user", session)

		slog.Debug("Auth middleware: user authenticated",
			slog.Int64("user_id", session.UserID),
			slog.String("username", session.Username))

		return c.Next()
	}
}

// AdminRequired middleware ensures the user has admin privileges
func AdminRequired() fiber.Handler {
	return RoleRequired(dbmodels.RoleAdmin)
}

// OptionalAuth middleware adds user info to context if authenticated, but doesn't require it
func OptionalAuth(webApp *handlers.WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if session, err := webApp.GetSession(c); err == nil {
			c.Locals("user", session)
		}
		return c.Next()
	}
}

// RoleRequired middleware ensures the user has a specific role. It must run after AuthRequired.
func RoleRequired(role dbmodels.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, ok := utils.ExtractUserSession(c)
		if !ok {
			slog.Warn("Role required: no user in context")
			return utils.SendForbidden(c, "Access denied")
		}

		if session.Role != role {
			slog.Warn("Role required: user lacks required role",
				slog.Int64("user_id", session.UserID),
				slog.String("username", session.Username),
				slog.String("required_role", string(role)))
			return utils.SendForbidden(c, "Insufficient permissions")
		}

		return c.Next()
	}
}
