package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	webmodels "github.com/cardvault/cardvault/backend/models"
	"github.com/cardvault/cardvault/backend/utils"
)

func Register(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req webmodels.RegisterRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid request body", nil)
		}
		if errs := utils.ValidateCredentials(req.Username, req.Password); len(errs) > 0 {
			return utils.HandleValidationErrors(c, errs)
		}

		user, err := webApp.AuthService.Register(c.Context(), req.Username, req.Password)
		if err != nil {
			return sendDomainError(c, "register", err)
		}

		session, token, err := webApp.SessionService.CreateSession(c, user)
		if err != nil {
			return sendDomainError(c, "create session", err)
		}

		return utils.SendCreated(c, fiber.Map{
			"user":    user,
			"session": session,
			"token":   token,
		}, "Registered successfully")
	}
}

func Login(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req webmodels.LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid request body", nil)
		}
		if req.Username == "" || req.Password == "" {
			return utils.SendBadRequest(c, "Username and password are required", nil)
		}

		user, err := webApp.AuthService.Login(c.Context(), req.Username, req.Password)
		if err != nil {
			slog.Warn("Login failed",
				slog.String("type", "http"),
				slog.String("username", req.Username),
				slog.String("ip", utils.GetIPAddress(c)))
			return sendDomainError(c, "log in", err)
		}

		session, token, err := webApp.SessionService.CreateSession(c, user)
		if err != nil {
			return sendDomainError(c, "create session", err)
		}

		return utils.SendSuccess(c, fiber.Map{
			"user":    user,
			"session": session,
			"token":   token,
		}, "Logged in successfully")
	}
}

func Logout(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		webApp.SessionService.DestroySession(c)
		return utils.SendSuccess(c, nil, "Logged out successfully")
	}
}

func ValidateSession(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := currentUser(c)
		if session == nil {
			return utils.SendUnauthorized(c, "Invalid session")
		}

		return utils.SendSuccess(c, fiber.Map{
			"user":       session,
			"valid":      true,
			"expires_at": session.ExpiresAt,
			"is_admin":   session.IsAdmin,
		}, "Session valid")
	}
}

// Me returns the caller's profile with live credit balance and counters.
func Me(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := webApp.Users.GetByID(c.Context(), currentUser(c).UserID)
		if err != nil {
			return sendDomainError(c, "load profile", err)
		}
		return utils.SendSuccess(c, user, "Profile retrieved successfully")
	}
}

func UpdateSettings(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req webmodels.SettingsRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid request body", nil)
		}
		if req.CollectionPublic == nil {
			return utils.SendBadRequest(c, "No settings to update", nil)
		}

		userID := currentUser(c).UserID
		if err := webApp.Users.SetCollectionPublic(c.Context(), userID, *req.CollectionPublic); err != nil {
			return sendDomainError(c, "update settings", err)
		}
		return utils.SendSuccess(c, fiber.Map{"collection_public": *req.CollectionPublic}, "Settings updated")
	}
}

func Achievements(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		list, err := webApp.Achievements.List(c.Context(), currentUser(c).UserID)
		if err != nil {
			return sendDomainError(c, "list achievements", err)
		}
		return utils.SendSuccess(c, list, "Achievements retrieved successfully")
	}
}
