package handlers

import (
	"bytes"
	"context"
	"io"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	webmodels "github.com/cardvault/cardvault/backend/models"
	"github.com/cardvault/cardvault/backend/utils"
	"github.com/cardvault/cardvault/cardvault/config"
	"github.com/cardvault/cardvault/cardvault/database/models"
)

// =============================================================================
// CARD MANAGEMENT
// =============================================================================

func CardsCreate(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req webmodels.CardCreateRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid request body", map[string]string{"error": err.Error()})
		}
		if errs := utils.ValidateCardCreate(&req); len(errs) > 0 {
			return utils.HandleValidationErrors(c, errs)
		}

		card, err := webApp.CardMgmtService.CreateCard(c.Context(), &req)
		if err != nil {
			return sendDomainError(c, "create card", err)
		}
		return utils.SendCreated(c, card, "Card created successfully")
	}
}

func CardsUpdate(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cardID, ok, err := idParam(c, "id")
		if !ok {
			return err
		}

		var req webmodels.CardUpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid request body", map[string]string{"error": err.Error()})
		}
		if errs := utils.ValidateCardUpdate(&req); len(errs) > 0 {
			return utils.HandleValidationErrors(c, errs)
		}

		card, err := webApp.CardMgmtService.UpdateCard(c.Context(), cardID, &req)
		if err != nil {
			return sendDomainError(c, "update card", err)
		}
		return utils.SendSuccess(c, card, "Card updated successfully")
	}
}

func CardsDelete(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cardID, ok, err := idParam(c, "id")
		if !ok {
			return err
		}

		if err := webApp.CardMgmtService.DeleteCard(c.Context(), cardID); err != nil {
			return sendDomainError(c, "delete card", err)
		}
		return utils.SendSuccess(c, nil, "Card deleted successfully")
	}
}

// CardsImage replaces a card's image with the uploaded "image" form file.
func CardsImage(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cardID, ok, err := idParam(c, "id")
		if !ok {
			return err
		}

		file, err := c.FormFile("image")
		if err != nil {
			return utils.SendBadRequest(c, "Missing image file", nil)
		}
		if file.Size > config.MaxImageSize {
			return utils.SendBadRequest(c, "File too large (max 10MB)", map[string]string{"filename": file.Filename})
		}

		src, err := file.Open()
		if err != nil {
			return utils.SendBadRequest(c, "Failed to open file", nil)
		}
		defer src.Close()

		data, err := io.ReadAll(io.LimitReader(src, config.MaxImageSize))
		if err != nil {
			return utils.SendBadRequest(c, "Failed to read file", nil)
		}

		ctx, cancel := context.WithTimeout(c.Context(), config.UploadTimeout)
		defer cancel()

		card, err := webApp.CardMgmtService.SetCardImage(ctx, cardID, data)
		if err != nil {
			return sendDomainError(c, "upload image", err)
		}
		return utils.SendSuccess(c, card, "Card image updated")
	}
}

// CardsImport loads a TOML catalog from a "catalog" form file or the raw request body.
func CardsImport(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var src io.Reader = bytes.NewReader(c.Body())
		if file, err := c.FormFile("catalog"); err == nil {
			f, err := file.Open()
			if err != nil {
				return utils.SendBadRequest(c, "Failed to open file", nil)
			}
			defer f.Close()
			src = f
		}

		result, err := webApp.Importer.ImportCatalog(c.Context(), src)
		if err != nil {
			slog.Warn("Catalog import failed",
				slog.String("type", "http"),
				slog.String("error", err.Error()))
			return utils.SendBadRequest(c, "Catalog import failed", map[string]string{"error": err.Error()})
		}
		return utils.SendSuccess(c, result, "Catalog imported")
	}
}

// =============================================================================
// BOOSTS AND BOOSTERS
// =============================================================================

func boostFromRequest(c *fiber.Ctx) (*models.BoostSession, error) {
	var req webmodels.BoostRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, err
	}
	return &models.BoostSession{
		Name:      req.Name,
		Active:    req.Active,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}, nil
}

func BoostsList(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessions, err := webApp.Boosts.List(c.Context())
		if err != nil {
			return sendDomainError(c, "list boosts", err)
		}
		return utils.SendSuccess(c, sessions, "Boost sessions retrieved successfully")
	}
}

func BoostsCreate(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := boostFromRequest(c)
		if err != nil {
			return utils.SendBadRequest(c, "Invalid request body", nil)
		}
		if err := webApp.Boosts.Create(c.Context(), session); err != nil {
			return sendDomainError(c, "create boost", err)
		}
		return utils.SendCreated(c, session, "Boost session created")
	}
}

func BoostsUpdate(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := idParam(c, "id")
		if !ok {
			return err
		}
		session, err := boostFromRequest(c)
		if err != nil {
			return utils.SendBadRequest(c, "Invalid request body", nil)
		}
		session.ID = id
		if err := webApp.Boosts.Update(c.Context(), session); err != nil {
			return sendDomainError(c, "update boost", err)
		}
		return utils.SendSuccess(c, session, "Boost session updated")
	}
}

func BoostsDelete(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := idParam(c, "id")
		if !ok {
			return err
		}
		if err := webApp.Boosts.Delete(c.Context(), id); err != nil {
			return sendDomainError(c, "delete boost", err)
		}
		return utils.SendSuccess(c, nil, "Boost session deleted")
	}
}

// BoostersUpdate edits the price, size, name or availability of a booster type.
func BoostersUpdate(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		boosterType, err := models.ParseBoosterType(c.Params("type"))
		if err != nil {
			return utils.SendNotFound(c, "Unknown booster type")
		}

		var req webmodels.BoosterConfigRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid request body", nil)
		}
		if errs := utils.ValidateBoosterConfig(&req); len(errs) > 0 {
			return utils.HandleValidationErrors(c, errs)
		}

		cfg := &models.BoosterConfig{
			Type:      boosterType,
			Name:      req.Name,
			Cost:      req.Cost,
			CardCount: req.CardCount,
			Active:    req.Active,
		}
		if err := webApp.Boosters.UpsertConfig(c.Context(), cfg); err != nil {
			return sendDomainError(c, "update booster", err)
		}

		slog.Info("Booster config updated",
			slog.String("type", "game"),
			slog.String("booster", string(boosterType)),
			slog.Int64("cost", cfg.Cost),
			slog.Bool("active", cfg.Active))
		return utils.SendSuccess(c, cfg, "Booster updated")
	}
}

// =============================================================================
// USERS, TRADES, STATS
// =============================================================================

func UsersGrantCredits(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok, err := idParam(c, "id")
		if !ok {
			return err
		}

		var req webmodels.CreditGrantRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid request body", nil)
		}
		if err := webApp.Credits.GrantCredits(c.Context(), userID, req.Amount); err != nil {
			return sendDomainError(c, "grant credits", err)
		}
		return utils.SendSuccess(c, fiber.Map{"user_id": userID, "amount": req.Amount}, "Credits granted")
	}
}

func TradesExpire(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		expired, err := webApp.Trades.ExpireOverdue(c.Context())
		if err != nil {
			return sendDomainError(c, "expire trades", err)
		}
		return utils.SendSuccess(c, fiber.Map{"expired": expired}, "Expiry sweep completed")
	}
}

func DashboardStatsAPI(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), config.StatsQueryTimeout)
		defer cancel()

		stats, err := webApp.Stats.DashboardStats(ctx)
		if err != nil {
			return sendDomainError(c, "load dashboard stats", err)
		}
		return utils.SendSuccess(c, stats, "Dashboard stats retrieved successfully")
	}
}
