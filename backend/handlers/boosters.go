package handlers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cardvault/cardvault/backend/utils"
	"github.com/cardvault/cardvault/cardvault/config"
	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/cardvault/cardvault/cardvault/economy/booster"
)

func BoostersAPI(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		configs, err := webApp.Boosters.ListConfigs(c.Context(), true)
		if err != nil {
			return sendDomainError(c, "list boosters", err)
		}
		return utils.SendSuccess(c, configs, "Boosters retrieved successfully")
	}
}

func OpenBooster(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		boosterType, err := models.ParseBoosterType(c.Params("type"))
		if err != nil {
			return sendDomainError(c, "open booster", fmt.Errorf("%w: %s", booster.ErrUnknownBooster, c.Params("type")))
		}

		user := currentUser(c)
		result, err := webApp.Opener.Open(c.Context(), user.UserID, boosterType)
		if err != nil {
			return sendDomainError(c, "open booster", err)
		}

		slog.Info("Booster opened via API",
			slog.String("type", "http"),
			slog.Int64("user_id", user.UserID),
			slog.String("booster", string(boosterType)),
			slog.String("purchase_id", result.PurchaseID))
		return utils.SendCreated(c, result, "Booster opened")
	}
}

func BoosterHistory(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, limit := pageParams(c, config.DefaultPageSize)
		purchases, err := webApp.Boosters.ListPurchases(c.Context(), currentUser(c).UserID, limit)
		if err != nil {
			return sendDomainError(c, "list purchases", err)
		}
		return utils.SendSuccess(c, purchases, "Purchases retrieved successfully")
	}
}

// BoostStatus reports the current boost session and the drop rates it yields.
func BoostStatus(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		current, err := webApp.Boosts.Current(c.Context(), time.Now())
		if err != nil {
			return sendDomainError(c, "load boost status", err)
		}

		weights := booster.EffectiveWeights(current != nil)
		rates := make(map[string]float64, len(models.Rarities))
		for _, r := range models.Rarities {
			rates[r.String()] = weights.Probability(r)
		}

		return utils.SendSuccess(c, fiber.Map{
			"active":  current != nil,
			"session": current,
			"rates":   rates,
		}, "Boost status retrieved successfully")
	}
}
