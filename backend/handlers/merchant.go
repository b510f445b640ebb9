package handlers

import (
	"github.com/gofiber/fiber/v2"

	webmodels "github.com/cardvault/cardvault/backend/models"
	"github.com/cardvault/cardvault/backend/utils"
	"github.com/cardvault/cardvault/cardvault/config"
	"github.com/cardvault/cardvault/cardvault/economy/merchant"
)

func sellRequest(req webmodels.SellRequest) (merchant.SellRequest, utils.ValidationErrors) {
	errs := utils.ValidateTradeLines("card", []webmodels.TradeLine{{CardID: req.CardID, IsShiny: req.IsShiny, Quantity: req.Quantity}})
	return merchant.SellRequest{
		CardID:   req.CardID,
		IsShiny:  req.IsShiny,
		Quantity: req.Quantity,
		KeepOne:  req.KeepOne,
	}, errs
}

// MerchantQuote prices a sale without performing it.
func MerchantQuote(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req webmodels.SellRequest
		if err := c.QueryParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid query", nil)
		}
		sale, errs := sellRequest(req)
		if len(errs) > 0 {
			return utils.HandleValidationErrors(c, errs)
		}

		quote, err := webApp.Merchant.Quote(c.Context(), currentUser(c).UserID, sale)
		if err != nil {
			return sendDomainError(c, "quote sale", err)
		}
		return utils.SendSuccess(c, quote, "Quote calculated")
	}
}

func MerchantSell(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req webmodels.SellRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid request body", nil)
		}
		sale, errs := sellRequest(req)
		if len(errs) > 0 {
			return utils.HandleValidationErrors(c, errs)
		}

		quote, err := webApp.Merchant.Sell(c.Context(), currentUser(c).UserID, sale)
		if err != nil {
			return sendDomainError(c, "sell cards", err)
		}
		return utils.SendSuccess(c, quote, "Cards sold")
	}
}

func MerchantHistory(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, limit := pageParams(c, config.DefaultPageSize)
		sales, err := webApp.Merchant.History(c.Context(), currentUser(c).UserID, limit)
		if err != nil {
			return sendDomainError(c, "list sales", err)
		}
		return utils.SendSuccess(c, sales, "Sales retrieved successfully")
	}
}
