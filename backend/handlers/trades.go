package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	webmodels "github.com/cardvault/cardvault/backend/models"
	"github.com/cardvault/cardvault/backend/utils"
	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/cardvault/cardvault/cardvault/economy/trade"
)

func tradeLines(lines []webmodels.TradeLine) []trade.Line {
	out := make([]trade.Line, len(lines))
	for i, l := range lines {
		out[i] = trade.Line{CardID: l.CardID, IsShiny: l.IsShiny, Quantity: l.Quantity}
	}
	return out
}

func TradesList(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := models.TradeStatus(strings.ToUpper(c.Query("status")))
		if status != "" && !status.Valid() {
			return utils.SendBadRequest(c, "Invalid status", map[string]string{"status": c.Query("status")})
		}

		offers, err := webApp.Trades.List(c.Context(), currentUser(c).UserID, status)
		if err != nil {
			return sendDomainError(c, "list trades", err)
		}
		return utils.SendSuccess(c, offers, "Trades retrieved successfully")
	}
}

func TradesCreate(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req webmodels.TradeCreateRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.SendBadRequest(c, "Invalid request body", nil)
		}
		errs := utils.ValidateTradeLines("offered", req.Offered)
		errs = append(errs, utils.ValidateTradeLines("requested", req.Requested)...)
		if req.RecipientID <= 0 {
			errs = append(errs, webmodels.ValidationError{Field: "recipient_id", Description: "is required"})
		}
		if len(errs) > 0 {
			return utils.HandleValidationErrors(c, errs)
		}

		offer, err := webApp.Trades.Create(c.Context(), trade.CreateRequest{
			InitiatorID: currentUser(c).UserID,
			RecipientID: req.RecipientID,
			Offered:     tradeLines(req.Offered),
			Requested:   tradeLines(req.Requested),
			Message:     req.Message,
		})
		if err != nil {
			return sendDomainError(c, "create trade", err)
		}
		return utils.SendCreated(c, offer, "Trade offer created")
	}
}

func TradesDetail(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offer, err := webApp.Trades.Get(c.Context(), currentUser(c).UserID, c.Params("id"))
		if err != nil {
			return sendDomainError(c, "get trade", err)
		}
		return utils.SendSuccess(c, offer, "Trade retrieved successfully")
	}
}

type tradeAction func(ctx context.Context, userID int64, tradeID string) (*models.TradeOffer, error)

// tradeTransition runs an accept, reject or cancel. When the action closed the offer for
// another reason (expired, no longer available) the error carries the final offer state.
func tradeTransition(operation, message string, action func(*WebApp) tradeAction) func(*WebApp) fiber.Handler {
	return func(webApp *WebApp) fiber.Handler {
		return func(c *fiber.Ctx) error {
			offer, err := action(webApp)(c.Context(), currentUser(c).UserID, c.Params("id"))
			if err != nil {
				if offer != nil && (errors.Is(err, trade.ErrTradeExpired) || errors.Is(err, trade.ErrNoLongerAvailable)) {
					e, _ := classify(err)
					return c.Status(e.status).JSON(&webmodels.APIResponse{
						Success:   false,
						Data:      offer,
						Error:     &webmodels.APIError{Code: e.code, Message: err.Error()},
						Timestamp: time.Now(),
					})
				}
				return sendDomainError(c, operation, err)
			}
			return utils.SendSuccess(c, offer, message)
		}
	}
}

var (
	TradesAccept = tradeTransition("accept trade", "Trade accepted", func(w *WebApp) tradeAction { return w.Trades.Accept })
	TradesReject = tradeTransition("reject trade", "Trade rejected", func(w *WebApp) tradeAction { return w.Trades.Reject })
	TradesCancel = tradeTransition("cancel trade", "Trade cancelled", func(w *WebApp) tradeAction { return w.Trades.Cancel })
)
