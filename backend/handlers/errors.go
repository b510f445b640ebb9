package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	webservices "github.com/cardvault/cardvault/backend/services"
	"github.com/cardvault/cardvault/backend/utils"
	"github.com/cardvault/cardvault/cardvault/database/repositories"
	"github.com/cardvault/cardvault/cardvault/economy/booster"
	"github.com/cardvault/cardvault/cardvault/economy/merchant"
	"github.com/cardvault/cardvault/cardvault/economy/pricing"
	"github.com/cardvault/cardvault/cardvault/economy/trade"
	"github.com/cardvault/cardvault/cardvault/services"
	"github.com/cardvault/cardvault/internal/domain/collection"
)

// apiError pairs an HTTP status with a stable error code.
type apiError struct {
	status int
	code   string
}

// domainErrors is checked in order; the first sentinel matched by errors.Is wins.
var domainErrors = []struct {
	err error
	apiError
}{
	{booster.ErrInsufficientCredits, apiError{http.StatusBadRequest, "INSUFFICIENT_CREDITS"}},
	{booster.ErrUnknownBooster, apiError{http.StatusNotFound, "UNKNOWN_BOOSTER"}},
	{booster.ErrEmptyRarity, apiError{http.StatusUnprocessableEntity, "CATALOG_ERROR"}},
	{trade.ErrInsufficientCards, apiError{http.StatusBadRequest, "INSUFFICIENT_CARDS"}},
	{trade.ErrNoLongerAvailable, apiError{http.StatusConflict, "NO_LONGER_AVAILABLE"}},
	{trade.ErrTradeExpired, apiError{http.StatusConflict, "TRADE_EXPIRED"}},
	{trade.ErrNotPending, apiError{http.StatusConflict, "NOT_PENDING"}},
	{trade.ErrNotParticipant, apiError{http.StatusForbidden, "FORBIDDEN"}},
	{trade.ErrInvalidOffer, apiError{http.StatusBadRequest, "INVALID_OFFER"}},
	{merchant.ErrInsufficientCards, apiError{http.StatusBadRequest, "INSUFFICIENT_CARDS"}},
	{merchant.ErrUnknownCard, apiError{http.StatusNotFound, "NOT_FOUND"}},
	{pricing.ErrInvalidQuantity, apiError{http.StatusBadRequest, "INVALID_QUANTITY"}},
	{pricing.ErrUnknownRarity, apiError{http.StatusUnprocessableEntity, "CATALOG_ERROR"}},
	{collection.ErrPrivate, apiError{http.StatusForbidden, "PRIVATE_COLLECTION"}},
	{collection.ErrUserNotFound, apiError{http.StatusNotFound, "NOT_FOUND"}},
	{services.ErrInvalidBoost, apiError{http.StatusBadRequest, "INVALID_BOOST"}},
	{webservices.ErrUsernameTaken, apiError{http.StatusConflict, "USERNAME_TAKEN"}},
	{webservices.ErrInvalidCredentials, apiError{http.StatusUnauthorized, "INVALID_CREDENTIALS"}},
	{webservices.ErrInvalidAmount, apiError{http.StatusBadRequest, "BAD_REQUEST"}},
}

func classify(err error) (apiError, bool) {
	for _, d := range domainErrors {
		if errors.Is(err, d.err) {
			return d.apiError, true
		}
	}
	switch {
	case repositories.IsNotFound(err):
		return apiError{http.StatusNotFound, "NOT_FOUND"}, true
	case repositories.IsConflict(err):
		return apiError{http.StatusConflict, "CONFLICT"}, true
	}
	return apiError{}, false
}

// sendDomainError writes the response for an error returned by a service.
// Anything unclassified is logged and reported as a 500 without its message.
func sendDomainError(c *fiber.Ctx, operation string, err error) error {
	if e, ok := classify(err); ok {
		return utils.SendError(c, e.status, e.code, err.Error(), nil)
	}

	slog.Error("Request failed",
		slog.String("type", "error"),
		slog.String("operation", operation),
		slog.String("path", c.Path()),
		slog.String("error", err.Error()))
	return utils.SendInternalServerError(c, "Failed to "+operation)
}
