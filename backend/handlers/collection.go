package handlers

import (
	"github.com/gofiber/fiber/v2"

	webmodels "github.com/cardvault/cardvault/backend/models"
	"github.com/cardvault/cardvault/backend/utils"
	"github.com/cardvault/cardvault/internal/domain/collection"
)

// collectionFilters reads the list filters shared by own and public collection views.
func collectionFilters(c *fiber.Ctx) (collection.Filters, utils.ValidationErrors) {
	rarity, errs := utils.ValidateRarity(c.Query("rarity"))
	if len(errs) > 0 {
		return collection.Filters{}, errs
	}

	filters := collection.Filters{
		Rarity:   rarity,
		NewOnly:  c.QueryBool("new", false),
		Name:     c.Query("q"),
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("limit", 0),
	}
	if raw := c.Query("shiny"); raw != "" {
		shiny := c.QueryBool("shiny", false)
		filters.Shiny = &shiny
	}
	return filters, nil
}

func sendCollection(c *fiber.Ctx, webApp *WebApp, viewerID, ownerID int64) error {
	filters, errs := collectionFilters(c)
	if len(errs) > 0 {
		return utils.HandleValidationErrors(c, errs)
	}

	page, err := webApp.Collection.GetUserCards(c.Context(), viewerID, ownerID, filters)
	if err != nil {
		return sendDomainError(c, "load collection", err)
	}
	summary, err := webApp.Collection.Summary(c.Context(), viewerID, ownerID)
	if err != nil {
		return sendDomainError(c, "load collection", err)
	}

	pagination := webmodels.NewPaginationInfo(page.Page, page.PageSize, int64(page.Total))
	return utils.SendPaginated(c, fiber.Map{
		"cards":   page.Cards,
		"summary": summary,
	}, pagination, "Collection retrieved successfully")
}

func MyCollection(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := currentUser(c).UserID
		return sendCollection(c, webApp, userID, userID)
	}
}

// UserCollection shows another user's collection subject to their privacy setting.
func UserCollection(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID, ok, err := idParam(c, "id")
		if !ok {
			return err
		}
		return sendCollection(c, webApp, currentUser(c).UserID, ownerID)
	}
}

// MarkSeen clears the new flag on the listed cards, or on every card when the list is empty.
func MarkSeen(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req webmodels.MarkSeenRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return utils.SendBadRequest(c, "Invalid request body", nil)
			}
		}

		updated, err := webApp.Collection.MarkSeen(c.Context(), currentUser(c).UserID, req.Cards)
		if err != nil {
			return sendDomainError(c, "mark cards seen", err)
		}
		return utils.SendSuccess(c, fiber.Map{"updated": updated}, "Cards marked as seen")
	}
}
