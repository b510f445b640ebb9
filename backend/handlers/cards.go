package handlers

import (
	"github.com/gofiber/fiber/v2"

	webmodels "github.com/cardvault/cardvault/backend/models"
	"github.com/cardvault/cardvault/backend/utils"
	"github.com/cardvault/cardvault/cardvault/config"
)

// CardsAPI lists the catalog, optionally fuzzy-searched by name and filtered by rarity.
func CardsAPI(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rarity, errs := utils.ValidateRarity(c.Query("rarity"))
		if len(errs) > 0 {
			return utils.HandleValidationErrors(c, errs)
		}
		page, limit := pageParams(c, config.CardsPerPage)

		cards, err := webApp.Catalog.Search(c.Context(), c.Query("q"), rarity, 0)
		if err != nil {
			return sendDomainError(c, "list cards", err)
		}

		pagination := webmodels.NewPaginationInfo(page, limit, int64(len(cards)))
		return utils.SendPaginated(c, pageSlice(cards, page, limit), pagination, "Cards retrieved successfully")
	}
}

func CardsDetail(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cardID, ok, err := idParam(c, "id")
		if !ok {
			return err
		}

		card, err := webApp.Catalog.Get(c.Context(), cardID)
		if err != nil {
			return sendDomainError(c, "get card", err)
		}
		return utils.SendSuccess(c, card, "Card details retrieved successfully")
	}
}
