package mock

import (
	"time"

	"github.com/cardvault/cardvault/cardvault/database/models"
)

var obtained = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

var Cards = []*models.Card{
	{ID: 1, Name: "Pebble", Rarity: models.RarityCommon},
	{ID: 2, Name: "Wyvern", Rarity: models.RarityRare},
	{ID: 3, Name: "Basilisk", Rarity: models.RarityRare},
	{ID: 4, Name: "Phoenix", Rarity: models.RarityLegendary},
}

// CollectedCards is owned by user 123 in no particular order.
var CollectedCards = []*models.CollectedCard{
	{UserID: 123, CardID: 1, Quantity: 7, Obtained: obtained, Card: Cards[0]},
	{UserID: 123, CardID: 2, IsShiny: true, Quantity: 1, IsNew: true, Obtained: obtained, Card: Cards[1]},
	{UserID: 123, CardID: 4, Quantity: 1, IsNew: true, Obtained: obtained, Card: Cards[3]},
	{UserID: 123, CardID: 2, Quantity: 2, Obtained: obtained, Card: Cards[1]},
	{UserID: 123, CardID: 3, Quantity: 3, Obtained: obtained, Card: Cards[2]},
}
