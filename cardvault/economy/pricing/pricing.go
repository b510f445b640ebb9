// Package pricing values cards sold to the merchant.
package pricing

import (
	"errors"
	"fmt"

	"github.com/cardvault/cardvault/cardvault/config"
	"github.com/cardvault/cardvault/cardvault/database/models"
)

// BulkQuantity is the batch size the bulk price covers.
const BulkQuantity = 10

var (
	ErrUnknownRarity   = errors.New("unknown rarity")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// Price is the merchant's rate for one rarity.
type Price struct {
	Single int64 `json:"single"`
	Bulk   int64 `json:"bulk"`
}

var table = map[models.Rarity]Price{
	models.RarityCommon:    {Single: 1, Bulk: 15},
	models.RarityUncommon:  {Single: 2, Bulk: 25},
	models.RarityRare:      {Single: 5, Bulk: 70},
	models.RarityEpic:      {Single: 20, Bulk: 250},
	models.RarityLegendary: {Single: 50, Bulk: 600},
}

// PriceFor returns the rate for a rarity.
func PriceFor(rarity models.Rarity) (Price, error) {
	p, ok := table[rarity]
	if !ok {
		return Price{}, fmt.Errorf("%w: %d", ErrUnknownRarity, int(rarity))
	}
	return p, nil
}

// Calculate returns the credits paid for quantity copies.
// Full batches of BulkQuantity use the bulk price and the remainder the single price;
// shiny copies pay 1.5x, rounded up. Quantities above config.MaxSellQuantity are rejected.
func Calculate(rarity models.Rarity, quantity int64, isShiny bool) (int64, error) {
	p, err := PriceFor(rarity)
	if err != nil {
		return 0, err
	}
	if quantity <= 0 || quantity > config.MaxSellQuantity {
		return 0, fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidQuantity, quantity, config.MaxSellQuantity)
	}

	var price int64
	if quantity >= BulkQuantity {
		price = (quantity/BulkQuantity)*p.Bulk + (quantity%BulkQuantity)*p.Single
	} else {
		price = quantity * p.Single
	}

	if isShiny {
		price = shiny(price)
	}
	return price, nil
}

// shiny is ceil(p * 1.5) without floating point.
func shiny(p int64) int64 {
	return (3*p + 1) / 2
}

// Quote breaks a sale down for display.
type Quote struct {
	Rarity      models.Rarity `json:"rarity"`
	Quantity    int64         `json:"quantity"`
	IsShiny     bool          `json:"is_shiny"`
	BulkBatches int64         `json:"bulk_batches"`
	Singles     int64         `json:"singles"`
	Base        int64         `json:"base"`
	Total       int64         `json:"total"`
}

func NewQuote(rarity models.Rarity, quantity int64, isShiny bool) (Quote, error) {
	total, err := Calculate(rarity, quantity, isShiny)
	if err != nil {
		return Quote{}, err
	}
	base, _ := Calculate(rarity, quantity, false)

	q := Quote{
		Rarity:   rarity,
		Quantity: quantity,
		IsShiny:  isShiny,
		Singles:  quantity,
		Base:     base,
		Total:    total,
	}
	if quantity >= BulkQuantity {
		q.BulkBatches = quantity / BulkQuantity
		q.Singles = quantity % BulkQuantity
	}
	return q, nil
}

// Table returns a copy of the price table.
func Table() map[models.Rarity]Price {
	out := make(map[models.Rarity]Price, len(table))
	for r, p := range table {
		out[r] = p
	}
	return out
}
