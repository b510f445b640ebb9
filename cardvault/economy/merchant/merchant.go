// Package merchant buys cards back from players at the pricing table rates.
package merchant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/cardvault/cardvault/cardvault/database/repositories"
	"github.com/cardvault/cardvault/cardvault/economy/pricing"
	"github.com/cardvault/cardvault/cardvault/logger"
	"github.com/cardvault/cardvault/cardvault/services"
)

var (
	ErrInsufficientCards = errors.New("not enough copies to sell")
	ErrUnknownCard       = errors.New("unknown card")
)

type Store interface {
	GetCard(ctx context.Context, cardID int64) (*models.Card, error)
	Holding(ctx context.Context, userID int64, key models.CardKey) (int64, error)
	ListSales(ctx context.Context, userID int64, limit int) ([]*models.MerchantSale, error)
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	LockedQuantity(ctx context.Context, userID int64, key models.CardKey) (int64, error)
	// Take decrements a holding only if it has at least qty, pruning it at zero.
	Take(ctx context.Context, userID int64, key models.CardKey, qty int64) error
	Credit(ctx context.Context, userID int64, amount int64) error
	IncrementCounters(ctx context.Context, userID int64, delta repositories.UserCounters) error
	InsertSale(ctx context.Context, sale *models.MerchantSale) error
}

type AchievementHandler interface {
	Handle(ctx context.Context, ev services.Event) ([]services.Achievement, error)
}

type SellRequest struct {
	CardID   int64 `json:"card_id"`
	IsShiny  bool  `json:"is_shiny"`
	Quantity int64 `json:"quantity"`
	// KeepOne restricts the sale to duplicates, leaving at least one copy.
	KeepOne bool `json:"keep_one"`
}

func (r SellRequest) key() models.CardKey {
	return models.CardKey{CardID: r.CardID, IsShiny: r.IsShiny}
}

type Quote struct {
	pricing.Quote
	CardID int64 `json:"card_id"`
	Owned  int64 `json:"owned"`
	// Sellable is the number of copies the request may sell.
	Sellable int64 `json:"sellable"`
}

type Merchant struct {
	store        Store
	achievements AchievementHandler
}

func New(store Store, achievements AchievementHandler) *Merchant {
	return &Merchant{store: store, achievements: achievements}
}

func sellable(owned int64, keepOne bool) int64 {
	if keepOne {
		owned--
	}
	if owned < 0 {
		return 0
	}
	return owned
}

func (m *Merchant) card(ctx context.Context, cardID int64) (*models.Card, error) {
	card, err := m.store.GetCard(ctx, cardID)
	if repositories.IsNotFound(err) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCard, cardID)
	}
	return card, err
}

// Quote prices a sale without moving anything.
func (m *Merchant) Quote(ctx context.Context, userID int64, req SellRequest) (*Quote, error) {
	card, err := m.card(ctx, req.CardID)
	if err != nil {
		return nil, err
	}
	price, err := pricing.NewQuote(card.Rarity, req.Quantity, req.IsShiny)
	if err != nil {
		return nil, err
	}
	owned, err := m.store.Holding(ctx, userID, req.key())
	if err != nil {
		return nil, fmt.Errorf("failed to load holding: %w", err)
	}
	return &Quote{
		Quote:    price,
		CardID:   card.ID,
		Owned:    owned,
		Sellable: sellable(owned, req.KeepOne),
	}, nil
}

// Sell removes the copies and pays for them in one transaction.
func (m *Merchant) Sell(ctx context.Context, userID int64, req SellRequest) (*Quote, error) {
	card, err := m.card(ctx, req.CardID)
	if err != nil {
		return nil, err
	}
	price, err := pricing.NewQuote(card.Rarity, req.Quantity, req.IsShiny)
	if err != nil {
		return nil, err
	}

	key := req.key()
	result := &Quote{Quote: price, CardID: card.ID}

	err = m.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		owned, err := tx.LockedQuantity(ctx, userID, key)
		if err != nil {
			return err
		}
		result.Owned = owned
		result.Sellable = sellable(owned, req.KeepOne)
		if req.Quantity > result.Sellable {
			return fmt.Errorf("%w: own %d of card %d, can sell %d", ErrInsufficientCards, owned, card.ID, result.Sellable)
		}

		if err := tx.Take(ctx, userID, key, req.Quantity); err != nil {
			return err
		}
		if err := tx.Credit(ctx, userID, price.Total); err != nil {
			return err
		}
		if err := tx.IncrementCounters(ctx, userID, repositories.UserCounters{CardsSold: req.Quantity}); err != nil {
			return err
		}
		return tx.InsertSale(ctx, &models.MerchantSale{
			UserID:   userID,
			CardID:   card.ID,
			IsShiny:  req.IsShiny,
			Quantity: req.Quantity,
			Credits:  price.Total,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.LogGame("Cards sold to merchant",
		slog.Int64("user_id", userID),
		slog.Int64("card_id", card.ID),
		slog.Bool("shiny", req.IsShiny),
		slog.Int64("quantity", req.Quantity),
		slog.Int64("credits", price.Total))

	if m.achievements != nil {
		if _, err := m.achievements.Handle(ctx, services.CollectionUpdate{User: userID}); err != nil {
			slog.Debug("Failed to evaluate achievements",
				slog.String("type", "game"),
				slog.Int64("user_id", userID),
				slog.Any("error", err))
		}
	}

	result.Owned -= req.Quantity
	result.Sellable = sellable(result.Owned, req.KeepOne)
	return result, nil
}

func (m *Merchant) History(ctx context.Context, userID int64, limit int) ([]*models.MerchantSale, error) {
	return m.store.ListSales(ctx, userID, limit)
}
