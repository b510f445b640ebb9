package trade

import (
	"context"
	"time"

	"github.com/cardvault/cardvault/cardvault/database/models"
)

//go:generate mockgen -source=store.go -destination=mock/store.go -package=mock

// Store is the persistence the trade manager needs.
type Store interface {
	GetOffer(ctx context.Context, tradeID string) (*models.TradeOffer, error)
	ListOffers(ctx context.Context, userID int64, status models.TradeStatus) ([]*models.TradeOffer, error)
	Holdings(ctx context.Context, userID int64, keys []models.CardKey) (map[models.CardKey]int64, error)
	UserExists(ctx context.Context, userID int64) (bool, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of operations available inside a settlement transaction.
type Tx interface {
	InsertOffer(ctx context.Context, offer *models.TradeOffer) error
	// LockOffer loads the offer with its lines and holds the offer row lock until commit.
	LockOffer(ctx context.Context, tradeID string) (*models.TradeOffer, error)
	// Transition moves a PENDING offer to status and reports false if it was no longer PENDING.
	Transition(ctx context.Context, offerID int64, status models.TradeStatus) (bool, error)
	// LockedQuantity reads a holding and locks its row until commit.
	LockedQuantity(ctx context.Context, userID int64, key models.CardKey) (int64, error)
	// Take decrements a holding only if it has at least qty, pruning it at zero.
	Take(ctx context.Context, userID int64, key models.CardKey, qty int64) error
	// Give increments a holding, creating it with is_new set.
	Give(ctx context.Context, userID int64, key models.CardKey, qty int64) error
	CompleteTrade(ctx context.Context, userIDs ...int64) error
}
