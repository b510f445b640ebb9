package trade

import (
	"context"
	"errors"
	"time"

	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/cardvault/cardvault/cardvault/database/repositories"
	"github.com/cardvault/cardvault/cardvault/economy/utils"
	"github.com/uptrace/bun"
)

type postgresStore struct {
	trades     repositories.TradeRepository
	collection repositories.CollectedCardRepository
	users      repositories.UserRepository
	txm        *utils.EconomicTransactionManager
}

// NewPostgresStore backs the trade manager with the bun repositories.
// Settlement runs at SERIALIZABLE isolation on top of the row locks.
func NewPostgresStore(
	trades repositories.TradeRepository,
	collection repositories.CollectedCardRepository,
	users repositories.UserRepository,
	txm *utils.EconomicTransactionManager,
) Store {
	return &postgresStore{trades: trades, collection: collection, users: users, txm: txm}
}

func (s *postgresStore) GetOffer(ctx context.Context, tradeID string) (*models.TradeOffer, error) {
	return s.trades.GetByTradeID(ctx, tradeID)
}

func (s *postgresStore) ListOffers(ctx context.Context, userID int64, status models.TradeStatus) ([]*models.TradeOffer, error) {
	return s.trades.ListForUser(ctx, userID, status)
}

func (s *postgresStore) Holdings(ctx context.Context, userID int64, keys []models.CardKey) (map[models.CardKey]int64, error) {
	return s.collection.Holdings(ctx, userID, keys)
}

func (s *postgresStore) UserExists(ctx context.Context, userID int64) (bool, error) {
	return s.users.Exists(ctx, userID)
}

func (s *postgresStore) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	return s.trades.ExpireOverdue(ctx, now)
}

func (s *postgresStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return s.txm.WithTransaction(ctx, utils.SerializableTransactionOptions(), func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &postgresTx{store: s, tx: tx})
	})
}

type postgresTx struct {
	store *postgresStore
	tx    bun.Tx
}

func (t *postgresTx) InsertOffer(ctx context.Context, offer *models.TradeOffer) error {
	return t.store.trades.Insert(ctx, t.tx, offer)
}

func (t *postgresTx) LockOffer(ctx context.Context, tradeID string) (*models.TradeOffer, error) {
	return t.store.trades.Lock(ctx, t.tx, tradeID)
}

func (t *postgresTx) Transition(ctx context.Context, offerID int64, status models.TradeStatus) (bool, error) {
	return t.store.trades.Transition(ctx, t.tx, offerID, status)
}

func (t *postgresTx) LockedQuantity(ctx context.Context, userID int64, key models.CardKey) (int64, error) {
	return t.store.txm.LockedQuantity(ctx, t.tx, userID, key)
}

func (t *postgresTx) Take(ctx context.Context, userID int64, key models.CardKey, qty int64) error {
	err := t.store.txm.RemoveCardFromCollection(ctx, t.tx, utils.CardOperationOptions{
		UserID:  userID,
		CardID:  key.CardID,
		IsShiny: key.IsShiny,
		Amount:  qty,
	})
	if errors.Is(err, utils.ErrInsufficientCards) {
		return ErrInsufficientCards
	}
	return err
}

func (t *postgresTx) Give(ctx context.Context, userID int64, key models.CardKey, qty int64) error {
	return t.store.txm.AddCardToCollection(ctx, t.tx, utils.CardOperationOptions{
		UserID:  userID,
		CardID:  key.CardID,
		IsShiny: key.IsShiny,
		Amount:  qty,
	})
}

func (t *postgresTx) CompleteTrade(ctx context.Context, userIDs ...int64) error {
	for _, id := range userIDs {
		if err := t.store.users.IncrementCounters(ctx, t.tx, id, repositories.UserCounters{TradesCompleted: 1}); err != nil {
			return err
		}
	}
	return nil
}
