package merchant

import (
	"context"
	"errors"

	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/cardvault/cardvault/cardvault/database/repositories"
	"github.com/cardvault/cardvault/cardvault/economy/utils"
	"github.com/uptrace/bun"
)

type postgresStore struct {
	cards      repositories.CardRepository
	collection repositories.CollectedCardRepository
	users      repositories.UserRepository
	sales      repositories.SaleRepository
	txm        *utils.EconomicTransactionManager
}

func NewPostgresStore(
	cards repositories.CardRepository,
	collection repositories.CollectedCardRepository,
	users repositories.UserRepository,
	sales repositories.SaleRepository,
	txm *utils.EconomicTransactionManager,
) Store {
	return &postgresStore{cards: cards, collection: collection, users: users, sales: sales, txm: txm}
}

func (s *postgresStore) GetCard(ctx context.Context, cardID int64) (*models.Card, error) {
	return s.cards.GetByID(ctx, cardID)
}

func (s *postgresStore) Holding(ctx context.Context, userID int64, key models.CardKey) (int64, error) {
	held, err := s.collection.Holdings(ctx, userID, []models.CardKey{key})
	if err != nil {
		return 0, err
	}
	return held[key], nil
}

func (s *postgresStore) ListSales(ctx context.Context, userID int64, limit int) ([]*models.MerchantSale, error) {
	return s.sales.ListByUser(ctx, userID, limit)
}

func (s *postgresStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return s.txm.WithTransaction(ctx, utils.StandardTransactionOptions(), func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &postgresTx{store: s, tx: tx})
	})
}

type postgresTx struct {
	store *postgresStore
	tx    bun.Tx
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

func (t *postgresTx) Credit(ctx context.Context, userID int64, amount int64) error {
	return t.store.txm.CreditUser(ctx, t.tx, userID, amount)
}

func (t *postgresTx) IncrementCounters(ctx context.Context, userID int64, delta repositories.UserCounters) error {
	return t.store.users.IncrementCounters(ctx, t.tx, userID, delta)
}

func (t *postgresTx) InsertSale(ctx context.Context, sale *models.MerchantSale) error {
	return t.store.sales.Insert(ctx, t.tx, sale)
}
