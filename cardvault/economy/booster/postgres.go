package booster

import (
	"context"
	"errors"

	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/cardvault/cardvault/cardvault/database/repositories"
	"github.com/cardvault/cardvault/cardvault/economy/utils"
	"github.com/uptrace/bun"
)

type postgresStore struct {
	boosters repositories.BoosterRepository
	users    repositories.UserRepository
	txm      *utils.EconomicTransactionManager
}

// NewPostgresStore backs the opener with the bun repositories.
func NewPostgresStore(boosters repositories.BoosterRepository, users repositories.UserRepository, txm *utils.EconomicTransactionManager) Store {
	return &postgresStore{boosters: boosters, users: users, txm: txm}
}

func (s *postgresStore) GetConfig(ctx context.Context, t models.BoosterType) (*models.BoosterConfig, error) {
	return s.boosters.GetConfig(ctx, t)
}

func (s *postgresStore) Credits(ctx context.Context, userID int64) (int64, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.Credits, nil
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

func (t *postgresTx) Debit(ctx context.Context, userID int64, amount int64) error {
	err := t.store.txm.DebitCredits(ctx, t.tx, userID, amount)
	if errors.Is(err, utils.ErrInsufficientCredits) {
		return ErrInsufficientCredits
	}
	return err
}

func (t *postgresTx) AddCard(ctx context.Context, userID int64, key models.CardKey, qty int64) error {
	return t.store.txm.AddCardToCollection(ctx, t.tx, utils.CardOperationOptions{
		UserID:  userID,
		CardID:  key.CardID,
		IsShiny: key.IsShiny,
		Amount:  qty,
	})
}

func (t *postgresTx) IncrementCounters(ctx context.Context, userID int64, delta repositories.UserCounters) error {
	return t.store.users.IncrementCounters(ctx, t.tx, userID, delta)
}

func (t *postgresTx) InsertPurchase(ctx context.Context, purchase *models.BoosterPurchase) error {
	return t.store.boosters.InsertPurchase(ctx, t.tx, purchase)
}
