package utils

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/uptrace/bun"
)

var (
	// ErrInsufficientCards is returned when a guarded decrement finds fewer copies than required.
	ErrInsufficientCards = errors.New("insufficient cards in collection")
	// ErrInsufficientCredits is returned when a guarded debit would overdraw the balance.
	ErrInsufficientCredits = errors.New("insufficient credits")
)

// TransactionOptions configures transaction behavior
type TransactionOptions struct {
	IsolationLevel sql.IsolationLevel
	Timeout        time.Duration
}

// EconomicTransactionManager provides standardized transaction utilities for economic operations
type EconomicTransactionManager struct {
	db *bun.DB
}

// NewEconomicTransactionManager creates a new transaction manager
func NewEconomicTransactionManager(db *bun.DB) *EconomicTransactionManager {
	return &EconomicTransactionManager{db: db}
}

// StandardTransactionOptions returns default transaction options
func StandardTransactionOptions() *TransactionOptions {
	return &TransactionOptions{
		IsolationLevel: sql.LevelReadCommitted,
		Timeout:        DefaultTxTimeout,
	}
}

// SerializableTransactionOptions returns serializable isolation level options for critical operations
func SerializableTransactionOptions() *TransactionOptions {
	return &TransactionOptions{
		IsolationLevel: sql.LevelSerializable,
		Timeout:        DefaultTxTimeout,
	}
}

// WithTransaction executes a function within a database transaction
func (etm *EconomicTransactionManager) WithTransaction(ctx context.Context, opts *TransactionOptions, fn func(context.Context, bun.Tx) error) error {
	if opts == nil {
		opts = StandardTransactionOptions()
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	tx, err := etm.db.BeginTx(timeoutCtx, &sql.TxOptions{
		Isolation: opts.IsolationLevel,
	})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(timeoutCtx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// CardOperationOptions configures collection operations
type CardOperationOptions struct {
	UserID  int64
	CardID  int64
	IsShiny bool
	Amount  int64
}

// AddCardToCollection adds copies with UPSERT logic and flags the holding as new.
func (etm *EconomicTransactionManager) AddCardToCollection(ctx context.Context, tx bun.Tx, opts CardOperationOptions) error {
	now := time.Now()
	result, err := tx.NewUpdate().
		Model((*models.CollectedCard)(nil)).
		Set("quantity = quantity + ?", opts.Amount).
		Set("is_new = true").
		Set("obtained = ?", now).
		Set("updated_at = ?", now).
		Where("user_id = ? AND card_id = ? AND is_shiny = ?", opts.UserID, opts.CardID, opts.IsShiny).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update card quantity: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		_, err = tx.NewInsert().
			Model(&models.CollectedCard{
				UserID:    opts.UserID,
				CardID:    opts.CardID,
				IsShiny:   opts.IsShiny,
				Quantity:  opts.Amount,
				IsNew:     true,
				Obtained:  now,
				CreatedAt: now,
				UpdatedAt: now,
			}).
			On("CONFLICT (user_id, card_id, is_shiny) DO UPDATE").
			Set("quantity = cc.quantity + EXCLUDED.quantity").
			Set("is_new = true").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to add new card: %w", err)
		}
	}

	return nil
}

// RemoveCardFromCollection is a single compare-and-decrement. The row is deleted when it reaches zero.
func (etm *EconomicTransactionManager) RemoveCardFromCollection(ctx context.Context, tx bun.Tx, opts CardOperationOptions) error {
	if opts.Amount <= 0 {
		return fmt.Errorf("invalid amount %d", opts.Amount)
	}

	result, err := tx.NewUpdate().
		Model((*models.CollectedCard)(nil)).
		Set("quantity = quantity - ?", opts.Amount).
		Set("updated_at = ?", time.Now()).
		Where("user_id = ? AND card_id = ? AND is_shiny = ? AND quantity >= ?",
			opts.UserID, opts.CardID, opts.IsShiny, opts.Amount).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update card quantity: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("card %d (shiny=%t) needs %d: %w", opts.CardID, opts.IsShiny, opts.Amount, ErrInsufficientCards)
	}

	_, err = tx.NewDelete().
		Model((*models.CollectedCard)(nil)).
		Where("user_id = ? AND card_id = ? AND is_shiny = ? AND quantity = 0", opts.UserID, opts.CardID, opts.IsShiny).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to prune empty card: %w", err)
	}
	return nil
}

// LockedQuantity reads a holding with the row locked for the rest of the transaction.
func (etm *EconomicTransactionManager) LockedQuantity(ctx context.Context, tx bun.Tx, userID int64, key models.CardKey) (int64, error) {
	var cc models.CollectedCard
	err := tx.NewSelect().
		Model(&cc).
		Column("quantity").
		Where("user_id = ? AND card_id = ? AND is_shiny = ?", userID, key.CardID, key.IsShiny).
		For("UPDATE").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to lock card: %w", err)
	}
	return cc.Quantity, nil
}

// DebitCredits is a guarded debit: it never leaves the balance negative.
func (etm *EconomicTransactionManager) DebitCredits(ctx context.Context, tx bun.Tx, userID int64, amount int64) error {
	result, err := tx.NewUpdate().
		Model((*models.User)(nil)).
		Set("credits = credits - ?", amount).
		Set("updated_at = ?", time.Now()).
		Where("id = ? AND credits >= ?", userID, amount).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to debit credits: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrInsufficientCredits
	}
	return nil
}

func (etm *EconomicTransactionManager) CreditUser(ctx context.Context, tx bun.Tx, userID int64, amount int64) error {
	result, err := tx.NewUpdate().
		Model((*models.User)(nil)).
		Set("credits = credits + ?", amount).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to credit user: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("user %d not found when updating balance", userID)
	}
	return nil
}

// TransferCard moves copies from one user to another
func (etm *EconomicTransactionManager) TransferCard(ctx context.Context, tx bun.Tx, fromUserID, toUserID int64, key models.CardKey, amount int64) error {
	if err := etm.RemoveCardFromCollection(ctx, tx, CardOperationOptions{
		UserID:  fromUserID,
		CardID:  key.CardID,
		IsShiny: key.IsShiny,
		Amount:  amount,
	}); err != nil {
		return fmt.Errorf("failed to remove card from source: %w", err)
	}

	if err := etm.AddCardToCollection(ctx, tx, CardOperationOptions{
		UserID:  toUserID,
		CardID:  key.CardID,
		IsShiny: key.IsShiny,
		Amount:  amount,
	}); err != nil {
		return fmt.Errorf("failed to add card to destination: %w", err)
	}

	return nil
}

// GetDB returns the underlying database connection
func (etm *EconomicTransactionManager) GetDB() *bun.DB {
	return etm.db
}
