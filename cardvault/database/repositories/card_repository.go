package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/cardvault/cardvault/cardvault/config"
	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/uptrace/bun"
)

type CardRepository interface {
	Create(ctx context.Context, card *models.Card) error
	GetByID(ctx context.Context, id int64) (*models.Card, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*models.Card, error)
	GetAll(ctx context.Context) ([]*models.Card, error)
	GetByRarity(ctx context.Context, rarity models.Rarity) ([]*models.Card, error)
	Update(ctx context.Context, card *models.Card) error
	UpdateImage(ctx context.Context, id int64, url string) error
	Delete(ctx context.Context, id int64) error
	BulkCreate(ctx context.Context, cards []*models.Card) (int, error)
	GetCardCount(ctx context.Context) (int64, error)
}

type cardRepository struct {
	*BaseRepository
}

func NewCardRepository(db *bun.DB) CardRepository {
	return &cardRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *cardRepository) Create(ctx context.Context, card *models.Card) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	card.CreatedAt = time.Now()
	card.UpdatedAt = card.CreatedAt

	_, err := r.db.NewInsert().
		Model(card).
		Returning("id").
		Exec(ctx)
	return r.HandleError("create", "card", err)
}

func (r *cardRepository) GetByID(ctx context.Context, id int64) (*models.Card, error) {
	card := new(models.Card)
	err := r.SelectOneWithTimeout(ctx, "get", "card", id, func(ctx context.Context) error {
		return r.db.NewSelect().
			Model(card).
			Where("id = ?", id).
			Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

func (r *cardRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.Card, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var cards []*models.Card
	err := r.db.NewSelect().
		Model(&cards).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	return cards, r.HandleError("get_by_ids", "card", err)
}

func (r *cardRepository) GetAll(ctx context.Context) ([]*models.Card, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var cards []*models.Card
	err := r.db.NewSelect().
		Model(&cards).
		Order("rarity DESC", "name ASC").
		Scan(ctx)
	return cards, r.HandleError("get_all", "card", err)
}

func (r *cardRepository) GetByRarity(ctx context.Context, rarity models.Rarity) ([]*models.Card, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var cards []*models.Card
	err := r.db.NewSelect().
		Model(&cards).
		Where("rarity = ?", rarity).
		Order("id ASC").
		Scan(ctx)
	return cards, r.HandleError("get_by_rarity", "card", err)
}

func (r *cardRepository) Update(ctx context.Context, card *models.Card) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	card.UpdatedAt = time.Now()
	result, err := r.db.NewUpdate().
		Model(card).
		Column("name", "rarity", "description", "quote", "power", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return r.HandleError("update", "card", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return &NotFoundError{Entity: "card", ID: card.ID}
	}
	return nil
}

func (r *cardRepository) UpdateImage(ctx context.Context, id int64, url string) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	result, err := r.db.NewUpdate().
		Model((*models.Card)(nil)).
		Set("image_url = ?", url).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return r.HandleError("update_image", "card", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return &NotFoundError{Entity: "card", ID: id}
	}
	return nil
}

// Delete removes a card and every reference to it in one transaction.
// Pending offers that mention the card are cancelled rather than deleted.
func (r *cardRepository) Delete(ctx context.Context, id int64) error {
	return r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model((*models.TradeOffer)(nil)).
			Set("status = ?", models.TradeCancelled).
			Set("updated_at = ?", time.Now()).
			Where("status = ?", models.TradePending).
			Where("id IN (SELECT offer_id FROM trade_cards WHERE card_id = ?)", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to cancel offers for card: %w", err)
		}

		if _, err = tx.NewDelete().Model((*models.CollectedCard)(nil)).Where("card_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete collected copies: %w", err)
		}

		result, err := tx.NewDelete().Model((*models.Card)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return r.HandleError("delete", "card", err)
		}
		if affected, _ := result.RowsAffected(); affected == 0 {
			return &NotFoundError{Entity: "card", ID: id}
		}
		return nil
	})
}

// BulkCreate inserts cards, skipping names that already exist with the same rarity.
func (r *cardRepository) BulkCreate(ctx context.Context, cards []*models.Card) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, config.BatchQueryTimeout)
	defer cancel()

	created := 0
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, card := range cards {
			exists, err := tx.NewSelect().
				Model((*models.Card)(nil)).
				Where("name = ? AND rarity = ?", card.Name, card.Rarity).
				Exists(ctx)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			card.CreatedAt = time.Now()
			card.UpdatedAt = card.CreatedAt
			if _, err := tx.NewInsert().Model(card).Returning("id").Exec(ctx); err != nil {
				return fmt.Errorf("failed to insert card %s: %w", card.Name, err)
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, r.HandleError("bulk_create", "card", err)
	}
	return created, nil
}

func (r *cardRepository) GetCardCount(ctx context.Context) (int64, error) {
	count, err := r.Count(ctx, "card", r.db.NewSelect().Model((*models.Card)(nil)))
	return int64(count), err
}
