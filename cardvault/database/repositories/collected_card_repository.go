package repositories

import (
	"context"
	"time"

	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/cardvault/cardvault/cardvault/logger"
	"github.com/uptrace/bun"
)

// CollectionFilter narrows a collection listing. Zero values mean "any".
type CollectionFilter struct {
	Rarity  models.Rarity
	Shiny   *bool
	NewOnly bool
	Name    string
}

type CollectedCardRepository interface {
	ListByUser(ctx context.Context, userID int64, filter CollectionFilter) ([]*models.CollectedCard, error)
	Get(ctx context.Context, userID int64, key models.CardKey) (*models.CollectedCard, error)
	Holdings(ctx context.Context, userID int64, keys []models.CardKey) (map[models.CardKey]int64, error)
	CountDistinct(ctx context.Context, userID int64) (int64, error)
	MarkSeen(ctx context.Context, userID int64, keys []models.CardKey) (int64, error)
	PruneZero(ctx context.Context) (int64, error)
	TotalCards(ctx context.Context) (int64, error)
}

type collectedCardRepository struct {
	*BaseRepository
}

func NewCollectedCardRepository(db *bun.DB) CollectedCardRepository {
	return &collectedCardRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *collectedCardRepository) ListByUser(ctx context.Context, userID int64, filter CollectionFilter) ([]*models.CollectedCard, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var cards []*models.CollectedCard
	q := r.db.NewSelect().
		Model(&cards).
		Relation("Card").
		Where("cc.user_id = ?", userID).
		Where("cc.quantity > 0")

	if filter.Rarity.Valid() {
		q = q.Where("card.rarity = ?", filter.Rarity)
	}
	if filter.Shiny != nil {
		q = q.Where("cc.is_shiny = ?", *filter.Shiny)
	}
	if filter.NewOnly {
		q = q.Where("cc.is_new = true")
	}
	if filter.Name != "" {
		q = q.Where("card.name ILIKE ?", "%"+filter.Name+"%")
	}

	err := q.Order("card.rarity DESC", "card.name ASC", "cc.is_shiny DESC").Scan(ctx)
	return cards, r.HandleError("list", "collected_card", err)
}

func (r *collectedCardRepository) Get(ctx context.Context, userID int64, key models.CardKey) (*models.CollectedCard, error) {
	cc := new(models.CollectedCard)
	err := r.SelectOneWithTimeout(ctx, "get", "collected_card", key, func(ctx context.Context) error {
		return r.db.NewSelect().
			Model(cc).
			Relation("Card").
			Where("cc.user_id = ? AND cc.card_id = ? AND cc.is_shiny = ?", userID, key.CardID, key.IsShiny).
			Where("cc.quantity > 0").
			Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return cc, nil
}

// Holdings returns the quantity owned for each key; missing keys map to 0.
func (r *collectedCardRepository) Holdings(ctx context.Context, userID int64, keys []models.CardKey) (map[models.CardKey]int64, error) {
	out := make(map[models.CardKey]int64, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	ids := make([]int64, 0, len(keys))
	for _, k := range keys {
		out[k] = 0
		ids = append(ids, k.CardID)
	}

	var rows []*models.CollectedCard
	err := r.db.NewSelect().
		Model(&rows).
		Where("user_id = ?", userID).
		Where("card_id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("holdings", "collected_card", err)
	}
	for _, row := range rows {
		if _, wanted := out[row.Key()]; wanted {
			out[row.Key()] = row.Quantity
		}
	}
	return out, nil
}

func (r *collectedCardRepository) CountDistinct(ctx context.Context, userID int64) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var n int64
	err := r.db.NewSelect().
		Model((*models.CollectedCard)(nil)).
		ColumnExpr("COUNT(DISTINCT card_id)").
		Where("user_id = ? AND quantity > 0", userID).
		Scan(ctx, &n)
	return n, r.HandleError("count_distinct", "collected_card", err)
}

// MarkSeen clears is_new for the given keys, or for every holding when keys is empty.
func (r *collectedCardRepository) MarkSeen(ctx context.Context, userID int64, keys []models.CardKey) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	q := r.db.NewUpdate().
		Model((*models.CollectedCard)(nil)).
		Set("is_new = false").
		Set("updated_at = ?", time.Now()).
		Where("user_id = ? AND is_new = true", userID)

	if len(keys) > 0 {
		q = q.WhereGroup(" AND ", func(q *bun.UpdateQuery) *bun.UpdateQuery {
			for _, k := range keys {
				q = q.WhereOr("(card_id = ? AND is_shiny = ?)", k.CardID, k.IsShiny)
			}
			return q
		})
	}

	result, err := q.Exec(ctx)
	if err != nil {
		return 0, r.HandleError("mark_seen", "collected_card", err)
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}

// PruneZero deletes rows left at quantity 0.
func (r *collectedCardRepository) PruneZero(ctx context.Context) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	ql := logger.NewQueryLogger("prune_zero", "DELETE FROM collected_cards WHERE quantity <= 0")
	result, err := r.db.NewDelete().
		Model((*models.CollectedCard)(nil)).
		Where("quantity <= 0").
		Exec(ctx)
	if err != nil {
		ql.Log(err, 0)
		return 0, r.HandleError("prune_zero", "collected_card", err)
	}
	affected, _ := result.RowsAffected()
	ql.Log(nil, affected)
	return affected, nil
}

func (r *collectedCardRepository) TotalCards(ctx context.Context) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var total int64
	err := r.db.NewSelect().
		Model((*models.CollectedCard)(nil)).
		ColumnExpr("COALESCE(SUM(quantity), 0)").
		Scan(ctx, &total)
	return total, r.HandleError("total_cards", "collected_card", err)
}
