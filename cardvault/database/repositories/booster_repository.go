package repositories

import (
	"context"
	"time"

	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/uptrace/bun"
)

type BoosterRepository interface {
	GetConfig(ctx context.Context, boosterType models.BoosterType) (*models.BoosterConfig, error)
	ListConfigs(ctx context.Context, activeOnly bool) ([]*models.BoosterConfig, error)
	UpsertConfig(ctx context.Context, cfg *models.BoosterConfig) error
	InsertPurchase(ctx context.Context, db bun.IDB, purchase *models.BoosterPurchase) error
	ListPurchases(ctx context.Context, userID int64, limit int) ([]*models.BoosterPurchase, error)
	CountPurchases(ctx context.Context) (int64, error)
}

type boosterRepository struct {
	*BaseRepository
}

func NewBoosterRepository(db *bun.DB) BoosterRepository {
	return &boosterRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *boosterRepository) GetConfig(ctx context.Context, boosterType models.BoosterType) (*models.BoosterConfig, error) {
	cfg := new(models.BoosterConfig)
	err := r.SelectOneWithTimeout(ctx, "get", "booster", boosterType, func(ctx context.Context) error {
		return r.db.NewSelect().Model(cfg).Where("type = ?", boosterType).Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r *boosterRepository) ListConfigs(ctx context.Context, activeOnly bool) ([]*models.BoosterConfig, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var configs []*models.BoosterConfig
	q := r.db.NewSelect().Model(&configs).Order("cost ASC", "type ASC")
	if activeOnly {
		q = q.Where("active = true")
	}
	err := q.Scan(ctx)
	return configs, r.HandleError("list", "booster", err)
}

func (r *boosterRepository) UpsertConfig(ctx context.Context, cfg *models.BoosterConfig) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	cfg.UpdatedAt = time.Now()
	_, err := r.db.NewInsert().
		Model(cfg).
		On("CONFLICT (type) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("cost = EXCLUDED.cost").
		Set("card_count = EXCLUDED.card_count").
		Set("active = EXCLUDED.active").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return r.HandleError("upsert", "booster", err)
}

func (r *boosterRepository) InsertPurchase(ctx context.Context, db bun.IDB, purchase *models.BoosterPurchase) error {
	if db == nil {
		db = r.db
	}
	purchase.CreatedAt = time.Now()
	_, err := db.NewInsert().Model(purchase).Returning("id").Exec(ctx)
	return r.HandleError("insert", "booster_purchase", err)
}

func (r *boosterRepository) ListPurchases(ctx context.Context, userID int64, limit int) ([]*models.BoosterPurchase, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var purchases []*models.BoosterPurchase
	err := r.db.NewSelect().
		Model(&purchases).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	return purchases, r.HandleError("list", "booster_purchase", err)
}

func (r *boosterRepository) CountPurchases(ctx context.Context) (int64, error) {
	count, err := r.Count(ctx, "booster_purchase", r.db.NewSelect().Model((*models.BoosterPurchase)(nil)))
	return int64(count), err
}
