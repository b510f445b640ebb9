package repositories

import (
	"context"
	"time"

	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/uptrace/bun"
)

type SaleRepository interface {
	Insert(ctx context.Context, db bun.IDB, sale *models.MerchantSale) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]*models.MerchantSale, error)
	TotalPaid(ctx context.Context) (int64, error)
}

type saleRepository struct {
	*BaseRepository
}

func NewSaleRepository(db *bun.DB) SaleRepository {
	return &saleRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *saleRepository) Insert(ctx context.Context, db bun.IDB, sale *models.MerchantSale) error {
	if db == nil {
		db = r.db
	}
	sale.CreatedAt = time.Now()
	_, err := db.NewInsert().Model(sale).Returning("id").Exec(ctx)
	return r.HandleError("insert", "merchant_sale", err)
}

func (r *saleRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.MerchantSale, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var sales []*models.MerchantSale
	err := r.db.NewSelect().
		Model(&sales).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	return sales, r.HandleError("list", "merchant_sale", err)
}

func (r *saleRepository) TotalPaid(ctx context.Context) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var total int64
	err := r.db.NewSelect().
		Model((*models.MerchantSale)(nil)).
		ColumnExpr("COALESCE(SUM(credits), 0)").
		Scan(ctx, &total)
	return total, r.HandleError("total_paid", "merchant_sale", err)
}
