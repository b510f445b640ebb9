package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/cardvault/cardvault/cardvault/logger"
	"github.com/uptrace/bun"
)

type TradeRepository interface {
	DB() *bun.DB
	Insert(ctx context.Context, db bun.IDB, offer *models.TradeOffer) error
	GetByTradeID(ctx context.Context, tradeID string) (*models.TradeOffer, error)
	// Lock selects the offer and its lines with the offer row locked FOR UPDATE.
	Lock(ctx context.Context, db bun.IDB, tradeID string) (*models.TradeOffer, error)
	// Transition moves a PENDING offer to status. It reports false if the offer was no longer PENDING.
	Transition(ctx context.Context, db bun.IDB, id int64, status models.TradeStatus) (bool, error)
	ListForUser(ctx context.Context, userID int64, status models.TradeStatus) ([]*models.TradeOffer, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[models.TradeStatus]int64, error)
}

type tradeRepository struct {
	*BaseRepository
}

func NewTradeRepository(db *bun.DB) TradeRepository {
	return &tradeRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *tradeRepository) DB() *bun.DB {
	return r.db
}

func (r *tradeRepository) Insert(ctx context.Context, db bun.IDB, offer *models.TradeOffer) error {
	if db == nil {
		db = r.db
	}
	now := time.Now()
	offer.CreatedAt = now
	offer.UpdatedAt = now

	if _, err := db.NewInsert().Model(offer).Returning("id").Exec(ctx); err != nil {
		return r.HandleError("insert", "trade", err)
	}
	if len(offer.Cards) == 0 {
		return nil
	}
	for _, line := range offer.Cards {
		line.OfferID = offer.ID
	}
	if _, err := db.NewInsert().Model(&offer.Cards).Exec(ctx); err != nil {
		return r.HandleError("insert_lines", "trade", err)
	}
	return nil
}

func (r *tradeRepository) GetByTradeID(ctx context.Context, tradeID string) (*models.TradeOffer, error) {
	offer := new(models.TradeOffer)
	err := r.SelectOneWithTimeout(ctx, "get", "trade", tradeID, func(ctx context.Context) error {
		return r.db.NewSelect().
			Model(offer).
			Relation("Cards", func(q *bun.SelectQuery) *bun.SelectQuery {
				return q.Order("tc.side ASC", "tc.id ASC")
			}).
			Relation("Cards.Card").
			Where("t.trade_id = ?", tradeID).
			Scan(ctx)
	})
	if err != nil {
		return nil, err
	}
	return offer, nil
}

func (r *tradeRepository) Lock(ctx context.Context, db bun.IDB, tradeID string) (*models.TradeOffer, error) {
	offer := new(models.TradeOffer)
	err := db.NewSelect().
		Model(offer).
		Where("trade_id = ?", tradeID).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("lock", "trade", tradeID, err)
	}

	err = db.NewSelect().
		Model(&offer.Cards).
		Where("offer_id = ?", offer.ID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("lock_lines", "trade", err)
	}
	return offer, nil
}

func (r *tradeRepository) Transition(ctx context.Context, db bun.IDB, id int64, status models.TradeStatus) (bool, error) {
	if db == nil {
		db = r.db
	}
	result, err := db.NewUpdate().
		Model((*models.TradeOffer)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now()).
		Where("id = ? AND status = ?", id, models.TradePending).
		Exec(ctx)
	if err != nil {
		return false, r.HandleError("transition", "trade", err)
	}
	affected, _ := result.RowsAffected()
	return affected == 1, nil
}

func (r *tradeRepository) ListForUser(ctx context.Context, userID int64, status models.TradeStatus) ([]*models.TradeOffer, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var offers []*models.TradeOffer
	q := r.db.NewSelect().
		Model(&offers).
		Relation("Cards").
		Relation("Cards.Card").
		Where("(t.initiator_id = ? OR t.recipient_id = ?)", userID, userID)
	if status != "" {
		q = q.Where("t.status = ?", status)
	}
	err := q.Order("t.created_at DESC").Scan(ctx)
	return offers, r.HandleError("list", "trade", err)
}

// ExpireOverdue marks every PENDING offer past its deadline as EXPIRED.
func (r *tradeRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	ql := logger.NewQueryLogger("expire_trades", "UPDATE trade_offers SET status = 'EXPIRED' WHERE status = 'PENDING' AND expires_at < ?", now)
	result, err := r.db.NewUpdate().
		Model((*models.TradeOffer)(nil)).
		Set("status = ?", models.TradeExpired).
		Set("updated_at = ?", now).
		Where("status = ?", models.TradePending).
		Where("expires_at < ?", now).
		Exec(ctx)
	if err != nil {
		ql.Log(err, 0)
		return 0, fmt.Errorf("failed to expire trades: %w", err)
	}
	affected, _ := result.RowsAffected()
	ql.Log(nil, affected)
	return affected, nil
}

func (r *tradeRepository) CountByStatus(ctx context.Context) (map[models.TradeStatus]int64, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var rows []struct {
		Status models.TradeStatus `bun:"status"`
		Count  int64              `bun:"count"`
	}
	err := r.db.NewSelect().
		Model((*models.TradeOffer)(nil)).
		Column("status").
		ColumnExpr("COUNT(*) AS count").
		Group("status").
		Scan(ctx, &rows)
	if err != nil {
		return nil, r.HandleError("count_by_status", "trade", err)
	}

	out := make(map[models.TradeStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
