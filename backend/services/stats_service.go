package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	webmodels "github.com/cardvault/cardvault/backend/models"
	"github.com/cardvault/cardvault/cardvault/database/models"
)

type CardCounter interface {
	GetCardCount(ctx context.Context) (int64, error)
}

type UserTotals interface {
	GetUserCount(ctx context.Context) (int64, error)
	TotalCredits(ctx context.Context) (int64, error)
}

type CollectionTotals interface {
	TotalCards(ctx context.Context) (int64, error)
}

type PurchaseCounter interface {
	CountPurchases(ctx context.Context) (int64, error)
}

type SalesTotals interface {
	TotalPaid(ctx context.Context) (int64, error)
}

type TradeCounter interface {
	CountByStatus(ctx context.Context) (map[models.TradeStatus]int64, error)
}

type BoostChecker interface {
	IsBoostActive(ctx context.Context, at time.Time) (bool, error)
}

// StatsService builds the admin dashboard from independent aggregate queries
type StatsService struct {
	cards      CardCounter
	users      UserTotals
	collection CollectionTotals
	purchases  PurchaseCounter
	sales      SalesTotals
	trades     TradeCounter
	boosts     BoostChecker
}

func NewStatsService(
	cards CardCounter,
	users UserTotals,
	collection CollectionTotals,
	purchases PurchaseCounter,
	sales SalesTotals,
	trades TradeCounter,
	boosts BoostChecker,
) *StatsService {
	return &StatsService{
		cards:      cards,
		users:      users,
		collection: collection,
		purchases:  purchases,
		sales:      sales,
		trades:     trades,
		boosts:     boosts,
	}
}

// DashboardStats runs the aggregates concurrently; the first failure cancels the rest.
func (s *StatsService) DashboardStats(ctx context.Context) (*webmodels.DashboardStats, error) {
	stats := &webmodels.DashboardStats{GeneratedAt: time.Now()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalCards, err = s.cards.GetCardCount(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TotalUsers, err = s.users.GetUserCount(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.CreditsInPlay, err = s.users.TotalCredits(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.CardsInPlay, err = s.collection.TotalCards(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.BoostersOpened, err = s.purchases.CountPurchases(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.MerchantPaid, err = s.sales.TotalPaid(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.TradesByStatus, err = s.trades.CountByStatus(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.BoostActive, err = s.boosts.IsBoostActive(ctx, stats.GeneratedAt)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
