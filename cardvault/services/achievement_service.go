package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/cardvault/cardvault/cardvault/logger"
)

type UserReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type CollectionCounter interface {
	CountDistinct(ctx context.Context, userID int64) (int64, error)
}

type CardCounter interface {
	GetCardCount(ctx context.Context) (int64, error)
}

type AchievementStore interface {
	ListByUser(ctx context.Context, userID int64) ([]*models.UserAchievement, error)
	Unlock(ctx context.Context, userID int64, code string, reward int64) (bool, error)
}

// progress is the snapshot achievement conditions are checked against.
type progress struct {
	user        *models.User
	distinct    int64
	catalogSize int64
}

type definition struct {
	Code        string
	Name        string
	Description string
	Reward      int64
	// collection definitions need the distinct/catalog counts.
	collection bool
	met        func(p progress) bool
}

var definitions = []definition{
	{Code: "FIRST_BOOSTER", Name: "First Booster", Description: "Open your first booster", Reward: 50,
		met: func(p progress) bool { return p.user.BoostersOpened >= 1 }},
	{Code: "BOOSTER_FAN", Name: "Booster Fan", Description: "Open 10 boosters", Reward: 100,
		met: func(p progress) bool { return p.user.BoostersOpened >= 10 }},
	{Code: "BOOSTER_ADDICT", Name: "Booster Addict", Description: "Open 100 boosters", Reward: 1000,
		met: func(p progress) bool { return p.user.BoostersOpened >= 100 }},
	{Code: "FIRST_LEGENDARY", Name: "Legend Found", Description: "Pull a legendary card", Reward: 200,
		met: func(p progress) bool { return p.user.LegendaryFound >= 1 }},
	{Code: "SHINY_HUNTER", Name: "Shiny Hunter", Description: "Pull a shiny card", Reward: 100,
		met: func(p progress) bool { return p.user.ShinyFound >= 1 }},
	{Code: "SHINY_COLLECTOR", Name: "Shiny Collector", Description: "Pull 10 shiny cards", Reward: 500,
		met: func(p progress) bool { return p.user.ShinyFound >= 10 }},
	{Code: "FIRST_TRADE", Name: "First Trade", Description: "Complete a trade", Reward: 50,
		met: func(p progress) bool { return p.user.TradesCompleted >= 1 }},
	{Code: "TRADER", Name: "Trader", Description: "Complete 10 trades", Reward: 250,
		met: func(p progress) bool { return p.user.TradesCompleted >= 10 }},
	{Code: "COLLECTOR", Name: "Collector", Description: "Own 25 different cards", Reward: 300, collection: true,
		met: func(p progress) bool { return p.distinct >= 25 }},
	{Code: "COMPLETIONIST", Name: "Completionist", Description: "Own every card in the catalog", Reward: 2000, collection: true,
		met: func(p progress) bool { return p.catalogSize > 0 && p.distinct >= p.catalogSize }},
}

// Achievement is a definition joined with the user's unlock state.
type Achievement struct {
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Reward      int64      `json:"reward"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
}

func (d definition) achievement() Achievement {
	return Achievement{Code: d.Code, Name: d.Name, Description: d.Description, Reward: d.Reward}
}

// AchievementService evaluates events against the achievement definitions.
// It holds no state of its own; unlocks live in the store.
type AchievementService struct {
	users      UserReader
	collection CollectionCounter
	cards      CardCounter
	store      AchievementStore
}

func NewAchievementService(users UserReader, collection CollectionCounter, cards CardCounter, store AchievementStore) *AchievementService {
	return &AchievementService{users: users, collection: collection, cards: cards, store: store}
}

// relevant reports which definitions an event can affect.
func relevant(ev Event, d definition) bool {
	switch ev.(type) {
	case BoosterOpened:
		return d.Code != "FIRST_TRADE" && d.Code != "TRADER"
	case TradeComplete:
		return d.collection || d.Code == "FIRST_TRADE" || d.Code == "TRADER"
	case CollectionUpdate:
		return d.collection
	}
	return false
}

// Handle unlocks every achievement the event completes and returns the newly unlocked ones.
// Unlocking is idempotent: an achievement is credited at most once per user.
func (s *AchievementService) Handle(ctx context.Context, ev Event) ([]Achievement, error) {
	user, err := s.users.GetByID(ctx, ev.UserID())
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	p := progress{user: user}

	var candidates []definition
	needCollection := false
	for _, d := range definitions {
		if relevant(ev, d) {
			candidates = append(candidates, d)
			needCollection = needCollection || d.collection
		}
	}

	if needCollection {
		if p.distinct, err = s.collection.CountDistinct(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("failed to count collection: %w", err)
		}
		if p.catalogSize, err = s.cards.GetCardCount(ctx); err != nil {
			return nil, fmt.Errorf("failed to count catalog: %w", err)
		}
	}

	var unlocked []Achievement
	for _, d := range candidates {
		if !d.met(p) {
			continue
		}
		fresh, err := s.store.Unlock(ctx, user.ID, d.Code, d.Reward)
		if err != nil {
			return unlocked, fmt.Errorf("failed to unlock %s: %w", d.Code, err)
		}
		if !fresh {
			continue
		}
		now := time.Now()
		a := d.achievement()
		a.Unlocked = true
		a.UnlockedAt = &now
		unlocked = append(unlocked, a)

		logger.LogGame("Achievement unlocked",
			slog.Int64("user_id", user.ID),
			slog.String("code", d.Code),
			slog.Int64("reward", d.Reward))
	}
	return unlocked, nil
}

// List returns every achievement with the user's unlock state.
func (s *AchievementService) List(ctx context.Context, userID int64) ([]Achievement, error) {
	rows, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]*models.UserAchievement, len(rows))
	for _, row := range rows {
		byCode[row.Code] = row
	}

	out := make([]Achievement, 0, len(definitions))
	for _, d := range definitions {
		a := d.achievement()
		if row, ok := byCode[d.Code]; ok {
			a.Unlocked = true
			at := row.UnlockedAt
			a.UnlockedAt = &at
		}
		out = append(out, a)
	}
	return out, nil
}
