package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"

	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/cardvault/cardvault/cardvault/database/repositories"
)

var ErrInvalidAmount = fmt.Errorf("credit amount must be positive")

// UserStore is the user repository surface for profile and admin operations.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	SetCollectionPublic(ctx context.Context, id int64, public bool) error
	AddCredits(ctx context.Context, db bun.IDB, id int64, amount int64) error
}

// UserService covers profile reads, settings and admin credit grants
type UserService struct {
	users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) SetCollectionPublic(ctx context.Context, id int64, public bool) error {
	return s.users.SetCollectionPublic(ctx, id, public)
}

// GrantCredits adds credits to a user outside of any game flow.
func (s *UserService) GrantCredits(ctx context.Context, userID, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if err := s.users.AddCredits(ctx, nil, userID, amount); err != nil {
		if repositories.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("failed to grant credits: %w", err)
	}

	slog.Info("Credits granted",
		slog.String("type", "game"),
		slog.Int64("user_id", userID),
		slog.Int64("amount", amount))
	return nil
}
