package collection

import (
	"context"

	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/cardvault/cardvault/cardvault/database/repositories"
)

//go:generate mockgen -source=repository.go -destination=mock/repository.go -package=mock

// Repository is the slice of the collected card repository this domain reads through.
type Repository interface {
	ListByUser(ctx context.Context, userID int64, filter repositories.CollectionFilter) ([]*models.CollectedCard, error)
	MarkSeen(ctx context.Context, userID int64, keys []models.CardKey) (int64, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}
