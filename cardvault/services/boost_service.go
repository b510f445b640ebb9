package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cardvault/cardvault/cardvault/database/models"
)

var ErrInvalidBoost = errors.New("invalid boost session")

type BoostStore interface {
	Create(ctx context.Context, session *models.BoostSession) error
	GetByID(ctx context.Context, id int64) (*models.BoostSession, error)
	List(ctx context.Context) ([]*models.BoostSession, error)
	Update(ctx context.Context, session *models.BoostSession) error
	Delete(ctx context.Context, id int64) error
	ActiveAt(ctx context.Context, t time.Time) ([]*models.BoostSession, error)
}

type BoostService struct {
	store BoostStore
}

func NewBoostService(store BoostStore) *BoostService {
	return &BoostService{store: store}
}

// IsBoostActive reports whether any session boosts rates at t.
func (s *BoostService) IsBoostActive(ctx context.Context, at time.Time) (bool, error) {
	current, err := s.Current(ctx, at)
	if err != nil {
		return false, err
	}
	return current != nil, nil
}

// Current returns the active session ending soonest, or nil.
func (s *BoostService) Current(ctx context.Context, at time.Time) (*models.BoostSession, error) {
	sessions, err := s.store.ActiveAt(ctx, at)
	if err != nil {
		return nil, fmt.Errorf("failed to load boost sessions: %w", err)
	}
	for _, session := range sessions {
		if session.IsActiveAt(at) {
			return session, nil
		}
	}
	return nil, nil
}

func validateBoost(session *models.BoostSession) error {
	session.Name = strings.TrimSpace(session.Name)
	if session.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidBoost)
	}
	if session.StartDate.IsZero() || session.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidBoost)
	}
	if session.EndDate.Before(session.StartDate) {
		return fmt.Errorf("%w: end date is before start date", ErrInvalidBoost)
	}
	return nil
}

func (s *BoostService) Create(ctx context.Context, session *models.BoostSession) error {
	if err := validateBoost(session); err != nil {
		return err
	}
	return s.store.Create(ctx, session)
}

func (s *BoostService) Update(ctx context.Context, session *models.BoostSession) error {
	if err := validateBoost(session); err != nil {
		return err
	}
	return s.store.Update(ctx, session)
}

func (s *BoostService) Get(ctx context.Context, id int64) (*models.BoostSession, error) {
	return s.store.GetByID(ctx, id)
}

func (s *BoostService) List(ctx context.Context) ([]*models.BoostSession, error) {
	return s.store.List(ctx)
}

func (s *BoostService) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}
