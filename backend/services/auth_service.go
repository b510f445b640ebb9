package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/cardvault/cardvault/cardvault/database/repositories"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// UserAccounts is the part of the user repository the auth service needs.
type UserAccounts interface {
	Create(ctx context.Context, user *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// AuthService registers and authenticates users with bcrypt password hashes
type AuthService struct {
	users           UserAccounts
	startingCredits int64
	cost            int
}

// NewAuthService creates a new auth service
func NewAuthService(users UserAccounts, startingCredits int64) *AuthService {
	return &AuthService{
		users:           users,
		startingCredits: startingCredits,
		cost:            bcrypt.DefaultCost,
	}
}

// Register creates an account funded with the starting credits.
func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:         strings.TrimSpace(username),
		PasswordHash:     string(hash),
		Credits:          s.startingCredits,
		Role:             models.RoleUser,
		CollectionPublic: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if repositories.IsConflict(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("User registered",
		slog.String("type", "game"),
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
		slog.Int64("credits", user.Credits))
	return user, nil
}

// Login verifies a password. Unknown users and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
