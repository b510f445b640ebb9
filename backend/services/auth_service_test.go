package services

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/cardvault/cardvault/cardvault/database/repositories"
)

type memoryAccounts struct {
	byName map[string]*models.User
	nextID int64
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{byName: make(map[string]*models.User)}
}

func (m *memoryAccounts) Create(_ context.Context, user *models.User) error {
	if _, ok := m.byName[user.Username]; ok {
		return &repositories.ConflictError{Entity: "user", Field: "username", Value: user.Username}
	}
	m.nextID++
	user.ID = m.nextID
	m.byName[user.Username] = user
	return nil
}

func (m *memoryAccounts) GetByUsername(_ context.Context, username string) (*models.User, error) {
	if u, ok := m.byName[username]; ok {
		return u, nil
	}
	return nil, &repositories.NotFoundError{Entity: "user", ID: username}
}

func newTestAuthService(accounts UserAccounts) *AuthService {
	s := NewAuthService(accounts, 1000)
	s.cost = bcrypt.MinCost
	return s
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	s := newTestAuthService(newMemoryAccounts())

	user, err := s.Register(ctx, " alice ", "password123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("username not trimmed: %q", user.Username)
	}
	if user.Credits != 1000 {
		t.Errorf("starting credits: got=%d want=1000", user.Credits)
	}
	if user.Role != models.RoleUser || !user.CollectionPublic {
		t.Errorf("unexpected defaults: role=%s public=%v", user.Role, user.CollectionPublic)
	}
	if user.PasswordHash == "password123" {
		t.Error("password stored in plain text")
	}

	if _, err := s.Register(ctx, "alice", "another-password"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	s := newTestAuthService(newMemoryAccounts())
	if _, err := s.Register(ctx, "alice", "password123"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"correct", "alice", "password123", nil},
		{"wrong password", "alice", "password124", ErrInvalidCredentials},
		{"unknown user", "mallory", "password123", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := s.Login(ctx, tt.username, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got err=%v want=%v", err, tt.wantErr)
			}
			if tt.wantErr == nil && user.Username != tt.username {
				t.Fatalf("got user %q", user.Username)
			}
		})
	}
}
