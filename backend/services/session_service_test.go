package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/cardvault/cardvault/backend/config"
	"github.com/cardvault/cardvault/cardvault"
	"github.com/cardvault/cardvault/cardvault/database/models"
)

func newTestSessionService(key string, ttl time.Duration, now time.Time) *SessionService {
	cfg := config.NewWebAppConfig(&cardvault.Config{
		Web: cardvault.WebConfig{SessionKey: key, SessionTTL: cardvault.Duration{Duration: ttl}},
	})
	s := NewSessionService(cfg)
	s.now = func() time.Time { return now }
	return s
}

func TestSessionService_RoundTrip(t *testing.T) {
	now := time.Now()
	s := newTestSessionService("secret", time.Hour, now)

	token, issued, err := s.IssueToken(&models.User{ID: 42, Username: "alice", Role: models.RoleAdmin})
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	session, err := s.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if session.UserID != 42 || session.Username != "alice" || !session.IsAdmin {
		t.Fatalf("unexpected session: %+v", session)
	}
	if !session.ExpiresAt.Equal(issued.ExpiresAt) {
		t.Fatalf("expiry mismatch: got=%v want=%v", session.ExpiresAt, issued.ExpiresAt)
	}
}

func TestSessionService_Rejects(t *testing.T) {
	now := time.Now()
	s := newTestSessionService("secret", time.Hour, now)
	user := &models.User{ID: 7, Username: "bob", Role: models.RoleUser}

	valid, _, err := s.IssueToken(user)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	expired, _, err := newTestSessionService("secret", time.Hour, now.Add(-2*time.Hour)).IssueToken(user)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	otherKey, _, err := newTestSessionService("other", time.Hour, now).IssueToken(user)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 7}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong key", otherKey},
		{"tampered payload", tampered},
		{"alg none", unsigned},
		{"garbage", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.ParseToken(tt.token); !errors.Is(err, ErrInvalidSession) {
				t.Fatalf("expected ErrInvalidSession, got %v", err)
			}
		})
	}
}

func TestSessionService_MissingKey(t *testing.T) {
	s := newTestSessionService("", time.Hour, time.Now())
	if _, _, err := s.IssueToken(&models.User{ID: 1}); err == nil {
		t.Fatal("expected an error without a session key")
	}
}
