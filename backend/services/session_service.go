package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/cardvault/cardvault/backend/config"
	"github.com/cardvault/cardvault/backend/models"
	dbmodels "github.com/cardvault/cardvault/cardvault/database/models"
)

const SessionCookieName = "cardvault_session"

var (
	ErrNoSession      = errors.New("no session token found")
	ErrInvalidSession = errors.New("invalid session token")
)

// Claims is the payload of a session token. The token is the only record of a session;
// nothing is kept server side.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64         `json:"uid"`
	Username string        `json:"name"`
	Role     dbmodels.Role `json:"role"`
}

// SessionService issues and verifies signed session tokens
type SessionService struct {
	config *config.WebAppConfig
	now    func() time.Time
}

// NewSessionService creates a new session service
func NewSessionService(cfg *config.WebAppConfig) *SessionService {
	return &SessionService{
		config: cfg,
		now:    time.Now,
	}
}

func (s *SessionService) key() ([]byte, error) {
	if s.config.SessionKey() == "" {
		return nil, fmt.Errorf("session key not configured")
	}
	return []byte(s.config.SessionKey()), nil
}

// IssueToken signs a token for user valid for the configured session TTL.
func (s *SessionService) IssueToken(user *dbmodels.User) (string, *models.UserSession, error) {
	key, err := s.key()
	if err != nil {
		return "", nil, err
	}

	now := s.now()
	expiresAt := now.Add(s.config.SessionTTL())
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, sessionFromClaims(&claims), nil
}

// ParseToken verifies a token and returns the session it carries.
func (s *SessionService) ParseToken(token string) (*models.UserSession, error) {
	key, err := s.key()
	if err != nil {
		return nil, err
	}

	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.UserID <= 0 {
		return nil, ErrInvalidSession
	}
	return sessionFromClaims(&claims), nil
}

func sessionFromClaims(claims *Claims) *models.UserSession {
	session := &models.UserSession{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
		IsAdmin:  claims.Role == dbmodels.RoleAdmin,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session
}

// CreateSession issues a token for user and sets the session cookie
func (s *SessionService) CreateSession(c *fiber.Ctx, user *dbmodels.User) (*models.UserSession, string, error) {
	token, session, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}

	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		Secure:   s.config.SecureCookies(),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	slog.Info("Session created for user",
		slog.String("type", "http"),
		slog.Int64("user_id", session.UserID),
		slog.String("username", session.Username),
		slog.Bool("is_admin", session.IsAdmin))

	return session, token, nil
}

// GetSession reads the token from the Authorization header or the session cookie
func (s *SessionService) GetSession(c *fiber.Ctx) (*models.UserSession, error) {
	token := ""
	if auth := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		token = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if token == "" {
		token = c.Cookies(SessionCookieName)
	}
	if token == "" {
		return nil, ErrNoSession
	}
	return s.ParseToken(token)
}

// DestroySession removes the session cookie
func (s *SessionService) DestroySession(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   s.config.SecureCookies(),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	slog.Info("Session destroyed for request",
		slog.String("type", "http"),
		slog.String("ip", c.IP()),
		slog.String("user_agent", c.Get("User-Agent")))
}
