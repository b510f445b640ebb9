package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cardvault/cardvault/backend/config"
	"github.com/cardvault/cardvault/backend/handlers"
	webmodels "github.com/cardvault/cardvault/backend/models"
	webservices "github.com/cardvault/cardvault/backend/services"
	"github.com/cardvault/cardvault/cardvault"
	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/cardvault/cardvault/cardvault/economy/booster"
	"github.com/cardvault/cardvault/cardvault/economy/trade"
	"github.com/cardvault/cardvault/internal/domain/collection"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeUsers struct {
	handlers.UserService
	users map[int64]*models.User
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, collection.ErrUserNotFound
}

type fakeAuth struct {
	handlers.AuthService
	registered []string
}

func (f *fakeAuth) Register(_ context.Context, username, _ string) (*models.User, error) {
	if username == "taken" {
		return nil, webservices.ErrUsernameTaken
	}
	f.registered = append(f.registered, username)
	return &models.User{ID: int64(len(f.registered)), Username: username, Role: models.RoleUser}, nil
}

type fakeOpener struct {
	err error
}

func (f fakeOpener) Open(_ context.Context, _ int64, t models.BoosterType) (*booster.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &booster.Result{PurchaseID: "p-1", BoosterType: t, Cost: 100}, nil
}

type fakeTrades struct {
	handlers.TradeService
	offer *models.TradeOffer
	err   error
}

func (f fakeTrades) Accept(context.Context, int64, string) (*models.TradeOffer, error) {
	return f.offer, f.err
}

type fakeCollection struct {
	collection.Service
	err error
}

func (f fakeCollection) GetUserCards(_ context.Context, _, _ int64, filters collection.Filters) (*collection.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &collection.Page{Page: filters.Page, PageSize: 20, Pages: 1}, nil
}

func (f fakeCollection) Summary(context.Context, int64, int64) (*collection.Summary, error) {
	return &collection.Summary{}, nil
}

type fakeStats struct{}

func (fakeStats) DashboardStats(context.Context) (*webmodels.DashboardStats, error) {
	return &webmodels.DashboardStats{TotalCards: 3, GeneratedAt: time.Now()}, nil
}

type testServer struct {
	app      *fiber.App
	webApp   *handlers.WebApp
	sessions *webservices.SessionService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &cardvault.Config{
		Web: cardvault.WebConfig{
			SessionKey:   "test-session-key",
			SessionTTL:   cardvault.Duration{Duration: time.Hour},
			AllowOrigins: "http://localhost:3000",
		},
	}
	webConfig := config.NewWebAppConfig(cfg)
	sessions := webservices.NewSessionService(webConfig)

	webApp := &handlers.WebApp{
		Config:         webConfig,
		DB:             fakePinger{},
		SessionService: sessions,
		AuthService:    &fakeAuth{},
		Users: &fakeUsers{users: map[int64]*models.User{
			1: {ID: 1, Username: "alice", Credits: 500, Role: models.RoleUser},
		}},
		Opener:     fakeOpener{},
		Trades:     fakeTrades{},
		Collection: fakeCollection{},
		Stats:      fakeStats{},
		Version:    "test",
	}
	return &testServer{app: NewApp(webApp), webApp: webApp, sessions: sessions}
}

func (s *testServer) token(t *testing.T, id int64, role models.Role) string {
	t.Helper()
	token, _, err := s.sessions.IssueToken(&models.User{ID: id, Username: fmt.Sprintf("user%d", id), Role: role})
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	return token
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (int, webmodels.APIResponse) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded webmodels.APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode %s %s: %v", method, path, err)
	}
	return resp.StatusCode, decoded
}

func errorCode(resp webmodels.APIResponse) string {
	if resp.Error == nil {
		return ""
	}
	return resp.Error.Code
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	status, resp := s.do(t, http.MethodGet, "/health", "", "")
	if status != http.StatusOK || !resp.Success {
		t.Fatalf("healthy: got status=%d success=%v", status, resp.Success)
	}

	s.webApp.DB = fakePinger{err: errors.New("connection refused")}
	status, resp = s.do(t, http.MethodGet, "/health", "", "")
	if status != http.StatusServiceUnavailable || resp.Success {
		t.Fatalf("unhealthy: got status=%d success=%v", status, resp.Success)
	}
}

func TestAPIRequiresSession(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"garbage token", "not-a-jwt", http.StatusUnauthorized},
		{"valid token", s.token(t, 1, models.RoleUser), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := s.do(t, http.MethodGet, "/api/me", tt.token, "")
			if status != tt.want {
				t.Fatalf("status: got=%d want=%d (%+v)", status, tt.want, resp.Error)
			}
			if tt.want == http.StatusUnauthorized && errorCode(resp) != "UNAUTHORIZED" {
				t.Fatalf("code: got=%q", errorCode(resp))
			}
		})
	}
}

func TestSessionCookieAccepted(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/validate", nil)
	req.AddCookie(&http.Cookie{Name: webservices.SessionCookieName, Value: s.token(t, 1, models.RoleUser)})
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got=%d want=%d", resp.StatusCode, http.StatusOK)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	s := newTestServer(t)

	status, resp := s.do(t, http.MethodGet, "/admin/stats", s.token(t, 1, models.RoleUser), "")
	if status != http.StatusForbidden || errorCode(resp) != "FORBIDDEN" {
		t.Fatalf("player: got status=%d code=%q", status, errorCode(resp))
	}

	status, _ = s.do(t, http.MethodGet, "/admin/stats", s.token(t, 2, models.RoleAdmin), "")
	if status != http.StatusOK {
		t.Fatalf("admin: got status=%d", status)
	}
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
		code string
	}{
		{"short username", `{"username":"ab","password":"password123"}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"short password", `{"username":"alice","password":"short"}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"taken username", `{"username":"taken","password":"password123"}`, http.StatusConflict, "USERNAME_TAKEN"},
		{"created", `{"username":"bob_01","password":"password123"}`, http.StatusCreated, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Each case gets its own server so the auth rate limit never interferes.
			s := newTestServer(t)
			status, resp := s.do(t, http.MethodPost, "/auth/register", "", tt.body)
			if status != tt.want {
				t.Fatalf("status: got=%d want=%d (%+v)", status, tt.want, resp.Error)
			}
			if errorCode(resp) != tt.code {
				t.Fatalf("code: got=%q want=%q", errorCode(resp), tt.code)
			}
		})
	}
}

func TestAuthRateLimit(t *testing.T) {
	s := newTestServer(t)

	body := `{"username":"ab","password":"x"}`
	for i := 0; i < 5; i++ {
		if status, _ := s.do(t, http.MethodPost, "/auth/register", "", body); status == http.StatusTooManyRequests {
			t.Fatalf("request %d limited too early", i+1)
		}
	}
	status, resp := s.do(t, http.MethodPost, "/auth/register", "", body)
	if status != http.StatusTooManyRequests || errorCode(resp) != "RATE_LIMIT_EXCEEDED" {
		t.Fatalf("sixth request: got status=%d code=%q", status, errorCode(resp))
	}
}

func TestOpenBooster(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		openErr error
		want    int
		code    string
	}{
		{"opened", "/api/boosters/standard/open", nil, http.StatusCreated, ""},
		{"unknown type", "/api/boosters/mega/open", nil, http.StatusNotFound, "UNKNOWN_BOOSTER"},
		{"insufficient credits", "/api/boosters/rare/open",
			fmt.Errorf("%w: has 10, needs 300", booster.ErrInsufficientCredits), http.StatusBadRequest, "INSUFFICIENT_CREDITS"},
		{"unexpected failure", "/api/boosters/rare/open",
			errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.webApp.Opener = fakeOpener{err: tt.openErr}

			status, resp := s.do(t, http.MethodPost, tt.path, s.token(t, 1, models.RoleUser), "")
			if status != tt.want {
				t.Fatalf("status: got=%d want=%d (%+v)", status, tt.want, resp.Error)
			}
			if errorCode(resp) != tt.code {
				t.Fatalf("code: got=%q want=%q", errorCode(resp), tt.code)
			}
		})
	}
}

func TestTradeAcceptErrors(t *testing.T) {
	expired := &models.TradeOffer{TradeID: "t-1", Status: models.TradeExpired}

	tests := []struct {
		name     string
		offer    *models.TradeOffer
		err      error
		want     int
		code     string
		withData bool
	}{
		{"accepted", &models.TradeOffer{TradeID: "t-1", Status: models.TradeAccepted}, nil, http.StatusOK, "", true},
		{"not participant", nil, trade.ErrNotParticipant, http.StatusForbidden, "FORBIDDEN", false},
		{"not pending", nil, trade.ErrNotPending, http.StatusConflict, "NOT_PENDING", false},
		{"expired carries offer", expired, trade.ErrTradeExpired, http.StatusConflict, "TRADE_EXPIRED", true},
		{"cards gone carries offer", expired, fmt.Errorf("%w: initiator", trade.ErrNoLongerAvailable), http.StatusConflict, "NO_LONGER_AVAILABLE", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.webApp.Trades = fakeTrades{offer: tt.offer, err: tt.err}

			status, resp := s.do(t, http.MethodPost, "/api/trades/t-1/accept", s.token(t, 2, models.RoleUser), "")
			if status != tt.want {
				t.Fatalf("status: got=%d want=%d (%+v)", status, tt.want, resp.Error)
			}
			if errorCode(resp) != tt.code {
				t.Fatalf("code: got=%q want=%q", errorCode(resp), tt.code)
			}
			if (resp.Data != nil) != tt.withData {
				t.Fatalf("data present: got=%v want=%v", resp.Data != nil, tt.withData)
			}
		})
	}
}

func TestUserCollectionPrivacy(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, 2, models.RoleUser)

	status, _ := s.do(t, http.MethodGet, "/api/users/1/collection", token, "")
	if status != http.StatusOK {
		t.Fatalf("public: got status=%d", status)
	}

	s.webApp.Collection = fakeCollection{err: collection.ErrPrivate}
	status, resp := s.do(t, http.MethodGet, "/api/users/1/collection", token, "")
	if status != http.StatusForbidden || errorCode(resp) != "PRIVATE_COLLECTION" {
		t.Fatalf("private: got status=%d code=%q", status, errorCode(resp))
	}

	status, _ = s.do(t, http.MethodGet, "/api/users/abc/collection", token, "")
	if status != http.StatusBadRequest {
		t.Fatalf("bad id: got status=%d", status)
	}

	status, _ = s.do(t, http.MethodGet, "/api/collection?rarity=mythic", token, "")
	if status != http.StatusBadRequest {
		t.Fatalf("bad rarity: got status=%d", status)
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	status, resp := s.do(t, http.MethodGet, "/nope", "", "")
	if status != http.StatusNotFound || errorCode(resp) != "NOT_FOUND" {
		t.Fatalf("got status=%d code=%q", status, errorCode(resp))
	}
}

func TestMerchantQuoteRejectsHugeQuantity(t *testing.T) {
	s := newTestServer(t)

	status, resp := s.do(t, http.MethodGet, "/api/merchant/quote?card_id=1&quantity=288230376151711744", s.token(t, 1, models.RoleUser), "")
	if status != http.StatusBadRequest || errorCode(resp) != "BAD_REQUEST" {
		t.Fatalf("got status=%d code=%q", status, errorCode(resp))
	}
	if _, ok := resp.Error.Details["card"]; !ok {
		t.Fatalf("details missing card: %+v", resp.Error)
	}
}
