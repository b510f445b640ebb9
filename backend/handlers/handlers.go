package handlers

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/cardvault/cardvault/backend/config"
	webmodels "github.com/cardvault/cardvault/backend/models"
	"github.com/cardvault/cardvault/backend/utils"
	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/cardvault/cardvault/cardvault/economy/booster"
	"github.com/cardvault/cardvault/cardvault/economy/merchant"
	"github.com/cardvault/cardvault/cardvault/economy/trade"
	"github.com/cardvault/cardvault/cardvault/services"
	"github.com/cardvault/cardvault/internal/domain/collection"
)

type SessionService interface {
	CreateSession(c *fiber.Ctx, user *models.User) (*webmodels.UserSession, string, error)
	GetSession(c *fiber.Ctx) (*webmodels.UserSession, error)
	DestroySession(c *fiber.Ctx)
}

type AuthService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.User, error)
}

type UserService interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	SetCollectionPublic(ctx context.Context, id int64, public bool) error
}

type CreditGranter interface {
	GrantCredits(ctx context.Context, userID, amount int64) error
}

type CatalogService interface {
	All(ctx context.Context) ([]*models.Card, error)
	Get(ctx context.Context, id int64) (*models.Card, error)
	Search(ctx context.Context, query string, rarity models.Rarity, limit int) ([]*models.Card, error)
}

type BoosterConfigs interface {
	ListConfigs(ctx context.Context, activeOnly bool) ([]*models.BoosterConfig, error)
	GetConfig(ctx context.Context, boosterType models.BoosterType) (*models.BoosterConfig, error)
	UpsertConfig(ctx context.Context, cfg *models.BoosterConfig) error
	ListPurchases(ctx context.Context, userID int64, limit int) ([]*models.BoosterPurchase, error)
}

type BoosterOpener interface {
	Open(ctx context.Context, userID int64, boosterType models.BoosterType) (*booster.Result, error)
}

type BoostService interface {
	Current(ctx context.Context, at time.Time) (*models.BoostSession, error)
	Create(ctx context.Context, session *models.BoostSession) error
	Update(ctx context.Context, session *models.BoostSession) error
	Get(ctx context.Context, id int64) (*models.BoostSession, error)
	List(ctx context.Context) ([]*models.BoostSession, error)
	Delete(ctx context.Context, id int64) error
}

type MerchantService interface {
	Quote(ctx context.Context, userID int64, req merchant.SellRequest) (*merchant.Quote, error)
	Sell(ctx context.Context, userID int64, req merchant.SellRequest) (*merchant.Quote, error)
	History(ctx context.Context, userID int64, limit int) ([]*models.MerchantSale, error)
}

type TradeService interface {
	Create(ctx context.Context, req trade.CreateRequest) (*models.TradeOffer, error)
	Accept(ctx context.Context, userID int64, tradeID string) (*models.TradeOffer, error)
	Reject(ctx context.Context, userID int64, tradeID string) (*models.TradeOffer, error)
	Cancel(ctx context.Context, userID int64, tradeID string) (*models.TradeOffer, error)
	Get(ctx context.Context, userID int64, tradeID string) (*models.TradeOffer, error)
	List(ctx context.Context, userID int64, status models.TradeStatus) ([]*models.TradeOffer, error)
	ExpireOverdue(ctx context.Context) (int64, error)
}

type AchievementService interface {
	List(ctx context.Context, userID int64) ([]services.Achievement, error)
}

type CardAdminService interface {
	CreateCard(ctx context.Context, req *webmodels.CardCreateRequest) (*models.Card, error)
	UpdateCard(ctx context.Context, cardID int64, req *webmodels.CardUpdateRequest) (*models.Card, error)
	SetCardImage(ctx context.Context, cardID int64, data []byte) (*models.Card, error)
	DeleteCard(ctx context.Context, cardID int64) error
}

type CatalogImporter interface {
	ImportCatalog(ctx context.Context, r io.Reader) (*webmodels.CatalogImportResult, error)
}

type StatsService interface {
	DashboardStats(ctx context.Context) (*webmodels.DashboardStats, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// WebApp represents the web application with all dependencies
type WebApp struct {
	Config          *config.WebAppConfig
	DB              Pinger
	SessionService  SessionService
	AuthService     AuthService
	Users           UserService
	Credits         CreditGranter
	Catalog         CatalogService
	Boosters        BoosterConfigs
	Opener          BoosterOpener
	Boosts          BoostService
	Collection      collection.Service
	Merchant        MerchantService
	Trades          TradeService
	Achievements    AchievementService
	CardMgmtService CardAdminService
	Importer        CatalogImporter
	Stats           StatsService
	Version         string
	Commit          string
}

// parseInt64 is a utility function to parse int64 from string
func parseInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// idParam parses a positive numeric route parameter, writing a 400 on failure.
func idParam(c *fiber.Ctx, name string) (int64, bool, error) {
	raw := c.Params(name)
	id, err := parseInt64(raw)
	if err != nil || id <= 0 {
		return 0, false, utils.SendBadRequest(c, "Invalid "+name, map[string]string{name: raw})
	}
	return id, true, nil
}

// currentUser returns the session placed in Locals by the auth middleware.
func currentUser(c *fiber.Ctx) *webmodels.UserSession {
	session, _ := utils.ExtractUserSession(c)
	return session
}

// GetSession gets the current user session
func (w *WebApp) GetSession(c *fiber.Ctx) (*webmodels.UserSession, error) {
	return w.SessionService.GetSession(c)
}

func HealthCheck(webApp *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := webmodels.NewHealthCheck(webApp.Version)
		if webApp.DB != nil {
			ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
			defer cancel()
			if err := webApp.DB.Ping(ctx); err != nil {
				health.AddComponent("database", "unhealthy", err.Error(), nil)
			} else {
				health.AddComponent("database", "healthy", "", nil)
			}
		}

		status := fiber.StatusOK
		if health.Status != "healthy" {
			status = fiber.StatusServiceUnavailable
		}
		response := webmodels.NewSuccessResponse(fiber.Map{
			"health": health,
			"commit": webApp.Commit,
		}, "Health check completed")
		response.Success = status == fiber.StatusOK
		return c.Status(status).JSON(response)
	}
}
