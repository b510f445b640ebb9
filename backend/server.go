package backend

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/cardvault/cardvault/backend/handlers"
	"github.com/cardvault/cardvault/backend/middleware"
	"github.com/cardvault/cardvault/backend/utils"
	"github.com/cardvault/cardvault/cardvault/config"
)

// NewApp builds the Fiber application with global middleware and every route.
func NewApp(webApp *handlers.WebApp) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "CardVault API",
		ServerHeader: "CardVault",
		ErrorHandler: middleware.CustomErrorHandler,
		BodyLimit:    config.MaxImageSize + 1024*1024,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(middleware.SecurityHeaders())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     webApp.Config.GetWebConfig().AllowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Requested-With,Cookie",
		AllowCredentials: true,
	}))
	app.Use(middleware.LoggingMiddleware())

	SetupRoutes(app, webApp)
	return app
}

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, webApp *handlers.WebApp) {
	app.Get("/health", handlers.HealthCheck(webApp))

	// Authentication routes
	auth := app.Group("/auth", middleware.AuthRateLimit())
	auth.Post("/register", handlers.Register(webApp))
	auth.Post("/login", handlers.Login(webApp))
	auth.Post("/logout", handlers.Logout(webApp))

	// Player API
	api := app.Group("/api", middleware.AuthRequired(webApp), middleware.APIRateLimit())
	// One budget shared by every action that spends credits or moves cards.
	gameLimit := middleware.GameActionRateLimit()

	api.Get("/auth/validate", handlers.ValidateSession(webApp))
	api.Get("/me", handlers.Me(webApp))
	api.Patch("/settings", handlers.UpdateSettings(webApp))
	api.Get("/achievements", handlers.Achievements(webApp))

	api.Get("/cards", handlers.CardsAPI(webApp))
	api.Get("/cards/:id", handlers.CardsDetail(webApp))

	api.Get("/boost", handlers.BoostStatus(webApp))
	api.Get("/boosters", handlers.BoostersAPI(webApp))
	api.Get("/boosters/history", handlers.BoosterHistory(webApp))
	api.Post("/boosters/:type/open", gameLimit, handlers.OpenBooster(webApp))

	api.Get("/collection", handlers.MyCollection(webApp))
	api.Post("/collection/seen", handlers.MarkSeen(webApp))
	api.Get("/users/:id/collection", handlers.UserCollection(webApp))

	merchant := api.Group("/merchant")
	merchant.Get("/quote", handlers.MerchantQuote(webApp))
	merchant.Get("/history", handlers.MerchantHistory(webApp))
	merchant.Post("/sell", gameLimit, handlers.MerchantSell(webApp))

	trades := api.Group("/trades")
	trades.Get("/", handlers.TradesList(webApp))
	trades.Post("/", gameLimit, handlers.TradesCreate(webApp))
	trades.Get("/:id", handlers.TradesDetail(webApp))
	trades.Post("/:id/accept", gameLimit, handlers.TradesAccept(webApp))
	trades.Post("/:id/reject", handlers.TradesReject(webApp))
	trades.Post("/:id/cancel", handlers.TradesCancel(webApp))

	// Protected admin routes
	admin := app.Group("/admin", middleware.AuthRequired(webApp), middleware.AdminRequired())

	cards := admin.Group("/cards")
	cards.Post("/", middleware.AuditLogMiddleware("card_create"), handlers.CardsCreate(webApp))
	cards.Post("/import", middleware.AuditLogMiddleware("catalog_import"), handlers.CardsImport(webApp))
	cards.Put("/:id", middleware.AuditLogMiddleware("card_update"), handlers.CardsUpdate(webApp))
	cards.Delete("/:id", middleware.AuditLogMiddleware("card_delete"), handlers.CardsDelete(webApp))
	cards.Post("/:id/image", middleware.UploadRateLimit(), middleware.AuditLogMiddleware("card_image"), handlers.CardsImage(webApp))

	boosts := admin.Group("/boosts")
	boosts.Get("/", handlers.BoostsList(webApp))
	boosts.Post("/", middleware.AuditLogMiddleware("boost_create"), handlers.BoostsCreate(webApp))
	boosts.Put("/:id", middleware.AuditLogMiddleware("boost_update"), handlers.BoostsUpdate(webApp))
	boosts.Delete("/:id", middleware.AuditLogMiddleware("boost_delete"), handlers.BoostsDelete(webApp))

	admin.Put("/boosters/:type", middleware.AuditLogMiddleware("booster_update"), handlers.BoostersUpdate(webApp))
	admin.Post("/users/:id/credits", middleware.AuditLogMiddleware("credit_grant"), handlers.UsersGrantCredits(webApp))
	admin.Post("/trades/expire", middleware.AuditLogMiddleware("trade_expire"), handlers.TradesExpire(webApp))
	admin.Get("/stats", handlers.DashboardStatsAPI(webApp))

	// No route matched
	app.Use(func(c *fiber.Ctx) error {
		slog.Warn("No route matched for request",
			slog.String("type", "http"),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
		)
		return utils.SendNotFound(c, "The requested endpoint does not exist")
	})
}
