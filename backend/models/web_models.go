package models

import (
	"time"

	"github.com/cardvault/cardvault/cardvault/database/models"
)

// UserSession is the identity carried by the session token.
type UserSession struct {
	UserID    int64       `json:"user_id"`
	Username  string      `json:"username"`
	Role      models.Role `json:"role"`
	ExpiresAt time.Time   `json:"expires_at"`
	IsAdmin   bool        `json:"is_admin"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SettingsRequest struct {
	CollectionPublic *bool `json:"collection_public"`
}

type MarkSeenRequest struct {
	Cards []models.CardKey `json:"cards"`
}

type TradeLine struct {
	CardID   int64 `json:"card_id"`
	IsShiny  bool  `json:"is_shiny"`
	Quantity int64 `json:"quantity"`
}

type TradeCreateRequest struct {
	RecipientID int64       `json:"recipient_id"`
	Offered     []TradeLine `json:"offered"`
	Requested   []TradeLine `json:"requested"`
	Message     string      `json:"message"`
}

type SellRequest struct {
	CardID   int64 `json:"card_id" query:"card_id"`
	IsShiny  bool  `json:"is_shiny" query:"is_shiny"`
	Quantity int64 `json:"quantity" query:"quantity"`
	KeepOne  bool  `json:"keep_one" query:"keep_one"`
}

// CardCreateRequest represents a card creation request
type CardCreateRequest struct {
	Name        string        `json:"name"`
	Rarity      models.Rarity `json:"rarity"`
	Description string        `json:"description"`
	Quote       string        `json:"quote"`
	Power       int           `json:"power"`
}

// CardUpdateRequest represents a card update request; nil fields are left unchanged.
type CardUpdateRequest struct {
	Name        *string        `json:"name,omitempty"`
	Rarity      *models.Rarity `json:"rarity,omitempty"`
	Description *string        `json:"description,omitempty"`
	Quote       *string        `json:"quote,omitempty"`
	Power       *int           `json:"power,omitempty"`
}

type BoostRequest struct {
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type BoosterConfigRequest struct {
	Name      string `json:"name"`
	Cost      int64  `json:"cost"`
	CardCount int    `json:"card_count"`
	Active    bool   `json:"active"`
}

type CreditGrantRequest struct {
	Amount int64 `json:"amount"`
}

// ValidationError describes one rejected field.
type ValidationError struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

// CatalogImportResult summarises a catalog file import.
type CatalogImportResult struct {
	Parsed   int      `json:"parsed"`
	Created  int      `json:"created"`
	Skipped  int      `json:"skipped"`
	Rejected []string `json:"rejected,omitempty"`
}

// DashboardStats is the admin overview.
type DashboardStats struct {
	TotalCards     int64                        `json:"total_cards"`
	TotalUsers     int64                        `json:"total_users"`
	CardsInPlay    int64                        `json:"cards_in_play"`
	CreditsInPlay  int64                        `json:"credits_in_play"`
	BoostersOpened int64                        `json:"boosters_opened"`
	MerchantPaid   int64                        `json:"merchant_paid"`
	TradesByStatus map[models.TradeStatus]int64 `json:"trades_by_status"`
	BoostActive    bool                         `json:"boost_active"`
	GeneratedAt    time.Time                    `json:"generated_at"`
}
