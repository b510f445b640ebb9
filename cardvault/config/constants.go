package config

import "time"

// Application-wide constants organized by domain

// UI and Display Constants
const (
	// Pagination
	CardsPerPage    = 24
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Database and Performance Constants
const (
	// Timeouts
	DefaultQueryTimeout = 30 * time.Second
	BatchQueryTimeout   = 30 * time.Second
	StatsQueryTimeout   = 10 * time.Second
	UploadTimeout       = 2 * time.Minute
	JobTimeout          = 30 * time.Second

	// Cache settings
	CardCacheSize = 10000
)

// Game Constants
const (
	// TradeExpiry is the fixed lifetime of a trade offer.
	TradeExpiry = 24 * time.Hour

	// MaxTradeLines caps the number of distinct cards on each side of an offer.
	MaxTradeLines = 20

	// MaxTradeMessageLength is applied after sanitising.
	MaxTradeMessageLength = 500

	// MaxSellQuantity bounds one merchant sale so prices stay well inside int64.
	MaxSellQuantity = 1_000_000

	// MaxImageSize for admin card uploads.
	MaxImageSize = 10 * 1024 * 1024
)
