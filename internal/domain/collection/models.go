package collection

import (
	"time"

	"github.com/cardvault/cardvault/cardvault/database/models"
)

// Card is one holding as shown to a viewer.
type Card struct {
	CardID      int64         `json:"card_id"`
	Name        string        `json:"name"`
	Rarity      models.Rarity `json:"rarity"`
	Description string        `json:"description,omitempty"`
	ImageURL    string        `json:"image_url,omitempty"`
	Power       int           `json:"power"`
	IsShiny     bool          `json:"is_shiny"`
	Quantity    int64         `json:"quantity"`
	IsNew       bool          `json:"is_new"`
	Obtained    time.Time     `json:"obtained"`
}

type Filters struct {
	Rarity   models.Rarity
	Shiny    *bool
	NewOnly  bool
	Name     string
	Page     int
	PageSize int
}

type Page struct {
	Cards    []Card `json:"cards"`
	Page     int    `json:"page"`
	Pages    int    `json:"pages"`
	PageSize int    `json:"page_size"`
	Total    int    `json:"total"`
}

// Summary counts a whole collection regardless of filters.
type Summary struct {
	Copies   int64 `json:"copies"`
	Distinct int64 `json:"distinct"`
	Shiny    int64 `json:"shiny"`
	New      int64 `json:"new"`
}
