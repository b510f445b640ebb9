package models

import (
	"time"

	"github.com/uptrace/bun"
)

type MerchantSale struct {
	bun.BaseModel `bun:"table:merchant_sales,alias:ms"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID    int64     `bun:"user_id,notnull" json:"user_id"`
	CardID    int64     `bun:"card_id,notnull" json:"card_id"`
	IsShiny   bool      `bun:"is_shiny,notnull,default:false" json:"is_shiny"`
	Quantity  int64     `bun:"quantity,notnull" json:"quantity"`
	Credits   int64     `bun:"credits,notnull" json:"credits"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
