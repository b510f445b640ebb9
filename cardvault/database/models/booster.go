package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

type BoosterType string

const (
	BoosterStandard  BoosterType = "STANDARD"
	BoosterRare      BoosterType = "RARE"
	BoosterEpic      BoosterType = "EPIC"
	BoosterMaxi      BoosterType = "MAXI"
	BoosterLegendary BoosterType = "LEGENDARY"
)

// BoosterTypes lists every purchasable booster in display order.
var BoosterTypes = []BoosterType{BoosterStandard, BoosterRare, BoosterEpic, BoosterMaxi, BoosterLegendary}

func ParseBoosterType(s string) (BoosterType, error) {
	t := BoosterType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range BoosterTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown booster type %q", s)
}

type BoosterConfig struct {
	bun.BaseModel `bun:"table:booster_configs,alias:bc"`

	Type      BoosterType `bun:"type,pk" json:"type"`
	Name      string      `bun:"name,notnull" json:"name"`
	Cost      int64       `bun:"cost,notnull" json:"cost"`
	CardCount int         `bun:"card_count,notnull" json:"card_count"`
	Active    bool        `bun:"active,notnull,default:true" json:"active"`
	UpdatedAt time.Time   `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// BoostSession doubles non-common drop weights while it is active and inside its window.
type BoostSession struct {
	bun.BaseModel `bun:"table:boost_sessions,alias:bs"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Active    bool      `bun:"active,notnull,default:false" json:"active"`
	StartDate time.Time `bun:"start_date,notnull" json:"start_date"`
	EndDate   time.Time `bun:"end_date,notnull" json:"end_date"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// IsActiveAt reports whether the session boosts rates at t. Both bounds are inclusive.
func (s *BoostSession) IsActiveAt(t time.Time) bool {
	return s.Active && !t.Before(s.StartDate) && !t.After(s.EndDate)
}

// BoosterPurchase is the audit row written for every opened booster.
type BoosterPurchase struct {
	bun.BaseModel `bun:"table:booster_purchases,alias:bp"`

	ID          int64          `bun:"id,pk,autoincrement" json:"-"`
	PurchaseID  string         `bun:"purchase_id,notnull,unique" json:"purchase_id"`
	UserID      int64          `bun:"user_id,notnull" json:"user_id"`
	BoosterType BoosterType    `bun:"booster_type,notnull" json:"booster_type"`
	Cost        int64          `bun:"cost,notnull" json:"cost"`
	Boosted     bool           `bun:"boosted,notnull,default:false" json:"boosted"`
	Cards       []PurchaseCard `bun:"cards,type:jsonb,notnull" json:"cards"`
	CreatedAt   time.Time      `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

type PurchaseCard struct {
	CardID  int64  `json:"card_id"`
	Rarity  Rarity `json:"rarity"`
	IsShiny bool   `json:"is_shiny"`
}
