package models

import (
	"time"

	"github.com/uptrace/bun"
)

// CollectedCard is one (user, card, shininess) holding. A row never stores quantity 0;
// it is deleted instead.
type CollectedCard struct {
	bun.BaseModel `bun:"table:collected_cards,alias:cc"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID    int64     `bun:"user_id,notnull,unique:collected_cards_owner_card" json:"user_id"`
	CardID    int64     `bun:"card_id,notnull,unique:collected_cards_owner_card" json:"card_id"`
	IsShiny   bool      `bun:"is_shiny,notnull,default:false,unique:collected_cards_owner_card" json:"is_shiny"`
	Quantity  int64     `bun:"quantity,notnull,default:0" json:"quantity"`
	IsNew     bool      `bun:"is_new,notnull,default:true" json:"is_new"`
	Obtained  time.Time `bun:"obtained,notnull,default:current_timestamp" json:"obtained"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`

	Card *Card `bun:"rel:belongs-to,join:card_id=id" json:"card,omitempty"`
}

// CardKey identifies a holding independent of its owner.
type CardKey struct {
	CardID  int64 `json:"card_id"`
	IsShiny bool  `json:"is_shiny"`
}

func (c *CollectedCard) Key() CardKey {
	return CardKey{CardID: c.CardID, IsShiny: c.IsShiny}
}
