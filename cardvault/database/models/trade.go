package models

import (
	"time"

	"github.com/uptrace/bun"
)

type TradeStatus string

const (
	TradePending   TradeStatus = "PENDING"
	TradeAccepted  TradeStatus = "ACCEPTED"
	TradeRejected  TradeStatus = "REJECTED"
	TradeExpired   TradeStatus = "EXPIRED"
	TradeCancelled TradeStatus = "CANCELLED"
)

// Terminal reports whether no further transition is allowed.
func (s TradeStatus) Terminal() bool {
	return s != TradePending
}

func (s TradeStatus) Valid() bool {
	switch s {
	case TradePending, TradeAccepted, TradeRejected, TradeExpired, TradeCancelled:
		return true
	}
	return false
}

type TradeSide string

const (
	SideOffered   TradeSide = "OFFERED"
	SideRequested TradeSide = "REQUESTED"
)

type TradeOffer struct {
	bun.BaseModel `bun:"table:trade_offers,alias:t"`

	ID          int64       `bun:"id,pk,autoincrement" json:"-"`
	TradeID     string      `bun:"trade_id,notnull,unique" json:"id"`
	InitiatorID int64       `bun:"initiator_id,notnull" json:"initiator_id"`
	RecipientID int64       `bun:"recipient_id,notnull" json:"recipient_id"`
	Status      TradeStatus `bun:"status,notnull" json:"status"`
	Message     string      `bun:"message,nullzero" json:"message,omitempty"`
	ExpiresAt   time.Time   `bun:"expires_at,notnull" json:"expires_at"`
	CreatedAt   time.Time   `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time   `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`

	Cards []*TradeCard `bun:"rel:has-many,join:id=offer_id" json:"cards,omitempty"`
}

// TradeCard is one (card, shininess, quantity) line of an offer.
type TradeCard struct {
	bun.BaseModel `bun:"table:trade_cards,alias:tc"`

	ID       int64     `bun:"id,pk,autoincrement" json:"-"`
	OfferID  int64     `bun:"offer_id,notnull" json:"-"`
	Side     TradeSide `bun:"side,notnull" json:"side"`
	CardID   int64     `bun:"card_id,notnull" json:"card_id"`
	IsShiny  bool      `bun:"is_shiny,notnull,default:false" json:"is_shiny"`
	Quantity int64     `bun:"quantity,notnull" json:"quantity"`

	Card *Card `bun:"rel:belongs-to,join:card_id=id" json:"card,omitempty"`
}

// Lines returns the offer's cards on one side.
func (t *TradeOffer) Lines(side TradeSide) []*TradeCard {
	var out []*TradeCard
	for _, c := range t.Cards {
		if c.Side == side {
			out = append(out, c)
		}
	}
	return out
}
