package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64  `bun:"id,pk,autoincrement" json:"id"`
	Username     string `bun:"username,notnull,unique" json:"username"`
	PasswordHash string `bun:"password_hash,notnull" json:"-"`
	Credits      int64  `bun:"credits,notnull,default:0" json:"credits"`
	Role         Role   `bun:"role,notnull,default:'USER'" json:"role"`

	// Cumulative counters
	BoostersOpened  int64 `bun:"boosters_opened,notnull,default:0" json:"boosters_opened"`
	LegendaryFound  int64 `bun:"legendary_found,notnull,default:0" json:"legendary_found"`
	ShinyFound      int64 `bun:"shiny_found,notnull,default:0" json:"shiny_found"`
	TradesCompleted int64 `bun:"trades_completed,notnull,default:0" json:"trades_completed"`
	CardsSold       int64 `bun:"cards_sold,notnull,default:0" json:"cards_sold"`

	// Settings
	CollectionPublic bool `bun:"collection_public,notnull,default:true" json:"collection_public"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
