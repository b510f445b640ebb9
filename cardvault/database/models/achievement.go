package models

import (
	"time"

	"github.com/uptrace/bun"
)

type UserAchievement struct {
	bun.BaseModel `bun:"table:user_achievements,alias:ua"`

	ID         int64     `bun:"id,pk,autoincrement" json:"-"`
	UserID     int64     `bun:"user_id,notnull,unique:user_achievements_user_code" json:"user_id"`
	Code       string    `bun:"code,notnull,unique:user_achievements_user_code" json:"code"`
	Reward     int64     `bun:"reward,notnull,default:0" json:"reward"`
	UnlockedAt time.Time `bun:"unlocked_at,notnull,default:current_timestamp" json:"unlocked_at"`
}
