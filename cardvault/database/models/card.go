package models

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Rarity is ordered: a higher value is rarer.
type Rarity int

const (
	RarityCommon Rarity = iota + 1
	RarityUncommon
	RarityRare
	RarityEpic
	RarityLegendary
)

// Rarities lists every rarity from lowest to highest.
var Rarities = []Rarity{RarityCommon, RarityUncommon, RarityRare, RarityEpic, RarityLegendary}

var rarityNames = map[Rarity]string{
	RarityCommon:    "COMMON",
	RarityUncommon:  "UNCOMMON",
	RarityRare:      "RARE",
	RarityEpic:      "EPIC",
	RarityLegendary: "LEGENDARY",
}

func (r Rarity) String() string {
	if name, ok := rarityNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Rarity(%d)", int(r))
}

func (r Rarity) Valid() bool {
	return r >= RarityCommon && r <= RarityLegendary
}

// ParseRarity accepts the canonical upper-case names, case-insensitively.
func ParseRarity(s string) (Rarity, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for r, name := range rarityNames {
		if name == upper {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown rarity %q", s)
}

func (r Rarity) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid rarity %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Rarity) UnmarshalText(text []byte) error {
	parsed, err := ParseRarity(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Value stores the rarity as its ordinal so ORDER BY rarity sorts by value.
func (r Rarity) Value() (driver.Value, error) {
	return int64(r), nil
}

func (r *Rarity) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*r = Rarity(v)
	case int32:
		*r = Rarity(v)
	case []byte:
		return r.scanText(string(v))
	case string:
		return r.scanText(v)
	default:
		return fmt.Errorf("cannot scan %T into Rarity", src)
	}
	return nil
}

func (r *Rarity) scanText(s string) error {
	if n, err := strconv.Atoi(s); err == nil {
		*r = Rarity(n)
		return nil
	}
	return r.UnmarshalText([]byte(s))
}

type Card struct {
	bun.BaseModel `bun:"table:cards,alias:c"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Rarity      Rarity    `bun:"rarity,notnull,type:smallint" json:"rarity"`
	Description string    `bun:"description,notnull,default:''" json:"description"`
	Quote       string    `bun:"quote,nullzero" json:"quote,omitempty"`
	Power       int       `bun:"power,notnull,default:0" json:"power"`
	ImageURL    string    `bun:"image_url,nullzero" json:"image_url,omitempty"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}
