package booster

import "github.com/cardvault/cardvault/cardvault/database/models"

type slotRule int

const (
	// ruleOpen draws from the full boost-adjusted table.
	ruleOpen slotRule = iota
	// ruleFloor draws from the table restricted to rarities >= Policy.Floor.
	ruleFloor
	// ruleEpicSplit is 45% open draw, 50% EPIC, 5% LEGENDARY.
	ruleEpicSplit
	// ruleMaxiFiller is 30% UNCOMMON, 70% COMMON.
	ruleMaxiFiller
)

// Policy is the guarantee attached to a booster type.
type Policy struct {
	Type      models.BoosterType
	CardCount int
	Floor     models.Rarity
	first     slotRule
	rest      slotRule
}

var policies = map[models.BoosterType]Policy{
	models.BoosterStandard:  {Type: models.BoosterStandard, CardCount: 4, Floor: models.RarityUncommon, first: ruleFloor, rest: ruleOpen},
	models.BoosterRare:      {Type: models.BoosterRare, CardCount: 4, Floor: models.RarityRare, first: ruleFloor, rest: ruleOpen},
	models.BoosterEpic:      {Type: models.BoosterEpic, CardCount: 4, first: ruleEpicSplit, rest: ruleOpen},
	models.BoosterMaxi:      {Type: models.BoosterMaxi, CardCount: 6, Floor: models.RarityRare, first: ruleFloor, rest: ruleMaxiFiller},
	models.BoosterLegendary: {Type: models.BoosterLegendary, CardCount: 1, Floor: models.RarityLegendary, first: ruleFloor, rest: ruleOpen},
}

// PolicyFor returns the guarantee policy of a booster type.
func PolicyFor(t models.BoosterType) (Policy, bool) {
	p, ok := policies[t]
	return p, ok
}

// DefaultConfigs are the booster rows seeded into a fresh database.
func DefaultConfigs() []*models.BoosterConfig {
	return []*models.BoosterConfig{
		{Type: models.BoosterStandard, Name: "Standard Booster", Cost: 100, CardCount: 4, Active: true},
		{Type: models.BoosterRare, Name: "Rare Booster", Cost: 170, CardCount: 4, Active: true},
		{Type: models.BoosterEpic, Name: "Epic Booster", Cost: 300, CardCount: 4, Active: true},
		{Type: models.BoosterMaxi, Name: "Maxi Booster", Cost: 500, CardCount: 6, Active: true},
		{Type: models.BoosterLegendary, Name: "Legendary Booster", Cost: 500, CardCount: 1, Active: true},
	}
}
