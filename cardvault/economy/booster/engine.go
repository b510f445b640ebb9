// Package booster draws the cards of a booster and applies the purchase atomically.
package booster

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/cardvault/cardvault/cardvault/database/models"
)

var (
	ErrUnknownBooster      = errors.New("unknown booster type")
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrEmptyRarity means the catalog has no card of a rarity the draw landed on.
	ErrEmptyRarity = errors.New("no cards in catalog for rarity")
)

// Catalog exposes the card pool grouped by rarity.
type Catalog interface {
	CardsOf(rarity models.Rarity) []*models.Card
}

// MapCatalog is a Catalog backed by a plain map.
type MapCatalog map[models.Rarity][]*models.Card

func (m MapCatalog) CardsOf(rarity models.Rarity) []*models.Card {
	return m[rarity]
}

// NewMapCatalog groups cards by rarity.
func NewMapCatalog(cards []*models.Card) MapCatalog {
	out := make(MapCatalog)
	for _, c := range cards {
		out[c.Rarity] = append(out[c.Rarity], c)
	}
	return out
}

// Pull is one generated card.
type Pull struct {
	Card    *models.Card `json:"card"`
	IsShiny bool         `json:"is_shiny"`
}

// Engine samples boosters. Its only state is the random source.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine uses rng, or a time-seeded source when rng is nil.
func NewEngine(rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{rng: rng}
}

// Generate draws cardCount cards under policy. Nothing is drawn past the first empty rarity.
func (e *Engine) Generate(policy Policy, cardCount int, catalog Catalog, boosted bool) ([]Pull, error) {
	if cardCount <= 0 {
		cardCount = policy.CardCount
	}
	weights := EffectiveWeights(boosted)

	e.mu.Lock()
	defer e.mu.Unlock()

	pulls := make([]Pull, 0, cardCount)
	for slot := 0; slot < cardCount; slot++ {
		rule := policy.rest
		if slot == 0 {
			rule = policy.first
		}

		rarity, err := e.rollRarity(rule, policy.Floor, weights)
		if err != nil {
			return nil, err
		}

		card, err := e.pickCard(catalog, rarity)
		if err != nil {
			return nil, err
		}

		pulls = append(pulls, Pull{Card: card, IsShiny: e.rollShiny()})
	}
	return pulls, nil
}

func (e *Engine) rollRarity(rule slotRule, floor models.Rarity, weights Weights) (models.Rarity, error) {
	switch rule {
	case ruleFloor:
		restricted := weights.AtLeast(floor)
		total := restricted.Total()
		if total == 0 {
			return 0, fmt.Errorf("no weight at or above %s", floor)
		}
		return restricted.pick(e.rng.Intn(total))
	case ruleEpicSplit:
		roll := e.rng.Intn(100)
		switch {
		case roll < 5:
			return models.RarityLegendary, nil
		case roll < 55:
			return models.RarityEpic, nil
		}
		return weights.pick(e.rng.Intn(weights.Total()))
	case ruleMaxiFiller:
		if e.rng.Intn(100) < 30 {
			return models.RarityUncommon, nil
		}
		return models.RarityCommon, nil
	default:
		return weights.pick(e.rng.Intn(weights.Total()))
	}
}

func (e *Engine) pickCard(catalog Catalog, rarity models.Rarity) (*models.Card, error) {
	cards := catalog.CardsOf(rarity)
	if len(cards) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyRarity, rarity)
	}
	return cards[e.rng.Intn(len(cards))], nil
}

func (e *Engine) rollShiny() bool {
	return e.rng.Intn(1000) < ShinyPerMille
}

// RollShiny exposes a single shiny roll.
func (e *Engine) RollShiny() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rollShiny()
}
