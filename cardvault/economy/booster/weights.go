package booster

import (
	"fmt"

	"github.com/cardvault/cardvault/cardvault/database/models"
)

// Weights are drop weights in tenths of a percent so that every draw is exact.
type Weights map[models.Rarity]int

// BaseWeights is the canonical 5-tier table: 70 / 20 / 8 / 1.5 / 0.5 percent.
func BaseWeights() Weights {
	return Weights{
		models.RarityCommon:    700,
		models.RarityUncommon:  200,
		models.RarityRare:      80,
		models.RarityEpic:      15,
		models.RarityLegendary: 5,
	}
}

// ShinyPerMille is the chance, out of 1000, that a drawn card is shiny.
const ShinyPerMille = 50

// EffectiveWeights applies the boost multiplier: every non-common weight doubles.
func EffectiveWeights(boosted bool) Weights {
	w := BaseWeights()
	if !boosted {
		return w
	}
	for r := range w {
		if r != models.RarityCommon {
			w[r] *= 2
		}
	}
	return w
}

// AtLeast restricts the table to rarities >= floor.
func (w Weights) AtLeast(floor models.Rarity) Weights {
	out := make(Weights, len(w))
	for r, weight := range w {
		if r >= floor {
			out[r] = weight
		}
	}
	return out
}

func (w Weights) Total() int {
	total := 0
	for _, weight := range w {
		total += weight
	}
	return total
}

// Probability returns the normalised chance of r, for display.
func (w Weights) Probability(r models.Rarity) float64 {
	total := w.Total()
	if total == 0 {
		return 0
	}
	return float64(w[r]) / float64(total)
}

// pick maps a roll in [0, Total) to a rarity, walking from lowest to highest.
func (w Weights) pick(roll int) (models.Rarity, error) {
	cumulative := 0
	for _, r := range models.Rarities {
		cumulative += w[r]
		if roll < cumulative {
			return r, nil
		}
	}
	return 0, fmt.Errorf("roll %d outside weight total %d", roll, cumulative)
}
