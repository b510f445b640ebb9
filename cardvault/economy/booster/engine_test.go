package booster

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/cardvault/cardvault/cardvault/database/models"
)

func fullCatalog() MapCatalog {
	var cards []*models.Card
	id := int64(1)
	for _, r := range models.Rarities {
		for i := 0; i < 3; i++ {
			cards = append(cards, &models.Card{ID: id, Name: r.String(), Rarity: r})
			id++
		}
	}
	return NewMapCatalog(cards)
}

func TestEffectiveWeights(t *testing.T) {
	base := BaseWeights()
	if base.Total() != 1000 {
		t.Fatalf("base weights total %d, want 1000", base.Total())
	}

	boosted := EffectiveWeights(true)
	for _, r := range models.Rarities {
		want := base[r] * 2
		if r == models.RarityCommon {
			want = base[r]
		}
		if boosted[r] != want {
			t.Errorf("boosted %s = %d, want %d", r, boosted[r], want)
		}
	}
	if boosted[models.RarityUncommon] != 2*base[models.RarityUncommon] {
		t.Errorf("uncommon weight not doubled")
	}

	plain := EffectiveWeights(false)
	for _, r := range models.Rarities {
		if plain[r] != base[r] {
			t.Errorf("unboosted %s = %d, want %d", r, plain[r], base[r])
		}
	}
}

func TestWeightsPick(t *testing.T) {
	w := BaseWeights()
	tests := []struct {
		roll int
		want models.Rarity
	}{
		{0, models.RarityCommon},
		{699, models.RarityCommon},
		{700, models.RarityUncommon},
		{899, models.RarityUncommon},
		{900, models.RarityRare},
		{979, models.RarityRare},
		{980, models.RarityEpic},
		{995, models.RarityLegendary},
		{999, models.RarityLegendary},
	}
	for _, tt := range tests {
		got, err := w.pick(tt.roll)
		if err != nil {
			t.Fatalf("pick(%d) error = %v", tt.roll, err)
		}
		if got != tt.want {
			t.Errorf("pick(%d) = %s, want %s", tt.roll, got, tt.want)
		}
	}
	if _, err := w.pick(1000); err == nil {
		t.Error("pick(1000) should be out of range")
	}
}

func TestGenerate_StandardFirstSlotNeverCommon(t *testing.T) {
	engine := NewEngine(rand.New(rand.NewSource(1)))
	policy, _ := PolicyFor(models.BoosterStandard)
	catalog := fullCatalog()

	for i := 0; i < 5000; i++ {
		pulls, err := engine.Generate(policy, 4, catalog, false)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if len(pulls) != 4 {
			t.Fatalf("got %d cards, want 4", len(pulls))
		}
		if pulls[0].Card.Rarity == models.RarityCommon {
			t.Fatalf("trial %d: slot 0 was COMMON", i)
		}
	}
}

func TestGenerate_RareAndMaxiFloor(t *testing.T) {
	engine := NewEngine(rand.New(rand.NewSource(2)))
	catalog := fullCatalog()

	for _, bt := range []models.BoosterType{models.BoosterRare, models.BoosterMaxi} {
		policy, _ := PolicyFor(bt)
		for i := 0; i < 2000; i++ {
			pulls, err := engine.Generate(policy, policy.CardCount, catalog, true)
			if err != nil {
				t.Fatalf("%s: Generate() error = %v", bt, err)
			}
			if pulls[0].Card.Rarity < models.RarityRare {
				t.Fatalf("%s trial %d: slot 0 was %s", bt, i, pulls[0].Card.Rarity)
			}
			if bt == models.BoosterMaxi {
				for slot, p := range pulls[1:] {
					if r := p.Card.Rarity; r != models.RarityCommon && r != models.RarityUncommon {
						t.Fatalf("maxi slot %d was %s", slot+1, r)
					}
				}
			}
		}
	}
}

func TestGenerate_LegendaryAlwaysLegendary(t *testing.T) {
	engine := NewEngine(rand.New(rand.NewSource(3)))
	policy, _ := PolicyFor(models.BoosterLegendary)
	catalog := fullCatalog()

	for i := 0; i < 2000; i++ {
		pulls, err := engine.Generate(policy, 1, catalog, false)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if len(pulls) != 1 || pulls[0].Card.Rarity != models.RarityLegendary {
			t.Fatalf("trial %d: got %+v", i, pulls)
		}
	}
}

func TestGenerate_EpicSplit(t *testing.T) {
	engine := NewEngine(rand.New(rand.NewSource(4)))
	policy, _ := PolicyFor(models.BoosterEpic)
	catalog := fullCatalog()

	const trials = 20000
	counts := map[models.Rarity]int{}
	for i := 0; i < trials; i++ {
		pulls, err := engine.Generate(policy, 4, catalog, false)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		counts[pulls[0].Card.Rarity]++
	}

	// 50% forced EPIC plus 45% * 1.5% from the open draw.
	epic := float64(counts[models.RarityEpic]) / trials
	if math.Abs(epic-0.50675) > 0.02 {
		t.Errorf("epic share %.4f, want about 0.507", epic)
	}
	legendary := float64(counts[models.RarityLegendary]) / trials
	if math.Abs(legendary-0.05225) > 0.01 {
		t.Errorf("legendary share %.4f, want about 0.052", legendary)
	}
}

func TestRollShiny_Frequency(t *testing.T) {
	engine := NewEngine(rand.New(rand.NewSource(5)))

	const n = 100000
	shiny := 0
	for i := 0; i < n; i++ {
		if engine.RollShiny() {
			shiny++
		}
	}

	p := float64(ShinyPerMille) / 1000
	sigma := math.Sqrt(p * (1 - p) / n)
	got := float64(shiny) / n
	if math.Abs(got-p) > 5*sigma {
		t.Errorf("shiny frequency %.4f, want %.4f +/- %.4f", got, p, 5*sigma)
	}
}

func TestGenerate_EmptyRarity(t *testing.T) {
	engine := NewEngine(rand.New(rand.NewSource(6)))
	policy, _ := PolicyFor(models.BoosterLegendary)
	catalog := NewMapCatalog([]*models.Card{{ID: 1, Rarity: models.RarityCommon}})

	pulls, err := engine.Generate(policy, 1, catalog, false)
	if !errors.Is(err, ErrEmptyRarity) {
		t.Fatalf("expected ErrEmptyRarity, got %v", err)
	}
	if pulls != nil {
		t.Errorf("expected no pulls, got %+v", pulls)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	policy, _ := PolicyFor(models.BoosterStandard)
	catalog := fullCatalog()

	a, _ := NewEngine(rand.New(rand.NewSource(99))).Generate(policy, 4, catalog, false)
	b, _ := NewEngine(rand.New(rand.NewSource(99))).Generate(policy, 4, catalog, false)
	for i := range a {
		if a[i].Card.ID != b[i].Card.ID || a[i].IsShiny != b[i].IsShiny {
			t.Fatalf("same seed produced different boosters at slot %d", i)
		}
	}
}
