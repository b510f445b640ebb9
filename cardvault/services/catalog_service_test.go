package services

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/cardvault/cardvault/cardvault/database/models"
)

type countingCards struct {
	cards []*models.Card
	loads atomic.Int32
}

func (c *countingCards) GetAll(context.Context) ([]*models.Card, error) {
	c.loads.Add(1)
	return c.cards, nil
}

func (c *countingCards) GetByID(_ context.Context, id int64) (*models.Card, error) {
	for _, card := range c.cards {
		if card.ID == id {
			return card, nil
		}
	}
	return nil, nil
}

func testCatalog() *countingCards {
	return &countingCards{cards: []*models.Card{
		{ID: 1, Name: "Ember Drake", Rarity: models.RarityLegendary},
		{ID: 2, Name: "Emerald Sprite", Rarity: models.RarityRare},
		{ID: 3, Name: "Stone Golem", Rarity: models.RarityCommon},
		{ID: 4, Name: "Ember Imp", Rarity: models.RarityCommon},
	}}
}

func TestCatalogService_CachesLoads(t *testing.T) {
	src := testCatalog()
	svc := NewCatalogService(src)

	for i := 0; i < 3; i++ {
		if _, err := svc.All(context.Background()); err != nil {
			t.Fatalf("All() error = %v", err)
		}
	}
	if got := src.loads.Load(); got != 1 {
		t.Errorf("catalog loaded %d times, want 1", got)
	}

	svc.Invalidate()
	if _, err := svc.All(context.Background()); err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if got := src.loads.Load(); got != 2 {
		t.Errorf("catalog loaded %d times after invalidate, want 2", got)
	}
}

type gatedCards struct {
	countingCards
	started chan struct{}
	release chan struct{}
}

func (g *gatedCards) GetAll(ctx context.Context) ([]*models.Card, error) {
	cards := g.cards
	if g.loads.Load() == 0 {
		close(g.started)
		<-g.release
	}
	g.loads.Add(1)
	return cards, nil
}

func TestCatalogService_InvalidateDuringLoad(t *testing.T) {
	src := &gatedCards{
		countingCards: countingCards{cards: []*models.Card{{ID: 1, Name: "Ember Drake", Rarity: models.RarityLegendary}}},
		started:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	svc := NewCatalogService(src)

	done := make(chan []*models.Card)
	go func() {
		cards, _ := svc.All(context.Background())
		done <- cards
	}()

	<-src.started
	src.cards = []*models.Card{{ID: 1, Name: "Ember Wyrm", Rarity: models.RarityLegendary}}
	svc.Invalidate()
	close(src.release)

	if stale := <-done; stale[0].Name != "Ember Drake" {
		t.Fatalf("in-flight load returned %q", stale[0].Name)
	}

	cards, err := svc.All(context.Background())
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if cards[0].Name != "Ember Wyrm" {
		t.Errorf("All() after invalidate = %q, want the edited card", cards[0].Name)
	}
	if got := src.loads.Load(); got != 2 {
		t.Errorf("catalog loaded %d times, want 2", got)
	}
	if card, _ := svc.Get(context.Background(), 1); card.Name != "Ember Wyrm" {
		t.Errorf("Get() after invalidate = %q", card.Name)
	}
}

func TestCatalogService_Snapshot(t *testing.T) {
	svc := NewCatalogService(testCatalog())

	snap, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if got := len(snap.CardsOf(models.RarityCommon)); got != 2 {
		t.Errorf("common cards = %d, want 2", got)
	}
	if got := len(snap.CardsOf(models.RarityEpic)); got != 0 {
		t.Errorf("epic cards = %d, want 0", got)
	}
}

func TestCatalogService_Search(t *testing.T) {
	svc := NewCatalogService(testCatalog())

	tests := []struct {
		name   string
		query  string
		rarity models.Rarity
		want   []int64
	}{
		{"fuzzy ember", "ember", 0, []int64{1, 4}},
		{"rarity filter", "ember", models.RarityCommon, []int64{4}},
		{"empty query lists filtered", "", models.RarityRare, []int64{2}},
		{"no match", "zzz", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Search(context.Background(), tt.query, tt.rarity, 0)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			ids := map[int64]bool{}
			for _, c := range got {
				ids[c.ID] = true
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Search() returned %d cards, want %d", len(got), len(tt.want))
			}
			for _, id := range tt.want {
				if !ids[id] {
					t.Errorf("Search() missing card %d", id)
				}
			}
		})
	}
}
