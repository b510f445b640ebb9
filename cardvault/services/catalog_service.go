package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cardvault/cardvault/cardvault/config"
	"github.com/cardvault/cardvault/cardvault/database/models"
	lru "github.com/hashicorp/golang-lru"
	"github.com/sahilm/fuzzy"
	"golang.org/x/sync/singleflight"
)

const allCardsKey = "catalog:all"

type CardSource interface {
	GetAll(ctx context.Context) ([]*models.Card, error)
	GetByID(ctx context.Context, id int64) (*models.Card, error)
}

// CatalogSnapshot groups the catalog by rarity.
type CatalogSnapshot map[models.Rarity][]*models.Card

func (c CatalogSnapshot) CardsOf(rarity models.Rarity) []*models.Card {
	return c[rarity]
}

// CatalogService serves catalog reads from an LRU cache. Admin writes must call Invalidate.
type CatalogService struct {
	cards CardSource
	cache *lru.Cache
	group singleflight.Group

	// mu guards generation; loads started before an Invalidate must not populate the cache.
	mu         sync.Mutex
	generation uint64
}

func NewCatalogService(cards CardSource) *CatalogService {
	cache, _ := lru.New(config.CardCacheSize)
	return &CatalogService{cards: cards, cache: cache}
}

// All returns every card, loading it at most once across concurrent callers.
func (s *CatalogService) All(ctx context.Context) ([]*models.Card, error) {
	if cached, ok := s.cache.Get(allCardsKey); ok {
		return cached.([]*models.Card), nil
	}

	v, err, _ := s.group.Do(allCardsKey, func() (interface{}, error) {
		gen := s.currentGeneration()
		cards, err := s.cards.GetAll(ctx)
		if err != nil {
			return nil, err
		}
		s.store(gen, func() {
			s.cache.Add(allCardsKey, cards)
			for _, c := range cards {
				s.cache.Add(c.ID, c)
			}
		})
		return cards, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return v.([]*models.Card), nil
}

func (s *CatalogService) Snapshot(ctx context.Context) (CatalogSnapshot, error) {
	cards, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	snap := make(CatalogSnapshot)
	for _, c := range cards {
		snap[c.Rarity] = append(snap[c.Rarity], c)
	}
	return snap, nil
}

func (s *CatalogService) Get(ctx context.Context, id int64) (*models.Card, error) {
	if cached, ok := s.cache.Get(id); ok {
		return cached.(*models.Card), nil
	}
	gen := s.currentGeneration()
	card, err := s.cards.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(gen, func() { s.cache.Add(id, card) })
	return card, nil
}

// Invalidate drops everything cached. Loads already in flight still return
// to their callers but are not cached, and later callers start a fresh load.
func (s *CatalogService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.cache.Purge()
	s.group.Forget(allCardsKey)
}

func (s *CatalogService) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// store runs add only if no Invalidate happened since gen was read.
func (s *CatalogService) store(gen uint64, add func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation == gen {
		add()
	}
}

// cardNames implements fuzzy.Source.
type cardNames []*models.Card

func (c cardNames) String(i int) string { return strings.ToLower(c[i].Name) }
func (c cardNames) Len() int            { return len(c) }

// Search filters by rarity (zero means any) and ranks by fuzzy name match.
// An empty query returns the filtered catalog in catalog order.
func (s *CatalogService) Search(ctx context.Context, query string, rarity models.Rarity, limit int) ([]*models.Card, error) {
	cards, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make(cardNames, 0, len(cards))
	for _, c := range cards {
		if rarity.Valid() && c.Rarity != rarity {
			continue
		}
		filtered = append(filtered, c)
	}

	query = strings.ToLower(strings.TrimSpace(query))
	var results []*models.Card
	if query == "" {
		results = filtered
	} else {
		// FindFrom returns matches best-first.
		matches := fuzzy.FindFrom(query, filtered)
		results = make([]*models.Card, len(matches))
		for i, m := range matches {
			results[i] = filtered[m.Index]
		}
	}

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
