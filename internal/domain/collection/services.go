package collection

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/cardvault/cardvault/cardvault/config"
	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/cardvault/cardvault/cardvault/database/repositories"
)

var (
	ErrPrivate      = errors.New("collection is private")
	ErrUserNotFound = errors.New("user not found")
)

type Service interface {
	GetUserCards(ctx context.Context, viewerID, ownerID int64, filters Filters) (*Page, error)
	Summary(ctx context.Context, viewerID, ownerID int64) (*Summary, error)
	MarkSeen(ctx context.Context, userID int64, keys []models.CardKey) (int64, error)
}

type service struct {
	repository Repository
	users      UserReader
}

func NewService(repository Repository, users UserReader) *service {
	return &service{
		repository: repository,
		users:      users,
	}
}

// visible loads the owner and applies the privacy setting. Owners always see their own cards.
func (s *service) visible(ctx context.Context, viewerID, ownerID int64) error {
	if viewerID == ownerID {
		return nil
	}
	owner, err := s.users.GetByID(ctx, ownerID)
	if repositories.IsNotFound(err) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if !owner.CollectionPublic {
		return ErrPrivate
	}
	return nil
}

func (s *service) GetUserCards(ctx context.Context, viewerID, ownerID int64, filters Filters) (*Page, error) {
	if err := s.visible(ctx, viewerID, ownerID); err != nil {
		return nil, err
	}

	held, err := s.repository.ListByUser(ctx, ownerID, repositories.CollectionFilter{
		Rarity:  filters.Rarity,
		Shiny:   filters.Shiny,
		NewOnly: filters.NewOnly,
		Name:    filters.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cards: %w", err)
	}

	cards := make([]Card, 0, len(held))
	for _, cc := range held {
		if cc.Quantity <= 0 || cc.Card == nil {
			continue
		}
		cards = append(cards, Card{
			CardID:      cc.CardID,
			Name:        cc.Card.Name,
			Rarity:      cc.Card.Rarity,
			Description: cc.Card.Description,
			ImageURL:    cc.Card.ImageURL,
			Power:       cc.Card.Power,
			IsShiny:     cc.IsShiny,
			Quantity:    cc.Quantity,
			IsNew:       cc.IsNew,
			Obtained:    cc.Obtained,
		})
	}

	// Rarest first, then by name; a shiny copy follows its plain one.
	sort.SliceStable(cards, func(i, j int) bool {
		if cards[i].Rarity != cards[j].Rarity {
			return cards[i].Rarity > cards[j].Rarity
		}
		if cards[i].Name != cards[j].Name {
			return cards[i].Name < cards[j].Name
		}
		return !cards[i].IsShiny && cards[j].IsShiny
	})

	return paginate(cards, filters.Page, filters.PageSize), nil
}

func paginate(cards []Card, page, size int) *Page {
	if size <= 0 {
		size = config.CardsPerPage
	}
	if size > config.MaxPageSize {
		size = config.MaxPageSize
	}
	pages := int(math.Ceil(float64(len(cards)) / float64(size)))
	if page < 1 {
		page = 1
	}

	out := &Page{Cards: []Card{}, Page: page, Pages: pages, PageSize: size, Total: len(cards)}
	start := (page - 1) * size
	if start >= len(cards) {
		return out
	}
	end := start + size
	if end > len(cards) {
		end = len(cards)
	}
	out.Cards = cards[start:end]
	return out
}

func (s *service) Summary(ctx context.Context, viewerID, ownerID int64) (*Summary, error) {
	if err := s.visible(ctx, viewerID, ownerID); err != nil {
		return nil, err
	}
	held, err := s.repository.ListByUser(ctx, ownerID, repositories.CollectionFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cards: %w", err)
	}

	sum := &Summary{}
	distinct := make(map[int64]struct{}, len(held))
	for _, cc := range held {
		if cc.Quantity <= 0 {
			continue
		}
		sum.Copies += cc.Quantity
		distinct[cc.CardID] = struct{}{}
		if cc.IsShiny {
			sum.Shiny += cc.Quantity
		}
		if cc.IsNew {
			sum.New++
		}
	}
	sum.Distinct = int64(len(distinct))
	return sum, nil
}

// MarkSeen clears the new flag on the given holdings, or on all of them when keys is empty.
func (s *service) MarkSeen(ctx context.Context, userID int64, keys []models.CardKey) (int64, error) {
	n, err := s.repository.MarkSeen(ctx, userID, keys)
	if err != nil {
		return 0, fmt.Errorf("failed to mark cards seen: %w", err)
	}
	return n, nil
}
