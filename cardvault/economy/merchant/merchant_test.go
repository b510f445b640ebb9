package merchant

import (
	"context"
	"errors"
	"testing"

	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/cardvault/cardvault/cardvault/database/repositories"
	"github.com/cardvault/cardvault/cardvault/economy/pricing"
	"github.com/cardvault/cardvault/cardvault/services"
)

const user int64 = 1

// memStore applies a transaction to copies of its state and keeps them only on success.
type memStore struct {
	cards    map[int64]*models.Card
	holdings map[models.CardKey]int64
	credits  int64
	sold     int64
	sales    []*models.MerchantSale
}

func newMemStore() *memStore {
	return &memStore{
		cards: map[int64]*models.Card{
			1: {ID: 1, Name: "Pebble", Rarity: models.RarityCommon},
			2: {ID: 2, Name: "Wyvern", Rarity: models.RarityRare},
			3: {ID: 3, Name: "Phoenix", Rarity: models.RarityLegendary},
		},
		holdings: map[models.CardKey]int64{
			{CardID: 1}:                12,
			{CardID: 2}:                3,
			{CardID: 2, IsShiny: true}: 2,
			{CardID: 3}:                1,
		},
		credits: 100,
	}
}

func (s *memStore) GetCard(_ context.Context, id int64) (*models.Card, error) {
	c, ok := s.cards[id]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "card", ID: id}
	}
	return c, nil
}

func (s *memStore) Holding(_ context.Context, _ int64, key models.CardKey) (int64, error) {
	return s.holdings[key], nil
}

func (s *memStore) ListSales(_ context.Context, _ int64, limit int) ([]*models.MerchantSale, error) {
	if limit < len(s.sales) {
		return s.sales[:limit], nil
	}
	return s.sales, nil
}

func (s *memStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx := &memTx{holdings: map[models.CardKey]int64{}, credits: s.credits, sold: s.sold}
	for k, v := range s.holdings {
		tx.holdings[k] = v
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.holdings, s.credits, s.sold = tx.holdings, tx.credits, tx.sold
	s.sales = append(s.sales, tx.sales...)
	return nil
}

type memTx struct {
	holdings map[models.CardKey]int64
	credits  int64
	sold     int64
	sales    []*models.MerchantSale
}

func (t *memTx) LockedQuantity(_ context.Context, _ int64, key models.CardKey) (int64, error) {
	return t.holdings[key], nil
}

func (t *memTx) Take(_ context.Context, _ int64, key models.CardKey, qty int64) error {
	if t.holdings[key] < qty {
		return ErrInsufficientCards
	}
	t.holdings[key] -= qty
	if t.holdings[key] == 0 {
		delete(t.holdings, key)
	}
	return nil
}

func (t *memTx) Credit(_ context.Context, _ int64, amount int64) error {
	t.credits += amount
	return nil
}

func (t *memTx) IncrementCounters(_ context.Context, _ int64, d repositories.UserCounters) error {
	t.sold += d.CardsSold
	return nil
}

func (t *memTx) InsertSale(_ context.Context, sale *models.MerchantSale) error {
	t.sales = append(t.sales, sale)
	return nil
}

type recordingAchievements struct {
	events []services.Event
}

func (r *recordingAchievements) Handle(_ context.Context, ev services.Event) ([]services.Achievement, error) {
	r.events = append(r.events, ev)
	return nil, nil
}

func TestSell(t *testing.T) {
	tests := []struct {
		name        string
		req         SellRequest
		wantCredits int64
		wantLeft    int64
	}{
		{"bulk commons", SellRequest{CardID: 1, Quantity: 12}, 17, 0},
		{"two rares", SellRequest{CardID: 2, Quantity: 2}, 10, 1},
		{"shiny rares", SellRequest{CardID: 2, IsShiny: true, Quantity: 2}, 15, 0},
		{"duplicates only", SellRequest{CardID: 2, Quantity: 2, KeepOne: true}, 10, 1},
		{"last legendary", SellRequest{CardID: 3, Quantity: 1}, 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			events := &recordingAchievements{}
			m := New(store, events)

			got, err := m.Sell(context.Background(), user, tt.req)
			if err != nil {
				t.Fatalf("Sell() error = %v", err)
			}
			if got.Total != tt.wantCredits {
				t.Errorf("Total = %d, want %d", got.Total, tt.wantCredits)
			}
			if store.credits != 100+tt.wantCredits {
				t.Errorf("credits = %d, want %d", store.credits, 100+tt.wantCredits)
			}
			key := tt.req.key()
			if store.holdings[key] != tt.wantLeft || got.Owned != tt.wantLeft {
				t.Errorf("left = %d (reported %d), want %d", store.holdings[key], got.Owned, tt.wantLeft)
			}
			if _, ok := store.holdings[key]; ok && tt.wantLeft == 0 {
				t.Error("zero holding was not pruned")
			}
			if store.sold != tt.req.Quantity {
				t.Errorf("cards sold = %d, want %d", store.sold, tt.req.Quantity)
			}
			if len(store.sales) != 1 || store.sales[0].Credits != tt.wantCredits {
				t.Errorf("sales = %+v, want one sale of %d", store.sales, tt.wantCredits)
			}
			if len(events.events) != 1 {
				t.Errorf("events = %d, want 1", len(events.events))
			}
		})
	}
}

func TestSell_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		req     SellRequest
		wantErr error
	}{
		{"more than owned", SellRequest{CardID: 2, Quantity: 4}, ErrInsufficientCards},
		{"keep one", SellRequest{CardID: 3, Quantity: 1, KeepOne: true}, ErrInsufficientCards},
		{"shiny counted separately", SellRequest{CardID: 3, IsShiny: true, Quantity: 1}, ErrInsufficientCards},
		{"unknown card", SellRequest{CardID: 99, Quantity: 1}, ErrUnknownCard},
		{"zero quantity", SellRequest{CardID: 1, Quantity: 0}, pricing.ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			before := len(store.holdings)

			_, err := New(store, nil).Sell(context.Background(), user, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Sell() error = %v, want %v", err, tt.wantErr)
			}
			if store.credits != 100 || store.sold != 0 || len(store.sales) != 0 {
				t.Errorf("state changed: credits=%d sold=%d sales=%d", store.credits, store.sold, len(store.sales))
			}
			if len(store.holdings) != before {
				t.Errorf("holdings changed: %v", store.holdings)
			}
		})
	}
}

func TestQuote(t *testing.T) {
	m := New(newMemStore(), nil)

	q, err := m.Quote(context.Background(), user, SellRequest{CardID: 1, Quantity: 12, KeepOne: true})
	if err != nil {
		t.Fatalf("Quote() error = %v", err)
	}
	if q.Total != 17 || q.BulkBatches != 1 || q.Singles != 2 {
		t.Errorf("Quote = %+v, want total 17 with 1 batch and 2 singles", q.Quote)
	}
	if q.Owned != 12 || q.Sellable != 11 {
		t.Errorf("owned/sellable = %d/%d, want 12/11", q.Owned, q.Sellable)
	}
}
