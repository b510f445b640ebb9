package trade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cardvault/cardvault/cardvault/config"
	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/cardvault/cardvault/cardvault/database/repositories"
	"github.com/cardvault/cardvault/cardvault/services"
)

const (
	alice int64 = 1
	bob   int64 = 2
	carol int64 = 3
)

var (
	dragon      = models.CardKey{CardID: 10}
	shinyDragon = models.CardKey{CardID: 10, IsShiny: true}
	goblin      = models.CardKey{CardID: 20}
)

// memStore applies a transaction to copies of its state and keeps them only on success.
type memStore struct {
	users    map[int64]bool
	holdings map[int64]map[models.CardKey]int64
	offers   map[string]*models.TradeOffer
	trades   map[int64]int64
	nextID   int64
	failGive bool
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[int64]bool{alice: true, bob: true, carol: true},
		holdings: map[int64]map[models.CardKey]int64{},
		offers:   map[string]*models.TradeOffer{},
		trades:   map[int64]int64{},
	}
}

func (s *memStore) give(userID int64, key models.CardKey, qty int64) {
	if s.holdings[userID] == nil {
		s.holdings[userID] = map[models.CardKey]int64{}
	}
	s.holdings[userID][key] += qty
}

func (s *memStore) GetOffer(_ context.Context, tradeID string) (*models.TradeOffer, error) {
	o, ok := s.offers[tradeID]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "trade", ID: tradeID}
	}
	cp := *o
	return &cp, nil
}

func (s *memStore) ListOffers(_ context.Context, userID int64, status models.TradeStatus) ([]*models.TradeOffer, error) {
	var out []*models.TradeOffer
	for _, o := range s.offers {
		if o.InitiatorID != userID && o.RecipientID != userID {
			continue
		}
		if status != "" && o.Status != status {
			continue
		}
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (s *memStore) Holdings(_ context.Context, userID int64, keys []models.CardKey) (map[models.CardKey]int64, error) {
	out := make(map[models.CardKey]int64, len(keys))
	for _, k := range keys {
		out[k] = s.holdings[userID][k]
	}
	return out, nil
}

func (s *memStore) UserExists(_ context.Context, userID int64) (bool, error) {
	return s.users[userID], nil
}

func (s *memStore) ExpireOverdue(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, o := range s.offers {
		if o.Status == models.TradePending && o.ExpiresAt.Before(now) {
			o.Status = models.TradeExpired
			n++
		}
	}
	return n, nil
}

func (s *memStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx := &memTx{
		store:    s,
		holdings: map[int64]map[models.CardKey]int64{},
		offers:   map[string]*models.TradeOffer{},
		trades:   map[int64]int64{},
		nextID:   s.nextID,
	}
	for u, h := range s.holdings {
		tx.holdings[u] = map[models.CardKey]int64{}
		for k, v := range h {
			tx.holdings[u][k] = v
		}
	}
	for id, o := range s.offers {
		cp := *o
		tx.offers[id] = &cp
	}
	for k, v := range s.trades {
		tx.trades[k] = v
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.holdings, s.offers, s.trades, s.nextID = tx.holdings, tx.offers, tx.trades, tx.nextID
	return nil
}

type memTx struct {
	store    *memStore
	holdings map[int64]map[models.CardKey]int64
	offers   map[string]*models.TradeOffer
	trades   map[int64]int64
	nextID   int64
}

func (t *memTx) InsertOffer(_ context.Context, offer *models.TradeOffer) error {
	t.nextID++
	offer.ID = t.nextID
	cp := *offer
	t.offers[offer.TradeID] = &cp
	return nil
}

func (t *memTx) LockOffer(_ context.Context, tradeID string) (*models.TradeOffer, error) {
	o, ok := t.offers[tradeID]
	if !ok {
		return nil, &repositories.NotFoundError{Entity: "trade", ID: tradeID}
	}
	return o, nil
}

func (t *memTx) Transition(_ context.Context, offerID int64, status models.TradeStatus) (bool, error) {
	for _, o := range t.offers {
		if o.ID == offerID {
			if o.Status != models.TradePending {
				return false, nil
			}
			o.Status = status
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) LockedQuantity(_ context.Context, userID int64, key models.CardKey) (int64, error) {
	return t.holdings[userID][key], nil
}

func (t *memTx) Take(_ context.Context, userID int64, key models.CardKey, qty int64) error {
	if t.holdings[userID][key] < qty {
		return ErrInsufficientCards
	}
	t.holdings[userID][key] -= qty
	if t.holdings[userID][key] == 0 {
		delete(t.holdings[userID], key)
	}
	return nil
}

func (t *memTx) Give(_ context.Context, userID int64, key models.CardKey, qty int64) error {
	if t.store.failGive {
		return errors.New("connection reset")
	}
	if t.holdings[userID] == nil {
		t.holdings[userID] = map[models.CardKey]int64{}
	}
	t.holdings[userID][key] += qty
	return nil
}

func (t *memTx) CompleteTrade(_ context.Context, userIDs ...int64) error {
	for _, id := range userIDs {
		t.trades[id]++
	}
	return nil
}

type recordingAchievements struct {
	events []services.Event
}

func (r *recordingAchievements) Handle(_ context.Context, ev services.Event) ([]services.Achievement, error) {
	r.events = append(r.events, ev)
	return nil, nil
}

type fixture struct {
	store   *memStore
	events  *recordingAchievements
	manager *Manager
	now     time.Time
}

func newFixture() *fixture {
	f := &fixture{
		store:  newMemStore(),
		events: &recordingAchievements{},
		now:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.manager = NewManager(f.store, f.events, services.NewSanitizer())
	f.manager.now = func() time.Time { return f.now }

	f.store.give(alice, dragon, 3)
	f.store.give(alice, shinyDragon, 1)
	f.store.give(bob, goblin, 2)
	return f
}

// standardOffer has alice give two dragons and a shiny dragon for one goblin.
func (f *fixture) standardOffer(t *testing.T) *models.TradeOffer {
	t.Helper()
	offer, err := f.manager.Create(context.Background(), CreateRequest{
		InitiatorID: alice,
		RecipientID: bob,
		Offered: []Line{
			{CardID: dragon.CardID, Quantity: 2},
			{CardID: shinyDragon.CardID, IsShiny: true, Quantity: 1},
		},
		Requested: []Line{{CardID: goblin.CardID, Quantity: 1}},
		Message:   "<b>deal?</b>",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return offer
}

func snapshot(h map[int64]map[models.CardKey]int64) map[int64]map[models.CardKey]int64 {
	out := map[int64]map[models.CardKey]int64{}
	for u, m := range h {
		out[u] = map[models.CardKey]int64{}
		for k, v := range m {
			out[u][k] = v
		}
	}
	return out
}

func totals(h map[int64]map[models.CardKey]int64) map[models.CardKey]int64 {
	out := map[models.CardKey]int64{}
	for _, m := range h {
		for k, v := range m {
			out[k] += v
		}
	}
	return out
}

func sameHoldings(a, b map[int64]map[models.CardKey]int64) bool {
	for _, u := range []int64{alice, bob, carol} {
		if len(a[u]) != len(b[u]) {
			return false
		}
		for k, v := range a[u] {
			if b[u][k] != v {
				return false
			}
		}
	}
	return true
}

func TestCreate(t *testing.T) {
	f := newFixture()
	offer := f.standardOffer(t)

	if offer.Status != models.TradePending {
		t.Errorf("Status = %s, want PENDING", offer.Status)
	}
	if want := f.now.Add(config.TradeExpiry); !offer.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", offer.ExpiresAt, want)
	}
	if offer.TradeID == "" {
		t.Error("TradeID is empty")
	}
	if offer.Message != "deal?" {
		t.Errorf("Message = %q, want sanitized text", offer.Message)
	}
	if got := len(offer.Lines(models.SideOffered)); got != 2 {
		t.Errorf("offered lines = %d, want 2", got)
	}
	if got := len(offer.Lines(models.SideRequested)); got != 1 {
		t.Errorf("requested lines = %d, want 1", got)
	}
	if _, ok := f.store.offers[offer.TradeID]; !ok {
		t.Error("offer was not stored")
	}
}

func TestCreate_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateRequest
		wantErr error
	}{
		{
			name:    "self trade",
			req:     CreateRequest{InitiatorID: alice, RecipientID: alice, Offered: []Line{{CardID: 10, Quantity: 1}}},
			wantErr: ErrInvalidOffer,
		},
		{
			name:    "empty offer",
			req:     CreateRequest{InitiatorID: alice, RecipientID: bob},
			wantErr: ErrInvalidOffer,
		},
		{
			name:    "zero quantity",
			req:     CreateRequest{InitiatorID: alice, RecipientID: bob, Offered: []Line{{CardID: 10, Quantity: 0}}},
			wantErr: ErrInvalidOffer,
		},
		{
			name:    "unknown recipient",
			req:     CreateRequest{InitiatorID: alice, RecipientID: 99, Offered: []Line{{CardID: 10, Quantity: 1}}},
			wantErr: ErrInvalidOffer,
		},
		{
			name:    "initiator short",
			req:     CreateRequest{InitiatorID: alice, RecipientID: bob, Offered: []Line{{CardID: 10, Quantity: 4}}},
			wantErr: ErrInsufficientCards,
		},
		{
			name:    "shiny is a separate holding",
			req:     CreateRequest{InitiatorID: alice, RecipientID: bob, Offered: []Line{{CardID: 10, IsShiny: true, Quantity: 2}}},
			wantErr: ErrInsufficientCards,
		},
		{
			name:    "recipient short",
			req:     CreateRequest{InitiatorID: alice, RecipientID: bob, Requested: []Line{{CardID: 20, Quantity: 3}}},
			wantErr: ErrInsufficientCards,
		},
		{
			name: "duplicate lines are summed",
			req: CreateRequest{InitiatorID: alice, RecipientID: bob, Offered: []Line{
				{CardID: 10, Quantity: 2},
				{CardID: 10, Quantity: 2},
			}},
			wantErr: ErrInsufficientCards,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			before := snapshot(f.store.holdings)

			_, err := f.manager.Create(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Create() error = %v, want %v", err, tt.wantErr)
			}
			if len(f.store.offers) != 0 {
				t.Errorf("offers stored = %d, want 0", len(f.store.offers))
			}
			if !sameHoldings(before, f.store.holdings) {
				t.Error("holdings changed on rejected create")
			}
		})
	}
}

func TestAccept(t *testing.T) {
	f := newFixture()
	offer := f.standardOffer(t)
	before := totals(f.store.holdings)

	settled, err := f.manager.Accept(context.Background(), bob, offer.TradeID)
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if settled.Status != models.TradeAccepted {
		t.Errorf("Status = %s, want ACCEPTED", settled.Status)
	}
	if got := f.store.offers[offer.TradeID].Status; got != models.TradeAccepted {
		t.Errorf("stored status = %s, want ACCEPTED", got)
	}

	want := map[int64]map[models.CardKey]int64{
		alice: {dragon: 1, goblin: 1},
		bob:   {dragon: 2, shinyDragon: 1, goblin: 1},
	}
	if !sameHoldings(want, f.store.holdings) {
		t.Errorf("holdings = %v, want %v", f.store.holdings, want)
	}
	if _, ok := f.store.holdings[alice][shinyDragon]; ok {
		t.Error("zero holding was not pruned")
	}

	after := totals(f.store.holdings)
	for k, v := range before {
		if after[k] != v {
			t.Errorf("total of %+v = %d, want %d", k, after[k], v)
		}
	}

	if f.store.trades[alice] != 1 || f.store.trades[bob] != 1 {
		t.Errorf("trade counters = %v, want 1 each", f.store.trades)
	}
	if len(f.events.events) != 2 {
		t.Fatalf("events = %d, want 2", len(f.events.events))
	}
	for _, ev := range f.events.events {
		if _, ok := ev.(services.TradeComplete); !ok {
			t.Errorf("event %T, want TradeComplete", ev)
		}
	}
}

func TestAccept_Expired(t *testing.T) {
	f := newFixture()
	offer := f.standardOffer(t)
	before := snapshot(f.store.holdings)

	f.now = f.now.Add(config.TradeExpiry + time.Second)
	got, err := f.manager.Accept(context.Background(), bob, offer.TradeID)
	if !errors.Is(err, ErrTradeExpired) {
		t.Fatalf("Accept() error = %v, want ErrTradeExpired", err)
	}
	if got.Status != models.TradeExpired {
		t.Errorf("returned status = %s, want EXPIRED", got.Status)
	}
	if s := f.store.offers[offer.TradeID].Status; s != models.TradeExpired {
		t.Errorf("stored status = %s, want EXPIRED", s)
	}
	if !sameHoldings(before, f.store.holdings) {
		t.Error("holdings changed on expired accept")
	}
	if len(f.events.events) != 0 {
		t.Errorf("events = %d, want 0", len(f.events.events))
	}
}

func TestAccept_AtDeadline(t *testing.T) {
	f := newFixture()
	offer := f.standardOffer(t)

	f.now = offer.ExpiresAt
	if _, err := f.manager.Accept(context.Background(), bob, offer.TradeID); err != nil {
		t.Fatalf("Accept() at deadline error = %v", err)
	}
}

func TestAccept_NoLongerAvailable(t *testing.T) {
	tests := []struct {
		name  string
		drain func(s *memStore)
	}{
		{"initiator sold offered card", func(s *memStore) { s.holdings[alice][dragon] = 1 }},
		{"recipient traded away requested card", func(s *memStore) { delete(s.holdings[bob], goblin) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			offer := f.standardOffer(t)
			tt.drain(f.store)
			before := snapshot(f.store.holdings)

			got, err := f.manager.Accept(context.Background(), bob, offer.TradeID)
			if !errors.Is(err, ErrNoLongerAvailable) {
				t.Fatalf("Accept() error = %v, want ErrNoLongerAvailable", err)
			}
			if got.Status != models.TradeCancelled {
				t.Errorf("returned status = %s, want CANCELLED", got.Status)
			}
			if s := f.store.offers[offer.TradeID].Status; s != models.TradeCancelled {
				t.Errorf("stored status = %s, want CANCELLED", s)
			}
			if !sameHoldings(before, f.store.holdings) {
				t.Error("holdings changed on failed accept")
			}
			if len(f.store.trades) != 0 {
				t.Errorf("trade counters = %v, want none", f.store.trades)
			}
		})
	}
}

func TestAccept_RollsBackOnWriteFailure(t *testing.T) {
	f := newFixture()
	offer := f.standardOffer(t)
	before := snapshot(f.store.holdings)
	f.store.failGive = true

	if _, err := f.manager.Accept(context.Background(), bob, offer.TradeID); err == nil {
		t.Fatal("Accept() error = nil, want write failure")
	}
	if s := f.store.offers[offer.TradeID].Status; s != models.TradePending {
		t.Errorf("stored status = %s, want PENDING", s)
	}
	if !sameHoldings(before, f.store.holdings) {
		t.Error("holdings changed after rollback")
	}
}

func TestTransitions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		act        func(m *Manager, id string) (*models.TradeOffer, error)
		wantErr    error
		wantStatus models.TradeStatus
	}{
		{
			name:       "initiator cannot accept",
			act:        func(m *Manager, id string) (*models.TradeOffer, error) { return m.Accept(ctx, alice, id) },
			wantErr:    ErrNotParticipant,
			wantStatus: models.TradePending,
		},
		{
			name:       "outsider cannot accept",
			act:        func(m *Manager, id string) (*models.TradeOffer, error) { return m.Accept(ctx, carol, id) },
			wantErr:    ErrNotParticipant,
			wantStatus: models.TradePending,
		},
		{
			name:       "recipient rejects",
			act:        func(m *Manager, id string) (*models.TradeOffer, error) { return m.Reject(ctx, bob, id) },
			wantStatus: models.TradeRejected,
		},
		{
			name:       "initiator cannot reject",
			act:        func(m *Manager, id string) (*models.TradeOffer, error) { return m.Reject(ctx, alice, id) },
			wantErr:    ErrNotParticipant,
			wantStatus: models.TradePending,
		},
		{
			name:       "initiator cancels",
			act:        func(m *Manager, id string) (*models.TradeOffer, error) { return m.Cancel(ctx, alice, id) },
			wantStatus: models.TradeCancelled,
		},
		{
			name:       "recipient cannot cancel",
			act:        func(m *Manager, id string) (*models.TradeOffer, error) { return m.Cancel(ctx, bob, id) },
			wantErr:    ErrNotParticipant,
			wantStatus: models.TradePending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			offer := f.standardOffer(t)
			before := snapshot(f.store.holdings)

			_, err := tt.act(f.manager, offer.TradeID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if s := f.store.offers[offer.TradeID].Status; s != tt.wantStatus {
				t.Errorf("status = %s, want %s", s, tt.wantStatus)
			}
			if !sameHoldings(before, f.store.holdings) {
				t.Error("holdings changed")
			}
		})
	}
}

func TestTerminalStatesAreFinal(t *testing.T) {
	ctx := context.Background()
	closers := map[models.TradeStatus]func(m *Manager, id string) error{
		models.TradeAccepted: func(m *Manager, id string) error { _, err := m.Accept(ctx, bob, id); return err },
		models.TradeRejected: func(m *Manager, id string) error { _, err := m.Reject(ctx, bob, id); return err },
		models.TradeCancelled: func(m *Manager, id string) error {
			_, err := m.Cancel(ctx, alice, id)
			return err
		},
	}

	for status, closeFn := range closers {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture()
			offer := f.standardOffer(t)
			if err := closeFn(f.manager, offer.TradeID); err != nil {
				t.Fatalf("closing trade: %v", err)
			}
			after := snapshot(f.store.holdings)

			if _, err := f.manager.Accept(ctx, bob, offer.TradeID); !errors.Is(err, ErrNotPending) {
				t.Errorf("Accept() error = %v, want ErrNotPending", err)
			}
			if _, err := f.manager.Reject(ctx, bob, offer.TradeID); !errors.Is(err, ErrNotPending) {
				t.Errorf("Reject() error = %v, want ErrNotPending", err)
			}
			if _, err := f.manager.Cancel(ctx, alice, offer.TradeID); !errors.Is(err, ErrNotPending) {
				t.Errorf("Cancel() error = %v, want ErrNotPending", err)
			}
			if s := f.store.offers[offer.TradeID].Status; s != status {
				t.Errorf("status = %s, want %s", s, status)
			}
			if !sameHoldings(after, f.store.holdings) {
				t.Error("holdings changed after terminal state")
			}
		})
	}
}

func TestReject_Expired(t *testing.T) {
	f := newFixture()
	offer := f.standardOffer(t)
	f.now = f.now.Add(48 * time.Hour)

	if _, err := f.manager.Reject(context.Background(), bob, offer.TradeID); !errors.Is(err, ErrTradeExpired) {
		t.Fatalf("Reject() error = %v, want ErrTradeExpired", err)
	}
	if s := f.store.offers[offer.TradeID].Status; s != models.TradeExpired {
		t.Errorf("status = %s, want EXPIRED", s)
	}
}

func TestGetAndList(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	offer := f.standardOffer(t)

	if _, err := f.manager.Get(ctx, carol, offer.TradeID); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("Get() by outsider error = %v, want ErrNotParticipant", err)
	}
	if _, err := f.manager.Get(ctx, alice, "missing"); !repositories.IsNotFound(err) {
		t.Errorf("Get() missing error = %v, want not found", err)
	}

	pending, err := f.manager.List(ctx, bob, models.TradePending)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}

	f.now = f.now.Add(25 * time.Hour)
	pending, err = f.manager.List(ctx, bob, models.TradePending)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending after expiry = %d, want 0", len(pending))
	}

	got, err := f.manager.Get(ctx, alice, offer.TradeID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != models.TradeExpired {
		t.Errorf("Get() status = %s, want EXPIRED", got.Status)
	}
}
