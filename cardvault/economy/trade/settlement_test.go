package trade_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/cardvault/cardvault/cardvault/economy/trade"
	"github.com/cardvault/cardvault/cardvault/economy/trade/mock"
	"go.uber.org/mock/gomock"
)

func pendingOffer() *models.TradeOffer {
	return &models.TradeOffer{
		ID:          7,
		TradeID:     "t-7",
		InitiatorID: 1,
		RecipientID: 2,
		Status:      models.TradePending,
		ExpiresAt:   time.Now().Add(time.Hour),
		Cards: []*models.TradeCard{
			{Side: models.SideRequested, CardID: 5, Quantity: 1},
			{Side: models.SideOffered, CardID: 9, Quantity: 2},
			{Side: models.SideOffered, CardID: 3, IsShiny: true, Quantity: 1},
		},
	}
}

func runTx(store *mock.MockStore, tx *mock.MockTx) {
	store.EXPECT().
		InTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context, trade.Tx) error) error {
			return fn(ctx, tx)
		})
}

func TestAccept_LocksHoldingsInOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockStore(ctrl)
	tx := mock.NewMockTx(ctrl)
	runTx(store, tx)

	offer := pendingOffer()
	tx.EXPECT().LockOffer(gomock.Any(), "t-7").Return(offer, nil)

	gomock.InOrder(
		tx.EXPECT().LockedQuantity(gomock.Any(), int64(1), models.CardKey{CardID: 3, IsShiny: true}).Return(int64(1), nil),
		tx.EXPECT().LockedQuantity(gomock.Any(), int64(1), models.CardKey{CardID: 9}).Return(int64(2), nil),
		tx.EXPECT().LockedQuantity(gomock.Any(), int64(2), models.CardKey{CardID: 5}).Return(int64(4), nil),
	)
	tx.EXPECT().Take(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(3)
	tx.EXPECT().Give(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(3)
	tx.EXPECT().Transition(gomock.Any(), int64(7), models.TradeAccepted).Return(true, nil)
	tx.EXPECT().CompleteTrade(gomock.Any(), int64(1), int64(2)).Return(nil)

	m := trade.NewManager(store, nil, nil)
	got, err := m.Accept(context.Background(), 2, "t-7")
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if got.Status != models.TradeAccepted {
		t.Errorf("Status = %s, want ACCEPTED", got.Status)
	}
}

func TestAccept_ShortfallNeverDecrements(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockStore(ctrl)
	tx := mock.NewMockTx(ctrl)
	runTx(store, tx)

	tx.EXPECT().LockOffer(gomock.Any(), "t-7").Return(pendingOffer(), nil)
	tx.EXPECT().LockedQuantity(gomock.Any(), int64(1), models.CardKey{CardID: 3, IsShiny: true}).Return(int64(0), nil)
	tx.EXPECT().Transition(gomock.Any(), int64(7), models.TradeCancelled).Return(true, nil)
	tx.EXPECT().Take(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	tx.EXPECT().Give(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	m := trade.NewManager(store, nil, nil)
	_, err := m.Accept(context.Background(), 2, "t-7")
	if !errors.Is(err, trade.ErrNoLongerAvailable) {
		t.Fatalf("Accept() error = %v, want ErrNoLongerAvailable", err)
	}
}

func TestAccept_LostRaceIsNotPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockStore(ctrl)
	tx := mock.NewMockTx(ctrl)
	runTx(store, tx)

	tx.EXPECT().LockOffer(gomock.Any(), "t-7").Return(pendingOffer(), nil)
	tx.EXPECT().LockedQuantity(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(10), nil).Times(3)
	tx.EXPECT().Take(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(3)
	tx.EXPECT().Give(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(3)
	tx.EXPECT().Transition(gomock.Any(), int64(7), models.TradeAccepted).Return(false, nil)

	m := trade.NewManager(store, nil, nil)
	if _, err := m.Accept(context.Background(), 2, "t-7"); !errors.Is(err, trade.ErrNotPending) {
		t.Fatalf("Accept() error = %v, want ErrNotPending", err)
	}
}

func TestExpireOverdue(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock.NewMockStore(ctrl)
	store.EXPECT().ExpireOverdue(gomock.Any(), gomock.Any()).Return(int64(3), nil)

	n, err := trade.NewManager(store, nil, nil).ExpireOverdue(context.Background())
	if err != nil {
		t.Fatalf("ExpireOverdue() error = %v", err)
	}
	if n != 3 {
		t.Errorf("expired = %d, want 3", n)
	}
}
