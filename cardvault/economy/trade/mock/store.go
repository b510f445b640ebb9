package mock

import (
	context "context"
	reflect "reflect"
	time "time"

	models "github.com/cardvault/cardvault/cardvault/database/models"
	trade "github.com/cardvault/cardvault/cardvault/economy/trade"
	gomock "go.uber.org/mock/gomock"
)

// MockStore is a mock of Store interface.
type MockStore struct {
	ctrl     *gomock.Controller
	recorder *MockStoreMockRecorder
	isgomock struct{}
}

// MockStoreMockRecorder is the mock recorder for MockStore.
type MockStoreMockRecorder struct {
	mock *MockStore
}

// NewMockStore creates a new mock instance.
func NewMockStore(ctrl *gomock.Controller) *MockStore {
	mock := &MockStore{ctrl: ctrl}
	mock.recorder = &MockStoreMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockStore) EXPECT() *MockStoreMockRecorder {
	return m.recorder
}

// ExpireOverdue mocks base method.
func (m *MockStore) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ExpireOverdue", ctx, now)
	ret0, _ := ret[0].(int64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ExpireOverdue indicates an expected call of ExpireOverdue.
func (mr *MockStoreMockRecorder) ExpireOverdue(ctx, now any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ExpireOverdue", reflect.TypeOf((*MockStore)(nil).ExpireOverdue), ctx, now)
}

// GetOffer mocks base method.
func (m *MockStore) GetOffer(ctx context.Context, tradeID string) (*models.TradeOffer, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetOffer", ctx, tradeID)
	ret0, _ := ret[0].(*models.TradeOffer)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetOffer indicates an expected call of GetOffer.
func (mr *MockStoreMockRecorder) GetOffer(ctx, tradeID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetOffer", reflect.TypeOf((*MockStore)(nil).GetOffer), ctx, tradeID)
}

// Holdings mocks base method.
func (m *MockStore) Holdings(ctx context.Context, userID int64, keys []models.CardKey) (map[models.CardKey]int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Holdings", ctx, userID, keys)
	ret0, _ := ret[0].(map[models.CardKey]int64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Holdings indicates an expected call of Holdings.
func (mr *MockStoreMockRecorder) Holdings(ctx, userID, keys any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Holdings", reflect.TypeOf((*MockStore)(nil).Holdings), ctx, userID, keys)
}

// InTx mocks base method.
func (m *MockStore) InTx(ctx context.Context, fn func(context.Context, trade.Tx) error) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "InTx", ctx, fn)
	ret0, _ := ret[0].(error)
	return ret0
}

// InTx indicates an expected call of InTx.
func (mr *MockStoreMockRecorder) InTx(ctx, fn any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "InTx", reflect.TypeOf((*MockStore)(nil).InTx), ctx, fn)
}

// ListOffers mocks base method.
func (m *MockStore) ListOffers(ctx context.Context, userID int64, status models.TradeStatus) ([]*models.TradeOffer, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListOffers", ctx, userID, status)
	ret0, _ := ret[0].([]*models.TradeOffer)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListOffers indicates an expected call of ListOffers.
func (mr *MockStoreMockRecorder) ListOffers(ctx, userID, status any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListOffers", reflect.TypeOf((*MockStore)(nil).ListOffers), ctx, userID, status)
}

// UserExists mocks base method.
func (m *MockStore) UserExists(ctx context.Context, userID int64) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UserExists", ctx, userID)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// UserExists indicates an expected call of UserExists.
func (mr *MockStoreMockRecorder) UserExists(ctx, userID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UserExists", reflect.TypeOf((*MockStore)(nil).UserExists), ctx, userID)
}

// MockTx is a mock of Tx interface.
type MockTx struct {
	ctrl     *gomock.Controller
	recorder *MockTxMockRecorder
	isgomock struct{}
}

// MockTxMockRecorder is the mock recorder for MockTx.
type MockTxMockRecorder struct {
	mock *MockTx
}

// NewMockTx creates a new mock instance.
func NewMockTx(ctrl *gomock.Controller) *MockTx {
	mock := &MockTx{ctrl: ctrl}
	mock.recorder = &MockTxMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockTx) EXPECT() *MockTxMockRecorder {
	return m.recorder
}

// CompleteTrade mocks base method.
func (m *MockTx) CompleteTrade(ctx context.Context, userIDs ...int64) error {
	m.ctrl.T.Helper()
	varargs := []any{ctx}
	for _, a := range userIDs {
		varargs = append(varargs, a)
	}
	ret := m.ctrl.Call(m, "CompleteTrade", varargs...)
	ret0, _ := ret[0].(error)
	return ret0
}

// CompleteTrade indicates an expected call of CompleteTrade.
func (mr *MockTxMockRecorder) CompleteTrade(ctx any, userIDs ...any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	varargs := append([]any{ctx}, userIDs...)
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CompleteTrade", reflect.TypeOf((*MockTx)(nil).CompleteTrade), varargs...)
}

// Give mocks base method.
func (m *MockTx) Give(ctx context.Context, userID int64, key models.CardKey, qty int64) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Give", ctx, userID, key, qty)
	ret0, _ := ret[0].(error)
	return ret0
}

// Give indicates an expected call of Give.
func (mr *MockTxMockRecorder) Give(ctx, userID, key, qty any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Give", reflect.TypeOf((*MockTx)(nil).Give), ctx, userID, key, qty)
}

// InsertOffer mocks base method.
func (m *MockTx) InsertOffer(ctx context.Context, offer *models.TradeOffer) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "InsertOffer", ctx, offer)
	ret0, _ := ret[0].(error)
	return ret0
}

// InsertOffer indicates an expected call of InsertOffer.
func (mr *MockTxMockRecorder) InsertOffer(ctx, offer any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "InsertOffer", reflect.TypeOf((*MockTx)(nil).InsertOffer), ctx, offer)
}

// LockOffer mocks base method.
func (m *MockTx) LockOffer(ctx context.Context, tradeID string) (*models.TradeOffer, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "LockOffer", ctx, tradeID)
	ret0, _ := ret[0].(*models.TradeOffer)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// LockOffer indicates an expected call of LockOffer.
func (mr *MockTxMockRecorder) LockOffer(ctx, tradeID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "LockOffer", reflect.TypeOf((*MockTx)(nil).LockOffer), ctx, tradeID)
}

// LockedQuantity mocks base method.
func (m *MockTx) LockedQuantity(ctx context.Context, userID int64, key models.CardKey) (int64, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "LockedQuantity", ctx, userID, key)
	ret0, _ := ret[0].(int64)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// LockedQuantity indicates an expected call of LockedQuantity.
func (mr *MockTxMockRecorder) LockedQuantity(ctx, userID, key any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "LockedQuantity", reflect.TypeOf((*MockTx)(nil).LockedQuantity), ctx, userID, key)
}

// Take mocks base method.
func (m *MockTx) Take(ctx context.Context, userID int64, key models.CardKey, qty int64) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Take", ctx, userID, key, qty)
	ret0, _ := ret[0].(error)
	return ret0
}

// Take indicates an expected call of Take.
func (mr *MockTxMockRecorder) Take(ctx, userID, key, qty any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Take", reflect.TypeOf((*MockTx)(nil).Take), ctx, userID, key, qty)
}

// Transition mocks base method.
func (m *MockTx) Transition(ctx context.Context, offerID int64, status models.TradeStatus) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Transition", ctx, offerID, status)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Transition indicates an expected call of Transition.
func (mr *MockTxMockRecorder) Transition(ctx, offerID, status any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Transition", reflect.TypeOf((*MockTx)(nil).Transition), ctx, offerID, status)
}
