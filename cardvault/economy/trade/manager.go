// Package trade implements trade offers between two users and their settlement.
package trade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cardvault/cardvault/cardvault/config"
	"github.com/cardvault/cardvault/cardvault/database/models"
	"github.com/cardvault/cardvault/cardvault/logger"
	"github.com/cardvault/cardvault/cardvault/services"
	"github.com/google/uuid"
)

// Line is one (card, shininess, quantity) entry of an offer request.
type Line struct {
	CardID   int64 `json:"card_id"`
	IsShiny  bool  `json:"is_shiny"`
	Quantity int64 `json:"quantity"`
}

type CreateRequest struct {
	InitiatorID int64
	RecipientID int64
	Offered     []Line
	Requested   []Line
	Message     string
}

type AchievementHandler interface {
	Handle(ctx context.Context, ev services.Event) ([]services.Achievement, error)
}

type TextSanitizer interface {
	Text(in string, maxRunes int) string
}

type Manager struct {
	store        Store
	achievements AchievementHandler
	sanitizer    TextSanitizer
	now          func() time.Time
}

func NewManager(store Store, achievements AchievementHandler, sanitizer TextSanitizer) *Manager {
	return &Manager{
		store:        store,
		achievements: achievements,
		sanitizer:    sanitizer,
		now:          time.Now,
	}
}

// mergeLines validates quantities and folds duplicate keys together.
func mergeLines(lines []Line) (map[models.CardKey]int64, error) {
	out := make(map[models.CardKey]int64, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidOffer)
		}
		out[models.CardKey{CardID: l.CardID, IsShiny: l.IsShiny}] += l.Quantity
	}
	if len(out) > config.MaxTradeLines {
		return nil, fmt.Errorf("%w: at most %d cards per side", ErrInvalidOffer, config.MaxTradeLines)
	}
	return out, nil
}

func sortedKeys(m map[models.CardKey]int64) []models.CardKey {
	keys := make([]models.CardKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CardID != keys[j].CardID {
			return keys[i].CardID < keys[j].CardID
		}
		return !keys[i].IsShiny && keys[j].IsShiny
	})
	return keys
}

func (m *Manager) checkHoldings(ctx context.Context, userID int64, want map[models.CardKey]int64) error {
	if len(want) == 0 {
		return nil
	}
	keys := sortedKeys(want)
	have, err := m.store.Holdings(ctx, userID, keys)
	if err != nil {
		return fmt.Errorf("failed to load holdings: %w", err)
	}
	for _, k := range keys {
		if have[k] < want[k] {
			return fmt.Errorf("%w: user %d has %d of card %d (shiny=%t), needs %d",
				ErrInsufficientCards, userID, have[k], k.CardID, k.IsShiny, want[k])
		}
	}
	return nil
}

// Create validates both sides against current holdings and stores a PENDING offer.
// The recipient check is advisory; Accept checks again under lock.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*models.TradeOffer, error) {
	if req.InitiatorID == req.RecipientID {
		return nil, fmt.Errorf("%w: cannot trade with yourself", ErrInvalidOffer)
	}
	offered, err := mergeLines(req.Offered)
	if err != nil {
		return nil, err
	}
	requested, err := mergeLines(req.Requested)
	if err != nil {
		return nil, err
	}
	if len(offered) == 0 && len(requested) == 0 {
		return nil, fmt.Errorf("%w: offer is empty", ErrInvalidOffer)
	}

	exists, err := m.store.UserExists(ctx, req.RecipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up recipient: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: recipient %d does not exist", ErrInvalidOffer, req.RecipientID)
	}

	if err := m.checkHoldings(ctx, req.InitiatorID, offered); err != nil {
		return nil, err
	}
	if err := m.checkHoldings(ctx, req.RecipientID, requested); err != nil {
		return nil, err
	}

	message := req.Message
	if m.sanitizer != nil {
		message = m.sanitizer.Text(message, config.MaxTradeMessageLength)
	}

	now := m.now()
	offer := &models.TradeOffer{
		TradeID:     uuid.NewString(),
		InitiatorID: req.InitiatorID,
		RecipientID: req.RecipientID,
		Status:      models.TradePending,
		Message:     message,
		ExpiresAt:   now.Add(config.TradeExpiry),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, k := range sortedKeys(offered) {
		offer.Cards = append(offer.Cards, &models.TradeCard{Side: models.SideOffered, CardID: k.CardID, IsShiny: k.IsShiny, Quantity: offered[k]})
	}
	for _, k := range sortedKeys(requested) {
		offer.Cards = append(offer.Cards, &models.TradeCard{Side: models.SideRequested, CardID: k.CardID, IsShiny: k.IsShiny, Quantity: requested[k]})
	}

	err = m.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.InsertOffer(ctx, offer)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}

	logger.LogGame("Trade offer created",
		slog.String("trade_id", offer.TradeID),
		slog.Int64("initiator_id", offer.InitiatorID),
		slog.Int64("recipient_id", offer.RecipientID),
		slog.Int("lines", len(offer.Cards)))
	return offer, nil
}

// transfer is one movement of cards between owners during settlement.
type transfer struct {
	from, to int64
	key      models.CardKey
	qty      int64
}

func transfers(offer *models.TradeOffer) []transfer {
	out := make([]transfer, 0, len(offer.Cards))
	for _, line := range offer.Cards {
		t := transfer{key: models.CardKey{CardID: line.CardID, IsShiny: line.IsShiny}, qty: line.Quantity}
		if line.Side == models.SideOffered {
			t.from, t.to = offer.InitiatorID, offer.RecipientID
		} else {
			t.from, t.to = offer.RecipientID, offer.InitiatorID
		}
		out = append(out, t)
	}
	// Lock rows in a fixed order so concurrent settlements cannot deadlock.
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.from != b.from {
			return a.from < b.from
		}
		if a.key.CardID != b.key.CardID {
			return a.key.CardID < b.key.CardID
		}
		return !a.key.IsShiny && b.key.IsShiny
	})
	return out
}

// outcome records a terminal transition committed together with an error for the caller.
type outcome struct {
	err error
}

// Accept settles a PENDING offer. All checks run inside one transaction with the offer and
// every affected holding locked. A shortfall commits CANCELLED and an overdue offer commits
// EXPIRED; in both cases no card moves and the matching error is returned.
func (m *Manager) Accept(ctx context.Context, userID int64, tradeID string) (*models.TradeOffer, error) {
	now := m.now()
	var settled *models.TradeOffer
	var result outcome

	err := m.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		offer, err := tx.LockOffer(ctx, tradeID)
		if err != nil {
			return err
		}
		if offer.RecipientID != userID {
			return ErrNotParticipant
		}
		if offer.Status != models.TradePending {
			return fmt.Errorf("%w: status is %s", ErrNotPending, offer.Status)
		}
		settled = offer

		if now.After(offer.ExpiresAt) {
			if _, err := tx.Transition(ctx, offer.ID, models.TradeExpired); err != nil {
				return err
			}
			offer.Status = models.TradeExpired
			result.err = ErrTradeExpired
			return nil
		}

		moves := transfers(offer)
		for _, mv := range moves {
			have, err := tx.LockedQuantity(ctx, mv.from, mv.key)
			if err != nil {
				return err
			}
			if have < mv.qty {
				if _, err := tx.Transition(ctx, offer.ID, models.TradeCancelled); err != nil {
					return err
				}
				offer.Status = models.TradeCancelled
				result.err = fmt.Errorf("%w: user %d has %d of card %d, needs %d",
					ErrNoLongerAvailable, mv.from, have, mv.key.CardID, mv.qty)
				return nil
			}
		}

		for _, mv := range moves {
			if err := tx.Take(ctx, mv.from, mv.key, mv.qty); err != nil {
				return fmt.Errorf("%w: %v", ErrNoLongerAvailable, err)
			}
			if err := tx.Give(ctx, mv.to, mv.key, mv.qty); err != nil {
				return err
			}
		}

		ok, err := tx.Transition(ctx, offer.ID, models.TradeAccepted)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotPending
		}
		offer.Status = models.TradeAccepted
		return tx.CompleteTrade(ctx, offer.InitiatorID, offer.RecipientID)
	})
	if err != nil {
		if !isDomainError(err) {
			logger.LogError("Trade settlement failed", err, slog.String("trade_id", tradeID))
		}
		return nil, err
	}
	if result.err != nil {
		logger.LogGame("Trade closed without transfer",
			slog.String("trade_id", tradeID),
			slog.String("status", string(settled.Status)))
		return settled, result.err
	}

	logger.LogGame("Trade accepted",
		slog.String("trade_id", tradeID),
		slog.Int64("initiator_id", settled.InitiatorID),
		slog.Int64("recipient_id", settled.RecipientID))

	m.notify(ctx, services.TradeComplete{User: settled.InitiatorID})
	m.notify(ctx, services.TradeComplete{User: settled.RecipientID})
	return settled, nil
}

// Reject closes a PENDING offer as REJECTED. Only the recipient may reject.
func (m *Manager) Reject(ctx context.Context, userID int64, tradeID string) (*models.TradeOffer, error) {
	return m.close(ctx, tradeID, models.TradeRejected, func(o *models.TradeOffer) bool {
		return o.RecipientID == userID
	})
}

// Cancel withdraws a PENDING offer as CANCELLED. Only the initiator may cancel.
func (m *Manager) Cancel(ctx context.Context, userID int64, tradeID string) (*models.TradeOffer, error) {
	return m.close(ctx, tradeID, models.TradeCancelled, func(o *models.TradeOffer) bool {
		return o.InitiatorID == userID
	})
}

func (m *Manager) close(ctx context.Context, tradeID string, status models.TradeStatus, allowed func(*models.TradeOffer) bool) (*models.TradeOffer, error) {
	now := m.now()
	var closed *models.TradeOffer
	var result outcome

	err := m.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		offer, err := tx.LockOffer(ctx, tradeID)
		if err != nil {
			return err
		}
		if !allowed(offer) {
			return ErrNotParticipant
		}
		if offer.Status != models.TradePending {
			return fmt.Errorf("%w: status is %s", ErrNotPending, offer.Status)
		}
		closed = offer

		target := status
		if now.After(offer.ExpiresAt) {
			target = models.TradeExpired
			result.err = ErrTradeExpired
		}
		if _, err := tx.Transition(ctx, offer.ID, target); err != nil {
			return err
		}
		offer.Status = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.LogGame("Trade closed",
		slog.String("trade_id", tradeID),
		slog.String("status", string(closed.Status)))
	return closed, result.err
}

// Get returns an offer visible to userID. An overdue PENDING offer is expired on read.
func (m *Manager) Get(ctx context.Context, userID int64, tradeID string) (*models.TradeOffer, error) {
	offer, err := m.store.GetOffer(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if offer.InitiatorID != userID && offer.RecipientID != userID {
		return nil, ErrNotParticipant
	}
	if offer.Status == models.TradePending && m.now().After(offer.ExpiresAt) {
		if _, err := m.ExpireOverdue(ctx); err != nil {
			return nil, err
		}
		offer.Status = models.TradeExpired
	}
	return offer, nil
}

// List returns the user's offers, newest first, after expiring any overdue ones.
func (m *Manager) List(ctx context.Context, userID int64, status models.TradeStatus) ([]*models.TradeOffer, error) {
	if _, err := m.ExpireOverdue(ctx); err != nil {
		return nil, err
	}
	return m.store.ListOffers(ctx, userID, status)
}

// ExpireOverdue marks every overdue PENDING offer EXPIRED.
func (m *Manager) ExpireOverdue(ctx context.Context) (int64, error) {
	n, err := m.store.ExpireOverdue(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire trades: %w", err)
	}
	if n > 0 {
		logger.LogGame("Expired trade offers", slog.Int64("count", n))
	}
	return n, nil
}

func (m *Manager) notify(ctx context.Context, ev services.Event) {
	if m.achievements == nil {
		return
	}
	if _, err := m.achievements.Handle(ctx, ev); err != nil {
		slog.Debug("Failed to evaluate achievements",
			slog.String("type", "game"),
			slog.Int64("user_id", ev.UserID()),
			slog.Any("error", err))
	}
}

func isDomainError(err error) bool {
	for _, target := range []error{ErrNotParticipant, ErrNotPending, ErrNoLongerAvailable, ErrTradeExpired} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
