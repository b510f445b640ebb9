package trade

import "errors"

var (
	// ErrInsufficientCards is a creation-time shortfall on either side.
	ErrInsufficientCards = errors.New("insufficient cards for trade")
	// ErrNoLongerAvailable means holdings changed before settlement; the offer is now CANCELLED.
	ErrNoLongerAvailable = errors.New("cards are no longer available")
	// ErrTradeExpired means the offer passed its deadline; it is now EXPIRED.
	ErrTradeExpired   = errors.New("trade offer has expired")
	ErrNotPending     = errors.New("trade offer is no longer pending")
	ErrNotParticipant = errors.New("user is not allowed to act on this trade")
	ErrInvalidOffer   = errors.New("invalid trade offer")
)
