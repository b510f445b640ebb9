package services

// Event is something a user did that may unlock achievements.
// The set of implementations is closed: BoosterOpened, TradeComplete and CollectionUpdate.
type Event interface {
	UserID() int64
	isEvent()
}

// BoosterOpened follows a successful booster purchase.
type BoosterOpened struct {
	User int64
}

// TradeComplete is sent once per participant of an accepted trade.
type TradeComplete struct {
	User int64
}

// CollectionUpdate covers any other change to a user's collection.
type CollectionUpdate struct {
	User int64
}

func (e BoosterOpened) UserID() int64    { return e.User }
func (e TradeComplete) UserID() int64    { return e.User }
func (e CollectionUpdate) UserID() int64 { return e.User }

func (BoosterOpened) isEvent()    {}
func (TradeComplete) isEvent()    {}
func (CollectionUpdate) isEvent() {}
