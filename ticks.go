// Copyright (c) 2024 Neomantra Corp
//
// Tick input types: the core consumes these from an external TickSource
// in non-decreasing ts_event order per stream.

package tradecore

// TickSource yields ticks to the core. Next returns the next tick in
// non-decreasing ts_event order, or (nil, false) at end of stream.
type TickSource interface {
	Next() (any, bool)
}

// QuoteTick is a top-of-book bid/ask snapshot.
type QuoteTick struct {
	InstrumentId InstrumentId
	BidPrice     Price
	AskPrice     Price
	BidSize      Quantity
	AskSize      Quantity
	TsEvent      int64
	TsInit       int64
}

// TradeTick is a single executed trade.
type TradeTick struct {
	InstrumentId InstrumentId
	Price        Price
	Size         Quantity
	AggressorSide OrderSide // which side crossed the spread
	TsEvent      int64
	TsInit       int64
}

// BookOrder is a single resting order as seen by an L2/L3 book.
type BookOrder struct {
	Id    VenueOrderId
	Price Price
	Size  Quantity
	Side  OrderSide
}

// OrderBookDelta is a single add/update/delete/clear applied to a book at
// a monotonically increasing UpdateId; deltas at or below the book's
// last-applied UpdateId are idempotently dropped.
type OrderBookDelta struct {
	InstrumentId InstrumentId
	Action       BookAction
	Order        BookOrder
	UpdateId     uint64
	TsEvent      int64
	TsInit       int64
}

// BookAction classifies an OrderBookDelta.
type BookAction uint8

const (
	BookAction_Add BookAction = iota + 1
	BookAction_Update
	BookAction_Delete
	BookAction_Clear
)

func (a BookAction) String() string {
	switch a {
	case BookAction_Add:
		return "ADD"
	case BookAction_Update:
		return "UPDATE"
	case BookAction_Delete:
		return "DELETE"
	case BookAction_Clear:
		return "CLEAR"
	default:
		return "UNKNOWN"
	}
}

// OrderBookSnapshot replaces a book's full state with the given bid/ask
// orders, establishing a new baseline UpdateId.
type OrderBookSnapshot struct {
	InstrumentId InstrumentId
	Bids         []BookOrder
	Asks         []BookOrder
	UpdateId     uint64
	TsEvent      int64
	TsInit       int64
}
