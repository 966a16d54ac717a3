// Copyright (c) 2024 Neomantra Corp

package tradecore

// L1Book is a top-of-book (TBBO) view: exactly one bid level and one ask
// level, maintained directly from quote and trade ticks rather than
// individual order adds. add/apply_delta are unsupported at this fidelity.
type L1Book struct {
	instrumentId InstrumentId

	hasBid bool
	hasAsk bool
	bid    Price
	ask    Price
	bidSz  Quantity
	askSz  Quantity

	lastUpdateId uint64
	tsLast       int64
}

func NewL1Book(instrumentId InstrumentId) *L1Book {
	return &L1Book{instrumentId: instrumentId}
}

func (b *L1Book) InstrumentId() InstrumentId { return b.instrumentId }
func (b *L1Book) Level() BookLevel           { return BookLevel_L1_TBBO }

func (b *L1Book) BestBid() (Price, bool) { return b.bid, b.hasBid }
func (b *L1Book) BestAsk() (Price, bool) { return b.ask, b.hasAsk }

func (b *L1Book) Spread() (Price, bool) {
	if !b.hasBid || !b.hasAsk {
		return Price{}, false
	}
	spread, err := b.ask.Sub(b.bid)
	if err != nil {
		return Price{}, false
	}
	return spread, true
}

// UpdateQuote sets both sides directly from a QuoteTick.
func (b *L1Book) UpdateQuote(tick QuoteTick) error {
	if tick.InstrumentId != b.instrumentId {
		return instrumentNotFoundError(tick.InstrumentId)
	}
	if tick.TsEvent < b.tsLast {
		return nil // stale, dropped: ticks must arrive in non-decreasing ts_event order
	}
	b.bid, b.bidSz = tick.BidPrice, tick.BidSize
	b.ask, b.askSz = tick.AskPrice, tick.AskSize
	b.hasBid, b.hasAsk = true, true
	b.tsLast = tick.TsEvent
	return nil
}

// UpdateTrade folds a TradeTick into the book: the aggressor's opposing
// side is updated to the trade price/size, and if that crosses the book,
// the untouched side is forced to match.
func (b *L1Book) UpdateTrade(tick TradeTick) error {
	if tick.InstrumentId != b.instrumentId {
		return instrumentNotFoundError(tick.InstrumentId)
	}
	if tick.TsEvent < b.tsLast {
		return nil
	}
	switch tick.AggressorSide {
	case OrderSide_Sell:
		b.bid, b.bidSz = tick.Price, tick.Size
		b.hasBid = true
	case OrderSide_Buy:
		b.ask, b.askSz = tick.Price, tick.Size
		b.hasAsk = true
	}
	if b.hasBid && b.hasAsk && b.bid.Cmp(b.ask) >= 0 {
		switch tick.AggressorSide {
		case OrderSide_Sell:
			b.ask, b.askSz = b.bid, b.bidSz
		case OrderSide_Buy:
			b.bid, b.bidSz = b.ask, b.askSz
		}
	}
	b.tsLast = tick.TsEvent
	return nil
}

// ApplyDelta is unsupported at L1 fidelity: individual order adds/
// updates/deletes have no meaning against a single aggregated level.
func (b *L1Book) ApplyDelta(delta OrderBookDelta) error {
	return ErrAddUnsupportedOnL1
}

// ApplySnapshot seeds the book from a snapshot's best bid/ask, taking the
// first (best) entry of each side.
func (b *L1Book) ApplySnapshot(snapshot OrderBookSnapshot) error {
	if snapshot.InstrumentId != b.instrumentId {
		return instrumentNotFoundError(snapshot.InstrumentId)
	}
	if snapshot.UpdateId <= b.lastUpdateId && b.lastUpdateId != 0 {
		return nil
	}
	if len(snapshot.Bids) > 0 {
		b.bid, b.bidSz = snapshot.Bids[0].Price, snapshot.Bids[0].Size
		b.hasBid = true
	}
	if len(snapshot.Asks) > 0 {
		b.ask, b.askSz = snapshot.Asks[0].Price, snapshot.Asks[0].Size
		b.hasAsk = true
	}
	b.lastUpdateId = snapshot.UpdateId
	b.tsLast = snapshot.TsEvent
	return nil
}

// CheckIntegrity verifies the book is not crossed.
func (b *L1Book) CheckIntegrity() error {
	if b.hasBid && b.hasAsk && b.bid.Cmp(b.ask) >= 0 {
		return ErrBookCrossed
	}
	return nil
}
