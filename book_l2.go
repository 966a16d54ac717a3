// Copyright (c) 2024 Neomantra Corp

package tradecore

// L2Book is a market-by-price (MBP) book: price levels hold an
// aggregated size, with no per-order identity preserved. Add/Update/Delete
// find the level to adjust by the BookOrder's price; its id is not used.
// The level itself just tracks a running total.
type L2Book struct {
	instrumentId InstrumentId
	bids         []*priceLevel
	asks         []*priceLevel
	lastUpdateId uint64
	tsLast       int64
}

func NewL2Book(instrumentId InstrumentId) *L2Book {
	return &L2Book{instrumentId: instrumentId}
}

func (b *L2Book) InstrumentId() InstrumentId { return b.instrumentId }
func (b *L2Book) Level() BookLevel           { return BookLevel_L2_MBP }

func (b *L2Book) BestBid() (Price, bool) {
	if len(b.bids) == 0 {
		return Price{}, false
	}
	return b.bids[0].price, true
}

func (b *L2Book) BestAsk() (Price, bool) {
	if len(b.asks) == 0 {
		return Price{}, false
	}
	return b.asks[0].price, true
}

func (b *L2Book) Spread() (Price, bool) {
	bid, okBid := b.BestBid()
	ask, okAsk := b.BestAsk()
	if !okBid || !okAsk {
		return Price{}, false
	}
	spread, err := ask.Sub(bid)
	if err != nil {
		return Price{}, false
	}
	return spread, true
}

// BookLevelView is one price level's aggregated view, as returned by
// L2Book's Bids/Asks iteration.
type BookLevelView struct {
	Price Price
	Size  Quantity
}

// Bids/Asks expose the ordered levels for iteration (best-first).
func (b *L2Book) Bids() []BookLevelView { return levelViews(b.bids) }
func (b *L2Book) Asks() []BookLevelView { return levelViews(b.asks) }

func levelViews(levels []*priceLevel) []BookLevelView {
	out := make([]BookLevelView, len(levels))
	for i, lvl := range levels {
		out[i] = BookLevelView{Price: lvl.price, Size: lvl.size}
	}
	return out
}

func (b *L2Book) levels(side OrderSide) *[]*priceLevel {
	if side == OrderSide_Buy {
		return &b.bids
	}
	return &b.asks
}

// ApplyDelta adds, updates, deletes, or clears a price level's
// aggregated size, per the delta's action, dropping stale update_ids.
func (b *L2Book) ApplyDelta(delta OrderBookDelta) error {
	if delta.InstrumentId != b.instrumentId {
		return instrumentNotFoundError(delta.InstrumentId)
	}
	if delta.UpdateId <= b.lastUpdateId && b.lastUpdateId != 0 {
		return nil
	}
	switch delta.Action {
	case BookAction_Add:
		b.add(delta.Order)
	case BookAction_Update:
		b.update(delta.Order)
	case BookAction_Delete:
		b.delete(delta.Order)
	case BookAction_Clear:
		b.bids = nil
		b.asks = nil
	}
	b.lastUpdateId = delta.UpdateId
	b.tsLast = delta.TsEvent
	return nil
}

func (b *L2Book) add(order BookOrder) {
	levels := b.levels(order.Side)
	newLevels, i := insertLevel(*levels, order.Price, order.Side == OrderSide_Buy)
	*levels = newLevels
	sum, err := (*levels)[i].size.Add(order.Size)
	if err == nil {
		(*levels)[i].size = sum
	} else {
		(*levels)[i].size = order.Size
	}
}

func (b *L2Book) update(order BookOrder) {
	levels := b.levels(order.Side)
	i := findLevel(*levels, order.Price)
	if i < 0 {
		b.add(order)
		return
	}
	(*levels)[i].size = order.Size
}

func (b *L2Book) delete(order BookOrder) {
	levels := b.levels(order.Side)
	i := findLevel(*levels, order.Price)
	if i < 0 {
		return
	}
	remaining, err := (*levels)[i].size.Sub(order.Size)
	if err != nil || remaining.IsZero() {
		*levels = removeLevelAt(*levels, i)
		return
	}
	(*levels)[i].size = remaining
}

// ApplySnapshot replaces the book's full state.
func (b *L2Book) ApplySnapshot(snapshot OrderBookSnapshot) error {
	if snapshot.InstrumentId != b.instrumentId {
		return instrumentNotFoundError(snapshot.InstrumentId)
	}
	if snapshot.UpdateId <= b.lastUpdateId && b.lastUpdateId != 0 {
		return nil
	}
	b.bids = nil
	b.asks = nil
	for _, order := range snapshot.Bids {
		order.Side = OrderSide_Buy
		b.add(order)
	}
	for _, order := range snapshot.Asks {
		order.Side = OrderSide_Sell
		b.add(order)
	}
	b.lastUpdateId = snapshot.UpdateId
	b.tsLast = snapshot.TsEvent
	return nil
}

// CheckIntegrity verifies the book is not crossed and both sides are
// internally sorted with no duplicate price levels.
func (b *L2Book) CheckIntegrity() error {
	if !checkLevelsSorted(b.bids, true) || !checkLevelsSorted(b.asks, false) {
		return ErrBookCrossed
	}
	bestBid, okBid := b.BestBid()
	bestAsk, okAsk := b.BestAsk()
	if okBid && okAsk && bestBid.Cmp(bestAsk) >= 0 {
		return ErrBookCrossed
	}
	return nil
}
