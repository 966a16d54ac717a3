// Copyright (c) 2024 Neomantra Corp

package tradecore

// L3Book is a market-by-order (MBO) book: every resting order is
// preserved in FIFO order within its price level, addressable by
// VenueOrderId for modify/cancel.
type L3Book struct {
	instrumentId InstrumentId
	bids         []*priceLevel
	asks         []*priceLevel
	byId         map[VenueOrderId]BookOrder
	lastUpdateId uint64
	tsLast       int64
}

func NewL3Book(instrumentId InstrumentId) *L3Book {
	return &L3Book{instrumentId: instrumentId, byId: make(map[VenueOrderId]BookOrder)}
}

func (b *L3Book) InstrumentId() InstrumentId { return b.instrumentId }
func (b *L3Book) Level() BookLevel           { return BookLevel_L3_MBO }

func (b *L3Book) BestBid() (Price, bool) {
	if len(b.bids) == 0 {
		return Price{}, false
	}
	return b.bids[0].price, true
}

func (b *L3Book) BestAsk() (Price, bool) {
	if len(b.asks) == 0 {
		return Price{}, false
	}
	return b.asks[0].price, true
}

func (b *L3Book) Spread() (Price, bool) {
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

func (b *L3Book) levels(side OrderSide) *[]*priceLevel {
	if side == OrderSide_Buy {
		return &b.bids
	}
	return &b.asks
}

// Orders returns the FIFO-ordered resting orders at the given side's best
// level, or nil if that side is empty.
func (b *L3Book) Orders(side OrderSide) []BookOrder {
	levels := *b.levels(side)
	if len(levels) == 0 {
		return nil
	}
	return levels[0].orders
}

func (b *L3Book) ApplyDelta(delta OrderBookDelta) error {
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
		b.modify(delta.Order)
	case BookAction_Delete:
		b.cancel(delta.Order.Id)
	case BookAction_Clear:
		b.bids = nil
		b.asks = nil
		b.byId = make(map[VenueOrderId]BookOrder)
	}
	b.lastUpdateId = delta.UpdateId
	b.tsLast = delta.TsEvent
	return nil
}

func (b *L3Book) add(order BookOrder) {
	if _, exists := b.byId[order.Id]; exists {
		b.cancel(order.Id)
	}
	levels := b.levels(order.Side)
	newLevels, i := insertLevel(*levels, order.Price, order.Side == OrderSide_Buy)
	*levels = newLevels
	(*levels)[i].orders = append((*levels)[i].orders, order)
	b.byId[order.Id] = order
}

// modify changes an existing order's price and/or size by id. A price
// change re-files the order at the back of its new level's queue, losing
// queue priority; a size-only change updates in place.
func (b *L3Book) modify(order BookOrder) {
	existing, ok := b.byId[order.Id]
	if !ok {
		b.add(order)
		return
	}
	if !existing.Price.Equals(order.Price) {
		b.cancel(order.Id)
		b.add(order)
		return
	}
	levels := b.levels(order.Side)
	i := findLevel(*levels, order.Price)
	if i < 0 {
		b.add(order)
		return
	}
	for j, o := range (*levels)[i].orders {
		if o.Id == order.Id {
			(*levels)[i].orders[j].Size = order.Size
			break
		}
	}
	b.byId[order.Id] = order
}

// cancel removes an order by id, removing its level if it becomes empty.
func (b *L3Book) cancel(id VenueOrderId) {
	existing, ok := b.byId[id]
	if !ok {
		return
	}
	levels := b.levels(existing.Side)
	i := findLevel(*levels, existing.Price)
	if i < 0 {
		delete(b.byId, id)
		return
	}
	lvl := (*levels)[i]
	for j, o := range lvl.orders {
		if o.Id == id {
			lvl.orders = append(lvl.orders[:j], lvl.orders[j+1:]...)
			break
		}
	}
	if len(lvl.orders) == 0 {
		*levels = removeLevelAt(*levels, i)
	}
	delete(b.byId, id)
}

func (b *L3Book) ApplySnapshot(snapshot OrderBookSnapshot) error {
	if snapshot.InstrumentId != b.instrumentId {
		return instrumentNotFoundError(snapshot.InstrumentId)
	}
	if snapshot.UpdateId <= b.lastUpdateId && b.lastUpdateId != 0 {
		return nil
	}
	b.bids = nil
	b.asks = nil
	b.byId = make(map[VenueOrderId]BookOrder)
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
// sorted with no duplicate price levels.
func (b *L3Book) CheckIntegrity() error {
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
