// Copyright (c) 2024 Neomantra Corp
//
// Engine wires orders, positions, books, and bar aggregators together by
// id only, never by pointer, to avoid reference cycles between aggregates.
// It is the thing cmd/tradecore-replay, internal/tuidash, and
// internal/mcpserver all drive.
package engine

import (
	"fmt"
	"sync"

	tradecore "github.com/nimble-quant/trading-core"
)

// Engine is a single-threaded-cooperative session: every method below
// must be called from one goroutine at a time. The mutex exists only to
// guard concurrent *reads* from a TUI/MCP goroutine while a replay loop
// is writing, not to make Engine safe for concurrent writes.
type Engine struct {
	mu sync.RWMutex

	catalog tradecore.InstrumentCatalog
	clock   tradecore.Clock
	omsType tradecore.OmsType

	orders    map[tradecore.ClientOrderId]*tradecore.Order
	positions map[tradecore.PositionId]*tradecore.Position
	books     map[tradecore.InstrumentId]tradecore.Book

	bookLevel map[tradecore.InstrumentId]tradecore.BookLevel

	bars map[tradecore.BarType]*bars

	subscriber tradecore.EventSubscriber
	commission *tradecore.CommissionSchedule
}

type bars struct {
	tick   *tradecore.TickBarAggregator
	volume *tradecore.VolumeBarAggregator
	value  *tradecore.ValueBarAggregator
	time   *tradecore.TimeBarAggregator
}

// New creates an Engine over catalog and clock under omsType, emitting
// order events to subscriber (use tradecore.NullEventSubscriber{} for
// none); positions emit no events. Under OmsType_Hedging each fill's own PositionId names its
// position, as produced by the venue; under OmsType_Netting all fills for
// the same instrument collapse into one position regardless of PositionId.
func New(catalog tradecore.InstrumentCatalog, clock tradecore.Clock, omsType tradecore.OmsType, subscriber tradecore.EventSubscriber) *Engine {
	return &Engine{
		catalog:    catalog,
		clock:      clock,
		omsType:    omsType,
		orders:     make(map[tradecore.ClientOrderId]*tradecore.Order),
		positions:  make(map[tradecore.PositionId]*tradecore.Position),
		books:      make(map[tradecore.InstrumentId]tradecore.Book),
		bookLevel:  make(map[tradecore.InstrumentId]tradecore.BookLevel),
		bars:       make(map[tradecore.BarType]*bars),
		subscriber: subscriber,
	}
}

// SetCommissionSchedule attaches a maker/taker fee schedule: any fill
// applied afterward with a zero Commission gets one computed from the
// schedule and the fill's LiquiditySide before it's folded into the
// order/position. Fills that already carry a nonzero Commission (e.g.
// from a venue that reports its own fees) are left alone.
func (e *Engine) SetCommissionSchedule(schedule tradecore.CommissionSchedule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.commission = &schedule
}

// RegisterBook opens a book for instId at the given level; ticks and
// deltas for that instrument flow to it once registered.
func (e *Engine) RegisterBook(instId tradecore.InstrumentId, level tradecore.BookLevel) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var book tradecore.Book
	switch level {
	case tradecore.BookLevel_L1_TBBO:
		book = tradecore.NewL1Book(instId)
	case tradecore.BookLevel_L2_MBP:
		book = tradecore.NewL2Book(instId)
	case tradecore.BookLevel_L3_MBO:
		book = tradecore.NewL3Book(instId)
	default:
		return tradecore.ErrUnknownEnumValue
	}
	e.books[instId] = book
	e.bookLevel[instId] = level
	return nil
}

// Book returns the registered book for instId, if any.
func (e *Engine) Book(instId tradecore.InstrumentId) (tradecore.Book, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.books[instId]
	return b, ok
}

// Books returns every registered book, for callers that need to list
// top-of-book across the whole session (e.g. the dashboard).
func (e *Engine) Books() []tradecore.Book {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]tradecore.Book, 0, len(e.books))
	for _, b := range e.books {
		out = append(out, b)
	}
	return out
}

// BarTypes returns every registered bar type, for callers enumerating
// available bar series (e.g. the dashboard).
func (e *Engine) BarTypes() []tradecore.BarType {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]tradecore.BarType, 0, len(e.bars))
	for bt := range e.bars {
		out = append(out, bt)
	}
	return out
}

// SubmitOrder places a new order under the FSM's initial state.
func (e *Engine) SubmitOrder(init tradecore.OrderInitialized) (*tradecore.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.catalog.Instrument(init.Header().InstrumentId); !ok {
		return nil, fmt.Errorf("engine: %w: %s", tradecore.ErrInstrumentNotFound, init.Header().InstrumentId)
	}
	order, err := tradecore.OrderFromInit(init)
	if err != nil {
		return nil, err
	}
	order.SetSubscriber(e.subscriber)
	e.orders[init.Header().ClientOrderId] = order
	return order, nil
}

// Order looks up a tracked order by client order id.
func (e *Engine) Order(id tradecore.ClientOrderId) (*tradecore.Order, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	o, ok := e.orders[id]
	return o, ok
}

// ApplyOrderEvent folds event onto its order, and for an OrderFilled event
// also folds the fill onto the order's position (opening one if needed)
// and resolves any contingency siblings once the order reaches a
// terminal state.
func (e *Engine) ApplyOrderEvent(event tradecore.OrderEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, ok := e.orders[event.Header().ClientOrderId]
	if !ok {
		return fmt.Errorf("engine: %w: %s", tradecore.ErrOrderNotFound, event.Header().ClientOrderId)
	}

	if fill, ok := event.(tradecore.OrderFilled); ok {
		event = e.withCommission(fill)
	}

	if err := order.Apply(event); err != nil {
		return err
	}

	e.resolveContingency(order, event.Header())

	fill, ok := event.(tradecore.OrderFilled)
	if !ok {
		return nil
	}
	inst, ok := e.catalog.Instrument(fill.Header().InstrumentId)
	if !ok {
		return fmt.Errorf("engine: %w: %s", tradecore.ErrInstrumentNotFound, fill.Header().InstrumentId)
	}

	key := e.positionKey(fill)
	pos, ok := e.positions[key]
	if !ok {
		newPos, err := tradecore.OpenPosition(inst, key, fill, order.Side)
		if err != nil {
			return err
		}
		e.positions[key] = newPos
		return nil
	}
	return pos.ApplyFill(fill, order.Side)
}

// positionKey picks the map key a fill's position is tracked under: the
// fill's own PositionId under Hedging, or one synthesized per instrument
// under Netting so every fill on that instrument folds into one position.
func (e *Engine) positionKey(fill tradecore.OrderFilled) tradecore.PositionId {
	if e.omsType == tradecore.OmsType_Netting {
		return tradecore.PositionId("NET-" + fill.Header().InstrumentId.String())
	}
	return fill.PositionId
}

// withCommission fills in a fill's Commission from the engine's schedule
// when the caller left it unset, keyed by the fill's LiquiditySide.
func (e *Engine) withCommission(fill tradecore.OrderFilled) tradecore.OrderFilled {
	if e.commission == nil || !fill.Commission.Amount.IsZero() {
		return fill
	}
	commission, err := e.commission.Commission(fill.LastPx, fill.LastQty, fill.LiquiditySide)
	if err != nil {
		return fill
	}
	fill.Commission = commission
	return fill
}

// resolveContingency reacts to order reaching a terminal state by
// canceling or activating its ContingencyIds siblings, per Contingency:
// OCO and OUO cancel every sibling once one order in the group reaches a
// terminal state; OTO activates (Accepts) every still-submitted sibling
// once the triggering order fills.
func (e *Engine) resolveContingency(order *tradecore.Order, from tradecore.OrderEventHeader) {
	if order.Contingency == tradecore.ContingencyType_None || len(order.ContingencyIds) == 0 {
		return
	}
	if !order.Status.IsTerminal() {
		return
	}
	for _, siblingId := range order.ContingencyIds {
		sibling, ok := e.orders[siblingId]
		if !ok || sibling.Status.IsTerminal() {
			continue
		}
		switch order.Contingency {
		case tradecore.ContingencyType_OCO, tradecore.ContingencyType_OUO:
			_ = sibling.Apply(tradecore.OrderCanceled{OrderEventHeader: siblingHeader(sibling, from)})
		case tradecore.ContingencyType_OTO:
			if order.Status == tradecore.OrderStatus_Filled && sibling.Status == tradecore.OrderStatus_Submitted {
				_ = sibling.Apply(tradecore.OrderAccepted{OrderEventHeader: siblingHeader(sibling, from)})
			}
		}
	}
}

// siblingHeader builds an OrderEventHeader for a synthetic event the
// engine raises against sibling, carrying from's timestamps forward.
func siblingHeader(sibling *tradecore.Order, from tradecore.OrderEventHeader) tradecore.OrderEventHeader {
	return tradecore.OrderEventHeader{
		EventId:       tradecore.NewEventId(),
		TraderId:      sibling.TraderId,
		StrategyId:    sibling.StrategyId,
		InstrumentId:  sibling.InstrumentId,
		ClientOrderId: sibling.ClientOrderId,
		VenueOrderId:  sibling.VenueOrderId,
		TsEvent:       from.TsEvent,
		TsInit:        from.TsInit,
	}
}

// Position looks up a tracked position by id.
func (e *Engine) Position(id tradecore.PositionId) (*tradecore.Position, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.positions[id]
	return p, ok
}

// Positions returns every currently open position.
func (e *Engine) Positions() []*tradecore.Position {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*tradecore.Position, 0, len(e.positions))
	for _, p := range e.positions {
		if p.IsOpen() {
			out = append(out, p)
		}
	}
	return out
}

// RegisterBarAggregator attaches one bar aggregator variant for barType,
// chosen by barType.Aggregation, emitting closed bars to handler.
func (e *Engine) RegisterBarAggregator(barType tradecore.BarType, pricePrecision uint8, handler tradecore.BarHandler) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	b := &bars{}
	var err error
	switch {
	case barType.Aggregation == tradecore.BarAggregation_Tick:
		b.tick = tradecore.NewTickBarAggregator(barType, pricePrecision, handler)
	case barType.Aggregation == tradecore.BarAggregation_Volume:
		b.volume, err = tradecore.NewVolumeBarAggregator(barType, pricePrecision, handler)
	case barType.Aggregation == tradecore.BarAggregation_Value:
		b.value = tradecore.NewValueBarAggregator(barType, pricePrecision, handler)
	case barType.Aggregation.IsTimeBased():
		b.time, err = tradecore.NewTimeBarAggregator(barType, pricePrecision, e.clock, handler)
	default:
		err = tradecore.ErrUnknownEnumValue
	}
	if err != nil {
		return err
	}
	e.bars[barType] = b
	return nil
}

// HandleExternalBar forwards a venue-built bar to its registered
// AggregationSource_External time-bar series instead of building one from
// ticks.
func (e *Engine) HandleExternalBar(bar tradecore.Bar) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.bars[bar.BarType]
	if !ok || b.time == nil {
		return fmt.Errorf("engine: %w: no external bar series registered for %s", tradecore.ErrUnknownEnumValue, bar.BarType)
	}
	return b.time.HandleExternalBar(bar)
}

// HandleQuoteTick routes a quote to its book (if any) and every registered
// bar aggregator for its instrument.
func (e *Engine) HandleQuoteTick(tick tradecore.QuoteTick) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if book, ok := e.books[tick.InstrumentId]; ok {
		if l1, ok := book.(*tradecore.L1Book); ok {
			if err := l1.UpdateQuote(tick); err != nil {
				return err
			}
		}
	}
	for barType, b := range e.bars {
		if barType.InstrumentId != tick.InstrumentId {
			continue
		}
		if err := applyQuote(b, tick); err != nil {
			return err
		}
	}
	return nil
}

// HandleTradeTick routes a trade to its book (if any) and every registered
// bar aggregator for its instrument.
func (e *Engine) HandleTradeTick(tick tradecore.TradeTick) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if book, ok := e.books[tick.InstrumentId]; ok {
		if l1, ok := book.(*tradecore.L1Book); ok {
			if err := l1.UpdateTrade(tick); err != nil {
				return err
			}
		}
	}
	for barType, b := range e.bars {
		if barType.InstrumentId != tick.InstrumentId {
			continue
		}
		if err := applyTrade(b, tick); err != nil {
			return err
		}
	}
	return nil
}

// HandleBookDelta applies an incremental book update.
func (e *Engine) HandleBookDelta(delta tradecore.OrderBookDelta) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	book, ok := e.books[delta.InstrumentId]
	if !ok {
		return fmt.Errorf("engine: %w: %s", tradecore.ErrInstrumentNotFound, delta.InstrumentId)
	}
	return book.ApplyDelta(delta)
}

// HandleBookSnapshot replaces a book's full state.
func (e *Engine) HandleBookSnapshot(snapshot tradecore.OrderBookSnapshot) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	book, ok := e.books[snapshot.InstrumentId]
	if !ok {
		return fmt.Errorf("engine: %w: %s", tradecore.ErrInstrumentNotFound, snapshot.InstrumentId)
	}
	return book.ApplySnapshot(snapshot)
}

func applyQuote(b *bars, tick tradecore.QuoteTick) error {
	switch {
	case b.tick != nil:
		return b.tick.HandleQuoteTick(tick)
	case b.volume != nil:
		return b.volume.HandleQuoteTick(tick)
	case b.value != nil:
		return b.value.HandleQuoteTick(tick)
	case b.time != nil:
		return b.time.HandleQuoteTick(tick)
	}
	return nil
}

func applyTrade(b *bars, tick tradecore.TradeTick) error {
	switch {
	case b.tick != nil:
		return b.tick.HandleTradeTick(tick)
	case b.volume != nil:
		return b.volume.HandleTradeTick(tick)
	case b.value != nil:
		return b.value.HandleTradeTick(tick)
	case b.time != nil:
		return b.time.HandleTradeTick(tick)
	}
	return nil
}
