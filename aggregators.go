// Copyright (c) 2024 Neomantra Corp
//
// Bar aggregators: tick, volume, value, and time variants sharing a
// BarBuilder. Each accumulates ticks into the builder and flushes a Bar
// on its own boundary (a tick count, a volume threshold, a value
// threshold, or a wall-clock interval), then calls the shared handler.

package tradecore

import (
	"fmt"
	"time"
)

// resolveQuote and resolveTrade give every aggregator one shared path from
// a QuoteTick or TradeTick to a (price, size) pair, keyed by
// BarType.PriceType.
func resolveQuote(barType BarType, tick QuoteTick) (Price, Quantity, error) {
	switch barType.PriceType {
	case PriceType_Bid:
		return tick.BidPrice, tick.BidSize, nil
	case PriceType_Ask:
		return tick.AskPrice, tick.AskSize, nil
	case PriceType_Mid:
		mid, err := weightedAvgPrice(tick.BidPrice, 1, tick.AskPrice, 1, 2)
		if err != nil {
			return Price{}, Quantity{}, err
		}
		size, err := QuantityFromFloat((tick.BidSize.AsFloat64()+tick.AskSize.AsFloat64())/2, tick.BidSize.Precision())
		if err != nil {
			size = tick.BidSize
		}
		return mid, size, nil
	default:
		return Price{}, Quantity{}, ErrUnknownEnumValue
	}
}

func resolveTrade(barType BarType, tick TradeTick) (Price, Quantity, error) {
	if barType.PriceType != PriceType_Last {
		return Price{}, Quantity{}, ErrUnknownEnumValue
	}
	return tick.Price, tick.Size, nil
}

///////////////////////////////////////////////////////////////////////////////
// TickBarAggregator

// TickBarAggregator closes a bar once its builder has seen Step updates.
type TickBarAggregator struct {
	barType BarType
	builder *BarBuilder
	step    uint64
	handler BarHandler
}

func NewTickBarAggregator(barType BarType, precision uint8, handler BarHandler) *TickBarAggregator {
	return &TickBarAggregator{
		barType: barType,
		builder: NewBarBuilder(barType, precision),
		step:    barType.Step,
		handler: handler,
	}
}

func (a *TickBarAggregator) HandleQuoteTick(tick QuoteTick) error {
	price, size, err := resolveQuote(a.barType, tick)
	if err != nil {
		return err
	}
	return a.update(price, size, tick.TsEvent)
}

func (a *TickBarAggregator) HandleTradeTick(tick TradeTick) error {
	price, size, err := resolveTrade(a.barType, tick)
	if err != nil {
		return err
	}
	return a.update(price, size, tick.TsEvent)
}

func (a *TickBarAggregator) update(price Price, size Quantity, tsEvent int64) error {
	if !a.builder.Update(price, size, tsEvent) {
		return nil
	}
	if a.builder.Count() == a.step {
		a.close(tsEvent)
	}
	return nil
}

func (a *TickBarAggregator) close(tsEvent int64) {
	bar := a.builder.Build(tsEvent, tsEvent)
	a.builder.Reset()
	if a.handler != nil {
		a.handler(bar)
	}
}

///////////////////////////////////////////////////////////////////////////////
// VolumeBarAggregator

// VolumeBarAggregator closes a bar once cumulative volume reaches Step,
// splitting an overflowing update across bar boundaries.
type VolumeBarAggregator struct {
	barType BarType
	builder *BarBuilder
	step    Quantity
	handler BarHandler
}

func NewVolumeBarAggregator(barType BarType, precision uint8, handler BarHandler) (*VolumeBarAggregator, error) {
	step, err := NewQuantityFromRaw(barType.Step, 0)
	if err != nil {
		return nil, err
	}
	return &VolumeBarAggregator{
		barType: barType,
		builder: NewBarBuilder(barType, precision),
		step:    step,
		handler: handler,
	}, nil
}

func (a *VolumeBarAggregator) HandleQuoteTick(tick QuoteTick) error {
	price, size, err := resolveQuote(a.barType, tick)
	if err != nil {
		return err
	}
	return a.update(price, size, tick.TsEvent)
}

func (a *VolumeBarAggregator) HandleTradeTick(tick TradeTick) error {
	price, size, err := resolveTrade(a.barType, tick)
	if err != nil {
		return err
	}
	return a.update(price, size, tick.TsEvent)
}

func (a *VolumeBarAggregator) update(price Price, size Quantity, tsEvent int64) error {
	if a.builder.HasData() && tsEvent < a.builder.TsLast() {
		return nil
	}
	remainder, err := a.step.Sub(a.builder.Volume())
	if err != nil {
		// volume already at or past step; treat as zero remainder
		zero, _ := NewQuantityFromRaw(0, size.Precision())
		remainder = zero
	}
	if size.Cmp(remainder) <= 0 {
		a.builder.Update(price, size, tsEvent)
		if a.builder.Volume().Equals(a.step) {
			a.close(tsEvent)
		}
		return nil
	}
	a.builder.Update(price, remainder, tsEvent)
	a.close(tsEvent)
	residual, err := size.Sub(remainder)
	if err != nil {
		return err
	}
	return a.update(price, residual, tsEvent)
}

func (a *VolumeBarAggregator) close(tsEvent int64) {
	bar := a.builder.Build(tsEvent, tsEvent)
	a.builder.Reset()
	if a.handler != nil {
		a.handler(bar)
	}
}

///////////////////////////////////////////////////////////////////////////////
// ValueBarAggregator

// ValueBarAggregator closes a bar once cumulative price*size reaches
// Step, splitting an overflowing update's size proportionally to the
// fraction of its value that fits before the threshold. The cumulative
// value itself is a plain float64 running total: it is a trigger
// threshold, never a settled monetary figure, so it does not need
// fixed-point exactness the way Price/Quantity do.
type ValueBarAggregator struct {
	barType        BarType
	builder        *BarBuilder
	step           float64
	cumulativeValue float64
	handler        BarHandler
}

func NewValueBarAggregator(barType BarType, precision uint8, handler BarHandler) *ValueBarAggregator {
	return &ValueBarAggregator{
		barType: barType,
		builder: NewBarBuilder(barType, precision),
		step:    float64(barType.Step),
		handler: handler,
	}
}

func (a *ValueBarAggregator) HandleQuoteTick(tick QuoteTick) error {
	price, size, err := resolveQuote(a.barType, tick)
	if err != nil {
		return err
	}
	return a.update(price, size, tick.TsEvent)
}

func (a *ValueBarAggregator) HandleTradeTick(tick TradeTick) error {
	price, size, err := resolveTrade(a.barType, tick)
	if err != nil {
		return err
	}
	return a.update(price, size, tick.TsEvent)
}

func (a *ValueBarAggregator) update(price Price, size Quantity, tsEvent int64) error {
	if a.builder.HasData() && tsEvent < a.builder.TsLast() {
		return nil
	}
	updateValue := price.AsFloat64() * size.AsFloat64()
	remainderValue := a.step - a.cumulativeValue
	if updateValue <= remainderValue || updateValue == 0 {
		a.builder.Update(price, size, tsEvent)
		a.cumulativeValue += updateValue
		if a.cumulativeValue >= a.step {
			a.close(tsEvent)
		}
		return nil
	}
	splitSize, err := QuantityFromFloat(size.AsFloat64()*(remainderValue/updateValue), size.Precision())
	if err != nil {
		return err
	}
	a.builder.Update(price, splitSize, tsEvent)
	a.cumulativeValue = a.step
	a.close(tsEvent)
	residual, err := size.Sub(splitSize)
	if err != nil {
		return err
	}
	if residual.IsZero() {
		return nil
	}
	return a.update(price, residual, tsEvent)
}

func (a *ValueBarAggregator) close(tsEvent int64) {
	bar := a.builder.Build(tsEvent, tsEvent)
	a.builder.Reset()
	a.cumulativeValue = 0
	if a.handler != nil {
		a.handler(bar)
	}
}

///////////////////////////////////////////////////////////////////////////////
// TimeBarAggregator

// TimeBarAggregator closes bars on wall-clock boundaries scheduled via a
// Clock timer. For an AggregationSource_External BarType, ticks are never
// fed to it; callers instead push pre-built bars through HandleExternalBar.
type TimeBarAggregator struct {
	barType BarType
	builder *BarBuilder
	clock   Clock
	handler BarHandler

	intervalNs      int64
	nextCloseNs     int64
	updatedSinceEmit bool
	buildOnNextTick bool
	pendingCloseNs  int64
	timerName       string
	tsLastExternal  int64

	// immediateGapClose is true under a TestClock: advancing a TestClock
	// to targetNs is an authoritative statement that every boundary up to
	// targetNs has fully elapsed, so a tickless interval closes its
	// carry-forward gap bar immediately rather than waiting for the next
	// tick. Under RealClock, a timer firing merely means wall-clock has
	// reached the boundary; a trade for that interval may still be in
	// flight, so the gap bar is deferred until the next real update
	// confirms nothing arrived (build_on_next_tick).
	immediateGapClose bool
}

// getStartTime aligns nowNs down to the nearest lower intervalNs boundary.
func getStartTime(nowNs, intervalNs int64) int64 {
	if intervalNs <= 0 {
		return nowNs
	}
	return (nowNs / intervalNs) * intervalNs
}

func NewTimeBarAggregator(barType BarType, precision uint8, clock Clock, handler BarHandler) (*TimeBarAggregator, error) {
	if !barType.Aggregation.IsTimeBased() {
		return nil, ErrUnknownEnumValue
	}
	if barType.Step == 0 {
		return nil, ErrInvalidStep
	}
	intervalNs := barType.Aggregation.nanos() * int64(barType.Step)
	start := getStartTime(clock.TimeNs(), intervalNs)
	_, isTestClock := clock.(*TestClock)
	a := &TimeBarAggregator{
		barType:           barType,
		builder:           NewBarBuilder(barType, precision),
		clock:             clock,
		handler:           handler,
		intervalNs:        intervalNs,
		nextCloseNs:       start + intervalNs,
		timerName:         barType.String(),
		immediateGapClose: isTestClock,
	}
	err := clock.SetTimer(a.timerName, time.Duration(intervalNs), a.nextCloseNs, 0, a.onTimer)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *TimeBarAggregator) HandleQuoteTick(tick QuoteTick) error {
	price, size, err := resolveQuote(a.barType, tick)
	if err != nil {
		return err
	}
	return a.applyUpdate(price, size, tick.TsEvent)
}

func (a *TimeBarAggregator) HandleTradeTick(tick TradeTick) error {
	price, size, err := resolveTrade(a.barType, tick)
	if err != nil {
		return err
	}
	return a.applyUpdate(price, size, tick.TsEvent)
}

// applyUpdate implements the TestClock straddle-ordering rule: if the
// update's ts_event is past next_close_ns, the bar must close first
// (using next_close_ns as its ts_event) before the update is applied to
// the new interval; if exactly equal, the update belongs to the closing
// interval and is applied before the close.
func (a *TimeBarAggregator) applyUpdate(price Price, size Quantity, tsEvent int64) error {
	if a.nextCloseNs < tsEvent {
		a.closeAt(a.nextCloseNs)
	}
	a.builder.Update(price, size, tsEvent)
	a.updatedSinceEmit = true
	if a.nextCloseNs == tsEvent {
		a.closeAt(a.nextCloseNs)
	}
	if a.buildOnNextTick {
		a.closeAt(a.pendingCloseNs)
		a.buildOnNextTick = false
	}
	return nil
}

// onTimer fires at the scheduled boundary. If the builder has been
// updated since the last emit, close immediately; otherwise defer to the
// next tick via build_on_next_tick, carrying the stored close time.
func (a *TimeBarAggregator) onTimer(name string, tsEvent int64) {
	if a.updatedSinceEmit || a.immediateGapClose {
		a.closeAt(tsEvent)
		return
	}
	a.buildOnNextTick = true
	a.pendingCloseNs = tsEvent
}

func (a *TimeBarAggregator) closeAt(tsEvent int64) {
	bar := a.builder.Build(tsEvent, tsEvent)
	a.builder.Reset()
	a.updatedSinceEmit = false
	a.buildOnNextTick = false
	a.nextCloseNs += a.intervalNs
	if a.handler != nil {
		a.handler(bar)
	}
}

// HandleExternalBar accepts a bar built by a venue rather than from ticks.
// Valid only for an AggregationSource_External BarType: it re-validates
// OHLC sanity and timestamp order, then forwards straight to handler
// without touching the internal builder.
func (a *TimeBarAggregator) HandleExternalBar(bar Bar) error {
	if a.barType.Source != AggregationSource_External {
		return fmt.Errorf("%w: %s is not an external bar series", ErrInvalidBar, a.barType)
	}
	if bar.BarType != a.barType {
		return fmt.Errorf("%w: bar type %s does not match series %s", ErrInvalidBar, bar.BarType, a.barType)
	}
	if err := validateBarOHLC(bar); err != nil {
		return err
	}
	if bar.TsEvent <= a.tsLastExternal {
		return fmt.Errorf("%w: ts_event %d out of order", ErrInvalidBar, bar.TsEvent)
	}
	a.tsLastExternal = bar.TsEvent
	if a.handler != nil {
		a.handler(bar)
	}
	return nil
}

// validateBarOHLC checks the internal consistency an externally-supplied
// bar must hold: high is the max and low is the min of open/close.
func validateBarOHLC(bar Bar) error {
	if bar.High.LessThan(bar.Open) || bar.High.LessThan(bar.Close) {
		return fmt.Errorf("%w: high below open/close", ErrInvalidBar)
	}
	if bar.Low.GreaterThan(bar.Open) || bar.Low.GreaterThan(bar.Close) {
		return fmt.Errorf("%w: low above open/close", ErrInvalidBar)
	}
	if bar.Low.GreaterThan(bar.High) {
		return fmt.Errorf("%w: low above high", ErrInvalidBar)
	}
	return nil
}
