// Copyright (c) 2024 Neomantra Corp
//
// BarBuilder accumulates OHLCV within the current bar, shared by every
// aggregator variant.

package tradecore

// BarBuilder accumulates OHLCV for one BarType as ticks arrive.
type BarBuilder struct {
	barType BarType

	hasData bool
	open    Price
	high    Price
	low     Price
	close   Price
	volume  Quantity
	count   uint64

	tsLast     int64
	partialSet bool
}

// NewBarBuilder starts the volume at precision 0, so it takes on the size
// precision of the updates added to it (Quantity.Add keeps the higher of
// the two precisions); precision does not affect the volume.
func NewBarBuilder(barType BarType, precision uint8) *BarBuilder {
	zeroQty, _ := NewQuantityFromRaw(0, 0)
	return &BarBuilder{barType: barType, volume: zeroQty}
}

// Update pushes a (price, size, ts_event) observation, rejecting updates
// with ts_event < ts_last per the builder's monotonic-time contract.
// Returns false (no error) if the update was dropped as out-of-order.
func (b *BarBuilder) Update(price Price, size Quantity, tsEvent int64) bool {
	if b.hasData && tsEvent < b.tsLast {
		return false
	}
	if !b.hasData {
		b.open, b.high, b.low, b.close = price, price, price, price
		b.hasData = true
	} else {
		b.close = price
		if price.GreaterThan(b.high) {
			b.high = price
		}
		if price.LessThan(b.low) {
			b.low = price
		}
	}
	if sum, err := b.volume.Add(size); err == nil {
		b.volume = sum
	}
	b.count++
	b.tsLast = tsEvent
	return true
}

// SetPartial seeds the builder's initial OHLCV from a previously partial
// bar, e.g. one rehydrated mid-interval from a catalog. A no-op after the
// first call.
func (b *BarBuilder) SetPartial(partial Bar) {
	if b.partialSet {
		return
	}
	b.open, b.high, b.low, b.close = partial.Open, partial.High, partial.Low, partial.Close
	b.volume = partial.Volume
	b.tsLast = partial.TsEvent
	b.hasData = true
	b.partialSet = true
}

// Build materializes the accumulated state into an immutable Bar.
func (b *BarBuilder) Build(tsEvent, tsInit int64) Bar {
	return Bar{
		BarType: b.barType,
		Open:    b.open,
		High:    b.high,
		Low:     b.low,
		Close:   b.close,
		Volume:  b.volume,
		TsEvent: tsEvent,
		TsInit:  tsInit,
	}
}

// Reset rolls open/high/low to the prior close (carry-forward, so a
// gapless series never has a hole) and zeroes volume and count.
func (b *BarBuilder) Reset() {
	b.open, b.high, b.low = b.close, b.close, b.close
	zero, _ := NewQuantityFromRaw(0, b.volume.Precision())
	b.volume = zero
	b.count = 0
}

func (b *BarBuilder) Count() uint64 { return b.count }
func (b *BarBuilder) HasData() bool { return b.hasData }
func (b *BarBuilder) TsLast() int64 { return b.tsLast }
func (b *BarBuilder) Close() Price  { return b.close }
func (b *BarBuilder) Volume() Quantity { return b.volume }
