// Copyright (c) 2024 Neomantra Corp
//
// Position aggregate, folding OrderFilled events into side, quantity,
// average prices, and PnL. Kept decoupled from Order — aggregates
// reference each other only by id, never by pointer — so callers pass
// the trading side alongside each fill rather than Position holding an
// Order reference.

package tradecore

import "math/big"

// Position folds fills for a single (instrument_id, position_id) — or,
// under OmsType_Netting, a single instrument_id — into side, quantity,
// average prices, and PnL.
type Position struct {
	InstrumentId InstrumentId
	PositionId   PositionId
	Instrument   Instrument

	Side    PositionSide
	NetQty  int64 // signed, at Instrument.SizePrecision
	PeakQty uint64
	Entry   OrderSide // side that opened the position currently held

	AvgPxOpen  *Price
	AvgPxClose *Price
	closedQty  int64 // total |qty| closed against AvgPxClose so far

	RealizedPoints float64
	RealizedReturn float64
	RealizedPnl    *Money
	Commissions    MoneyByCurrency

	TsOpened   int64
	TsLast     int64
	TsClosed   int64
	DurationNs int64

	execSeen map[ExecutionId]struct{}
}

// Quantity returns |net_qty| as a Quantity at the instrument's size precision.
func (p *Position) Quantity() Quantity {
	q := abs64(p.NetQty)
	qty, _ := NewQuantityFromRaw(uint64(q), p.Instrument.SizePrecision)
	return qty
}

func (p *Position) IsOpen() bool { return p.Side != PositionSide_Flat }
func (p *Position) IsFlat() bool { return p.Side == PositionSide_Flat }

// OpenPosition seeds a new Position from the fill that opens it and the
// side of the order that generated the fill.
func OpenPosition(inst Instrument, positionId PositionId, fill OrderFilled, side OrderSide) (*Position, error) {
	p := &Position{
		InstrumentId: inst.Id,
		PositionId:   positionId,
		Instrument:   inst,
		execSeen:     make(map[ExecutionId]struct{}),
		Commissions:  make(MoneyByCurrency),
	}
	p.TsOpened = fill.TsEvent
	if err := p.ApplyFill(fill, side); err != nil {
		return nil, err
	}
	return p, nil
}

// ApplyFill folds a fill into the position. side is the side of the
// order that generated the fill (Buy increases net_qty, Sell decreases
// it). Rejects a fill whose execution_id has already been applied.
func (p *Position) ApplyFill(fill OrderFilled, side OrderSide) error {
	if _, seen := p.execSeen[fill.ExecutionId]; seen {
		return duplicateExecutionError(fill.ExecutionId)
	}
	p.execSeen[fill.ExecutionId] = struct{}{}

	signedQty := int64(fill.LastQty.Raw()) * side.Sign()
	prevNetQty := p.NetQty
	prevSide := PositionSideFromNetQty(prevNetQty)
	newSide := PositionSideFromNetQty(signedQty)

	opening := prevSide == PositionSide_Flat || prevSide == newSide

	if opening {
		if prevSide == PositionSide_Flat {
			p.Entry = side
		}
		p.applyOpeningFill(fill, prevNetQty, signedQty)
	} else {
		if err := p.applyClosingFill(fill, prevNetQty, signedQty); err != nil {
			return err
		}
	}

	p.applyCommission(fill)

	p.NetQty = prevNetQty + signedQty
	p.Side = PositionSideFromNetQty(p.NetQty)
	if absQty := uint64(abs64(p.NetQty)); absQty > p.PeakQty {
		p.PeakQty = absQty
	}
	p.TsLast = fill.TsEvent

	if p.Side == PositionSide_Flat {
		p.TsClosed = fill.TsEvent
		p.DurationNs = p.TsClosed - p.TsOpened
	}
	return nil
}

func (p *Position) applyOpeningFill(fill OrderFilled, prevNetQty, signedQty int64) {
	prevAbs := abs64(prevNetQty)
	newAbs := abs64(prevNetQty + signedQty)
	if p.AvgPxOpen == nil {
		px := fill.LastPx
		p.AvgPxOpen = &px
		return
	}
	px, err := weightedAvgPrice(*p.AvgPxOpen, prevAbs, fill.LastPx, abs64(signedQty), newAbs)
	if err != nil {
		return
	}
	p.AvgPxOpen = &px
}

// applyClosingFill handles a fill on the opposite side of the current
// position. If it exceeds the open quantity, the excess flips the
// position: the open amount closes at fill price, and the remainder
// opens a fresh position in the new direction.
func (p *Position) applyClosingFill(fill OrderFilled, prevNetQty, signedQty int64) error {
	prevAbs := abs64(prevNetQty)
	requestedAbs := abs64(signedQty)
	closingAbs := requestedAbs
	if closingAbs > prevAbs {
		closingAbs = prevAbs
	}

	closedQty, _ := NewQuantityFromRaw(uint64(closingAbs), fill.LastQty.Precision())
	points, pnl := p.calculatePnl(*p.AvgPxOpen, fill.LastPx, closedQty, p.Entry)
	p.RealizedPoints += points
	if p.AvgPxOpen.AsFloat64() != 0 {
		p.RealizedReturn = p.RealizedPoints / p.AvgPxOpen.AsFloat64()
	}
	if p.RealizedPnl == nil {
		zero := ZeroMoney(p.Instrument.CostCurrency())
		p.RealizedPnl = &zero
	}
	sum, err := p.RealizedPnl.Add(NewMoney(pnl, p.Instrument.CostCurrency()))
	if err != nil {
		return err
	}
	p.RealizedPnl = &sum

	if p.AvgPxClose == nil {
		px := fill.LastPx
		p.AvgPxClose = &px
	} else {
		px, err := weightedAvgPrice(*p.AvgPxClose, p.closedQty, fill.LastPx, closingAbs, p.closedQty+closingAbs)
		if err != nil {
			return err
		}
		p.AvgPxClose = &px
	}
	p.closedQty += closingAbs

	// A flip: the excess beyond what closed the position opens a fresh
	// position in the new direction, with its own avg_px_open. avg_px_close
	// keeps the price that closed the prior side; closedQty resets so the
	// next close's weighted average doesn't blend across the flip.
	if residual := requestedAbs - closingAbs; residual > 0 {
		px := fill.LastPx
		p.AvgPxOpen = &px
		p.closedQty = 0
		p.Entry = p.Entry.Opposite()
	}
	return nil
}

// calculatePnl switches on Instrument.IsInverse:
//   non-inverse: pnl = qty * multiplier * (close - open) if LONG else (open - close)
//   inverse:     pnl = qty * multiplier * (1/open - 1/close) if LONG else (1/close - 1/open)
// Every step runs as exact big.Rat arithmetic, the same pattern
// weightedAvgPrice uses, and only rounds back to a Price at the very end —
// open/close/qty never pass through a lossy float64 intermediate. points
// is an approximate display figure (price-move per unit), not itself used
// in any further money computation.
func (p *Position) calculatePnl(open, close Price, qty Quantity, entry OrderSide) (points float64, pnl Price) {
	openR := bigRatFromPrice(open)
	closeR := bigRatFromPrice(close)

	var diff *big.Rat
	switch {
	case p.Instrument.IsInverse:
		if open.IsZero() || close.IsZero() {
			zero, _ := NewPriceFromRaw(0, p.Instrument.PricePrecision)
			return 0, zero
		}
		invOpen := new(big.Rat).Inv(openR)
		invClose := new(big.Rat).Inv(closeR)
		if entry == OrderSide_Buy {
			diff = new(big.Rat).Sub(invOpen, invClose)
		} else {
			diff = new(big.Rat).Sub(invClose, invOpen)
		}
	case entry == OrderSide_Buy:
		diff = new(big.Rat).Sub(closeR, openR)
	default:
		diff = new(big.Rat).Sub(openR, closeR)
	}
	points, _ = diff.Float64()

	mult := p.Instrument.Multiplier
	if mult == 0 {
		mult = 1
	}
	pnlR := new(big.Rat).Mul(bigRatFromQuantity(qty), new(big.Rat).SetInt64(mult))
	pnlR.Mul(pnlR, diff)

	px, err := roundRatToPrice(pnlR, p.Instrument.PricePrecision)
	if err != nil {
		zero, _ := NewPriceFromRaw(0, p.Instrument.PricePrecision)
		return points, zero
	}
	return points, px
}

func (p *Position) applyCommission(fill OrderFilled) {
	p.Commissions = p.Commissions.Add(fill.Commission)
	if fill.Commission.Currency != p.Instrument.CostCurrency() {
		return
	}
	if p.RealizedPnl == nil {
		zero := ZeroMoney(p.Instrument.CostCurrency())
		p.RealizedPnl = &zero
	}
	diff, err := p.RealizedPnl.Sub(fill.Commission)
	if err == nil {
		p.RealizedPnl = &diff
	}
}

// UnrealizedPnl values the still-open quantity at last.
func (p *Position) UnrealizedPnl(last Price) Money {
	if p.IsFlat() || p.AvgPxOpen == nil {
		return ZeroMoney(p.Instrument.CostCurrency())
	}
	_, pnl := p.calculatePnl(*p.AvgPxOpen, last, p.Quantity(), p.Entry)
	return NewMoney(pnl, p.Instrument.CostCurrency())
}

// TotalPnl = realized + unrealized.
func (p *Position) TotalPnl(last Price) Money {
	realized := ZeroMoney(p.Instrument.CostCurrency())
	if p.RealizedPnl != nil {
		realized = *p.RealizedPnl
	}
	unrealized := p.UnrealizedPnl(last)
	total, err := realized.Add(unrealized)
	if err != nil {
		return realized
	}
	return total
}

// NotionalValue = qty * multiplier * last (or / last for inverse), computed
// as exact big.Rat arithmetic and rounded once at the end.
func (p *Position) NotionalValue(last Price) Money {
	currency := p.Instrument.QuoteCurrency
	if p.Instrument.IsInverse {
		currency = p.Instrument.BaseCurrency
	}

	mult := p.Instrument.Multiplier
	if mult == 0 {
		mult = 1
	}
	valueR := new(big.Rat).Mul(bigRatFromQuantity(p.Quantity()), new(big.Rat).SetInt64(mult))

	if p.Instrument.IsInverse {
		if last.IsZero() {
			px, _ := NewPriceFromRaw(0, p.Instrument.PricePrecision)
			return NewMoney(px, currency)
		}
		valueR.Quo(valueR, bigRatFromPrice(last))
	} else {
		valueR.Mul(valueR, bigRatFromPrice(last))
	}

	px, err := roundRatToPrice(valueR, p.Instrument.PricePrecision)
	if err != nil {
		px, _ = NewPriceFromRaw(0, p.Instrument.PricePrecision)
	}
	return NewMoney(px, currency)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
