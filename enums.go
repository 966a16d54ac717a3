// Copyright (c) 2024 Neomantra Corp
//
// Every enum here is a typed small integer with Type_Value constants and
// a String() method, rather than a generic string-enum package.

package tradecore

// OrderSide
type OrderSide uint8

const (
	OrderSide_Buy OrderSide = iota + 1
	OrderSide_Sell
)

func (s OrderSide) String() string {
	switch s {
	case OrderSide_Buy:
		return "BUY"
	case OrderSide_Sell:
		return "SELL"
	default:
		return "NONE"
	}
}

// Opposite returns the other side, used when a fill flips a position's
// entry side.
func (s OrderSide) Opposite() OrderSide {
	if s == OrderSide_Buy {
		return OrderSide_Sell
	}
	return OrderSide_Buy
}

// Sign returns +1 for Buy, -1 for Sell, used when folding fills into a
// signed net position quantity.
func (s OrderSide) Sign() int64 {
	if s == OrderSide_Sell {
		return -1
	}
	return 1
}

// OrderType
type OrderType uint8

const (
	OrderType_Market OrderType = iota + 1
	OrderType_Limit
	OrderType_StopMarket
	OrderType_StopLimit
	OrderType_MarketToLimit
	OrderType_TrailingStopMarket
)

func (t OrderType) String() string {
	switch t {
	case OrderType_Market:
		return "MARKET"
	case OrderType_Limit:
		return "LIMIT"
	case OrderType_StopMarket:
		return "STOP_MARKET"
	case OrderType_StopLimit:
		return "STOP_LIMIT"
	case OrderType_MarketToLimit:
		return "MARKET_TO_LIMIT"
	case OrderType_TrailingStopMarket:
		return "TRAILING_STOP_MARKET"
	default:
		return "UNKNOWN"
	}
}

// HasTrigger is true for the stop-family order types, which carry a
// trigger price distinct from their (optional) limit price.
func (t OrderType) HasTrigger() bool {
	switch t {
	case OrderType_StopMarket, OrderType_StopLimit, OrderType_TrailingStopMarket:
		return true
	default:
		return false
	}
}

// TimeInForce
type TimeInForce uint8

const (
	TimeInForce_GTC TimeInForce = iota + 1 // good-till-canceled
	TimeInForce_GTD                        // good-till-date
	TimeInForce_DAY
	TimeInForce_IOC // immediate-or-cancel
	TimeInForce_FOK // fill-or-kill
	TimeInForce_AtTheOpen
	TimeInForce_AtTheClose
)

func (tif TimeInForce) String() string {
	switch tif {
	case TimeInForce_GTC:
		return "GTC"
	case TimeInForce_GTD:
		return "GTD"
	case TimeInForce_DAY:
		return "DAY"
	case TimeInForce_IOC:
		return "IOC"
	case TimeInForce_FOK:
		return "FOK"
	case TimeInForce_AtTheOpen:
		return "AT_THE_OPEN"
	case TimeInForce_AtTheClose:
		return "AT_THE_CLOSE"
	default:
		return "UNKNOWN"
	}
}

// OrderStatus is the order FSM's state.
type OrderStatus uint8

const (
	OrderStatus_Initialized OrderStatus = iota + 1
	OrderStatus_Denied
	OrderStatus_Submitted
	OrderStatus_Rejected
	OrderStatus_Accepted
	OrderStatus_PendingUpdate
	OrderStatus_PendingCancel
	OrderStatus_Triggered
	OrderStatus_Canceled
	OrderStatus_Expired
	OrderStatus_PartiallyFilled
	OrderStatus_Filled
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatus_Initialized:
		return "INITIALIZED"
	case OrderStatus_Denied:
		return "DENIED"
	case OrderStatus_Submitted:
		return "SUBMITTED"
	case OrderStatus_Rejected:
		return "REJECTED"
	case OrderStatus_Accepted:
		return "ACCEPTED"
	case OrderStatus_PendingUpdate:
		return "PENDING_UPDATE"
	case OrderStatus_PendingCancel:
		return "PENDING_CANCEL"
	case OrderStatus_Triggered:
		return "TRIGGERED"
	case OrderStatus_Canceled:
		return "CANCELED"
	case OrderStatus_Expired:
		return "EXPIRED"
	case OrderStatus_PartiallyFilled:
		return "PARTIALLY_FILLED"
	case OrderStatus_Filled:
		return "FILLED"
	default:
		return "UNKNOWN"
	}
}

// IsTerminal is true for states an order can never leave.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatus_Denied, OrderStatus_Rejected, OrderStatus_Canceled,
		OrderStatus_Expired, OrderStatus_Filled:
		return true
	default:
		return false
	}
}

// ContingencyType
type ContingencyType uint8

const (
	ContingencyType_None ContingencyType = iota
	ContingencyType_OCO                  // one-cancels-other
	ContingencyType_OTO                  // one-triggers-other
	ContingencyType_OUO                  // one-updates-other
)

func (c ContingencyType) String() string {
	switch c {
	case ContingencyType_OCO:
		return "OCO"
	case ContingencyType_OTO:
		return "OTO"
	case ContingencyType_OUO:
		return "OUO"
	default:
		return "NONE"
	}
}

// LiquiditySide classifies a fill as adding or removing book liquidity.
type LiquiditySide uint8

const (
	LiquiditySide_Maker LiquiditySide = iota + 1
	LiquiditySide_Taker
)

func (l LiquiditySide) String() string {
	if l == LiquiditySide_Maker {
		return "MAKER"
	}
	return "TAKER"
}

// PositionSide
type PositionSide uint8

const (
	PositionSide_Flat PositionSide = iota
	PositionSide_Long
	PositionSide_Short
)

func (s PositionSide) String() string {
	switch s {
	case PositionSide_Long:
		return "LONG"
	case PositionSide_Short:
		return "SHORT"
	default:
		return "FLAT"
	}
}

// PositionSideFromNetQty maps the sign of a signed net quantity to a side:
// net_qty>0 => LONG, <0 => SHORT, =0 => FLAT.
func PositionSideFromNetQty(netQty int64) PositionSide {
	switch {
	case netQty > 0:
		return PositionSide_Long
	case netQty < 0:
		return PositionSide_Short
	default:
		return PositionSide_Flat
	}
}

// OmsType: NETTING collapses fills into one position per instrument;
// HEDGING keeps each open order's fills in a distinct position.
type OmsType uint8

const (
	OmsType_Netting OmsType = iota + 1
	OmsType_Hedging
)

func (o OmsType) String() string {
	if o == OmsType_Hedging {
		return "HEDGING"
	}
	return "NETTING"
}

// PriceType distinguishes which side of the market a bar is built from.
type PriceType uint8

const (
	PriceType_Bid PriceType = iota + 1
	PriceType_Ask
	PriceType_Mid
	PriceType_Last
)

func (p PriceType) String() string {
	switch p {
	case PriceType_Bid:
		return "BID"
	case PriceType_Ask:
		return "ASK"
	case PriceType_Mid:
		return "MID"
	case PriceType_Last:
		return "LAST"
	default:
		return "UNKNOWN"
	}
}

// BarAggregation names the dimension a bar counts along.
type BarAggregation uint8

const (
	BarAggregation_Tick BarAggregation = iota + 1
	BarAggregation_Volume
	BarAggregation_Value
	BarAggregation_Second
	BarAggregation_Minute
	BarAggregation_Hour
	BarAggregation_Day
)

func (a BarAggregation) String() string {
	switch a {
	case BarAggregation_Tick:
		return "TICK"
	case BarAggregation_Volume:
		return "VOLUME"
	case BarAggregation_Value:
		return "VALUE"
	case BarAggregation_Second:
		return "SECOND"
	case BarAggregation_Minute:
		return "MINUTE"
	case BarAggregation_Hour:
		return "HOUR"
	case BarAggregation_Day:
		return "DAY"
	default:
		return "UNKNOWN"
	}
}

// IsTimeBased is true for the wall-clock aggregations (as opposed to
// tick/volume/value count-based ones).
func (a BarAggregation) IsTimeBased() bool {
	switch a {
	case BarAggregation_Second, BarAggregation_Minute, BarAggregation_Hour, BarAggregation_Day:
		return true
	default:
		return false
	}
}

func (a BarAggregation) nanos() int64 {
	const (
		second = int64(1_000_000_000)
		minute = 60 * second
		hour   = 60 * minute
		day    = 24 * hour
	)
	switch a {
	case BarAggregation_Second:
		return second
	case BarAggregation_Minute:
		return minute
	case BarAggregation_Hour:
		return hour
	case BarAggregation_Day:
		return day
	default:
		return 0
	}
}

// AggregationSource: INTERNAL bars are built by the core itself from
// ticks; EXTERNAL bars arrive pre-built from a venue and are merely
// validated/passed through.
type AggregationSource uint8

const (
	AggregationSource_Internal AggregationSource = iota + 1
	AggregationSource_External
)

func (a AggregationSource) String() string {
	if a == AggregationSource_External {
		return "EXTERNAL"
	}
	return "INTERNAL"
}

// BookLevel names order-book fidelity.
type BookLevel uint8

const (
	BookLevel_L1_TBBO BookLevel = iota + 1
	BookLevel_L2_MBP
	BookLevel_L3_MBO
)

func (b BookLevel) String() string {
	switch b {
	case BookLevel_L1_TBBO:
		return "L1_TBBO"
	case BookLevel_L2_MBP:
		return "L2_MBP"
	case BookLevel_L3_MBO:
		return "L3_MBO"
	default:
		return "UNKNOWN"
	}
}
