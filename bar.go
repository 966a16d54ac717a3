// Copyright (c) 2024 Neomantra Corp
//
// Bar and BarType: a closed OHLCV interval and the key naming the series
// it belongs to.

package tradecore

import (
	"fmt"
	"strconv"
	"strings"
)

// BarType names the instrument, aggregation kind, step, price type, and
// internal-vs-external source a bar series is built from. String form:
// "{instrument_id}-{step}-{aggregation}-{price_type}-{INTERNAL|EXTERNAL}",
// e.g. "ESH4.GLBX-1-MINUTE-LAST-INTERNAL".
type BarType struct {
	InstrumentId InstrumentId
	Step         uint64
	Aggregation  BarAggregation
	PriceType    PriceType
	Source       AggregationSource
}

func (bt BarType) String() string {
	return fmt.Sprintf("%s-%d-%s-%s-%s", bt.InstrumentId, bt.Step, bt.Aggregation, bt.PriceType, bt.Source)
}

// ParseBarType parses the canonical BarType string form.
func ParseBarType(s string) (BarType, error) {
	parts := strings.Split(s, "-")
	if len(parts) < 5 {
		return BarType{}, fmt.Errorf("%w: malformed bar type %q", ErrUnknownEnumValue, s)
	}
	// instrument_id itself contains a "." but no "-", so the first
	// len(parts)-4 fields (joined back) are the instrument id, save for
	// venues/symbols that never legitimately contain "-".
	instrumentField := strings.Join(parts[:len(parts)-4], "-")
	symbol, venue, ok := strings.Cut(instrumentField, ".")
	if !ok {
		return BarType{}, fmt.Errorf("%w: malformed instrument id in bar type %q", ErrUnknownEnumValue, s)
	}
	tail := parts[len(parts)-4:]
	step, err := strconv.ParseUint(tail[0], 10, 64)
	if err != nil {
		return BarType{}, fmt.Errorf("parsing bar type step %q: %w", s, err)
	}
	aggregation, err := parseBarAggregation(tail[1])
	if err != nil {
		return BarType{}, err
	}
	priceType, err := parsePriceType(tail[2])
	if err != nil {
		return BarType{}, err
	}
	source, err := parseAggregationSource(tail[3])
	if err != nil {
		return BarType{}, err
	}
	return BarType{
		InstrumentId: NewInstrumentId(symbol, venue),
		Step:         step,
		Aggregation:  aggregation,
		PriceType:    priceType,
		Source:       source,
	}, nil
}

func parseBarAggregation(s string) (BarAggregation, error) {
	switch s {
	case "TICK":
		return BarAggregation_Tick, nil
	case "VOLUME":
		return BarAggregation_Volume, nil
	case "VALUE":
		return BarAggregation_Value, nil
	case "SECOND":
		return BarAggregation_Second, nil
	case "MINUTE":
		return BarAggregation_Minute, nil
	case "HOUR":
		return BarAggregation_Hour, nil
	case "DAY":
		return BarAggregation_Day, nil
	default:
		return 0, fmt.Errorf("%w: bar aggregation %q", ErrUnknownEnumValue, s)
	}
}

func parsePriceType(s string) (PriceType, error) {
	switch s {
	case "BID":
		return PriceType_Bid, nil
	case "ASK":
		return PriceType_Ask, nil
	case "MID":
		return PriceType_Mid, nil
	case "LAST":
		return PriceType_Last, nil
	default:
		return 0, fmt.Errorf("%w: price type %q", ErrUnknownEnumValue, s)
	}
}

func parseAggregationSource(s string) (AggregationSource, error) {
	switch s {
	case "INTERNAL":
		return AggregationSource_Internal, nil
	case "EXTERNAL":
		return AggregationSource_External, nil
	default:
		return 0, fmt.Errorf("%w: aggregation source %q", ErrUnknownEnumValue, s)
	}
}

// Bar is an immutable OHLCV tuple over the interval its BarType defines.
type Bar struct {
	BarType BarType
	Open    Price
	High    Price
	Low     Price
	Close   Price
	Volume  Quantity
	TsEvent int64
	TsInit  int64
}

// BarHandler receives bars as aggregators close them.
type BarHandler func(bar Bar)
