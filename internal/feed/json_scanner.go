// Copyright (c) 2024 Neomantra Corp
//
// TickFileSource implements tradecore.TickSource over a line-delimited
// JSON tick file, one record per line, using fastjson for field-by-field
// parsing and a bufio.Scanner for the line reader.
//
// Record shape (one JSON object per line):
//
//	{"type":"quote",    "instrument_id":"ESH4.GLBX", "bid_px":"4512.25", "ask_px":"4512.50", "bid_sz":"12", "ask_sz":"9",  "ts_event":"2024-03-15T13:30:00.123Z"}
//	{"type":"trade",    "instrument_id":"ESH4.GLBX", "px":"4512.50", "sz":"3", "side":"BUY", "ts_event":"2024-03-15T13:30:00.456Z"}
//	{"type":"delta",    "instrument_id":"ESH4.GLBX", "action":"ADD", "order_id":"1001", "px":"4512.25", "sz":"5", "side":"BUY", "update_id":42, "ts_event":"..."}
//	{"type":"snapshot", "instrument_id":"ESH4.GLBX", "bids":[{"order_id":"1001","px":"4512.25","sz":"5","side":"BUY"}], "asks":[...], "update_id":41, "ts_event":"..."}
//
// Prices/sizes are JSON strings so the decimal precision in the file is
// preserved exactly, matching tradecore's integer-backed Price/Quantity.
package feed

import (
	"bufio"
	"fmt"
	"io"

	"github.com/relvacode/iso8601"
	"github.com/valyala/fastjson"

	tradecore "github.com/nimble-quant/trading-core"
)

// TickFileSource scans a line-delimited JSON tick file and satisfies
// tradecore.TickSource. Prices/sizes keep the decimal precision written in
// the file; the catalog's precisions are not applied. A record for an
// instrument unknown to catalog ends the scan: Next returns (nil, false)
// and the error is recorded on Err().
type TickFileSource struct {
	scanner *bufio.Scanner
	catalog tradecore.InstrumentCatalog
	parser  fastjson.Parser
	err     error
}

// NewTickFileSource creates a TickFileSource reading from r, resolving
// each tick's instrument against catalog.
func NewTickFileSource(r io.Reader, catalog tradecore.InstrumentCatalog) *TickFileSource {
	return &TickFileSource{
		scanner: bufio.NewScanner(r),
		catalog: catalog,
	}
}

// Err returns the last error encountered by Next, if any.
func (s *TickFileSource) Err() error {
	return s.err
}

// Next implements tradecore.TickSource. It returns one of
// tradecore.QuoteTick, tradecore.TradeTick, tradecore.OrderBookDelta, or
// tradecore.OrderBookSnapshot, or (nil, false) at end of stream or error.
func (s *TickFileSource) Next() (any, bool) {
	for s.scanner.Scan() {
		line := s.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		val, err := s.parser.ParseBytes(line)
		if err != nil {
			s.err = fmt.Errorf("parsing tick line: %w", err)
			return nil, false
		}
		tick, err := s.decode(val)
		if err != nil {
			s.err = err
			return nil, false
		}
		return tick, true
	}
	s.err = s.scanner.Err()
	return nil, false
}

func (s *TickFileSource) decode(val *fastjson.Value) (any, error) {
	kind := string(val.GetStringBytes("type"))
	instId, inst, err := s.resolveInstrument(val)
	if err != nil {
		return nil, err
	}
	tsEvent, err := parseTimestampNs(val, "ts_event")
	if err != nil {
		return nil, err
	}
	tsInit, err := parseTimestampNs(val, "ts_init")
	if err != nil {
		tsInit = tsEvent
	}

	switch kind {
	case "quote":
		return s.decodeQuote(val, instId, inst, tsEvent, tsInit)
	case "trade":
		return s.decodeTrade(val, instId, inst, tsEvent, tsInit)
	case "delta":
		return s.decodeDelta(val, instId, inst, tsEvent, tsInit)
	case "snapshot":
		return s.decodeSnapshot(val, instId, inst, tsEvent, tsInit)
	default:
		return nil, fmt.Errorf("feed: unknown tick type %q", kind)
	}
}

func (s *TickFileSource) resolveInstrument(val *fastjson.Value) (tradecore.InstrumentId, tradecore.Instrument, error) {
	raw := string(val.GetStringBytes("instrument_id"))
	symbol, venue, ok := cutInstrumentId(raw)
	if !ok {
		return tradecore.InstrumentId{}, tradecore.Instrument{}, fmt.Errorf("feed: malformed instrument_id %q", raw)
	}
	id := tradecore.NewInstrumentId(symbol, venue)
	inst, ok := s.catalog.Instrument(id)
	if !ok {
		return tradecore.InstrumentId{}, tradecore.Instrument{}, fmt.Errorf("feed: %w: %s", tradecore.ErrInstrumentNotFound, id)
	}
	return id, inst, nil
}

func (s *TickFileSource) decodeQuote(val *fastjson.Value, id tradecore.InstrumentId, inst tradecore.Instrument, tsEvent, tsInit int64) (tradecore.QuoteTick, error) {
	bidPx, err := parsePrice(val, "bid_px", inst.PricePrecision)
	if err != nil {
		return tradecore.QuoteTick{}, err
	}
	askPx, err := parsePrice(val, "ask_px", inst.PricePrecision)
	if err != nil {
		return tradecore.QuoteTick{}, err
	}
	bidSz, err := parseQuantity(val, "bid_sz", inst.SizePrecision)
	if err != nil {
		return tradecore.QuoteTick{}, err
	}
	askSz, err := parseQuantity(val, "ask_sz", inst.SizePrecision)
	if err != nil {
		return tradecore.QuoteTick{}, err
	}
	return tradecore.QuoteTick{
		InstrumentId: id,
		BidPrice:     bidPx,
		AskPrice:     askPx,
		BidSize:      bidSz,
		AskSize:      askSz,
		TsEvent:      tsEvent,
		TsInit:       tsInit,
	}, nil
}

func (s *TickFileSource) decodeTrade(val *fastjson.Value, id tradecore.InstrumentId, inst tradecore.Instrument, tsEvent, tsInit int64) (tradecore.TradeTick, error) {
	px, err := parsePrice(val, "px", inst.PricePrecision)
	if err != nil {
		return tradecore.TradeTick{}, err
	}
	sz, err := parseQuantity(val, "sz", inst.SizePrecision)
	if err != nil {
		return tradecore.TradeTick{}, err
	}
	side, err := parseOrderSide(string(val.GetStringBytes("side")))
	if err != nil {
		return tradecore.TradeTick{}, err
	}
	return tradecore.TradeTick{
		InstrumentId:  id,
		Price:         px,
		Size:          sz,
		AggressorSide: side,
		TsEvent:       tsEvent,
		TsInit:        tsInit,
	}, nil
}

func (s *TickFileSource) decodeDelta(val *fastjson.Value, id tradecore.InstrumentId, inst tradecore.Instrument, tsEvent, tsInit int64) (tradecore.OrderBookDelta, error) {
	order, err := decodeBookOrder(val, inst.PricePrecision, inst.SizePrecision)
	if err != nil {
		return tradecore.OrderBookDelta{}, err
	}
	action, err := parseBookAction(string(val.GetStringBytes("action")))
	if err != nil {
		return tradecore.OrderBookDelta{}, err
	}
	return tradecore.OrderBookDelta{
		InstrumentId: id,
		Action:       action,
		Order:        order,
		UpdateId:     val.GetUint64("update_id"),
		TsEvent:      tsEvent,
		TsInit:       tsInit,
	}, nil
}

func (s *TickFileSource) decodeSnapshot(val *fastjson.Value, id tradecore.InstrumentId, inst tradecore.Instrument, tsEvent, tsInit int64) (tradecore.OrderBookSnapshot, error) {
	bids, err := decodeBookOrders(val.GetArray("bids"), inst.PricePrecision, inst.SizePrecision)
	if err != nil {
		return tradecore.OrderBookSnapshot{}, err
	}
	asks, err := decodeBookOrders(val.GetArray("asks"), inst.PricePrecision, inst.SizePrecision)
	if err != nil {
		return tradecore.OrderBookSnapshot{}, err
	}
	return tradecore.OrderBookSnapshot{
		InstrumentId: id,
		Bids:         bids,
		Asks:         asks,
		UpdateId:     val.GetUint64("update_id"),
		TsEvent:      tsEvent,
		TsInit:       tsInit,
	}, nil
}

func decodeBookOrders(items []*fastjson.Value, pricePrecision, sizePrecision uint8) ([]tradecore.BookOrder, error) {
	orders := make([]tradecore.BookOrder, 0, len(items))
	for _, item := range items {
		order, err := decodeBookOrder(item, pricePrecision, sizePrecision)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func decodeBookOrder(val *fastjson.Value, pricePrecision, sizePrecision uint8) (tradecore.BookOrder, error) {
	px, err := parsePrice(val, "px", pricePrecision)
	if err != nil {
		return tradecore.BookOrder{}, err
	}
	sz, err := parseQuantity(val, "sz", sizePrecision)
	if err != nil {
		return tradecore.BookOrder{}, err
	}
	side, err := parseOrderSide(string(val.GetStringBytes("side")))
	if err != nil {
		return tradecore.BookOrder{}, err
	}
	return tradecore.BookOrder{
		Id:    tradecore.VenueOrderId(val.GetStringBytes("order_id")),
		Price: px,
		Size:  sz,
		Side:  side,
	}, nil
}

func parsePrice(val *fastjson.Value, field string, _ uint8) (tradecore.Price, error) {
	s := string(val.GetStringBytes(field))
	return tradecore.PriceFromStr(s)
}

func parseQuantity(val *fastjson.Value, field string, _ uint8) (tradecore.Quantity, error) {
	s := string(val.GetStringBytes(field))
	return tradecore.QuantityFromStr(s)
}

func parseOrderSide(s string) (tradecore.OrderSide, error) {
	switch s {
	case "BUY":
		return tradecore.OrderSide_Buy, nil
	case "SELL":
		return tradecore.OrderSide_Sell, nil
	default:
		return 0, fmt.Errorf("%w: order side %q", tradecore.ErrUnknownEnumValue, s)
	}
}

func parseBookAction(s string) (tradecore.BookAction, error) {
	switch s {
	case "ADD":
		return tradecore.BookAction_Add, nil
	case "UPDATE":
		return tradecore.BookAction_Update, nil
	case "DELETE":
		return tradecore.BookAction_Delete, nil
	case "CLEAR":
		return tradecore.BookAction_Clear, nil
	default:
		return 0, fmt.Errorf("%w: book action %q", tradecore.ErrUnknownEnumValue, s)
	}
}

func parseTimestampNs(val *fastjson.Value, field string) (int64, error) {
	s := string(val.GetStringBytes(field))
	if s == "" {
		return 0, fmt.Errorf("feed: missing %s", field)
	}
	t, err := iso8601.ParseString(s)
	if err != nil {
		return 0, fmt.Errorf("parsing %s %q: %w", field, s, err)
	}
	return t.UnixNano(), nil
}

// cutInstrumentId splits "SYMBOL.VENUE" into its two parts.
func cutInstrumentId(raw string) (symbol, venue string, ok bool) {
	for i := len(raw) - 1; i >= 0; i-- {
		if raw[i] == '.' {
			return raw[:i], raw[i+1:], true
		}
	}
	return "", "", false
}
