// Copyright (c) 2024 Neomantra Corp

package tradecore

import (
	"fmt"

	"github.com/google/uuid"
)

///////////////////////////////////////////////////////////////////////////////
// Identifier types
//
// Each is a distinct type so the compiler catches a TraderId passed where
// a StrategyId is expected. The string-backed ids are built by plain
// conversion; NewInstrumentId builds the composite "$symbol.$venue" id,
// and NewExecutionId/NewEventId mint fresh UUID-backed ids.

type TraderId string
type StrategyId string
type ClientOrderId string
type VenueOrderId string
type PositionId string
type OrderListId string

// ExecutionId uniquely identifies a single fill. Backed by a UUID since
// venues (and our own simulation) must never collide on it.
type ExecutionId string

// NewExecutionId generates a fresh, random ExecutionId.
func NewExecutionId() ExecutionId {
	return ExecutionId(uuid.NewString())
}

// EventId uniquely identifies an OrderEvent/PositionEvent instance.
type EventId string

func NewEventId() EventId {
	return EventId(uuid.NewString())
}

// InstrumentId is "$symbol.$venue", e.g. "ESH4.GLBX".
type InstrumentId struct {
	Symbol string
	Venue  string
}

func NewInstrumentId(symbol, venue string) InstrumentId {
	return InstrumentId{Symbol: symbol, Venue: venue}
}

func (id InstrumentId) String() string {
	return fmt.Sprintf("%s.%s", id.Symbol, id.Venue)
}

func (id InstrumentId) IsEmpty() bool {
	return id.Symbol == "" && id.Venue == ""
}
