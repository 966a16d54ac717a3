// Copyright (c) 2024 Neomantra Corp

package tradecore

import "fmt"

// Sentinel errors, one per error kind in the core's error taxonomy.
// Call sites use errors.Is against these; wrapping helpers below attach
// the offending value without losing the sentinel.
var (
	// Validation
	ErrInvalidPrecision  = fmt.Errorf("precision out of range")
	ErrNegativeQuantity  = fmt.Errorf("negative quantity")
	ErrDisplayQtyTooBig  = fmt.Errorf("display quantity exceeds order quantity")
	ErrMissingExpireTime = fmt.Errorf("GTD order missing expire_time")
	ErrUnknownEnumValue  = fmt.Errorf("unknown enum value")

	// State
	ErrIllegalTransition  = fmt.Errorf("illegal order state transition")
	ErrDuplicateExecution = fmt.Errorf("duplicate execution_id")
	ErrOrderCompleted     = fmt.Errorf("order already in a terminal state")
	ErrPositionClosed     = fmt.Errorf("position already closed")

	// Integrity
	ErrBookCrossed      = fmt.Errorf("order book crossed")
	ErrQuantityOverflow = fmt.Errorf("quantity overflow")
	ErrCurrencyMismatch = fmt.Errorf("currency mismatch")
	ErrStaleUpdate      = fmt.Errorf("stale update_id")

	// NotFound
	ErrInstrumentNotFound = fmt.Errorf("instrument not found")
	ErrTimerNotFound      = fmt.Errorf("timer not found")
	ErrOrderNotFound      = fmt.Errorf("order not found")
	ErrLevelNotFound      = fmt.Errorf("price level not found")

	// Unsupported
	ErrAddUnsupportedOnL1 = fmt.Errorf("add is unsupported on an L1 book")
	ErrInvalidStep        = fmt.Errorf("aggregation step must be > 0")

	// External data
	ErrInvalidBar = fmt.Errorf("invalid bar")
)

func unexpectedPrecisionError(got uint8) error {
	return fmt.Errorf("%w: %d", ErrInvalidPrecision, got)
}

func illegalTransitionError(from OrderStatus, event string) error {
	return fmt.Errorf("%w: from %s on %s", ErrIllegalTransition, from, event)
}

func duplicateExecutionError(id ExecutionId) error {
	return fmt.Errorf("%w: %s", ErrDuplicateExecution, id)
}

func instrumentNotFoundError(id InstrumentId) error {
	return fmt.Errorf("%w: %s", ErrInstrumentNotFound, id)
}
