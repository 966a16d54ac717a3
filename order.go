// Copyright (c) 2024 Neomantra Corp
//
// Order aggregate and its finite-state machine. The FSM is a small lookup
// table keyed by (current status, incoming event kind) rather than a
// class hierarchy of per-status behaviors.

package tradecore

import (
	"fmt"
)

// transitionOutcome describes what happens to an order's status for one
// (status, event-kind) pair in the table.
type transitionOutcome struct {
	fixed    OrderStatus // the target status, when neither of the below applies
	rollback bool        // target = order's stored rollback status
	fill     bool        // target is computed from the fill's filled_qty vs quantity
}

var orderTransitionTable = map[OrderStatus]map[string]transitionOutcome{
	OrderStatus_Initialized: {
		"Denied":    {fixed: OrderStatus_Denied},
		"Submitted": {fixed: OrderStatus_Submitted},
	},
	OrderStatus_Submitted: {
		"Rejected":      {fixed: OrderStatus_Rejected},
		"Accepted":      {fixed: OrderStatus_Accepted},
		"PendingCancel": {fixed: OrderStatus_PendingCancel},
		"Canceled":      {fixed: OrderStatus_Canceled},
		"Filled":        {fill: true},
	},
	OrderStatus_Accepted: {
		"PendingUpdate": {fixed: OrderStatus_PendingUpdate},
		"Updated":       {fixed: OrderStatus_Accepted},
		"PendingCancel": {fixed: OrderStatus_PendingCancel},
		"Canceled":      {fixed: OrderStatus_Canceled},
		"Triggered":     {fixed: OrderStatus_Triggered},
		"Expired":       {fixed: OrderStatus_Expired},
		"Filled":        {fill: true},
	},
	OrderStatus_PendingUpdate: {
		"Accepted":      {rollback: true},
		"Updated":       {fixed: OrderStatus_Accepted},
		"PendingCancel": {fixed: OrderStatus_PendingCancel},
		"Canceled":      {fixed: OrderStatus_Canceled},
		"Triggered":     {fixed: OrderStatus_Triggered},
		"Expired":       {fixed: OrderStatus_Expired},
		"Filled":        {fill: true},
	},
	OrderStatus_PendingCancel: {
		"Accepted": {rollback: true},
		"Canceled": {fixed: OrderStatus_Canceled},
		"Expired":  {fixed: OrderStatus_Expired},
		"Filled":   {fill: true},
	},
	OrderStatus_Triggered: {
		"PendingUpdate": {fixed: OrderStatus_PendingUpdate},
		"Updated":       {fixed: OrderStatus_Triggered},
		"PendingCancel": {fixed: OrderStatus_PendingCancel},
		"Canceled":      {fixed: OrderStatus_Canceled},
		"Expired":       {fixed: OrderStatus_Expired},
		"Filled":        {fill: true},
	},
	OrderStatus_PartiallyFilled: {
		"PendingUpdate": {fixed: OrderStatus_PendingUpdate},
		"Updated":       {fixed: OrderStatus_PartiallyFilled},
		"PendingCancel": {fixed: OrderStatus_PendingCancel},
		"Canceled":      {fixed: OrderStatus_Canceled},
		"Expired":       {fixed: OrderStatus_Expired},
		"Filled":        {fill: true},
	},
}

// Order is the event-sourced order aggregate. Mutation only ever happens
// through Apply: every other field is denormalized state recomputed from
// the event log, never set directly by a caller.
type Order struct {
	TraderId      TraderId
	StrategyId    StrategyId
	InstrumentId  InstrumentId
	ClientOrderId ClientOrderId
	VenueOrderId  VenueOrderId
	PositionId    PositionId

	Type           OrderType
	Side           OrderSide
	TimeInForce    TimeInForce
	ExpireTime     *int64
	IsReduceOnly   bool
	Price          *Price
	TriggerPrice   *Price
	TrailingOffset *Price
	DisplayQty     *Quantity

	Status         OrderStatus
	rollbackStatus OrderStatus
	Events         []OrderEvent
	ExecutionIds   []ExecutionId
	execSeen       map[ExecutionId]struct{}

	Quantity  Quantity
	FilledQty Quantity
	AvgPx     *Price
	Slippage  *Price
	TsLast    int64

	OrderListId    OrderListId
	ParentOrderId  ClientOrderId
	ChildOrderIds  []ClientOrderId
	Contingency    ContingencyType
	ContingencyIds []ClientOrderId
	Tags           map[string]string

	subscriber EventSubscriber
}

// OrderFromInit constructs an Order in INITIALIZED status from its
// defining event, validating its fields upfront: display_qty <= quantity,
// and GTD requires an expire_time.
func OrderFromInit(init OrderInitialized) (*Order, error) {
	if init.DisplayQty != nil && init.DisplayQty.Cmp(init.Quantity) > 0 {
		return nil, ErrDisplayQtyTooBig
	}
	if init.TimeInForce == TimeInForce_GTD && init.ExpireTime == nil {
		return nil, ErrMissingExpireTime
	}
	zeroQty, _ := NewQuantityFromRaw(0, init.Quantity.Precision())
	o := &Order{
		TraderId:       init.TraderId,
		StrategyId:     init.StrategyId,
		InstrumentId:   init.InstrumentId,
		ClientOrderId:  init.ClientOrderId,
		PositionId:     init.PositionId,
		Type:           init.Type,
		Side:           init.Side,
		TimeInForce:    init.TimeInForce,
		ExpireTime:     init.ExpireTime,
		IsReduceOnly:   init.IsReduceOnly,
		Price:          init.Price,
		TriggerPrice:   init.TriggerPrice,
		TrailingOffset: init.TrailingOffset,
		DisplayQty:     init.DisplayQty,
		Status:         OrderStatus_Initialized,
		Quantity:       init.Quantity,
		FilledQty:      zeroQty,
		execSeen:       make(map[ExecutionId]struct{}),
		OrderListId:    init.OrderListId,
		ParentOrderId:  init.ParentOrderId,
		Contingency:    init.Contingency,
		ContingencyIds: init.ContingencyIds,
		Tags:           init.Tags,
		TsLast:         init.TsEvent,
	}
	o.Events = append(o.Events, init)
	return o, nil
}

// SetSubscriber attaches the EventSubscriber future Apply calls notify.
func (o *Order) SetSubscriber(sub EventSubscriber) {
	o.subscriber = sub
}

// LeavesQty returns quantity - filled_qty: the size still open to fill.
func (o *Order) LeavesQty() Quantity {
	leaves, err := o.Quantity.Sub(o.FilledQty)
	if err != nil {
		// filled_qty never exceeds quantity if Apply's invariants hold.
		zero, _ := NewQuantityFromRaw(0, o.Quantity.Precision())
		return zero
	}
	return leaves
}

func (o *Order) IsActive() bool {
	return !o.Status.IsTerminal()
}

// Apply appends event to the order's history and updates its denormalized
// fields, enforcing the transition table. It never mutates state on a
// rejected transition.
func (o *Order) Apply(event OrderEvent) error {
	kind := event.eventKind()

	if o.Status.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrOrderCompleted, o.Status)
	}
	row, ok := orderTransitionTable[o.Status]
	if !ok {
		return illegalTransitionError(o.Status, kind)
	}
	outcome, ok := row[kind]
	if !ok {
		return illegalTransitionError(o.Status, kind)
	}

	fromStatus := o.Status
	var newStatus OrderStatus

	switch {
	case outcome.fill:
		filled, ok := event.(OrderFilled)
		if !ok {
			return illegalTransitionError(fromStatus, kind)
		}
		status, err := o.applyFilled(filled)
		if err != nil {
			return err
		}
		newStatus = status
	case outcome.rollback:
		newStatus = o.rollbackStatus
	default:
		newStatus = outcome.fixed
		if err := o.applyTypeSpecific(event); err != nil {
			return err
		}
	}

	if newStatus == OrderStatus_PendingUpdate || newStatus == OrderStatus_PendingCancel {
		o.rollbackStatus = fromStatus
	}
	o.Status = newStatus
	o.Events = append(o.Events, event)
	o.TsLast = event.Header().TsEvent
	if o.VenueOrderId == "" && event.Header().VenueOrderId != "" {
		o.VenueOrderId = event.Header().VenueOrderId
	}
	if o.subscriber != nil {
		o.subscriber.OnEvent(event)
	}
	return nil
}

// applyTypeSpecific handles the per-event-kind mutations that aren't
// status-transition-table-driven: Updated's field rewrites and Expired's
// precondition check.
func (o *Order) applyTypeSpecific(event OrderEvent) error {
	switch e := event.(type) {
	case OrderUpdated:
		if e.Quantity != nil {
			if e.Quantity.Cmp(o.FilledQty) < 0 {
				return fmt.Errorf("%w: quantity %s < filled_qty %s", ErrIllegalTransition, e.Quantity, o.FilledQty)
			}
			o.Quantity = *e.Quantity
		}
		switch {
		case o.Type == OrderType_TrailingStopMarket && o.TrailingOffset != nil && e.Price != nil:
			// For a trailing stop, Updated.Price carries the current
			// reference (market/last) price rather than a limit rewrite;
			// the trigger ratchets toward it by TrailingOffset.
			if err := o.recomputeTrailingTrigger(*e.Price); err != nil {
				return err
			}
		case e.Price != nil:
			// For StopLimit, pre-trigger an Updated.Price rewrites the
			// trigger; post-trigger it rewrites the limit price. Other
			// order types treat Price as the limit price directly.
			if o.Type == OrderType_StopLimit && o.Status != OrderStatus_Triggered {
				o.TriggerPrice = e.Price
			} else {
				o.Price = e.Price
			}
		}
		if e.TriggerPrice != nil {
			o.TriggerPrice = e.TriggerPrice
		}
	case OrderExpired:
		if o.TimeInForce != TimeInForce_GTD {
			return fmt.Errorf("%w: Expired requires GTD, got %s", ErrIllegalTransition, o.TimeInForce)
		}
		if o.ExpireTime == nil || e.TsEvent < *o.ExpireTime {
			return fmt.Errorf("%w: Expired before expire_time", ErrIllegalTransition)
		}
	}
	return nil
}

// recomputeTrailingTrigger ratchets TriggerPrice toward ref by
// TrailingOffset, never loosening: a Sell order's stop only rises as ref
// rises (protecting a long as price climbs), a Buy order's stop only
// falls as ref falls (protecting a short as price drops).
func (o *Order) recomputeTrailingTrigger(ref Price) error {
	candidate, err := trailingCandidate(ref, *o.TrailingOffset, o.Side)
	if err != nil {
		return err
	}
	if o.TriggerPrice == nil {
		o.TriggerPrice = &candidate
		return nil
	}
	switch o.Side {
	case OrderSide_Sell:
		if candidate.GreaterThan(*o.TriggerPrice) {
			o.TriggerPrice = &candidate
		}
	case OrderSide_Buy:
		if candidate.LessThan(*o.TriggerPrice) {
			o.TriggerPrice = &candidate
		}
	}
	return nil
}

func trailingCandidate(ref, offset Price, side OrderSide) (Price, error) {
	if side == OrderSide_Sell {
		return ref.Sub(offset)
	}
	return ref.Add(offset)
}

// applyFilled increments filled_qty, records the execution, recomputes
// avg_px and slippage, and returns the resulting status — PARTIALLY_FILLED
// or FILLED.
func (o *Order) applyFilled(e OrderFilled) (OrderStatus, error) {
	if _, seen := o.execSeen[e.ExecutionId]; seen {
		return 0, duplicateExecutionError(e.ExecutionId)
	}

	prevFilled := o.FilledQty
	newFilled, err := o.FilledQty.Add(e.LastQty)
	if err != nil {
		return 0, err
	}
	if newFilled.Cmp(o.Quantity) > 0 {
		return 0, fmt.Errorf("%w: fill exceeds order quantity", ErrQuantityOverflow)
	}

	// avg_px = (avg_px*filled_qty_prev + last_px*last_qty) / (filled_qty_prev+last_qty)
	var newAvgPx Price
	if prevFilled.IsZero() || o.AvgPx == nil {
		newAvgPx = e.LastPx
	} else {
		var err error
		newAvgPx, err = weightedAvgPrice(*o.AvgPx, int64(prevFilled.Raw()), e.LastPx, int64(e.LastQty.Raw()), int64(newFilled.Raw()))
		if err != nil {
			return 0, err
		}
	}

	o.FilledQty = newFilled
	o.AvgPx = &newAvgPx
	o.execSeen[e.ExecutionId] = struct{}{}
	o.ExecutionIds = append(o.ExecutionIds, e.ExecutionId)

	// slippage = avg_px - price, signed by side, only meaningful for
	// passive (limit-style) orders that carry a reference Price.
	if o.Price != nil {
		var slip Price
		var err error
		if o.Side == OrderSide_Buy {
			slip, err = newAvgPx.Sub(*o.Price)
		} else {
			slip, err = o.Price.Sub(newAvgPx)
		}
		if err == nil {
			o.Slippage = &slip
		}
	}

	if newFilled.Equals(o.Quantity) {
		return OrderStatus_Filled, nil
	}
	return OrderStatus_PartiallyFilled, nil
}
