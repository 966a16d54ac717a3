// Copyright (c) 2024 Neomantra Corp
//
// OrderEvent sum type: a shared interface plus one struct per concrete
// event, dispatched by a type switch rather than a class hierarchy.

package tradecore

// OrderEventHeader carries the fields every OrderEvent has in common.
type OrderEventHeader struct {
	EventId       EventId
	TraderId      TraderId
	StrategyId    StrategyId
	InstrumentId  InstrumentId
	ClientOrderId ClientOrderId
	VenueOrderId  VenueOrderId // may be empty, e.g. before Accepted
	TsEvent       int64
	TsInit        int64
}

// OrderEvent is implemented by every concrete order-lifecycle event.
type OrderEvent interface {
	Header() OrderEventHeader
	eventKind() string
}

type OrderInitialized struct {
	OrderEventHeader
	Side           OrderSide
	Type           OrderType
	Quantity       Quantity
	Price          *Price // nil for Market
	TriggerPrice   *Price // nil unless Type.HasTrigger()
	TrailingOffset *Price // nil unless TrailingStopMarket
	TimeInForce    TimeInForce
	ExpireTime     *int64 // required iff TimeInForce == GTD
	IsReduceOnly   bool
	DisplayQty     *Quantity
	PositionId     PositionId
	OrderListId    OrderListId
	ParentOrderId  ClientOrderId
	Contingency    ContingencyType
	ContingencyIds []ClientOrderId
	Tags           map[string]string
}

func (e OrderInitialized) Header() OrderEventHeader { return e.OrderEventHeader }
func (e OrderInitialized) eventKind() string        { return "Initialized" }

type OrderDenied struct {
	OrderEventHeader
	Reason string
}

func (e OrderDenied) Header() OrderEventHeader { return e.OrderEventHeader }
func (e OrderDenied) eventKind() string        { return "Denied" }

type OrderSubmitted struct{ OrderEventHeader }

func (e OrderSubmitted) Header() OrderEventHeader { return e.OrderEventHeader }
func (e OrderSubmitted) eventKind() string        { return "Submitted" }

type OrderAccepted struct{ OrderEventHeader }

func (e OrderAccepted) Header() OrderEventHeader { return e.OrderEventHeader }
func (e OrderAccepted) eventKind() string        { return "Accepted" }

type OrderRejected struct {
	OrderEventHeader
	Reason string
}

func (e OrderRejected) Header() OrderEventHeader { return e.OrderEventHeader }
func (e OrderRejected) eventKind() string        { return "Rejected" }

type OrderPendingUpdate struct{ OrderEventHeader }

func (e OrderPendingUpdate) Header() OrderEventHeader { return e.OrderEventHeader }
func (e OrderPendingUpdate) eventKind() string        { return "PendingUpdate" }

type OrderPendingCancel struct{ OrderEventHeader }

func (e OrderPendingCancel) Header() OrderEventHeader { return e.OrderEventHeader }
func (e OrderPendingCancel) eventKind() string        { return "PendingCancel" }

// OrderUpdated carries whichever fields the venue actually rewrote. Price
// and TriggerPrice are independent optionals: a StopLimit pre-trigger
// Updated typically carries only TriggerPrice, post-trigger only Price,
// but a single event may legitimately carry both. For a trailing stop,
// Price instead carries the reference price the trigger trails.
type OrderUpdated struct {
	OrderEventHeader
	Quantity     *Quantity
	Price        *Price
	TriggerPrice *Price
}

func (e OrderUpdated) Header() OrderEventHeader { return e.OrderEventHeader }
func (e OrderUpdated) eventKind() string        { return "Updated" }

type OrderTriggered struct{ OrderEventHeader }

func (e OrderTriggered) Header() OrderEventHeader { return e.OrderEventHeader }
func (e OrderTriggered) eventKind() string        { return "Triggered" }

type OrderCanceled struct{ OrderEventHeader }

func (e OrderCanceled) Header() OrderEventHeader { return e.OrderEventHeader }
func (e OrderCanceled) eventKind() string        { return "Canceled" }

type OrderExpired struct{ OrderEventHeader }

func (e OrderExpired) Header() OrderEventHeader { return e.OrderEventHeader }
func (e OrderExpired) eventKind() string        { return "Expired" }

type OrderFilled struct {
	OrderEventHeader
	ExecutionId   ExecutionId
	PositionId    PositionId
	LastPx        Price
	LastQty       Quantity
	Commission    Money
	LiquiditySide LiquiditySide
}

func (e OrderFilled) Header() OrderEventHeader { return e.OrderEventHeader }
func (e OrderFilled) eventKind() string        { return "Filled" }

// EventSubscriber is the core's output collaborator: orders emit their
// lifecycle events to it. Positions emit no events; a Position holds no
// subscriber.
type EventSubscriber interface {
	OnEvent(event OrderEvent)
}

// NullEventSubscriber discards every event; useful in tests and as a
// zero-value default when no subscriber is wired up.
type NullEventSubscriber struct{}

func (NullEventSubscriber) OnEvent(OrderEvent) {}
