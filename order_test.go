package tradecore_test

import (
	tradecore "github.com/nimble-quant/trading-core"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func mustPrice(s string) tradecore.Price {
	p, err := tradecore.PriceFromStr(s)
	Expect(err).NotTo(HaveOccurred())
	return p
}

func mustQuantity(s string) tradecore.Quantity {
	q, err := tradecore.QuantityFromStr(s)
	Expect(err).NotTo(HaveOccurred())
	return q
}

func newInitializedLimitOrder(qty, price string) *tradecore.Order {
	instId := tradecore.NewInstrumentId("ESH4", "GLBX")
	header := tradecore.OrderEventHeader{
		EventId:       tradecore.NewEventId(),
		TraderId:      "TRADER-001",
		StrategyId:    "STRATEGY-001",
		InstrumentId:  instId,
		ClientOrderId: "O-1",
		TsEvent:       1,
		TsInit:        1,
	}
	px := mustPrice(price)
	init := tradecore.OrderInitialized{
		OrderEventHeader: header,
		Side:             tradecore.OrderSide_Buy,
		Type:             tradecore.OrderType_Limit,
		Quantity:         mustQuantity(qty),
		Price:            &px,
		TimeInForce:      tradecore.TimeInForce_GTC,
	}
	order, err := tradecore.OrderFromInit(init)
	Expect(err).NotTo(HaveOccurred())
	return order
}

func fillEvent(order *tradecore.Order, execId tradecore.ExecutionId, lastQty, lastPx string, tsEvent int64) tradecore.OrderFilled {
	return tradecore.OrderFilled{
		OrderEventHeader: tradecore.OrderEventHeader{
			EventId:       tradecore.NewEventId(),
			TraderId:      order.TraderId,
			StrategyId:    order.StrategyId,
			InstrumentId:  order.InstrumentId,
			ClientOrderId: order.ClientOrderId,
			VenueOrderId:  "V-1",
			TsEvent:       tsEvent,
			TsInit:        tsEvent,
		},
		ExecutionId: execId,
		PositionId:  "P-1",
		LastPx:      mustPrice(lastPx),
		LastQty:     mustQuantity(lastQty),
	}
}

var _ = Describe("Order FSM", func() {
	It("transitions Submitted -> Accepted -> partial Filled -> Filled", func() {
		order := newInitializedLimitOrder("10", "100.00")
		Expect(order.Status).To(Equal(tradecore.OrderStatus_Initialized))

		Expect(order.Apply(tradecore.OrderSubmitted{OrderEventHeader: order.Events[0].Header()})).To(Succeed())
		Expect(order.Status).To(Equal(tradecore.OrderStatus_Submitted))

		Expect(order.Apply(tradecore.OrderAccepted{OrderEventHeader: order.Events[0].Header()})).To(Succeed())
		Expect(order.Status).To(Equal(tradecore.OrderStatus_Accepted))

		Expect(order.Apply(fillEvent(order, "E-1", "4", "100.10", 10))).To(Succeed())
		Expect(order.Status).To(Equal(tradecore.OrderStatus_PartiallyFilled))
		Expect(order.FilledQty.String()).To(Equal("4"))

		Expect(order.Apply(fillEvent(order, "E-2", "6", "100.20", 20))).To(Succeed())
		Expect(order.Status).To(Equal(tradecore.OrderStatus_Filled))
		Expect(order.FilledQty.String()).To(Equal("10"))

		// avg_px = (4*100.10 + 6*100.20)/10 = 100.16
		Expect(order.AvgPx).NotTo(BeNil())
		Expect(order.AvgPx.AsFloat64()).To(BeNumerically("~", 100.16, 1e-9))

		// slippage = avg_px - price for a BUY = 100.16 - 100.00 = +0.16
		Expect(order.Slippage).NotTo(BeNil())
		Expect(order.Slippage.AsFloat64()).To(BeNumerically("~", 0.16, 1e-9))
	})

	It("rejects a duplicate execution_id on a second Filled", func() {
		order := newInitializedLimitOrder("10", "100.00")
		Expect(order.Apply(tradecore.OrderSubmitted{OrderEventHeader: order.Events[0].Header()})).To(Succeed())
		Expect(order.Apply(tradecore.OrderAccepted{OrderEventHeader: order.Events[0].Header()})).To(Succeed())

		fill := fillEvent(order, "E-DUP", "4", "100.10", 10)
		Expect(order.Apply(fill)).To(Succeed())
		preStatus, preFilled := order.Status, order.FilledQty

		err := order.Apply(fillEvent(order, "E-DUP", "4", "100.10", 20))
		Expect(err).To(HaveOccurred())
		Expect(err).To(MatchError(tradecore.ErrDuplicateExecution))
		Expect(order.Status).To(Equal(preStatus))
		Expect(order.FilledQty).To(Equal(preFilled))
	})

	It("rejects a transition out of a terminal state", func() {
		order := newInitializedLimitOrder("10", "100.00")
		Expect(order.Apply(tradecore.OrderDenied{OrderEventHeader: order.Events[0].Header(), Reason: "risk"})).To(Succeed())
		Expect(order.Status).To(Equal(tradecore.OrderStatus_Denied))
		Expect(order.IsActive()).To(BeFalse())

		err := order.Apply(tradecore.OrderSubmitted{OrderEventHeader: order.Events[0].Header()})
		Expect(err).To(HaveOccurred())
		Expect(err).To(MatchError(tradecore.ErrOrderCompleted))
	})

	It("keeps leaves_qty + filled_qty == quantity at every step", func() {
		order := newInitializedLimitOrder("10", "100.00")
		Expect(order.Apply(tradecore.OrderSubmitted{OrderEventHeader: order.Events[0].Header()})).To(Succeed())
		Expect(order.Apply(tradecore.OrderAccepted{OrderEventHeader: order.Events[0].Header()})).To(Succeed())
		Expect(order.Apply(fillEvent(order, "E-1", "4", "100.10", 10))).To(Succeed())

		sum, err := order.LeavesQty().Add(order.FilledQty)
		Expect(err).NotTo(HaveOccurred())
		Expect(sum).To(Equal(order.Quantity))
	})
})
