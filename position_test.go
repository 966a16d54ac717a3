package tradecore_test

import (
	tradecore "github.com/nimble-quant/trading-core"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func testInstrument() tradecore.Instrument {
	return tradecore.Instrument{
		Id:             tradecore.NewInstrumentId("ESH4", "GLBX"),
		PricePrecision: 2,
		SizePrecision:  0,
		Multiplier:     1,
		QuoteCurrency:  "USD",
	}
}

func positionFill(execId tradecore.ExecutionId, qty, px string, tsEvent int64) tradecore.OrderFilled {
	return tradecore.OrderFilled{
		OrderEventHeader: tradecore.OrderEventHeader{
			EventId:       tradecore.NewEventId(),
			ClientOrderId: "O-1",
			TsEvent:       tsEvent,
			TsInit:        tsEvent,
		},
		ExecutionId: execId,
		PositionId:  "P-1",
		LastPx:      mustPrice(px),
		LastQty:     mustQuantity(qty),
	}
}

var _ = Describe("Position", func() {
	It("flips from LONG to SHORT, carrying avg_px_close through the flip", func() {
		inst := testInstrument()

		pos, err := tradecore.OpenPosition(inst, "P-1", positionFill("E-1", "5", "10.00", 1), tradecore.OrderSide_Buy)
		Expect(err).NotTo(HaveOccurred())
		Expect(pos.Side).To(Equal(tradecore.PositionSide_Long))
		Expect(pos.NetQty).To(Equal(int64(5)))
		Expect(pos.AvgPxOpen.AsFloat64()).To(BeNumerically("~", 10.00, 1e-9))

		err = pos.ApplyFill(positionFill("E-2", "8", "12.00", 2), tradecore.OrderSide_Sell)
		Expect(err).NotTo(HaveOccurred())

		Expect(pos.Side).To(Equal(tradecore.PositionSide_Short))
		Expect(pos.NetQty).To(Equal(int64(-3)))
		Expect(pos.AvgPxOpen).NotTo(BeNil())
		Expect(pos.AvgPxOpen.AsFloat64()).To(BeNumerically("~", 12.00, 1e-9))
		Expect(pos.AvgPxClose).NotTo(BeNil())
		Expect(pos.AvgPxClose.AsFloat64()).To(BeNumerically("~", 12.00, 1e-9))
	})

	It("rejects a duplicate execution_id", func() {
		inst := testInstrument()
		pos, err := tradecore.OpenPosition(inst, "P-1", positionFill("E-1", "5", "10.00", 1), tradecore.OrderSide_Buy)
		Expect(err).NotTo(HaveOccurred())

		err = pos.ApplyFill(positionFill("E-1", "5", "10.00", 2), tradecore.OrderSide_Buy)
		Expect(err).To(HaveOccurred())
		Expect(err).To(MatchError(tradecore.ErrDuplicateExecution))
		Expect(pos.NetQty).To(Equal(int64(5)))
	})

	It("closes fully flat and records realized pnl on an exact close", func() {
		inst := testInstrument()
		pos, err := tradecore.OpenPosition(inst, "P-1", positionFill("E-1", "5", "10.00", 1), tradecore.OrderSide_Buy)
		Expect(err).NotTo(HaveOccurred())

		err = pos.ApplyFill(positionFill("E-2", "5", "11.00", 2), tradecore.OrderSide_Sell)
		Expect(err).NotTo(HaveOccurred())

		Expect(pos.Side).To(Equal(tradecore.PositionSide_Flat))
		Expect(pos.IsOpen()).To(BeFalse())
		Expect(pos.RealizedPnl).NotTo(BeNil())
		// 5 * 1 * (11.00 - 10.00) = 5.00
		Expect(pos.RealizedPnl.Amount.AsFloat64()).To(BeNumerically("~", 5.00, 1e-9))
		Expect(pos.TsClosed).To(Equal(int64(2)))
	})
})
