package tradecore_test

import (
	tradecore "github.com/nimble-quant/trading-core"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func lastTradeBarType(instId tradecore.InstrumentId, step uint64, agg tradecore.BarAggregation) tradecore.BarType {
	return tradecore.BarType{
		InstrumentId: instId,
		Step:         step,
		Aggregation:  agg,
		PriceType:    tradecore.PriceType_Last,
		Source:       tradecore.AggregationSource_Internal,
	}
}

var _ = Describe("VolumeBarAggregator", func() {
	It("closes a bar exactly at the volume step, splitting an overflowing update", func() {
		instId := tradecore.NewInstrumentId("ESH4", "GLBX")
		barType := lastTradeBarType(instId, 100, tradecore.BarAggregation_Volume)

		var closed []tradecore.Bar
		agg, err := tradecore.NewVolumeBarAggregator(barType, 2, func(bar tradecore.Bar) {
			closed = append(closed, bar)
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(agg.HandleTradeTick(tradecore.TradeTick{
			InstrumentId: instId,
			Price:        mustPrice("1.0"),
			Size:         mustQuantity("60"),
			TsEvent:      1,
		})).To(Succeed())
		Expect(closed).To(BeEmpty())

		Expect(agg.HandleTradeTick(tradecore.TradeTick{
			InstrumentId: instId,
			Price:        mustPrice("1.1"),
			Size:         mustQuantity("80"),
			TsEvent:      2,
		})).To(Succeed())

		Expect(closed).To(HaveLen(1))
		Expect(closed[0].Volume.String()).To(Equal("100"))
		Expect(closed[0].Close.String()).To(Equal("1.1"))
	})
})

var _ = Describe("TimeBarAggregator", func() {
	It("catches up both boundaries crossed by a single multi-minute clock jump", func() {
		instId := tradecore.NewInstrumentId("ESH4", "GLBX")
		barType := lastTradeBarType(instId, 1, tradecore.BarAggregation_Minute)

		clock := tradecore.NewTestClock(0)
		var closed []tradecore.Bar
		agg, err := tradecore.NewTimeBarAggregator(barType, 2, clock, func(bar tradecore.Bar) {
			closed = append(closed, bar)
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(agg.HandleTradeTick(tradecore.TradeTick{
			InstrumentId: instId,
			Price:        mustPrice("1.00"),
			Size:         mustQuantity("1"),
			TsEvent:      30 * int64(timeSecond),
		})).To(Succeed())

		clock.AdvanceTimeTo(135 * int64(timeSecond))

		Expect(closed).To(HaveLen(2))
		Expect(closed[0].Volume.String()).To(Equal("1"))
		Expect(closed[1].Volume.String()).To(Equal("0"))
	})
})

const timeSecond = 1_000_000_000
