package tradecore_test

import (
	tradecore "github.com/nimble-quant/trading-core"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("L1Book", func() {
	It("moves the ask to a BUY aggressor's trade price and leaves the uncrossed bid unchanged", func() {
		instId := tradecore.NewInstrumentId("ESH4", "GLBX")
		book := tradecore.NewL1Book(instId)

		Expect(book.UpdateQuote(tradecore.QuoteTick{
			InstrumentId: instId,
			BidPrice:     mustPrice("1.00"),
			AskPrice:     mustPrice("1.01"),
			BidSize:      mustQuantity("10"),
			AskSize:      mustQuantity("10"),
			TsEvent:      1,
		})).To(Succeed())

		bid, _ := book.BestBid()
		ask, _ := book.BestAsk()
		Expect(bid.String()).To(Equal("1.00"))
		Expect(ask.String()).To(Equal("1.01"))

		Expect(book.UpdateTrade(tradecore.TradeTick{
			InstrumentId:  instId,
			Price:         mustPrice("1.02"),
			Size:          mustQuantity("1"),
			AggressorSide: tradecore.OrderSide_Buy,
			TsEvent:       2,
		})).To(Succeed())

		bid, _ = book.BestBid()
		ask, _ = book.BestAsk()
		Expect(ask.String()).To(Equal("1.02"))
		Expect(bid.String()).To(Equal("1.00"))
		Expect(book.CheckIntegrity()).To(Succeed())
	})

	It("drops a stale tick whose ts_event precedes the book's last update", func() {
		instId := tradecore.NewInstrumentId("ESH4", "GLBX")
		book := tradecore.NewL1Book(instId)

		Expect(book.UpdateQuote(tradecore.QuoteTick{
			InstrumentId: instId,
			BidPrice:     mustPrice("1.00"),
			AskPrice:     mustPrice("1.01"),
			BidSize:      mustQuantity("10"),
			AskSize:      mustQuantity("10"),
			TsEvent:      10,
		})).To(Succeed())

		Expect(book.UpdateQuote(tradecore.QuoteTick{
			InstrumentId: instId,
			BidPrice:     mustPrice("0.50"),
			AskPrice:     mustPrice("0.51"),
			BidSize:      mustQuantity("10"),
			AskSize:      mustQuantity("10"),
			TsEvent:      5,
		})).To(Succeed())

		bid, _ := book.BestBid()
		Expect(bid.String()).To(Equal("1.00"))
	})

	It("rejects ApplyDelta since L1 has no per-order granularity", func() {
		instId := tradecore.NewInstrumentId("ESH4", "GLBX")
		book := tradecore.NewL1Book(instId)
		err := book.ApplyDelta(tradecore.OrderBookDelta{InstrumentId: instId})
		Expect(err).To(MatchError(tradecore.ErrAddUnsupportedOnL1))
	})
})
