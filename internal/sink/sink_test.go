package sink_test

import (
	"testing"

	"github.com/nimble-quant/trading-core/internal/sink"

	tradecore "github.com/nimble-quant/trading-core"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSink(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "internal/sink suite")
}

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

var _ = Describe("Sink", func() {
	var barType tradecore.BarType

	BeforeEach(func() {
		barType = tradecore.BarType{
			InstrumentId: tradecore.NewInstrumentId("ESH4", "GLBX"),
			Step:         1,
			Aggregation:  tradecore.BarAggregation_Minute,
			PriceType:    tradecore.PriceType_Last,
			Source:       tradecore.AggregationSource_Internal,
		}
	})

	It("round-trips a written bar's exact scaled price through RecentBars", func() {
		s, err := sink.Open("")
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()

		bar := tradecore.Bar{
			BarType: barType,
			Open:    mustPrice("100.00"),
			High:    mustPrice("100.50"),
			Low:     mustPrice("99.75"),
			Close:   mustPrice("100.25"),
			Volume:  mustQuantity("42"),
			TsEvent: 60_000_000_000,
			TsInit:  60_000_000_000,
		}
		Expect(s.WriteBar(bar)).To(Succeed())

		got, err := s.RecentBars(barType, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(1))
		Expect(got[0].Close.String()).To(Equal("100.25"))
		Expect(got[0].Volume.String()).To(Equal("42"))
	})

	It("returns bars oldest-first and respects the limit", func() {
		s, err := sink.Open("")
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()

		var bars []tradecore.Bar
		for i := int64(1); i <= 3; i++ {
			bars = append(bars, tradecore.Bar{
				BarType: barType,
				Open:    mustPrice("100.00"),
				High:    mustPrice("100.00"),
				Low:     mustPrice("100.00"),
				Close:   mustPrice("100.00"),
				Volume:  mustQuantity("1"),
				TsEvent: i * 60_000_000_000,
				TsInit:  i * 60_000_000_000,
			})
		}
		Expect(s.WriteBars(bars)).To(Succeed())

		got, err := s.RecentBars(barType, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(HaveLen(2))
		Expect(got[0].TsEvent).To(Equal(int64(2 * 60_000_000_000)))
		Expect(got[1].TsEvent).To(Equal(int64(3 * 60_000_000_000)))
	})
})

var _ = Describe("ToArrowRecord", func() {
	It("builds one row per bar with matching column count", func() {
		barType := tradecore.BarType{
			InstrumentId: tradecore.NewInstrumentId("ESH4", "GLBX"),
			Step:         1,
			Aggregation:  tradecore.BarAggregation_Minute,
			PriceType:    tradecore.PriceType_Last,
			Source:       tradecore.AggregationSource_Internal,
		}
		bars := []tradecore.Bar{
			{BarType: barType, Open: mustPrice("1.0"), High: mustPrice("1.0"), Low: mustPrice("1.0"), Close: mustPrice("1.0"), Volume: mustQuantity("1"), TsEvent: 1},
		}
		rec := sink.ToArrowRecord(bars)
		defer rec.Release()
		Expect(rec.NumRows()).To(Equal(int64(1)))
		Expect(rec.NumCols()).To(Equal(int64(len(sink.BarRecordSchema.Fields()))))
	})
})
