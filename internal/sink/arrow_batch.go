// Copyright (c) 2024 Neomantra Corp
//
// ToArrowRecord builds an in-memory Arrow columnar batch of bars, for handing
// a window of recent bars to the dashboard or MCP layer without a DuckDB
// round trip, using apache/arrow-go/v18's core array builders directly
// rather than going through its parquet writer.
package sink

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	tradecore "github.com/nimble-quant/trading-core"
)

// BarRecordSchema is the Arrow schema ToArrowRecord produces. Prices are
// float64 here deliberately: this batch is for display/query convenience,
// never fed back into domain arithmetic, so the lossy float view
// (Price.AsFloat64) is fine at this boundary.
var BarRecordSchema = arrow.NewSchema([]arrow.Field{
	{Name: "symbol", Type: arrow.BinaryTypes.String},
	{Name: "venue", Type: arrow.BinaryTypes.String},
	{Name: "open", Type: arrow.PrimitiveTypes.Float64},
	{Name: "high", Type: arrow.PrimitiveTypes.Float64},
	{Name: "low", Type: arrow.PrimitiveTypes.Float64},
	{Name: "close", Type: arrow.PrimitiveTypes.Float64},
	{Name: "volume", Type: arrow.PrimitiveTypes.Float64},
	{Name: "ts_event", Type: arrow.PrimitiveTypes.Int64},
}, nil)

// ToArrowRecord builds one Arrow record from bars, column-major. Callers
// must call Release() on the returned record once done with it.
func ToArrowRecord(bars []tradecore.Bar) arrow.Record {
	mem := memory.NewGoAllocator()

	symbolB := array.NewStringBuilder(mem)
	venueB := array.NewStringBuilder(mem)
	openB := array.NewFloat64Builder(mem)
	highB := array.NewFloat64Builder(mem)
	lowB := array.NewFloat64Builder(mem)
	closeB := array.NewFloat64Builder(mem)
	volumeB := array.NewFloat64Builder(mem)
	tsEventB := array.NewInt64Builder(mem)
	defer symbolB.Release()
	defer venueB.Release()
	defer openB.Release()
	defer highB.Release()
	defer lowB.Release()
	defer closeB.Release()
	defer volumeB.Release()
	defer tsEventB.Release()

	for _, bar := range bars {
		symbolB.Append(bar.BarType.InstrumentId.Symbol)
		venueB.Append(bar.BarType.InstrumentId.Venue)
		openB.Append(bar.Open.AsFloat64())
		highB.Append(bar.High.AsFloat64())
		lowB.Append(bar.Low.AsFloat64())
		closeB.Append(bar.Close.AsFloat64())
		volumeB.Append(bar.Volume.AsFloat64())
		tsEventB.Append(bar.TsEvent)
	}

	columns := []arrow.Array{
		symbolB.NewArray(),
		venueB.NewArray(),
		openB.NewArray(),
		highB.NewArray(),
		lowB.NewArray(),
		closeB.NewArray(),
		volumeB.NewArray(),
		tsEventB.NewArray(),
	}
	defer func() {
		for _, col := range columns {
			col.Release()
		}
	}()

	return array.NewRecord(BarRecordSchema, columns, int64(len(bars)))
}
