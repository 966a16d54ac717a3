// Copyright (c) 2025 Neomantra Corp

package mcpserver

import (
	"context"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/segmentio/encoding/json"

	tradecore "github.com/nimble-quant/trading-core"
)

const defaultRecentBarsLimit = 20

func (e *handlerEnv) bookTopHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbol, err := request.RequireString("symbol")
	if err != nil {
		return mcp.NewToolResultError("symbol must be set"), nil
	}
	venue, err := request.RequireString("venue")
	if err != nil {
		return mcp.NewToolResultError("venue must be set"), nil
	}

	if e.engine == nil {
		return mcp.NewToolResultError("no engine configured"), nil
	}
	instId := tradecore.NewInstrumentId(symbol, venue)
	book, ok := e.engine.Book(instId)
	if !ok {
		return mcp.NewToolResultErrorf("no book registered for %s", instId), nil
	}

	result := map[string]any{
		"instrument_id": instId.String(),
		"level":         book.Level().String(),
	}
	if bid, ok := book.BestBid(); ok {
		result["bid"] = bid.String()
	}
	if ask, ok := book.BestAsk(); ok {
		result["ask"] = ask.String()
	}
	if spread, ok := book.Spread(); ok {
		result["spread"] = spread.String()
	}

	jbytes, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultErrorf("failed to marshal result: %s", err), nil
	}
	e.log().Info("book_top", "instrument_id", instId.String())
	return mcp.NewToolResultText(string(jbytes)), nil
}

func (e *handlerEnv) positionHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idStr, err := request.RequireString("position_id")
	if err != nil {
		return mcp.NewToolResultError("position_id must be set"), nil
	}

	if e.engine == nil {
		return mcp.NewToolResultError("no engine configured"), nil
	}
	pos, ok := e.engine.Position(tradecore.PositionId(idStr))
	if !ok {
		return mcp.NewToolResultErrorf("no position tracked for id %s", idStr), nil
	}

	jbytes, err := json.Marshal(positionSummary(pos))
	if err != nil {
		return mcp.NewToolResultErrorf("failed to marshal result: %s", err), nil
	}
	e.log().Info("position", "position_id", idStr)
	return mcp.NewToolResultText(string(jbytes)), nil
}

func (e *handlerEnv) positionsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if e.engine == nil {
		return mcp.NewToolResultError("no engine configured"), nil
	}

	var summaries []map[string]any
	for _, pos := range e.engine.Positions() {
		summaries = append(summaries, positionSummary(pos))
	}

	jbytes, err := json.Marshal(summaries)
	if err != nil {
		return mcp.NewToolResultErrorf("failed to marshal result: %s", err), nil
	}
	e.log().Info("positions", "count", len(summaries))
	return mcp.NewToolResultText(string(jbytes)), nil
}

func positionSummary(pos *tradecore.Position) map[string]any {
	summary := map[string]any{
		"position_id":   string(pos.PositionId),
		"instrument_id": pos.InstrumentId.String(),
		"side":          pos.Side.String(),
		"net_qty":       pos.NetQty,
		"ts_opened":     pos.TsOpened,
		"ts_last":       pos.TsLast,
	}
	if pos.AvgPxOpen != nil {
		summary["avg_px_open"] = pos.AvgPxOpen.String()
	}
	if pos.AvgPxClose != nil {
		summary["avg_px_close"] = pos.AvgPxClose.String()
	}
	if pos.RealizedPnl != nil {
		summary["realized_pnl"] = pos.RealizedPnl.String()
	}
	return summary
}

func (e *handlerEnv) recentBarsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	barTypeStr, err := request.RequireString("bar_type")
	if err != nil {
		return mcp.NewToolResultError("bar_type must be set"), nil
	}
	barType, err := tradecore.ParseBarType(barTypeStr)
	if err != nil {
		return mcp.NewToolResultErrorf("bar_type was invalid: %s", err), nil
	}

	limit := defaultRecentBarsLimit
	if limitStr, err := request.RequireString("limit"); err == nil && limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			return mcp.NewToolResultErrorf("limit was invalid: %s", err), nil
		}
		limit = parsed
	}

	if e.sink == nil {
		return mcp.NewToolResultError("no bar sink configured, recent_bars unavailable"), nil
	}
	bars, err := e.sink.RecentBars(barType, limit)
	if err != nil {
		return mcp.NewToolResultErrorf("failed to query recent bars: %s", err), nil
	}

	var rows []map[string]any
	for _, bar := range bars {
		rows = append(rows, map[string]any{
			"ts_event": bar.TsEvent,
			"open":     bar.Open.String(),
			"high":     bar.High.String(),
			"low":      bar.Low.String(),
			"close":    bar.Close.String(),
			"volume":   bar.Volume.String(),
		})
	}

	jbytes, err := json.Marshal(rows)
	if err != nil {
		return mcp.NewToolResultErrorf("failed to marshal result: %s", err), nil
	}
	e.log().Info("recent_bars", "bar_type", barTypeStr, "count", len(rows))
	return mcp.NewToolResultText(string(jbytes)), nil
}
