// Copyright (c) 2025 Neomantra Corp

package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcp_server "github.com/mark3labs/mcp-go/server"
)

// registerTools attaches every tool this server exposes to srv, each
// closing over env for the live engine/sink it reads from.
func registerTools(srv *mcp_server.MCPServer, env *handlerEnv) {
	bookTopTool := mcp.NewTool("book_top",
		mcp.WithDescription("Returns the best bid, best ask, and spread for an instrument's registered order book. Returns an error if no book is registered for the instrument."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Instrument symbol, e.g. ESH4"),
		),
		mcp.WithString("venue",
			mcp.Required(),
			mcp.Description("Instrument venue, e.g. GLBX"),
		),
	)
	srv.AddTool(bookTopTool, env.bookTopHandler)

	positionTool := mcp.NewTool("position",
		mcp.WithDescription("Returns one tracked position's current side, net quantity, average open/close price, and realized PnL, by position id."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithString("position_id",
			mcp.Required(),
			mcp.Description("Position id to look up"),
		),
	)
	srv.AddTool(positionTool, env.positionHandler)

	positionsTool := mcp.NewTool("positions",
		mcp.WithDescription("Lists every currently open position across the session."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
	)
	srv.AddTool(positionsTool, env.positionsHandler)

	recentBarsTool := mcp.NewTool("recent_bars",
		mcp.WithDescription("Returns the most recent closed bars for a bar series, oldest first. bar_type uses the canonical string form \"{symbol}.{venue}-{step}-{aggregation}-{price_type}-{INTERNAL|EXTERNAL}\", e.g. \"ESH4.GLBX-1-MINUTE-LAST-INTERNAL\". Requires a bar sink to be configured."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithString("bar_type",
			mcp.Required(),
			mcp.Description("Canonical bar type string"),
		),
		mcp.WithString("limit",
			mcp.Description("Maximum number of bars to return (default 20)"),
		),
	)
	srv.AddTool(recentBarsTool, env.recentBarsHandler)
}
