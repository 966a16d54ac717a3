// Copyright (c) 2025 Neomantra Corp
//
// This is a Model Context Protocol (MCP) server over a live trading
// session. It lets an LLM inspect order book state, open positions, and
// recent bars through an engine.Engine and an optional sink.Sink,
// read-only over in-process session state.

package mcpserver

import (
	"fmt"
	"log/slog"

	mcp_server "github.com/mark3labs/mcp-go/server"

	"github.com/nimble-quant/trading-core/internal/engine"
	"github.com/nimble-quant/trading-core/internal/sink"
)

const ServerVersion = "0.0.1"

// Config configures the MCP server's transport and the session it serves.
type Config struct {
	Name    string
	Version string

	Engine *engine.Engine
	Sink   *sink.Sink // optional; recent_bars errors without one

	UseSSE      bool   // Use SSE transport instead of STDIO
	SSEHostPort string // host:port for SSE, if UseSSE

	Logger *slog.Logger
}

// New builds an MCP server with every tool registered against config.
func New(config Config) *mcp_server.MCPServer {
	name := config.Name
	if name == "" {
		name = "tradecore-mcp"
	}
	version := config.Version
	if version == "" {
		version = ServerVersion
	}
	srv := mcp_server.NewMCPServer(name, version)
	registerTools(srv, &handlerEnv{engine: config.Engine, sink: config.Sink, logger: config.Logger})
	return srv
}

// Run starts serving config's server over STDIO or SSE, blocking until
// the transport exits.
func Run(config Config) error {
	srv := New(config)
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if config.UseSSE {
		sseServer := mcp_server.NewSSEServer(srv)
		logger.Info("MCP SSE server started", "hostPort", config.SSEHostPort)
		if err := sseServer.Start(config.SSEHostPort); err != nil {
			return fmt.Errorf("MCP SSE server error: %w", err)
		}
		return nil
	}

	logger.Info("MCP STDIO server started")
	if err := mcp_server.ServeStdio(srv); err != nil {
		return fmt.Errorf("MCP STDIO server error: %w", err)
	}
	return nil
}

// handlerEnv is the state every tool handler closes over.
type handlerEnv struct {
	engine *engine.Engine
	sink   *sink.Sink
	logger *slog.Logger
}

func (e *handlerEnv) log() *slog.Logger {
	if e.logger == nil {
		return slog.Default()
	}
	return e.logger
}
