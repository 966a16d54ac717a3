// Copyright (c) 2025 Neomantra Corp
//
// This is a Model Context Protocol (MCP) server over a live trading
// session: book_top, position/positions, and recent_bars tools for an
// LLM to inspect engine state.

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	tradecore "github.com/nimble-quant/trading-core"
	"github.com/nimble-quant/trading-core/internal/engine"
	"github.com/nimble-quant/trading-core/internal/mcpserver"
	"github.com/nimble-quant/trading-core/internal/sink"
)

///////////////////////////////////////////////////////////////////////////////

const defaultSSEHostPort = ":8889"

func main() {
	var showHelp bool
	var logJSON bool
	var logFilename string
	var dbPath string
	var useSSE bool
	var sseHostPort string
	var verbose bool

	pflag.BoolVarP(&showHelp, "help", "h", false, "Show help")
	pflag.StringVarP(&dbPath, "db", "d", "", "Path to a bars DuckDB database (empty for in-memory, no persisted history)")
	pflag.StringVarP(&logFilename, "log-file", "l", "", "Log file destination (or MCP_LOG_FILE envvar). Default is stderr")
	pflag.BoolVarP(&logJSON, "log-json", "j", false, "Log in JSON (default is plaintext)")
	pflag.StringVarP(&sseHostPort, "port", "p", "", "host:port to listen to SSE connections")
	pflag.BoolVarP(&useSSE, "sse", "", false, "Use SSE transport (default is STDIO transport)")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	pflag.Parse()

	if showHelp {
		fmt.Fprintf(os.Stdout, "usage: %s [opts]\n\n", os.Args[0])
		pflag.PrintDefaults()
		os.Exit(0)
	}

	if sseHostPort == "" {
		sseHostPort = defaultSSEHostPort
	}

	logWriter := os.Stderr
	if logFilename == "" {
		logFilename = os.Getenv("MCP_LOG_FILE")
	}
	if logFilename != "" {
		logFile, err := os.OpenFile(logFilename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file: %s\n", err.Error())
			os.Exit(1)
		}
		logWriter = logFile
		defer logFile.Close()
	}

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	var logger *slog.Logger
	if logJSON {
		logger = slog.New(slog.NewJSONHandler(logWriter, &slog.HandlerOptions{Level: logLevel}))
	} else {
		logger = slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{Level: logLevel}))
	}

	barSink, err := sink.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening bar sink: %s\n", err.Error())
		os.Exit(1)
	}
	defer barSink.Close()

	catalog := tradecore.NewMapCatalog()
	clock := tradecore.NewRealClock()
	eng := engine.New(catalog, clock, tradecore.OmsType_Hedging, tradecore.NullEventSubscriber{})

	config := mcpserver.Config{
		Engine:      eng,
		Sink:        barSink,
		UseSSE:      useSSE,
		SSEHostPort: sseHostPort,
		Logger:      logger,
	}

	if err := mcpserver.Run(config); err != nil {
		logger.Error("run loop error", "error", err.Error())
		os.Exit(1)
	}
}
