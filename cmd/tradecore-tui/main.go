// Copyright (c) 2025 Neomantra Corp

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	tradecore "github.com/nimble-quant/trading-core"
	"github.com/nimble-quant/trading-core/internal/engine"
	"github.com/nimble-quant/trading-core/internal/sink"
	dashboard "github.com/nimble-quant/trading-core/internal/tuidash"
)

///////////////////////////////////////////////////////////////////////////////

func main() {
	var showHelp bool
	var dbPath string
	var refreshMs int

	pflag.BoolVarP(&showHelp, "help", "h", false, "Show help")
	pflag.StringVarP(&dbPath, "db", "d", "", "Path to a bars DuckDB database (empty for in-memory)")
	pflag.IntVarP(&refreshMs, "refresh-ms", "r", 1000, "Dashboard refresh interval, in milliseconds")
	pflag.Parse()

	if showHelp {
		fmt.Fprintf(os.Stdout, "usage: %s [options]\n\n", os.Args[0])
		pflag.PrintDefaults()
		os.Exit(0)
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

	config := dashboard.Config{
		Engine:          eng,
		Sink:            barSink,
		RefreshInterval: time.Duration(refreshMs) * time.Millisecond,
	}

	if err := dashboard.Run(config); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err.Error())
		os.Exit(1)
	}
}
