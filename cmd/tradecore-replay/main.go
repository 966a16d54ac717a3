// Copyright (c) 2025 Neomantra Corp
//
// tradecore-replay drives one or more line-delimited JSON tick files
// through an engine.Engine, registering a book and whatever bar
// aggregators the caller asks for per instrument, and persists closed
// bars to a DuckDB sink.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	tradecore "github.com/nimble-quant/trading-core"
	"github.com/nimble-quant/trading-core/internal/engine"
	"github.com/nimble-quant/trading-core/internal/feed"
	"github.com/nimble-quant/trading-core/internal/sink"
)

///////////////////////////////////////////////////////////////////////////////

var (
	verbose bool

	catalogURL     string
	dbPath         string
	bookLevelStr   string
	barTypeStrs    []string
	forceZstdIn    bool
	catalogRetry   int
	fromDateStr    string
	toDateStr      string
	forceOverwrite bool
)

func requireNoError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}

// requireHumanConfirmation prompts an interactive yes/no confirmation
// before a destructive action, exiting without error if the user declines.
func requireHumanConfirmation(promptTitle, verbName string) {
	doVerb := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Affirmative(fmt.Sprintf("Yes, %s", verbName)).
				Negative("No, cancel").
				Title(promptTitle).
				Value(&doVerb),
		))
	if err := form.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "confirmation error: %s\n", err.Error())
		os.Exit(1)
	}
	if !doVerb {
		os.Exit(0)
	}
}

func main() {
	cobra.OnInitialize()

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&catalogURL, "catalog", "c", "", "URL to fetch the instrument catalog from")
	runCmd.Flags().StringVarP(&dbPath, "db", "d", "", "Path to a bars DuckDB database (empty for in-memory)")
	runCmd.Flags().StringVarP(&bookLevelStr, "book-level", "l", "l1", "Book level to register per instrument: l1, l2, or l3")
	runCmd.Flags().StringArrayVarP(&barTypeStrs, "bar-type", "b", nil, "Canonical bar type string to aggregate, e.g. ESH4.GLBX-1-MINUTE-LAST-INTERNAL (repeatable)")
	runCmd.Flags().BoolVarP(&forceZstdIn, "zstd", "z", false, "Treat every input file as zstd-compressed, irrespective of filename suffix")
	runCmd.Flags().IntVarP(&catalogRetry, "catalog-retries", "r", 3, "Max retries fetching the instrument catalog")
	runCmd.Flags().StringVar(&fromDateStr, "from-date", "", "Only replay ticks on or after this YYYYMMDD date")
	runCmd.Flags().StringVar(&toDateStr, "to-date", "", "Only replay ticks on or before this YYYYMMDD date")
	runCmd.Flags().BoolVarP(&forceOverwrite, "force", "f", false, "Skip the confirmation prompt when appending to an existing bars database")
	runCmd.MarkFlagRequired("catalog")

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

///////////////////////////////////////////////////////////////////////////////

var rootCmd = &cobra.Command{
	Use:   "tradecore-replay",
	Short: "tradecore-replay drives tick files through an in-process trading session",
	Long:  "tradecore-replay drives tick files through an in-process trading session",
}

var runCmd = &cobra.Command{
	Use:   "run file...",
	Short: "Replays one or more tick files through the engine",
	Long:  "Replays one or more tick files through the engine, registering a book and bar aggregators per instrument",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		requireNoError(runReplay(args))
	},
}

func bookLevelFromFlag(s string) (tradecore.BookLevel, error) {
	switch s {
	case "l1":
		return tradecore.BookLevel_L1_TBBO, nil
	case "l2":
		return tradecore.BookLevel_L2_MBP, nil
	case "l3":
		return tradecore.BookLevel_L3_MBO, nil
	default:
		return 0, fmt.Errorf("unknown book level %q, want l1, l2, or l3", s)
	}
}

// parseYMDBound parses a YYYYMMDD flag value into a ymdflag-convention
// uint32 bound. An empty string means unbounded and returns 0.
func parseYMDBound(s string) (uint32, error) {
	if s == "" {
		return 0, nil
	}
	t, err := time.Parse("20060102", s)
	if err != nil {
		return 0, fmt.Errorf("parsing date %q (want YYYYMMDD): %w", s, err)
	}
	return tradecore.TimeToYMD(t), nil
}

func runReplay(files []string) error {
	level, err := bookLevelFromFlag(bookLevelStr)
	if err != nil {
		return err
	}

	fromYMD, err := parseYMDBound(fromDateStr)
	if err != nil {
		return err
	}
	toYMD, err := parseYMDBound(toDateStr)
	if err != nil {
		return err
	}

	if dbPath != "" && !forceOverwrite {
		if _, statErr := os.Stat(dbPath); statErr == nil {
			requireHumanConfirmation(
				fmt.Sprintf("%s already exists. Append bars to it?", dbPath),
				"append")
		}
	}

	catalog := feed.NewCatalog()
	if err := catalog.FetchInto(context.Background(), catalogURL, catalogRetry); err != nil {
		return fmt.Errorf("fetching instrument catalog: %w", err)
	}

	barSink, err := sink.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening bar sink: %w", err)
	}
	defer barSink.Close()

	clock := tradecore.NewRealClock()
	eng := engine.New(catalog, clock, tradecore.OmsType_Hedging, tradecore.NullEventSubscriber{})

	for _, inst := range catalog.Instruments() {
		if err := eng.RegisterBook(inst.Id, level); err != nil {
			return fmt.Errorf("registering book for %s: %w", inst.Id, err)
		}
	}

	for _, s := range barTypeStrs {
		barType, err := tradecore.ParseBarType(s)
		if err != nil {
			return fmt.Errorf("parsing bar type %q: %w", s, err)
		}
		inst, ok := catalog.Instrument(barType.InstrumentId)
		if !ok {
			return fmt.Errorf("bar type %q: unknown instrument %s", s, barType.InstrumentId)
		}
		err = eng.RegisterBarAggregator(barType, inst.PricePrecision, func(bar tradecore.Bar) {
			if err := barSink.WriteBar(bar); err != nil && verbose {
				fmt.Fprintf(os.Stderr, "warning: writing bar: %s\n", err.Error())
			}
		})
		if err != nil {
			return fmt.Errorf("registering bar aggregator %q: %w", s, err)
		}
	}

	for _, filename := range files {
		if err := replayFile(eng, catalog, filename, fromYMD, toYMD); err != nil {
			return fmt.Errorf("replaying %s: %w", filename, err)
		}
	}
	return nil
}

func replayFile(eng *engine.Engine, catalog tradecore.InstrumentCatalog, filename string, fromYMD, toYMD uint32) error {
	r, closer, err := feed.MakeCompressedReader(filename, forceZstdIn)
	if err != nil {
		return err
	}
	defer closer.Close()

	source := feed.NewTickFileSource(r, catalog)
	var count, skipped int
	for {
		tick, ok := source.Next()
		if !ok {
			break
		}
		if !inDateRange(tickTsEvent(tick), fromYMD, toYMD) {
			skipped++
			continue
		}
		if err := dispatchTick(eng, tick); err != nil {
			return err
		}
		count++
	}
	if err := source.Err(); err != nil {
		return err
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "%s: replayed %d ticks, skipped %d outside date range\n", filename, count, skipped)
	}
	return nil
}

// inDateRange reports whether tsEvent's YMD falls within [fromYMD, toYMD],
// treating a zero bound as unbounded on that side.
func inDateRange(tsEvent int64, fromYMD, toYMD uint32) bool {
	if fromYMD == 0 && toYMD == 0 {
		return true
	}
	ymd := tradecore.TimeToYMD(tradecore.TimestampToTime(uint64(tsEvent)))
	if fromYMD != 0 && ymd < fromYMD {
		return false
	}
	if toYMD != 0 && ymd > toYMD {
		return false
	}
	return true
}

func tickTsEvent(tick any) int64 {
	switch t := tick.(type) {
	case tradecore.QuoteTick:
		return t.TsEvent
	case tradecore.TradeTick:
		return t.TsEvent
	case tradecore.OrderBookDelta:
		return t.TsEvent
	case tradecore.OrderBookSnapshot:
		return t.TsEvent
	default:
		return 0
	}
}

func dispatchTick(eng *engine.Engine, tick any) error {
	switch t := tick.(type) {
	case tradecore.QuoteTick:
		return eng.HandleQuoteTick(t)
	case tradecore.TradeTick:
		return eng.HandleTradeTick(t)
	case tradecore.OrderBookDelta:
		return eng.HandleBookDelta(t)
	case tradecore.OrderBookSnapshot:
		return eng.HandleBookSnapshot(t)
	default:
		return fmt.Errorf("unknown tick type %T", t)
	}
}
