// Copyright (c) 2024 Neomantra Corp
//
// Sink persists closed bars to an embedded DuckDB database via
// database/sql and the duckdb-go/v2 driver, writing into a durable bars
// table rather than querying read-only parquet views.
package sink

import (
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2"

	tradecore "github.com/nimble-quant/trading-core"
)

// Sink owns an embedded DuckDB database holding one row per closed bar.
// Prices and quantities are stored as their raw scaled integer plus
// precision, never as a lossy float, so a read back round-trips exactly
// through NewPriceFromRaw/NewQuantityFromRaw.
type Sink struct {
	db *sql.DB
}

// Open creates (or reopens) a DuckDB database at path. path may be ""
// for an in-memory, process-local database.
func Open(path string) (*Sink, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	s := &Sink{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sink) Close() error {
	return s.db.Close()
}

func (s *Sink) createSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS bars (
			symbol          VARCHAR NOT NULL,
			venue           VARCHAR NOT NULL,
			step            UBIGINT NOT NULL,
			aggregation     UTINYINT NOT NULL,
			price_type      UTINYINT NOT NULL,
			source          UTINYINT NOT NULL,
			open_raw        BIGINT NOT NULL,
			high_raw        BIGINT NOT NULL,
			low_raw         BIGINT NOT NULL,
			close_raw       BIGINT NOT NULL,
			price_precision UTINYINT NOT NULL,
			volume_raw      UBIGINT NOT NULL,
			size_precision  UTINYINT NOT NULL,
			ts_event        BIGINT NOT NULL,
			ts_init         BIGINT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating bars table: %w", err)
	}
	_, err = s.db.Exec(`
		CREATE INDEX IF NOT EXISTS bars_instrument_ts
		ON bars (symbol, venue, aggregation, step, ts_event)
	`)
	if err != nil {
		return fmt.Errorf("creating bars index: %w", err)
	}
	return nil
}

// WriteBar inserts one closed bar.
func (s *Sink) WriteBar(bar tradecore.Bar) error {
	_, err := s.db.Exec(insertBarSQL,
		bar.BarType.InstrumentId.Symbol,
		bar.BarType.InstrumentId.Venue,
		bar.BarType.Step,
		uint8(bar.BarType.Aggregation),
		uint8(bar.BarType.PriceType),
		uint8(bar.BarType.Source),
		bar.Open.Raw(), bar.High.Raw(), bar.Low.Raw(), bar.Close.Raw(), bar.Open.Precision(),
		bar.Volume.Raw(), bar.Volume.Precision(),
		bar.TsEvent, bar.TsInit,
	)
	if err != nil {
		return fmt.Errorf("inserting bar: %w", err)
	}
	return nil
}

// WriteBars inserts a batch of closed bars inside a single transaction.
func (s *Sink) WriteBars(bars []tradecore.Bar) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning bar batch transaction: %w", err)
	}
	stmt, err := tx.Prepare(insertBarSQL)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("preparing bar insert: %w", err)
	}
	defer stmt.Close()

	for _, bar := range bars {
		_, err := stmt.Exec(
			bar.BarType.InstrumentId.Symbol,
			bar.BarType.InstrumentId.Venue,
			bar.BarType.Step,
			uint8(bar.BarType.Aggregation),
			uint8(bar.BarType.PriceType),
			uint8(bar.BarType.Source),
			bar.Open.Raw(), bar.High.Raw(), bar.Low.Raw(), bar.Close.Raw(), bar.Open.Precision(),
			bar.Volume.Raw(), bar.Volume.Precision(),
			bar.TsEvent, bar.TsInit,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting bar: %w", err)
		}
	}
	return tx.Commit()
}

const insertBarSQL = `
	INSERT INTO bars (
		symbol, venue, step, aggregation, price_type, source,
		open_raw, high_raw, low_raw, close_raw, price_precision,
		volume_raw, size_precision, ts_event, ts_init
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// RecentBars returns the most recent limit bars for barType, oldest first.
func (s *Sink) RecentBars(barType tradecore.BarType, limit int) ([]tradecore.Bar, error) {
	rows, err := s.db.Query(`
		SELECT open_raw, high_raw, low_raw, close_raw, price_precision,
		       volume_raw, size_precision, ts_event, ts_init
		FROM bars
		WHERE symbol = ? AND venue = ? AND step = ? AND aggregation = ? AND price_type = ? AND source = ?
		ORDER BY ts_event DESC
		LIMIT ?
	`,
		barType.InstrumentId.Symbol, barType.InstrumentId.Venue, barType.Step,
		uint8(barType.Aggregation), uint8(barType.PriceType), uint8(barType.Source), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying recent bars: %w", err)
	}
	defer rows.Close()

	var bars []tradecore.Bar
	for rows.Next() {
		var openRaw, highRaw, lowRaw, closeRaw int64
		var pricePrecision, sizePrecision uint8
		var volumeRaw uint64
		var tsEvent, tsInit int64
		if err := rows.Scan(&openRaw, &highRaw, &lowRaw, &closeRaw, &pricePrecision,
			&volumeRaw, &sizePrecision, &tsEvent, &tsInit); err != nil {
			return nil, fmt.Errorf("scanning bar row: %w", err)
		}
		open, _ := tradecore.NewPriceFromRaw(openRaw, pricePrecision)
		high, _ := tradecore.NewPriceFromRaw(highRaw, pricePrecision)
		low, _ := tradecore.NewPriceFromRaw(lowRaw, pricePrecision)
		close, _ := tradecore.NewPriceFromRaw(closeRaw, pricePrecision)
		volume, _ := tradecore.NewQuantityFromRaw(volumeRaw, sizePrecision)
		bars = append(bars, tradecore.Bar{
			BarType: barType,
			Open:    open,
			High:    high,
			Low:     low,
			Close:   close,
			Volume:  volume,
			TsEvent: tsEvent,
			TsInit:  tsInit,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// reverse to oldest-first
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}
