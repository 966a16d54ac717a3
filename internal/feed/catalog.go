// Copyright (c) 2024 Neomantra Corp
//
// Catalog fetches an instrument list from a small HTTP endpoint and
// registers them into a tradecore.MapCatalog, satisfying
// tradecore.InstrumentCatalog, using retryablehttp for transient-failure
// retry around the fetch.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"

	tradecore "github.com/nimble-quant/trading-core"
)

// instrumentRecord is the wire shape returned by the catalog endpoint.
type instrumentRecord struct {
	Symbol         string `json:"symbol"`
	Venue          string `json:"venue"`
	PricePrecision uint8  `json:"price_precision"`
	SizePrecision  uint8  `json:"size_precision"`
	Multiplier     int64  `json:"multiplier"`
	IsInverse      bool   `json:"is_inverse"`
	QuoteCurrency  string `json:"quote_currency"`
	BaseCurrency   string `json:"base_currency"`
}

// Catalog wraps a tradecore.MapCatalog, populated by FetchInto from a
// remote JSON instrument list. It is the ambient wiring example, not the
// catalog itself: the core only ever sees the InstrumentCatalog interface.
type Catalog struct {
	*tradecore.MapCatalog
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{MapCatalog: tradecore.NewMapCatalog()}
}

// FetchInto retrieves a JSON instrument list from url and registers every
// entry into the catalog. Retries transient failures via retryablehttp.
func (c *Catalog) FetchInto(ctx context.Context, url string, maxRetries int) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building instrument catalog request: %w", err)
	}

	client := retryablehttp.NewClient()
	client.RetryMax = maxRetries
	client.Logger = slog.Default()

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching instrument catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("instrument catalog fetch: HTTP %d %s", resp.StatusCode, string(body))
	}

	var records []instrumentRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return fmt.Errorf("decoding instrument catalog: %w", err)
	}

	for _, r := range records {
		c.Register(tradecore.Instrument{
			Id:             tradecore.NewInstrumentId(r.Symbol, r.Venue),
			PricePrecision: r.PricePrecision,
			SizePrecision:  r.SizePrecision,
			Multiplier:     r.Multiplier,
			IsInverse:      r.IsInverse,
			QuoteCurrency:  tradecore.Currency(r.QuoteCurrency),
			BaseCurrency:   tradecore.Currency(r.BaseCurrency),
		})
	}
	return nil
}
