package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/ecommerce-pipeline/internal/config"
	"github.com/dvloznov/ecommerce-pipeline/internal/domain"
)

// FetchTimeout bounds a single request to the rate API.
const FetchTimeout = 10 * time.Second

// Source fetches the daily GBP->THB rate table.
type Source interface {
	FetchRates(ctx context.Context) ([]domain.RateRecord, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]domain.RateRecord, error)

// FetchRates implements Source.
func (f SourceFunc) FetchRates(ctx context.Context) ([]domain.RateRecord, error) {
	return f(ctx)
}

// apiRate is one element of the API payload. The id field is ignored.
type apiRate struct {
	ID     json.RawMessage  `json:"id"`
	Date   string           `json:"date"`
	GBPTHB *decimal.Decimal `json:"gbp_thb"`
}

// HTTPSource reads rates from the JSON endpoint named by the
// currency_api_url configuration key.
type HTTPSource struct {
	cfg    config.Provider
	client *http.Client
}

// NewHTTPSource creates an HTTPSource. A nil client gets one with FetchTimeout.
func NewHTTPSource(cfg config.Provider, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: FetchTimeout}
	}
	return &HTTPSource{cfg: cfg, client: client}
}

// FetchRates implements Source.
func (s *HTTPSource) FetchRates(ctx context.Context) ([]domain.RateRecord, error) {
	url, err := config.Require(s.cfg, config.KeyCurrencyAPIURL)
	if err != nil {
		return nil, fmt.Errorf("FetchRates: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("FetchRates: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("FetchRates: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("FetchRates: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var payload []apiRate
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("FetchRates: decode body: %w", err)
	}

	return parseRates(payload)
}

// parseRates normalizes dates and validates rates. Later rows for an
// already-seen date are dropped.
func parseRates(payload []apiRate) ([]domain.RateRecord, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("parseRates: empty rate payload")
	}

	out := make([]domain.RateRecord, 0, len(payload))
	seen := make(map[string]bool, len(payload))
	for i, r := range payload {
		date, err := domain.NormalizeDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("parseRates: row %d: %w", i, err)
		}
		if r.GBPTHB == nil {
			return nil, fmt.Errorf("parseRates: row %d: missing gbp_thb", i)
		}
		if !r.GBPTHB.IsPositive() {
			return nil, fmt.Errorf("parseRates: row %d: non-positive gbp_thb %s", i, r.GBPTHB.String())
		}
		if seen[date] {
			continue
		}
		seen[date] = true
		out = append(out, domain.RateRecord{Date: date, GBPTHB: r.GBPTHB.InexactFloat64()})
	}
	return out, nil
}
