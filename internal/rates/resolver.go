package rates

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/ecommerce-pipeline/internal/domain"
	"github.com/dvloznov/ecommerce-pipeline/internal/logger"
)

var errNoRates = errors.New("rate source returned no rows")

// Resolver turns an unreliable Source into a rate table that is never empty.
type Resolver struct {
	source   Source
	fallback float64
	now      func() time.Time
}

// NewResolver creates a Resolver that substitutes fallback when source fails.
func NewResolver(source Source, fallback float64) *Resolver {
	return &Resolver{
		source:   source,
		fallback: fallback,
		now:      time.Now,
	}
}

// WithClock overrides the clock used to date the fallback row.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Resolve fetches rates. Any failure is logged and replaced by a single row
// for today at the fallback rate; it never returns an error.
func (r *Resolver) Resolve(ctx context.Context) domain.RateTable {
	log := logger.FromContext(ctx)

	rows, err := r.source.FetchRates(ctx)
	if err == nil && len(rows) == 0 {
		err = errNoRates
	}
	if err != nil {
		table := domain.FallbackRateTable(r.now(), r.fallback)
		log.Error().
			Err(err).
			Float64("fallback_rate", r.fallback).
			Str("date", table.Rows[0].Date).
			Msg("Rate API error, using fallback rate")
		return table
	}

	log.Info().Int("rows", len(rows)).Msg("Fetched currency rates")
	return domain.RateTable{Rows: rows}
}
