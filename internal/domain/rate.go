package domain

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// RateColumns is the column set of a rate table.
var RateColumns = []string{ColDate, ColGBPTHB}

// RateRecord is the GBP->THB rate for one calendar day.
type RateRecord struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	GBPTHB float64 `json:"gbp_thb"`
}

// RateTable holds at most one row per date.
type RateTable struct {
	Rows []RateRecord
}

// FallbackRateTable is the single-row table substituted when the rate API
// fails: today's date at the given rate.
func FallbackRateTable(now time.Time, rate float64) RateTable {
	return RateTable{Rows: []RateRecord{{
		Date:   civil.DateOf(now).String(),
		GBPTHB: rate,
	}}}
}

// dateLayouts are the source date formats accepted by ParseDate, most specific first.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006",
	"1/2/2006 15:04",
}

// ParseDate parses a source date or timestamp string.
// hasClock reports whether the value carried a time-of-day component.
func ParseDate(s string) (t time.Time, hasClock bool, err error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		parsed, perr := time.Parse(layout, s)
		if perr == nil {
			return parsed, strings.Contains(layout, "15"), nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognised date %q", s)
}

// NormalizeDate returns the calendar date of s as YYYY-MM-DD.
func NormalizeDate(s string) (string, error) {
	t, _, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return civil.DateOf(t).String(), nil
}
