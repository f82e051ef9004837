package domain

import (
	"testing"
	"time"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"2019-12-09", "2019-12-09", false},
		{"2019-12-09 13:45:00", "2019-12-09", false},
		{"2019-12-09T13:45:00", "2019-12-09", false},
		{"2019-12-09T13:45:00Z", "2019-12-09", false},
		{"12/9/2019", "2019-12-09", false},
		{"  2019-12-09  ", "2019-12-09", false},
		{"yesterday", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeDate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDate_HasClock(t *testing.T) {
	if _, hasClock, _ := ParseDate("2019-12-09"); hasClock {
		t.Error("plain date should not report a clock component")
	}
	if _, hasClock, _ := ParseDate("2019-12-09 00:00:00"); !hasClock {
		t.Error("timestamp should report a clock component")
	}
}

func TestFallbackRateTable(t *testing.T) {
	now := time.Date(2024, 3, 5, 23, 59, 0, 0, time.UTC)
	table := FallbackRateTable(now, FallbackRate)

	if len(table.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(table.Rows))
	}
	if table.Rows[0].Date != "2024-03-05" {
		t.Errorf("Date = %q, want 2024-03-05", table.Rows[0].Date)
	}
	if table.Rows[0].GBPTHB != FallbackRate {
		t.Errorf("GBPTHB = %v, want %v", table.Rows[0].GBPTHB, FallbackRate)
	}
}

func TestDQReport_RemovedRows(t *testing.T) {
	r := DQReport{RowsRemovedByQuantity: 2, RowsRemovedByAmountOrDate: 3}
	if r.RemovedRows() != 5 {
		t.Errorf("RemovedRows() = %d, want 5", r.RemovedRows())
	}
}
