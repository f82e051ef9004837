package main

import (
	"bytes"
	"errors"
	"flag"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dvloznov/ecommerce-pipeline/internal/config"
	"github.com/dvloznov/ecommerce-pipeline/internal/domain"
	"github.com/dvloznov/ecommerce-pipeline/internal/parquetio"
)

// isolate points every task at a fresh temp dir and clears settings that
// would reach real services.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("TEMP_DIR", dir)
	t.Setenv("DISCORD_WEBHOOK", "")
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("CURRENCY_API_URL", "")
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func noEnvFile(dir string) []string {
	return []string{"-env-file", filepath.Join(dir, "missing.env")}
}

func TestCommandsCoverUsage(t *testing.T) {
	for _, name := range []string{"extract-transactions", "extract-rates", "transform", "upload", "load", "run", "inspect"} {
		if _, ok := commands[name]; !ok {
			t.Errorf("command %q is not registered", name)
		}
	}
}

func TestNewTask(t *testing.T) {
	dir := isolate(t)

	task, err := newTask(flag.NewFlagSet("transform", flag.ContinueOnError), append(noEnvFile(dir), "-run-id", "r-1"))
	if err != nil {
		t.Fatalf("newTask: %v", err)
	}
	if task.name != "transform" || task.runID != "r-1" {
		t.Errorf("task = (%q, %q), want (transform, r-1)", task.name, task.runID)
	}
	if task.settings.TempDir != dir {
		t.Errorf("TempDir = %q, want %q", task.settings.TempDir, dir)
	}
}

func TestNewTask_BadFlag(t *testing.T) {
	fs := flag.NewFlagSet("transform", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	if _, err := newTask(fs, []string{"-no-such-flag"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestRunExtractTransactions_RequiresDSN(t *testing.T) {
	dir := isolate(t)

	err := runExtractTransactions(noEnvFile(dir))
	if !errors.Is(err, config.ErrMissingConfig) {
		t.Errorf("err = %v, want ErrMissingConfig", err)
	}
}

func TestRunExtractRates_WritesRunScopedTable(t *testing.T) {
	dir := isolate(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id": 1, "date": "2024-01-01T00:00:00", "gbp_thb": 44.5}]`))
	}))
	defer srv.Close()
	t.Setenv("CURRENCY_API_URL", srv.URL)

	if err := runExtractRates(append(noEnvFile(dir), "-run-id", "r-2")); err != nil {
		t.Fatalf("runExtractRates: %v", err)
	}

	got, err := parquetio.ReadRates(filepath.Join(dir, "r-2", config.RatesFileName))
	if err != nil {
		t.Fatalf("ReadRates: %v", err)
	}
	want := []domain.RateRecord{{Date: "2024-01-01", GBPTHB: 44.5}}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Errorf("rates mismatch (-want +got):\n%s", diff)
	}
}

func TestRunTransform_MissingInputsReturnsError(t *testing.T) {
	dir := isolate(t)

	err := runTransform(noEnvFile(dir))
	if err == nil {
		t.Fatal("expected error when extracts are missing")
	}
	if !strings.Contains(err.Error(), "pipeline step 1 failed") {
		t.Errorf("err = %v, want the failing step", err)
	}
}

func TestRunInspect_MissingOutput(t *testing.T) {
	dir := isolate(t)

	if err := runInspect(noEnvFile(dir)); err == nil {
		t.Error("expected error when the final table is missing")
	}
}

func TestPrintSummary(t *testing.T) {
	date := "2024-01-01"
	table := domain.OutputTable{
		Columns: domain.OutputColumns,
		Rows: []domain.OutputRecord{
			{TransactionID: "a", ProductID: "p", Date: &date, Quantity: 1, TotalAmount: 1, THBAmount: 10},
			{TransactionID: "b", ProductID: "p", Quantity: 2, TotalAmount: 2, THBAmount: 20},
		},
	}
	var buf bytes.Buffer

	printSummary(&buf, "/tmp/final_data.parquet", table, 1)

	out := buf.String()
	for _, want := range []string{"Rows:    2", "THB sum: 30.00", "=== First 1 rows ===", "1. tx=a product=p date=2024-01-01"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "tx=b") {
		t.Errorf("summary printed past the limit:\n%s", out)
	}
}
