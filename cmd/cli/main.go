package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/ecommerce-pipeline/internal/config"
	"github.com/dvloznov/ecommerce-pipeline/internal/domain"
	"github.com/dvloznov/ecommerce-pipeline/internal/gcsuploader"
	infraBQ "github.com/dvloznov/ecommerce-pipeline/internal/infra/bigquery"
	"github.com/dvloznov/ecommerce-pipeline/internal/infra/mysql"
	"github.com/dvloznov/ecommerce-pipeline/internal/logger"
	"github.com/dvloznov/ecommerce-pipeline/internal/notify"
	"github.com/dvloznov/ecommerce-pipeline/internal/parquetio"
	"github.com/dvloznov/ecommerce-pipeline/internal/pipeline"
	"github.com/dvloznov/ecommerce-pipeline/internal/rates"
)

const runTimeout = 30 * time.Minute

// commands maps subcommand names to their entry points. Each returns its
// error instead of exiting so deferred cleanup runs first.
var commands = map[string]func(args []string) error{
	"extract-transactions": runExtractTransactions,
	"extract-rates":        runExtractRates,
	"transform":            runTransform,
	"upload":               runUpload,
	"load":                 runLoad,
	"run":                  runDaily,
	"inspect":              runInspect,
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	name := os.Args[1]
	switch name {
	case "help", "-h", "--help":
		printUsage()
		return
	}

	run, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	if err := run(os.Args[2:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log := logger.New()
		log.Fatal().Err(err).Str("command", name).Msg("Command failed")
	}
}

func printUsage() {
	fmt.Println("E-commerce Pipeline CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  extract-transactions  Extract transactions from MySQL to Parquet")
	fmt.Println("  extract-rates         Fetch GBP->THB rates (fallback on failure) to Parquet")
	fmt.Println("  transform             Join, convert, clean and persist the final table")
	fmt.Println("  upload                Upload the final table to GCS")
	fmt.Println("  load                  Load the staged table into BigQuery")
	fmt.Println("  run                   Run every task above in order")
	fmt.Println("  inspect               Print a summary of the final table")
	fmt.Println("  help                  Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// task carries what every subcommand needs after flag parsing.
type task struct {
	name     string
	runID    string
	cfg      config.Provider
	settings config.Settings
	log      zerolog.Logger
	notifier notify.Notifier
}

// newTask parses the common flags plus any registered on fs and loads configuration.
func newTask(fs *flag.FlagSet, args []string) (*task, error) {
	runID := fs.String("run-id", "", "Run identifier; scopes intermediate files to <temp_dir>/<run-id>")
	envFile := fs.String("env-file", ".env", "Optional dotenv file with pipeline settings")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := config.NewEnvProvider("", *envFile)
	settings := config.Load(cfg)

	return &task{
		name:     fs.Name(),
		runID:    *runID,
		cfg:      cfg,
		settings: settings,
		log:      logger.NewWithLevel(settings.LogLevel),
		notifier: notify.NewDiscordNotifier(cfg, nil),
	}, nil
}

func (t *task) context() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	ctx = logger.WithContext(ctx, t.log)
	return ctx, func() {
		cancel()
		stop()
	}
}

// execute runs p as one notified pipeline run.
func (t *task) execute(ctx context.Context, p *pipeline.Pipeline) (*pipeline.PipelineState, error) {
	state := &pipeline.PipelineState{RunID: t.runID, Paths: t.settings.RunPaths(t.runID)}
	if err := pipeline.Run(ctx, p, state, t.notifier, t.name); err != nil {
		return nil, fmt.Errorf("%s: %w", t.name, err)
	}
	return state, nil
}

func (t *task) openTransactionSource(ctx context.Context) (*mysql.TransactionSource, *sql.DB, error) {
	if t.settings.MySQLDSN == "" {
		return nil, nil, fmt.Errorf("%s: %w: mysql_dsn", t.name, config.ErrMissingConfig)
	}
	db, err := mysql.Open(ctx, t.settings.MySQLDSN)
	if err != nil {
		return nil, nil, err
	}
	return mysql.NewTransactionSource(db, t.settings.SourceSchema), db, nil
}

func (t *task) rateResolver() *rates.Resolver {
	return rates.NewResolver(rates.NewHTTPSource(t.cfg, nil), domain.FallbackRate)
}

func (t *task) storage(ctx context.Context) (*gcsuploader.GCSStorageService, error) {
	return gcsuploader.NewGCSStorageService(ctx, gcsuploader.ClientOptions(t.settings.CredentialsFile)...)
}

func (t *task) loader(ctx context.Context) (*infraBQ.Loader, error) {
	return infraBQ.NewLoader(ctx, t.settings.ProjectID, t.settings.Dataset, t.settings.Table,
		gcsuploader.ClientOptions(t.settings.CredentialsFile)...)
}

func runExtractTransactions(args []string) error {
	t, err := newTask(flag.NewFlagSet("extract-transactions", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	ctx, cancel := t.context()
	defer cancel()

	source, db, err := t.openTransactionSource(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = t.execute(ctx, pipeline.NewPipeline(&pipeline.ExtractTransactionsStep{Source: source}))
	return err
}

func runExtractRates(args []string) error {
	t, err := newTask(flag.NewFlagSet("extract-rates", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	ctx, cancel := t.context()
	defer cancel()

	_, err = t.execute(ctx, pipeline.NewPipeline(&pipeline.ExtractRatesStep{Resolver: t.rateResolver()}))
	return err
}

func runTransform(args []string) error {
	t, err := newTask(flag.NewFlagSet("transform", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	ctx, cancel := t.context()
	defer cancel()

	state, err := t.execute(ctx, pipeline.NewTransformPipeline(t.notifier))
	if err != nil {
		return err
	}
	fmt.Printf("Saved %d rows to %s\n", len(state.Output.Rows), state.Paths.Output)
	return nil
}

func runUpload(args []string) error {
	t, err := newTask(flag.NewFlagSet("upload", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	ctx, cancel := t.context()
	defer cancel()

	s, err := t.storage(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	state, err := t.execute(ctx, pipeline.NewPipeline(
		&pipeline.UploadStep{Uploader: s, Bucket: t.settings.Bucket, Object: t.settings.GCSPath},
	))
	if err != nil {
		return err
	}
	fmt.Printf("Uploaded %s to %s\n", state.Paths.Output, state.Destination)
	return nil
}

func runLoad(args []string) error {
	t, err := newTask(flag.NewFlagSet("load", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	ctx, cancel := t.context()
	defer cancel()

	l, err := t.loader(ctx)
	if err != nil {
		return err
	}
	defer l.Close()

	if _, err := t.execute(ctx, pipeline.NewPipeline(&pipeline.LoadStep{Loader: l, GCSURI: t.settings.GCSURI()})); err != nil {
		return err
	}

	n, err := l.CountRows(ctx)
	if err != nil {
		t.log.Error().Err(err).Msg("Failed to count loaded rows")
		return nil
	}
	fmt.Printf("Loaded %d rows into %s\n", n, l.Destination())
	return nil
}

func runDaily(args []string) error {
	t, err := newTask(flag.NewFlagSet("run", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	if t.runID == "" {
		t.runID = uuid.NewString()
	}
	ctx, cancel := t.context()
	defer cancel()

	source, db, err := t.openTransactionSource(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	s, err := t.storage(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	l, err := t.loader(ctx)
	if err != nil {
		return err
	}
	defer l.Close()

	state, err := t.execute(ctx, pipeline.NewDailyPipeline(pipeline.DailyDeps{
		Transactions: source,
		Rates:        t.rateResolver(),
		Notifier:     t.notifier,
		Uploader:     s,
		Loader:       l,
		Bucket:       t.settings.Bucket,
		Object:       t.settings.GCSPath,
	}))
	if err != nil {
		return err
	}
	fmt.Printf("Run %s completed: %d rows loaded into %s\n", t.runID, len(state.Output.Rows), state.Destination)
	return nil
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	limit := fs.Int("limit", 10, "Number of rows to print")
	t, err := newTask(fs, args)
	if err != nil {
		return err
	}

	path := t.settings.RunPaths(t.runID).Output
	table, err := parquetio.ReadOutput(path)
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	printSummary(os.Stdout, path, table, *limit)
	return nil
}

func printSummary(w io.Writer, path string, table domain.OutputTable, limit int) {
	fmt.Fprintln(w, "\n=== Final Table ===")
	fmt.Fprintf(w, "Path:    %s\n", path)
	fmt.Fprintf(w, "Columns: %v\n", table.Columns)
	fmt.Fprintf(w, "Rows:    %d\n", len(table.Rows))

	var totalTHB float64
	for _, r := range table.Rows {
		totalTHB += r.THBAmount
	}
	fmt.Fprintf(w, "THB sum: %.2f\n", totalTHB)

	fmt.Fprintf(w, "\n=== First %d rows ===\n", min(limit, len(table.Rows)))
	for i, r := range table.Rows {
		if i >= limit {
			break
		}
		date := "<null>"
		if r.Date != nil {
			date = *r.Date
		}
		fmt.Fprintf(w, "%d. tx=%s product=%s date=%s qty=%d total=%.2f thb=%.2f\n",
			i+1, r.TransactionID, r.ProductID, date, r.Quantity, r.TotalAmount, r.THBAmount)
	}
	fmt.Fprintln(w)
}
