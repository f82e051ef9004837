package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/ecommerce-pipeline/internal/config"
	"github.com/dvloznov/ecommerce-pipeline/internal/domain"
	"github.com/dvloznov/ecommerce-pipeline/internal/gcs"
	"github.com/dvloznov/ecommerce-pipeline/internal/logger"
	"github.com/dvloznov/ecommerce-pipeline/internal/notify"
	"github.com/dvloznov/ecommerce-pipeline/internal/parquetio"
)

// PipelineStep represents a single step in the daily pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	RunID string
	Paths config.Paths

	Transactions domain.TransactionTable
	Rates        domain.RateTable
	Joined       domain.JoinedTable
	Output       domain.OutputTable
	Report       *domain.DQReport

	// Destination names where the output ended up: the local file after
	// persistence, the warehouse table after a load.
	Destination string
}

// ExtractTransactionsStep writes the raw transaction extract to Paths.Transactions.
type ExtractTransactionsStep struct {
	Source TransactionExtractor
}

func (s *ExtractTransactionsStep) Execute(ctx context.Context, state *PipelineState) error {
	table, err := s.Source.ExtractTransactions(ctx)
	if err != nil {
		return err
	}
	if err := parquetio.WriteTransactions(state.Paths.Transactions, table); err != nil {
		return err
	}
	log := logger.FromContext(ctx)
	log.Info().
		Int("rows", len(table.Rows)).
		Str("path", state.Paths.Transactions).
		Msg("Saved transaction extract")
	return nil
}

// ExtractRatesStep writes the resolved rate table to Paths.Rates.
type ExtractRatesStep struct {
	Resolver RateResolver
}

func (s *ExtractRatesStep) Execute(ctx context.Context, state *PipelineState) error {
	table := s.Resolver.Resolve(ctx)
	if err := parquetio.WriteRates(state.Paths.Rates, table); err != nil {
		return err
	}
	log := logger.FromContext(ctx)
	log.Info().
		Int("rows", len(table.Rows)).
		Str("path", state.Paths.Rates).
		Msg("Saved rate extract")
	return nil
}

// ReadInputsStep loads both extracts written by the extract steps.
type ReadInputsStep struct{}

func (s *ReadInputsStep) Execute(ctx context.Context, state *PipelineState) error {
	tx, err := parquetio.ReadTransactions(state.Paths.Transactions)
	if err != nil {
		return err
	}
	rates, err := parquetio.ReadRates(state.Paths.Rates)
	if err != nil {
		return err
	}
	state.Transactions = tx
	state.Rates = rates
	return nil
}

// JoinStep attaches rates to transactions.
type JoinStep struct{}

func (s *JoinStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Joined = Join(state.Transactions, state.Rates)
	return nil
}

// ConvertStep computes thb_amount.
type ConvertStep struct {
	Fallback float64
}

func (s *ConvertStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Joined = Convert(state.Joined, s.Fallback)
	return nil
}

// ProjectStep selects the output columns.
type ProjectStep struct{}

func (s *ProjectStep) Execute(ctx context.Context, state *PipelineState) error {
	state.Output = Project(ctx, state.Joined)
	return nil
}

// QualityStep runs the data-quality stages and keeps their report.
type QualityStep struct {
	Notifier notify.Notifier
}

func (s *QualityStep) Execute(ctx context.Context, state *PipelineState) error {
	output, report := CheckQuality(ctx, state.Output, s.Notifier)
	state.Output = output
	state.Report = &report
	return nil
}

// PersistStep writes the validated table to Paths.Output.
type PersistStep struct{}

func (s *PersistStep) Execute(ctx context.Context, state *PipelineState) error {
	if err := parquetio.WriteOutput(state.Paths.Output, state.Output); err != nil {
		return err
	}
	state.Destination = state.Paths.Output
	log := logger.FromContext(ctx)
	log.Info().
		Int("rows", len(state.Output.Rows)).
		Str("path", state.Paths.Output).
		Msg("Saved final data")
	return nil
}

// UploadStep stages Paths.Output in object storage.
type UploadStep struct {
	Uploader Uploader
	Bucket   string
	Object   string
}

func (s *UploadStep) Execute(ctx context.Context, state *PipelineState) error {
	if err := s.Uploader.UploadFile(ctx, s.Bucket, s.Object, state.Paths.Output); err != nil {
		return fmt.Errorf("upload %s: %w", state.Paths.Output, err)
	}
	state.Destination = gcs.URI(s.Bucket, s.Object)
	log := logger.FromContext(ctx)
	log.Info().Str("gcs_uri", state.Destination).Msg("Uploaded final data")
	return nil
}

// LoadStep replaces the warehouse table with the staged object.
type LoadStep struct {
	Loader WarehouseLoader
	GCSURI string
}

func (s *LoadStep) Execute(ctx context.Context, state *PipelineState) error {
	if err := s.Loader.LoadParquet(ctx, s.GCSURI); err != nil {
		return err
	}
	state.Destination = s.Loader.Destination()
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// transformSteps reads both extracts and persists the validated output.
func transformSteps(n notify.Notifier) []PipelineStep {
	return []PipelineStep{
		&ReadInputsStep{},
		&JoinStep{},
		&ConvertStep{Fallback: domain.FallbackRate},
		&ProjectStep{},
		&QualityStep{Notifier: n},
		&PersistStep{},
	}
}

// NewTransformPipeline creates the merge-and-clean pipeline over extracts
// already on disk.
func NewTransformPipeline(n notify.Notifier) *Pipeline {
	return NewPipeline(transformSteps(n)...)
}

// DailyDeps are the collaborators of a full daily run.
type DailyDeps struct {
	Transactions TransactionExtractor
	Rates        RateResolver
	Notifier     notify.Notifier
	Uploader     Uploader
	Loader       WarehouseLoader
	Bucket       string
	Object       string
}

// NewDailyPipeline creates the full run: extract both sources, transform,
// stage the output in GCS and load it into the warehouse.
func NewDailyPipeline(deps DailyDeps) *Pipeline {
	steps := []PipelineStep{
		&ExtractTransactionsStep{Source: deps.Transactions},
		&ExtractRatesStep{Resolver: deps.Rates},
	}
	steps = append(steps, transformSteps(deps.Notifier)...)
	steps = append(steps,
		&UploadStep{Uploader: deps.Uploader, Bucket: deps.Bucket, Object: deps.Object},
		&LoadStep{Loader: deps.Loader, GCSURI: gcs.URI(deps.Bucket, deps.Object)},
	)
	return NewPipeline(steps...)
}

// Run executes p and reports the outcome through n: a failure alert on
// error, or a success message with the DQ summary once the quality stage has
// run. The pipeline error, if any, is returned unchanged.
func Run(ctx context.Context, p *Pipeline, state *PipelineState, n notify.Notifier, task string) error {
	ctx = logger.WithRun(ctx, state.RunID, task)
	log := logger.FromContext(ctx)
	log.Info().Msg("Pipeline started")

	if err := p.Execute(ctx, state); err != nil {
		log.Error().Err(err).Msg("Pipeline failed")
		n.Notify(ctx, notify.FailureMessage(state.RunID, task, err))
		return err
	}

	log.Info().Str("destination", state.Destination).Msg("Pipeline completed")
	if state.Report != nil {
		n.Notify(ctx, notify.SuccessMessage(state.Destination, state.Report))
	}
	return nil
}
