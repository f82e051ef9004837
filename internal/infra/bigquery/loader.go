package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/dvloznov/ecommerce-pipeline/internal/gcs"
	"github.com/dvloznov/ecommerce-pipeline/internal/logger"
)

// Loader replaces a BigQuery table with Parquet objects staged in GCS.
// It holds a shared BigQuery client.
type Loader struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	tableID   string
}

// NewLoader creates a Loader for projectID.datasetID.tableID.
func NewLoader(ctx context.Context, projectID, datasetID, tableID string, opts ...option.ClientOption) (*Loader, error) {
	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewLoader: bigquery client: %w", err)
	}
	return NewLoaderWithClient(client, projectID, datasetID, tableID), nil
}

// NewLoaderWithClient creates a Loader around an existing client.
func NewLoaderWithClient(client *bigquery.Client, projectID, datasetID, tableID string) *Loader {
	return &Loader{client: client, projectID: projectID, datasetID: datasetID, tableID: tableID}
}

// Close closes the BigQuery client connection.
func (l *Loader) Close() error {
	if l.client != nil {
		return l.client.Close()
	}
	return nil
}

// Destination is the dataset.table the loader writes to.
func (l *Loader) Destination() string {
	return l.datasetID + "." + l.tableID
}

// LoadParquet loads gcsURI into the destination table, truncating it first.
// The schema is autodetected from the Parquet file. It blocks until the load
// job finishes.
func (l *Loader) LoadParquet(ctx context.Context, gcsURI string) error {
	if _, _, err := gcs.ParseURI(gcsURI); err != nil {
		return fmt.Errorf("LoadParquet: %w", err)
	}
	log := logger.FromContext(ctx)

	ref := bigquery.NewGCSReference(gcsURI)
	ref.SourceFormat = bigquery.Parquet
	ref.AutoDetect = true

	loader := l.client.DatasetInProject(l.projectID, l.datasetID).Table(l.tableID).LoaderFrom(ref)
	loader.WriteDisposition = bigquery.WriteTruncate
	loader.CreateDisposition = bigquery.CreateIfNeeded

	job, err := loader.Run(ctx)
	if err != nil {
		return fmt.Errorf("LoadParquet: start load job: %w", err)
	}
	log.Info().Str("job_id", job.ID()).Str("source", gcsURI).Str("table", l.Destination()).Msg("BigQuery load job started")

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("LoadParquet: wait for job %s: %w", job.ID(), err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("LoadParquet: job %s failed: %w", job.ID(), err)
	}

	log.Info().Str("table", l.Destination()).Msg("Loaded data into BigQuery")
	return nil
}

// CountRows returns the number of rows currently in the destination table.
func (l *Loader) CountRows(ctx context.Context) (int64, error) {
	q := l.client.Query(fmt.Sprintf("SELECT COUNT(*) AS n FROM `%s.%s.%s`", l.projectID, l.datasetID, l.tableID))

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("CountRows: query read: %w", err)
	}

	var row struct {
		N int64 `bigquery:"n"`
	}
	for {
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("CountRows: iterating rows: %w", err)
		}
	}
	return row.N, nil
}
