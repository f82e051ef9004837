package pipeline

import (
	"context"

	"github.com/dvloznov/ecommerce-pipeline/internal/domain"
	"github.com/dvloznov/ecommerce-pipeline/internal/gcs"
)

// TransactionExtractor provides the raw transaction extract.
// This interface enables mocking of the relational source in tests.
type TransactionExtractor interface {
	ExtractTransactions(ctx context.Context) (domain.TransactionTable, error)
}

// RateResolver provides the daily rate table. Implementations absorb source
// failures, so Resolve has no error return.
type RateResolver interface {
	Resolve(ctx context.Context) domain.RateTable
}

// Uploader copies a local file to object storage.
type Uploader = gcs.StorageService

// WarehouseLoader replaces the destination table with a staged Parquet object.
type WarehouseLoader interface {
	LoadParquet(ctx context.Context, gcsURI string) error
	Destination() string
}
