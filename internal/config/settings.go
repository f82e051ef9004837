package config

import (
	"path/filepath"

	"github.com/dvloznov/ecommerce-pipeline/internal/gcs"
)

// Defaults match the original single-project deployment.
const (
	DefaultProjectID    = "gcp-airflow-project-480711"
	DefaultDataset      = "ecommerce"
	DefaultTable        = "ecommerce_transactions"
	DefaultGCSPath      = "staging/transaction.parquet"
	DefaultSourceSchema = "r2de3"
	DefaultTempDir      = "/tmp"
	DefaultLogLevel     = "info"

	TransactionsFileName = "mysql_raw.parquet"
	RatesFileName        = "api_raw.parquet"
	OutputFileName       = "final_data.parquet"
)

// Settings is the static configuration of one pipeline deployment.
type Settings struct {
	ProjectID       string
	Bucket          string
	GCSPath         string
	Dataset         string
	Table           string
	MySQLDSN        string
	SourceSchema    string
	TempDir         string
	CredentialsFile string
	LogLevel        string
}

// Load reads Settings from p, applying defaults for anything undefined.
// The bucket defaults to "<project>-datalake".
func Load(p Provider) Settings {
	projectID := Get(p, "gcp_project_id", DefaultProjectID)
	return Settings{
		ProjectID:       projectID,
		Bucket:          Get(p, "gcs_bucket", projectID+"-datalake"),
		GCSPath:         Get(p, "gcs_path", DefaultGCSPath),
		Dataset:         Get(p, "bq_dataset", DefaultDataset),
		Table:           Get(p, "bq_table", DefaultTable),
		MySQLDSN:        Get(p, "mysql_dsn", ""),
		SourceSchema:    Get(p, "mysql_schema", DefaultSourceSchema),
		TempDir:         Get(p, "temp_dir", DefaultTempDir),
		CredentialsFile: Get(p, "google_application_credentials", ""),
		LogLevel:        Get(p, "log_level", DefaultLogLevel),
	}
}

// Paths are the intermediate and final file locations of one run.
type Paths struct {
	Transactions string
	Rates        string
	Output       string
}

// RunPaths returns the file locations for a run. An empty runID yields the
// fixed shared paths directly under TempDir; otherwise each run gets its own
// subdirectory so overlapping runs do not clobber each other.
func (s Settings) RunPaths(runID string) Paths {
	dir := s.TempDir
	if runID != "" {
		dir = filepath.Join(s.TempDir, runID)
	}
	return Paths{
		Transactions: filepath.Join(dir, TransactionsFileName),
		Rates:        filepath.Join(dir, RatesFileName),
		Output:       filepath.Join(dir, OutputFileName),
	}
}

// GCSURI is the gs:// URI the final file is uploaded to.
func (s Settings) GCSURI() string {
	return gcs.URI(s.Bucket, s.GCSPath)
}
