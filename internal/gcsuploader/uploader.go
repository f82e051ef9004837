package gcsuploader

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/dvloznov/ecommerce-pipeline/internal/gcs"
	"github.com/dvloznov/ecommerce-pipeline/internal/logger"
)

// UploadTimeout bounds a single object upload.
const UploadTimeout = 2 * time.Minute

// parquetContentType is set on uploaded objects so the console previews them correctly.
const parquetContentType = "application/vnd.apache.parquet"

var _ gcs.StorageService = (*GCSStorageService)(nil)

// GCSStorageService is the concrete implementation of StorageService
// that interacts with Google Cloud Storage through a shared client.
type GCSStorageService struct {
	client *storage.Client
}

// NewGCSStorageService creates a storage client. Without options it uses
// Application Default Credentials (gcloud auth application-default login).
func NewGCSStorageService(ctx context.Context, opts ...option.ClientOption) (*GCSStorageService, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewGCSStorageService: create storage client: %w", err)
	}
	return &GCSStorageService{client: client}, nil
}

// NewGCSStorageServiceWithClient wraps an existing client.
func NewGCSStorageServiceWithClient(client *storage.Client) *GCSStorageService {
	return &GCSStorageService{client: client}
}

// ClientOptions turns an optional service-account key file into client options.
func ClientOptions(credentialsFile string) []option.ClientOption {
	if credentialsFile == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(credentialsFile)}
}

// Close closes the storage client connection.
func (s *GCSStorageService) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// UploadFile uploads a local file to a GCS bucket under the given object name,
// replacing any existing object.
func (s *GCSStorageService) UploadFile(ctx context.Context, bucketName, objectName, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open file %q: %w", filePath, err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	w := s.client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	w.ContentType = parquetContentType

	n, err := io.Copy(w, f)
	if err != nil {
		_ = w.Close()
		return fmt.Errorf("copy file to GCS writer: %w", err)
	}

	// Close to finalize the upload
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().
		Str("gcs_uri", gcs.URI(bucketName, objectName)).
		Int64("bytes", n).
		Msg("Uploaded file to GCS")
	return nil
}
