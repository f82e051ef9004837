// Package gcs holds the storage contract shared by the uploader and the
// warehouse loader, plus gs:// URI helpers.
package gcs

import (
	"context"
	"fmt"
	"strings"
)

// StorageService provides an interface for cloud storage operations.
// This interface enables mocking and testing of storage functionality.
type StorageService interface {
	// UploadFile uploads a local file to a storage bucket under the given object name.
	UploadFile(ctx context.Context, bucketName, objectName, filePath string) error
}

// URI formats a gs:// URI.
func URI(bucketName, objectName string) string {
	return "gs://" + bucketName + "/" + objectName
}

// ParseURI splits "gs://bucket/path/to/object" into bucket and object name.
func ParseURI(uri string) (bucketName, objectName string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}
