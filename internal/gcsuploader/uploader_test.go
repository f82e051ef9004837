package gcsuploader

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestUploadFile_MissingFile(t *testing.T) {
	s := NewGCSStorageServiceWithClient(nil)
	missing := filepath.Join(t.TempDir(), "final_data.parquet")

	err := s.UploadFile(context.Background(), "bucket", "staging/transaction.parquet", missing)

	if err == nil || !strings.Contains(err.Error(), "open file") {
		t.Fatalf("UploadFile() error = %v, want open error", err)
	}
}

func TestClientOptions(t *testing.T) {
	if opts := ClientOptions(""); len(opts) != 0 {
		t.Errorf("ClientOptions(\"\") = %d options, want none", len(opts))
	}
	if opts := ClientOptions("/secrets/sa.json"); len(opts) != 1 {
		t.Errorf("ClientOptions(file) = %d options, want 1", len(opts))
	}
}

func TestClose_NilClient(t *testing.T) {
	if err := NewGCSStorageServiceWithClient(nil).Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
