package gcs

import "testing"

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{"gs://proj-datalake/staging/transaction.parquet", "proj-datalake", "staging/transaction.parquet", false},
		{"gs://bucket/file", "bucket", "file", false},
		{"s3://bucket/file", "", "", true},
		{"gs://bucket", "", "", true},
		{"gs://bucket/", "", "", true},
		{"gs:///object", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, object, err := ParseURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseURI() error = %v, wantErr %v", err, tt.wantErr)
			}
			if bucket != tt.wantBucket || object != tt.wantObject {
				t.Errorf("ParseURI() = (%q, %q), want (%q, %q)", bucket, object, tt.wantBucket, tt.wantObject)
			}
		})
	}
}

func TestURI(t *testing.T) {
	uri := URI("b", "staging/transaction.parquet")
	if uri != "gs://b/staging/transaction.parquet" {
		t.Errorf("URI() = %q", uri)
	}
	bucket, object, err := ParseURI(uri)
	if err != nil || bucket != "b" || object != "staging/transaction.parquet" {
		t.Errorf("ParseURI(URI()) = (%q, %q, %v)", bucket, object, err)
	}
}
