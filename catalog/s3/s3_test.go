package s3_test

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/Zaphodious/oosikle-app/catalog"
	"github.com/Zaphodious/oosikle-app/catalog/catalogtest"
	"github.com/Zaphodious/oosikle-app/catalog/s3"
	"github.com/Zaphodious/oosikle-app/data"
)

// Example: OOSIKLE_TEST_S3_ENDPOINT=localhost:9000 with
// OOSIKLE_TEST_S3_ACCESS_KEY and OOSIKLE_TEST_S3_SECRET_KEY for a local minio.
func TestS3Store(t *testing.T) {
	endpoint := os.Getenv("OOSIKLE_TEST_S3_ENDPOINT")
	if endpoint == "" {
		t.Skip("OOSIKLE_TEST_S3_ENDPOINT not set")
	}

	catalogtest.RunStoreTests(t, func(t *testing.T) catalog.Store {
		// Every run gets its own bucket
		bucket := "oosikle-test-" + strings.ToLower(data.NewRecordID()[:16])
		store, err := s3.New(endpoint, bucket,
			os.Getenv("OOSIKLE_TEST_S3_ACCESS_KEY"),
			os.Getenv("OOSIKLE_TEST_S3_SECRET_KEY"),
			os.Getenv("OOSIKLE_TEST_S3_SSL") == "true")
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		if err := store.Open(t.Context()); err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		return store
	})
}

func TestS3Store_IndexDirIsReserved(t *testing.T) {
	// Rejected before any request is made, so no server is needed
	store, err := s3.New("localhost:9", "unused", "", "", false)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	rec := &data.FileRecord{Name: "0123", VfsPath: ".oosikle-index/"}
	if err := store.InsertFile(t.Context(), rec); !errors.Is(err, data.ErrInvalidRecord) {
		t.Errorf("Expected ErrInvalidRecord, got %v", err)
	}
}
