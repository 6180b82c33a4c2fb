package dataset

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestStore_AppendAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datasets.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()

	empty, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty log, got %d", len(empty))
	}

	now := time.Now().UTC().Truncate(time.Second)
	for i, name := range []string{"soil-2023.csv", "rainfall.json"} {
		rec := Record{
			ID:          name,
			Name:        name,
			Size:        int64(100 * (i + 1)),
			ContentType: "text/csv",
			UploadedAt:  now,
			UploadedBy:  "research-1",
		}
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("append %s: %v", name, err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// The log survives a reopen, in upload order.
	store, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list after reopen: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Name != "soil-2023.csv" || records[1].Name != "rainfall.json" {
		t.Fatalf("upload order broken: %+v", records)
	}
	if !records[0].UploadedAt.Equal(now) {
		t.Fatalf("timestamp mismatch: got %v want %v", records[0].UploadedAt, now)
	}
}
