// Package dataset keeps the metadata of research dataset uploads. Only
// metadata is recorded; file contents are out of scope for the
// dashboard backend.
package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketUploads = []byte("uploads")
	keyRecords    = []byte("records")
)

// Record describes one uploaded dataset.
type Record struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"contentType,omitempty"`
	UploadedAt  time.Time `json:"uploadedAt"`
	UploadedBy  string    `json:"uploadedBy"`
}

// Store persists upload records as a single JSON array in a local bbolt
// database, appended in upload order.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("dataset: create data directory: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("dataset: open store: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketUploads)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("dataset: init bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append adds a record to the upload log.
func (s *Store) Append(ctx context.Context, rec Record) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		records, err := readRecords(tx)
		if err != nil {
			return err
		}
		records = append(records, rec)
		raw, err := json.Marshal(records)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketUploads).Put(keyRecords, raw)
	})
	if err != nil {
		return fmt.Errorf("dataset: append record: %w", err)
	}
	return nil
}

// List returns all records in upload order.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	var records []Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		records, err = readRecords(tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("dataset: list records: %w", err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

func readRecords(tx *bbolt.Tx) ([]Record, error) {
	raw := tx.Bucket(bucketUploads).Get(keyRecords)
	if raw == nil {
		return nil, nil
	}
	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode upload log: %w", err)
	}
	return records, nil
}
