package repository

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/aigoflow/quality-service/internal/models"
)

const lockRetryDelay = 20 * time.Millisecond

// CSVResultRepository appends records to a CSV file with a header row. Writers
// in this process are serialized by a mutex and writers in other processes by
// an exclusive lock on a sidecar ".lock" file.
type CSVResultRepository struct {
	path   string
	schema models.Schema
	mu     sync.Mutex
	lock   *flock.Flock
}

// NewCSVResultRepository checks the header of an existing file against schema.
// A missing or empty file is created with the header on first append.
func NewCSVResultRepository(path string, schema models.Schema) (*CSVResultRepository, error) {
	header, err := readHeader(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if header != nil {
		if err := schema.Check(header); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create results directory: %w", err)
		}
	}
	return &CSVResultRepository{
		path:   path,
		schema: schema,
		lock:   flock.New(path + ".lock"),
	}, nil
}

func readHeader(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	header, err := csv.NewReader(f).Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	return header, nil
}

// Append writes one complete row with a single write call, preceded by the
// header when the file is new.
func (r *CSVResultRepository) Append(ctx context.Context, rec *models.ResultRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.lock.TryLockContext(ctx, lockRetryDelay); err != nil {
		return fmt.Errorf("lock %s: %w", r.path, err)
	}
	defer r.lock.Unlock()

	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", r.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", r.path, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if info.Size() == 0 {
		_ = w.Write(r.schema.Columns())
	}
	_ = w.Write(r.schema.Values(rec))
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode row: %w", err)
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("append to %s: %w", r.path, err)
	}
	return nil
}

// List reads every row. A file that does not exist yet yields an empty list.
func (r *CSVResultRepository) List(ctx context.Context) ([]models.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.lock.TryRLockContext(ctx, lockRetryDelay); err != nil {
		return nil, fmt.Errorf("lock %s: %w", r.path, err)
	}
	defer r.lock.Unlock()

	rows := []models.Row{}
	f, err := os.Open(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return rows, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", r.path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	if len(records) == 0 {
		return rows, nil
	}
	if err := r.schema.Check(records[0]); err != nil {
		return nil, fmt.Errorf("%s: %w", r.path, err)
	}
	for _, rec := range records[1:] {
		rows = append(rows, r.schema.NewRow(rec))
	}
	return rows, nil
}

func (r *CSVResultRepository) Close() error {
	return r.lock.Close()
}
