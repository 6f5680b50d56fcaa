package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aigoflow/quality-service/internal/models"
)

func TestCSVResultRepository(t *testing.T) {
	repo, err := NewCSVResultRepository(filepath.Join(t.TempDir(), "results.csv"), testSchema)
	require.NoError(t, err)
	defer repo.Close()
	exerciseRepository(t, repo)
}

func TestCSVResultRepository_HeaderWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "medicine_analysis_results.csv")
	repo, err := NewCSVResultRepository(path, testSchema)
	require.NoError(t, err)
	defer repo.Close()

	_, err = os.Stat(path)
	assert.True(t, errors.Is(err, os.ErrNotExist), "file is created on first append")

	ctx := context.Background()
	require.NoError(t, repo.Append(ctx, newRecord(t, 1)))
	require.NoError(t, repo.Append(ctx, newRecord(t, 2)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	header := "timestamp,name,batchNumber,expiryDate,chemical_stability,contamination_level,ph_level,sterility_index,temperature_exposure,moisture_content,result,confidence,explanation"
	assert.True(t, strings.HasPrefix(string(data), header+"\n"))
	assert.Equal(t, 1, strings.Count(string(data), header))
}

func TestCSVResultRepository_ReopenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	ctx := context.Background()

	repo, err := NewCSVResultRepository(path, testSchema)
	require.NoError(t, err)
	require.NoError(t, repo.Append(ctx, newRecord(t, 1)))
	require.NoError(t, repo.Close())

	repo, err = NewCSVResultRepository(path, testSchema)
	require.NoError(t, err)
	defer repo.Close()
	require.NoError(t, repo.Append(ctx, newRecord(t, 2)))

	rows, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestCSVResultRepository_SchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, os.WriteFile(path, []byte("timestamp,result\n2024-01-01 00:00:00,Pass\n"), 0o644))

	_, err := NewCSVResultRepository(path, testSchema)
	assert.True(t, errors.Is(err, models.ErrSchemaMismatch))
}

func TestCSVResultRepository_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	repo, err := NewCSVResultRepository(path, testSchema)
	require.NoError(t, err)
	defer repo.Close()

	rows, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)

	require.NoError(t, repo.Append(context.Background(), newRecord(t, 3)))
	rows, err = repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestCSVResultRepository_ConcurrentAppends(t *testing.T) {
	repo, err := NewCSVResultRepository(filepath.Join(t.TempDir(), "results.csv"), testSchema)
	require.NoError(t, err)
	defer repo.Close()

	const n = 40
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- repo.Append(context.Background(), newRecord(t, i))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	rows, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, n)
	seen := make(map[string]bool)
	for _, r := range rows {
		assert.Equal(t, "Pass", r.Get("result"))
		seen[r.Get("batchNumber")] = true
	}
	assert.Len(t, seen, n)
}

func TestCSVResultRepository_CancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	repo, err := NewCSVResultRepository(path, testSchema)
	require.NoError(t, err)
	defer repo.Close()

	other, err := NewCSVResultRepository(path, testSchema)
	require.NoError(t, err)
	defer other.Close()
	locked, err := other.lock.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, repo.Append(ctx, newRecord(t, 1)))
}
