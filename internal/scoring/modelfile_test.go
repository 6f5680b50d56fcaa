package scoring

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadForest(t *testing.T) {
	f, err := TrainForest(separableDataset(), ForestOptions{Trees: 10, Seed: 5})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "models", "forest.json")
	require.NoError(t, SaveForest(path, f))

	loaded, err := LoadForest(path)
	require.NoError(t, err)
	assert.Equal(t, f.Features, loaded.Features)

	for _, x := range [][]float64{{0.1, 0.1}, {0.5, 0.5}, {0.9, 0.2}} {
		want, err := f.PredictProba(x)
		require.NoError(t, err)
		got, err := loaded.PredictProba(x)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestLoadOrTrain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forest.json")
	calls := 0
	load := func() (*Dataset, error) {
		calls++
		return separableDataset(), nil
	}

	first, err := LoadOrTrain(path, ForestOptions{Trees: 4, Seed: 9}, load)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	_, err = os.Stat(path)
	require.NoError(t, err)

	second, err := LoadOrTrain(path, ForestOptions{Trees: 4, Seed: 9}, load)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "existing model file should be reused")
	assert.Equal(t, len(first.Trees), len(second.Trees))
}

func TestLoadOrTrain_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadOrTrain("", DefaultForestOptions(), func() (*Dataset, error) {
		return nil, errors.New("no dataset")
	})
	assert.Error(t, err)

	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("{"), 0o644))
	_, err = LoadOrTrain(corrupt, DefaultForestOptions(), func() (*Dataset, error) {
		return separableDataset(), nil
	})
	assert.Error(t, err)
}
