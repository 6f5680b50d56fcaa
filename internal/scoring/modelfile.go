package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// SaveForest writes the forest as JSON, replacing path atomically.
func SaveForest(path string, f *Forest) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create model directory: %w", err)
		}
	}
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode forest: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write forest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("install forest: %w", err)
	}
	return nil
}

// LoadForest reads a forest written by SaveForest.
func LoadForest(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f Forest
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode forest %s: %w", path, err)
	}
	if len(f.Trees) == 0 {
		return nil, fmt.Errorf("forest %s has no trees", path)
	}
	return &f, nil
}

// LoadOrTrain loads the model at path if it exists. Otherwise it trains one on
// the dataset returned by load and saves it to path for the next start.
func LoadOrTrain(path string, opts ForestOptions, load func() (*Dataset, error)) (*Forest, error) {
	if path != "" {
		f, err := LoadForest(path)
		if err == nil {
			slog.Info("Loaded forest model", "path", path, "trees", len(f.Trees), "features", len(f.Features))
			return f, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	ds, err := load()
	if err != nil {
		return nil, fmt.Errorf("load training data: %w", err)
	}
	f, err := TrainForest(ds, opts)
	if err != nil {
		return nil, fmt.Errorf("train forest: %w", err)
	}
	slog.Info("Trained forest model", "rows", len(ds.X), "trees", opts.Trees, "seed", opts.Seed)

	if path != "" {
		if err := SaveForest(path, f); err != nil {
			return nil, err
		}
		slog.Info("Saved forest model", "path", path)
	}
	return f, nil
}
