package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aigoflow/quality-service/internal/config"
	"github.com/aigoflow/quality-service/internal/models"
	"github.com/aigoflow/quality-service/internal/repository"
	"github.com/aigoflow/quality-service/internal/scoring"
	"github.com/aigoflow/quality-service/internal/store"
)

// openRepository opens the configured result backend, wrapped with the S3
// archive when a bucket is configured.
func openRepository(ctx context.Context, cfg *config.Config, schema models.Schema) (repository.ResultRepository, repository.EventRepository, error) {
	var (
		repo   repository.ResultRepository
		events repository.EventRepository
	)
	switch cfg.StoreBackend {
	case config.BackendCSV:
		csvRepo, err := repository.NewCSVResultRepository(cfg.ResultsPath, schema)
		if err != nil {
			return nil, nil, fmt.Errorf("open results file: %w", err)
		}
		repo, events = csvRepo, repository.LogEventRepository{}

	case config.BackendSQLite, config.BackendPostgres:
		var (
			db  *store.DB
			err error
		)
		if cfg.StoreBackend == config.BackendSQLite {
			db, err = store.OpenSQLite(cfg.DBPath)
		} else {
			db, err = store.OpenPostgres(ctx, cfg.DatabaseURL)
		}
		if err != nil {
			return nil, nil, err
		}
		sqlRepo, err := repository.NewSQLResultRepository(ctx, db, schema)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("open results table: %w", err)
		}
		repo, events = sqlRepo, repository.NewSQLEventRepository(db)

	default:
		return nil, nil, fmt.Errorf("%w: unknown STORE_BACKEND %q", config.ErrInvalidConfig, cfg.StoreBackend)
	}

	if cfg.ArchiveBucket != "" {
		s3Client, err := store.NewS3Client(ctx, store.S3Config{
			Bucket:    cfg.ArchiveBucket,
			Endpoint:  cfg.ArchiveEndpoint,
			Region:    cfg.ArchiveRegion,
			AccessKey: cfg.ArchiveAccessKey,
			SecretKey: cfg.ArchiveSecretKey,
		})
		if err != nil {
			repo.Close()
			return nil, nil, err
		}
		repo = repository.NewArchivingRepository(repo, s3Client, cfg.ArchivePrefix, schema)
		slog.Info("Archiving results to object storage", "bucket", cfg.ArchiveBucket, "prefix", cfg.ArchivePrefix)
	}
	return repo, events, nil
}

// buildScorer constructs the configured scoring strategy. There is no
// fallback between strategies.
func buildScorer(ctx context.Context, cfg *config.Config, catalog models.Catalog) (scoring.Scorer, error) {
	switch cfg.Scorer {
	case config.ScorerForest:
		opts := scoring.DefaultForestOptions()
		opts.Trees = cfg.ForestTrees
		opts.Seed = cfg.ForestSeed
		forest, err := scoring.LoadOrTrain(cfg.ModelPath, opts, func() (*scoring.Dataset, error) {
			if cfg.DatasetPath != "" {
				return scoring.LoadDataset(cfg.DatasetPath, catalog)
			}
			slog.Info("No training dataset configured, using built-in examples")
			return scoring.DummyDataset(catalog), nil
		})
		if err != nil {
			return nil, err
		}
		return scoring.NewForestScorer(forest, catalog)

	case config.ScorerGenerative:
		gen, err := scoring.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTimeout)
		if err != nil {
			return nil, err
		}
		return scoring.NewGenerativeScorer(gen, catalog, "gemini"), nil

	default:
		return nil, fmt.Errorf("%w: unknown SCORER %q", config.ErrInvalidConfig, cfg.Scorer)
	}
}

func logEvent(ctx context.Context, events repository.EventRepository, level, code, msg string, meta map[string]interface{}) {
	if err := events.LogEvent(ctx, level, code, msg, meta); err != nil {
		slog.Warn("Failed to record event", "code", code, "error", err)
	}
}
