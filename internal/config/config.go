package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	ScorerForest     = "forest"
	ScorerGenerative = "generative"

	BackendCSV      = "csv"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

var (
	// ErrMissingCredential means a required secret is not configured.
	ErrMissingCredential = errors.New("missing credential")
	// ErrInvalidConfig means a setting has a value the service cannot use.
	ErrInvalidConfig = errors.New("invalid configuration")
)

type Config struct {
	// HTTP Configuration
	HTTPAddr    string
	ServiceName string

	// Logging
	LogLevel  string
	LogFormat string

	// Parameter catalog; empty means the built-in six parameters
	ParametersFile string

	// Scoring Configuration
	Scorer        string
	GeminiAPIKey  string
	GeminiModel   string
	GeminiTimeout time.Duration
	ModelPath     string
	DatasetPath   string
	ForestTrees   int
	ForestSeed    int64

	// Result Store Configuration
	StoreBackend string
	ResultsPath  string
	DBPath       string
	DatabaseURL  string

	// Archive Configuration (S3 / MinIO), disabled when ArchiveBucket is empty
	ArchiveBucket    string
	ArchivePrefix    string
	ArchiveEndpoint  string
	ArchiveRegion    string
	ArchiveAccessKey string
	ArchiveSecretKey string

	// NATS Configuration, disabled when NatsURL is empty
	NatsURL           string
	NatsSubject       string
	NatsHealthSubject string
	NatsQueueGroup    string
}

// Load reads configuration from the environment, after applying envFile if it
// exists. Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); errors.Is(err, fs.ErrNotExist) {
			slog.Debug("No env file", "file", envFile)
		} else if err != nil {
			slog.Warn("Could not load env file", "file", envFile, "error", err)
		} else {
			slog.Info("Environment loaded", "file", envFile)
		}
	}

	cfg := &Config{
		HTTPAddr:          getEnv("HTTP_ADDR", ":8000"),
		ServiceName:       getEnv("SERVICE_NAME", "medicine-quality-api"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		ParametersFile:    getEnv("PARAMETERS_FILE", ""),
		Scorer:            getEnv("SCORER", ScorerGenerative),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiTimeout:     getEnvDuration("GEMINI_TIMEOUT", "60s"),
		ModelPath:         getEnv("MODEL_PATH", "data/models/quality_forest.json"),
		DatasetPath:       getEnv("MODEL_DATASET", ""),
		ForestTrees:       getEnvInt("FOREST_TREES", 100),
		ForestSeed:        int64(getEnvInt("FOREST_SEED", 42)),
		StoreBackend:      getEnv("STORE_BACKEND", BackendCSV),
		ResultsPath:       getEnv("RESULTS_PATH", "medicine_analysis_results.csv"),
		DBPath:            getEnv("DB_PATH", "data/quality.sqlite"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		ArchiveBucket:     getEnv("ARCHIVE_BUCKET", ""),
		ArchivePrefix:     getEnv("ARCHIVE_PREFIX", "results/"),
		ArchiveEndpoint:   getEnv("ARCHIVE_ENDPOINT", ""),
		ArchiveRegion:     getEnv("ARCHIVE_REGION", "us-east-1"),
		ArchiveAccessKey:  getEnv("ARCHIVE_ACCESS_KEY", ""),
		ArchiveSecretKey:  getEnv("ARCHIVE_SECRET_KEY", ""),
		NatsURL:           getEnv("NATS_URL", ""),
		NatsSubject:       getEnv("NATS_SUBJECT", "quality.analyze"),
		NatsHealthSubject: getEnv("NATS_HEALTH_SUBJECT", "quality.health"),
		NatsQueueGroup:    getEnv("NATS_QUEUE_GROUP", "quality-workers"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that depend on the chosen scorer and backend.
func (c *Config) Validate() error {
	switch c.Scorer {
	case ScorerGenerative:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY is required for the %s scorer", ErrMissingCredential, c.Scorer)
		}
	case ScorerForest:
		if c.ForestTrees <= 0 {
			return fmt.Errorf("%w: FOREST_TREES must be positive, got %d", ErrInvalidConfig, c.ForestTrees)
		}
	default:
		return fmt.Errorf("%w: unknown SCORER %q", ErrInvalidConfig, c.Scorer)
	}

	switch c.StoreBackend {
	case BackendCSV:
		if c.ResultsPath == "" {
			return fmt.Errorf("%w: RESULTS_PATH is empty", ErrInvalidConfig)
		}
	case BackendSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("%w: DB_PATH is empty", ErrInvalidConfig)
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for the postgres backend", ErrMissingCredential)
		}
	default:
		return fmt.Errorf("%w: unknown STORE_BACKEND %q", ErrInvalidConfig, c.StoreBackend)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key, defaultVal string) time.Duration {
	val := getEnv(key, defaultVal)
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	d, _ := time.ParseDuration(defaultVal)
	return d
}
