package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aigoflow/quality-service/internal/models"
	"github.com/aigoflow/quality-service/internal/repository"
	"github.com/aigoflow/quality-service/internal/scoring"
)

var (
	// ErrRecordFailed wraps result store failures after a successful score.
	ErrRecordFailed = errors.New("failed to record result")
	// ErrPanic reports a recovered panic while handling a request.
	ErrPanic = errors.New("analysis panic")
)

// AnalysisService validates, scores and records quality requests. Every
// transport goes through it.
type AnalysisService struct {
	scorer  scoring.Scorer
	repo    repository.ResultRepository
	catalog models.Catalog
	metrics *Metrics
}

func NewAnalysisService(scorer scoring.Scorer, repo repository.ResultRepository, catalog models.Catalog, metrics *Metrics) *AnalysisService {
	return &AnalysisService{
		scorer:  scorer,
		repo:    repo,
		catalog: catalog,
		metrics: metrics,
	}
}

// Analyze scores one decoded request body and appends the result. Only
// successfully scored requests are recorded.
func (s *AnalysisService) Analyze(ctx context.Context, payload map[string]any, source string) (verdict models.Verdict, err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Analysis panic recovered",
				"source", source,
				"scorer", s.scorer.Name(),
				"panic", r)
			s.metrics.failure("panic")
			verdict = models.Verdict{}
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	req, err := models.ParseQualityRequest(s.catalog, payload)
	if err != nil {
		s.metrics.failure("validation")
		slog.Info("Rejected analysis request", "source", source, "error", err)
		return models.Verdict{}, err
	}

	s.metrics.inflight.Inc()
	defer s.metrics.inflight.Dec()

	verdict, err = s.scorer.Score(ctx, req)
	if err != nil {
		kind := failureKind(err)
		s.metrics.failure(kind)
		slog.Error("Scoring failed",
			"source", source,
			"scorer", s.scorer.Name(),
			"kind", kind,
			"batch", req.Metadata.BatchNumber,
			"error", err)
		return models.Verdict{}, err
	}

	if err := s.repo.Append(ctx, models.NewResultRecord(req, verdict)); err != nil {
		s.metrics.failure("store")
		slog.Error("Failed to record result", "source", source, "error", err)
		return models.Verdict{}, fmt.Errorf("%w: %v", ErrRecordFailed, err)
	}

	duration := time.Since(start)
	s.metrics.observe(s.scorer.Name(), verdict.Result, duration)
	slog.Info("Analysis completed",
		"source", source,
		"scorer", s.scorer.Name(),
		"name", req.Metadata.Name,
		"batch", req.Metadata.BatchNumber,
		"result", verdict.Result,
		"confidence", verdict.Confidence,
		"duration_ms", duration.Milliseconds())
	return verdict, nil
}

// Results returns every recorded result in append order.
func (s *AnalysisService) Results(ctx context.Context) ([]models.Row, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	return rows, nil
}

func failureKind(err error) string {
	var backend *scoring.BackendError
	switch {
	case errors.Is(err, scoring.ErrUnparseableResponse):
		return "unparseable"
	case errors.Is(err, scoring.ErrIncompleteResponse):
		return "incomplete"
	case errors.As(err, &backend):
		return "backend"
	default:
		return "scoring"
	}
}
