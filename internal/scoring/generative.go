package scoring

import (
	"context"
	"log/slog"

	"github.com/aigoflow/quality-service/internal/models"
)

// TextGenerator sends a prompt to a text-generation backend.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// GenerativeScorer asks a language model for the verdict.
type GenerativeScorer struct {
	gen     TextGenerator
	catalog models.Catalog
	backend string
}

func NewGenerativeScorer(gen TextGenerator, catalog models.Catalog, backend string) *GenerativeScorer {
	return &GenerativeScorer{gen: gen, catalog: catalog, backend: backend}
}

func (s *GenerativeScorer) Name() string { return "generative" }

func (s *GenerativeScorer) Score(ctx context.Context, req *models.QualityRequest) (models.Verdict, error) {
	prompt := BuildPrompt(s.catalog, req)
	text, err := s.gen.GenerateText(ctx, prompt)
	if err != nil {
		return models.Verdict{}, &BackendError{Backend: s.backend, Err: err}
	}
	v, err := ParseVerdict(text)
	if err != nil {
		slog.Warn("Could not read verdict from backend response",
			"backend", s.backend,
			"error", err,
			"response_len", len(text))
		return models.Verdict{}, err
	}
	return v, nil
}
