package scoring

import (
	"context"
	"fmt"
	"slices"

	"github.com/aigoflow/quality-service/internal/models"
)

// ForestScorer scores requests with a trained random forest.
type ForestScorer struct {
	forest *Forest
}

// NewForestScorer checks that the forest was trained on the catalog's features.
func NewForestScorer(f *Forest, catalog models.Catalog) (*ForestScorer, error) {
	if !slices.Equal(f.Features, catalog.Names()) {
		return nil, fmt.Errorf("model features %v do not match parameters %v", f.Features, catalog.Names())
	}
	return &ForestScorer{forest: f}, nil
}

func (s *ForestScorer) Name() string { return "forest" }

func (s *ForestScorer) Score(_ context.Context, req *models.QualityRequest) (models.Verdict, error) {
	label, p, err := s.forest.Predict(req.Features())
	if err != nil {
		return models.Verdict{}, &BackendError{Backend: s.Name(), Err: err}
	}
	result := models.ResultFail
	if label == 1 {
		result = models.ResultPass
	}
	return models.NewVerdict(result, p, "")
}
