// Package scoring turns validated quality requests into verdicts.
//
// Two strategies exist and one is chosen per deployment: a random forest
// trained on numeric examples, and a generative model prompted with the
// parameters and their advisory ranges.
package scoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/aigoflow/quality-service/internal/models"
)

// Scorer produces a verdict for a request.
type Scorer interface {
	Name() string
	Score(ctx context.Context, req *models.QualityRequest) (models.Verdict, error)
}

var (
	// ErrUnparseableResponse means no JSON object could be read from the backend text.
	ErrUnparseableResponse = errors.New("unparseable backend response")
	// ErrIncompleteResponse means the backend returned JSON without a usable verdict.
	ErrIncompleteResponse = errors.New("incomplete backend response")
)

// BackendError wraps a failure of the external scoring backend.
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend failed: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }
