package client

import (
	"context"
	"errors"
	"fmt"
)

// QualityClient talks to the quality service over one transport.
type QualityClient interface {
	// Analyze scores one batch. Parameter values may be numbers or numeric strings.
	Analyze(ctx context.Context, sample map[string]any) (*Verdict, error)
	// Results returns every recorded analysis in append order.
	Results(ctx context.Context) ([]map[string]string, error)
	Health(ctx context.Context) (*HealthStatus, error)
	Close() error
}

// Verdict is the service's assessment of a batch.
type Verdict struct {
	Result      string  `json:"result"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation,omitempty"`
}

type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// APIError is an error reported by the service itself.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("quality service returned %d: %s", e.Status, e.Message)
}

// ErrUnsupported is returned for operations a transport does not offer.
var ErrUnsupported = errors.New("operation not supported by this transport")

type errorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status,omitempty"`
}
