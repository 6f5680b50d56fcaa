package repository

import (
	"context"

	"github.com/aigoflow/quality-service/internal/models"
)

// ResultRepository is the append-only log of scored requests. Implementations
// share the column layout of models.Schema and return rows in append order.
type ResultRepository interface {
	Append(ctx context.Context, rec *models.ResultRecord) error
	List(ctx context.Context) ([]models.Row, error)
	Close() error
}

// EventRepository records service lifecycle events.
type EventRepository interface {
	LogEvent(ctx context.Context, level, code, msg string, meta map[string]interface{}) error
}
