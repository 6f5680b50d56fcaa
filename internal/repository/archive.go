package repository

import (
	"context"
	"log/slog"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/aigoflow/quality-service/internal/models"
)

// ObjectWriter stores a JSON document under a key.
type ObjectWriter interface {
	PutJSON(ctx context.Context, key string, v any) (string, error)
}

// ArchivingRepository mirrors each appended record to object storage. The
// mirror is best effort: failures are logged and never fail the append.
type ArchivingRepository struct {
	ResultRepository
	archive ObjectWriter
	prefix  string
	schema  models.Schema
}

func NewArchivingRepository(next ResultRepository, archive ObjectWriter, prefix string, schema models.Schema) *ArchivingRepository {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &ArchivingRepository{ResultRepository: next, archive: archive, prefix: prefix, schema: schema}
}

func (r *ArchivingRepository) Append(ctx context.Context, rec *models.ResultRecord) error {
	if err := r.ResultRepository.Append(ctx, rec); err != nil {
		return err
	}
	key := r.prefix + ulid.Make().String() + ".json"
	ref, err := r.archive.PutJSON(ctx, key, r.schema.NewRow(r.schema.Values(rec)))
	if err != nil {
		slog.Warn("Failed to archive result", "key", key, "error", err)
		return nil
	}
	slog.Debug("Archived result", "ref", ref)
	return nil
}
