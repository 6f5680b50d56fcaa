package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/aigoflow/quality-service/internal/models"
	"github.com/aigoflow/quality-service/internal/store"
)

// SQLResultRepository stores records in the results table of a SQLite or
// Postgres database. Parameter values are kept as a JSON object of their
// submitted text; the column layout is recorded in result_columns.
type SQLResultRepository struct {
	db     *store.DB
	schema models.Schema
}

type resultRow struct {
	RecordedAt  string `db:"recorded_at"`
	Name        string `db:"name"`
	BatchNumber string `db:"batch_number"`
	ExpiryDate  string `db:"expiry_date"`
	Parameters  string `db:"parameters"`
	Result      string `db:"result"`
	Confidence  string `db:"confidence"`
	Explanation string `db:"explanation"`
}

// NewSQLResultRepository records the schema on first use and rejects a
// database written with a different one.
func NewSQLResultRepository(ctx context.Context, db *store.DB, schema models.Schema) (*SQLResultRepository, error) {
	stored, err := resultColumns(ctx, db)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		if err := recordResultColumns(ctx, db, schema); err != nil {
			return nil, err
		}
		// Another process may have recorded its layout first.
		if stored, err = resultColumns(ctx, db); err != nil {
			return nil, err
		}
	}
	if err := schema.Check(stored); err != nil {
		return nil, err
	}
	return &SQLResultRepository{db: db, schema: schema}, nil
}

func resultColumns(ctx context.Context, db *store.DB) ([]string, error) {
	var stored []string
	if err := db.SelectContext(ctx, &stored, `SELECT name FROM result_columns ORDER BY position`); err != nil {
		return nil, fmt.Errorf("read result columns: %w", err)
	}
	return stored, nil
}

// recordResultColumns leaves positions that are already recorded untouched.
func recordResultColumns(ctx context.Context, db *store.DB, schema models.Schema) error {
	err := db.WithTx(ctx, func(tx *sqlx.Tx) error {
		insert := tx.Rebind(`INSERT INTO result_columns(position, name) VALUES (?, ?)
			ON CONFLICT (position) DO NOTHING`)
		for i, c := range schema.Columns() {
			if _, err := tx.ExecContext(ctx, insert, i+1, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record result columns: %w", err)
	}
	return nil
}

func (r *SQLResultRepository) Append(ctx context.Context, rec *models.ResultRecord) error {
	row := r.schema.NewRow(r.schema.Values(rec))
	params := make(map[string]string)
	for _, p := range r.schema.Parameters() {
		params[p] = row.Get(p)
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode parameters: %w", err)
	}

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO results(
			recorded_at, name, batch_number, expiry_date, parameters, result, confidence, explanation)
			VALUES(?,?,?,?,?,?,?,?)`),
			row.Get(models.ColumnTimestamp),
			row.Get(models.ColumnName),
			row.Get(models.ColumnBatchNumber),
			row.Get(models.ColumnExpiryDate),
			string(encoded),
			row.Get(models.ColumnResult),
			row.Get(models.ColumnConfidence),
			row.Get(models.ColumnExplanation),
		)
		return err
	})
}

func (r *SQLResultRepository) List(ctx context.Context) ([]models.Row, error) {
	var stored []resultRow
	err := r.db.SelectContext(ctx, &stored, `SELECT recorded_at, name, batch_number, expiry_date,
		parameters, result, confidence, explanation FROM results ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	rows := make([]models.Row, 0, len(stored))
	for _, s := range stored {
		var params map[string]string
		if err := json.Unmarshal([]byte(s.Parameters), &params); err != nil {
			return nil, fmt.Errorf("decode parameters: %w", err)
		}
		cols := r.schema.Columns()
		values := make([]string, len(cols))
		for i, c := range cols {
			switch c {
			case models.ColumnTimestamp:
				values[i] = s.RecordedAt
			case models.ColumnName:
				values[i] = s.Name
			case models.ColumnBatchNumber:
				values[i] = s.BatchNumber
			case models.ColumnExpiryDate:
				values[i] = s.ExpiryDate
			case models.ColumnResult:
				values[i] = s.Result
			case models.ColumnConfidence:
				values[i] = s.Confidence
			case models.ColumnExplanation:
				values[i] = s.Explanation
			default:
				values[i] = params[c]
			}
		}
		rows = append(rows, r.schema.NewRow(values))
	}
	return rows, nil
}

func (r *SQLResultRepository) Close() error {
	return r.db.Close()
}

// SQLEventRepository writes events to the events table.
type SQLEventRepository struct {
	db *store.DB
}

func NewSQLEventRepository(db *store.DB) *SQLEventRepository {
	return &SQLEventRepository{db: db}
}

func (r *SQLEventRepository) LogEvent(ctx context.Context, level, code, msg string, meta map[string]interface{}) error {
	return r.db.Event(ctx, level, code, msg, meta)
}
