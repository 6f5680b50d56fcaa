package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// TimestampLayout is the layout of the timestamp column.
const TimestampLayout = "2006-01-02 15:04:05"

const (
	ColumnTimestamp   = "timestamp"
	ColumnName        = "name"
	ColumnBatchNumber = "batchNumber"
	ColumnExpiryDate  = "expiryDate"
	ColumnResult      = "result"
	ColumnConfidence  = "confidence"
	ColumnExplanation = "explanation"
)

var reservedColumns = map[string]struct{}{
	ColumnTimestamp: {}, ColumnName: {}, ColumnBatchNumber: {}, ColumnExpiryDate: {},
	ColumnResult: {}, ColumnConfidence: {}, ColumnExplanation: {},
}

// ErrSchemaMismatch is returned when an existing store was written with different columns.
var ErrSchemaMismatch = errors.New("result store schema mismatch")

// Schema is the ordered column layout shared by every result store backend.
type Schema struct {
	columns []string
}

// NewSchema lays out timestamp, metadata, the catalog parameters, then the verdict.
func NewSchema(catalog Catalog) Schema {
	cols := []string{ColumnTimestamp, ColumnName, ColumnBatchNumber, ColumnExpiryDate}
	cols = append(cols, catalog.Names()...)
	cols = append(cols, ColumnResult, ColumnConfidence, ColumnExplanation)
	return Schema{columns: cols}
}

// Columns returns a copy of the column names.
func (s Schema) Columns() []string {
	return append([]string(nil), s.columns...)
}

// Parameters returns the catalog parameter columns in order.
func (s Schema) Parameters() []string {
	return append([]string(nil), s.columns[4:len(s.columns)-3]...)
}

// Check compares a stored header with the schema.
func (s Schema) Check(header []string) error {
	if len(header) != len(s.columns) {
		return fmt.Errorf("%w: have %d columns, want %d", ErrSchemaMismatch, len(header), len(s.columns))
	}
	for i, c := range s.columns {
		if strings.TrimSpace(header[i]) != c {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrSchemaMismatch, i+1, header[i], c)
		}
	}
	return nil
}

// Values renders a record as strings in column order.
func (s Schema) Values(rec *ResultRecord) []string {
	out := make([]string, len(s.columns))
	for i, c := range s.columns {
		switch c {
		case ColumnTimestamp:
			out[i] = rec.Timestamp.Format(TimestampLayout)
		case ColumnName:
			out[i] = rec.Request.Metadata.Name
		case ColumnBatchNumber:
			out[i] = rec.Request.Metadata.BatchNumber
		case ColumnExpiryDate:
			out[i] = rec.Request.Metadata.ExpiryDate
		case ColumnResult:
			out[i] = string(rec.Verdict.Result)
		case ColumnConfidence:
			out[i] = strconv.FormatFloat(rec.Verdict.Confidence, 'f', -1, 64)
		case ColumnExplanation:
			out[i] = rec.Verdict.Explanation
		default:
			if p, ok := rec.Request.Value(c); ok {
				out[i] = p.Raw
			}
		}
	}
	return out
}

// NewRow pairs stored values with the schema columns. Short rows are padded
// with empty strings.
func (s Schema) NewRow(values []string) Row {
	vals := make([]string, len(s.columns))
	copy(vals, values)
	return Row{columns: s.columns, values: vals}
}

// Row is one stored record as strings, keyed by column, in schema order.
type Row struct {
	columns []string
	values  []string
}

// Get returns the value of a column, or "" if the column is unknown.
func (r Row) Get(column string) string {
	for i, c := range r.columns {
		if c == column {
			return r.values[i]
		}
	}
	return ""
}

// Map returns the row as a plain map.
func (r Row) Map() map[string]string {
	m := make(map[string]string, len(r.columns))
	for i, c := range r.columns {
		m[c] = r.values[i]
	}
	return m
}

// MarshalJSON writes the row as an object with keys in schema order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
