package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aigoflow/quality-service/internal/models"
)

var testSchema = models.NewSchema(models.DefaultCatalog())

func newRecord(t *testing.T, i int) *models.ResultRecord {
	t.Helper()
	payload := map[string]any{
		"name":                 fmt.Sprintf("Amoxicillin %d", i),
		"batchNumber":          fmt.Sprintf("B-%04d", i),
		"chemical_stability":   "0.90",
		"contamination_level":  0.02,
		"ph_level":             "6.5",
		"sterility_index":      0.97,
		"temperature_exposure": 0.1,
		"moisture_content":     0.05,
	}
	req, err := models.ParseQualityRequest(models.DefaultCatalog(), payload)
	require.NoError(t, err)
	v, err := models.NewVerdict(models.ResultPass, 0.87, `stable, "sterile" batch`+"\nno concerns")
	require.NoError(t, err)
	return &models.ResultRecord{
		Timestamp: time.Date(2024, 5, 1, 9, 30, i%60, 0, time.Local),
		Request:   req,
		Verdict:   v,
	}
}

// exerciseRepository checks behavior every backend must share.
func exerciseRepository(t *testing.T, repo ResultRepository) {
	ctx := context.Background()

	rows, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	const n = 5
	for i := 0; i < n; i++ {
		require.NoError(t, repo.Append(ctx, newRecord(t, i)))
	}

	rows, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, n)
	for i, row := range rows {
		assert.Equal(t, fmt.Sprintf("B-%04d", i), row.Get("batchNumber"))
	}

	first := rows[0]
	assert.Equal(t, testSchema.Values(newRecord(t, 0)), rowValues(first))
	assert.Equal(t, "0.90", first.Get("chemical_stability"))
	assert.Equal(t, "Unknown", first.Get("expiryDate"))
	assert.Equal(t, "0.87", first.Get("confidence"))
	assert.Equal(t, "2024-05-01 09:30:00", first.Get("timestamp"))
	assert.Equal(t, "stable, \"sterile\" batch\nno concerns", first.Get("explanation"))
}

func rowValues(r models.Row) []string {
	cols := testSchema.Columns()
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = r.Get(c)
	}
	return out
}
