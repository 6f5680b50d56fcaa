package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aigoflow/quality-service/internal/models"
	"github.com/aigoflow/quality-service/internal/repository"
	"github.com/aigoflow/quality-service/internal/scoring"
	"github.com/aigoflow/quality-service/internal/services"
)

const validBody = `{
	"name": "Amoxicillin", "batchNumber": "B-1042", "expiryDate": "2026-01-31",
	"chemical_stability": "0.9", "contamination_level": "0.02", "ph_level": "6.5",
	"sterility_index": "0.97", "temperature_exposure": "0.1", "moisture_content": "0.05"
}`

type stubScorer struct {
	verdict models.Verdict
	err     error
}

func (s stubScorer) Name() string { return "stub" }

func (s stubScorer) Score(context.Context, *models.QualityRequest) (models.Verdict, error) {
	return s.verdict, s.err
}

func newRouter(t *testing.T, scorer scoring.Scorer) http.Handler {
	t.Helper()
	catalog := models.DefaultCatalog()
	repo, err := repository.NewCSVResultRepository(filepath.Join(t.TempDir(), "results.csv"), models.NewSchema(catalog))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	analysis := services.NewAnalysisService(scorer, repo, catalog, services.NewMetrics())
	r := chi.NewRouter()
	NewQualityHandler(analysis, services.NewHealthService("medicine-quality-api")).RegisterRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAnalyze_OK(t *testing.T) {
	r := newRouter(t, stubScorer{verdict: models.Verdict{Result: models.ResultPass, Confidence: 0.93, Explanation: "Within range."}})

	rec := do(t, r, http.MethodPost, "/analyze", validBody)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"result":"Pass","confidence":0.93,"explanation":"Within range."}`, rec.Body.String())
}

func TestAnalyze_ForestOmitsExplanation(t *testing.T) {
	r := newRouter(t, stubScorer{verdict: models.Verdict{Result: models.ResultFail, Confidence: 0.6}})

	rec := do(t, r, http.MethodPost, "/analyze", validBody)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":"Fail","confidence":0.6}`, rec.Body.String())
}

func TestAnalyze_MissingField(t *testing.T) {
	r := newRouter(t, stubScorer{verdict: models.Verdict{Result: models.ResultPass, Confidence: 1}})

	body := strings.Replace(validBody, `"ph_level": "6.5",`, "", 1)
	rec := do(t, r, http.MethodPost, "/analyze", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "ph_level")

	rec = do(t, r, http.MethodGet, "/results", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAnalyze_BadBodies(t *testing.T) {
	r := newRouter(t, stubScorer{verdict: models.Verdict{Result: models.ResultPass, Confidence: 1}})

	for name, body := range map[string]string{
		"not json":   `{"ph_level":`,
		"array":      `[1,2,3]`,
		"bad number": strings.Replace(validBody, `"6.5"`, `"acidic"`, 1),
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(t, r, http.MethodPost, "/analyze", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestAnalyze_ScoringFailure(t *testing.T) {
	r := newRouter(t, stubScorer{err: scoring.ErrUnparseableResponse})

	rec := do(t, r, http.MethodPost, "/analyze", validBody)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"unparseable backend response"}`, rec.Body.String())
}

func TestResults(t *testing.T) {
	r := newRouter(t, stubScorer{verdict: models.Verdict{Result: models.ResultPass, Confidence: 0.88, Explanation: "fine"}})

	rec := do(t, r, http.MethodGet, "/results", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/analyze", validBody).Code)
	}

	rec = do(t, r, http.MethodGet, "/results", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "Amoxicillin", rows[0]["name"])
	assert.Equal(t, "6.5", rows[0]["ph_level"])
	assert.Equal(t, "0.88", rows[0]["confidence"])
	assert.Equal(t, "fine", rows[0]["explanation"])
	assert.Len(t, rows[0], 13)
}

func TestHealth(t *testing.T) {
	r := newRouter(t, stubScorer{})

	rec := do(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"medicine-quality-api"}`, rec.Body.String())
}
