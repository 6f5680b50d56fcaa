package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aigoflow/quality-service/internal/models"
	"github.com/aigoflow/quality-service/internal/services"
)

const maxBodyBytes = 1 << 20

type errResp struct {
	Error string `json:"error"`
}

type QualityHandler struct {
	analysis *services.AnalysisService
	health   *services.HealthService
}

func NewQualityHandler(analysis *services.AnalysisService, health *services.HealthService) *QualityHandler {
	return &QualityHandler{
		analysis: analysis,
		health:   health,
	}
}

func (h *QualityHandler) RegisterRoutes(r chi.Router) {
	r.Post("/analyze", h.handleAnalyze)
	r.Get("/results", h.handleResults)
	r.Get("/health", h.handleHealth)
}

func (h *QualityHandler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errResp{Error: "request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errResp{Error: "could not read request body"})
		return
	}

	payload, err := models.DecodePayload(body)
	if err == nil {
		var verdict models.Verdict
		verdict, err = h.analysis.Analyze(r.Context(), payload, "http.analyze")
		if err == nil {
			writeJSON(w, http.StatusOK, verdict)
			return
		}
	}
	writeError(w, err)
}

func (h *QualityHandler) handleResults(w http.ResponseWriter, r *http.Request) {
	rows, err := h.analysis.Results(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *QualityHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.health.Status())
}

func writeError(w http.ResponseWriter, err error) {
	status := services.StatusCode(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "status", status, "error", err)
	}
	writeJSON(w, status, errResp{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
