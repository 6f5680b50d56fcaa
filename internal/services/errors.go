package services

import (
	"errors"
	"net/http"

	"github.com/aigoflow/quality-service/internal/models"
)

// StatusCode maps an analysis error to the HTTP status reported to callers.
// Invalid requests are the caller's fault; everything else is ours.
func StatusCode(err error) int {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
