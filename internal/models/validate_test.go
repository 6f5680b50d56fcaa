package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBody = `{
	"name": "Amoxicillin",
	"batchNumber": "B-1042",
	"chemical_stability": 0.9,
	"contamination_level": 0.02,
	"ph_level": 6.5,
	"sterility_index": 0.97,
	"temperature_exposure": 0.1,
	"moisture_content": 0.05
}`

func TestParseQualityRequest_Valid(t *testing.T) {
	payload, err := DecodePayload([]byte(validBody))
	require.NoError(t, err)

	req, err := ParseQualityRequest(DefaultCatalog(), payload)
	require.NoError(t, err)

	assert.Equal(t, []float64{0.9, 0.02, 6.5, 0.97, 0.1, 0.05}, req.Features())
	assert.Equal(t, "Amoxicillin", req.Metadata.Name)
	assert.Equal(t, "B-1042", req.Metadata.BatchNumber)
	assert.Equal(t, UnknownMetadata, req.Metadata.ExpiryDate)

	ph, ok := req.Value("ph_level")
	require.True(t, ok)
	assert.Equal(t, "6.5", ph.Raw)
}

func TestParseQualityRequest_NumericStrings(t *testing.T) {
	payload, err := DecodePayload([]byte(`{
		"chemical_stability": "0.90",
		"contamination_level": " 0.02",
		"ph_level": "7",
		"sterility_index": 1,
		"temperature_exposure": "1e-1",
		"moisture_content": 0.050
	}`))
	require.NoError(t, err)

	req, err := ParseQualityRequest(DefaultCatalog(), payload)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.9, 0.02, 7, 1, 0.1, 0.05}, req.Features(), 1e-12)

	cs, _ := req.Value("chemical_stability")
	assert.Equal(t, "0.90", cs.Raw)
	mc, _ := req.Value("moisture_content")
	assert.Equal(t, "0.050", mc.Raw)
}

func TestParseQualityRequest_MissingField(t *testing.T) {
	payload, err := DecodePayload([]byte(`{
		"chemical_stability": 0.9,
		"contamination_level": 0.02,
		"sterility_index": 0.97,
		"temperature_exposure": 0.1,
		"moisture_content": 0.05
	}`))
	require.NoError(t, err)

	_, err = ParseQualityRequest(DefaultCatalog(), payload)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "ph_level", verr.Field)
	assert.Contains(t, err.Error(), "ph_level")
	assert.Equal(t, "Missing required field: ph_level", err.Error())
}

func TestParseQualityRequest_ReportsFirstMissingInCatalogOrder(t *testing.T) {
	_, err := ParseQualityRequest(DefaultCatalog(), map[string]any{})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "chemical_stability", verr.Field)
}

func TestParseQualityRequest_BadValues(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{name: "word", value: "high"},
		{name: "empty string", value: ""},
		{name: "null", value: nil},
		{name: "bool", value: true},
		{name: "object", value: map[string]any{"v": 1}},
		{name: "nan", value: "NaN"},
		{name: "inf", value: "+Inf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := map[string]any{
				"chemical_stability":   0.9,
				"contamination_level":  0.02,
				"ph_level":             tt.value,
				"sterility_index":      0.97,
				"temperature_exposure": 0.1,
				"moisture_content":     0.05,
			}
			_, err := ParseQualityRequest(DefaultCatalog(), payload)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, "ph_level", verr.Field)
			assert.Contains(t, err.Error(), "Bad value for field ph_level")
		})
	}
}

func TestDecodePayload_Rejects(t *testing.T) {
	for _, body := range []string{``, `not json`, `[1,2]`, `null`, `{"ph_level":1} {"x":2}`, `{"ph_level":1}}`} {
		_, err := DecodePayload([]byte(body))
		var verr *ValidationError
		assert.True(t, errors.As(err, &verr), "body %q", body)
	}
}

func TestDecodePayload_TrailingWhitespace(t *testing.T) {
	payload, err := DecodePayload([]byte("{\"ph_level\": 6.50}\n\t "))
	require.NoError(t, err)
	assert.Equal(t, json.Number("6.50"), payload["ph_level"])
}

func TestNewVerdict(t *testing.T) {
	v, err := NewVerdict(ResultPass, 0.876, "fine")
	require.NoError(t, err)
	assert.Equal(t, 0.88, v.Confidence)

	_, err = NewVerdict(ResultFail, 1.2, "")
	assert.Error(t, err)
	_, err = NewVerdict("Maybe", 0.5, "")
	assert.Error(t, err)
}

func TestParseResult(t *testing.T) {
	r, err := ParseResult(" PASS ")
	require.NoError(t, err)
	assert.Equal(t, ResultPass, r)

	r, err = ParseResult("fail")
	require.NoError(t, err)
	assert.Equal(t, ResultFail, r)

	_, err = ParseResult("unknown")
	assert.Error(t, err)
}
