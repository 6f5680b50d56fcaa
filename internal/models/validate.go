package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValidationError reports a request that cannot be scored.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func missingField(name string) *ValidationError {
	return &ValidationError{Field: name, Reason: "Missing required field: " + name}
}

func badValue(name string, v any) *ValidationError {
	return &ValidationError{Field: name, Reason: fmt.Sprintf("Bad value for field %s: %v is not a number", name, describe(v))}
}

func describe(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// DecodePayload decodes a JSON object keeping numbers as json.Number so that
// their original text survives.
func DecodePayload(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, &ValidationError{Reason: "invalid JSON body: " + err.Error()}
	}
	if payload == nil {
		return nil, &ValidationError{Reason: "invalid JSON body: expected an object"}
	}
	if len(bytes.TrimSpace(data[dec.InputOffset():])) != 0 {
		return nil, &ValidationError{Reason: "invalid JSON body: unexpected data after object"}
	}
	return payload, nil
}

// ParseQualityRequest checks that every catalog parameter is present and
// numeric, in catalog order, and reports the first failure. Ranges are not
// checked.
func ParseQualityRequest(catalog Catalog, payload map[string]any) (*QualityRequest, error) {
	req := &QualityRequest{Parameters: make([]ParameterValue, 0, len(catalog))}
	for _, p := range catalog {
		raw, ok := payload[p.Name]
		if !ok {
			return nil, missingField(p.Name)
		}
		value, text, ok := toNumber(raw)
		if !ok {
			return nil, badValue(p.Name, raw)
		}
		req.Parameters = append(req.Parameters, ParameterValue{Name: p.Name, Value: value, Raw: text})
	}
	req.Metadata = Metadata{
		Name:        metadataString(payload, "name"),
		BatchNumber: metadataString(payload, "batchNumber"),
		ExpiryDate:  metadataString(payload, "expiryDate"),
	}
	return req, nil
}

func toNumber(v any) (float64, string, bool) {
	var (
		f    float64
		text string
		err  error
	)
	switch x := v.(type) {
	case json.Number:
		text = x.String()
		f, err = x.Float64()
	case float64:
		f, text = x, strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		f, text = float64(x), strconv.Itoa(x)
	case string:
		text = x
		f, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		return 0, "", false
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, "", false
	}
	return f, text, true
}

func metadataString(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return UnknownMetadata
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
