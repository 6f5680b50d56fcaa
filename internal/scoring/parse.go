package scoring

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aigoflow/quality-service/internal/models"
)

// ParseVerdict reads a verdict from generated text. It tries a strict parse of
// the whole text, then the outermost {...} span, and otherwise returns
// ErrUnparseableResponse.
func ParseVerdict(text string) (models.Verdict, error) {
	obj, ok := decodeObject(strings.TrimSpace(text))
	if !ok {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return models.Verdict{}, ErrUnparseableResponse
		}
		if obj, ok = decodeObject(text[start : end+1]); !ok {
			return models.Verdict{}, ErrUnparseableResponse
		}
	}
	return verdictFromObject(obj)
}

func decodeObject(s string) (map[string]any, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return nil, false
	}
	if strings.TrimSpace(s[dec.InputOffset():]) != "" {
		return nil, false
	}
	return obj, true
}

func verdictFromObject(obj map[string]any) (models.Verdict, error) {
	for _, k := range []string{"result", "confidence", "explanation"} {
		if _, ok := obj[k]; !ok {
			return models.Verdict{}, fmt.Errorf("%w: missing %q", ErrIncompleteResponse, k)
		}
	}

	rs, ok := obj["result"].(string)
	if !ok {
		return models.Verdict{}, fmt.Errorf("%w: result is not a string", ErrIncompleteResponse)
	}
	result, err := models.ParseResult(rs)
	if err != nil {
		return models.Verdict{}, fmt.Errorf("%w: %v", ErrIncompleteResponse, err)
	}

	var confidence float64
	switch c := obj["confidence"].(type) {
	case json.Number:
		confidence, err = c.Float64()
	case string:
		confidence, err = strconv.ParseFloat(strings.TrimSpace(c), 64)
	default:
		err = fmt.Errorf("confidence has type %T", c)
	}
	if err != nil {
		return models.Verdict{}, fmt.Errorf("%w: %v", ErrIncompleteResponse, err)
	}

	var explanation string
	switch e := obj["explanation"].(type) {
	case string:
		explanation = e
	case nil:
	default:
		explanation = fmt.Sprintf("%v", e)
	}

	v, err := models.NewVerdict(result, confidence, explanation)
	if err != nil {
		return models.Verdict{}, fmt.Errorf("%w: %v", ErrIncompleteResponse, err)
	}
	return v, nil
}
