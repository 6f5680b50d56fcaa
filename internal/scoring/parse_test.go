package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aigoflow/quality-service/internal/models"
)

func TestParseVerdict_Strict(t *testing.T) {
	v, err := ParseVerdict(`{"result": "Pass", "confidence": 0.92, "explanation": "All within range."}`)
	require.NoError(t, err)
	assert.Equal(t, models.Verdict{Result: models.ResultPass, Confidence: 0.92, Explanation: "All within range."}, v)
}

func TestParseVerdict_Extracted(t *testing.T) {
	tests := map[string]string{
		"code fence": "```json\n{\n  \"result\": \"Fail\",\n  \"confidence\": 0.81,\n  \"explanation\": \"Contamination is high.\"\n}\n```",
		"prose":      "Here is my assessment: {\"result\": \"fail\", \"confidence\": \"0.81\", \"explanation\": \"Contamination is high.\"} Thanks.",
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			v, err := ParseVerdict(text)
			require.NoError(t, err)
			assert.Equal(t, models.ResultFail, v.Result)
			assert.Equal(t, 0.81, v.Confidence)
			assert.Equal(t, "Contamination is high.", v.Explanation)
		})
	}
}

func TestParseVerdict_Unparseable(t *testing.T) {
	for _, text := range []string{
		"",
		"I cannot assess this batch.",
		"{result: Pass}",
		"} backwards {",
	} {
		_, err := ParseVerdict(text)
		assert.True(t, errors.Is(err, ErrUnparseableResponse), "text %q: %v", text, err)
	}
}

func TestParseVerdict_Incomplete(t *testing.T) {
	for name, text := range map[string]string{
		"missing explanation": `{"result": "Pass", "confidence": 0.9}`,
		"missing confidence":  `{"result": "Pass", "explanation": "ok"}`,
		"odd result":          `{"result": "Maybe", "confidence": 0.9, "explanation": "ok"}`,
		"numeric result":      `{"result": 1, "confidence": 0.9, "explanation": "ok"}`,
		"confidence too high": `{"result": "Pass", "confidence": 1.7, "explanation": "ok"}`,
		"confidence word":     `{"result": "Pass", "confidence": "high", "explanation": "ok"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseVerdict(text)
			assert.True(t, errors.Is(err, ErrIncompleteResponse), "%v", err)
		})
	}
}
