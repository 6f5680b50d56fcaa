package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Result is the binary outcome of a quality assessment.
type Result string

const (
	ResultPass Result = "Pass"
	ResultFail Result = "Fail"
)

// ParseResult accepts "pass"/"fail" in any case.
func ParseResult(s string) (Result, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pass":
		return ResultPass, nil
	case "fail":
		return ResultFail, nil
	}
	return "", fmt.Errorf("result %q is neither Pass nor Fail", s)
}

// UnknownMetadata is recorded for metadata fields the caller did not send.
const UnknownMetadata = "Unknown"

// Metadata is the optional descriptive part of a request.
type Metadata struct {
	Name        string `json:"name"`
	BatchNumber string `json:"batchNumber"`
	ExpiryDate  string `json:"expiryDate"`
}

// ParameterValue is one validated parameter. Raw keeps the text the value was
// submitted as so stored records reproduce it verbatim.
type ParameterValue struct {
	Name  string
	Value float64
	Raw   string
}

// QualityRequest is a validated analysis request.
type QualityRequest struct {
	Parameters []ParameterValue
	Metadata   Metadata
}

// Features returns the parameter values in catalog order.
func (r *QualityRequest) Features() []float64 {
	out := make([]float64, len(r.Parameters))
	for i, p := range r.Parameters {
		out[i] = p.Value
	}
	return out
}

// Value looks up a parameter by name.
func (r *QualityRequest) Value(name string) (ParameterValue, bool) {
	for _, p := range r.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterValue{}, false
}

// Verdict is the scorer's answer for one request.
type Verdict struct {
	Result      Result  `json:"result"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation,omitempty"`
}

// NewVerdict rounds confidence to two decimals and rejects values outside [0,1].
func NewVerdict(result Result, confidence float64, explanation string) (Verdict, error) {
	if result != ResultPass && result != ResultFail {
		return Verdict{}, fmt.Errorf("result %q is neither Pass nor Fail", result)
	}
	if confidence < 0 || confidence > 1 || math.IsNaN(confidence) {
		return Verdict{}, fmt.Errorf("confidence %v outside [0,1]", confidence)
	}
	rounded := decimal.NewFromFloat(confidence).Round(2).InexactFloat64()
	return Verdict{Result: result, Confidence: rounded, Explanation: explanation}, nil
}

// ResultRecord is one appended entry of the result store.
type ResultRecord struct {
	Timestamp time.Time
	Request   *QualityRequest
	Verdict   Verdict
}

// NewResultRecord stamps a record with the current local time.
func NewResultRecord(req *QualityRequest, v Verdict) *ResultRecord {
	return &ResultRecord{Timestamp: time.Now(), Request: req, Verdict: v}
}
