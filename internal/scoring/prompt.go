package scoring

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aigoflow/quality-service/internal/models"
)

// BuildPrompt asks the model for a JSON verdict on the request, listing every
// parameter with its submitted value and advisory range.
func BuildPrompt(catalog models.Catalog, req *models.QualityRequest) string {
	var b strings.Builder
	b.WriteString("You are a pharmaceutical quality control expert system. ")
	b.WriteString("Analyze the quality of a medicine batch with the following parameters and decide whether it is fit for storage and distribution:\n\n")
	for _, p := range catalog {
		v, _ := req.Value(p.Name)
		fmt.Fprintf(&b, "- %s: %s (Ideal range: %s-%s", p.Label, v.Raw, formatBound(p.Min), formatBound(p.Max))
		if p.Guidance != "" {
			b.WriteString(", ")
			b.WriteString(p.Guidance)
		}
		b.WriteString(")\n")
	}
	b.WriteString("\nConsider how these parameters interact. For example, high contamination combined with high moisture content is particularly concerning.\n\n")
	b.WriteString("Respond with a JSON object containing exactly three fields:\n")
	b.WriteString(`1. "result": either "Pass" or "Fail"` + "\n")
	b.WriteString(`2. "confidence": a number between 0 and 1 (two decimal places) indicating your confidence in the assessment` + "\n")
	b.WriteString(`3. "explanation": a concise, technical explanation of the decision naming the most concerning or reassuring parameters` + "\n\n")
	b.WriteString("Respond only with the JSON object, no additional text.\n")
	return b.String()
}

func formatBound(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
