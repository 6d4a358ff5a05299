package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// verdict is the evaluator-facing slice of Result: everything except the
// provenance fields, which are stamped by the shaper after validation.
type verdict struct {
	OverallScore    float64         `json:"overallScore"`
	Categories      Categories      `json:"categories"`
	Summary         string          `json:"summary"`
	AISlopDetection AISlopDetection `json:"aiSlopDetection"`
	TopRefinements  []string        `json:"topRefinements"`
}

// ParseVerdict parses raw evaluator output into a Result and enforces the
// verdict schema: exactly the ten fixed category keys, every score inside
// [1,10], non-empty rationales and summary. Deviations are rejected, never
// coerced. Provenance fields of the returned Result are zero.
func ParseVerdict(raw string) (*Result, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()

	var v verdict
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedVerdict, err)
	}
	// the output must be one JSON object and nothing else
	var trailing json.RawMessage
	if err := dec.Decode(&trailing); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after JSON object", ErrMalformedVerdict)
	}

	for _, c := range []struct {
		key string
		cs  CategoryScore
	}{
		{"aestheticCohesion", v.Categories.AestheticCohesion},
		{"hierarchyLayout", v.Categories.HierarchyLayout},
		{"typography", v.Categories.Typography},
		{"colorContrast", v.Categories.ColorContrast},
		{"imageryIconography", v.Categories.ImageryIconography},
		{"brandExpression", v.Categories.BrandExpression},
		{"systemConsistency", v.Categories.SystemConsistency},
		{"visualCraft", v.Categories.VisualCraft},
		{"aiSlopIndicators", v.Categories.AISlopIndicators},
		{"emotionalResonance", v.Categories.EmotionalResonance},
	} {
		if !inRange(c.cs.Score) {
			return nil, fmt.Errorf("%w: category %s score %v outside [1,10]", ErrMalformedVerdict, c.key, c.cs.Score)
		}
		if strings.TrimSpace(c.cs.Rationale) == "" {
			return nil, fmt.Errorf("%w: category %s has empty rationale", ErrMalformedVerdict, c.key)
		}
	}

	if !inRange(v.OverallScore) {
		return nil, fmt.Errorf("%w: overall score %v outside [1,10]", ErrMalformedVerdict, v.OverallScore)
	}
	if !inRange(v.AISlopDetection.Score) {
		return nil, fmt.Errorf("%w: aiSlopDetection score %v outside [1,10]", ErrMalformedVerdict, v.AISlopDetection.Score)
	}
	if strings.TrimSpace(v.Summary) == "" {
		return nil, fmt.Errorf("%w: empty summary", ErrMalformedVerdict)
	}

	if v.AISlopDetection.Indicators == nil {
		v.AISlopDetection.Indicators = []string{}
	}
	if v.TopRefinements == nil {
		v.TopRefinements = []string{}
	}

	return &Result{
		OverallScore:    v.OverallScore,
		Categories:      v.Categories,
		Summary:         v.Summary,
		AISlopDetection: v.AISlopDetection,
		TopRefinements:  v.TopRefinements,
	}, nil
}

// inRange reports whether a rubric score sits in the closed range [1,10].
// A missing category decodes to 0 and fails here.
func inRange(score float64) bool {
	return score >= 1 && score <= 10
}
