package analysis

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// ResultID identifier type. Ids are 128 random bits hex-encoded and are the
// only access control on a stored result: whoever holds the id can read it.
type ResultID string

// NewID generates a fresh identifier from a cryptographically strong source.
func NewID() ResultID {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return ResultID(hex.EncodeToString(b))
}

// SourceType tells where the analyzed image came from.
type SourceType string

const (
	SourceURL        SourceType = "url"
	SourceScreenshot SourceType = "screenshot"
)

// CategoryScore is one scored rubric category.
type CategoryScore struct {
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
}

// Categories is the closed set of ten rubric categories. The keys are not
// caller-extensible; Validate rejects verdicts that miss any of them.
type Categories struct {
	AestheticCohesion  CategoryScore `json:"aestheticCohesion"`
	HierarchyLayout    CategoryScore `json:"hierarchyLayout"`
	Typography         CategoryScore `json:"typography"`
	ColorContrast      CategoryScore `json:"colorContrast"`
	ImageryIconography CategoryScore `json:"imageryIconography"`
	BrandExpression    CategoryScore `json:"brandExpression"`
	SystemConsistency  CategoryScore `json:"systemConsistency"`
	VisualCraft        CategoryScore `json:"visualCraft"`
	AISlopIndicators   CategoryScore `json:"aiSlopIndicators"`
	EmotionalResonance CategoryScore `json:"emotionalResonance"`
}

// AISlopDetection aggregates detected generic/templated design patterns.
// A low score means heavy AI slop, a high score means original work.
type AISlopDetection struct {
	Score      float64  `json:"score"`
	Indicators []string `json:"indicators"`
}

// Result is the durable verdict artifact. It is created once by the shaper,
// persisted under a generated id and never updated in place; re-analysis
// produces a new id and a new artifact.
type Result struct {
	OverallScore    float64         `json:"overallScore"`
	Categories      Categories      `json:"categories"`
	Summary         string          `json:"summary"`
	AISlopDetection AISlopDetection `json:"aiSlopDetection"`
	TopRefinements  []string        `json:"topRefinements"`
	Timestamp       time.Time       `json:"timestamp"`
	SourceType      SourceType      `json:"sourceType"`
	SourceValue     string          `json:"sourceValue"`
}

// Summary is the listing projection of a stored result.
type Summary struct {
	ID           ResultID   `json:"id"`
	OverallScore float64    `json:"overallScore"`
	SourceType   SourceType `json:"sourceType"`
	SourceValue  string     `json:"sourceValue"`
	Timestamp    time.Time  `json:"timestamp"`
}

// scores returns the ten category scores in rubric order.
func (c Categories) scores() []float64 {
	return []float64{
		c.AestheticCohesion.Score,
		c.HierarchyLayout.Score,
		c.Typography.Score,
		c.ColorContrast.Score,
		c.ImageryIconography.Score,
		c.BrandExpression.Score,
		c.SystemConsistency.Score,
		c.VisualCraft.Score,
		c.AISlopIndicators.Score,
		c.EmotionalResonance.Score,
	}
}

// MeanCategoryScore computes the average of the ten category scores,
// rounded to one decimal place.
func (r *Result) MeanCategoryScore() float64 {
	var sum float64
	scores := r.Categories.scores()
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(len(scores))
	return float64(int(mean*10+0.5)) / 10
}
