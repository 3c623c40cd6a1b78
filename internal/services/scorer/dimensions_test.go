package scorer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/venari/internal/models"
)

func scoredDoc(docType string, score float64, content string) models.ScoredDocument {
	return models.ScoredDocument{
		Document: models.VectorDocument{
			PageContent: content,
			Metadata:    map[string]string{models.MetaDocumentType: docType},
		},
		Score: score,
	}
}

func TestSemanticScoreSingleDocPassesThrough(t *testing.T) {
	docs := []models.ScoredDocument{scoredDoc(models.DocTypeOverview, 0.82, "")}
	assert.InDelta(t, 0.82, semanticScore(docs), 1e-9)
}

func TestSemanticScoreWeightedMeanFavorsStrongHits(t *testing.T) {
	docs := []models.ScoredDocument{
		scoredDoc(models.DocTypeOverview, 0.9, ""),
		scoredDoc(models.DocTypeRequirement, 0.6, ""),
	}
	// weights score^1.2 pull the mean toward 0.9: ~0.786, above the plain
	// average of 0.75
	got := semanticScore(docs)
	assert.InDelta(t, 0.786, got, 0.005)
	assert.Greater(t, got, 0.75)
}

func TestSemanticScoreHeuristicFallback(t *testing.T) {
	long := strings.Repeat("责", 500)
	mid := strings.Repeat("责", 200)
	docs := []models.ScoredDocument{
		scoredDoc(models.DocTypeOverview, 0, long),
		scoredDoc(models.DocTypeRequirement, 0, mid),
		scoredDoc(models.DocTypeCompanyInfo, 0, "短"),
	}
	// (0.8+0.1 + 0.75+0.05 + 0.4) / 3
	assert.InDelta(t, 0.7, semanticScore(docs), 1e-6)

	t.Run("unknown type scores the neutral base", func(t *testing.T) {
		docs := []models.ScoredDocument{scoredDoc("press_release", 0, "短")}
		assert.InDelta(t, 0.5, semanticScore(docs), 1e-9)
	})

	assert.Zero(t, semanticScore(nil))
}

func TestExperienceScore(t *testing.T) {
	tests := []struct {
		name     string
		have     float64
		required float64
		want     float64
	}{
		{"requirement unknown", 8, 0, 0.9},
		{"meets requirement", 8, 5, 1.0},
		{"exactly at requirement", 5, 5, 1.0},
		{"strongly overqualified", 11, 5, 0.95},
		{"under requirement", 3, 5, 0.6},
		{"no experience", 0, 5, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, experienceScore(tt.have, tt.required), 1e-9)
		})
	}
}

func TestIndustryScore(t *testing.T) {
	tables := DefaultTables()
	profile := &models.ResumeProfile{
		IndustryExperience: map[string]float64{"制药": 0.9},
	}

	t.Run("job industry absent is neutral", func(t *testing.T) {
		assert.InDelta(t, 0.7, tables.industryScore(profile, ""), 1e-9)
	})
	t.Run("direct overlap returns the prior weight", func(t *testing.T) {
		assert.InDelta(t, 0.9, tables.industryScore(profile, "制药行业"), 1e-9)
	})
	t.Run("category relation scores 0.6", func(t *testing.T) {
		assert.InDelta(t, 0.6, tables.industryScore(profile, "healthcare"), 1e-9)
		assert.InDelta(t, 0.6, tables.industryScore(profile, "医疗健康"), 1e-9)
	})
	t.Run("unrelated industry is a mismatch", func(t *testing.T) {
		assert.Zero(t, tables.industryScore(profile, "房地产"))
	})
	t.Run("profile without industries is neutral via absence", func(t *testing.T) {
		empty := &models.ResumeProfile{}
		assert.Zero(t, tables.industryScore(empty, "金融"))
		assert.InDelta(t, 0.7, tables.industryScore(empty, ""), 1e-9)
	})
}

func TestSalaryScore(t *testing.T) {
	r := func(lo, hi float64) *models.SalaryRange { return &models.SalaryRange{Min: lo, Max: hi} }

	tests := []struct {
		name     string
		expected *models.SalaryRange
		offered  *models.SalaryRange
		want     float64
	}{
		{"either side missing", nil, r(400000, 600000), 0.8},
		{"offer negotiable", r(300000, 500000), nil, 0.8},
		{"overlap against narrower range", r(300000, 500000), r(400000, 600000), 0.5},
		{"full containment", r(450000, 500000), r(400000, 600000), 1.0},
		{"asking under the floor", r(200000, 350000), r(400000, 600000), 0.9},
		{"small gap above", r(400000, 420000), r(300000, 400000), 0.8},
		{"moderate gap above", r(420000, 460000), r(300000, 400000), 0.6},
		{"wide gap above", r(500000, 560000), r(300000, 400000), 0.4},
		{"large gap above", r(800000, 900000), r(300000, 400000), 0.2},
		{"open-ended offer overlaps", r(300000, 500000), r(350000, 0), 0.75},
		{"open-ended offer, asking below its floor", r(200000, 300000), r(350000, 0), 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, salaryScore(tt.expected, tt.offered), 1e-3)
		})
	}
}
