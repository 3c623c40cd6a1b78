package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/models"
)

func TestParseSalaryRange(t *testing.T) {
	tests := []struct {
		name    string
		display string
		want    *models.SalaryRange
	}{
		{"negotiable", "薪资面议", nil},
		{"empty", "", nil},
		{"k range annualizes", "25k-40k", &models.SalaryRange{Min: 300000, Max: 480000}},
		{"wan range with bonus months", "1.5-2万·13薪", &models.SalaryRange{Min: 180000, Max: 240000}},
		{"single wan figure", "3万", &models.SalaryRange{Min: 360000, Max: 360000}},
		{"no unit taken as annual", "300000-500000", &models.SalaryRange{Min: 300000, Max: 500000}},
		{"reversed bounds swap", "40k-25k", &models.SalaryRange{Min: 300000, Max: 480000}},
		{"no digits", "具体详谈", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSalaryRange(tt.display)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, tt.want.Min, got.Min, 1e-6)
			assert.InDelta(t, tt.want.Max, got.Max, 1e-6)
		})
	}
}

func TestParseRequiredYears(t *testing.T) {
	tests := []struct {
		name    string
		sources []string
		want    float64
	}{
		{"cn range takes lower bound", []string{"3-5年"}, 3},
		{"cn minimum", []string{"5年以上"}, 5},
		{"cn prose", []string{"", "要求8年以上后端开发经验"}, 8},
		{"english prose", []string{"", "5+ years of experience in Go"}, 5},
		{"open requirement stays unknown", []string{"经验不限", ""}, 0},
		{"field beats description", []string{"3-5年", "要求10年经验"}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, parseRequiredYears(tt.sources...), 1e-9)
		})
	}
}

func TestJobMetadataFromDetail(t *testing.T) {
	svc := NewService(common.NewDefaultConfig(), arbor.NewLogger())

	job := &models.Job{JobID: "job_1", Title: "高级Python开发工程师", Company: "某科技公司"}
	detail := &models.JobDetail{
		JobID:       "job_1",
		Salary:      "25k-40k",
		Experience:  "3-5年",
		Industry:    "互联网",
		Description: "负责机器学习平台建设，熟悉docker与kubernetes优先。",
	}

	meta := svc.JobMetadata(job, detail)
	assert.Equal(t, "job_1", meta.JobID)
	assert.Equal(t, "互联网", meta.Industry)
	require.NotNil(t, meta.Salary)
	assert.InDelta(t, 300000, meta.Salary.Min, 1e-6)
	assert.InDelta(t, 3.0, meta.RequiredYears, 1e-9)
	assert.Contains(t, meta.Skills, "python")
	assert.Contains(t, meta.Skills, "机器学习")
	assert.Contains(t, meta.Skills, "kubernetes")
}

func TestJobMetadataWithoutDetail(t *testing.T) {
	svc := NewService(common.NewDefaultConfig(), arbor.NewLogger())
	meta := svc.JobMetadata(&models.Job{JobID: "job_2", Title: "架构师"}, nil)

	assert.Equal(t, "job_2", meta.JobID)
	assert.Nil(t, meta.Salary)
	assert.Zero(t, meta.RequiredYears)
	assert.Empty(t, meta.Skills)
}
