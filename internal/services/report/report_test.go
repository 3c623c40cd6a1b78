package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/models"
)

func sampleBundle() *models.MatchBundle {
	return &models.MatchBundle{
		Matches: []models.MatchResult{
			{
				JobID:        "job_1",
				JobTitle:     "后端工程师",
				Company:      "深圳科技有限公司",
				OverallScore: 0.82,
				Confidence:   0.95,
				MatchLevel:   models.MatchLevelGood,
				Priority:     models.PriorityMedium,
				Dimensions: models.DimensionScores{
					SemanticSimilarity: 0.85,
					SkillsMatch:        0.80,
					ExperienceMatch:    1.0,
					IndustryMatch:      0.9,
					SalaryMatch:        0.7,
				},
				Analysis: models.MatchAnalysis{
					Strengths:     []string{"职位内容与简历高度相关"},
					MatchedSkills: []string{"python", "机器学习"},
					MissingSkills: []string{"spark"},
				},
			},
			{
				JobID:        "job_2",
				JobTitle:     "数据工程师",
				Company:      "广州云服务公司",
				OverallScore: 0.64,
				MatchLevel:   models.MatchLevelFair,
				Priority:     models.PriorityLow,
			},
		},
		Summary: models.MatchSummary{
			TotalCandidates: 12,
			Returned:        2,
			AverageScore:    0.73,
			ByPriority:      map[string]int{models.PriorityMedium: 1, models.PriorityLow: 1},
			Query:           "后端工程师 5年经验 Python",
		},
		Insights: models.CareerInsights{
			TopTitles:            []string{"后端工程师", "数据工程师"},
			SkillGaps:            []string{"spark"},
			SalaryMarketPosition: "期望薪资与市场持平",
			Recommendations:      []string{"可按排名依次投递"},
		},
	}
}

func sampleProfile() *models.ResumeProfile {
	return &models.ResumeProfile{
		ProfileID:            "zhang_wei",
		Name:                 "张伟",
		CurrentPosition:      "后端工程师",
		TotalExperienceYears: 5,
	}
}

func TestBuildMarkdownSections(t *testing.T) {
	generated := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	md := BuildMarkdown(sampleProfile(), sampleBundle(), generated)

	assert.True(t, strings.HasPrefix(md, "# 职位匹配报告"))
	assert.Contains(t, md, "张伟（后端工程师，5年经验）")
	assert.Contains(t, md, "2026-08-20 09:30")
	assert.Contains(t, md, "候选职位: 12，入选: 2")
	assert.Contains(t, md, "| 1 | 后端工程师 | 深圳科技有限公司 | 82% | 良好 | 建议投递 |")
	assert.Contains(t, md, "| 2 | 数据工程师 | 广州云服务公司 | 64% | 一般 | 酌情考虑 |")
	assert.Contains(t, md, "| 技能匹配 | 80% |")
	assert.Contains(t, md, "**缺口技能**: spark")
	assert.Contains(t, md, "高频职位: 后端工程师、数据工程师")
	assert.Contains(t, md, "薪资定位: 期望薪资与市场持平")

	// ranking table precedes the per-match detail
	assert.Less(t, strings.Index(md, "## 职位排名"), strings.Index(md, "## 逐项分析"))
}

func TestBuildMarkdownEmptyBundle(t *testing.T) {
	md := BuildMarkdown(nil, &models.MatchBundle{}, time.Now())
	assert.Contains(t, md, "没有达到阈值的职位")
	assert.NotContains(t, md, "## 逐项分析")
}

func TestWriteMarkdownFile(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(common.ReportConfig{OutputDir: dir}, arbor.NewLogger())

	path := filepath.Join(dir, "out.md")
	got, err := svc.Write(sampleProfile(), sampleBundle(), path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# 职位匹配报告")
}

func TestWritePDFFile(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(common.ReportConfig{OutputDir: dir}, arbor.NewLogger())

	path, err := svc.Write(sampleProfile(), sampleBundle(), filepath.Join(dir, "out.pdf"))
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "%PDF"), "output is a PDF document")
}

func TestWriteRejectsUnknownFormat(t *testing.T) {
	svc := NewService(common.ReportConfig{OutputDir: t.TempDir()}, arbor.NewLogger())
	_, err := svc.Write(nil, sampleBundle(), "report.docx")
	assert.Error(t, err)
}
