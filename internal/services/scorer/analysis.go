// -----------------------------------------------------------------------
// Match analysis - deterministic narrative derived from dimension scores
// -----------------------------------------------------------------------

package scorer

import (
	"fmt"
	"strings"

	"github.com/ternarybob/venari/internal/models"
)

// buildAnalysis buckets the dimension scores into strengths, weaknesses, and
// recommendations. Same inputs, same output; no model calls involved.
func buildAnalysis(dims models.DimensionScores, matched, missing []string) models.MatchAnalysis {
	analysis := models.MatchAnalysis{
		MatchedSkills: matched,
		MissingSkills: missing,
	}

	if dims.SemanticSimilarity >= 0.8 {
		analysis.Strengths = append(analysis.Strengths, "职位内容与候选人背景高度相关")
	} else if dims.SemanticSimilarity < 0.5 {
		analysis.Weaknesses = append(analysis.Weaknesses, "职位内容与候选人背景相关性较低")
	}

	switch {
	case dims.SkillsMatch >= 0.8:
		analysis.Strengths = append(analysis.Strengths, "技能要求高度匹配")
	case dims.SkillsMatch < 0.4:
		analysis.Weaknesses = append(analysis.Weaknesses, "技能覆盖不足")
	}
	if len(missing) > 0 {
		top := missing
		if len(top) > 5 {
			top = top[:5]
		}
		analysis.Recommendations = append(analysis.Recommendations,
			fmt.Sprintf("建议补强技能: %s", strings.Join(top, ", ")))
	}

	switch {
	case dims.ExperienceMatch >= 0.95:
		analysis.Strengths = append(analysis.Strengths, "工作年限满足要求")
	case dims.ExperienceMatch < 0.6:
		analysis.Weaknesses = append(analysis.Weaknesses, "工作年限低于职位要求")
		analysis.Recommendations = append(analysis.Recommendations, "可在简历中突出相关项目深度以弥补年限差距")
	}

	if dims.IndustryMatch >= 0.8 {
		analysis.Strengths = append(analysis.Strengths, "行业背景契合")
	} else if dims.IndustryMatch < 0.3 {
		analysis.Weaknesses = append(analysis.Weaknesses, "行业背景差异较大")
	}

	if dims.SalaryMatch >= 0.8 {
		analysis.Strengths = append(analysis.Strengths, "薪资范围匹配")
	} else if dims.SalaryMatch < 0.5 {
		analysis.Weaknesses = append(analysis.Weaknesses, "薪资预期与职位范围差距明显")
		analysis.Recommendations = append(analysis.Recommendations, "确认薪资结构(基本/绩效/股权)后再评估该职位")
	}

	return analysis
}
