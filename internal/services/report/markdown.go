// -----------------------------------------------------------------------
// Match report - markdown rendering of a match bundle
// -----------------------------------------------------------------------

package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/venari/internal/models"
)

// levelLabels translate score buckets for the report body.
var levelLabels = map[string]string{
	models.MatchLevelExcellent: "极佳",
	models.MatchLevelGood:      "良好",
	models.MatchLevelFair:      "一般",
	models.MatchLevelPoor:      "较差",
}

var priorityLabels = map[string]string{
	models.PriorityHigh:           "优先投递",
	models.PriorityMedium:         "建议投递",
	models.PriorityLow:            "酌情考虑",
	models.PriorityNotRecommended: "暂不推荐",
}

func label(table map[string]string, key string) string {
	if v, ok := table[key]; ok {
		return v
	}
	return key
}

// BuildMarkdown renders the bundle as a self-contained Chinese report: header,
// run summary, ranked table, per-match breakdowns, and market insights.
func BuildMarkdown(profile *models.ResumeProfile, bundle *models.MatchBundle, generatedAt time.Time) string {
	var b strings.Builder

	b.WriteString("# 职位匹配报告\n\n")
	if profile != nil {
		b.WriteString(fmt.Sprintf("**候选人**: %s", orDash(profile.Name)))
		if profile.CurrentPosition != "" {
			b.WriteString(fmt.Sprintf("（%s", profile.CurrentPosition))
			if profile.TotalExperienceYears > 0 {
				b.WriteString(fmt.Sprintf("，%.0f年经验", profile.TotalExperienceYears))
			}
			b.WriteString("）")
		}
		b.WriteString("\n\n")
	}
	b.WriteString(fmt.Sprintf("**生成时间**: %s\n\n", generatedAt.Format("2006-01-02 15:04")))

	writeSummary(&b, bundle.Summary)
	writeRanking(&b, bundle.Matches)
	writeBreakdowns(&b, bundle.Matches)
	writeInsights(&b, bundle.Insights)

	return b.String()
}

func writeSummary(b *strings.Builder, summary models.MatchSummary) {
	b.WriteString("## 匹配概览\n\n")
	b.WriteString(fmt.Sprintf("- 候选职位: %d，入选: %d\n", summary.TotalCandidates, summary.Returned))
	b.WriteString(fmt.Sprintf("- 平均匹配度: %.0f%%\n", summary.AverageScore*100))
	if n := summary.ByPriority[models.PriorityHigh]; n > 0 {
		b.WriteString(fmt.Sprintf("- 优先投递: %d 个\n", n))
	}
	if summary.Query != "" {
		b.WriteString(fmt.Sprintf("- 检索条件: %s\n", summary.Query))
	}
	b.WriteString("\n")
}

func writeRanking(b *strings.Builder, matches []models.MatchResult) {
	b.WriteString("## 职位排名\n\n")
	if len(matches) == 0 {
		b.WriteString("没有达到阈值的职位。\n\n")
		return
	}

	b.WriteString("| 排名 | 职位 | 公司 | 匹配度 | 等级 | 建议 |\n")
	b.WriteString("| --- | --- | --- | --- | --- | --- |\n")
	for i, m := range matches {
		b.WriteString(fmt.Sprintf("| %d | %s | %s | %.0f%% | %s | %s |\n",
			i+1, orDash(m.JobTitle), orDash(m.Company), m.OverallScore*100,
			label(levelLabels, m.MatchLevel), label(priorityLabels, m.Priority)))
	}
	b.WriteString("\n")
}

func writeBreakdowns(b *strings.Builder, matches []models.MatchResult) {
	if len(matches) == 0 {
		return
	}
	b.WriteString("## 逐项分析\n\n")
	for i, m := range matches {
		b.WriteString(fmt.Sprintf("### %d. %s — %s\n\n", i+1, orDash(m.JobTitle), orDash(m.Company)))
		b.WriteString(fmt.Sprintf("总分 %.0f%%，置信度 %.0f%%\n\n", m.OverallScore*100, m.Confidence*100))

		b.WriteString("| 维度 | 得分 |\n| --- | --- |\n")
		b.WriteString(fmt.Sprintf("| 语义相关 | %.0f%% |\n", m.Dimensions.SemanticSimilarity*100))
		b.WriteString(fmt.Sprintf("| 技能匹配 | %.0f%% |\n", m.Dimensions.SkillsMatch*100))
		b.WriteString(fmt.Sprintf("| 经验匹配 | %.0f%% |\n", m.Dimensions.ExperienceMatch*100))
		b.WriteString(fmt.Sprintf("| 行业匹配 | %.0f%% |\n", m.Dimensions.IndustryMatch*100))
		b.WriteString(fmt.Sprintf("| 薪资匹配 | %.0f%% |\n", m.Dimensions.SalaryMatch*100))
		b.WriteString("\n")

		writeLines(b, "优势", m.Analysis.Strengths)
		writeLines(b, "不足", m.Analysis.Weaknesses)
		if len(m.Analysis.MatchedSkills) > 0 {
			b.WriteString(fmt.Sprintf("**命中技能**: %s\n\n", strings.Join(m.Analysis.MatchedSkills, "、")))
		}
		if len(m.Analysis.MissingSkills) > 0 {
			b.WriteString(fmt.Sprintf("**缺口技能**: %s\n\n", strings.Join(m.Analysis.MissingSkills, "、")))
		}
	}
}

func writeInsights(b *strings.Builder, insights models.CareerInsights) {
	b.WriteString("## 市场洞察\n\n")
	if len(insights.TopTitles) > 0 {
		b.WriteString(fmt.Sprintf("- 高频职位: %s\n", strings.Join(insights.TopTitles, "、")))
	}
	if len(insights.SkillGaps) > 0 {
		b.WriteString(fmt.Sprintf("- 常见技能缺口: %s\n", strings.Join(insights.SkillGaps, "、")))
	}
	if insights.SalaryMarketPosition != "" {
		b.WriteString(fmt.Sprintf("- 薪资定位: %s\n", insights.SalaryMarketPosition))
	}
	for _, trend := range insights.MarketTrends {
		b.WriteString(fmt.Sprintf("- %s\n", trend))
	}
	b.WriteString("\n")
	writeLines(b, "行动建议", insights.Recommendations)
}

func writeLines(b *strings.Builder, heading string, lines []string) {
	if len(lines) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("**%s**:\n\n", heading))
	for _, line := range lines {
		b.WriteString(fmt.Sprintf("- %s\n", line))
	}
	b.WriteString("\n")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}
