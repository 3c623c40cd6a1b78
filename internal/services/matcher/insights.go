// -----------------------------------------------------------------------
// Career insights - corpus-level observations from one matching pass
// -----------------------------------------------------------------------

package matcher

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/venari/internal/models"
)

const (
	maxTopTitles = 5
	maxSkillGaps = 8
)

// buildInsights derives corpus observations from every scored candidate, not
// just the kept matches, so a thin result set still says something about the
// market.
func buildInsights(profile *models.ResumeProfile, candidates []models.MatchResult, metas map[string]*models.JobMetadata) models.CareerInsights {
	insights := models.CareerInsights{
		TopTitles:            topByCount(titleCounts(candidates), maxTopTitles),
		SkillGaps:            topByCount(gapCounts(candidates), maxSkillGaps),
		SalaryMarketPosition: salaryPosition(profile, metas),
	}
	insights.MarketTrends = marketTrends(candidates, insights.TopTitles)
	insights.Recommendations = recommendations(candidates, insights)
	return insights
}

func titleCounts(candidates []models.MatchResult) map[string]int {
	counts := make(map[string]int)
	for _, c := range candidates {
		if title := strings.TrimSpace(c.JobTitle); title != "" {
			counts[title]++
		}
	}
	return counts
}

func gapCounts(candidates []models.MatchResult) map[string]int {
	counts := make(map[string]int)
	for _, c := range candidates {
		for _, skill := range c.Analysis.MissingSkills {
			counts[skill]++
		}
	}
	return counts
}

// topByCount orders by count descending, name ascending on ties, and keeps
// the first n.
func topByCount(counts map[string]int, n int) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if n < len(names) {
		names = names[:n]
	}
	return names
}

// salaryPosition places the profile's expectation against the average
// midpoint of the candidate offers, with a ±15% band counting as parity.
func salaryPosition(profile *models.ResumeProfile, metas map[string]*models.JobMetadata) string {
	if profile.ExpectedSalaryRange == nil {
		return "未设置期望薪资"
	}
	var total float64
	var n int
	for _, meta := range metas {
		if meta == nil || meta.Salary == nil {
			continue
		}
		total += (meta.Salary.Min + meta.Salary.Max) / 2
		n++
	}
	if n == 0 {
		return "薪资数据不足"
	}
	market := total / float64(n)
	expected := (profile.ExpectedSalaryRange.Min + profile.ExpectedSalaryRange.Max) / 2
	switch {
	case expected > 1.15*market:
		return "期望薪资高于市场水平"
	case expected < 0.85*market:
		return "期望薪资低于市场水平"
	default:
		return "期望薪资与市场持平"
	}
}

func marketTrends(candidates []models.MatchResult, topTitles []string) []string {
	var trends []string
	if len(topTitles) > 0 {
		trends = append(trends, fmt.Sprintf("需求最集中的职位: %s", strings.Join(topTitles, "、")))
	}
	if len(candidates) > 0 {
		strong := 0
		for _, c := range candidates {
			if c.OverallScore >= 0.70 {
				strong++
			}
		}
		trends = append(trends, fmt.Sprintf("候选职位中 %d/%d 达到良好匹配", strong, len(candidates)))
	}
	return trends
}

// recommendations are rule-derived, never model-generated, so the same match
// run always reads the same way.
func recommendations(candidates []models.MatchResult, insights models.CareerInsights) []string {
	var recs []string
	if len(candidates) < 3 {
		recs = append(recs, "匹配结果较少，建议扩大检索关键词或放宽筛选条件")
	}
	if avgSkills(candidates) < 0.6 && len(insights.SkillGaps) > 0 {
		gaps := insights.SkillGaps
		if len(gaps) > 3 {
			gaps = gaps[:3]
		}
		recs = append(recs, fmt.Sprintf("技能覆盖偏低，优先补强: %s", strings.Join(gaps, ", ")))
	}
	if insights.SalaryMarketPosition == "期望薪资高于市场水平" {
		recs = append(recs, "期望薪资高于市场水平，建议确认议价空间")
	}
	if len(recs) == 0 {
		recs = append(recs, "保持当前求职方向，优先投递高优先级职位")
	}
	return recs
}

func avgSkills(candidates []models.MatchResult) float64 {
	if len(candidates) == 0 {
		return 0
	}
	var total float64
	for _, c := range candidates {
		total += c.Dimensions.SkillsMatch
	}
	return total / float64(len(candidates))
}
