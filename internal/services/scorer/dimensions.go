// -----------------------------------------------------------------------
// Dimension scores - the five [0,1] components behind the overall score
// -----------------------------------------------------------------------

package scorer

import (
	"math"
	"strings"

	"github.com/ternarybob/venari/internal/models"
)

// Neutral scores for dimensions whose inputs are unknown. Missing data is
// never treated as a mismatch.
const (
	neutralSkills     = 0.5
	neutralExperience = 0.9
	neutralIndustry   = 0.7
	neutralSalary     = 0.8
)

// semanticScore derives D1 from the retrieved documents. Attached search
// scores win: one document passes through, several combine as a weighted
// mean that favors the stronger hits (weights score^1.2). Documents without
// scores fall back to a type-and-length heuristic.
func semanticScore(docs []models.ScoredDocument) float64 {
	var scored []float64
	for _, d := range docs {
		if d.Score > 0 {
			scored = append(scored, d.Score)
		}
	}
	switch len(scored) {
	case 0:
		return heuristicSemantic(docs)
	case 1:
		return clamp01(scored[0])
	}

	var num, den float64
	for _, s := range scored {
		w := math.Pow(s, 1.2)
		num += s * w
		den += w
	}
	if den == 0 {
		return heuristicSemantic(docs)
	}
	return clamp01(num / den)
}

// documentTypeValue ranks how much signal a document type carries about fit.
var documentTypeValue = map[string]float64{
	models.DocTypeOverview:          0.8,
	models.DocTypeSkills:            0.85,
	models.DocTypeResponsibility:    0.7,
	models.DocTypeRequirement:       0.75,
	models.DocTypeBasicRequirements: 0.6,
	models.DocTypeCompanyInfo:       0.4,
}

func heuristicSemantic(docs []models.ScoredDocument) float64 {
	if len(docs) == 0 {
		return 0
	}
	var total float64
	for _, d := range docs {
		base, ok := documentTypeValue[d.Document.DocumentType()]
		if !ok {
			base = 0.5
		}
		// substantial content earns a stepped bump
		switch length := len([]rune(d.Document.PageContent)); {
		case length >= 500:
			base += 0.1
		case length >= 200:
			base += 0.05
		}
		total += base
	}
	return clamp01(total / float64(len(docs)))
}

// skillsScore derives D2: the weight-covered fraction of the job's skills,
// plus capped bonuses for high-value résumé skills the listing never asked
// for. A job with no discernible skills scores neutral.
func (t *Tables) skillsScore(jobSkills, resumeSkills []string) (score float64, matched, missing []string) {
	if len(jobSkills) == 0 {
		return neutralSkills, nil, nil
	}
	matched, missing = t.MatchSkills(jobSkills, resumeSkills)

	var covered, total float64
	for _, js := range jobSkills {
		total += t.WeightFor(js)
	}
	for _, js := range matched {
		covered += t.WeightFor(js)
	}
	if total == 0 {
		return neutralSkills, matched, missing
	}
	return clamp01(covered/total + t.surplusBonus(jobSkills, resumeSkills)), matched, missing
}

// surplusBonus sums tier bonuses for premium résumé skills absent from the
// job's skill set, capped at highValueBonusCap.
func (t *Tables) surplusBonus(jobSkills, resumeSkills []string) float64 {
	var bonus float64
	seen := make(map[string]bool, len(resumeSkills))
	for _, rs := range resumeSkills {
		key := normalizeSkill(rs)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		b := t.BonusFor(rs)
		if b == 0 {
			continue
		}
		inJob := false
		for _, js := range jobSkills {
			if t.matchSkill(js, rs) {
				inJob = true
				break
			}
		}
		if !inJob {
			bonus += b
		}
	}
	if bonus > highValueBonusCap {
		bonus = highValueBonusCap
	}
	return bonus
}

// experienceScore derives D3 from years held against years required.
func experienceScore(haveYears, requiredYears float64) float64 {
	if requiredYears <= 0 {
		return neutralExperience
	}
	if haveYears >= requiredYears {
		// far past the requirement hints at over-qualification
		if haveYears > 2*requiredYears {
			return 0.95
		}
		return 1.0
	}
	return clamp01(haveYears / requiredYears)
}

// industryScore derives D4. A direct overlap with a profile industry returns
// that industry's configured prior weight; a category relation (制药 vs
// healthcare) returns 0.6; an unrelated industry is a genuine mismatch.
func (t *Tables) industryScore(profile *models.ResumeProfile, jobIndustry string) float64 {
	job := normalizeSkill(jobIndustry)
	if job == "" {
		return neutralIndustry
	}
	for industry, weight := range profile.IndustryExperience {
		res := normalizeSkill(industry)
		if res == "" {
			continue
		}
		if strings.Contains(job, res) || strings.Contains(res, job) {
			return clamp01(weight)
		}
	}
	for industry := range profile.IndustryExperience {
		if t.relatedIndustries(normalizeSkill(industry), job) {
			return 0.6
		}
	}
	return 0.0
}

// relatedIndustries reports whether two industry labels fall inside one
// category: the category name plus its related terms.
func (t *Tables) relatedIndustries(a, b string) bool {
	for category, related := range t.industryRelations {
		members := append([]string{category}, related...)
		if industryInSet(a, members) && industryInSet(b, members) {
			return true
		}
	}
	return false
}

func industryInSet(industry string, members []string) bool {
	for _, m := range members {
		if strings.Contains(industry, m) || strings.Contains(m, industry) {
			return true
		}
	}
	return false
}

// salaryScore derives D5 from expectation against offer. Overlapping ranges
// score by overlap against the narrower range; a candidate asking at or just
// under the offer floor is nearly ideal; otherwise the midpoint gap decides.
func salaryScore(expected, offered *models.SalaryRange) float64 {
	if expected == nil || offered == nil || (expected.Min <= 0 && expected.Max <= 0) ||
		(offered.Min <= 0 && offered.Max <= 0) {
		return neutralSalary
	}

	eMin, eMax := boundExpected(expected)
	oMin, oMax := boundOffered(offered)

	if overlap := math.Min(eMax, oMax) - math.Max(eMin, oMin); overlap > 0 {
		narrower := math.Min(eMax-eMin, oMax-oMin)
		if narrower <= 0 {
			return 1.0
		}
		return clamp01(overlap / narrower)
	}

	// no overlap: asking below or barely above the offer floor is fine
	if eMax <= 1.2*oMin {
		return 0.9
	}

	gap := math.Abs(midpoint(eMin, eMax)-midpoint(oMin, oMax)) / midpoint(oMin, oMax)
	switch {
	case gap <= 0.2:
		return 0.8
	case gap <= 0.4:
		return 0.6
	case gap <= 0.6:
		return 0.4
	default:
		return 0.2
	}
}

// boundExpected normalizes the candidate side: Max 0 reads as "at least Min",
// a band reaching 50% above the floor so overlap stays computable.
func boundExpected(r *models.SalaryRange) (float64, float64) {
	min, max := r.Min, r.Max
	if max <= 0 {
		max = min * 1.5
	}
	if min <= 0 {
		min = max
	}
	if max < min {
		min, max = max, min
	}
	return min, max
}

// boundOffered normalizes the listing side: a missing ceiling is open-ended,
// so any expectation above the floor is satisfied.
func boundOffered(r *models.SalaryRange) (float64, float64) {
	min, max := r.Min, r.Max
	if max <= 0 {
		return min, math.Inf(1)
	}
	if min <= 0 {
		min = max
	}
	if max < min {
		min, max = max, min
	}
	return min, max
}

func midpoint(lo, hi float64) float64 {
	return (lo + hi) / 2
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
