// -----------------------------------------------------------------------
// Personalized query - profile facts into one retrieval query string
// -----------------------------------------------------------------------

package matcher

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// Caps keeping the query focused; the embedding carries less signal per term
// as the query grows.
const (
	queryTopSkills     = 8
	queryMaxPositions  = 3
	queryMaxIndustries = 2
	queryMaxSoftSkills = 3
)

// BuildQuery condenses a profile into the retrieval query: current position
// with seniority, the highest-weighted skills, preferred positions, the
// strongest industries, and a few soft skills.
func BuildQuery(profile *models.ResumeProfile, scorer interfaces.Scorer) string {
	var parts []string

	if pos := strings.TrimSpace(profile.CurrentPosition); pos != "" {
		parts = append(parts, pos)
		if years := int(profile.TotalExperienceYears); years > 0 {
			parts = append(parts, fmt.Sprintf("%d年经验", years))
		}
	}

	parts = append(parts, scorer.TopSkills(profile, queryTopSkills)...)
	parts = append(parts, headStrings(profile.PreferredPositions, queryMaxPositions)...)
	parts = append(parts, topIndustries(profile.IndustryExperience, queryMaxIndustries)...)
	parts = append(parts, headStrings(profile.SoftSkills, queryMaxSoftSkills)...)

	return strings.Join(parts, " ")
}

func headStrings(in []string, n int) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == n {
			break
		}
	}
	return out
}

// topIndustries returns the n strongest industries, weight descending with
// name ascending breaking ties for determinism.
func topIndustries(weights map[string]float64, n int) []string {
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if weights[names[i]] != weights[names[j]] {
			return weights[names[i]] > weights[names[j]]
		}
		return names[i] < names[j]
	})
	if n < len(names) {
		names = names[:n]
	}
	return names
}
