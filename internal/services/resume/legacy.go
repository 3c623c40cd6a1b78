// -----------------------------------------------------------------------
// Legacy profile layout - flat skills list adapted to skill categories
// -----------------------------------------------------------------------

package resume

import (
	"github.com/ternarybob/venari/internal/models"
)

// profileFromRaw converts a decoded mapping into a profile, adapting the
// legacy flat layout (top-level skills list, experience_years, industries)
// when the canonical skill_categories key is absent.
func profileFromRaw(raw map[string]interface{}) (*models.ResumeProfile, error) {
	if _, ok := raw["skill_categories"]; !ok {
		adaptLegacy(raw)
	}
	return models.ResumeProfileFromMap(raw)
}

func adaptLegacy(raw map[string]interface{}) {
	if skills := stringList(raw["skills"]); len(skills) > 0 {
		raw["skill_categories"] = []interface{}{
			map[string]interface{}{
				"name":   "核心技能",
				"skills": toInterfaceList(skills),
			},
		}
		delete(raw, "skills")
	}
	if v, ok := raw["experience_years"]; ok {
		if _, exists := raw["total_experience_years"]; !exists {
			raw["total_experience_years"] = v
		}
		delete(raw, "experience_years")
	}
	if v, ok := raw["position"]; ok {
		if _, exists := raw["current_position"]; !exists {
			raw["current_position"] = v
		}
		delete(raw, "position")
	}
	// a plain industries list becomes uniform prior weights
	if industries := stringList(raw["industries"]); len(industries) > 0 {
		if _, exists := raw["industry_experience"]; !exists {
			weights := make(map[string]interface{}, len(industries))
			for _, industry := range industries {
				weights[industry] = 0.8
			}
			raw["industry_experience"] = weights
		}
		delete(raw, "industries")
	}
}

func stringList(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toInterfaceList(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
