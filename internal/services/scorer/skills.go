// -----------------------------------------------------------------------
// Skill matching - five matching rules over a CN/EN skill vocabulary
// -----------------------------------------------------------------------

package scorer

import "strings"

// matchSkill reports whether a résumé skill satisfies a job skill under any
// of the matching rules, cheapest first:
//
//  1. exact match after normalization
//  2. synonym lattice hit (CN canonical <-> EN aliases)
//  3. variant-name hit (k8s <-> kubernetes, azure <-> azure data factory)
//  4. substring containment, either direction, at least 3 runes contained
//  5. compound-token overlap: both multi-token, >= 2 shared tokens and
//     >= 0.5 overlap against the shorter term
func (t *Tables) matchSkill(jobSkill, resumeSkill string) bool {
	j := normalizeSkill(jobSkill)
	r := normalizeSkill(resumeSkill)
	if j == "" || r == "" {
		return false
	}
	if j == r {
		return true
	}
	if t.sameGroup(t.synonyms, j, r) || t.sameGroup(t.variants, j, r) {
		return true
	}
	if substringHit(j, r) {
		return true
	}
	return compoundHit(j, r)
}

// sameGroup reports whether both terms fall inside one canonical group: the
// group key or any of its listed aliases.
func (t *Tables) sameGroup(groups map[string][]string, a, b string) bool {
	for key, aliases := range groups {
		if inGroup(key, aliases, a) && inGroup(key, aliases, b) {
			return true
		}
	}
	return false
}

func inGroup(key string, aliases []string, term string) bool {
	if term == key {
		return true
	}
	for _, alias := range aliases {
		if term == alias {
			return true
		}
	}
	return false
}

// substringHit accepts containment in either direction when the contained
// term is at least 3 runes, so "ava" noise never links java to javascript's
// neighbors but 数据分析 inside 大数据分析平台 does match.
func substringHit(a, b string) bool {
	if len([]rune(a)) >= 3 && strings.Contains(b, a) {
		return true
	}
	if len([]rune(b)) >= 3 && strings.Contains(a, b) {
		return true
	}
	return false
}

// compoundHit matches multi-word terms sharing most of their tokens, e.g.
// "azure data engineering" against "data engineering".
func compoundHit(a, b string) bool {
	at := strings.Fields(a)
	bt := strings.Fields(b)
	if len(at) < 2 || len(bt) < 2 {
		return false
	}
	shared := 0
	bset := make(map[string]bool, len(bt))
	for _, tok := range bt {
		bset[tok] = true
	}
	for _, tok := range at {
		if bset[tok] {
			shared++
		}
	}
	shorter := len(at)
	if len(bt) < shorter {
		shorter = len(bt)
	}
	return shared >= 2 && float64(shared)/float64(shorter) >= 0.5
}

// MatchSkills partitions the job's skills into matched and missing against
// the résumé skill list.
func (t *Tables) MatchSkills(jobSkills, resumeSkills []string) (matched, missing []string) {
	for _, js := range jobSkills {
		hit := false
		for _, rs := range resumeSkills {
			if t.matchSkill(js, rs) {
				hit = true
				break
			}
		}
		if hit {
			matched = append(matched, js)
		} else {
			missing = append(missing, js)
		}
	}
	return matched, missing
}

// ExtractSkills scans free text for known vocabulary terms. ASCII terms must
// sit on non-alphanumeric boundaries so "go" never fires inside "golang";
// CJK terms match by containment. Results come back in lexicon order,
// deduplicated through their canonical spelling.
func (t *Tables) ExtractSkills(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lower := strings.ToLower(text)

	var found []string
	seen := make(map[string]bool)
	for _, term := range t.Lexicon() {
		canonical := t.canonicalFor(term)
		if seen[canonical] {
			continue
		}
		if isASCII(term) {
			if !containsBounded(lower, term) {
				continue
			}
		} else if !strings.Contains(lower, term) {
			continue
		}
		seen[canonical] = true
		found = append(found, canonical)
	}
	return found
}

// containsBounded finds term in text with no ASCII letter or digit touching
// either end of the occurrence. CJK neighbors and punctuation both count as
// boundaries, matching how skills appear in mixed-script listings.
func containsBounded(text, term string) bool {
	for from := 0; ; {
		i := strings.Index(text[from:], term)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(term)
		if !alnumAt(text, start-1) && !alnumAt(text, end) {
			return true
		}
		from = start + 1
		if from >= len(text) {
			return false
		}
	}
}

func alnumAt(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	c := s[i]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// canonicalFor maps an alias back to its group key so extraction reports one
// spelling per concept. Unlisted terms are their own canonical form.
func (t *Tables) canonicalFor(term string) string {
	for key, aliases := range t.synonyms {
		if inGroup(key, aliases, term) {
			return key
		}
	}
	for key, aliases := range t.variants {
		if inGroup(key, aliases, term) {
			return key
		}
	}
	return term
}

func isASCII(s string) bool {
	for _, r := range s {
		if r >= 128 {
			return false
		}
	}
	return true
}
