package fingerprint

// JobKey is the comparable subset of a listing used for duplicate detection.
type JobKey struct {
	Title       string
	Company     string
	Fingerprint string
}

// DefaultDuplicateThreshold is the weighted-similarity cutoff for IsDuplicate.
const DefaultDuplicateThreshold = 0.9

// IsDuplicate reports whether two listings describe the same posting: equal
// fingerprints, or weighted character-set similarity of title and company at
// or above the threshold (0.7 title, 0.3 company).
func IsDuplicate(a, b JobKey, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultDuplicateThreshold
	}
	if a.Fingerprint != "" && a.Fingerprint == b.Fingerprint {
		return true
	}
	similarity := 0.7*charSetJaccard(NormalizeField(a.Title), NormalizeField(b.Title)) +
		0.3*charSetJaccard(NormalizeField(a.Company), NormalizeField(b.Company))
	return similarity >= threshold
}

// charSetJaccard computes |A ∩ B| / |A ∪ B| over the rune sets of two strings.
// Two empty strings are identical (1.0).
func charSetJaccard(a, b string) float64 {
	setA := runeSet(a)
	setB := runeSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}
	intersection := 0
	for r := range setA {
		if _, ok := setB[r]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func runeSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(s))
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}
