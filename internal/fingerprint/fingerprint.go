// -----------------------------------------------------------------------
// Listing fingerprints - canonical 12-hex identity over (title, company,
// salary, location). Deduplication across runs hangs off this value.
// -----------------------------------------------------------------------

package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/ternarybob/venari/internal/common"
)

// Length of the emitted fingerprint in hex characters.
const Length = 12

// Fingerprint canonicalizes the four listing fields and returns the first 12
// hex characters of their MD5. Salary and location may be empty; the result
// is still a valid fingerprint.
func Fingerprint(title, company, salary, location string) string {
	joined := strings.Join([]string{
		NormalizeField(title),
		NormalizeField(company),
		NormalizeSalary(salary),
		NormalizeLocation(location),
	}, "|")
	sum := md5.Sum([]byte(joined))
	return hex.EncodeToString(sum[:])[:Length]
}

// NormalizeField lowercases, strips paired punctuation, and removes all
// whitespace, half- and full-width.
func NormalizeField(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || isPairedPunct(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeSalary reduces a salary display string to "{a}-{b}k", "{a}k", or
// "". Thousands separators are dropped, remaining commas act as range dashes,
// and values of a thousand or more are scaled down so "20000-40000" and
// "20,000-40,000" normalize identically.
func NormalizeSalary(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	s = dropThousandsSeparators(s)
	s = strings.NewReplacer(",", "-", "，", "-").Replace(s)

	runs := common.SalaryNumberRun.FindAllString(s, 2)
	values := make([]int, 0, 2)
	for _, run := range runs {
		v, err := strconv.Atoi(run)
		if err != nil {
			continue
		}
		for v >= 1000 {
			v /= 1000
		}
		values = append(values, v)
	}
	switch len(values) {
	case 2:
		return fmt.Sprintf("%d-%dk", values[0], values[1])
	case 1:
		return fmt.Sprintf("%dk", values[0])
	default:
		return ""
	}
}

// NormalizeLocation lowercases, removes administrative suffixes, and strips
// spaces, so "上海市" and "上海" collapse to the same token.
func NormalizeLocation(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, suffix := range common.LocationSuffixes {
		s = strings.ReplaceAll(s, suffix, "")
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// dropThousandsSeparators removes commas that sit between a digit and a
// three-digit group, the "20,000" pattern, in both comma widths.
func dropThousandsSeparators(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range runes {
		if r == ',' || r == '，' {
			if i > 0 && isDigit(runes[i-1]) && followedByThreeDigits(runes, i+1) {
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

func followedByThreeDigits(runes []rune, start int) bool {
	if start+3 > len(runes) {
		return false
	}
	for i := start; i < start+3; i++ {
		if !isDigit(runes[i]) {
			return false
		}
	}
	// a fourth digit would make it a malformed separator; still treat as one
	return true
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isPairedPunct(r rune) bool {
	for _, p := range common.PairedPunctuation {
		if r == p {
			return true
		}
	}
	return false
}
