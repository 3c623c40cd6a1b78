// -----------------------------------------------------------------------
// Chinese-language tokens shared by fingerprinting, parsing, and scoring.
// Centralized so the test suite can exercise them independently.
// -----------------------------------------------------------------------

package common

import "regexp"

// PairedPunctuation are the bracket and quote runes stripped during field
// normalization, half- and full-width forms included.
var PairedPunctuation = []rune{
	'(', ')', '（', '）',
	'[', ']', '【', '】',
	'{', '}',
	'《', '》', '〈', '〉',
	'「', '」', '『', '』',
	'«', '»', '‹', '›',
	'“', '”', '‘', '’', '"', '\'',
}

// LocationSuffixes are administrative suffixes removed from location fields,
// longest first so 自治区 is handled before 区.
var LocationSuffixes = []string{
	"特别行政区",
	"自治区",
	"省",
	"市",
	"区",
	"县",
}

// Experience requirement patterns, tried in order against job descriptions.
var (
	ExperienceYearsEN = regexp.MustCompile(`(?i)(\d+)\+?\s*years?\s*(?:of\s*)?experience`)
	ExperienceYearsCN = regexp.MustCompile(`(\d+)\+?\s*年(?:以上)?(?:[^，。;；]*?)经[验験]`)
	ExperienceMinCN   = regexp.MustCompile(`(\d+)\s*年以上`)
	ExperienceRangeCN = regexp.MustCompile(`(\d+)\s*[-~－]\s*(\d+)\s*年`)
)

// Salary unit patterns for parsing display strings like "1.5-2万·13薪".
var (
	SalaryNumberRun = regexp.MustCompile(`\d+(?:\.\d+)?`)
	SalaryWanUnit   = regexp.MustCompile(`万`)
	SalaryKUnit     = regexp.MustCompile(`(?i)k`)
)

// Default field strings used when a list-page subfield is missing. The parser
// persists these instead of empty values.
const (
	DefaultTitle      = "未知职位"
	DefaultCompany    = "未知公司"
	DefaultSalary     = "薪资面议"
	DefaultLocation   = "地点不详"
	DefaultExperience = "经验不限"
	DefaultEducation  = "学历不限"
)
