// -----------------------------------------------------------------------
// Skill and industry lookup tables - defaults with config-level overrides
// -----------------------------------------------------------------------

package scorer

import (
	"sort"
	"strings"

	"github.com/ternarybob/venari/internal/common"
)

// Bonus per high-value skill tier. The summed bonus is capped at
// highValueBonusCap regardless of how many premium skills match.
const (
	tierOneBonus      = 0.04
	tierTwoBonus      = 0.06
	tierThreeBonus    = 0.08
	highValueBonusCap = 0.25
)

// Tables holds the lookup data behind skill and industry scoring. All keys
// are stored lowercased; Chinese entries pass through unchanged.
type Tables struct {
	weights   map[string]float64
	synonyms  map[string][]string
	variants  map[string][]string
	highValue map[string]int
	// industry category -> related industry terms (the category name itself
	// is implicitly a member)
	industryRelations map[string][]string
}

// DefaultTables returns the built-in lookup tables tuned for the Chinese
// job-listing corpus: mixed CN/EN skill names, CN industry labels.
func DefaultTables() *Tables {
	return &Tables{
		weights: map[string]float64{
			"python":     1.5,
			"java":       1.3,
			"golang":     1.4,
			"c++":        1.3,
			"javascript": 1.2,
			"typescript": 1.2,
			"react":      1.2,
			"vue":        1.1,
			"sql":        1.0,
			"mysql":      1.1,
			"postgresql": 1.1,
			"redis":      1.1,
			"mongodb":    1.0,
			"kafka":      1.2,
			"spark":      1.3,
			"hadoop":     1.1,
			"databricks": 1.4,
			"docker":     1.3,
			"kubernetes": 1.4,
			"aws":        1.3,
			"azure":      1.3,
			"gcp":        1.2,
			"linux":      1.0,
			"git":        0.8,
			"机器学习":       1.5,
			"深度学习":       1.5,
			"自然语言处理":     1.4,
			"计算机视觉":      1.4,
			"数据分析":       1.2,
			"数据挖掘":       1.2,
			"大数据":        1.2,
			"微服务":        1.2,
			"分布式":        1.2,
			"高并发":        1.2,
		},
		synonyms: map[string][]string{
			"机器学习":   {"machine learning", "ml"},
			"深度学习":   {"deep learning", "dl"},
			"人工智能":   {"artificial intelligence", "ai"},
			"数据分析":   {"data analysis", "data analytics"},
			"数据挖掘":   {"data mining"},
			"自然语言处理": {"nlp", "natural language processing"},
			"计算机视觉":  {"computer vision", "cv"},
			"大数据":    {"big data"},
			"云计算":    {"cloud computing"},
			"数据库":    {"database"},
			"算法":     {"algorithm", "algorithms"},
			"前端":     {"frontend", "front-end"},
			"后端":     {"backend", "back-end"},
			"运维":     {"devops", "sre"},
			"测试":     {"testing", "qa"},
			"微服务":    {"microservices", "microservice"},
			"分布式":    {"distributed systems", "distributed"},
			"容器":     {"container", "containers"},
		},
		variants: map[string][]string{
			"python":           {"python3", "cpython"},
			"golang":           {"go"},
			"javascript":       {"js", "es6", "ecmascript"},
			"typescript":       {"ts"},
			"kubernetes":       {"k8s"},
			"postgresql":       {"postgres", "pgsql"},
			"elasticsearch":    {"es", "elastic"},
			"aws":              {"amazon web services", "aws lambda", "aws s3"},
			"azure":            {"microsoft azure", "azure data factory", "azure databricks", "azure devops"},
			"gcp":              {"google cloud", "google cloud platform"},
			"spark":            {"pyspark", "apache spark"},
			"kafka":            {"apache kafka"},
			"machine learning": {"scikit-learn", "sklearn", "pytorch", "tensorflow"},
		},
		highValue: map[string]int{
			"机器学习":       3,
			"深度学习":       3,
			"kubernetes": 3,
			"databricks": 3,
			"自然语言处理":     3,
			"python":     2,
			"golang":     2,
			"spark":      2,
			"aws":        2,
			"azure":      2,
			"微服务":        2,
			"高并发":        2,
			"docker":     1,
			"redis":      1,
			"react":      1,
			"数据分析":       1,
		},
		industryRelations: map[string][]string{
			"科技": {"互联网", "软件", "it", "tech", "computer", "人工智能", "ai"},
			"金融": {"银行", "证券", "保险", "投资", "finance", "fintech"},
			"制药": {"医疗", "医药", "生物", "医疗健康", "healthcare", "pharma", "pharmaceutical", "biotech"},
			"教育": {"培训", "education", "edtech"},
			"制造": {"汽车", "工业", "manufacturing", "automotive"},
			"电商": {"零售", "消费", "e-commerce", "ecommerce", "retail"},
		},
	}
}

// NewTables builds the lookup tables, merging any configured overrides over
// the defaults. Overridden keys replace; new keys extend.
func NewTables(override *common.SkillTablesConfig) *Tables {
	t := DefaultTables()
	if override == nil {
		return t
	}
	for k, v := range override.Weights {
		t.weights[normalizeSkill(k)] = v
	}
	for k, v := range override.Synonyms {
		t.synonyms[normalizeSkill(k)] = lowerAll(v)
	}
	for k, v := range override.Variants {
		t.variants[normalizeSkill(k)] = lowerAll(v)
	}
	for k, v := range override.HighValue {
		t.highValue[normalizeSkill(k)] = v
	}
	for k, v := range override.IndustryRelations {
		t.industryRelations[normalizeSkill(k)] = lowerAll(v)
	}
	return t
}

// WeightFor returns the configured weight for a skill, 1.0 when unlisted.
func (t *Tables) WeightFor(skill string) float64 {
	if w, ok := t.weights[normalizeSkill(skill)]; ok {
		return w
	}
	return 1.0
}

// BonusFor returns the high-value bonus increment for a skill, 0 when the
// skill carries no tier.
func (t *Tables) BonusFor(skill string) float64 {
	switch t.highValue[normalizeSkill(skill)] {
	case 3:
		return tierThreeBonus
	case 2:
		return tierTwoBonus
	case 1:
		return tierOneBonus
	default:
		return 0
	}
}

// Lexicon returns every skill term the tables know about, deduplicated and
// sorted, for extraction scans over free text.
func (t *Tables) Lexicon() []string {
	seen := make(map[string]bool)
	add := func(term string) {
		term = normalizeSkill(term)
		if term != "" {
			seen[term] = true
		}
	}
	for k := range t.weights {
		add(k)
	}
	for k, vs := range t.synonyms {
		add(k)
		for _, v := range vs {
			add(v)
		}
	}
	for k, vs := range t.variants {
		add(k)
		for _, v := range vs {
			add(v)
		}
	}
	for k := range t.highValue {
		add(k)
	}
	out := make([]string, 0, len(seen))
	for term := range seen {
		out = append(out, term)
	}
	sort.Strings(out)
	return out
}

func normalizeSkill(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = normalizeSkill(s)
	}
	return out
}
