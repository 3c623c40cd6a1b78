package fingerprint

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexPattern = regexp.MustCompile(`^[0-9a-f]{12}$`)

func TestFingerprintDeterministic(t *testing.T) {
	first := Fingerprint("Go开发工程师", "深圳创新科技", "15k-25k", "深圳")
	second := Fingerprint("Go开发工程师", "深圳创新科技", "15k-25k", "深圳")

	assert.Equal(t, first, second)
	assert.Regexp(t, hexPattern, first)
}

func TestFingerprintStableUnderNormalization(t *testing.T) {
	// Whitespace, bracket, separator, and suffix variations all collapse to
	// the same identity.
	base := Fingerprint(" Senior Python 工程师 ", "ACME (Shanghai)", "20,000-40,000", "上海市")

	variants := []struct {
		name     string
		title    string
		company  string
		salary   string
		location string
	}{
		{"no thousands separators", "Senior Python 工程师", "ACME (Shanghai)", "20000-40000", "上海"},
		{"no brackets", " senior python 工程师", "ACME Shanghai", "20,000-40,000", "上海"},
		{"collapsed whitespace", "SeniorPython工程师", "ACME（Shanghai）", "20000-40000", "上海市"},
	}

	for _, tt := range variants {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, base, Fingerprint(tt.title, tt.company, tt.salary, tt.location))
		})
	}

	assert.Regexp(t, hexPattern, base)
}

func TestFingerprintEmptyOptionalFields(t *testing.T) {
	fp := Fingerprint("数据分析师", "某公司", "", "")

	require.Len(t, fp, Length)
	assert.Regexp(t, hexPattern, fp)

	// Different salary must change identity.
	assert.NotEqual(t, fp, Fingerprint("数据分析师", "某公司", "10k", ""))
}

func TestNormalizeSalary(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"range with k suffix", "15k-25k", "15-25k"},
		{"range with thousands separators", "20,000-40,000", "20-40k"},
		{"range plain", "20000-40000", "20-40k"},
		{"full-width comma as separator", "15000，25000", "15-25k"},
		{"single value", "30000", "30k"},
		{"negotiable", "薪资面议", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSalary(tt.input))
		})
	}
}

func TestNormalizeLocation(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"上海市", "上海"},
		{"上海", "上海"},
		{"北京市朝阳区", "北京朝阳"},
		{"内蒙古自治区", "内蒙古"},
		{"香港特别行政区", "香港"},
		{" 深圳 ", "深圳"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeLocation(tt.input), "input %q", tt.input)
	}
}

func TestNormalizeField(t *testing.T) {
	assert.Equal(t, "seniorpython工程师", NormalizeField(" Senior Python 工程师 "))
	assert.Equal(t, "acmeshanghai", NormalizeField("ACME (Shanghai)"))
	assert.Equal(t, "acmeshenzhen", NormalizeField("ACME 【Shenzhen】"))
	assert.Equal(t, "双引号内容", NormalizeField("“双引号内容”"))
}

func TestIsDuplicate(t *testing.T) {
	t.Run("equal fingerprints", func(t *testing.T) {
		a := JobKey{Title: "Go工程师", Company: "A公司", Fingerprint: "abcdefabcdef"}
		b := JobKey{Title: "完全不同", Company: "B公司", Fingerprint: "abcdefabcdef"}
		assert.True(t, IsDuplicate(a, b, 0.9))
	})

	t.Run("near-identical text", func(t *testing.T) {
		a := JobKey{Title: "高级Go开发工程师", Company: "深圳创新科技有限公司"}
		b := JobKey{Title: "高级GO开发工程师", Company: "深圳创新科技有限公司"}
		assert.True(t, IsDuplicate(a, b, 0.9))
	})

	t.Run("different postings", func(t *testing.T) {
		a := JobKey{Title: "Go开发工程师", Company: "创新科技"}
		b := JobKey{Title: "市场营销经理", Company: "环球贸易"}
		assert.False(t, IsDuplicate(a, b, 0.9))
	})

	t.Run("membership symmetry", func(t *testing.T) {
		a := JobKey{Title: "python", Company: "acme"}
		assert.True(t, IsDuplicate(a, a, 0.9))
	})
}
