// -----------------------------------------------------------------------
// Job metadata extraction - display strings to structured scorer input
// -----------------------------------------------------------------------

package scorer

import (
	"strconv"
	"strings"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/models"
)

// JobMetadata distills a stored job and its detail row into scorer input.
// Detail may be nil when only the listing was captured.
func (s *Service) JobMetadata(job *models.Job, detail *models.JobDetail) *models.JobMetadata {
	meta := &models.JobMetadata{
		JobID:   job.JobID,
		Title:   job.Title,
		Company: job.Company,
	}
	if detail == nil {
		return meta
	}
	meta.Industry = detail.Industry
	meta.Description = detail.Description
	meta.Salary = ParseSalaryRange(detail.Salary)
	meta.RequiredYears = parseRequiredYears(detail.Experience, detail.Description, detail.Requirements)

	text := strings.Join([]string{job.Title, detail.Description, detail.Requirements}, "\n")
	meta.Skills = s.tables.ExtractSkills(text)
	return meta
}

// ParseSalaryRange converts a listing display string into an annualized
// range. 万 and k amounts are monthly pay and annualize at 12 months; the
// 13薪-style suffix after the separator dot is ignored. Unparseable or
// negotiable strings return nil.
func ParseSalaryRange(display string) *models.SalaryRange {
	display = strings.TrimSpace(display)
	if display == "" || display == common.DefaultSalary || strings.Contains(display, "面议") {
		return nil
	}
	// drop the ·13薪 / ·双休 style suffix
	if i := strings.IndexRune(display, '·'); i >= 0 {
		display = display[:i]
	}

	numbers := common.SalaryNumberRun.FindAllString(display, -1)
	if len(numbers) == 0 {
		return nil
	}

	multiplier := 1.0
	monthly := false
	switch {
	case common.SalaryWanUnit.MatchString(display):
		multiplier, monthly = 10000, true
	case common.SalaryKUnit.MatchString(display):
		multiplier, monthly = 1000, true
	}

	lo, err := strconv.ParseFloat(numbers[0], 64)
	if err != nil {
		return nil
	}
	hi := lo
	if len(numbers) > 1 {
		if v, err := strconv.ParseFloat(numbers[1], 64); err == nil {
			hi = v
		}
	}

	lo *= multiplier
	hi *= multiplier
	if monthly {
		lo *= 12
		hi *= 12
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	if lo <= 0 {
		return nil
	}
	return &models.SalaryRange{Min: lo, Max: hi}
}

// parseRequiredYears resolves the required experience, preferring the
// structured experience field over free text. Ranges take their lower bound;
// 经验不限 and absent statements stay at zero (unknown).
func parseRequiredYears(sources ...string) float64 {
	for _, text := range sources {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if m := common.ExperienceRangeCN.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return v
			}
		}
		if m := common.ExperienceYearsCN.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return v
			}
		}
		if m := common.ExperienceMinCN.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return v
			}
		}
		if m := common.ExperienceYearsEN.FindStringSubmatch(text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				return v
			}
		}
	}
	return 0
}
