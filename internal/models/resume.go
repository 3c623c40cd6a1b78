// -----------------------------------------------------------------------
// Resume profile - structured candidate profile used for matching
// -----------------------------------------------------------------------

package models

import (
	"encoding/json"
	"strings"
)

// SkillCategory groups related skills with a shared proficiency level.
// Category order is significant: GetAllSkills preserves insertion order.
type SkillCategory struct {
	Name             string   `json:"name" yaml:"name"`
	Skills           []string `json:"skills" yaml:"skills"`
	ProficiencyLevel string   `json:"proficiency_level" yaml:"proficiency_level"` // expert, advanced, intermediate, beginner
	YearsExperience  *float64 `json:"years_experience,omitempty" yaml:"years_experience,omitempty"`
}

// WorkExperience is one employment entry, newest first by convention.
type WorkExperience struct {
	Company          string   `json:"company" yaml:"company"`
	Position         string   `json:"position" yaml:"position"`
	StartDate        string   `json:"start_date" yaml:"start_date"`
	EndDate          string   `json:"end_date,omitempty" yaml:"end_date,omitempty"` // empty = current
	DurationYears    float64  `json:"duration_years" yaml:"duration_years"`
	Responsibilities []string `json:"responsibilities" yaml:"responsibilities"`
	Achievements     []string `json:"achievements" yaml:"achievements"`
	Technologies     []string `json:"technologies" yaml:"technologies"`
	Industry         string   `json:"industry" yaml:"industry"`
}

// Education is one degree or program entry.
type Education struct {
	School    string `json:"school" yaml:"school"`
	Degree    string `json:"degree" yaml:"degree"`
	Major     string `json:"major" yaml:"major"`
	StartDate string `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty" yaml:"end_date,omitempty"`
}

// Project is one portfolio project entry.
type Project struct {
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description" yaml:"description"`
	Role         string   `json:"role,omitempty" yaml:"role,omitempty"`
	Technologies []string `json:"technologies" yaml:"technologies"`
	Highlights   []string `json:"highlights,omitempty" yaml:"highlights,omitempty"`
}

// SalaryRange is an annual salary expectation or offer, in the site's currency
// unit. Max 0 means open-ended.
type SalaryRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// ResumeProfile is the structured candidate profile the matcher consumes.
// IndustryExperience values are prior weights in [0,1], not years; years per
// industry derive from the work history via CalculateIndustryExperienceYears.
type ResumeProfile struct {
	ProfileID            string             `json:"profile_id" yaml:"profile_id"`
	ProfileType          string             `json:"profile_type,omitempty" yaml:"profile_type,omitempty"` // free-form tag
	Name                 string             `json:"name" yaml:"name"`
	Contact              string             `json:"contact,omitempty" yaml:"contact,omitempty"`
	TotalExperienceYears float64            `json:"total_experience_years" yaml:"total_experience_years"`
	CurrentPosition      string             `json:"current_position,omitempty" yaml:"current_position,omitempty"`
	CurrentCompany       string             `json:"current_company,omitempty" yaml:"current_company,omitempty"`
	SkillCategories      []SkillCategory    `json:"skill_categories" yaml:"skill_categories"`
	WorkExperiences      []WorkExperience   `json:"work_experiences" yaml:"work_experiences"`
	Educations           []Education        `json:"educations,omitempty" yaml:"educations,omitempty"`
	Projects             []Project          `json:"projects,omitempty" yaml:"projects,omitempty"`
	Certifications       []string           `json:"certifications,omitempty" yaml:"certifications,omitempty"`
	Languages            []string           `json:"languages,omitempty" yaml:"languages,omitempty"`
	IndustryExperience   map[string]float64 `json:"industry_experience,omitempty" yaml:"industry_experience,omitempty"`
	PreferredPositions   []string           `json:"preferred_positions,omitempty" yaml:"preferred_positions,omitempty"`
	ExpectedSalaryRange  *SalaryRange       `json:"expected_salary_range,omitempty" yaml:"expected_salary_range,omitempty"`
	CareerObjectives     []string           `json:"career_objectives,omitempty" yaml:"career_objectives,omitempty"`
	SoftSkills           []string           `json:"soft_skills,omitempty" yaml:"soft_skills,omitempty"`
}

// GetAllSkills concatenates skills across categories preserving category
// insertion order, then skill order within each category.
func (p *ResumeProfile) GetAllSkills() []string {
	var all []string
	for _, category := range p.SkillCategories {
		all = append(all, category.Skills...)
	}
	return all
}

// AddSkillCategory appends a category, merging into an existing one when the
// name already exists (case-insensitive), keeping original position.
func (p *ResumeProfile) AddSkillCategory(category SkillCategory) {
	for i := range p.SkillCategories {
		if strings.EqualFold(p.SkillCategories[i].Name, category.Name) {
			p.SkillCategories[i].Skills = append(p.SkillCategories[i].Skills, category.Skills...)
			if category.ProficiencyLevel != "" {
				p.SkillCategories[i].ProficiencyLevel = category.ProficiencyLevel
			}
			return
		}
	}
	p.SkillCategories = append(p.SkillCategories, category)
}

// AddWorkExperience appends an employment entry.
func (p *ResumeProfile) AddWorkExperience(exp WorkExperience) {
	p.WorkExperiences = append(p.WorkExperiences, exp)
}

// CalculateIndustryExperienceYears sums work-history duration per industry.
func (p *ResumeProfile) CalculateIndustryExperienceYears() map[string]float64 {
	years := make(map[string]float64)
	for _, exp := range p.WorkExperiences {
		industry := strings.TrimSpace(exp.Industry)
		if industry == "" {
			continue
		}
		years[industry] += exp.DurationYears
	}
	return years
}

// ToMap serializes the profile into its canonical mapping form.
func (p *ResumeProfile) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// ResumeProfileFromMap reverses ToMap.
func ResumeProfileFromMap(m map[string]interface{}) (*ResumeProfile, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var p ResumeProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
