// -----------------------------------------------------------------------
// Vector documents - the unit stored in and retrieved from the vector store
// -----------------------------------------------------------------------

package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Document types carried in metadata under "document_type". Job-side types
// come from the extraction pipeline; resume-side types from profile embedding.
const (
	DocTypeOverview           = "overview"
	DocTypeSkills             = "skills"
	DocTypeResponsibility     = "responsibility"
	DocTypeRequirement        = "requirement"
	DocTypeBasicRequirements  = "basic_requirements"
	DocTypeCompanyInfo        = "company_info"
	DocTypeWorkExperience     = "work_experience"
	DocTypeProjectDetail      = "project_detail"
	DocTypePersonalOverview   = "personal_overview"
	DocTypeSkillsOverview     = "skills_overview"
	DocTypeExperienceOverview = "experience_overview"
	DocTypeEducationOverview  = "education_overview"
	DocTypeProjectsOverview   = "projects_overview"
	DocTypeCareerObjectives   = "career_objectives"
)

// Reserved metadata keys.
const (
	MetaJobID        = "job_id"
	MetaCreatedAt    = "created_at"
	MetaDocumentType = "document_type"
	MetaSearchScore  = "search_score" // populated on retrieval, never on storage
)

// VectorDocument is the storage/retrieval unit of the vector layer.
// Metadata values are flattened to strings before persistence; FlattenMetadata
// defines that mapping.
type VectorDocument struct {
	ID          string            `json:"id"`
	PageContent string            `json:"page_content"`
	Metadata    map[string]string `json:"metadata"`
}

// ScoredDocument pairs a retrieved document with its similarity score in [0,1].
type ScoredDocument struct {
	Document VectorDocument `json:"document"`
	Score    float64        `json:"score"`
}

// JobID returns the document's job_id metadata, or "".
func (d *VectorDocument) JobID() string {
	return d.Metadata[MetaJobID]
}

// DocumentType returns the document_type metadata, or "".
func (d *VectorDocument) DocumentType() string {
	return d.Metadata[MetaDocumentType]
}

// CreatedAt parses the created_at metadata. ok is false when the field is
// missing or unparseable.
func (d *VectorDocument) CreatedAt() (time.Time, bool) {
	raw, exists := d.Metadata[MetaCreatedAt]
	if !exists || raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FlattenMetadata coerces arbitrary metadata values to strings: lists join on
// commas, maps serialize to JSON, everything else formats with %v.
func FlattenMetadata(raw map[string]interface{}) map[string]string {
	flat := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case nil:
			flat[key] = ""
		case string:
			flat[key] = v
		case []string:
			flat[key] = strings.Join(v, ",")
		case []interface{}:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				parts = append(parts, fmt.Sprintf("%v", item))
			}
			flat[key] = strings.Join(parts, ",")
		case map[string]interface{}:
			encoded, err := json.Marshal(v)
			if err != nil {
				flat[key] = fmt.Sprintf("%v", v)
				continue
			}
			flat[key] = string(encoded)
		case map[string]string:
			encoded, err := json.Marshal(v)
			if err != nil {
				flat[key] = fmt.Sprintf("%v", v)
				continue
			}
			flat[key] = string(encoded)
		default:
			flat[key] = fmt.Sprintf("%v", v)
		}
	}
	return flat
}

// VectorStats describes the vector collection.
type VectorStats struct {
	Count int    `json:"count"`
	Name  string `json:"name"`
	Path  string `json:"path"`
}
