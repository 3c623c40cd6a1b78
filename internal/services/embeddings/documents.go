package embeddings

import (
	"fmt"
	"strings"

	"github.com/ternarybob/venari/internal/models"
)

// BuildJobDocuments splits a stored job into typed vector documents. Only
// sections with content are emitted, so a list-only row still yields an
// overview document. IDs are deterministic (job_id + document type) and the
// store upserts, so re-indexing a job replaces its chunks instead of
// duplicating them.
func BuildJobDocuments(job *models.JobWithDetail) []*models.VectorDocument {
	if job == nil || job.Job == nil {
		return nil
	}

	j := job.Job
	detail := job.Detail
	if detail == nil {
		detail = &models.JobDetail{}
	}

	var docs []*models.VectorDocument
	add := func(docType, content string, extra map[string]string) {
		if strings.TrimSpace(content) == "" {
			return
		}
		metadata := map[string]string{
			models.MetaDocumentType: docType,
			"title":                 j.Title,
			"company":               j.Company,
			"website":               j.Website,
		}
		if detail.Keyword != "" {
			metadata["keyword"] = detail.Keyword
		}
		for k, v := range extra {
			if v != "" {
				metadata[k] = v
			}
		}
		docs = append(docs, &models.VectorDocument{
			ID:          fmt.Sprintf("%s_%s", j.JobID, docType),
			PageContent: content,
			Metadata:    metadata,
		})
	}

	add(models.DocTypeOverview, labeledLines(
		"职位名称", j.Title,
		"公司名称", j.Company,
		"薪资待遇", detail.Salary,
		"工作地点", detail.Location,
		"福利待遇", detail.Benefits,
	), map[string]string{
		"salary":       detail.Salary,
		"location":     detail.Location,
		"experience":   detail.Experience,
		"education":    detail.Education,
		"industry":     detail.Industry,
		"publish_time": detail.PublishTime,
	})

	if detail.Description != "" {
		add(models.DocTypeResponsibility, "岗位职责：\n"+detail.Description, nil)
	}
	if detail.Requirements != "" {
		add(models.DocTypeRequirement, "任职要求：\n"+detail.Requirements, nil)
	}

	add(models.DocTypeBasicRequirements, labeledLines(
		"经验要求", detail.Experience,
		"学历要求", detail.Education,
	), nil)

	// Only worth a chunk when it says more than the overview already does.
	if detail.CompanyScale != "" || detail.Industry != "" {
		add(models.DocTypeCompanyInfo, labeledLines(
			"公司名称", j.Company,
			"公司规模", detail.CompanyScale,
			"所属行业", detail.Industry,
		), map[string]string{
			"company_scale": detail.CompanyScale,
			"industry":      detail.Industry,
		})
	}

	return docs
}

// labeledLines renders label/value pairs as "label：value" lines, skipping
// empty values. Returns "" when nothing had a value.
func labeledLines(pairs ...string) string {
	var lines []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		lines = append(lines, pairs[i]+"："+pairs[i+1])
	}
	return strings.Join(lines, "\n")
}
