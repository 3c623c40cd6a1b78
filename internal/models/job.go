// -----------------------------------------------------------------------
// Job models - listing rows, detail rows, and match rows as persisted
// -----------------------------------------------------------------------

package models

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Application status values for Job.ApplicationStatus.
const (
	StatusPending   = "pending"
	StatusSubmitted = "submitted"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// Job is the identity row for a harvested listing. One row per synthetic
// job_id; the fingerprint enforces listing-level deduplication across runs.
type Job struct {
	JobID             string     `json:"job_id"`
	Title             string     `json:"title"`
	Company           string     `json:"company"`
	URL               string     `json:"url"`               // empty until detail harvest resolves the canonical URL
	Fingerprint       string     `json:"job_fingerprint"`   // 12 hex chars, unique when present
	ApplicationStatus string     `json:"application_status"`
	MatchScore        *float64   `json:"match_score,omitempty"`
	Website           string     `json:"website"`
	CreatedAt         time.Time  `json:"created_at"`
	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`
	IsDeleted         bool       `json:"is_deleted"`
	RAGProcessed      bool       `json:"rag_processed"`
}

// NewJob creates a listing row with a synthesized job_id. The detail URL is
// preferred as identity material; title+company+url hashing covers rows whose
// URL is not known until click-through.
func NewJob(title, company, url, website string) *Job {
	return &Job{
		JobID:             SynthesizeJobID(title, company, url),
		Title:             title,
		Company:           company,
		URL:               url,
		ApplicationStatus: StatusPending,
		Website:           website,
		CreatedAt:         time.Now(),
	}
}

// SynthesizeJobID derives a stable job_id. A non-empty URL wins; otherwise
// the id is hashed from title+company+url so list-only rows stay addressable.
func SynthesizeJobID(title, company, url string) string {
	if u := strings.TrimSpace(url); u != "" {
		sum := md5.Sum([]byte(u))
		return "job_" + hex.EncodeToString(sum[:])[:16]
	}
	sum := md5.Sum([]byte(title + "|" + company + "|" + url))
	return "job_" + hex.EncodeToString(sum[:])[:16]
}

// JobDetail holds the extended attributes harvested from a detail page.
// At most one row per job_id; re-harvest updates in place.
type JobDetail struct {
	JobID        string    `json:"job_id"`
	Salary       string    `json:"salary"`
	Location     string    `json:"location"`
	Experience   string    `json:"experience"`
	Education    string    `json:"education"`
	Description  string    `json:"description"`
	Requirements string    `json:"requirements"`
	Benefits     string    `json:"benefits"`
	PublishTime  string    `json:"publish_time"`
	CompanyScale string    `json:"company_scale"`
	Industry     string    `json:"industry"`
	Keyword      string    `json:"keyword"` // search term this row was found under
	ExtractedAt  time.Time `json:"extracted_at"`
}

// JobListing is the transient list-page row produced by the parser before it
// is split into Job + JobDetail for persistence.
type JobListing struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Salary      string `json:"salary"`
	Location    string `json:"location"`
	Experience  string `json:"experience"`
	Education   string `json:"education"`
	PublishTime string `json:"publish_time"`
	DetailURL   string `json:"detail_url"` // filled during click-through
	Fingerprint string `json:"fingerprint"`
	DOMIndex    int    `json:"dom_index"` // position under SearchPage.RowSelector, survives dropped rows
}

// ResumeMatch is a persisted scorer result, upserted by (job_id, resume_profile_id).
type ResumeMatch struct {
	JobID           string    `json:"job_id"`
	ResumeProfileID string    `json:"resume_profile_id"`
	MatchScore      float64   `json:"match_score"`
	SemanticScore   float64   `json:"semantic_score"`
	SkillsScore     float64   `json:"skills_score"`
	ExperienceScore float64   `json:"experience_score"`
	IndustryScore   float64   `json:"industry_score"`
	SalaryScore     float64   `json:"salary_score"`
	PriorityLevel   string    `json:"priority_level"`
	MatchDetails    string    `json:"match_details"` // JSON blob of the full MatchResult
	MatchReasons    string    `json:"match_reasons"`
	CreatedAt       time.Time `json:"created_at"`
	Processed       bool      `json:"processed"`
}

// DedupStats summarizes fingerprint coverage across the jobs table.
type DedupStats struct {
	TotalJobs          int     `json:"total_jobs"`
	UniqueFingerprints int     `json:"unique_fingerprints"`
	DuplicateCount     int     `json:"duplicate_count"`
	DuplicateRate      float64 `json:"duplicate_rate"`
}

func (s DedupStats) String() string {
	return fmt.Sprintf("jobs=%d fingerprints=%d duplicates=%d rate=%.2f%%",
		s.TotalJobs, s.UniqueFingerprints, s.DuplicateCount, s.DuplicateRate*100)
}

// JobQuery narrows QueryJobs. Zero values mean "no filter".
type JobQuery struct {
	Website        string
	Company        string
	Keyword        string
	Status         string
	RAGProcessed   *bool
	IncludeDeleted bool
	Limit          int
}

// JobWithDetail joins a job with its detail row; Detail is nil when only the
// listing has been captured.
type JobWithDetail struct {
	Job    *Job       `json:"job"`
	Detail *JobDetail `json:"detail,omitempty"`
}

// ExtractionStats summarizes one extraction run.
type ExtractionStats struct {
	Keyword        string        `json:"keyword"`
	PagesVisited   int           `json:"pages_visited"`
	ListingsFound  int           `json:"listings_found"`
	NewJobs        int           `json:"new_jobs"`
	Duplicates     int           `json:"duplicates"`
	DetailsFetched int           `json:"details_fetched"`
	DetailFailures int           `json:"detail_failures"`
	Aborted        bool          `json:"aborted"`
	AbortReason    string        `json:"abort_reason,omitempty"`
	Elapsed        time.Duration `json:"elapsed"`
	StartedAt      time.Time     `json:"started_at"`
}

// SearchPage is one parsed results page. RowSelector matches the live DOM
// items 1:1 with Listings by index, so the pipeline can click the element
// behind row i even after the HTML snapshot went stale.
type SearchPage struct {
	Listings    []*JobListing `json:"listings"`
	RowSelector string        `json:"row_selector"`
}

// PageInfo locates the pipeline inside a paginated search.
type PageInfo struct {
	CurrentPage int    `json:"current_page"`
	HasNext     bool   `json:"has_next"`
	URL         string `json:"url"`
	Title       string `json:"title"`
}

// PageState classifies a fetched page before parsing.
type PageState string

const (
	PageStateNormal  PageState = "normal"
	PageStateCaptcha PageState = "captcha"
	PageStateBlocked PageState = "blocked"
	PageStateError   PageState = "error"
	PageStateEmpty   PageState = "empty"
)
