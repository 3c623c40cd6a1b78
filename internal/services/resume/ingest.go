// -----------------------------------------------------------------------
// Resume ingestion - PDF text extraction and LLM structuring
// -----------------------------------------------------------------------

package resume

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/ternarybob/venari/internal/models"
)

// structuringPrompt instructs the model to emit the canonical profile
// mapping and nothing else. Parsing is strict; prose around the JSON is a
// failed ingestion.
const structuringPrompt = `你是一个简历解析器。把用户提供的简历文本转换为一个 JSON 对象，只输出 JSON，不要任何解释或代码块标记。
字段(缺失的信息直接省略该字段，不要编造):
  name, contact, total_experience_years (数字), current_position, current_company,
  skill_categories: [{name, skills: [..], proficiency_level (expert/advanced/intermediate/beginner)}],
  work_experiences: [{company, position, start_date, end_date, duration_years (数字), responsibilities: [..], achievements: [..], technologies: [..], industry}],
  educations: [{school, degree, major, start_date, end_date}],
  projects: [{name, description, role, technologies: [..], highlights: [..]}],
  certifications: [..], languages: [..],
  industry_experience: {行业名: 权重0到1},
  preferred_positions: [..],
  expected_salary_range: {min, max} (年薪数字),
  career_objectives: [..], soft_skills: [..]`

// IngestPDF extracts the resume text from a PDF and structures it into a
// profile.
func (s *Service) IngestPDF(ctx context.Context, path string) (*models.ResumeProfile, error) {
	text, err := extractPDFText(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract PDF text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("PDF %s yielded no extractable text", path)
	}
	return s.IngestText(ctx, text)
}

// IngestText structures free resume text (extracted PDF content or raw
// markdown) into the canonical profile via the model.
func (s *Service) IngestText(ctx context.Context, text string) (*models.ResumeProfile, error) {
	if s.llm == nil {
		return nil, fmt.Errorf("resume ingestion requires an LLM client (configure llm.anthropic_api_key)")
	}

	reply, err := s.llm.Complete(ctx, structuringPrompt, text)
	if err != nil {
		return nil, fmt.Errorf("failed to structure resume: %w", err)
	}

	raw, err := parseStrictJSON(reply)
	if err != nil {
		return nil, fmt.Errorf("model reply is not the expected JSON: %w", err)
	}

	profile, err := profileFromRaw(raw)
	if err != nil {
		return nil, fmt.Errorf("structured resume is invalid: %w", err)
	}
	if profile.Name == "" && len(profile.SkillCategories) == 0 {
		return nil, fmt.Errorf("structured resume carries neither a name nor skills")
	}
	if profile.ProfileID == "" {
		profile.ProfileID = profileIDFor(profile.Name)
	}

	s.logger.Info().
		Str("profile", profile.ProfileID).
		Str("name", profile.Name).
		Int("skills", len(profile.GetAllSkills())).
		Msg("Resume ingested")
	return profile, nil
}

// parseStrictJSON tolerates stray code fences around the object but nothing
// else.
func parseStrictJSON(reply string) (map[string]interface{}, error) {
	trimmed := strings.TrimSpace(reply)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	start := strings.IndexByte(trimmed, '{')
	end := strings.LastIndexByte(trimmed, '}')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object found")
	}

	raw := make(map[string]interface{})
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// extractPDFText pulls page content through pdfcpu's content extraction
// into a temp dir and concatenates the pages in order.
func extractPDFText(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", err
	}

	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	outDir, err := os.MkdirTemp("", "venari_resume_*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(path, outDir, nil, conf); err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	pages := make(map[int]string, pdfCtx.PageCount)
	entries, _ := os.ReadDir(outDir)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var pageNum int
		name := entry.Name()
		if _, err := fmt.Sscanf(name, "page_%d", &pageNum); err != nil {
			if _, err := fmt.Sscanf(name, "Content_page_%d", &pageNum); err != nil {
				continue
			}
		}
		if content, err := os.ReadFile(filepath.Join(outDir, name)); err == nil {
			pages[pageNum] = string(content)
		}
	}

	nums := make([]int, 0, len(pages))
	for n := range pages {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	var b strings.Builder
	for _, n := range nums {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(pages[n])
	}
	return b.String(), nil
}
