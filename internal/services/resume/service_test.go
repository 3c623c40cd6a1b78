package resume

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/models"
	"github.com/ternarybob/venari/internal/services/llm"
)

type cannedCompleter struct {
	reply     string
	err       error
	gotSystem string
	gotUser   string
}

func (c *cannedCompleter) Complete(ctx context.Context, system string, prompt string) (string, error) {
	c.gotSystem = system
	c.gotUser = prompt
	return c.reply, c.err
}

func newService(t *testing.T, completer llm.Completer) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	svc := NewService(common.ResumeConfig{ProfileDir: dir, DefaultProfile: "default"}, completer, arbor.NewLogger())
	return svc, dir
}

func writeProfile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const yamlProfile = `
profile_id: zhang_wei
name: 张伟
total_experience_years: 6
current_position: 数据工程师
skill_categories:
  - name: 核心技能
    skills: [Python, 机器学习, SQL]
    proficiency_level: advanced
industry_experience:
  互联网: 0.9
expected_salary_range:
  min: 360000
  max: 480000
`

func TestLoadProfileYAMLByName(t *testing.T) {
	svc, dir := newService(t, nil)
	writeProfile(t, dir, "zhang_wei.yaml", yamlProfile)

	profile, err := svc.LoadProfile(context.Background(), "zhang_wei")
	require.NoError(t, err)
	assert.Equal(t, "zhang_wei", profile.ProfileID)
	assert.Equal(t, "张伟", profile.Name)
	assert.InDelta(t, 6.0, profile.TotalExperienceYears, 1e-9)
	assert.Equal(t, []string{"Python", "机器学习", "SQL"}, profile.GetAllSkills())
	require.NotNil(t, profile.ExpectedSalaryRange)
	assert.InDelta(t, 360000, profile.ExpectedSalaryRange.Min, 1e-6)
}

func TestLoadProfileExplicitPath(t *testing.T) {
	svc, _ := newService(t, nil)
	outside := t.TempDir()
	path := writeProfile(t, outside, "candidate.json",
		`{"name": "李娜", "skill_categories": [{"name": "技能", "skills": ["Go"]}]}`)

	profile, err := svc.LoadProfile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "李娜", profile.Name)
	assert.Equal(t, "candidate", profile.ProfileID, "missing id falls back to the file base")
}

func TestLoadProfileTOML(t *testing.T) {
	svc, dir := newService(t, nil)
	writeProfile(t, dir, "wang.toml", `
name = "王强"

[[skill_categories]]
name = "技能"
skills = ["Java", "Spring"]
`)

	profile, err := svc.LoadProfile(context.Background(), "wang")
	require.NoError(t, err)
	assert.Equal(t, []string{"Java", "Spring"}, profile.GetAllSkills())
}

func TestLoadProfileLegacyLayout(t *testing.T) {
	svc, dir := newService(t, nil)
	writeProfile(t, dir, "legacy.yaml", `
name: 老格式
position: 后端工程师
experience_years: 8
skills: [Python, Redis]
industries: [金融]
`)

	profile, err := svc.LoadProfile(context.Background(), "legacy")
	require.NoError(t, err)
	assert.Equal(t, "后端工程师", profile.CurrentPosition)
	assert.InDelta(t, 8.0, profile.TotalExperienceYears, 1e-9)
	assert.Equal(t, []string{"Python", "Redis"}, profile.GetAllSkills())
	assert.InDelta(t, 0.8, profile.IndustryExperience["金融"], 1e-9)
}

func TestLoadProfileDefaultAndMissing(t *testing.T) {
	svc, dir := newService(t, nil)
	writeProfile(t, dir, "default.yaml", yamlProfile)

	profile, err := svc.LoadProfile(context.Background(), "")
	require.NoError(t, err, "empty name resolves the configured default")
	assert.Equal(t, "zhang_wei", profile.ProfileID)

	_, err = svc.LoadProfile(context.Background(), "no_such_profile")
	assert.Error(t, err)
}

func TestSaveProfileRoundTrip(t *testing.T) {
	svc, _ := newService(t, nil)
	profile := &models.ResumeProfile{
		ProfileID: "saved_profile",
		Name:      "测试",
		SkillCategories: []models.SkillCategory{
			{Name: "技能", Skills: []string{"Go", "Kubernetes"}},
		},
	}

	path, err := svc.SaveProfile(context.Background(), profile)
	require.NoError(t, err)
	assert.FileExists(t, path)

	loaded, err := svc.LoadProfile(context.Background(), "saved_profile")
	require.NoError(t, err)
	assert.Equal(t, profile.GetAllSkills(), loaded.GetAllSkills())
}

func TestListProfiles(t *testing.T) {
	svc, dir := newService(t, nil)
	writeProfile(t, dir, "a.yaml", yamlProfile)
	writeProfile(t, dir, "b.json", `{"name": "b"}`)
	writeProfile(t, dir, "notes.txt", "ignored")

	names, err := svc.ListProfiles(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, names)

	empty := NewService(common.ResumeConfig{ProfileDir: t.TempDir() + "/missing"}, nil, arbor.NewLogger())
	names, err = empty.ListProfiles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestIngestTextStructuresViaModel(t *testing.T) {
	completer := &cannedCompleter{reply: "```json\n" + `{
		"name": "陈晨",
		"total_experience_years": 5,
		"current_position": "算法工程师",
		"skill_categories": [{"name": "AI", "skills": ["Python", "深度学习"]}]
	}` + "\n```"}
	svc, _ := newService(t, completer)

	profile, err := svc.IngestText(context.Background(), "简历原文……")
	require.NoError(t, err)
	assert.Equal(t, "陈晨", profile.Name)
	assert.NotEmpty(t, profile.ProfileID)
	assert.Contains(t, profile.GetAllSkills(), "深度学习")
	assert.Contains(t, completer.gotSystem, "JSON")
	assert.Equal(t, "简历原文……", completer.gotUser)
}

func TestIngestTextRejectsProseReply(t *testing.T) {
	completer := &cannedCompleter{reply: "好的，以下是解析结果，但我想先说明几点……"}
	svc, _ := newService(t, completer)

	_, err := svc.IngestText(context.Background(), "简历原文")
	assert.Error(t, err)
}

func TestIngestTextWithoutClient(t *testing.T) {
	svc, _ := newService(t, nil)
	_, err := svc.IngestText(context.Background(), "text")
	assert.Error(t, err)
}
