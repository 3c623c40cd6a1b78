package mailer

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/services/monitor"
)

var _ monitor.Notifier = (*Service)(nil)

func TestBuildMessageStructure(t *testing.T) {
	msg := string(buildMessage(
		"venari@example.com",
		[]string{"a@example.com", "b@example.com"},
		"每日匹配摘要",
		"# 摘要\n\n今日新增 3 个高分职位。",
		"<h1>摘要</h1><p>今日新增 3 个高分职位。</p>",
		"test_boundary",
	))

	assert.Contains(t, msg, "From: venari@example.com\r\n")
	assert.Contains(t, msg, "To: a@example.com, b@example.com\r\n")
	assert.Contains(t, msg, "Subject: =?UTF-8?", "CJK subject is RFC 2047 encoded")
	assert.Contains(t, msg, `multipart/alternative; boundary="test_boundary"`)
	assert.Contains(t, msg, "Content-Type: text/plain; charset=\"UTF-8\"")
	assert.Contains(t, msg, "Content-Type: text/html; charset=\"UTF-8\"")
	assert.True(t, strings.HasSuffix(msg, "--test_boundary--\r\n"))

	// the text part must decode back to the original markdown
	sections := strings.Split(msg, "--test_boundary\r\n")
	require.Len(t, sections, 3)
	textPart := sections[1]
	payload := textPart[strings.Index(textPart, "\r\n\r\n")+4:]
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(strings.TrimSpace(payload), "\r\n", ""))
	require.NoError(t, err)
	assert.Equal(t, "# 摘要\n\n今日新增 3 个高分职位。", string(decoded))
}

func TestWrapBase64FoldsAt76(t *testing.T) {
	wrapped := wrapBase64(strings.Repeat("数据", 200))
	for _, line := range strings.Split(wrapped, "\r\n") {
		assert.LessOrEqual(t, len(line), 76)
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(wrapped, "\r\n", ""))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("数据", 200), string(decoded))
}

func TestEncodeHeaderPassesASCIIThrough(t *testing.T) {
	assert.Equal(t, "Daily digest", encodeHeader("Daily digest"))
	assert.True(t, strings.HasPrefix(encodeHeader("职位告警"), "=?UTF-8?"))
}

func TestRenderHTMLConvertsMarkdown(t *testing.T) {
	svc := NewService(common.NotifyConfig{}, arbor.NewLogger())
	html, err := svc.renderHTML("# 标题\n\n| A | B |\n| --- | --- |\n| 1 | 2 |\n")
	require.NoError(t, err)
	assert.Contains(t, html, "<h1>标题</h1>")
	assert.Contains(t, html, "<table>")
}

func TestSendDigestDisabledIsNoOp(t *testing.T) {
	svc := NewService(common.NotifyConfig{Enabled: false}, arbor.NewLogger())
	assert.NoError(t, svc.SendDigest(context.Background(), "subject", "body"))
	assert.False(t, svc.Enabled())
}

func TestSendDigestRequiresHostAndRecipients(t *testing.T) {
	svc := NewService(common.NotifyConfig{Enabled: true}, arbor.NewLogger())
	assert.Error(t, svc.SendDigest(context.Background(), "subject", "body"))

	svc = NewService(common.NotifyConfig{Enabled: true, SMTPHost: "smtp.example.com"}, arbor.NewLogger())
	err := svc.SendDigest(context.Background(), "subject", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipients")
}
