package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

type fakeLLM struct {
	reply       string
	err         error
	gotSystem   string
	gotMessages []interfaces.ChatMessage
	calls       int
}

func (f *fakeLLM) Complete(ctx context.Context, system string, prompt string) (string, error) {
	return f.Chat(ctx, system, []interfaces.ChatMessage{{Role: "user", Content: prompt}})
}

func (f *fakeLLM) Chat(ctx context.Context, system string, messages []interfaces.ChatMessage) (string, error) {
	f.calls++
	f.gotSystem = system
	f.gotMessages = messages
	if f.reply == "" && f.err == nil {
		return fmt.Sprintf("回复%d", f.calls), nil
	}
	return f.reply, f.err
}

func (f *fakeLLM) ModelName() string                    { return "fake" }
func (f *fakeLLM) IsAvailable(ctx context.Context) bool { return true }

var _ interfaces.LLMService = (*fakeLLM)(nil)

type fakeRetriever struct {
	docs []models.ScoredDocument
	err  error
}

func (f *fakeRetriever) Search(ctx context.Context, query string, k int, filters map[string]string, strategy string) ([]models.ScoredDocument, error) {
	return f.docs, f.err
}

func doc(jobID, content string) models.ScoredDocument {
	return models.ScoredDocument{
		Document: models.VectorDocument{
			ID:          jobID + "_overview",
			PageContent: content,
			Metadata:    map[string]string{models.MetaJobID: jobID},
		},
		Score: 0.8,
	}
}

func TestAskInjectsRetrievedContext(t *testing.T) {
	llm := &fakeLLM{reply: "这是回答"}
	retriever := &fakeRetriever{docs: []models.ScoredDocument{
		doc("job_1", "后端工程师 深圳科技 负责高并发服务开发"),
		doc("job_2", "数据工程师 广州云服务 负责数据平台建设"),
	}}
	svc := NewService(llm, retriever, arbor.NewLogger())

	reply, err := svc.Ask(context.Background(), "有哪些后端职位？", nil)
	require.NoError(t, err)
	assert.Equal(t, "这是回答", reply)

	assert.Contains(t, llm.gotSystem, "【资料1】(职位 job_1)")
	assert.Contains(t, llm.gotSystem, "高并发服务开发")
	assert.Contains(t, llm.gotSystem, "【资料2】")
	require.Len(t, llm.gotMessages, 1)
	assert.Equal(t, "有哪些后端职位？", llm.gotMessages[0].Content)
}

func TestAskCarriesHistory(t *testing.T) {
	llm := &fakeLLM{reply: "ok"}
	svc := NewService(llm, &fakeRetriever{}, arbor.NewLogger())

	history := []interfaces.ChatMessage{
		{Role: "user", Content: "第一问"},
		{Role: "assistant", Content: "第一答"},
	}
	_, err := svc.Ask(context.Background(), "第二问", history)
	require.NoError(t, err)

	require.Len(t, llm.gotMessages, 3)
	assert.Equal(t, "第一问", llm.gotMessages[0].Content)
	assert.Equal(t, "assistant", llm.gotMessages[1].Role)
	assert.Equal(t, "第二问", llm.gotMessages[2].Content)
}

func TestAskSurvivesRetrievalFailure(t *testing.T) {
	llm := &fakeLLM{reply: "仅凭模型知识回答"}
	svc := NewService(llm, &fakeRetriever{err: errors.New("index offline")}, arbor.NewLogger())

	reply, err := svc.Ask(context.Background(), "问题", nil)
	require.NoError(t, err)
	assert.Equal(t, "仅凭模型知识回答", reply)
	assert.Contains(t, llm.gotSystem, "没有检索到相关职位资料")
}

func TestAskTruncatesLongDocuments(t *testing.T) {
	llm := &fakeLLM{reply: "ok"}
	long := strings.Repeat("长", 2000)
	svc := NewService(llm, &fakeRetriever{docs: []models.ScoredDocument{doc("job_1", long)}}, arbor.NewLogger())

	_, err := svc.Ask(context.Background(), "问题", nil)
	require.NoError(t, err)
	assert.Contains(t, llm.gotSystem, "…")
	assert.Less(t, len(llm.gotSystem), len(long))
}

func TestAskRejectsEmptyMessage(t *testing.T) {
	svc := NewService(&fakeLLM{}, &fakeRetriever{}, arbor.NewLogger())
	_, err := svc.Ask(context.Background(), "   ", nil)
	assert.Error(t, err)
}

func TestSessionAccumulatesAndBoundsHistory(t *testing.T) {
	llm := &fakeLLM{}
	session := NewSession(NewService(llm, &fakeRetriever{}, arbor.NewLogger()))
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		_, err := session.Send(ctx, fmt.Sprintf("问题%d", i))
		require.NoError(t, err)
	}

	history := session.History()
	assert.Len(t, history, maxHistoryMessages)
	// the oldest exchanges fell off; the newest survived
	assert.Equal(t, "问题29", history[len(history)-2].Content)
	assert.NotEqual(t, "问题0", history[0].Content)

	// the model saw the prior transcript on the last turn
	assert.GreaterOrEqual(t, len(llm.gotMessages), maxHistoryMessages-1)

	session.Reset()
	assert.Empty(t, session.History())
}

func TestSessionFailedTurnLeavesHistory(t *testing.T) {
	llm := &fakeLLM{err: errors.New("model down")}
	session := NewSession(NewService(llm, &fakeRetriever{}, arbor.NewLogger()))

	_, err := session.Send(context.Background(), "问题")
	require.Error(t, err)
	assert.Empty(t, session.History())
}
