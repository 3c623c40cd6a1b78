// -----------------------------------------------------------------------
// Chat - retrieval-augmented Q&A over the stored job corpus
// -----------------------------------------------------------------------

package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

const (
	// contextK is how many documents back each answer.
	contextK = 8
	// contextRunes caps one document's contribution to the prompt.
	contextRunes = 600
)

const systemPrompt = `你是一个求职助手，基于抓取到的职位资料回答用户的问题。
规则:
- 优先引用提供的职位资料，提到具体职位时给出职位名和公司名。
- 资料不足以回答时直接说明，不要编造职位信息。
- 用中文回答，保持简洁。`

// Service answers questions with corpus context retrieved per message. The
// retriever may be nil (no vector store configured); answers then rely on
// the model alone with an explicit empty-context note.
type Service struct {
	llm       interfaces.LLMService
	retriever interfaces.RetrieverService
	logger    arbor.ILogger
}

func NewService(llm interfaces.LLMService, retriever interfaces.RetrieverService, logger arbor.ILogger) *Service {
	return &Service{
		llm:       llm,
		retriever: retriever,
		logger:    logger,
	}
}

var _ interfaces.ChatService = (*Service)(nil)

// Ask answers one message. Retrieval failures degrade to a context-free
// answer rather than failing the turn.
func (s *Service) Ask(ctx context.Context, message string, history []interfaces.ChatMessage) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("message is empty")
	}
	if s.llm == nil {
		return "", fmt.Errorf("chat requires an LLM client (configure llm.anthropic_api_key)")
	}

	docs := s.retrieve(ctx, message)
	system := systemPrompt + "\n\n" + contextBlock(docs)

	messages := append(append([]interfaces.ChatMessage{}, history...),
		interfaces.ChatMessage{Role: "user", Content: message})

	reply, err := s.llm.Chat(ctx, system, messages)
	if err != nil {
		return "", fmt.Errorf("chat turn failed: %w", err)
	}

	s.logger.Debug().
		Int("context_docs", len(docs)).
		Int("history", len(history)).
		Msg("Chat turn answered")
	return reply, nil
}

func (s *Service) retrieve(ctx context.Context, message string) []models.ScoredDocument {
	if s.retriever == nil {
		return nil
	}
	docs, err := s.retriever.Search(ctx, message, contextK, nil, "")
	if err != nil {
		s.logger.Warn().Err(err).Msg("Context retrieval failed, answering without corpus")
		return nil
	}
	return docs
}

// contextBlock formats retrieved documents as a numbered reference list.
func contextBlock(docs []models.ScoredDocument) string {
	if len(docs) == 0 {
		return "当前没有检索到相关职位资料。"
	}

	var b strings.Builder
	b.WriteString("以下是检索到的职位资料:\n")
	for i, doc := range docs {
		content := strings.TrimSpace(doc.Document.PageContent)
		if runes := []rune(content); len(runes) > contextRunes {
			content = string(runes[:contextRunes]) + "…"
		}
		b.WriteString(fmt.Sprintf("\n【资料%d】", i+1))
		if jobID := doc.Document.JobID(); jobID != "" {
			b.WriteString(fmt.Sprintf("(职位 %s)", jobID))
		}
		b.WriteString("\n")
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String()
}
