// -----------------------------------------------------------------------
// Claude client - completions for resume ingestion and chat
// -----------------------------------------------------------------------

package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
)

const defaultModel = "claude-sonnet-4-5"

// Completer is the narrow seam resume ingestion depends on, so tests can
// substitute a canned model.
type Completer interface {
	Complete(ctx context.Context, system string, prompt string) (string, error)
}

// Client wraps the Anthropic API for the places the system consults a model:
// structuring raw resume text and answering corpus questions.
type Client struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	logger    arbor.ILogger
}

// NewClient builds the client. A missing API key is a hard error here so
// commands that never touch the model can skip construction entirely.
func NewClient(cfg *common.LLMConfig, logger arbor.ILogger) (*Client, error) {
	if cfg.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required (set ANTHROPIC_API_KEY or llm.anthropic_api_key)")
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Client{
		client:    anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey)),
		model:     model,
		maxTokens: maxTokens,
		logger:    logger,
	}, nil
}

var (
	_ Completer             = (*Client)(nil)
	_ interfaces.LLMService = (*Client)(nil)
)

// Complete sends one single-shot prompt.
func (c *Client) Complete(ctx context.Context, system string, prompt string) (string, error) {
	return c.Chat(ctx, system, []interfaces.ChatMessage{{Role: "user", Content: prompt}})
}

// Chat sends a conversation and returns the concatenated text blocks of the
// reply.
func (c *Client) Chat(ctx context.Context, system string, messages []interfaces.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("messages cannot be empty")
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages:  toMessageParams(messages),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude request failed: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("claude returned no text content")
	}

	c.logger.Debug().
		Str("model", c.model).
		Int("messages", len(messages)).
		Int("response_length", out.Len()).
		Msg("Completion finished")
	return out.String(), nil
}

// ModelName returns the configured model identifier.
func (c *Client) ModelName() string { return c.model }

// IsAvailable reports whether the client can take requests. Construction
// already guarantees a key, so this only guards a nil receiver.
func (c *Client) IsAvailable(ctx context.Context) bool { return c != nil }

func toMessageParams(messages []interfaces.ChatMessage) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == "assistant" {
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
			continue
		}
		out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
	}
	return out
}
