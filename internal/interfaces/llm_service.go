package interfaces

import "context"

// ChatMessage is one turn of a chat exchange.
type ChatMessage struct {
	Role    string `json:"role"` // user or assistant
	Content string `json:"content"`
}

// LLMService - interface for completion-model access
type LLMService interface {
	// Complete sends a single-shot prompt and returns the text response.
	Complete(ctx context.Context, system string, prompt string) (string, error)

	// Chat sends a multi-turn conversation.
	Chat(ctx context.Context, system string, messages []ChatMessage) (string, error)

	ModelName() string
	IsAvailable(ctx context.Context) bool
}
