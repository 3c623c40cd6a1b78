package interfaces

import "context"

// ChatService - interface for the job-search assistant
type ChatService interface {
	// Ask answers one user message with job-store context retrieved for it.
	Ask(ctx context.Context, message string, history []ChatMessage) (string, error)
}
