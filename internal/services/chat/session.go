package chat

import (
	"context"
	"sync"

	"github.com/ternarybob/venari/internal/interfaces"
)

// maxHistoryMessages bounds the in-memory transcript: the oldest exchanges
// fall off once the conversation outgrows it.
const maxHistoryMessages = 40

// Session holds one CLI conversation. History lives in memory only and dies
// with the process.
type Session struct {
	svc     interfaces.ChatService
	mu      sync.Mutex
	history []interfaces.ChatMessage
}

func NewSession(svc interfaces.ChatService) *Session {
	return &Session{svc: svc}
}

// Send asks one question with the accumulated history and records the
// exchange. Failed turns leave the history untouched.
func (s *Session) Send(ctx context.Context, message string) (string, error) {
	s.mu.Lock()
	history := append([]interfaces.ChatMessage{}, s.history...)
	s.mu.Unlock()

	reply, err := s.svc.Ask(ctx, message, history)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.history = append(s.history,
		interfaces.ChatMessage{Role: "user", Content: message},
		interfaces.ChatMessage{Role: "assistant", Content: reply})
	if len(s.history) > maxHistoryMessages {
		s.history = append([]interfaces.ChatMessage{}, s.history[len(s.history)-maxHistoryMessages:]...)
	}
	s.mu.Unlock()
	return reply, nil
}

// History returns a copy of the transcript.
func (s *Session) History() []interfaces.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]interfaces.ChatMessage{}, s.history...)
}

// Reset clears the transcript.
func (s *Session) Reset() {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()
}
