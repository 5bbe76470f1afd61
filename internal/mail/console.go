package mail

import (
	"context"
	"log/slog"
	"sync"
)

// ConsoleService logs outbound mail instead of delivering it. Used in
// development and as the fallback when no SendGrid key is configured.
type ConsoleService struct {
	logger *slog.Logger
}

var _ EmailService = (*ConsoleService)(nil)

// NewConsoleService creates a log-only email service
func NewConsoleService(logger *slog.Logger) *ConsoleService {
	return &ConsoleService{logger: logger}
}

func (svc *ConsoleService) SendMessages(ctx context.Context, messages ...*Message) {
	for _, msg := range messages {
		svc.logger.InfoContext(ctx, "Email (console delivery)",
			"to", msg.To,
			"subject", msg.Subject,
			"body", msg.Body)
	}
}

// MockService records messages for tests, delivering synchronously
type MockService struct {
	mu       sync.Mutex
	messages []*Message
}

var _ EmailService = (*MockService)(nil)

// NewMockService creates a recording email service
func NewMockService() *MockService {
	return &MockService{}
}

func (svc *MockService) SendMessages(ctx context.Context, messages ...*Message) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.messages = append(svc.messages, messages...)
}

// SentMessages returns all recorded messages
func (svc *MockService) SentMessages() []*Message {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	out := make([]*Message, len(svc.messages))
	copy(out, svc.messages)
	return out
}

// Clear drops all recorded messages
func (svc *MockService) Clear() {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.messages = nil
}
