package mailer

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// LogMailer writes messages to the logger instead of sending them.
// It is used when no provider key is configured and keeps a copy for inspection.
type LogMailer struct {
	logger *zap.Logger

	mu   sync.Mutex
	sent []Message
}

// NewLogMailer constructs a LogMailer.
func NewLogMailer(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// Send records the message and logs its envelope.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()
	m.logger.Info("email not sent, no provider configured",
		zap.String("to", msg.To.Address),
		zap.String("subject", msg.Subject),
	)
	return nil
}

// Sent returns a snapshot of recorded messages.
func (m *LogMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}
