package notify

import (
	"context"
	"sync"
	"time"

	"github.com/campusops/records-engine/records"
)

// Sent captures one dispatch for assertions.
type Sent struct {
	Channel   records.Channel
	Recipient string
	Message   string
}

// Memory records dispatches in memory. Tests can script failures per
// recipient to exercise the fire-and-forget path.
type Memory struct {
	mu      sync.Mutex
	sent    []Sent
	failFor map[string]bool
}

func NewMemory() *Memory {
	return &Memory{failFor: make(map[string]bool)}
}

// FailFor makes future dispatches to recipient report a failed outcome.
func (m *Memory) FailFor(recipient string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failFor[recipient] = true
}

func (m *Memory) Dispatch(_ context.Context, ch records.Channel, recipient, message string) (records.Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, Sent{Channel: ch, Recipient: recipient, Message: message})
	outcome := records.OutcomeSent
	if m.failFor[recipient] {
		outcome = records.OutcomeFailed
	}
	return records.Delivery{Outcome: outcome, At: time.Now()}, nil
}

// Dispatched returns a copy of everything sent so far.
func (m *Memory) Dispatched() []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Sent, len(m.sent))
	copy(out, m.sent)
	return out
}
