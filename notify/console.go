// Package notify provides Notifier implementations. The engine treats
// delivery as an external collaborator; these cover development (console)
// and tests (memory). Real SMS/email/call gateways plug in behind the same
// interface.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/campusops/records-engine/records"
)

// Console logs every dispatch and reports it as sent. Development use.
type Console struct {
	Log *zap.Logger
}

func NewConsole(log *zap.Logger) *Console {
	return &Console{Log: log}
}

func (c *Console) Dispatch(_ context.Context, ch records.Channel, recipient, message string) (records.Delivery, error) {
	now := time.Now()
	c.Log.Info("dispatch",
		zap.String("channel", string(ch)),
		zap.String("recipient", recipient),
		zap.String("message", message))
	return records.Delivery{Outcome: records.OutcomeSent, At: now}, nil
}
