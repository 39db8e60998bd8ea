/*
notify.go - Notification collaborator contract and delivery ledger

PURPOSE:
  The engine never talks to an SMS gateway or mail server; it depends on
  the Notifier contract and records every attempt in the record's
  append-only notification history.

FIRE-AND-FORGET:
  Dispatch outcome does not gate the status transition that triggered it.
  An absence moves to "contacted" optimistically; if the collaborator
  later reports a failure, a failed entry is appended to the history but
  the status is not reversed.
*/
package records

import (
	"context"
	"time"
)

// Delivery is the collaborator's report for one dispatch.
type Delivery struct {
	Outcome Outcome
	At      time.Time
}

// Notifier dispatches a message over a channel. Implementations live in
// the notify package (console, memory).
type Notifier interface {
	Dispatch(ctx context.Context, ch Channel, recipient, message string) (Delivery, error)
}

// RecordDispatch dispatches through n and appends the attempt to the
// record's notification ledger. A transport error is recorded as a failed
// attempt, not returned: delivery is fire-and-forget from the engine's
// perspective.
func RecordDispatch(ctx context.Context, n Notifier, rec Record, ch Channel, recipient, message string) Record {
	d, err := n.Dispatch(ctx, ch, recipient, message)
	if err != nil {
		d = Delivery{Outcome: OutcomeFailed, At: time.Now()}
	}
	if d.At.IsZero() {
		d.At = time.Now()
	}
	return rec.AppendNotification(Notification{
		Channel:   ch,
		At:        d.At,
		Recipient: recipient,
		Message:   message,
		Outcome:   d.Outcome,
	})
}
