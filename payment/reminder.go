/*
reminder.go - Unpaid-fee reminders

PURPOSE:
  Dispatches a reminder for an unpaid or partially paid fee and appends the
  attempt to the record's notification ledger. Completed payments are
  rejected with ErrAlreadySettled so bulk reminder runs skip them.

FIRE-AND-FORGET:
  A transport failure is appended as a failed attempt; it does not fail
  the reminder operation.
*/
package payment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/campusops/records-engine/records"
)

// RecipientFunc resolves the guardian contact for a record. Contact data
// lives outside the engine, so the lookup is injected.
type RecipientFunc func(records.Record) string

// Reminder sends payment reminders through the notification collaborator.
type Reminder struct {
	Notifier  records.Notifier
	Recipient RecipientFunc
	Channel   records.Channel
	Log       *zap.Logger
}

// Remind appends one reminder attempt to the record. Safe to use as a
// records.BulkAction via Action.
func (r *Reminder) Remind(ctx context.Context, rec records.Record) (records.Record, error) {
	if rec.Kind != records.KindPayment {
		return records.Record{}, &records.TransitionError{Kind: rec.Kind, From: rec.Status, Action: "remind"}
	}
	if rec.Status == records.PaymentCompleted {
		return records.Record{}, records.ErrAlreadySettled
	}

	msg := fmt.Sprintf("Reminder: %s fee due %s, remaining balance %d", rec.Category, rec.DueDate, rec.Remaining())
	next := records.RecordDispatch(ctx, r.Notifier, rec, r.Channel, r.Recipient(rec), msg)

	if r.Log != nil {
		last := next.Notifications[len(next.Notifications)-1]
		r.Log.Info("payment reminder dispatched",
			zap.String("record_id", string(rec.ID)),
			zap.String("channel", string(r.Channel)),
			zap.String("outcome", string(last.Outcome)))
	}
	return next, nil
}

// Action adapts Remind to the bulk coordinator contract.
func (r *Reminder) Action() records.BulkAction {
	return func(ctx context.Context, rec records.Record) (records.Record, error) {
		return r.Remind(ctx, rec)
	}
}
