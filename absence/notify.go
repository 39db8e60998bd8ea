/*
notify.go - Guardian notification for attendance incidents

PURPOSE:
  Dispatching is always allowed regardless of status; the first successful
  notification advances reported -> contacted. The status is set
  optimistically - it does not wait on the gateway. A failure reported by
  the collaborator is appended to the history as a failed attempt but does
  not reverse the status.
*/
package absence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/campusops/records-engine/records"
)

// Notifier sends guardian notifications and keeps the delivery ledger.
type Notifier struct {
	Dispatcher records.Notifier
	Recipient  func(records.Record) string
	Log        *zap.Logger
}

// NotifyGuardian appends one delivery attempt and advances a reported
// absence to contacted.
func (n *Notifier) NotifyGuardian(ctx context.Context, rec records.Record, ch records.Channel, message string) (records.Record, error) {
	if rec.Kind != records.KindAbsence && rec.Kind != records.KindLate {
		return records.Record{}, &records.TransitionError{Kind: rec.Kind, From: rec.Status, Action: "notify_guardian"}
	}
	if !ch.Valid() {
		return records.Record{}, &records.ValidationError{Field: "channel", Reason: "must be sms, email or call"}
	}
	if message == "" {
		message = fmt.Sprintf("Your child was marked %s on %s", rec.Kind, rec.OccurredOn)
	}

	next := records.RecordDispatch(ctx, n.Dispatcher, rec, ch, n.Recipient(rec), message)
	next.Status = records.DeriveStatus(next)

	if n.Log != nil {
		last := next.Notifications[len(next.Notifications)-1]
		n.Log.Info("guardian notified",
			zap.String("record_id", string(rec.ID)),
			zap.String("channel", string(ch)),
			zap.String("outcome", string(last.Outcome)),
			zap.String("status", string(next.Status)))
	}
	return next, nil
}

// Action adapts NotifyGuardian to the bulk coordinator contract.
func (n *Notifier) Action(ch records.Channel, message string) records.BulkAction {
	return func(ctx context.Context, rec records.Record) (records.Record, error) {
		return n.NotifyGuardian(ctx, rec, ch, message)
	}
}
