/*
Package payment implements the fee obligation lifecycle.

PURPOSE:
  A payment record tracks one financial obligation for one student and the
  ordered settlements applied to it. State machine:

    pending --settle(0 < amount < remaining)--> partial
    pending|partial --settle(amount >= remaining)--> completed
    completed: terminal, further settlements rejected with ErrAlreadySettled

  "Overdue" is not part of the machine: it is derived at read time by
  records.Reconcile / records.EffectiveStatus from the due date, so it can
  never go stale in storage.

SEE ALSO:
  - factory.go: Validated construction
  - reminder.go: Unpaid-fee reminders through the notification ledger
*/
package payment

import (
	"github.com/campusops/records-engine/records"
)

// =============================================================================
// ACTIONS
// =============================================================================

// RecordSettlement applies one partial or full payment.
type RecordSettlement struct {
	Amount    int64 // minor units, > 0
	Date      records.Date
	Method    string
	Reference string
	Actor     string
}

func (RecordSettlement) ActionName() string { return "record_settlement" }

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct{}

func (Engine) Kind() records.Kind { return records.KindPayment }

// Apply runs the payment state machine. Rejections leave the record
// untouched; the returned record on success carries the appended settlement
// and the re-derived status.
func (e Engine) Apply(rec records.Record, act records.Action, asOf records.Date) (records.Record, error) {
	s, ok := act.(RecordSettlement)
	if !ok {
		return records.Record{}, &records.TransitionError{Kind: records.KindPayment, From: rec.Status, Action: act.ActionName()}
	}
	return applySettlement(rec, s, asOf)
}

func applySettlement(rec records.Record, s RecordSettlement, asOf records.Date) (records.Record, error) {
	switch rec.Status {
	case records.PaymentPending, records.PaymentPartial:
		// legal source states
	case records.PaymentCompleted:
		return records.Record{}, records.ErrAlreadySettled
	default:
		return records.Record{}, &records.TransitionError{Kind: records.KindPayment, From: rec.Status, Action: s.ActionName()}
	}

	if s.Amount <= 0 {
		return records.Record{}, &records.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if s.Date.IsZero() {
		s.Date = asOf
	}

	// Paid may never exceed Total once the record leaves pending, and Paid
	// must stay equal to the settlement sum, so an overpayment is recorded
	// at the remaining balance. On a zero-total obligation the clamped
	// zero-amount event is the completing settlement.
	if rem := rec.Remaining(); s.Amount > rem {
		s.Amount = rem
	}

	next := rec.AppendSettlement(records.Settlement{
		Date:      s.Date,
		Amount:    s.Amount,
		Method:    s.Method,
		Reference: s.Reference,
		Actor:     s.Actor,
	})
	next.Status = records.DeriveStatus(next)
	next.UpdatedAt = s.Date.Time()
	return next, nil
}
