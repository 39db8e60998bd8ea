/*
reconcile.go - Derived balance, overdue and punctuality

PURPOSE:
  One place computes every derived field. "Overdue" used to be recomputed
  inline wherever a table was rendered; centralizing the derivation here
  means it can never diverge between views.

NUMERIC SEMANTICS:
  Monetary values are non-negative integers in the smallest currency unit.
  Sums are exact integer additions - repeated partial settlements cannot
  drift the way floating point would.
*/
package records

// Reconciliation is the derived view of a record at a point in time.
// None of these fields is ever stored.
type Reconciliation struct {
	// Remaining is max(0, Total - Paid).
	Remaining int64

	// Overdue: not completed and past due as of asOf.
	Overdue bool

	// Completed mirrors the terminal payment state.
	Completed bool

	// Punctual is meaningful only once Completed: the settlement that
	// completed the record landed on or before the due date. Used for the
	// aggregate punctuality rate, never persisted on the record.
	Punctual bool
}

// Reconcile computes the derived fields for a record as of a given day.
func Reconcile(rec Record, asOf Date) Reconciliation {
	out := Reconciliation{Remaining: rec.Remaining()}
	if rec.Kind != KindPayment {
		return out
	}

	out.Completed = rec.Status == PaymentCompleted
	out.Overdue = !out.Completed && !rec.DueDate.IsZero() && rec.DueDate.Before(asOf)

	if out.Completed {
		if done, ok := completingSettlement(rec); ok {
			out.Punctual = done.Date.BeforeOrEqual(rec.DueDate)
		}
	}
	return out
}

// completingSettlement walks the ordered settlement history and returns the
// event whose cumulative amount first reached the total.
func completingSettlement(rec Record) (Settlement, bool) {
	var sum int64
	for _, s := range rec.Settlements {
		sum += s.Amount
		if sum >= rec.Total {
			return s, true
		}
	}
	return Settlement{}, false
}
