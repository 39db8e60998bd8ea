/*
record.go - The shared record shape and its append-only histories

PURPOSE:
  Record is the one shape shared by fee obligations (payment), attendance
  incidents (absence, late) and identity cards. Kind-specific fields are
  only meaningful for their kind; the factories in the domain packages
  guarantee they are populated.

CRITICAL INVARIANTS:
  1. Settlements, Justifications and Notifications are APPEND-ONLY.
     A correction is a new event, never an edit or a delete.
  2. For payments, Paid always equals the sum of settlement amounts.
  3. Status is a cache: DeriveStatus recomputes it from the record's
     fields and events, and the two must always agree.
  4. Records are never hard-deleted; terminal states are retained for
     history and reporting.

WHY APPEND-ONLY?
  - Audit trail: every balance and status change stays explainable
  - Debugging: "why is this completed?" is answered by the events
  - Reconciliation: derived fields are recomputed, never trusted stored

SEE ALSO:
  - reconcile.go: Derived balance/overdue/punctuality
  - transition.go: The only sanctioned way to mutate a record
*/
package records

import "time"

// =============================================================================
// EVENTS - Append-only history entries
// =============================================================================

// Settlement is one partial or full payment applied to a payment record.
type Settlement struct {
	Date      Date
	Amount    int64 // minor currency units, >= 0; zero only when completing a zero-total obligation
	Method    string
	Reference string
	Actor     string
}

// Justification resolves an absence or late as excused.
type Justification struct {
	Date      Date
	Reason    string
	Documents []string
}

// Notification is one delivery attempt recorded against a record.
// Entries are immutable once appended.
type Notification struct {
	Channel   Channel
	At        time.Time
	Recipient string
	Message   string
	Outcome   Outcome
}

// =============================================================================
// RECORD
// =============================================================================

type Record struct {
	ID        RecordID
	SubjectID SubjectID
	Kind      Kind
	Status    Status

	// Category is the fee type for payments, the course for attendance
	// incidents; Group is the class, used for per-class breakdowns.
	Category string
	Group    string

	// Payment fields (minor currency units).
	Total   int64
	Paid    int64
	DueDate Date

	// Attendance fields.
	OccurredOn Date
	// Unjustified marks an explicit administrative override. Kept as a
	// field so status stays derivable from the record alone.
	Unjustified bool

	// Card fields.
	IssuedOn    Date
	ExpiresOn   Date
	SubmittedAt *time.Time
	ValidatedAt *time.Time
	PrintedAt   *time.Time
	ExpiredAt   *time.Time

	Settlements    []Settlement
	Justifications []Justification
	Notifications  []Notification

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Remaining is the outstanding balance, recomputed from its two inputs and
// never stored independently of them.
func (r Record) Remaining() int64 {
	if rem := r.Total - r.Paid; rem > 0 {
		return rem
	}
	return 0
}

// SettledTotal sums the settlement events. Must equal Paid at all times.
func (r Record) SettledTotal() int64 {
	var sum int64
	for _, s := range r.Settlements {
		sum += s.Amount
	}
	return sum
}

// EventDate is the date that places the record in an analytics window:
// due date for payments, incident date for attendance, issuance for cards.
func (r Record) EventDate() Date {
	switch r.Kind {
	case KindPayment:
		return r.DueDate
	case KindAbsence, KindLate:
		return r.OccurredOn
	case KindCard:
		return r.IssuedOn
	}
	return Date{}
}

// WellFormed reports whether the record's amounts are usable in sums.
// Aggregation excludes malformed records instead of failing the report.
func (r Record) WellFormed() bool {
	if !r.Kind.Valid() {
		return false
	}
	if r.Kind == KindPayment {
		if r.Total < 0 || r.Paid < 0 {
			return false
		}
		if r.Status != PaymentPending && r.Paid > r.Total {
			return false
		}
		if r.SettledTotal() != r.Paid {
			return false
		}
	}
	return true
}

// =============================================================================
// APPEND-ONLY MUTATORS
// =============================================================================
// These return a copy with the event appended. The source slices are cloned
// so a retained old value never observes the new event.

func (r Record) AppendSettlement(s Settlement) Record {
	out := r
	out.Settlements = append(cloneSlice(r.Settlements), s)
	out.Paid += s.Amount
	return out
}

func (r Record) AppendJustification(j Justification) Record {
	out := r
	out.Justifications = append(cloneSlice(r.Justifications), j)
	return out
}

func (r Record) AppendNotification(n Notification) Record {
	out := r
	out.Notifications = append(cloneSlice(r.Notifications), n)
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// =============================================================================
// STATUS DERIVATION
// =============================================================================

// DeriveStatus recomputes the stored status from the record's fields and
// event histories. Stored status must always equal this derivation; it
// exists only so queries need not replay events.
//
// Overdue is intentionally absent here: it is a read-time view, produced by
// EffectiveStatus and Reconcile, never a stored state.
func DeriveStatus(r Record) Status {
	switch r.Kind {
	case KindPayment:
		switch {
		// A zero-total obligation (waived fee) completes on its first
		// settlement event; there is no money to collect.
		case r.Total == 0 && len(r.Settlements) > 0:
			return PaymentCompleted
		case r.Total > 0 && r.Paid >= r.Total:
			return PaymentCompleted
		case r.Paid > 0:
			return PaymentPartial
		default:
			return PaymentPending
		}
	case KindAbsence:
		switch {
		case len(r.Justifications) > 0:
			return AbsenceJustified
		case r.Unjustified:
			return AbsenceUnjustified
		case r.hasSuccessfulNotification():
			return AbsenceContacted
		default:
			return AbsenceReported
		}
	case KindLate:
		switch {
		case len(r.Justifications) > 0:
			return LateJustified
		case r.Unjustified:
			return LateUnjustified
		default:
			return LatePending
		}
	case KindCard:
		switch {
		case r.ExpiredAt != nil:
			return CardExpired
		case r.PrintedAt != nil:
			return CardPrinted
		case r.ValidatedAt != nil:
			return CardIssued
		case r.SubmittedAt != nil:
			return CardPendingValidation
		default:
			return CardDraft
		}
	}
	return r.Status
}

func (r Record) hasSuccessfulNotification() bool {
	for _, n := range r.Notifications {
		if n.Outcome == OutcomeSent {
			return true
		}
	}
	return false
}

// EffectiveStatus is the status as displayed or aggregated at asOf: a
// payment that is not completed and past due reads as overdue. The stored
// status is left untouched.
func EffectiveStatus(r Record, asOf Date) Status {
	if r.Kind == KindPayment && r.Status != PaymentCompleted && !r.DueDate.IsZero() && r.DueDate.Before(asOf) {
		return PaymentOverdue
	}
	return r.Status
}
