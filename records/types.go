/*
Package records provides the core record lifecycle engine.

PURPOSE:
  This package contains the shared types and algorithms for school operations
  records. Whether the record is a fee obligation, an attendance incident or
  an issued identity card, the same machinery handles lifecycle transitions,
  settlement reconciliation, bulk application and read-side analytics.

KEY CONCEPTS IN THIS FILE (types.go):
  - Kind: Discriminant between payment/absence/late/card records
  - Status: Per-kind lifecycle states (stored states plus derived overdue)
  - Money: Non-negative integer amounts in minor currency units
  - Record/Subject IDs: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Value semantics: every operation receives and returns explicit record
     values; the package holds no mutable module state
  2. Precision: money is exact integer arithmetic, rates use decimal.Decimal
  3. Derivability: stored status is a cache - it can always be recomputed
     from the record's fields and its append-only event histories
  4. Auditability: settlement and notification histories only ever grow

SEE ALSO:
  - record.go: The Record shape and its append-only histories
  - transition.go: Per-kind transition engine contract
  - reconcile.go: Remaining balance / overdue / punctuality derivation
  - aggregate.go: Read-side statistics
*/
package records

// =============================================================================
// IDENTIFIERS
// =============================================================================

type RecordID string

// SubjectID references the owning student. The record does not own the
// subject; it only points at it.
type SubjectID string

// =============================================================================
// KIND - What sort of record this is
// =============================================================================

type Kind string

const (
	KindPayment Kind = "payment"
	KindAbsence Kind = "absence"
	KindLate    Kind = "late"
	KindCard    Kind = "card"
)

func (k Kind) Valid() bool {
	switch k {
	case KindPayment, KindAbsence, KindLate, KindCard:
		return true
	}
	return false
}

// =============================================================================
// STATUS - Lifecycle states, per kind
// =============================================================================

type Status string

// Payment states. PaymentOverdue is derived at read time from the due date
// and is never written to a record.
const (
	PaymentPending   Status = "pending"
	PaymentPartial   Status = "partial"
	PaymentCompleted Status = "completed"
	PaymentOverdue   Status = "overdue"
)

// Absence states.
const (
	AbsenceReported    Status = "reported"
	AbsenceContacted   Status = "contacted"
	AbsenceJustified   Status = "justified"
	AbsenceUnjustified Status = "unjustified"
)

// Late (retard) states. Lates share the justification machinery with
// absences but start in a neutral pending state and are never "contacted".
const (
	LatePending     Status = "late_pending"
	LateJustified   Status = "late_justified"
	LateUnjustified Status = "late_unjustified"
)

// Card states.
const (
	CardDraft             Status = "draft"
	CardPendingValidation Status = "pending_validation"
	CardIssued            Status = "issued"
	CardPrinted           Status = "printed"
	CardExpired           Status = "expired"
)

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	switch s {
	case PaymentCompleted, CardExpired:
		return true
	}
	return false
}

// InitialStatus returns the creation state for a kind.
func InitialStatus(k Kind) Status {
	switch k {
	case KindPayment:
		return PaymentPending
	case KindAbsence:
		return AbsenceReported
	case KindLate:
		return LatePending
	case KindCard:
		return CardDraft
	}
	return ""
}

// ActiveCardStatuses are the card states that count against the
// one-active-card-per-subject invariant.
var ActiveCardStatuses = []Status{CardDraft, CardPendingValidation, CardIssued, CardPrinted}

// =============================================================================
// NOTIFICATION CHANNELS
// =============================================================================

type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
	ChannelCall  Channel = "call"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelSMS, ChannelEmail, ChannelCall:
		return true
	}
	return false
}

type Outcome string

const (
	OutcomeSent   Outcome = "sent"
	OutcomeFailed Outcome = "failed"
)
