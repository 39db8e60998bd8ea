/*
Package card implements the identity card lifecycle.

PURPOSE:
  States: {draft, pending_validation, issued, printed, expired}

    draft --submit()--> pending_validation
    draft|pending_validation --validate()--> issued
    issued|printed --print()--> printed   (idempotent: re-printing an
                                           already-printed card is a no-op
                                           success, not an error)
    any non-expired --expire()--> expired (used by regeneration)

  Exactly one active (non-expired) card per subject is the invariant the
  Service enforces; the engine itself only knows single-record rules.

SEE ALSO:
  - service.go: generate/regenerate against the store
*/
package card

import (
	"github.com/campusops/records-engine/records"
)

// =============================================================================
// ACTIONS
// =============================================================================

// Submit sends a draft for validation.
type Submit struct{}

func (Submit) ActionName() string { return "submit" }

// Validate marks the card as issued.
type Validate struct {
	Actor string
}

func (Validate) ActionName() string { return "validate" }

// Print marks the card as printed.
type Print struct{}

func (Print) ActionName() string { return "print" }

// Expire retires the card. Terminal.
type Expire struct{}

func (Expire) ActionName() string { return "expire" }

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct{}

func (Engine) Kind() records.Kind { return records.KindCard }

func (e Engine) Apply(rec records.Record, act records.Action, asOf records.Date) (records.Record, error) {
	switch act.(type) {
	case Submit:
		return e.submit(rec, asOf)
	case Validate:
		return e.validate(rec, asOf)
	case Print:
		return e.print(rec, asOf)
	case Expire:
		return e.expire(rec, asOf)
	default:
		return records.Record{}, &records.TransitionError{Kind: records.KindCard, From: rec.Status, Action: act.ActionName()}
	}
}

func (Engine) submit(rec records.Record, asOf records.Date) (records.Record, error) {
	if rec.Status != records.CardDraft {
		return records.Record{}, &records.TransitionError{Kind: records.KindCard, From: rec.Status, Action: "submit"}
	}
	next := rec
	at := asOf.Time()
	next.SubmittedAt = &at
	next.Status = records.DeriveStatus(next)
	next.UpdatedAt = at
	return next, nil
}

func (Engine) validate(rec records.Record, asOf records.Date) (records.Record, error) {
	switch rec.Status {
	case records.CardDraft, records.CardPendingValidation:
	default:
		return records.Record{}, &records.TransitionError{Kind: records.KindCard, From: rec.Status, Action: "validate"}
	}
	next := rec
	at := asOf.Time()
	next.ValidatedAt = &at
	next.IssuedOn = asOf
	// Expiry is always the next academic-year-end forward from issuance.
	next.ExpiresOn = records.NextAcademicYearEnd(asOf)
	next.Status = records.DeriveStatus(next)
	next.UpdatedAt = at
	return next, nil
}

func (Engine) print(rec records.Record, asOf records.Date) (records.Record, error) {
	switch rec.Status {
	case records.CardPrinted:
		// no-op success
		return rec, nil
	case records.CardIssued:
	default:
		return records.Record{}, &records.TransitionError{Kind: records.KindCard, From: rec.Status, Action: "print"}
	}
	next := rec
	at := asOf.Time()
	next.PrintedAt = &at
	next.Status = records.DeriveStatus(next)
	next.UpdatedAt = at
	return next, nil
}

func (Engine) expire(rec records.Record, asOf records.Date) (records.Record, error) {
	if rec.Status == records.CardExpired {
		return rec, nil
	}
	next := rec
	at := asOf.Time()
	next.ExpiredAt = &at
	next.Status = records.DeriveStatus(next)
	next.UpdatedAt = at
	return next, nil
}
