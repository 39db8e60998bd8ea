/*
Package absence implements the attendance incident lifecycle for absences
and lates (retards).

PURPOSE:
  Absences: {reported, contacted, justified, unjustified}
  Lates:    {late_pending, late_justified, late_unjustified}

  - The first successful guardian notification advances reported -> contacted
    (see notify.go); dispatch itself is always allowed regardless of status.
  - justify is legal from reported|contacted (late_pending for lates) and
    rejected with ErrAlreadyJustified once justified.
  - markUnjustified is an explicit administrative override, always permitted
    except from justified (ErrCannotOverrideJustified).

  Both kinds share one engine parameterized by kind; the transition tables
  differ only in their state names.
*/
package absence

import (
	"github.com/campusops/records-engine/records"
)

// =============================================================================
// ACTIONS
// =============================================================================

// Justify resolves the incident as excused.
type Justify struct {
	Reason    string
	Documents []string
	Date      records.Date
}

func (Justify) ActionName() string { return "justify" }

// MarkUnjustified is the administrative override.
type MarkUnjustified struct{}

func (MarkUnjustified) ActionName() string { return "mark_unjustified" }

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	kind records.Kind
}

// NewEngine builds an engine for KindAbsence or KindLate.
func NewEngine(kind records.Kind) Engine {
	if kind != records.KindAbsence && kind != records.KindLate {
		panic("absence: engine kind must be absence or late")
	}
	return Engine{kind: kind}
}

func (e Engine) Kind() records.Kind { return e.kind }

func (e Engine) Apply(rec records.Record, act records.Action, asOf records.Date) (records.Record, error) {
	switch a := act.(type) {
	case Justify:
		return e.justify(rec, a, asOf)
	case MarkUnjustified:
		return e.markUnjustified(rec)
	default:
		return records.Record{}, &records.TransitionError{Kind: e.kind, From: rec.Status, Action: act.ActionName()}
	}
}

func (e Engine) justify(rec records.Record, a Justify, asOf records.Date) (records.Record, error) {
	switch rec.Status {
	case records.AbsenceJustified, records.LateJustified:
		return records.Record{}, records.ErrAlreadyJustified
	case records.AbsenceReported, records.AbsenceContacted, records.LatePending,
		records.AbsenceUnjustified, records.LateUnjustified:
		// unjustified may be corrected by a real justification
	default:
		return records.Record{}, &records.TransitionError{Kind: e.kind, From: rec.Status, Action: a.ActionName()}
	}

	if a.Reason == "" {
		return records.Record{}, &records.ValidationError{Field: "reason", Reason: "required"}
	}
	if a.Date.IsZero() {
		a.Date = asOf
	}

	next := rec.AppendJustification(records.Justification{
		Date:      a.Date,
		Reason:    a.Reason,
		Documents: a.Documents,
	})
	next.Unjustified = false
	next.Status = records.DeriveStatus(next)
	next.UpdatedAt = a.Date.Time()
	return next, nil
}

func (e Engine) markUnjustified(rec records.Record) (records.Record, error) {
	switch rec.Status {
	case records.AbsenceJustified, records.LateJustified:
		return records.Record{}, records.ErrCannotOverrideJustified
	case records.AbsenceReported, records.AbsenceContacted, records.LatePending,
		records.AbsenceUnjustified, records.LateUnjustified:
		// allowed; re-marking an unjustified incident is a no-op transition
	default:
		return records.Record{}, &records.TransitionError{Kind: e.kind, From: rec.Status, Action: "mark_unjustified"}
	}

	next := rec
	next.Unjustified = true
	next.Status = records.DeriveStatus(next)
	return next, nil
}
