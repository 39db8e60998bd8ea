/*
transition.go - Transition engine contract shared by all record kinds

PURPOSE:
  Defines the one contract through which records change state. The engine
  for each kind lives in its domain package (payment, absence, card); this
  package knows only the shape of the contract, mirroring how the store
  knows nothing about kinds.

CONTRACT:
  Apply(record, action, asOf) -> (updated record, error)

  - Pure with respect to collaborators: a transition touches the record and
    its append-only histories, nothing else
  - Rejections are typed (ErrAlreadySettled, ErrInvalidTransition, ...) and
    leave the record untouched
  - asOf is injected so derivations are reproducible in tests

SEE ALSO:
  - payment/engine.go, absence/engine.go, card/engine.go: Implementations
  - bulk.go: Applies one action across many records via this contract
*/
package records

import "context"

// Action is a request to move a record through its state machine. Concrete
// actions are defined by the domain packages.
type Action interface {
	// ActionName identifies the action in errors and bulk outcomes.
	ActionName() string
}

// Engine applies actions to records of one kind.
type Engine interface {
	Kind() Kind
	Apply(rec Record, act Action, asOf Date) (Record, error)
}

// Transition loads a record, applies the action through the engine and
// persists the result. This is the single-record path the UI layer calls;
// the write is a read-modify-write on one record.
func Transition(ctx context.Context, store Store, eng Engine, id RecordID, act Action, asOf Date) (Record, error) {
	rec, err := store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if rec.Kind != eng.Kind() {
		return Record{}, &TransitionError{Kind: rec.Kind, From: rec.Status, Action: act.ActionName()}
	}
	next, err := eng.Apply(rec, act, asOf)
	if err != nil {
		return Record{}, err
	}
	return store.Update(ctx, next)
}
