/*
bulk.go - Bulk operation coordinator

PURPOSE:
  Applies one action to a set of record identifiers with per-item outcomes.
  One bad item never aborts the batch: the caller gets back exactly which
  ids succeeded, which were skipped, and which failed, so the UI can report
  "12 succeeded, 1 skipped (already justified), 1 failed".

SKIP vs FAIL:
  A skip means the action had already taken effect (bulk-justify on an
  already-justified incident, a reminder for a completed payment). Errors
  classified by records.IsAlreadyApplied become skips; everything else is a
  failure. This split is what makes re-running a bulk action idempotent:
  the second run's skips are exactly the first run's successes.

ORDERING:
  Ids are processed in the order given, and outcomes are reported in that
  order even when items run concurrently. Transitions are independent per
  record, so no prioritization is needed.

CONCURRENCY:
  Workers > 1 fans items out over a bounded pool and fans results back in
  per index - the partial-failure contract is identical either way.
*/
package records

import (
	"context"
	"sync"
)

// BulkAction applies one action to one record and returns the updated value.
// It must not persist anything; the coordinator owns the store write.
type BulkAction func(ctx context.Context, rec Record) (Record, error)

type BulkSkip struct {
	ID     RecordID
	Reason string
}

type BulkFailure struct {
	ID  RecordID
	Err error
}

// BulkOutcome is the structured result of a bulk operation. Per-item
// failures are carried here, never raised as an error from Run.
type BulkOutcome struct {
	Succeeded []RecordID
	Skipped   []BulkSkip
	Failed    []BulkFailure
}

// Coordinator applies bulk actions against a store.
type Coordinator struct {
	Store Store

	// Workers bounds concurrent item processing. Zero or one means
	// strictly sequential.
	Workers int
}

// Run applies act to every id independently. The returned outcome lists
// ids in input order within each category.
func (c *Coordinator) Run(ctx context.Context, ids []RecordID, act BulkAction) BulkOutcome {
	type itemResult struct {
		skipReason string
		skipped    bool
		err        error
	}

	results := make([]itemResult, len(ids))

	apply := func(i int) {
		id := ids[i]
		// Cancellation is checked per item so an abandoned request stops
		// issuing store calls; the remainder is reported as failed.
		if err := ctx.Err(); err != nil {
			results[i] = itemResult{err: err}
			return
		}
		rec, err := c.Store.Get(ctx, id)
		if err != nil {
			results[i] = itemResult{err: err}
			return
		}
		next, err := act(ctx, rec)
		if err != nil {
			if IsAlreadyApplied(err) {
				results[i] = itemResult{skipped: true, skipReason: err.Error()}
			} else {
				results[i] = itemResult{err: err}
			}
			return
		}
		if _, err := c.Store.Update(ctx, next); err != nil {
			results[i] = itemResult{err: err}
		}
	}

	if c.Workers > 1 {
		var wg sync.WaitGroup
		sem := make(chan struct{}, c.Workers)
		for i := range ids {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int) {
				defer wg.Done()
				defer func() { <-sem }()
				apply(i)
			}(i)
		}
		wg.Wait()
	} else {
		for i := range ids {
			apply(i)
		}
	}

	var out BulkOutcome
	for i, r := range results {
		switch {
		case r.err != nil:
			out.Failed = append(out.Failed, BulkFailure{ID: ids[i], Err: r.err})
		case r.skipped:
			out.Skipped = append(out.Skipped, BulkSkip{ID: ids[i], Reason: r.skipReason})
		default:
			out.Succeeded = append(out.Succeeded, ids[i])
		}
	}
	return out
}

// EngineAction adapts a transition engine + action into a BulkAction.
func EngineAction(eng Engine, act Action, asOf Date) BulkAction {
	return func(_ context.Context, rec Record) (Record, error) {
		return eng.Apply(rec, act, asOf)
	}
}
