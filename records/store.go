/*
store.go - Persistence collaborator contract

PURPOSE:
  The engine never issues raw queries; it depends only on this narrow
  contract so the backing store can be swapped. Two implementations ship
  with the engine:
  - records/store (memory.go): in-memory, for tests and development
  - store/sqlite: production SQLite

CONTRACT NOTES:
  - Create assigns nothing: ids are minted by the factories, the store
    only refuses duplicates
  - Update replaces a single record by id (read-modify-write); concurrent
    transitions on the same record are an accepted last-write-wins race,
    the append-only histories keep the audit data
  - There is no Delete: records are never hard-deleted, terminal states
    are retained for reporting
*/
package records

import "context"

// Filter narrows a Query. Zero fields match everything.
type Filter struct {
	Kind      Kind
	SubjectID SubjectID
	Group     string
	Statuses  []Status
	// From/To bound the record's EventDate, inclusive.
	From *Date
	To   *Date
}

func (f Filter) Matches(r Record) bool {
	if f.Kind != "" && r.Kind != f.Kind {
		return false
	}
	if f.SubjectID != "" && r.SubjectID != f.SubjectID {
		return false
	}
	if f.Group != "" && r.Group != f.Group {
		return false
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if r.Status == s {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.From != nil && r.EventDate().Before(*f.From) {
		return false
	}
	if f.To != nil && r.EventDate().After(*f.To) {
		return false
	}
	return true
}

// Store is the persistence collaborator.
type Store interface {
	// Create persists a new record. Fails if the id already exists.
	Create(ctx context.Context, rec Record) (Record, error)

	// Get returns the record or ErrNotFound.
	Get(ctx context.Context, id RecordID) (Record, error)

	// Update replaces the record with the same id. Fails with ErrNotFound
	// for unknown ids.
	Update(ctx context.Context, rec Record) (Record, error)

	// Query returns records matching the filter, ordered by EventDate then id.
	Query(ctx context.Context, f Filter) ([]Record, error)
}
