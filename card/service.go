/*
service.go - Card issuance against the store

PURPOSE:
  Enforces the one-active-card-per-subject invariant, which spans records
  and therefore cannot live in the single-record engine:

  - Generate refuses a new card while the subject holds any non-expired
    card (ErrDuplicateActiveCard).
  - Regenerate first expires the subject's active cards, then creates a
    fresh draft. After it returns, exactly one card for the subject is in
    {draft, pending_validation, issued, printed}.
*/
package card

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campusops/records-engine/records"
)

type Service struct {
	Store  records.Store
	Engine Engine
}

// Generate creates a draft card for a subject with no active card.
func (s *Service) Generate(ctx context.Context, subject records.SubjectID, group string, asOf records.Date) (records.Record, error) {
	if subject == "" {
		return records.Record{}, &records.ValidationError{Field: "subject_id", Reason: "required"}
	}

	active, err := s.activeCards(ctx, subject)
	if err != nil {
		return records.Record{}, err
	}
	if len(active) > 0 {
		return records.Record{}, records.ErrDuplicateActiveCard
	}

	return s.Store.Create(ctx, newDraft(subject, group, asOf))
}

// Regenerate expires the subject's active cards (any state except expired)
// and creates a new draft. Expiring every match makes regeneration
// self-healing when imported data holds more than one active card.
func (s *Service) Regenerate(ctx context.Context, subject records.SubjectID, group string, asOf records.Date) (records.Record, error) {
	if subject == "" {
		return records.Record{}, &records.ValidationError{Field: "subject_id", Reason: "required"}
	}

	active, err := s.activeCards(ctx, subject)
	if err != nil {
		return records.Record{}, err
	}
	for _, prev := range active {
		expired, err := s.Engine.Apply(prev, Expire{}, asOf)
		if err != nil {
			return records.Record{}, fmt.Errorf("expire previous card: %w", err)
		}
		if _, err := s.Store.Update(ctx, expired); err != nil {
			return records.Record{}, fmt.Errorf("persist expired card: %w", err)
		}
	}

	return s.Store.Create(ctx, newDraft(subject, group, asOf))
}

func (s *Service) activeCards(ctx context.Context, subject records.SubjectID) ([]records.Record, error) {
	return s.Store.Query(ctx, records.Filter{
		Kind:      records.KindCard,
		SubjectID: subject,
		Statuses:  records.ActiveCardStatuses,
	})
}

func newDraft(subject records.SubjectID, group string, asOf records.Date) records.Record {
	now := time.Now()
	return records.Record{
		ID:        records.RecordID(uuid.NewString()),
		SubjectID: subject,
		Kind:      records.KindCard,
		Status:    records.CardDraft,
		Group:     group,
		// Expiry is provisional until validation re-derives it from the
		// actual issuance date.
		ExpiresOn: records.NextAcademicYearEnd(asOf),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
