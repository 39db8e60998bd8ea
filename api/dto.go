/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the domain
  model from the external contract. Dates travel as "YYYY-MM-DD" strings;
  money travels as integer minor units.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request structs carry validator tags; handlers run them through the
  shared validator before touching domain logic.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/campusops/records-engine/records"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

type CreatePaymentRequest struct {
	SubjectID string `json:"subject_id" validate:"required"`
	Category  string `json:"category" validate:"required"`
	Group     string `json:"group"`
	Total     int64  `json:"total" validate:"gte=0"`
	DueDate   string `json:"due_date" validate:"required"`
}

type CreateIncidentRequest struct {
	SubjectID string `json:"subject_id" validate:"required"`
	Kind      string `json:"kind" validate:"required,oneof=absence late"`
	Course    string `json:"course"`
	Group     string `json:"group"`
	Date      string `json:"date" validate:"required"`
}

type CreateCardRequest struct {
	SubjectID  string `json:"subject_id" validate:"required"`
	Group      string `json:"group"`
	Regenerate bool   `json:"regenerate"`
}

type SettlementRequest struct {
	Amount    int64  `json:"amount" validate:"gt=0"`
	Date      string `json:"date"`
	Method    string `json:"method"`
	Reference string `json:"reference"`
	Actor     string `json:"actor"`
}

type JustifyRequest struct {
	Reason    string   `json:"reason" validate:"required"`
	Documents []string `json:"documents"`
	Date      string   `json:"date"`
}

type NotifyRequest struct {
	Channel string `json:"channel" validate:"required,oneof=sms email call"`
	Message string `json:"message"`
}

type BulkJustifyRequest struct {
	IDs    []string `json:"ids" validate:"required,min=1"`
	Kind   string   `json:"kind" validate:"required,oneof=absence late"`
	Reason string   `json:"reason" validate:"required"`
}

type BulkRemindRequest struct {
	IDs     []string `json:"ids" validate:"required,min=1"`
	Channel string   `json:"channel" validate:"required,oneof=sms email call"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type SettlementDTO struct {
	Date      string `json:"date"`
	Amount    int64  `json:"amount"`
	Method    string `json:"method,omitempty"`
	Reference string `json:"reference,omitempty"`
	Actor     string `json:"actor,omitempty"`
}

type JustificationDTO struct {
	Date      string   `json:"date"`
	Reason    string   `json:"reason"`
	Documents []string `json:"documents,omitempty"`
}

type NotificationDTO struct {
	Channel   string `json:"channel"`
	At        string `json:"at"`
	Recipient string `json:"recipient,omitempty"`
	Message   string `json:"message,omitempty"`
	Outcome   string `json:"outcome"`
}

type RecordDTO struct {
	ID        string `json:"id"`
	SubjectID string `json:"subject_id"`
	Kind      string `json:"kind"`
	Status    string `json:"status"`
	Category  string `json:"category,omitempty"`
	Group     string `json:"group,omitempty"`

	Total     int64  `json:"total,omitempty"`
	Paid      int64  `json:"paid,omitempty"`
	Remaining int64  `json:"remaining,omitempty"`
	DueDate   string `json:"due_date,omitempty"`

	OccurredOn string `json:"occurred_on,omitempty"`

	IssuedOn  string `json:"issued_on,omitempty"`
	ExpiresOn string `json:"expires_on,omitempty"`

	Settlements    []SettlementDTO    `json:"settlements,omitempty"`
	Justifications []JustificationDTO `json:"justifications,omitempty"`
	Notifications  []NotificationDTO  `json:"notifications,omitempty"`

	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

type ReconciliationDTO struct {
	Remaining int64 `json:"remaining"`
	Overdue   bool  `json:"overdue"`
	Completed bool  `json:"completed"`
	Punctual  bool  `json:"punctual"`
}

type BulkOutcomeDTO struct {
	Succeeded []string         `json:"succeeded"`
	Skipped   []BulkSkipDTO    `json:"skipped"`
	Failed    []BulkFailureDTO `json:"failed"`
}

type BulkSkipDTO struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type BulkFailureDTO struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type SummaryDTO struct {
	Count           int             `json:"count"`
	TotalExpected   int64           `json:"total_expected"`
	TotalCollected  int64           `json:"total_collected"`
	Outstanding     int64           `json:"outstanding"`
	CollectionRate  decimal.Decimal `json:"collection_rate"`
	StatusCounts    map[string]int  `json:"status_counts"`
	CompletedTotal  int             `json:"completed_total"`
	CompletedOnTime int             `json:"completed_on_time"`
	PunctualityRate decimal.Decimal `json:"punctuality_rate"`
	Malformed       int             `json:"malformed"`
}

type AnalyticsDTO struct {
	From    string                `json:"from"`
	To      string                `json:"to"`
	Summary SummaryDTO            `json:"summary"`
	Groups  map[string]SummaryDTO `json:"groups,omitempty"`
}

type ReportRowDTO struct {
	Subject  string `json:"subject"`
	Category string `json:"category"`
	Period   string `json:"period"`
	Total    int64  `json:"total"`
	Paid     int64  `json:"paid"`
	Status   string `json:"status"`
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toRecordDTO(rec records.Record, asOf records.Date) RecordDTO {
	dto := RecordDTO{
		ID:        string(rec.ID),
		SubjectID: string(rec.SubjectID),
		Kind:      string(rec.Kind),
		Status:    string(records.EffectiveStatus(rec, asOf)),
		Category:  rec.Category,
		Group:     rec.Group,
		CreatedAt: rfc3339OrEmpty(rec.CreatedAt),
		UpdatedAt: rfc3339OrEmpty(rec.UpdatedAt),
	}

	switch rec.Kind {
	case records.KindPayment:
		dto.Total = rec.Total
		dto.Paid = rec.Paid
		dto.Remaining = rec.Remaining()
		dto.DueDate = dateOrEmpty(rec.DueDate)
	case records.KindAbsence, records.KindLate:
		dto.OccurredOn = dateOrEmpty(rec.OccurredOn)
	case records.KindCard:
		dto.IssuedOn = dateOrEmpty(rec.IssuedOn)
		dto.ExpiresOn = dateOrEmpty(rec.ExpiresOn)
	}

	for _, s := range rec.Settlements {
		dto.Settlements = append(dto.Settlements, SettlementDTO{
			Date: s.Date.String(), Amount: s.Amount, Method: s.Method,
			Reference: s.Reference, Actor: s.Actor,
		})
	}
	for _, j := range rec.Justifications {
		dto.Justifications = append(dto.Justifications, JustificationDTO{
			Date: j.Date.String(), Reason: j.Reason, Documents: j.Documents,
		})
	}
	for _, n := range rec.Notifications {
		dto.Notifications = append(dto.Notifications, NotificationDTO{
			Channel: string(n.Channel), At: n.At.Format(time.RFC3339),
			Recipient: n.Recipient, Message: n.Message, Outcome: string(n.Outcome),
		})
	}
	return dto
}

func toBulkOutcomeDTO(out records.BulkOutcome) BulkOutcomeDTO {
	dto := BulkOutcomeDTO{Succeeded: []string{}, Skipped: []BulkSkipDTO{}, Failed: []BulkFailureDTO{}}
	for _, id := range out.Succeeded {
		dto.Succeeded = append(dto.Succeeded, string(id))
	}
	for _, sk := range out.Skipped {
		dto.Skipped = append(dto.Skipped, BulkSkipDTO{ID: string(sk.ID), Reason: sk.Reason})
	}
	for _, f := range out.Failed {
		dto.Failed = append(dto.Failed, BulkFailureDTO{ID: string(f.ID), Error: f.Err.Error()})
	}
	return dto
}

func toSummaryDTO(s records.Summary) SummaryDTO {
	counts := make(map[string]int, len(s.StatusCounts))
	for st, n := range s.StatusCounts {
		counts[string(st)] = n
	}
	return SummaryDTO{
		Count:           s.Count,
		TotalExpected:   s.TotalExpected,
		TotalCollected:  s.TotalCollected,
		Outstanding:     s.Outstanding,
		CollectionRate:  s.CollectionRate,
		StatusCounts:    counts,
		CompletedTotal:  s.CompletedTotal,
		CompletedOnTime: s.CompletedOnTime,
		PunctualityRate: s.PunctualityRate,
		Malformed:       s.Malformed,
	}
}

func dateOrEmpty(d records.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func rfc3339OrEmpty(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
