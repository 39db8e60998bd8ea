// factory.go - Validated construction of payment records.
//
// A record cannot be created with missing required fields; problems surface
// here as ValidationError, not later at render time.
package payment

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/campusops/records-engine/records"
)

var validate = validator.New()

// NewPaymentInput carries the fields required to open a fee obligation.
type NewPaymentInput struct {
	SubjectID string `validate:"required"`
	Category  string `validate:"required"` // fee type: tuition, canteen, transport...
	Group     string // class, for breakdowns
	Total     int64  `validate:"gte=0"` // minor units
	DueDate   records.Date
}

// New builds a pending payment record.
func New(in NewPaymentInput) (records.Record, error) {
	if err := validate.Struct(in); err != nil {
		return records.Record{}, &records.ValidationError{Field: firstFailedField(err), Reason: "missing or out of range"}
	}
	if in.DueDate.IsZero() {
		return records.Record{}, &records.ValidationError{Field: "due_date", Reason: "required"}
	}

	now := time.Now()
	return records.Record{
		ID:        records.RecordID(uuid.NewString()),
		SubjectID: records.SubjectID(in.SubjectID),
		Kind:      records.KindPayment,
		Status:    records.PaymentPending,
		Category:  in.Category,
		Group:     in.Group,
		Total:     in.Total,
		Paid:      0,
		DueDate:   in.DueDate,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func firstFailedField(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field()
	}
	return "input"
}
