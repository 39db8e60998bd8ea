// factory.go - Validated construction of attendance incident records.
package absence

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/campusops/records-engine/records"
)

var validate = validator.New()

// NewIncidentInput carries the fields required to report an incident.
type NewIncidentInput struct {
	SubjectID string       `validate:"required"`
	Kind      records.Kind `validate:"required,oneof=absence late"`
	Course    string       // category: which class period was missed
	Group     string       // class
	Date      records.Date
}

// New builds a reported absence or a pending late.
func New(in NewIncidentInput) (records.Record, error) {
	if err := validate.Struct(in); err != nil {
		return records.Record{}, &records.ValidationError{Field: "input", Reason: err.Error()}
	}
	if in.Date.IsZero() {
		return records.Record{}, &records.ValidationError{Field: "date", Reason: "required"}
	}

	now := time.Now()
	return records.Record{
		ID:         records.RecordID(uuid.NewString()),
		SubjectID:  records.SubjectID(in.SubjectID),
		Kind:       in.Kind,
		Status:     records.InitialStatus(in.Kind),
		Category:   in.Course,
		Group:      in.Group,
		OccurredOn: in.Date,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
