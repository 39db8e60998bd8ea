// report.go - Flat row projection consumed by the export layer.
//
// The engine owns the records-to-rows mapping; serialization (CSV, HTML)
// stays outside.
package records

// ReportRow is one flat export line.
type ReportRow struct {
	Subject  SubjectID
	Category string
	Period   string // "2006-01" month bucket of the record's event date
	Total    int64
	Paid     int64
	Status   Status
}

// Rows projects records into export rows. Status is the effective status at
// asOf, so exports agree with what the tables display.
func Rows(recs []Record, asOf Date) []ReportRow {
	rows := make([]ReportRow, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, ReportRow{
			Subject:  r.SubjectID,
			Category: r.Category,
			Period:   r.EventDate().PeriodKey(),
			Total:    r.Total,
			Paid:     r.Paid,
			Status:   EffectiveStatus(r, asOf),
		})
	}
	return rows
}
