package records_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/campusops/records-engine/records"
)

func window(y1 int, m1 time.Month, d1, y2 int, m2 time.Month, d2 int) records.Window {
	return records.Window{Start: records.NewDate(y1, m1, d1), End: records.NewDate(y2, m2, d2)}
}

func completedPayment(id string, group string, total int64, due, settled records.Date) records.Record {
	rec := records.Record{
		ID: records.RecordID(id), SubjectID: "stu-1", Kind: records.KindPayment,
		Group: group, Category: "tuition", Total: total, DueDate: due,
	}
	rec = rec.AppendSettlement(records.Settlement{Date: settled, Amount: total})
	rec.Status = records.DeriveStatus(rec)
	return rec
}

// =============================================================================
// AGGREGATION TESTS
// =============================================================================

func TestAggregate_EmptySet_ZeroRateNotDivideByZero(t *testing.T) {
	// GIVEN: No records in the window
	// WHEN: Aggregating
	sum := records.Aggregate(nil, window(2024, time.September, 1, 2025, time.June, 30), records.Today())

	// THEN: Rates are zero, no panic
	if !sum.CollectionRate.IsZero() {
		t.Errorf("expected zero collection rate, got %s", sum.CollectionRate)
	}
	if !sum.PunctualityRate.IsZero() {
		t.Errorf("expected zero punctuality rate, got %s", sum.PunctualityRate)
	}
}

func TestAggregate_TotalsAndRates(t *testing.T) {
	// GIVEN: Two payments due in the window: one fully settled on time,
	// one untouched
	w := window(2024, time.November, 1, 2024, time.November, 30)
	asOf := records.NewDate(2024, time.December, 1)

	paid := completedPayment("p1", "6A", 25000, records.NewDate(2024, time.November, 15), records.NewDate(2024, time.November, 10))
	unpaid := paymentRecord(25000, 0, records.NewDate(2024, time.November, 20))
	unpaid.ID = "p2"

	sum := records.Aggregate([]records.Record{paid, unpaid}, w, asOf)

	// THEN
	if sum.TotalExpected != 50000 || sum.TotalCollected != 25000 || sum.Outstanding != 25000 {
		t.Errorf("totals wrong: %+v", sum)
	}
	if !sum.CollectionRate.Equal(decimal.NewFromFloat(0.5)) {
		t.Errorf("expected collection rate 0.5, got %s", sum.CollectionRate)
	}
	if sum.CompletedTotal != 1 || sum.CompletedOnTime != 1 {
		t.Errorf("punctuality counts wrong: %+v", sum)
	}
	if !sum.PunctualityRate.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected punctuality 1, got %s", sum.PunctualityRate)
	}
	// The unpaid record past due reads as overdue in the counts
	if sum.StatusCounts[records.PaymentOverdue] != 1 {
		t.Errorf("expected 1 overdue, got %+v", sum.StatusCounts)
	}
	if sum.StatusCounts[records.PaymentCompleted] != 1 {
		t.Errorf("expected 1 completed, got %+v", sum.StatusCounts)
	}
}

func TestAggregate_WindowFiltersByEventDate(t *testing.T) {
	// GIVEN: A payment due outside the window
	w := window(2024, time.November, 1, 2024, time.November, 30)
	out := paymentRecord(10000, 0, records.NewDate(2024, time.December, 5))

	sum := records.Aggregate([]records.Record{out}, w, records.Today())
	if sum.Count != 0 || sum.TotalExpected != 0 {
		t.Errorf("record outside window must be excluded: %+v", sum)
	}
}

func TestAggregate_MalformedExcludedFromSums(t *testing.T) {
	// GIVEN: One sound payment, one with inconsistent amounts
	w := window(2025, time.January, 1, 2025, time.December, 31)
	good := paymentRecord(10000, 0, records.NewDate(2025, time.February, 1))
	bad := paymentRecord(10000, 7000, records.NewDate(2025, time.February, 1)) // no events backing paid

	sum := records.Aggregate([]records.Record{good, bad}, w, records.NewDate(2025, time.January, 15))

	// THEN: The malformed one is counted but not summed
	if sum.Malformed != 1 {
		t.Errorf("expected 1 malformed, got %d", sum.Malformed)
	}
	if sum.TotalExpected != 10000 {
		t.Errorf("malformed record leaked into sums: %d", sum.TotalExpected)
	}
}

func TestAggregateBy_GroupsMatchWholeSetFolds(t *testing.T) {
	// GIVEN: Payments across two classes
	w := window(2024, time.September, 1, 2025, time.June, 30)
	asOf := records.NewDate(2025, time.July, 1)
	recs := []records.Record{
		completedPayment("a1", "6A", 10000, records.NewDate(2024, time.October, 1), records.NewDate(2024, time.September, 20)),
		completedPayment("a2", "6A", 15000, records.NewDate(2024, time.November, 1), records.NewDate(2024, time.December, 1)),
		completedPayment("b1", "6B", 20000, records.NewDate(2024, time.October, 1), records.NewDate(2024, time.October, 1)),
	}

	// WHEN: Folding per class in one pass
	groups := records.AggregateBy(recs, w, asOf, records.GroupByClass)

	// THEN: Each group equals the fold over just its records
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	a := records.Aggregate(recs[:2], w, asOf)
	if groups["6A"].TotalCollected != a.TotalCollected || groups["6A"].CompletedOnTime != a.CompletedOnTime {
		t.Errorf("6A group diverges from direct fold: %+v vs %+v", groups["6A"], a)
	}
	if groups["6B"].TotalExpected != 20000 {
		t.Errorf("6B totals wrong: %+v", groups["6B"])
	}
	if got := records.GroupKeys(groups); got[0] != "6A" || got[1] != "6B" {
		t.Errorf("group keys not sorted: %v", got)
	}
}
