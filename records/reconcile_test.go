package records_test

import (
	"testing"
	"time"

	"github.com/campusops/records-engine/records"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) records.Date {
	return records.NewDate(year, month, day)
}

func paymentRecord(total, paid int64, due records.Date, settlements ...records.Settlement) records.Record {
	rec := records.Record{
		ID:          "pay-1",
		SubjectID:   "stu-1",
		Kind:        records.KindPayment,
		Total:       total,
		Paid:        paid,
		DueDate:     due,
		Settlements: settlements,
	}
	rec.Status = records.DeriveStatus(rec)
	return rec
}

// =============================================================================
// RECONCILIATION TESTS
// =============================================================================

func TestReconcile_RemainingNeverNegative(t *testing.T) {
	// GIVEN: A payment settled exactly to its total
	rec := paymentRecord(25000, 25000, date(2024, time.November, 15),
		records.Settlement{Date: date(2024, time.November, 10), Amount: 25000})

	// WHEN: Reconciling
	out := records.Reconcile(rec, date(2024, time.November, 20))

	// THEN: Remaining is zero, not negative
	if out.Remaining != 0 {
		t.Errorf("expected remaining 0, got %d", out.Remaining)
	}
	if !out.Completed {
		t.Error("expected completed")
	}
}

func TestReconcile_PartialThenCompletedBeforeDue_IsPunctual(t *testing.T) {
	// GIVEN: 25000 due 2024-11-15, settled 15000 on 11-10 then 10000 on 11-12
	rec := paymentRecord(25000, 15000, date(2024, time.November, 15),
		records.Settlement{Date: date(2024, time.November, 10), Amount: 15000})

	if rec.Status != records.PaymentPartial {
		t.Fatalf("expected partial after first settlement, got %s", rec.Status)
	}
	mid := records.Reconcile(rec, date(2024, time.November, 10))
	if mid.Remaining != 10000 {
		t.Errorf("expected remaining 10000, got %d", mid.Remaining)
	}

	rec = rec.AppendSettlement(records.Settlement{Date: date(2024, time.November, 12), Amount: 10000})
	rec.Status = records.DeriveStatus(rec)

	// WHEN: Reconciling after completion
	out := records.Reconcile(rec, date(2024, time.December, 1))

	// THEN: Completed and punctual (completion date <= due date)
	if rec.Status != records.PaymentCompleted {
		t.Fatalf("expected completed, got %s", rec.Status)
	}
	if !out.Punctual {
		t.Error("expected punctual completion")
	}
	if out.Overdue {
		t.Error("completed payment must not be overdue")
	}
}

func TestReconcile_CompletedAfterDue_NotPunctual(t *testing.T) {
	// GIVEN: Same payment but the completing settlement lands 2024-11-20
	rec := paymentRecord(25000, 15000, date(2024, time.November, 15),
		records.Settlement{Date: date(2024, time.November, 10), Amount: 15000})
	rec = rec.AppendSettlement(records.Settlement{Date: date(2024, time.November, 20), Amount: 10000})
	rec.Status = records.DeriveStatus(rec)

	// WHEN
	out := records.Reconcile(rec, date(2024, time.December, 1))

	// THEN: Completed but not punctual
	if !out.Completed {
		t.Fatal("expected completed")
	}
	if out.Punctual {
		t.Error("completion after due date must not be punctual")
	}
}

func TestReconcile_OverdueIsDerivedAtReadTime(t *testing.T) {
	// GIVEN: An unpaid payment due 2024-11-15
	rec := paymentRecord(25000, 0, date(2024, time.November, 15))

	// WHEN/THEN: Before the due date it is not overdue, after it is,
	// and the stored status never changes
	before := records.Reconcile(rec, date(2024, time.November, 14))
	after := records.Reconcile(rec, date(2024, time.November, 16))

	if before.Overdue {
		t.Error("not overdue before due date")
	}
	if !after.Overdue {
		t.Error("overdue after due date")
	}
	if rec.Status != records.PaymentPending {
		t.Errorf("stored status must stay pending, got %s", rec.Status)
	}
	if got := records.EffectiveStatus(rec, date(2024, time.November, 16)); got != records.PaymentOverdue {
		t.Errorf("effective status should read overdue, got %s", got)
	}
}

func TestReconcile_NonPaymentKinds_OnlyRemainingZero(t *testing.T) {
	rec := records.Record{ID: "abs-1", Kind: records.KindAbsence, Status: records.AbsenceReported,
		OccurredOn: date(2024, time.October, 1)}

	out := records.Reconcile(rec, date(2024, time.October, 2))
	if out.Remaining != 0 || out.Overdue || out.Completed || out.Punctual {
		t.Errorf("non-payment reconciliation should be zero-valued, got %+v", out)
	}
}
