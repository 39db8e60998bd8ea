package payment_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusops/records-engine/notify"
	"github.com/campusops/records-engine/payment"
	"github.com/campusops/records-engine/records"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(y int, m time.Month, d int) records.Date { return records.NewDate(y, m, d) }

func newPayment(t *testing.T, total int64, due records.Date) records.Record {
	t.Helper()
	rec, err := payment.New(payment.NewPaymentInput{
		SubjectID: "stu-1",
		Category:  "tuition",
		Group:     "6A",
		Total:     total,
		DueDate:   due,
	})
	require.NoError(t, err)
	return rec
}

func settle(amount int64, on records.Date) payment.RecordSettlement {
	return payment.RecordSettlement{Amount: amount, Date: on, Method: "cash", Actor: "admin"}
}

// =============================================================================
// STATE MACHINE TESTS
// =============================================================================

func TestSettlement_PendingToPartialToCompleted(t *testing.T) {
	// GIVEN: 25000 due 2024-11-15
	eng := payment.Engine{}
	rec := newPayment(t, 25000, date(2024, time.November, 15))

	// WHEN: Settling 15000 on 2024-11-10
	rec, err := eng.Apply(rec, settle(15000, date(2024, time.November, 10)), date(2024, time.November, 10))
	require.NoError(t, err)

	// THEN: partial, remaining 10000
	assert.Equal(t, records.PaymentPartial, rec.Status)
	assert.EqualValues(t, 10000, rec.Remaining())

	// WHEN: Settling the remaining 10000 on 2024-11-12
	rec, err = eng.Apply(rec, settle(10000, date(2024, time.November, 12)), date(2024, time.November, 12))
	require.NoError(t, err)

	// THEN: completed and punctual
	assert.Equal(t, records.PaymentCompleted, rec.Status)
	out := records.Reconcile(rec, date(2024, time.December, 1))
	assert.True(t, out.Punctual)
	assert.EqualValues(t, 0, out.Remaining)
	assert.EqualValues(t, rec.Paid, rec.SettledTotal())
}

func TestSettlement_CompletionAfterDueDate_NotPunctual(t *testing.T) {
	eng := payment.Engine{}
	rec := newPayment(t, 25000, date(2024, time.November, 15))

	var err error
	rec, err = eng.Apply(rec, settle(15000, date(2024, time.November, 10)), date(2024, time.November, 10))
	require.NoError(t, err)
	rec, err = eng.Apply(rec, settle(10000, date(2024, time.November, 20)), date(2024, time.November, 20))
	require.NoError(t, err)

	assert.Equal(t, records.PaymentCompleted, rec.Status)
	assert.False(t, records.Reconcile(rec, date(2024, time.December, 1)).Punctual)
}

func TestSettlement_SingleFullAmount_CompletesDirectly(t *testing.T) {
	eng := payment.Engine{}
	rec := newPayment(t, 8000, date(2025, time.January, 10))

	rec, err := eng.Apply(rec, settle(8000, date(2025, time.January, 5)), date(2025, time.January, 5))
	require.NoError(t, err)
	assert.Equal(t, records.PaymentCompleted, rec.Status)
}

func TestSettlement_CompletedRejectsFurtherSettlement(t *testing.T) {
	// GIVEN: A completed payment
	eng := payment.Engine{}
	rec := newPayment(t, 8000, date(2025, time.January, 10))
	rec, err := eng.Apply(rec, settle(8000, date(2025, time.January, 5)), date(2025, time.January, 5))
	require.NoError(t, err)
	before := rec

	// WHEN: Settling again
	_, err = eng.Apply(rec, settle(100, date(2025, time.January, 6)), date(2025, time.January, 6))

	// THEN: AlreadySettled, record untouched
	assert.ErrorIs(t, err, records.ErrAlreadySettled)
	assert.Equal(t, before, rec)
}

func TestSettlement_OverpaymentRecordedAtRemaining(t *testing.T) {
	// Paid may never exceed Total, so the recorded amount caps at remaining
	eng := payment.Engine{}
	rec := newPayment(t, 5000, date(2025, time.February, 1))

	rec, err := eng.Apply(rec, settle(7500, date(2025, time.January, 20)), date(2025, time.January, 20))
	require.NoError(t, err)

	assert.Equal(t, records.PaymentCompleted, rec.Status)
	assert.EqualValues(t, 5000, rec.Paid)
	assert.EqualValues(t, rec.Paid, rec.SettledTotal())
}

func TestSettlement_ZeroTotalCompletesOnFirstSettlement(t *testing.T) {
	// GIVEN: A waived fee with nothing to collect
	eng := payment.Engine{}
	rec := newPayment(t, 0, date(2025, time.February, 1))

	// WHEN: The first settlement attempt arrives
	rec, err := eng.Apply(rec, settle(500, date(2025, time.January, 20)), date(2025, time.January, 20))
	require.NoError(t, err)

	// THEN: Completed via a single zero-amount event, invariants intact
	assert.Equal(t, records.PaymentCompleted, rec.Status)
	require.Len(t, rec.Settlements, 1)
	assert.EqualValues(t, 0, rec.Settlements[0].Amount)
	assert.EqualValues(t, 0, rec.Paid)
	assert.EqualValues(t, rec.Paid, rec.SettledTotal())
	assert.True(t, rec.WellFormed())

	// AND: A retry is rejected instead of piling up events
	_, err = eng.Apply(rec, settle(500, date(2025, time.January, 21)), date(2025, time.January, 21))
	assert.ErrorIs(t, err, records.ErrAlreadySettled)
}

func TestSettlement_RejectsNonPositiveAmount(t *testing.T) {
	eng := payment.Engine{}
	rec := newPayment(t, 5000, date(2025, time.February, 1))

	_, err := eng.Apply(rec, settle(0, date(2025, time.January, 20)), date(2025, time.January, 20))
	assert.ErrorIs(t, err, records.ErrValidation)
}

// =============================================================================
// FACTORY TESTS
// =============================================================================

func TestNew_RequiresSubjectAndDueDate(t *testing.T) {
	_, err := payment.New(payment.NewPaymentInput{Category: "tuition", Total: 100, DueDate: date(2025, time.March, 1)})
	assert.ErrorIs(t, err, records.ErrValidation)

	_, err = payment.New(payment.NewPaymentInput{SubjectID: "stu-1", Category: "tuition", Total: 100})
	assert.ErrorIs(t, err, records.ErrValidation)
}

// =============================================================================
// REMINDER TESTS
// =============================================================================

func TestRemind_SkipsCompleted_AppendsLedgerEntry(t *testing.T) {
	dispatcher := notify.NewMemory()
	reminder := &payment.Reminder{
		Notifier:  dispatcher,
		Recipient: func(r records.Record) string { return "guardian:" + string(r.SubjectID) },
		Channel:   records.ChannelSMS,
	}
	ctx := context.Background()

	// Unpaid: a reminder is dispatched and recorded
	rec := newPayment(t, 9000, date(2025, time.April, 1))
	rec, err := reminder.Remind(ctx, rec)
	require.NoError(t, err)
	require.Len(t, rec.Notifications, 1)
	assert.Equal(t, records.OutcomeSent, rec.Notifications[0].Outcome)
	assert.Len(t, dispatcher.Dispatched(), 1)

	// Completed: skipped with the idempotence guard
	eng := payment.Engine{}
	done, err := eng.Apply(rec, settle(9000, date(2025, time.March, 20)), date(2025, time.March, 20))
	require.NoError(t, err)
	_, err = reminder.Remind(ctx, done)
	assert.ErrorIs(t, err, records.ErrAlreadySettled)
}

func TestRemind_DispatchFailureRecordedNotRaised(t *testing.T) {
	dispatcher := notify.NewMemory()
	dispatcher.FailFor("guardian:stu-1")
	reminder := &payment.Reminder{
		Notifier:  dispatcher,
		Recipient: func(r records.Record) string { return "guardian:" + string(r.SubjectID) },
		Channel:   records.ChannelSMS,
	}

	rec := newPayment(t, 9000, date(2025, time.April, 1))
	rec, err := reminder.Remind(context.Background(), rec)
	require.NoError(t, err)
	require.Len(t, rec.Notifications, 1)
	assert.Equal(t, records.OutcomeFailed, rec.Notifications[0].Outcome)
}
