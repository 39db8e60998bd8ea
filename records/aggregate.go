/*
aggregate.go - Read-side statistics over a record set

PURPOSE:
  Folds a record collection into summary statistics: totals, collection
  rate, per-status counts, punctuality rate, and per-group breakdowns.
  Aggregation is a pure fold - it holds no state and is recomputed on
  every request from the full record set.

NUMERIC SEMANTICS:
  Totals are exact integer sums. Rates are decimal.Decimal ratios so a
  97.5% collection rate survives serialization without float noise.
  An empty denominator yields a zero rate, never a division error.

MALFORMED RECORDS:
  A record whose amounts are inconsistent is excluded from sums and counted
  in Malformed rather than aborting the whole report.
*/
package records

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Window bounds aggregation to records whose EventDate falls inside
// [Start, End], inclusive.
type Window struct {
	Start Date
	End   Date
}

func (w Window) Contains(d Date) bool {
	return d.AfterOrEqual(w.Start) && d.BeforeOrEqual(w.End)
}

// Summary is the aggregate view of a record set.
type Summary struct {
	Count int

	// Payment money fields (minor units).
	TotalExpected  int64
	TotalCollected int64
	Outstanding    int64

	// CollectionRate = TotalCollected / TotalExpected, zero when nothing
	// is expected.
	CollectionRate decimal.Decimal

	// StatusCounts uses the effective status, so overdue payments are
	// counted as overdue even though the state is never stored.
	StatusCounts map[Status]int

	// Punctuality over completed payments.
	CompletedTotal  int
	CompletedOnTime int
	PunctualityRate decimal.Decimal

	// Malformed records excluded from the sums above.
	Malformed int
}

// GroupKeyFunc extracts the breakdown key for a record, e.g. its class or
// fee category.
type GroupKeyFunc func(Record) string

// Common group keys.
func GroupByClass(r Record) string    { return r.Group }
func GroupByCategory(r Record) string { return r.Category }

// Aggregate folds records inside the window into one summary, as of a given
// day (overdue and punctuality are read-time derivations).
func Aggregate(recs []Record, w Window, asOf Date) Summary {
	acc := newAccumulator()
	for _, r := range recs {
		if !w.Contains(r.EventDate()) {
			continue
		}
		acc.add(r, asOf)
	}
	return acc.summary()
}

// AggregateBy partitions records by key and folds each partition, in a
// single pass over the input rather than one scan per group.
func AggregateBy(recs []Record, w Window, asOf Date, key GroupKeyFunc) map[string]Summary {
	accs := make(map[string]*accumulator)
	for _, r := range recs {
		if !w.Contains(r.EventDate()) {
			continue
		}
		k := key(r)
		acc, ok := accs[k]
		if !ok {
			acc = newAccumulator()
			accs[k] = acc
		}
		acc.add(r, asOf)
	}
	out := make(map[string]Summary, len(accs))
	for k, acc := range accs {
		out[k] = acc.summary()
	}
	return out
}

// GroupKeys returns the breakdown keys in stable order, for deterministic
// report layout.
func GroupKeys(m map[string]Summary) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// =============================================================================
// ACCUMULATOR - Single-pass fold state
// =============================================================================

type accumulator struct {
	s Summary
}

func newAccumulator() *accumulator {
	return &accumulator{s: Summary{StatusCounts: make(map[Status]int)}}
}

func (a *accumulator) add(r Record, asOf Date) {
	if !r.WellFormed() {
		a.s.Malformed++
		return
	}
	a.s.Count++
	a.s.StatusCounts[EffectiveStatus(r, asOf)]++

	if r.Kind != KindPayment {
		return
	}
	a.s.TotalExpected += r.Total
	a.s.TotalCollected += r.Paid

	rec := Reconcile(r, asOf)
	if rec.Completed {
		a.s.CompletedTotal++
		if rec.Punctual {
			a.s.CompletedOnTime++
		}
	}
}

func (a *accumulator) summary() Summary {
	s := a.s
	s.Outstanding = s.TotalExpected - s.TotalCollected
	s.CollectionRate = ratio(s.TotalCollected, s.TotalExpected)
	s.PunctualityRate = ratio(int64(s.CompletedOnTime), int64(s.CompletedTotal))
	return s
}

// ratio returns num/den as a decimal, zero when den is zero.
func ratio(num, den int64) decimal.Decimal {
	if den == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(num).DivRound(decimal.NewFromInt(den), 4)
}
