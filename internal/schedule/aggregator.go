package schedule

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/lendex/emi-engine/internal/domain"
	"github.com/lendex/emi-engine/pkg/utils"
)

// Tolerance absorbs floating rounding when judging whether a bucket is
// fully paid: totalPaid >= obligation - 0.01 counts as paid.
var Tolerance = decimal.New(1, -2)

type monthAggregate struct {
	totalPaid    decimal.Decimal
	earliestDate *time.Time
}

type monthIndex map[string]monthAggregate

// aggregateByMonth groups raw payments into calendar-month buckets keyed
// by YYYY-MM, summing amounts and tracking the earliest payment date per
// month. The earliest date is the displayed paid date: an explicit,
// deterministic tie-break when several payments land in the same month.
func aggregateByMonth(payments []*domain.PaymentRecord) monthIndex {
	index := make(monthIndex, len(payments))
	for _, p := range payments {
		key := utils.MonthKey(p.Date)
		agg := index[key]
		agg.totalPaid = agg.totalPaid.Add(p.Amount)
		if agg.earliestDate == nil || p.Date.Before(*agg.earliestDate) {
			d := p.Date
			agg.earliestDate = &d
		}
		index[key] = agg
	}
	return index
}

// take consumes the aggregate for a due date's month. Consuming keeps a
// payment attributed to at most one bucket.
func (m monthIndex) take(dueDate time.Time) monthAggregate {
	key := utils.MonthKey(dueDate)
	agg, ok := m[key]
	if !ok {
		return monthAggregate{totalPaid: decimal.Zero}
	}
	delete(m, key)
	return agg
}

// Classify decides paid/partial/unpaid from the aggregated amount versus
// the obligation amount.
func Classify(totalPaid, obligationAmount decimal.Decimal) string {
	switch {
	case totalPaid.GreaterThanOrEqual(obligationAmount.Sub(Tolerance)):
		return domain.BucketStatusPaid
	case totalPaid.GreaterThan(decimal.Zero):
		return domain.BucketStatusPartial
	default:
		return domain.BucketStatusUnpaid
	}
}

// Remaining computes the unpaid remainder of a bucket, zero when the
// bucket is settled within tolerance.
func Remaining(totalPaid, obligationAmount decimal.Decimal) decimal.Decimal {
	if Classify(totalPaid, obligationAmount) == domain.BucketStatusPaid {
		return decimal.Zero
	}
	remaining := obligationAmount.Sub(totalPaid)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}
