// Package schedule derives month-by-month payment schedules from an
// obligation and its authoritative payment list. Generation is pure: the
// full bucket sequence is rebuilt from scratch on every call, no
// incremental state is kept between calls.
package schedule

import (
	"time"

	"github.com/lendex/emi-engine/internal/domain"
	"github.com/lendex/emi-engine/pkg/utils"
)

const (
	// MinOpenEndedPeriods is the floor on open-ended schedules: even a
	// future-dated loan shows at least this many upcoming buckets.
	MinOpenEndedPeriods = 3

	// MaxPeriodsPerCall caps a single generation pass for open-ended
	// obligations. Callers needing a longer history re-invoke with an
	// adjusted reference date.
	MaxPeriodsPerCall = 24
)

// Generate produces the ordered bucket schedule for an obligation given
// the raw payment list and a reference date. Open-ended obligations extend
// while the due date has not passed today (minimum MinOpenEndedPeriods,
// capped at MaxPeriodsPerCall); bounded obligations emit exactly PeriodCount
// buckets. Month advancement clamps the day-of-month to the target
// month's length.
func Generate(ob *domain.Obligation, payments []*domain.PaymentRecord, today time.Time) []*domain.ScheduleBucket {
	today = utils.DateOnly(today)
	byMonth := aggregateByMonth(payments)

	var buckets []*domain.ScheduleBucket
	start := utils.DateOnly(ob.StartDate)

	for k := 0; ; k++ {
		// Each due date is computed from the start date, not from the
		// previous due date: a clamped month end (Jan 31 -> Feb 29) must
		// not drag later periods down (Mar 31 stays Mar 31).
		cursor := utils.AddMonthsClamped(start, k)

		if ob.Bounded() {
			if k >= ob.PeriodCount {
				break
			}
		} else {
			if k >= MaxPeriodsPerCall {
				break
			}
			if cursor.After(today) && k >= MinOpenEndedPeriods {
				break
			}
		}

		buckets = append(buckets, buildBucket(ob, cursor, today, byMonth.take(cursor)))
	}

	return buckets
}

func buildBucket(ob *domain.Obligation, dueDate, today time.Time, agg monthAggregate) *domain.ScheduleBucket {
	status := Classify(agg.totalPaid, ob.PeriodicAmount)

	bucket := &domain.ScheduleBucket{
		PeriodLabel:      utils.PeriodLabel(dueDate),
		DueDate:          dueDate,
		ObligationAmount: ob.PeriodicAmount,
		TotalPaid:        agg.totalPaid,
		RemainingAmount:  Remaining(agg.totalPaid, ob.PeriodicAmount),
		Status:           status,
		PaidDate:         agg.earliestDate,
	}
	bucket.IsPastDue = utils.IsDateOverdue(dueDate, today) && status != domain.BucketStatusPaid

	return bucket
}
