// Package recorder applies full and partial payments against a generated
// schedule. Writes go through the payment store first; only a confirmed
// write mutates local state, as an optimistic patch tagged pending until a
// background reconciliation pass replaces the schedule wholesale.
package recorder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/lendex/emi-engine/internal/domain"
	"github.com/lendex/emi-engine/internal/schedule"
	apperrors "github.com/lendex/emi-engine/pkg/errors"
	"github.com/lendex/emi-engine/pkg/utils"
)

// DatePolicy selects the date stamped on a full payment record.
type DatePolicy string

const (
	// DatePolicyDueDate stamps the bucket's due date.
	DatePolicyDueDate DatePolicy = "due_date"
	// DatePolicyToday stamps the current date.
	DatePolicyToday DatePolicy = "today"
)

// ConfirmFunc is asked before an overpayment (amount above the bucket's
// remaining balance) is submitted. Returning false aborts the operation.
type ConfirmFunc func(amount, remaining decimal.Decimal) bool

// Gateway is the payment store the recorder writes through. Submissions
// must complete before any local schedule state is touched.
type Gateway interface {
	ListPayments(ctx context.Context, ob *domain.Obligation) ([]*domain.PaymentRecord, error)
	CreatePayment(ctx context.Context, ob *domain.Obligation, record *domain.PaymentRecord) (*domain.PaymentRecord, error)
}

// ReconcileFunc receives the authoritative schedule produced by a
// background reconciliation pass. On reconciliation failure it receives
// the pre-patch snapshot instead, rolling back the optimistic state.
type ReconcileFunc func(ob *domain.Obligation, buckets []*domain.ScheduleBucket)

// Recorder serializes payment operations per obligation and keeps the
// optimistic-patch / reconcile protocol in one place.
type Recorder struct {
	gateway     Gateway
	onReconcile ReconcileFunc
	logger      *logrus.Logger
	now         func() time.Time

	reconcileTimeout time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	inflight sync.WaitGroup
}

func New(gateway Gateway, logger *logrus.Logger) *Recorder {
	return &Recorder{
		gateway:          gateway,
		logger:           logger,
		now:              time.Now,
		reconcileTimeout: 30 * time.Second,
		locks:            make(map[string]*sync.Mutex),
	}
}

// OnReconcile registers the callback invoked when a background
// reconciliation pass completes or rolls back.
func (r *Recorder) OnReconcile(fn ReconcileFunc) {
	r.onReconcile = fn
}

// Wait blocks until all in-flight background reconciliations finish.
// Called on shutdown and by tests.
func (r *Recorder) Wait() {
	r.inflight.Wait()
}

func (r *Recorder) lockFor(obligationID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[obligationID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[obligationID] = lock
	}
	return lock
}

// RecordFull submits a payment settling an entire bucket. Rejected when
// the bucket is already paid. The record's date follows the given policy.
func (r *Recorder) RecordFull(ctx context.Context, ob *domain.Obligation, buckets []*domain.ScheduleBucket, index int, policy DatePolicy, remarks string) ([]*domain.ScheduleBucket, error) {
	lock := r.lockFor(ob.ID)
	lock.Lock()
	defer lock.Unlock()

	if index < 0 || index >= len(buckets) {
		return nil, apperrors.WrapBucketOutOfRange(index, len(buckets))
	}
	bucket := buckets[index]
	if bucket.Paid() {
		return nil, apperrors.WrapBucketAlreadyPaid(bucket.PeriodLabel)
	}

	date := utils.DateOnly(r.now())
	if policy == DatePolicyDueDate {
		date = bucket.DueDate
	}

	record := &domain.PaymentRecord{
		ObligationID:   ob.ID,
		ObligationType: ob.Type,
		Amount:         bucket.ObligationAmount,
		Date:           date,
		Note:           fmt.Sprintf("Full payment for %s", bucket.PeriodLabel),
		Remarks:        remarks,
	}

	if _, err := r.gateway.CreatePayment(ctx, ob, record); err != nil {
		return nil, apperrors.WrapNetworkFailure(err)
	}

	patched := patchBuckets(buckets, index, func(b *domain.ScheduleBucket) {
		b.Status = domain.BucketStatusPaid
		b.TotalPaid = b.ObligationAmount
		b.RemainingAmount = decimal.Zero
		b.IsPastDue = false
		b.PaidDate = &date
		b.Pending = true
	})

	r.reconcileAsync(ob, buckets)
	return patched, nil
}

// RecordPartial submits a payment covering part of a bucket. Amounts at or
// above the full obligation are rejected; amounts above the remaining
// balance need explicit confirmation. The record's date defaults to today.
func (r *Recorder) RecordPartial(ctx context.Context, ob *domain.Obligation, buckets []*domain.ScheduleBucket, index int, amount decimal.Decimal, date time.Time, remarks string, confirm ConfirmFunc) ([]*domain.ScheduleBucket, error) {
	lock := r.lockFor(ob.ID)
	lock.Lock()
	defer lock.Unlock()

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.WrapInvalidAmount(utils.FormatAmount(amount))
	}
	if index < 0 || index >= len(buckets) {
		return nil, apperrors.WrapBucketOutOfRange(index, len(buckets))
	}
	bucket := buckets[index]
	if bucket.Paid() {
		return nil, apperrors.WrapBucketAlreadyPaid(bucket.PeriodLabel)
	}

	if amount.GreaterThan(bucket.RemainingAmount) {
		if confirm == nil || !confirm(amount, bucket.RemainingAmount) {
			return nil, apperrors.WrapOverpayNotConfirmed(utils.FormatAmount(amount), utils.FormatAmount(bucket.RemainingAmount))
		}
	}
	if amount.GreaterThanOrEqual(bucket.ObligationAmount) {
		return nil, apperrors.WrapUseFullPaymentInstead(utils.FormatAmount(amount), utils.FormatAmount(bucket.ObligationAmount))
	}

	if date.IsZero() {
		date = r.now()
	}
	date = utils.DateOnly(date)

	record := &domain.PaymentRecord{
		ObligationID:   ob.ID,
		ObligationType: ob.Type,
		Amount:         amount,
		Date:           date,
		Note: fmt.Sprintf("Partial payment for %s - %s of %s",
			bucket.PeriodLabel, utils.FormatAmount(amount), utils.FormatAmount(bucket.ObligationAmount)),
		Remarks: remarks,
	}

	if _, err := r.gateway.CreatePayment(ctx, ob, record); err != nil {
		return nil, apperrors.WrapNetworkFailure(err)
	}

	patched := patchBuckets(buckets, index, func(b *domain.ScheduleBucket) {
		b.TotalPaid = b.TotalPaid.Add(amount)
		b.Status = schedule.Classify(b.TotalPaid, b.ObligationAmount)
		b.RemainingAmount = schedule.Remaining(b.TotalPaid, b.ObligationAmount)
		if b.Status == domain.BucketStatusPaid {
			b.IsPastDue = false
		}
		b.PaidDate = &date
		b.Pending = true
	})

	r.reconcileAsync(ob, buckets)
	return patched, nil
}

// reconcileAsync refetches the authoritative payment list and regenerates
// the schedule, replacing any optimistic patch. Failures are logged and
// swallowed; the pre-patch snapshot is delivered instead so callers fall
// back to last-known-good state.
func (r *Recorder) reconcileAsync(ob *domain.Obligation, snapshot []*domain.ScheduleBucket) {
	if r.onReconcile == nil {
		return
	}

	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.reconcileTimeout)
		defer cancel()

		payments, err := r.gateway.ListPayments(ctx, ob)
		if err != nil {
			r.logger.WithError(err).WithField("obligation_id", ob.ID).
				Warn("schedule reconciliation failed, rolling back optimistic patch")
			r.onReconcile(ob, snapshot)
			return
		}

		r.onReconcile(ob, schedule.Generate(ob, payments, r.now()))
	}()
}

// patchBuckets clones the schedule and applies a mutation to one bucket,
// leaving the caller's slice untouched.
func patchBuckets(buckets []*domain.ScheduleBucket, index int, mutate func(*domain.ScheduleBucket)) []*domain.ScheduleBucket {
	patched := make([]*domain.ScheduleBucket, len(buckets))
	copy(patched, buckets)

	clone := *buckets[index]
	mutate(&clone)
	patched[index] = &clone

	return patched
}
