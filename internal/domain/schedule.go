package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Business logic constants
const (
	BucketStatusPaid    = "paid"
	BucketStatusPartial = "partial"
	BucketStatusUnpaid  = "unpaid"
)

// ScheduleBucket is one month of the derived payment schedule. Buckets are
// recomputed from the obligation and the authoritative payment list on every
// load; they are never persisted.
type ScheduleBucket struct {
	PeriodLabel      string          `json:"period_label"`
	DueDate          time.Time       `json:"due_date"`
	ObligationAmount decimal.Decimal `json:"obligation_amount"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	RemainingAmount  decimal.Decimal `json:"remaining_amount"`
	Status           string          `json:"status"` // paid, partial, unpaid
	IsPastDue        bool            `json:"is_past_due"`
	PaidDate         *time.Time      `json:"paid_date,omitempty"`
	// Pending marks an optimistic local patch that has not yet been
	// confirmed by a reconciliation pass against the payment store.
	Pending bool `json:"pending,omitempty"`
}

// Paid reports whether the bucket is settled within tolerance.
func (b *ScheduleBucket) Paid() bool {
	return b.Status == BucketStatusPaid
}

type ScheduleResponse struct {
	ObligationID string            `json:"obligation_id"`
	Type         string            `json:"type"`
	Schedule     []*ScheduleBucket `json:"schedule"`
}

// OutstandingResponse summarizes how much of an obligation's scheduled
// total has not been paid yet.
type OutstandingResponse struct {
	ObligationID      string          `json:"obligation_id"`
	Type              string          `json:"type"`
	TotalDue          decimal.Decimal `json:"total_due"`
	TotalPaid         decimal.Decimal `json:"total_paid"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
}

// OverdueAlert is emitted by the reminder sweep when buckets of an
// obligation have become overdue since the previous check.
type OverdueAlert struct {
	ObligationID   string          `json:"obligation_id"`
	ObligationType string          `json:"obligation_type"`
	BorrowerName   string          `json:"borrower_name"`
	NewlyOverdue   int             `json:"newly_overdue"`
	TotalOverdue   int             `json:"total_overdue"`
	OverdueAmount  decimal.Decimal `json:"overdue_amount"`
	CheckedAt      time.Time       `json:"checked_at"`
}
