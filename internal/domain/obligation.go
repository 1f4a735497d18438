package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ObligationTypeLoan = "loan"
	ObligationTypeEMI  = "emi"
)

// Loan is an interest-only loan aggregate. The monthly obligation is
// principal * monthly rate / 100, recomputed from the current values on
// every schedule regeneration.
type Loan struct {
	ID                string          `json:"id" db:"id"`
	BorrowerName      string          `json:"borrower_name" db:"borrower_name"`
	Principal         decimal.Decimal `json:"principal" db:"principal"`
	MonthlyRate       decimal.Decimal `json:"monthly_interest_rate" db:"monthly_rate"`
	IssuedDate        time.Time       `json:"issued_date" db:"issued_date"`
	TrackingStartDate *time.Time      `json:"tracking_start_date,omitempty" db:"tracking_start_date"`
	Repaid            bool            `json:"repaid" db:"repaid"`
	Remarks           string          `json:"remarks" db:"remarks"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// EMI is a fixed-installment aggregate with a bounded tenure.
type EMI struct {
	ID           string          `json:"id" db:"id"`
	BorrowerName string          `json:"borrower_name" db:"borrower_name"`
	TotalAmount  decimal.Decimal `json:"total_amount" db:"total_amount"`
	GivenInCash  decimal.Decimal `json:"given_in_cash" db:"given_in_cash"`
	GivenDate    time.Time       `json:"given_date" db:"given_date"`
	EMIAmount    decimal.Decimal `json:"emi_amount" db:"emi_amount"`
	Tenure       int             `json:"tenure" db:"tenure"`
	StartDate    time.Time       `json:"start_date" db:"start_date"`
	Completed    bool            `json:"completed" db:"completed"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// Obligation is the normalized recurring liability a schedule is derived
// from. PeriodCount 0 means open-ended: the schedule extends from StartDate
// to the current date.
type Obligation struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	PeriodicAmount decimal.Decimal `json:"periodic_amount"`
	StartDate      time.Time       `json:"start_date"`
	PeriodCount    int             `json:"period_count"`
}

// Bounded reports whether the obligation has a fixed number of periods.
func (o *Obligation) Bounded() bool {
	return o.PeriodCount > 0
}
