package domain

import (
	"github.com/shopspring/decimal"

	apperrors "github.com/lendex/emi-engine/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// NormalizeLoan derives the monthly obligation from an interest-only loan:
// principal * monthly rate / 100, starting at the tracking start date when
// one is set, otherwise the issue date. Loans are open-ended.
func NormalizeLoan(loan *Loan) (*Obligation, error) {
	if loan.Principal.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.WrapInvalidObligation(loan.ID, "principal must be greater than zero")
	}
	if loan.MonthlyRate.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.WrapInvalidObligation(loan.ID, "monthly interest rate must be greater than zero")
	}

	start := loan.IssuedDate
	if loan.TrackingStartDate != nil && !loan.TrackingStartDate.IsZero() {
		start = *loan.TrackingStartDate
	}
	if start.IsZero() {
		return nil, apperrors.WrapInvalidObligation(loan.ID, "missing issue date")
	}

	return &Obligation{
		ID:             loan.ID,
		Type:           ObligationTypeLoan,
		PeriodicAmount: loan.Principal.Mul(loan.MonthlyRate).Div(hundred),
		StartDate:      start,
	}, nil
}

// NormalizeEMI derives the monthly obligation from a fixed-installment EMI.
func NormalizeEMI(emi *EMI) (*Obligation, error) {
	if emi.EMIAmount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.WrapInvalidObligation(emi.ID, "installment amount must be greater than zero")
	}
	if emi.Tenure < 1 {
		return nil, apperrors.WrapInvalidObligation(emi.ID, "tenure must be at least one month")
	}
	if emi.StartDate.IsZero() {
		return nil, apperrors.WrapInvalidObligation(emi.ID, "missing start date")
	}

	return &Obligation{
		ID:             emi.ID,
		Type:           ObligationTypeEMI,
		PeriodicAmount: emi.EMIAmount,
		StartDate:      emi.StartDate,
		PeriodCount:    emi.Tenure,
	}, nil
}
