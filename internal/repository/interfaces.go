package repository

import (
	"context"

	"github.com/lendex/emi-engine/internal/domain"
)

// LoanRepository reads loan aggregates. Loan lifecycle writes belong to
// the system of record, not this engine.
type LoanRepository interface {
	// GetByID retrieves a loan by ID
	GetByID(ctx context.Context, id string) (*domain.Loan, error)

	// ListActive retrieves all loans not yet repaid
	ListActive(ctx context.Context) ([]*domain.Loan, error)
}

// EMIRepository reads EMI aggregates.
type EMIRepository interface {
	// GetByID retrieves an EMI by ID
	GetByID(ctx context.Context, id string) (*domain.EMI, error)

	// ListActive retrieves all EMIs not yet completed
	ListActive(ctx context.Context) ([]*domain.EMI, error)
}

// PaymentRepository defines the interface for payment record operations.
// Records are append-only: there is no update or delete.
type PaymentRepository interface {
	// Create appends a new payment record
	Create(ctx context.Context, record *domain.PaymentRecord) error

	// ListByObligation retrieves all payments for an obligation, oldest first
	ListByObligation(ctx context.Context, obligationType, obligationID string) ([]*domain.PaymentRecord, error)
}
