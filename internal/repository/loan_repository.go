package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/lendex/emi-engine/internal/domain"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	query := `
		SELECT id, borrower_name, principal, monthly_rate, issued_date, tracking_start_date, repaid, remarks, created_at, updated_at
		FROM loans
		WHERE id = $1
	`

	var loan domain.Loan
	err := r.db.GetContext(ctx, &loan, query, id)
	if err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) ListActive(ctx context.Context) ([]*domain.Loan, error) {
	query := `
		SELECT id, borrower_name, principal, monthly_rate, issued_date, tracking_start_date, repaid, remarks, created_at, updated_at
		FROM loans
		WHERE repaid = false
		ORDER BY issued_date
	`

	var loans []*domain.Loan
	err := r.db.SelectContext(ctx, &loans, query)
	if err != nil {
		return nil, err
	}

	return loans, nil
}
