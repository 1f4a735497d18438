package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/lendex/emi-engine/internal/domain"
)

type emiRepository struct {
	db *sqlx.DB
}

func NewEMIRepository(db *sqlx.DB) EMIRepository {
	return &emiRepository{db: db}
}

func (r *emiRepository) GetByID(ctx context.Context, id string) (*domain.EMI, error) {
	query := `
		SELECT id, borrower_name, total_amount, given_in_cash, given_date, emi_amount, tenure, start_date, completed, created_at, updated_at
		FROM emis
		WHERE id = $1
	`

	var emi domain.EMI
	err := r.db.GetContext(ctx, &emi, query, id)
	if err != nil {
		return nil, err
	}

	return &emi, nil
}

func (r *emiRepository) ListActive(ctx context.Context) ([]*domain.EMI, error) {
	query := `
		SELECT id, borrower_name, total_amount, given_in_cash, given_date, emi_amount, tenure, start_date, completed, created_at, updated_at
		FROM emis
		WHERE completed = false
		ORDER BY start_date
	`

	var emis []*domain.EMI
	err := r.db.SelectContext(ctx, &emis, query)
	if err != nil {
		return nil, err
	}

	return emis, nil
}
