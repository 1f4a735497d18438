package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lendex/emi-engine/internal/domain"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, record *domain.PaymentRecord) error {
	query := `
		INSERT INTO payments (id, obligation_id, obligation_type, amount, date, note, remarks, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.ObligationID,
		record.ObligationType,
		record.Amount,
		record.Date,
		record.Note,
		record.Remarks,
		record.CreatedAt,
	)

	return err
}

func (r *paymentRepository) ListByObligation(ctx context.Context, obligationType, obligationID string) ([]*domain.PaymentRecord, error) {
	query := `
		SELECT id, obligation_id, obligation_type, amount, date, note, remarks, created_at
		FROM payments
		WHERE obligation_type = $1 AND obligation_id = $2
		ORDER BY date, created_at
	`

	var records []*domain.PaymentRecord
	err := r.db.SelectContext(ctx, &records, query, obligationType, obligationID)
	if err != nil {
		return nil, err
	}

	return records, nil
}
