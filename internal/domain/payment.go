package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentRecord is a single recorded payment against an obligation.
// Records are append-only: once created they are never edited or deleted.
type PaymentRecord struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	ObligationID   string          `json:"obligation_id" db:"obligation_id"`
	ObligationType string          `json:"obligation_type" db:"obligation_type"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	Date           time.Time       `json:"date" db:"date"`
	Note           string          `json:"note" db:"note"`
	Remarks        string          `json:"remarks" db:"remarks"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// DTOs for requests and responses

type CreatePaymentRequest struct {
	Amount  string `json:"amount" validate:"required"`
	Date    string `json:"date" validate:"required"`
	Note    string `json:"note"`
	Remarks string `json:"remarks"`
}

type RecordFullPaymentRequest struct {
	BucketIndex int    `json:"bucket_index" validate:"gte=0"`
	DatePolicy  string `json:"date_policy" validate:"omitempty,oneof=due_date today"`
	Remarks     string `json:"remarks"`
}

type RecordPartialPaymentRequest struct {
	BucketIndex    int    `json:"bucket_index" validate:"gte=0"`
	Amount         string `json:"amount" validate:"required"`
	Date           string `json:"date"`
	Remarks        string `json:"remarks"`
	ConfirmOverpay bool   `json:"confirm_overpay"`
}
