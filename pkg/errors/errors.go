package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrObligationNotFound    = errors.New("obligation not found")
	ErrInvalidObligation     = errors.New("invalid obligation")
	ErrInvalidAmount         = errors.New("invalid payment amount")
	ErrInvalidDate           = errors.New("invalid payment date")
	ErrUseFullPaymentInstead = errors.New("amount covers the full obligation, record a full payment instead")
	ErrBucketAlreadyPaid     = errors.New("schedule bucket is already paid")
	ErrBucketOutOfRange      = errors.New("schedule bucket index out of range")
	ErrOverpayNotConfirmed   = errors.New("overpayment requires confirmation")
	ErrNetworkFailure        = errors.New("payment store request failed")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeObligationNotFound    = "OBLIGATION_NOT_FOUND"
	ErrCodeInvalidObligation     = "INVALID_OBLIGATION"
	ErrCodeInvalidAmount         = "INVALID_AMOUNT"
	ErrCodeInvalidDate           = "INVALID_DATE"
	ErrCodeUseFullPaymentInstead = "USE_FULL_PAYMENT_INSTEAD"
	ErrCodeBucketAlreadyPaid     = "BUCKET_ALREADY_PAID"
	ErrCodeBucketOutOfRange      = "BUCKET_OUT_OF_RANGE"
	ErrCodeOverpayNotConfirmed   = "OVERPAY_NOT_CONFIRMED"
	ErrCodeNetworkFailure        = "NETWORK_FAILURE"
	ErrCodeDatabaseError         = "DATABASE_ERROR"
)

// Wrap common errors with business context
func WrapObligationNotFound(id string) *BusinessError {
	return NewBusinessError(
		ErrCodeObligationNotFound,
		fmt.Sprintf("Obligation with ID %s not found", id),
		ErrObligationNotFound,
	)
}

func WrapInvalidObligation(id, reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidObligation,
		fmt.Sprintf("Obligation %s cannot be scheduled: %s", id, reason),
		ErrInvalidObligation,
	)
}

func WrapInvalidAmount(amount string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidAmount,
		fmt.Sprintf("Invalid payment amount: %s", amount),
		ErrInvalidAmount,
	)
}

func WrapInvalidDate(date string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidDate,
		fmt.Sprintf("Invalid payment date: %s", date),
		ErrInvalidDate,
	)
}

func WrapUseFullPaymentInstead(amount, obligation string) *BusinessError {
	return NewBusinessError(
		ErrCodeUseFullPaymentInstead,
		fmt.Sprintf("Amount %s covers the full obligation of %s, record a full payment instead", amount, obligation),
		ErrUseFullPaymentInstead,
	)
}

func WrapBucketAlreadyPaid(period string) *BusinessError {
	return NewBusinessError(
		ErrCodeBucketAlreadyPaid,
		fmt.Sprintf("Schedule bucket %s is already fully paid", period),
		ErrBucketAlreadyPaid,
	)
}

func WrapBucketOutOfRange(index, count int) *BusinessError {
	return NewBusinessError(
		ErrCodeBucketOutOfRange,
		fmt.Sprintf("Bucket index %d is outside the generated schedule of %d buckets", index, count),
		ErrBucketOutOfRange,
	)
}

func WrapOverpayNotConfirmed(amount, remaining string) *BusinessError {
	return NewBusinessError(
		ErrCodeOverpayNotConfirmed,
		fmt.Sprintf("Amount %s exceeds the remaining %s for this period, confirmation required", amount, remaining),
		ErrOverpayNotConfirmed,
	)
}

func WrapNetworkFailure(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeNetworkFailure,
		"payment store request failed",
		err,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}
