package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lendex/emi-engine/internal/config"
	"github.com/lendex/emi-engine/internal/domain"
	apperrors "github.com/lendex/emi-engine/pkg/errors"
)

type mockLoanRepo struct {
	mock.Mock
}

func (m *mockLoanRepo) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *mockLoanRepo) ListActive(ctx context.Context) ([]*domain.Loan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

type mockEMIRepo struct {
	mock.Mock
}

func (m *mockEMIRepo) GetByID(ctx context.Context, id string) (*domain.EMI, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EMI), args.Error(1)
}

func (m *mockEMIRepo) ListActive(ctx context.Context) ([]*domain.EMI, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.EMI), args.Error(1)
}

// fakePaymentRepo is an in-memory append-only payment store, enough to
// drive the write-through and reconciliation paths end to end.
type fakePaymentRepo struct {
	mu      sync.Mutex
	records []*domain.PaymentRecord
}

func (f *fakePaymentRepo) Create(ctx context.Context, record *domain.PaymentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return nil
}

func (f *fakePaymentRepo) ListByObligation(ctx context.Context, obligationType, obligationID string) ([]*domain.PaymentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.PaymentRecord
	for _, r := range f.records {
		if r.ObligationType == obligationType && r.ObligationID == obligationID {
			out = append(out, r)
		}
	}
	return out, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testConfig() *config.Config {
	return &config.Config{
		Business: config.BusinessConfig{
			FullPaymentDatePolicy: "due_date",
			ScheduleCacheTTL:      time.Minute,
		},
	}
}

func testLoan() *domain.Loan {
	return &domain.Loan{
		ID:           "L1",
		BorrowerName: "Vinoth",
		Principal:    decimal.NewFromInt(50000),
		MonthlyRate:  decimal.NewFromInt(2),
		IssuedDate:   date(2024, time.January, 15),
	}
}

func newTestService(loanRepo *mockLoanRepo, emiRepo *mockEMIRepo, payments *fakePaymentRepo) *ScheduleService {
	s := NewScheduleService(loanRepo, emiRepo, NewRepositoryGateway(payments), nil, testConfig(), logrus.New())
	s.now = func() time.Time { return date(2024, time.March, 20) }
	return s
}

func TestGetSchedule_Loan(t *testing.T) {
	loanRepo := &mockLoanRepo{}
	emiRepo := &mockEMIRepo{}
	payments := &fakePaymentRepo{}
	payments.records = []*domain.PaymentRecord{
		{ObligationID: "L1", ObligationType: domain.ObligationTypeLoan, Amount: decimal.NewFromInt(1000), Date: date(2024, time.January, 20)},
	}

	loanRepo.On("GetByID", mock.Anything, "L1").Return(testLoan(), nil)

	s := newTestService(loanRepo, emiRepo, payments)

	resp, err := s.GetSchedule(context.Background(), domain.ObligationTypeLoan, "L1")

	require.NoError(t, err)
	assert.Equal(t, "L1", resp.ObligationID)
	require.Len(t, resp.Schedule, 3)
	assert.Equal(t, domain.BucketStatusPaid, resp.Schedule[0].Status)
	assert.Equal(t, domain.BucketStatusUnpaid, resp.Schedule[1].Status)

	loanRepo.AssertExpectations(t)
}

func TestGetSchedule_NotFound(t *testing.T) {
	loanRepo := &mockLoanRepo{}
	emiRepo := &mockEMIRepo{}

	loanRepo.On("GetByID", mock.Anything, "missing").Return(nil, sql.ErrNoRows)

	s := newTestService(loanRepo, emiRepo, &fakePaymentRepo{})

	_, err := s.GetSchedule(context.Background(), domain.ObligationTypeLoan, "missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrObligationNotFound)
}

func TestRecordFullPayment_WritesThroughAndReconciles(t *testing.T) {
	loanRepo := &mockLoanRepo{}
	emiRepo := &mockEMIRepo{}
	payments := &fakePaymentRepo{}

	loanRepo.On("GetByID", mock.Anything, "L1").Return(testLoan(), nil)

	s := newTestService(loanRepo, emiRepo, payments)

	resp, err := s.RecordFullPayment(context.Background(), domain.ObligationTypeLoan, "L1",
		&domain.RecordFullPaymentRequest{BucketIndex: 0})

	require.NoError(t, err)
	assert.Equal(t, domain.BucketStatusPaid, resp.Schedule[0].Status)
	assert.True(t, resp.Schedule[0].Pending)

	s.Recorder().Wait()

	// The payment landed in the store, so a fresh regeneration agrees
	// with the optimistic patch.
	stored, err := payments.ListByObligation(context.Background(), domain.ObligationTypeLoan, "L1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.True(t, stored[0].Amount.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, date(2024, time.January, 15), stored[0].Date)

	fresh, err := s.GetSchedule(context.Background(), domain.ObligationTypeLoan, "L1")
	require.NoError(t, err)
	assert.Equal(t, domain.BucketStatusPaid, fresh.Schedule[0].Status)
	assert.False(t, fresh.Schedule[0].Pending)
}

func TestRecordPartialPayment_Flow(t *testing.T) {
	loanRepo := &mockLoanRepo{}
	emiRepo := &mockEMIRepo{}
	payments := &fakePaymentRepo{}

	loanRepo.On("GetByID", mock.Anything, "L1").Return(testLoan(), nil)

	s := newTestService(loanRepo, emiRepo, payments)

	resp, err := s.RecordPartialPayment(context.Background(), domain.ObligationTypeLoan, "L1",
		&domain.RecordPartialPaymentRequest{BucketIndex: 0, Amount: "400"})
	require.NoError(t, err)
	assert.Equal(t, domain.BucketStatusPartial, resp.Schedule[0].Status)
	assert.True(t, resp.Schedule[0].RemainingAmount.Equal(decimal.NewFromInt(600)))

	s.Recorder().Wait()

	resp, err = s.RecordPartialPayment(context.Background(), domain.ObligationTypeLoan, "L1",
		&domain.RecordPartialPaymentRequest{BucketIndex: 0, Amount: "600"})
	require.NoError(t, err)
	assert.Equal(t, domain.BucketStatusPaid, resp.Schedule[0].Status)
	assert.True(t, resp.Schedule[0].RemainingAmount.IsZero())

	s.Recorder().Wait()
}

func TestRecordPartialPayment_InvalidAmount(t *testing.T) {
	loanRepo := &mockLoanRepo{}
	emiRepo := &mockEMIRepo{}

	loanRepo.On("GetByID", mock.Anything, "L1").Return(testLoan(), nil)

	s := newTestService(loanRepo, emiRepo, &fakePaymentRepo{})

	_, err := s.RecordPartialPayment(context.Background(), domain.ObligationTypeLoan, "L1",
		&domain.RecordPartialPaymentRequest{BucketIndex: 0, Amount: "not-a-number"})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
}

func TestCreatePayment_RejectsNonPositiveAmount(t *testing.T) {
	loanRepo := &mockLoanRepo{}
	emiRepo := &mockEMIRepo{}

	loanRepo.On("GetByID", mock.Anything, "L1").Return(testLoan(), nil)

	s := newTestService(loanRepo, emiRepo, &fakePaymentRepo{})

	_, err := s.CreatePayment(context.Background(), domain.ObligationTypeLoan, "L1",
		&domain.CreatePaymentRequest{Amount: "0", Date: "2024-01-20"})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
}

func TestGetOutstanding(t *testing.T) {
	loanRepo := &mockLoanRepo{}
	emiRepo := &mockEMIRepo{}
	payments := &fakePaymentRepo{}
	payments.records = []*domain.PaymentRecord{
		{ObligationID: "L1", ObligationType: domain.ObligationTypeLoan, Amount: decimal.NewFromInt(400), Date: date(2024, time.January, 20)},
	}

	loanRepo.On("GetByID", mock.Anything, "L1").Return(testLoan(), nil)

	s := newTestService(loanRepo, emiRepo, payments)

	out, err := s.GetOutstanding(context.Background(), domain.ObligationTypeLoan, "L1")

	require.NoError(t, err)
	assert.True(t, out.TotalDue.Equal(decimal.NewFromInt(3000)))
	assert.True(t, out.TotalPaid.Equal(decimal.NewFromInt(400)))
	assert.True(t, out.OutstandingAmount.Equal(decimal.NewFromInt(2600)))
}

func TestOverdueSnapshots(t *testing.T) {
	loanRepo := &mockLoanRepo{}
	emiRepo := &mockEMIRepo{}
	payments := &fakePaymentRepo{}

	loanRepo.On("ListActive", mock.Anything).Return([]*domain.Loan{testLoan()}, nil)
	emiRepo.On("ListActive", mock.Anything).Return([]*domain.EMI{
		{
			ID:           "E1",
			BorrowerName: "Axis",
			EMIAmount:    decimal.NewFromInt(5000),
			Tenure:       12,
			StartDate:    date(2024, time.February, 1),
		},
	}, nil)

	s := newTestService(loanRepo, emiRepo, payments)

	alerts, err := s.OverdueSnapshots(context.Background())

	require.NoError(t, err)
	require.Len(t, alerts, 2)

	// Loan: Jan 15, Feb 15 and Mar 15 buckets are all past Mar 20.
	assert.Equal(t, "L1", alerts[0].ObligationID)
	assert.Equal(t, 3, alerts[0].TotalOverdue)
	assert.True(t, alerts[0].OverdueAmount.Equal(decimal.NewFromInt(3000)))

	// EMI: Feb 1 and Mar 1 are overdue, the remaining tenure is not.
	assert.Equal(t, "E1", alerts[1].ObligationID)
	assert.Equal(t, 2, alerts[1].TotalOverdue)
	assert.True(t, alerts[1].OverdueAmount.Equal(decimal.NewFromInt(10000)))
}
