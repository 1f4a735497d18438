package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/lendex/emi-engine/internal/config"
	"github.com/lendex/emi-engine/internal/domain"
	"github.com/lendex/emi-engine/internal/recorder"
	"github.com/lendex/emi-engine/internal/repository"
	"github.com/lendex/emi-engine/internal/schedule"
	apperrors "github.com/lendex/emi-engine/pkg/errors"
	"github.com/lendex/emi-engine/pkg/utils"
)

// ScheduleService ties the repositories, the schedule engine and the
// payment recorder together, with a Redis cache in front of generated
// schedules.
type ScheduleService struct {
	loanRepo repository.LoanRepository
	emiRepo  repository.EMIRepository
	gateway  recorder.Gateway
	recorder *recorder.Recorder
	redis    *redis.Client
	config   *config.Config
	logger   *logrus.Logger
	now      func() time.Time
}

func NewScheduleService(
	loanRepo repository.LoanRepository,
	emiRepo repository.EMIRepository,
	gateway recorder.Gateway,
	redisClient *redis.Client,
	cfg *config.Config,
	logger *logrus.Logger,
) *ScheduleService {
	s := &ScheduleService{
		loanRepo: loanRepo,
		emiRepo:  emiRepo,
		gateway:  gateway,
		redis:    redisClient,
		config:   cfg,
		logger:   logger,
		now:      time.Now,
	}

	s.recorder = recorder.New(gateway, logger)
	s.recorder.OnReconcile(s.storeReconciled)

	return s
}

// Recorder exposes the underlying recorder so callers can drain in-flight
// reconciliations on shutdown.
func (s *ScheduleService) Recorder() *recorder.Recorder {
	return s.recorder
}

// Normalize loads the aggregate for an obligation and derives its
// normalized form.
func (s *ScheduleService) Normalize(ctx context.Context, obligationType, id string) (*domain.Obligation, error) {
	switch obligationType {
	case domain.ObligationTypeEMI:
		emi, err := s.emiRepo.GetByID(ctx, id)
		if err != nil {
			return nil, notFoundOrDatabase(id, err)
		}
		return domain.NormalizeEMI(emi)
	default:
		loan, err := s.loanRepo.GetByID(ctx, id)
		if err != nil {
			return nil, notFoundOrDatabase(id, err)
		}
		return domain.NormalizeLoan(loan)
	}
}

// GetSchedule returns the derived schedule for an obligation, serving from
// the Redis cache when possible.
func (s *ScheduleService) GetSchedule(ctx context.Context, obligationType, id string) (*domain.ScheduleResponse, error) {
	ob, err := s.Normalize(ctx, obligationType, id)
	if err != nil {
		return nil, err
	}

	if buckets, ok := s.cacheGet(ctx, ob); ok {
		return &domain.ScheduleResponse{ObligationID: ob.ID, Type: ob.Type, Schedule: buckets}, nil
	}

	buckets, err := s.generate(ctx, ob)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, ob, buckets)

	return &domain.ScheduleResponse{ObligationID: ob.ID, Type: ob.Type, Schedule: buckets}, nil
}

// ListPayments returns the raw payment list for an obligation.
func (s *ScheduleService) ListPayments(ctx context.Context, obligationType, id string) ([]*domain.PaymentRecord, error) {
	ob, err := s.Normalize(ctx, obligationType, id)
	if err != nil {
		return nil, err
	}

	records, err := s.gateway.ListPayments(ctx, ob)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return records, nil
}

// CreatePayment appends a raw payment record, bypassing the recorder's
// bucket bookkeeping. Used by external callers that manage their own
// attribution.
func (s *ScheduleService) CreatePayment(ctx context.Context, obligationType, id string, req *domain.CreatePaymentRequest) (*domain.PaymentRecord, error) {
	ob, err := s.Normalize(ctx, obligationType, id)
	if err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return nil, apperrors.WrapInvalidAmount(req.Amount)
	}
	date, err := utils.ParseDate(req.Date)
	if err != nil {
		return nil, apperrors.WrapInvalidDate(req.Date)
	}

	record := &domain.PaymentRecord{
		ObligationID:   ob.ID,
		ObligationType: ob.Type,
		Amount:         amount,
		Date:           date,
		Note:           req.Note,
		Remarks:        req.Remarks,
	}
	created, err := s.gateway.CreatePayment(ctx, ob, record)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}

	s.cacheInvalidate(ctx, ob)
	return created, nil
}

// GetOutstanding reports how much of the obligation remains unpaid: the
// total scheduled to date minus every recorded payment, floored at zero.
func (s *ScheduleService) GetOutstanding(ctx context.Context, obligationType, id string) (*domain.OutstandingResponse, error) {
	ob, err := s.Normalize(ctx, obligationType, id)
	if err != nil {
		return nil, err
	}

	buckets, err := s.generate(ctx, ob)
	if err != nil {
		return nil, err
	}

	totalDue := decimal.Zero
	totalPaid := decimal.Zero
	for _, b := range buckets {
		totalDue = totalDue.Add(b.ObligationAmount)
		totalPaid = totalPaid.Add(b.TotalPaid)
	}

	outstanding := totalDue.Sub(totalPaid)
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}

	return &domain.OutstandingResponse{
		ObligationID:      ob.ID,
		Type:              ob.Type,
		TotalDue:          totalDue,
		TotalPaid:         totalPaid,
		OutstandingAmount: outstanding,
	}, nil
}

// RecordFullPayment settles one schedule bucket in full. The optimistic
// schedule is returned immediately; the reconciled one lands in the cache.
func (s *ScheduleService) RecordFullPayment(ctx context.Context, obligationType, id string, req *domain.RecordFullPaymentRequest) (*domain.ScheduleResponse, error) {
	ob, err := s.Normalize(ctx, obligationType, id)
	if err != nil {
		return nil, err
	}

	buckets, err := s.generate(ctx, ob)
	if err != nil {
		return nil, err
	}

	policy := recorder.DatePolicy(req.DatePolicy)
	if policy == "" {
		policy = recorder.DatePolicy(s.config.Business.FullPaymentDatePolicy)
	}

	patched, err := s.recorder.RecordFull(ctx, ob, buckets, req.BucketIndex, policy, req.Remarks)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, ob, patched)
	return &domain.ScheduleResponse{ObligationID: ob.ID, Type: ob.Type, Schedule: patched}, nil
}

// RecordPartialPayment applies a partial amount against one bucket.
// Overpayments above the bucket's remaining balance go through only when
// the request carries explicit confirmation.
func (s *ScheduleService) RecordPartialPayment(ctx context.Context, obligationType, id string, req *domain.RecordPartialPaymentRequest) (*domain.ScheduleResponse, error) {
	ob, err := s.Normalize(ctx, obligationType, id)
	if err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, apperrors.WrapInvalidAmount(req.Amount)
	}

	var date time.Time
	if req.Date != "" {
		if date, err = utils.ParseDate(req.Date); err != nil {
			return nil, apperrors.WrapInvalidDate(req.Date)
		}
	}

	buckets, err := s.generate(ctx, ob)
	if err != nil {
		return nil, err
	}

	confirm := func(amount, remaining decimal.Decimal) bool { return req.ConfirmOverpay }

	patched, err := s.recorder.RecordPartial(ctx, ob, buckets, req.BucketIndex, amount, date, req.Remarks, confirm)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, ob, patched)
	return &domain.ScheduleResponse{ObligationID: ob.ID, Type: ob.Type, Schedule: patched}, nil
}

// OverdueSnapshots computes the current overdue position of every active
// obligation. Delta tracking against the previous sweep lives in the
// notifier.
func (s *ScheduleService) OverdueSnapshots(ctx context.Context) ([]*domain.OverdueAlert, error) {
	var alerts []*domain.OverdueAlert
	checkedAt := s.now()

	loans, err := s.loanRepo.ListActive(ctx)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	for _, loan := range loans {
		ob, err := domain.NormalizeLoan(loan)
		if err != nil {
			s.logger.WithError(err).WithField("loan_id", loan.ID).Warn("skipping unschedulable loan")
			continue
		}
		alert, err := s.snapshot(ctx, ob, loan.BorrowerName, checkedAt)
		if err != nil {
			return nil, err
		}
		if alert != nil {
			alerts = append(alerts, alert)
		}
	}

	emis, err := s.emiRepo.ListActive(ctx)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	for _, emi := range emis {
		ob, err := domain.NormalizeEMI(emi)
		if err != nil {
			s.logger.WithError(err).WithField("emi_id", emi.ID).Warn("skipping unschedulable EMI")
			continue
		}
		alert, err := s.snapshot(ctx, ob, emi.BorrowerName, checkedAt)
		if err != nil {
			return nil, err
		}
		if alert != nil {
			alerts = append(alerts, alert)
		}
	}

	return alerts, nil
}

func (s *ScheduleService) snapshot(ctx context.Context, ob *domain.Obligation, borrower string, checkedAt time.Time) (*domain.OverdueAlert, error) {
	buckets, err := s.generate(ctx, ob)
	if err != nil {
		return nil, err
	}

	overdue := 0
	amount := decimal.Zero
	for _, b := range buckets {
		if b.IsPastDue {
			overdue++
			amount = amount.Add(b.RemainingAmount)
		}
	}
	if overdue == 0 {
		return nil, nil
	}

	return &domain.OverdueAlert{
		ObligationID:   ob.ID,
		ObligationType: ob.Type,
		BorrowerName:   borrower,
		TotalOverdue:   overdue,
		OverdueAmount:  amount,
		CheckedAt:      checkedAt,
	}, nil
}

func (s *ScheduleService) generate(ctx context.Context, ob *domain.Obligation) ([]*domain.ScheduleBucket, error) {
	payments, err := s.gateway.ListPayments(ctx, ob)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(err)
	}
	return schedule.Generate(ob, payments, s.now()), nil
}

// storeReconciled replaces the cached schedule once a background
// reconciliation pass delivers the authoritative bucket list.
func (s *ScheduleService) storeReconciled(ob *domain.Obligation, buckets []*domain.ScheduleBucket) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.cacheSet(ctx, ob, buckets)
}

func notFoundOrDatabase(id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.WrapObligationNotFound(id)
	}
	return apperrors.WrapDatabaseError(err)
}

// RepositoryGateway adapts the payment repository to the recorder's
// gateway, the in-process counterpart of the HTTP payments client.
type RepositoryGateway struct {
	payments repository.PaymentRepository
}

func NewRepositoryGateway(payments repository.PaymentRepository) *RepositoryGateway {
	return &RepositoryGateway{payments: payments}
}

func (g *RepositoryGateway) ListPayments(ctx context.Context, ob *domain.Obligation) ([]*domain.PaymentRecord, error) {
	return g.payments.ListByObligation(ctx, ob.Type, ob.ID)
}

func (g *RepositoryGateway) CreatePayment(ctx context.Context, ob *domain.Obligation, record *domain.PaymentRecord) (*domain.PaymentRecord, error) {
	if err := g.payments.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}
