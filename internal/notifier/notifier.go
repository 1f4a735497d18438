// Package notifier turns schedule state into overdue alerts. The sweep
// compares each obligation's overdue bucket count against the previous
// run and notifies subscribers only about the delta, keeping notification
// side effects out of the computation core.
package notifier

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/lendex/emi-engine/internal/domain"
)

// Subscriber receives overdue alerts emitted by the sweep.
type Subscriber interface {
	Notify(alert *domain.OverdueAlert)
}

// SnapshotSource supplies the current overdue position of every active
// obligation.
type SnapshotSource interface {
	OverdueSnapshots(ctx context.Context) ([]*domain.OverdueAlert, error)
}

type Sweeper struct {
	source      SnapshotSource
	redis       *redis.Client
	logger      *logrus.Logger
	subscribers []Subscriber
}

func NewSweeper(source SnapshotSource, redisClient *redis.Client, logger *logrus.Logger) *Sweeper {
	return &Sweeper{
		source: source,
		redis:  redisClient,
		logger: logger,
	}
}

func (s *Sweeper) Subscribe(sub Subscriber) {
	s.subscribers = append(s.subscribers, sub)
}

// Sweep fetches the current overdue snapshots and notifies subscribers
// about obligations whose overdue bucket count grew since the last run.
func (s *Sweeper) Sweep(ctx context.Context) error {
	snapshots, err := s.source.OverdueSnapshots(ctx)
	if err != nil {
		return fmt.Errorf("overdue sweep: %w", err)
	}

	for _, alert := range snapshots {
		last := s.lastSeen(ctx, alert)
		s.storeLastSeen(ctx, alert)

		if alert.TotalOverdue <= last {
			continue
		}
		alert.NewlyOverdue = alert.TotalOverdue - last

		for _, sub := range s.subscribers {
			sub.Notify(alert)
		}
	}

	s.logger.WithField("obligations_overdue", len(snapshots)).Info("overdue sweep completed")
	return nil
}

func lastSeenKey(alert *domain.OverdueAlert) string {
	return fmt.Sprintf("overdue:last:%s:%s", alert.ObligationType, alert.ObligationID)
}

func (s *Sweeper) lastSeen(ctx context.Context, alert *domain.OverdueAlert) int {
	if s.redis == nil {
		return 0
	}
	last, err := s.redis.Get(ctx, lastSeenKey(alert)).Int()
	if err != nil {
		return 0
	}
	return last
}

func (s *Sweeper) storeLastSeen(ctx context.Context, alert *domain.OverdueAlert) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Set(ctx, lastSeenKey(alert), alert.TotalOverdue, 0).Err(); err != nil {
		s.logger.WithError(err).WithField("obligation_id", alert.ObligationID).
			Warn("failed to persist overdue watermark")
	}
}

// LogSubscriber writes alerts to the structured log. Delivery to an
// actual notification channel is owned by external collaborators.
type LogSubscriber struct {
	logger *logrus.Logger
}

func NewLogSubscriber(logger *logrus.Logger) *LogSubscriber {
	return &LogSubscriber{logger: logger}
}

func (l *LogSubscriber) Notify(alert *domain.OverdueAlert) {
	l.logger.WithFields(logrus.Fields{
		"obligation_id":   alert.ObligationID,
		"obligation_type": alert.ObligationType,
		"borrower":        alert.BorrowerName,
		"newly_overdue":   alert.NewlyOverdue,
		"total_overdue":   alert.TotalOverdue,
		"overdue_amount":  alert.OverdueAmount.StringFixed(2),
	}).Warn("payment buckets became overdue")
}
