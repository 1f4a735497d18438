package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendex/emi-engine/internal/domain"
)

type staticSource struct {
	alerts []*domain.OverdueAlert
	err    error
}

func (s *staticSource) OverdueSnapshots(ctx context.Context) ([]*domain.OverdueAlert, error) {
	return s.alerts, s.err
}

type captureSubscriber struct {
	received []*domain.OverdueAlert
}

func (c *captureSubscriber) Notify(alert *domain.OverdueAlert) {
	c.received = append(c.received, alert)
}

func alert(id string, total int) *domain.OverdueAlert {
	return &domain.OverdueAlert{
		ObligationID:   id,
		ObligationType: domain.ObligationTypeLoan,
		BorrowerName:   "Vinoth",
		TotalOverdue:   total,
		OverdueAmount:  decimal.NewFromInt(int64(total) * 1000),
		CheckedAt:      time.Now(),
	}
}

func TestSweep_NotifiesNewOverdueBuckets(t *testing.T) {
	source := &staticSource{alerts: []*domain.OverdueAlert{alert("L1", 2), alert("L2", 1)}}
	sub := &captureSubscriber{}

	// Without Redis every sweep treats the full count as new.
	sweeper := NewSweeper(source, nil, logrus.New())
	sweeper.Subscribe(sub)

	require.NoError(t, sweeper.Sweep(context.Background()))

	require.Len(t, sub.received, 2)
	assert.Equal(t, "L1", sub.received[0].ObligationID)
	assert.Equal(t, 2, sub.received[0].NewlyOverdue)
	assert.Equal(t, 1, sub.received[1].NewlyOverdue)
}

func TestSweep_PropagatesSourceError(t *testing.T) {
	source := &staticSource{err: errors.New("database down")}
	sweeper := NewSweeper(source, nil, logrus.New())

	err := sweeper.Sweep(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overdue sweep")
}

func TestSweep_NoAlertsNoNotifications(t *testing.T) {
	source := &staticSource{}
	sub := &captureSubscriber{}
	sweeper := NewSweeper(source, nil, logrus.New())
	sweeper.Subscribe(sub)

	require.NoError(t, sweeper.Sweep(context.Background()))
	assert.Empty(t, sub.received)
}
