package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lendex/emi-engine/internal/domain"
)

// The schedule cache is best-effort: every miss or Redis error falls back
// to regeneration from the payment list.

func scheduleCacheKey(ob *domain.Obligation) string {
	return fmt.Sprintf("schedule:%s:%s", ob.Type, ob.ID)
}

func (s *ScheduleService) cacheGet(ctx context.Context, ob *domain.Obligation) ([]*domain.ScheduleBucket, bool) {
	if s.redis == nil {
		return nil, false
	}

	raw, err := s.redis.Get(ctx, scheduleCacheKey(ob)).Bytes()
	if err != nil {
		return nil, false
	}

	var buckets []*domain.ScheduleBucket
	if err := json.Unmarshal(raw, &buckets); err != nil {
		s.logger.WithError(err).WithField("obligation_id", ob.ID).Warn("dropping corrupt cached schedule")
		s.cacheInvalidate(ctx, ob)
		return nil, false
	}

	return buckets, true
}

func (s *ScheduleService) cacheSet(ctx context.Context, ob *domain.Obligation, buckets []*domain.ScheduleBucket) {
	if s.redis == nil {
		return
	}

	raw, err := json.Marshal(buckets)
	if err != nil {
		return
	}

	if err := s.redis.Set(ctx, scheduleCacheKey(ob), raw, s.config.Business.ScheduleCacheTTL).Err(); err != nil {
		s.logger.WithError(err).WithField("obligation_id", ob.ID).Warn("failed to cache schedule")
	}
}

func (s *ScheduleService) cacheInvalidate(ctx context.Context, ob *domain.Obligation) {
	if s.redis == nil {
		return
	}

	if err := s.redis.Del(ctx, scheduleCacheKey(ob)).Err(); err != nil {
		s.logger.WithError(err).WithField("obligation_id", ob.ID).Warn("failed to invalidate cached schedule")
	}
}
