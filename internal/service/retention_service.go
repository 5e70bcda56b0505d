package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"text-stock-tracker/internal/repository"
)

// RetentionService borra LookupRecords más viejos que el período de retención.
type RetentionService struct {
	logger    *zap.Logger
	lookups   repository.LookupRepository
	retention time.Duration
	now       func() time.Time
}

func NewRetentionService(logger *zap.Logger, lookups repository.LookupRepository, retention time.Duration) *RetentionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetentionService{
		logger:    logger,
		lookups:   lookups,
		retention: retention,
		now:       time.Now,
	}
}

func (s *RetentionService) PruneOnce(ctx context.Context) (int64, error) {
	if s.retention <= 0 || s.lookups == nil {
		return 0, nil
	}
	cutoff := s.now().Add(-s.retention).UTC()
	return s.lookups.DeleteBefore(ctx, cutoff)
}

// Run poda cada interval hasta que ctx se cancele.
func (s *RetentionService) Run(ctx context.Context, interval time.Duration) {
	if s.retention <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PruneOnce(ctx)
			if err != nil {
				s.logger.Warn("lookup retention failed", zap.Error(err))
				continue
			}
			if n > 0 {
				s.logger.Info("lookup records pruned", zap.Int64("deleted", n))
			}
		}
	}
}
