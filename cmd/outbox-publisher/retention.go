package main

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/rentals-backend/pkg/logger"
)

const (
	defaultRetentionDays     = 30
	defaultRetentionInterval = 24 * time.Hour
)

type retentionRepository interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// retentionSweeper purges published outbox rows once they are older than the
// retention window.
type retentionSweeper struct {
	logg     *logger.Logger
	repo     retentionRepository
	days     int
	interval time.Duration
	now      func() time.Time
}

func newRetentionSweeper(logg *logger.Logger, repo retentionRepository, days int, interval time.Duration) (*retentionSweeper, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if repo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if days <= 0 {
		days = defaultRetentionDays
	}
	if interval <= 0 {
		interval = defaultRetentionInterval
	}
	return &retentionSweeper{logg: logg, repo: repo, days: days, interval: interval, now: time.Now}, nil
}

func (s *retentionSweeper) Run(ctx context.Context) error {
	s.sweepAndLog(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweepAndLog(ctx)
		}
	}
}

func (s *retentionSweeper) sweepAndLog(ctx context.Context) {
	if _, err := s.sweep(ctx); err != nil {
		s.logg.Error(ctx, "outbox retention sweep failed", err)
	}
}

func (s *retentionSweeper) sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-time.Duration(s.days) * 24 * time.Hour)
	deleted, err := s.repo.DeletePublishedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("outbox retention: %w", err)
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": s.days,
		"rows_deleted":   deleted,
	}), "outbox retention sweep complete")
	return deleted, nil
}
