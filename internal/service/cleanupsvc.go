package service

import (
	"context"
	"log/slog"
	"time"
)

type StaleTokensStore interface {
	DeleteStale(ctx context.Context, now time.Time, revokedBefore time.Time) (int64, error)
}

type StaleSessionsStore interface {
	DeleteStale(ctx context.Context, now time.Time, inactiveBefore time.Time) (int64, error)
}

type ExpiredResetsStore interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// CleanupService sweeps expired refresh tokens, dead sessions and spent
// reset tokens. Revoked rows are kept for Retention before deletion so
// reuse of a revoked token can still be detected and audited.
type CleanupService struct {
	Tokens    StaleTokensStore
	Sessions  StaleSessionsStore
	Resets    ExpiredResetsStore
	Retention time.Duration
	Logger    *slog.Logger
	Now       func() time.Time
}

func (s *CleanupService) RunOnce(ctx context.Context) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	retention := s.Retention
	if retention == 0 {
		retention = 30 * 24 * time.Hour
	}
	cutoff := now.Add(-retention)

	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if s.Tokens != nil {
		if n, err := s.Tokens.DeleteStale(ctx, now, cutoff); err != nil {
			logger.Error("cleanup: refresh tokens", "err", err)
		} else if n > 0 {
			logger.Info("cleanup: refresh tokens removed", "count", n)
		}
	}
	if s.Sessions != nil {
		if n, err := s.Sessions.DeleteStale(ctx, now, cutoff); err != nil {
			logger.Error("cleanup: sessions", "err", err)
		} else if n > 0 {
			logger.Info("cleanup: sessions removed", "count", n)
		}
	}
	if s.Resets != nil {
		if n, err := s.Resets.DeleteExpired(ctx, now); err != nil {
			logger.Error("cleanup: reset tokens", "err", err)
		} else if n > 0 {
			logger.Info("cleanup: reset tokens removed", "count", n)
		}
	}
}

// Run sweeps on the given interval until the context ends.
func (s *CleanupService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}
