package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const sweepBatchSize = 100

// ExpirySweeper periodically finalizes sessions whose deadline lapsed
// while nobody touched them. Lazy expiry covers every read and write
// path; the sweep is the backstop for sessions that are simply abandoned.
type ExpirySweeper struct {
	sessions SessionService
	logger   *slog.Logger
	schedule string
	cron     *cron.Cron
}

func NewExpirySweeper(sessions SessionService, logger *slog.Logger, schedule string) *ExpirySweeper {
	return &ExpirySweeper{
		sessions: sessions,
		logger:   logger,
		schedule: schedule,
	}
}

// Start registers the sweep on its cron schedule and begins running it.
func (s *ExpirySweeper) Start() error {
	if s.cron != nil {
		return nil
	}

	runner := cron.New()
	if _, err := runner.AddFunc(s.schedule, s.sweep); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	s.cron = runner
	s.cron.Start()
	s.logger.Info("Expiry sweeper started", "schedule", s.schedule)

	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *ExpirySweeper) Stop() {
	if s.cron == nil {
		return
	}

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		s.logger.Warn("Expiry sweep did not finish before shutdown timeout")
	}

	s.cron = nil
	s.logger.Info("Expiry sweeper stopped")
}

func (s *ExpirySweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	// Drain in batches until no overdue sessions remain
	for {
		expired, err := s.sessions.ExpireOverdueSessions(ctx, sweepBatchSize)
		if err != nil {
			s.logger.Error("Expiry sweep failed", "error", err)
			return
		}
		if expired < sweepBatchSize {
			return
		}
	}
}
