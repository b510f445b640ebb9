package trade

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cardvault/cardvault/cardvault/config"
	"github.com/robfig/cron/v3"
)

type Expirer interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// Pruner deletes collection rows left at quantity zero.
type Pruner interface {
	PruneZero(ctx context.Context) (int64, error)
}

// Scheduler runs the periodic trade expiry sweep and zero-row pruning.
type Scheduler struct {
	cron    *cron.Cron
	expirer Expirer
	pruner  Pruner
}

func NewScheduler(expirer Expirer, pruner Pruner, expirySpec, pruneSpec string) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		expirer: expirer,
		pruner:  pruner,
	}

	if _, err := s.cron.AddFunc(expirySpec, s.expire); err != nil {
		return nil, fmt.Errorf("invalid trade expiry schedule %q: %w", expirySpec, err)
	}
	if pruner != nil {
		if _, err := s.cron.AddFunc(pruneSpec, s.prune); err != nil {
			return nil, fmt.Errorf("invalid prune schedule %q: %w", pruneSpec, err)
		}
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("Job scheduler started",
		slog.String("type", "sys"),
		slog.Int("jobs", len(s.cron.Entries())))
}

// Stop waits for running jobs to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		slog.Warn("Job scheduler stop timed out", slog.String("type", "sys"))
	}
}

func (s *Scheduler) expire() {
	ctx, cancel := context.WithTimeout(context.Background(), config.JobTimeout)
	defer cancel()

	if _, err := s.expirer.ExpireOverdue(ctx); err != nil {
		slog.Error("Failed to expire trades",
			slog.String("type", "sys"),
			slog.Any("error", err))
	}
}

func (s *Scheduler) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), config.JobTimeout)
	defer cancel()

	n, err := s.pruner.PruneZero(ctx)
	if err != nil {
		slog.Error("Failed to prune empty collection rows",
			slog.String("type", "sys"),
			slog.Any("error", err))
		return
	}
	if n > 0 {
		slog.Info("Pruned empty collection rows",
			slog.String("type", "sys"),
			slog.Int64("count", n))
	}
}
