package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmallari/jobmill/internal/config"
)

// Scheduler owns the daemon loop: one immediate run, then one per interval.
type Scheduler struct {
	coordinator *Coordinator
	sources     []config.SourceConfig
	interval    time.Duration
	logger      *slog.Logger
}

func NewScheduler(coordinator *Coordinator, sources []config.SourceConfig, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		coordinator: coordinator,
		sources:     sources,
		interval:    interval,
		logger:      logger,
	}
}

// Run starts the ingestion loop. It returns nil when ctx is cancelled
// (graceful shutdown).
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler",
		"interval", s.interval.String(),
		"sources", len(s.sources),
	)

	s.coordinator.Run(ctx, s.sources)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down scheduler")
			return nil
		case <-time.After(s.interval):
			s.coordinator.Run(ctx, s.sources)
		}
	}
}
