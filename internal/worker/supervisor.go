// Package worker re-runs the batch pipeline in the background.
package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ntentasd/roomsense/pkg/types"
)

type Runner interface {
	Run(ctx context.Context) (types.Summary, []types.Sample, error)
}

// Supervisor triggers a pipeline run every Interval.
type Supervisor struct {
	runner    Runner
	Interval  time.Duration
	logger    zerolog.Logger
	cancelCtx context.CancelFunc
	done      chan struct{}
}

// NewSupervisor creates a new background worker for periodic runs.
func NewSupervisor(runner Runner, interval time.Duration, logger zerolog.Logger) *Supervisor {
	return &Supervisor{
		runner:   runner,
		Interval: interval,
		logger:   logger.With().Str("component", "supervisor").Logger(),
	}
}

func (s *Supervisor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancelCtx = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()

		s.logger.Info().Dur("interval", s.Interval).Msg("started pipeline schedule")

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("stopped")
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()
}

func (s *Supervisor) runOnce(ctx context.Context) {
	start := time.Now()
	summary, _, err := s.runner.Run(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("scheduled run failed")
		return
	}
	s.logger.Info().
		Str("run_id", summary.RunID.String()).
		Int("rows", summary.Rows).
		Dur("took", time.Since(start)).
		Msg("scheduled run finished")
}

// Stop gracefully stops the background worker and waits for an
// in-flight run to return.
func (s *Supervisor) Stop() {
	if s.cancelCtx != nil {
		s.cancelCtx()
		<-s.done
	}
}
