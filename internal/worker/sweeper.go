package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrShutdownTimeout is returned when the sweeper doesn't stop within timeout.
var ErrShutdownTimeout = errors.New("sweeper shutdown timed out")

// Target removes stale temp artifacts.
type Target interface {
	Sweep(ctx context.Context, maxAge time.Duration) (int, error)
}

// Config holds sweeper configuration.
type Config struct {
	Interval time.Duration
	MaxAge   time.Duration
}

// Sweeper periodically purges orphaned temp files.
type Sweeper struct {
	interval time.Duration
	maxAge   time.Duration
	target   Target
	logger   *slog.Logger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSweeper creates a new sweeper.
func NewSweeper(cfg Config, target Target, logger *slog.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Minute
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 2 * time.Hour
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Sweeper{
		interval: cfg.Interval,
		maxAge:   cfg.MaxAge,
		target:   target,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the sweep loop.
func (s *Sweeper) Start() {
	s.logger.Info("starting sweeper", "interval", s.interval, "max_age", s.maxAge)

	s.wg.Add(1)
	go s.run()
}

// Stop gracefully stops the sweep loop.
func (s *Sweeper) Stop(timeout time.Duration) error {
	s.logger.Info("stopping sweeper")
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("sweeper stopped gracefully")
		return nil
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	removed, err := s.target.Sweep(ctx, s.maxAge)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Error("sweep failed", "error", err)
		}
		return removed, err
	}
	if removed > 0 {
		s.logger.Info("swept orphaned temp files", "removed", removed)
	}
	return removed, nil
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(s.ctx)
		}
	}
}
