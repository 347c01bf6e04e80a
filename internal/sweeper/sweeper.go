package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fieldhouse/fieldhouse/internal/social"
	"github.com/fieldhouse/fieldhouse/pkg/config"
	"github.com/fieldhouse/fieldhouse/pkg/logging"
)

// Sweeper periodically deletes read notifications older than the retention
// window. It is the only path that physically removes notifications.
type Sweeper struct {
	sink      *social.Sink
	interval  time.Duration
	retention time.Duration
	logger    *zap.Logger
}

// New creates a sweeper from the social configuration
func New(sink *social.Sink, cfg *config.SocialConfig) *Sweeper {
	return &Sweeper{
		sink:      sink,
		interval:  cfg.SweepInterval,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		logger:    logging.GetLogger().With(zap.String("component", "sweeper")),
	}
}

// Run sweeps once immediately and then on every tick until the context is
// cancelled
func (s *Sweeper) Run(ctx context.Context) error {
	s.logger.Info("Sweeper started",
		zap.Duration("interval", s.interval),
		zap.Duration("retention", s.retention))

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	removed, err := s.sink.Sweep(ctx, s.retention)
	if err != nil {
		s.logger.Error("Sweep failed", zap.Error(err))
		return
	}
	s.logger.Debug("Sweep completed", zap.Int64("removed", removed))
}
