package app

import (
	"context"
	"log/slog"
	"time"
)

// Reconciler periodically expires abandoned attempts. Deadlines are still
// enforced on every access; this only settles attempts nobody touches again.
type Reconciler struct {
	attempts *AttemptService
	interval time.Duration
	logger   *slog.Logger
}

func NewReconciler(attempts *AttemptService, interval time.Duration, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Reconciler{attempts: attempts, interval: interval, logger: logger}
}

func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := r.attempts.ExpireElapsed(ctx)
			if err != nil {
				r.logger.Error("expire elapsed attempts", slog.Any("error", err))
			}
			if n > 0 {
				r.logger.Debug("expired abandoned attempts", slog.Int("count", n))
			}
		}
	}
}
