package app

import (
	"context"
	"log/slog"
	"time"

	"quiz-attempt-engine/internal/domain"
)

// ResultRecorder consumes finalized results (the leaderboard).
type ResultRecorder interface {
	Record(ctx context.Context, result domain.Result) error
}

// ResultFeed hands results to a recorder on a background worker so that
// finalization never waits on leaderboard storage.
type ResultFeed struct {
	recorder ResultRecorder
	queue    chan domain.Result
	timeout  time.Duration
	logger   *slog.Logger
}

func NewResultFeed(recorder ResultRecorder, buffer int, logger *slog.Logger) *ResultFeed {
	if logger == nil {
		logger = slog.Default()
	}
	if buffer < 1 {
		buffer = 1
	}
	return &ResultFeed{
		recorder: recorder,
		queue:    make(chan domain.Result, buffer),
		timeout:  5 * time.Second,
		logger:   logger,
	}
}

// Publish enqueues result. When the queue is full the result is recorded on
// its own goroutine rather than dropped.
func (f *ResultFeed) Publish(result domain.Result) {
	select {
	case f.queue <- result:
	default:
		f.logger.Warn("result feed full, recording out of band", slog.String("attemptId", result.AttemptID))
		go f.record(context.Background(), result)
	}
}

// Run drains the queue until ctx is done, then records what is still buffered.
func (f *ResultFeed) Run(ctx context.Context) error {
	for {
		select {
		case result := <-f.queue:
			f.record(ctx, result)
		case <-ctx.Done():
			for {
				select {
				case result := <-f.queue:
					f.record(context.Background(), result)
				default:
					return nil
				}
			}
		}
	}
}

func (f *ResultFeed) record(ctx context.Context, result domain.Result) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	if err := f.recorder.Record(ctx, result); err != nil {
		f.logger.Error("record result failed",
			slog.String("attemptId", result.AttemptID),
			slog.String("userId", result.UserID),
			slog.Any("error", err),
		)
	}
}
