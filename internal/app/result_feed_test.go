package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-attempt-engine/internal/app"
	"quiz-attempt-engine/internal/domain"
	"quiz-attempt-engine/internal/infra/memory"
)

type recorderFunc func(ctx context.Context, result domain.Result) error

func (f recorderFunc) Record(ctx context.Context, result domain.Result) error { return f(ctx, result) }

type recorded struct {
	mu  sync.Mutex
	ids []string
}

func (r *recorded) Record(_ context.Context, result domain.Result) error {
	r.mu.Lock()
	r.ids = append(r.ids, result.AttemptID)
	r.mu.Unlock()
	return nil
}

func (r *recorded) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

func TestResultFeedDeliversInOrder(t *testing.T) {
	rec := &recorded{}
	feed := app.NewResultFeed(rec, 8, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- feed.Run(ctx) }()

	for _, id := range []string{"a", "b", "c"} {
		feed.Publish(domain.Result{AttemptID: id})
	}
	require.Eventually(t, func() bool { return len(rec.IDs()) == 3 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, rec.IDs())

	cancel()
	require.NoError(t, <-done)
}

func TestResultFeedDrainsOnShutdown(t *testing.T) {
	rec := &recorded{}
	feed := app.NewResultFeed(rec, 4, nil)
	for _, id := range []string{"a", "b"} {
		feed.Publish(domain.Result{AttemptID: id})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, feed.Run(ctx))
	assert.ElementsMatch(t, []string{"a", "b"}, rec.IDs())
}

func TestResultFeedNeverDropsWhenFull(t *testing.T) {
	rec := &recorded{}
	feed := app.NewResultFeed(rec, 1, nil)

	// Nothing is draining: the second publish must not block.
	feed.Publish(domain.Result{AttemptID: "queued"})
	feed.Publish(domain.Result{AttemptID: "overflow"})

	require.Eventually(t, func() bool { return len(rec.IDs()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"overflow"}, rec.IDs())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, feed.Run(ctx))
	assert.ElementsMatch(t, []string{"overflow", "queued"}, rec.IDs())
}

func TestResultFeedKeepsRunningAfterRecordError(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	feed := app.NewResultFeed(recorderFunc(func(context.Context, domain.Result) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return errors.New("unavailable")
	}), 4, nil)

	feed.Publish(domain.Result{AttemptID: "a"})
	feed.Publish(domain.Result{AttemptID: "b"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, feed.Run(ctx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}

func TestFinalizedAttemptsReachLeaderboard(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := newFixture(app.DefaultScoringPolicy())
	lb := app.NewLeaderboardService(memory.NewAggregateStore(), 0, nil)
	feed := app.NewResultFeed(lb, 8, nil)
	go feed.Run(ctx)
	service := app.NewAttemptService(f.store, f.bank, app.NewScorer(app.DefaultScoringPolicy()),
		app.WithClock(f.clock.Now),
		app.WithResultPublisher(feed),
	)

	started, err := service.StartQuiz(ctx, "museum", alice)
	require.NoError(t, err)
	for qid, opt := range map[string]string{"q1": "a", "q2": "b", "q3": "c"} {
		_, err := service.AnswerQuestion(ctx, started.Attempt.ID, qid, domain.OptionAnswer(opt))
		require.NoError(t, err)
	}
	res, err := service.FinishQuiz(ctx, started.Attempt.ID)
	require.NoError(t, err)
	require.Equal(t, 75, res.Score)

	require.Eventually(t, func() bool {
		board, err := lb.GetLeaderboard(ctx, app.LeaderboardQuery{QuizID: "museum"})
		return err == nil && len(board.Entries) == 1 && board.Entries[0].QuizPoints == 100
	}, time.Second, 5*time.Millisecond)
}
