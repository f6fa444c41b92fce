package memory

import (
	"context"
	"testing"
	"time"

	"quiz-attempt-engine/internal/domain"
)

func TestAggregateStoreAppliesOncePerAttempt(t *testing.T) {
	ctx := context.Background()
	store := NewAggregateStore()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	result := domain.Result{
		AttemptID: "a1", UserID: "u1", DisplayName: "Alice", QuizID: "quiz-1",
		Score: 100, Reward: 50, HighScore: true, FinalizedAt: at,
	}
	global, perQuiz, err := store.Apply(ctx, result)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if global.QuizPoints != 50 || perQuiz.HighScoreCount != 1 || perQuiz.AttemptCount != 1 {
		t.Fatalf("unexpected aggregates %+v %+v", global, perQuiz)
	}

	again, _, _ := store.Apply(ctx, result)
	if again.QuizPoints != 50 || again.AttemptCount != 1 {
		t.Fatalf("duplicate apply must not double count, got %+v", again)
	}

	_, _, _ = store.Apply(ctx, domain.Result{
		AttemptID: "a2", UserID: "u1", QuizID: "quiz-2", Reward: 20, FinalizedAt: at.Add(time.Minute),
	})

	all, _ := store.List(ctx, "")
	if len(all) != 1 || all[0].QuizPoints != 70 || all[0].AttemptCount != 2 {
		t.Fatalf("unexpected global list %+v", all)
	}
	scoped, _ := store.List(ctx, "quiz-2")
	if len(scoped) != 1 || scoped[0].QuizPoints != 20 {
		t.Fatalf("unexpected quiz-2 list %+v", scoped)
	}
	if empty, _ := store.List(ctx, "quiz-9"); len(empty) != 0 {
		t.Fatalf("expected empty list, got %+v", empty)
	}
}
