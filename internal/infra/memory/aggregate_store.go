package memory

import (
	"context"
	"sync"

	"quiz-attempt-engine/internal/domain"
)

// AggregateStore is an in-memory implementation of app.AggregateStore.
type AggregateStore struct {
	mu      sync.Mutex
	applied map[string]struct{}
	global  map[string]domain.Aggregate
	perQuiz map[string]map[string]domain.Aggregate
}

func NewAggregateStore() *AggregateStore {
	return &AggregateStore{
		applied: make(map[string]struct{}),
		global:  make(map[string]domain.Aggregate),
		perQuiz: make(map[string]map[string]domain.Aggregate),
	}
}

func (s *AggregateStore) Apply(_ context.Context, result domain.Result) (domain.Aggregate, domain.Aggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quiz, ok := s.perQuiz[result.QuizID]
	if !ok {
		quiz = make(map[string]domain.Aggregate)
		s.perQuiz[result.QuizID] = quiz
	}

	if _, seen := s.applied[result.AttemptID]; seen {
		return s.global[result.UserID], quiz[result.UserID], nil
	}
	s.applied[result.AttemptID] = struct{}{}

	global := s.global[result.UserID].With(result)
	perQuiz := quiz[result.UserID].With(result)
	s.global[result.UserID] = global
	quiz[result.UserID] = perQuiz
	return global, perQuiz, nil
}

func (s *AggregateStore) List(_ context.Context, quizID string) ([]domain.Aggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	source := s.global
	if quizID != "" {
		source = s.perQuiz[quizID]
	}
	out := make([]domain.Aggregate, 0, len(source))
	for _, agg := range source {
		out = append(out, agg)
	}
	return out, nil
}
