package memory

import (
	"context"
	"sync"

	"quiz-attempt-engine/internal/app"
	"quiz-attempt-engine/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]*app.Attempt
	active   map[activeKey]string
}

type activeKey struct {
	userID string
	quizID string
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts: make(map[string]*app.Attempt),
		active:   make(map[activeKey]string),
	}
}

func (s *AttemptStore) Insert(_ context.Context, attempt *app.Attempt) error {
	key := activeKey{userID: attempt.UserID(), quizID: attempt.QuizID()}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.active[key]; ok {
		if existing := s.attempts[id]; existing != nil && existing.Status() == domain.StatusInProgress {
			return domain.ErrAttemptAlreadyActive
		}
	}
	s.attempts[attempt.ID()] = attempt
	s.active[key] = attempt.ID()
	return nil
}

func (s *AttemptStore) Get(_ context.Context, attemptID string) (*app.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return nil, domain.ErrAttemptNotFound
	}
	return attempt, nil
}

func (s *AttemptStore) Active(_ context.Context, userID, quizID string) (*app.Attempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.active[activeKey{userID: userID, quizID: quizID}]
	if !ok {
		return nil, false
	}
	attempt := s.attempts[id]
	if attempt == nil || attempt.Status() != domain.StatusInProgress {
		return nil, false
	}
	return attempt, true
}

func (s *AttemptStore) Release(_ context.Context, attempt *app.Attempt) error {
	key := activeKey{userID: attempt.UserID(), quizID: attempt.QuizID()}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[key] == attempt.ID() {
		delete(s.active, key)
	}
	return nil
}

func (s *AttemptStore) InProgress(_ context.Context) []*app.Attempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*app.Attempt, 0, len(s.active))
	for _, id := range s.active {
		if attempt := s.attempts[id]; attempt != nil && attempt.Status() == domain.StatusInProgress {
			out = append(out, attempt)
		}
	}
	return out
}
