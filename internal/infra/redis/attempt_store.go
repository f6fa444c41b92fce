package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-attempt-engine/internal/app"
	"quiz-attempt-engine/internal/domain"
)

// releaseScript deletes the active marker only if it still points at the
// attempt being released.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AttemptStore is a Redis-aware implementation of app.AttemptRepository.
// Notes:
//   - Attempt aggregates live in a local map; Redis only holds the
//     "user has an active attempt on quiz" marker.
//   - The marker is taken with SET NX and expires shortly after the attempt
//     deadline, so instances sharing Redis cannot open two concurrent
//     attempts for the same user and quiz.
type AttemptStore struct {
	client *redis.Client
	grace  time.Duration
	now    func() time.Time

	mu       sync.RWMutex
	attempts map[string]*app.Attempt
}

func NewAttemptStore(client *redis.Client, grace time.Duration) *AttemptStore {
	return &AttemptStore{
		client:   client,
		grace:    grace,
		now:      time.Now,
		attempts: make(map[string]*app.Attempt),
	}
}

func (s *AttemptStore) Insert(ctx context.Context, attempt *app.Attempt) error {
	ttl := attempt.ExpiresAt().Sub(s.now()) + s.grace
	if ttl <= 0 {
		ttl = s.grace
	}
	ok, err := s.client.SetNX(ctx, s.activeKey(attempt.UserID(), attempt.QuizID()), attempt.ID(), ttl).Result()
	if err != nil {
		return fmt.Errorf("reserve active attempt: %w", err)
	}
	if !ok {
		return domain.ErrAttemptAlreadyActive
	}

	s.mu.Lock()
	s.attempts[attempt.ID()] = attempt
	s.mu.Unlock()
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

// Active only sees attempts owned by this instance; markers held by other
// instances surface as ErrAttemptAlreadyActive from Insert.
func (s *AttemptStore) Active(ctx context.Context, userID, quizID string) (*app.Attempt, bool) {
	id, err := s.client.Get(ctx, s.activeKey(userID, quizID)).Result()
	if err != nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[id]
	if !ok || attempt.Status() != domain.StatusInProgress {
		return nil, false
	}
	return attempt, true
}

func (s *AttemptStore) Release(ctx context.Context, attempt *app.Attempt) error {
	key := s.activeKey(attempt.UserID(), attempt.QuizID())
	if err := releaseScript.Run(ctx, s.client, []string{key}, attempt.ID()).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release active attempt: %w", err)
	}
	return nil
}

func (s *AttemptStore) InProgress(_ context.Context) []*app.Attempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*app.Attempt, 0)
	for _, attempt := range s.attempts {
		if attempt.Status() == domain.StatusInProgress {
			out = append(out, attempt)
		}
	}
	return out
}

func (s *AttemptStore) activeKey(userID, quizID string) string {
	return "attempt:active:" + userID + ":" + quizID
}
