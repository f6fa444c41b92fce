package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"quiz-attempt-engine/internal/domain"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// AggregateStore keeps per-user aggregates, globally and per quiz.
type AggregateStore interface {
	// Apply counts result once per attempt ID and returns the updated global
	// and per-quiz aggregates of its user.
	Apply(ctx context.Context, result domain.Result) (global, perQuiz domain.Aggregate, err error)
	// List returns all aggregates for quizID, or global ones when quizID is empty.
	List(ctx context.Context, quizID string) ([]domain.Aggregate, error)
}

// LeaderboardQuery selects a leaderboard page. UserID, when set, requests
// the caller's own position.
type LeaderboardQuery struct {
	QuizID string
	UserID string
	Page   int
	Limit  int
}

// LeaderboardService ranks users from an aggregate store, caching one ranker
// per scope ("" is global).
type LeaderboardService struct {
	store   AggregateStore
	refresh time.Duration
	now     func() time.Time
	logger  *slog.Logger

	mu     sync.Mutex
	scopes map[string]*rankedScope
	// loads collects aggregates recorded while a scope is being listed, so
	// the fresh ranker can replay them.
	loads map[string][]*scopeLoad
}

type scopeLoad struct {
	missed []domain.Aggregate
}

type rankedScope struct {
	ranker   *Ranker
	loadedAt time.Time
}

func NewLeaderboardService(store AggregateStore, refresh time.Duration, logger *slog.Logger) *LeaderboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LeaderboardService{
		store:   store,
		refresh: refresh,
		now:     time.Now,
		logger:  logger,
		scopes:  make(map[string]*rankedScope),
		loads:   make(map[string][]*scopeLoad),
	}
}

// Record applies one finalized result and updates cached rankings in place.
func (s *LeaderboardService) Record(ctx context.Context, result domain.Result) error {
	global, perQuiz, err := s.store.Apply(ctx, result)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertLocked("", global)
	s.upsertLocked(result.QuizID, perQuiz)
	return nil
}

func (s *LeaderboardService) upsertLocked(scopeID string, agg domain.Aggregate) {
	if scope, ok := s.scopes[scopeID]; ok {
		scope.ranker.Upsert(agg)
	}
	for _, load := range s.loads[scopeID] {
		load.missed = append(load.missed, agg)
	}
}

// GetLeaderboard returns one ranked page.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, q LeaderboardQuery) (domain.Leaderboard, error) {
	page, limit := normalizePage(q.Page, q.Limit)

	ranker, err := s.ranker(ctx, q.QuizID)
	if err != nil {
		return domain.Leaderboard{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	total := ranker.Len()
	lb := domain.Leaderboard{
		QuizID:  q.QuizID,
		Entries: ranker.Page(page, limit),
		Pagination: domain.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: (total + limit - 1) / limit,
		},
	}
	if q.UserID != "" {
		if entry, ok := ranker.Position(q.UserID); ok {
			lb.YourPosition = &entry
		}
	}
	return lb, nil
}

func (s *LeaderboardService) ranker(ctx context.Context, quizID string) (*Ranker, error) {
	s.mu.Lock()
	scope, ok := s.scopes[quizID]
	if ok && s.now().Sub(scope.loadedAt) < s.refresh {
		s.mu.Unlock()
		return scope.ranker, nil
	}
	load := &scopeLoad{}
	s.loads[quizID] = append(s.loads[quizID], load)
	s.mu.Unlock()

	aggregates, err := s.store.List(ctx, quizID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropLoadLocked(quizID, load)
	if err != nil {
		return nil, err
	}
	ranker := NewRanker(aggregates)
	for _, agg := range load.missed {
		ranker.Upsert(agg)
	}
	s.scopes[quizID] = &rankedScope{ranker: ranker, loadedAt: s.now()}
	return ranker, nil
}

func (s *LeaderboardService) dropLoadLocked(scopeID string, load *scopeLoad) {
	loads := s.loads[scopeID]
	for i, l := range loads {
		if l == load {
			loads = append(loads[:i], loads[i+1:]...)
			break
		}
	}
	if len(loads) == 0 {
		delete(s.loads, scopeID)
		return
	}
	s.loads[scopeID] = loads
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}
