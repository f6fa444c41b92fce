package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"quiz-attempt-engine/internal/domain"
)

// AttemptRepository abstracts where attempts live (in-memory, Redis-marked, etc).
type AttemptRepository interface {
	// Insert stores a new attempt. It returns domain.ErrAttemptAlreadyActive
	// when the user already holds an in-progress attempt on the same quiz.
	Insert(ctx context.Context, attempt *Attempt) error
	Get(ctx context.Context, attemptID string) (*Attempt, error)
	// Active returns the in-progress attempt held by userID on quizID, if any.
	Active(ctx context.Context, userID, quizID string) (*Attempt, bool)
	// Release drops the active marker of a finalized attempt.
	Release(ctx context.Context, attempt *Attempt) error
	InProgress(ctx context.Context) []*Attempt
}

// ResultPublisher receives every result exactly once, after finalization.
type ResultPublisher interface {
	Publish(result domain.Result)
}

// ResultPublisherFunc adapts a function to ResultPublisher.
type ResultPublisherFunc func(domain.Result)

func (f ResultPublisherFunc) Publish(result domain.Result) { f(result) }

// ResultArchive holds results of attempts that may no longer be live.
type ResultArchive interface {
	Result(ctx context.Context, attemptID string) (domain.Result, error)
}

// StartedAttempt is returned by StartQuiz.
type StartedAttempt struct {
	Attempt   domain.AttemptView `json:"attempt"`
	Quiz      domain.PublicQuiz  `json:"quiz"`
	ExpiresAt time.Time          `json:"expiresAt"`
}

// AttemptService runs the attempt lifecycle: start, answer, finish, expire.
type AttemptService struct {
	attempts AttemptRepository
	bank     *QuestionBank
	scorer   Scorer
	results  ResultPublisher
	archive  ResultArchive
	now      func() time.Time
	newID    func() string
	logger   *slog.Logger
}

// AttemptOption customizes an AttemptService.
type AttemptOption func(*AttemptService)

// WithClock is mostly useful for deterministic tests.
func WithClock(now func() time.Time) AttemptOption {
	return func(s *AttemptService) { s.now = now }
}

func WithIDGenerator(newID func() string) AttemptOption {
	return func(s *AttemptService) { s.newID = newID }
}

func WithResultPublisher(p ResultPublisher) AttemptOption {
	return func(s *AttemptService) { s.results = p }
}

// WithResultArchive lets Result answer for attempts the attempt store has dropped.
func WithResultArchive(a ResultArchive) AttemptOption {
	return func(s *AttemptService) { s.archive = a }
}

func WithLogger(logger *slog.Logger) AttemptOption {
	return func(s *AttemptService) { s.logger = logger }
}

func NewAttemptService(attempts AttemptRepository, bank *QuestionBank, scorer Scorer, opts ...AttemptOption) *AttemptService {
	s := &AttemptService{
		attempts: attempts,
		bank:     bank,
		scorer:   scorer,
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now exposes the service clock to transports that render countdowns.
func (s *AttemptService) Now() time.Time {
	return s.now()
}

// StartQuiz opens a new attempt for player on quizID.
func (s *AttemptService) StartQuiz(ctx context.Context, quizID string, player domain.Player) (StartedAttempt, error) {
	quiz, err := s.bank.Quiz(ctx, quizID)
	if err != nil {
		return StartedAttempt{}, err
	}

	if existing, ok := s.attempts.Active(ctx, player.UserID, quizID); ok {
		now := s.now()
		if existing.Open(now) {
			return StartedAttempt{}, domain.ErrAttemptAlreadyActive
		}
		// Abandoned attempt whose deadline passed; settle it before the new one.
		if _, err := s.finalize(ctx, existing, domain.StatusExpired); err != nil {
			return StartedAttempt{}, err
		}
	}

	limit := s.bank.TimeLimit(quiz)
	now := s.now()
	attempt := NewAttempt(s.newID(), player, quiz, now, limit)
	if err := s.attempts.Insert(ctx, attempt); err != nil {
		return StartedAttempt{}, err
	}

	s.logger.InfoContext(ctx, "attempt started",
		slog.String("attemptId", attempt.ID()),
		slog.String("quizId", quizID),
		slog.String("userId", player.UserID),
		slog.Time("expiresAt", attempt.ExpiresAt()),
	)
	return StartedAttempt{
		Attempt:   attempt.View(now),
		Quiz:      publicQuiz(quiz, limit),
		ExpiresAt: attempt.ExpiresAt(),
	}, nil
}

// AnswerQuestion records value for questionID and reports its correctness.
// Answering the same question again replaces the earlier answer.
func (s *AttemptService) AnswerQuestion(ctx context.Context, attemptID, questionID string, value domain.AnswerValue) (bool, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return false, err
	}

	correct, err := attempt.record(questionID, value, s.now())
	if errors.Is(err, domain.ErrAttemptExpired) {
		if _, ferr := s.finalize(ctx, attempt, domain.StatusExpired); ferr != nil {
			s.logger.ErrorContext(ctx, "lazy expiry failed", slog.String("attemptId", attemptID), slog.Any("error", ferr))
		}
	}
	if err != nil {
		return false, err
	}
	return correct, nil
}

// FinishQuiz finalizes the attempt. Repeated calls return the stored result.
func (s *AttemptService) FinishQuiz(ctx context.Context, attemptID string) (domain.Result, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return domain.Result{}, err
	}
	return s.finalize(ctx, attempt, domain.StatusCompleted)
}

// ExpireAttempt finalizes an attempt whose deadline has passed. It is a no-op
// returning the stored result for attempts that are already terminal.
func (s *AttemptService) ExpireAttempt(ctx context.Context, attemptID string) (domain.Result, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return domain.Result{}, err
	}
	if attempt.Status() == domain.StatusInProgress && !attempt.Clock().Elapsed(s.now()) {
		return domain.Result{}, fmt.Errorf("attempt %s: %w", attemptID, domain.ErrDeadlineNotReached)
	}
	return s.finalize(ctx, attempt, domain.StatusExpired)
}

// Owner returns the user holding attemptID.
func (s *AttemptService) Owner(ctx context.Context, attemptID string) (string, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return "", err
	}
	return attempt.UserID(), nil
}

// Result returns the final result of an attempt, expiring it first when
// overdue. Attempts the store no longer holds are read from the archive.
func (s *AttemptService) Result(ctx context.Context, attemptID string) (domain.Result, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if errors.Is(err, domain.ErrAttemptNotFound) && s.archive != nil {
		return s.archive.Result(ctx, attemptID)
	}
	if err != nil {
		return domain.Result{}, err
	}
	if attempt.Overdue(s.now()) {
		return s.finalize(ctx, attempt, domain.StatusExpired)
	}
	if attempt.Status() == domain.StatusInProgress {
		return domain.Result{}, fmt.Errorf("attempt %s: %w", attemptID, domain.ErrResultPending)
	}
	result, _ := attempt.finalize(attempt.Status(), s.now(), s.scorer)
	return result, nil
}

// GetAttempt returns a snapshot, expiring the attempt first when overdue.
func (s *AttemptService) GetAttempt(ctx context.Context, attemptID string) (domain.AttemptView, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return domain.AttemptView{}, err
	}
	if attempt.Overdue(s.now()) {
		if _, err := s.finalize(ctx, attempt, domain.StatusExpired); err != nil {
			return domain.AttemptView{}, err
		}
	}
	return attempt.View(s.now()), nil
}

// ExpireElapsed expires every overdue in-progress attempt and returns how
// many it finalized.
func (s *AttemptService) ExpireElapsed(ctx context.Context) (int, error) {
	expired := 0
	var firstErr error
	for _, attempt := range s.attempts.InProgress(ctx) {
		if !attempt.Clock().Signal(s.now()) {
			continue
		}
		if _, err := s.finalize(ctx, attempt, domain.StatusExpired); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		expired++
	}
	return expired, firstErr
}

func (s *AttemptService) finalize(ctx context.Context, attempt *Attempt, status domain.AttemptStatus) (domain.Result, error) {
	result, first := attempt.finalize(status, s.now(), s.scorer)
	if !first {
		return result, nil
	}

	s.logger.InfoContext(ctx, "attempt finalized",
		slog.String("attemptId", result.AttemptID),
		slog.String("quizId", result.QuizID),
		slog.String("userId", result.UserID),
		slog.String("status", string(result.Status)),
		slog.Int("score", result.Score),
		slog.Int("reward", result.Reward),
	)
	if s.results != nil {
		s.results.Publish(result)
	}
	if err := s.attempts.Release(ctx, attempt); err != nil {
		return result, fmt.Errorf("release attempt %s: %w", attempt.ID(), err)
	}
	return result, nil
}
