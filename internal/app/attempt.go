package app

import (
	"sync"
	"time"

	"quiz-attempt-engine/internal/domain"
)

// Attempt is one timed run of a quiz by one user. All mutation goes through
// the service; callers outside this package only read snapshots.
type Attempt struct {
	id        string
	player    domain.Player
	quiz      domain.Quiz
	startedAt time.Time
	clock     *Clock

	mu          sync.Mutex
	status      domain.AttemptStatus
	answers     map[string]domain.Answer
	finalizedAt time.Time
	result      *domain.Result
}

// NewAttempt is exported for infrastructure layers and tests that need to seed attempts.
func NewAttempt(id string, player domain.Player, quiz domain.Quiz, startedAt time.Time, limit time.Duration) *Attempt {
	return &Attempt{
		id:        id,
		player:    player,
		quiz:      quiz,
		startedAt: startedAt,
		clock:     NewClock(startedAt.Add(limit)),
		status:    domain.StatusInProgress,
		answers:   make(map[string]domain.Answer),
	}
}

func (a *Attempt) ID() string           { return a.id }
func (a *Attempt) UserID() string       { return a.player.UserID }
func (a *Attempt) QuizID() string       { return a.quiz.ID }
func (a *Attempt) ExpiresAt() time.Time { return a.clock.ExpiresAt() }
func (a *Attempt) Clock() *Clock        { return a.clock }

func (a *Attempt) Status() domain.AttemptStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Open reports whether the attempt can still accept answers at now.
func (a *Attempt) Open(now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status == domain.StatusInProgress && !a.clock.Elapsed(now)
}

// Overdue reports an attempt that is still in progress past its deadline.
func (a *Attempt) Overdue(now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status == domain.StatusInProgress && a.clock.Elapsed(now)
}

// record stores or replaces the answer for questionID and returns its correctness.
func (a *Attempt) record(questionID string, value domain.AnswerValue, now time.Time) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case a.status == domain.StatusCompleted:
		return false, domain.ErrAttemptNotActive
	case a.status == domain.StatusExpired, a.clock.Elapsed(now):
		return false, domain.ErrAttemptExpired
	}

	question, ok := a.quiz.Question(questionID)
	if !ok {
		return false, domain.ErrQuestionNotFound
	}
	correct, err := question.Check(value)
	if err != nil {
		return false, err
	}

	a.answers[questionID] = domain.Answer{
		QuestionID:  questionID,
		Value:       value,
		Correct:     correct,
		SubmittedAt: now,
	}
	return correct, nil
}

// finalize moves the attempt to a terminal state exactly once. The first
// caller computes and stores the result; later callers get the stored result
// and false. An elapsed clock always finalizes as expired.
func (a *Attempt) finalize(status domain.AttemptStatus, now time.Time, scorer Scorer) (domain.Result, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.result != nil {
		return *a.result, false
	}
	if a.clock.Elapsed(now) {
		status = domain.StatusExpired
	}

	finalizedAt := now
	if status == domain.StatusExpired && now.After(a.clock.ExpiresAt()) {
		finalizedAt = a.clock.ExpiresAt()
	}

	result := scorer.Score(a.quiz, a.answers, status)
	result.AttemptID = a.id
	result.UserID = a.player.UserID
	result.DisplayName = a.player.DisplayName
	result.FinalizedAt = finalizedAt

	a.status = status
	a.finalizedAt = finalizedAt
	a.result = &result
	return result, true
}

// View returns a snapshot at now. Correct answers are only revealed once the
// attempt is terminal.
func (a *Attempt) View(now time.Time) domain.AttemptView {
	a.mu.Lock()
	defer a.mu.Unlock()

	answers := make(map[string]domain.Answer, len(a.answers))
	for id, answer := range a.answers {
		answers[id] = answer
	}

	view := domain.AttemptView{
		ID:               a.id,
		UserID:           a.player.UserID,
		QuizID:           a.quiz.ID,
		Status:           a.status,
		StartedAt:        a.startedAt,
		ExpiresAt:        a.clock.ExpiresAt(),
		RemainingSeconds: 0,
		Remaining:        FormatRemaining(0),
		Answers:          answers,
	}
	if a.status == domain.StatusInProgress {
		view.RemainingSeconds = a.clock.Remaining(now)
		view.Remaining = a.clock.Format(now)
		return view
	}

	finalizedAt := a.finalizedAt
	result := *a.result
	view.FinalizedAt = &finalizedAt
	view.Result = &result
	view.Review = make([]domain.ReviewItem, 0, len(a.quiz.Questions))
	for _, q := range a.quiz.Questions {
		item := domain.ReviewItem{QuestionID: q.ID, CorrectAnswer: q.CorrectAnswer}
		if answer, ok := a.answers[q.ID]; ok {
			item.Submitted = answer.Value
			item.Correct = answer.Correct
		}
		view.Review = append(view.Review, item)
	}
	return view
}
