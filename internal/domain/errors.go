package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a submitted question ID is not part of the attempt's quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAttemptNotFound is returned for unknown attempt IDs.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptAlreadyActive is returned when the user already has an in-progress attempt on the quiz.
	ErrAttemptAlreadyActive = errors.New("attempt already active")
	// ErrAttemptExpired is returned when the attempt deadline has passed.
	ErrAttemptExpired = errors.New("attempt expired")
	// ErrAttemptNotActive is returned when the attempt has already been completed.
	ErrAttemptNotActive = errors.New("attempt not active")
	// ErrInvalidAnswerValue indicates the value does not fit the question type.
	ErrInvalidAnswerValue = errors.New("invalid answer value")
	// ErrDeadlineNotReached is returned when expiring an attempt that still has time left.
	ErrDeadlineNotReached = errors.New("deadline not reached")
	// ErrResultPending is returned when asking for the result of an attempt still in progress.
	ErrResultPending = errors.New("result pending")
	// ErrNotAttemptOwner is returned when a user acts on someone else's attempt.
	ErrNotAttemptOwner = errors.New("attempt belongs to another user")
	// ErrInvalidQuiz indicates quiz content that cannot be served.
	ErrInvalidQuiz = errors.New("invalid quiz")
)
