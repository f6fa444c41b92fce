package app

import (
	"context"
	"sort"
	"time"

	"quiz-attempt-engine/internal/domain"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// TimeLimitPolicy derives an attempt's time limit from the question count.
type TimeLimitPolicy struct {
	PerQuestion time.Duration
	Minimum     time.Duration
	Maximum     time.Duration
}

func DefaultTimeLimitPolicy() TimeLimitPolicy {
	return TimeLimitPolicy{
		PerQuestion: 30 * time.Second,
		Minimum:     time.Minute,
		Maximum:     30 * time.Minute,
	}
}

// For returns the time limit for a quiz with n questions.
func (p TimeLimitPolicy) For(n int) time.Duration {
	limit := time.Duration(n) * p.PerQuestion
	if p.Minimum > 0 && limit < p.Minimum {
		limit = p.Minimum
	}
	if p.Maximum > 0 && limit > p.Maximum {
		limit = p.Maximum
	}
	return limit
}

// QuestionBank is read-only access to quizzes. Correct answers never leave it
// except through the full domain.Quiz handed to the scorer.
type QuestionBank struct {
	quizzes QuizRepository
	limits  TimeLimitPolicy
}

func NewQuestionBank(quizzes QuizRepository, limits TimeLimitPolicy) *QuestionBank {
	return &QuestionBank{quizzes: quizzes, limits: limits}
}

// Quiz returns the quiz with its questions ordered by position.
func (b *QuestionBank) Quiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := b.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	questions := make([]domain.Question, len(quiz.Questions))
	copy(questions, quiz.Questions)
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].Position < questions[j].Position
	})
	quiz.Questions = questions
	return quiz, nil
}

// PublicQuiz returns the attempt-holder view of a quiz.
func (b *QuestionBank) PublicQuiz(ctx context.Context, quizID string) (domain.PublicQuiz, error) {
	quiz, err := b.Quiz(ctx, quizID)
	if err != nil {
		return domain.PublicQuiz{}, err
	}
	return publicQuiz(quiz, b.TimeLimit(quiz)), nil
}

// TimeLimit applies the time limit policy to quiz.
func (b *QuestionBank) TimeLimit(quiz domain.Quiz) time.Duration {
	return b.limits.For(len(quiz.Questions))
}

func publicQuiz(quiz domain.Quiz, limit time.Duration) domain.PublicQuiz {
	questions := make([]domain.PublicQuestion, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questions = append(questions, domain.PublicQuestion{
			ID:       q.ID,
			Position: q.Position,
			Type:     q.Type,
			Prompt:   q.Prompt,
			Options:  q.Options,
		})
	}
	return domain.PublicQuiz{
		ID:          quiz.ID,
		Title:       quiz.Title,
		Description: quiz.Description,
		Topic:       quiz.Topic,
		Difficulty:  quiz.Difficulty,
		Reward:      quiz.Reward,
		TimeLimit:   int(limit / time.Second),
		Questions:   questions,
	}
}
