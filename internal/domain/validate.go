package domain

import (
	"fmt"
	"strconv"
)

// Validate rejects quizzes whose questions could never be scored: duplicate
// question IDs, unknown types, multiple choice questions whose correct answer
// is not one of their options, and true/false answers that do not parse.
func (q Quiz) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidQuiz)
	}
	if q.Reward < 0 {
		return fmt.Errorf("%w: quiz %s has negative reward", ErrInvalidQuiz, q.ID)
	}
	seen := make(map[string]struct{}, len(q.Questions))
	for _, question := range q.Questions {
		if question.ID == "" {
			return fmt.Errorf("%w: quiz %s has a question without id", ErrInvalidQuiz, q.ID)
		}
		if _, dup := seen[question.ID]; dup {
			return fmt.Errorf("%w: quiz %s repeats question %s", ErrInvalidQuiz, q.ID, question.ID)
		}
		seen[question.ID] = struct{}{}

		switch question.Type {
		case MultipleChoice:
			if !question.hasOption(question.CorrectAnswer) {
				return fmt.Errorf("%w: question %s: correct answer %q is not an option", ErrInvalidQuiz, question.ID, question.CorrectAnswer)
			}
		case TrueFalse:
			if _, err := strconv.ParseBool(question.CorrectAnswer); err != nil {
				return fmt.Errorf("%w: question %s: correct answer %q is not a boolean", ErrInvalidQuiz, question.ID, question.CorrectAnswer)
			}
		case OpenEnded:
		default:
			return fmt.Errorf("%w: question %s has unknown type %q", ErrInvalidQuiz, question.ID, question.Type)
		}
	}
	return nil
}
