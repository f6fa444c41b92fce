package domain

import (
	"fmt"
	"strconv"
)

// AnswerValue is a submitted answer. The concrete type must match the
// question type: OptionAnswer for multiple choice, BoolAnswer for true/false,
// TextAnswer for open ended.
type AnswerValue interface {
	Kind() QuestionType
}

// OptionAnswer selects an option by ID.
type OptionAnswer string

// BoolAnswer answers a true/false question.
type BoolAnswer bool

// TextAnswer is free text for open ended questions.
type TextAnswer string

func (OptionAnswer) Kind() QuestionType { return MultipleChoice }
func (BoolAnswer) Kind() QuestionType   { return TrueFalse }
func (TextAnswer) Kind() QuestionType   { return OpenEnded }

// Check validates value against the question and reports whether it is correct.
// Open ended answers are accepted but never auto-scored as correct.
func (q Question) Check(value AnswerValue) (bool, error) {
	if value == nil || value.Kind() != q.Type {
		return false, fmt.Errorf("%w: question %s expects %s", ErrInvalidAnswerValue, q.ID, q.Type)
	}

	switch v := value.(type) {
	case OptionAnswer:
		if !q.hasOption(string(v)) {
			return false, fmt.Errorf("%w: unknown option %q", ErrInvalidAnswerValue, string(v))
		}
		return string(v) == q.CorrectAnswer, nil
	case BoolAnswer:
		want, err := strconv.ParseBool(q.CorrectAnswer)
		if err != nil {
			return false, nil
		}
		return bool(v) == want, nil
	case TextAnswer:
		return false, nil
	}
	return false, fmt.Errorf("%w: unsupported value %T", ErrInvalidAnswerValue, value)
}

func (q Question) hasOption(id string) bool {
	for _, opt := range q.Options {
		if opt.ID == id {
			return true
		}
	}
	return false
}
