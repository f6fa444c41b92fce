package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"quiz-attempt-engine/internal/domain"
)

type quizFile struct {
	Quizzes []domain.Quiz `yaml:"quizzes"`
}

// LoadQuizzes reads quiz definitions from a YAML file keyed by quiz ID.
// Every quiz is validated; IDs must be unique across the file.
func LoadQuizzes(path string) (map[string]domain.Quiz, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file quizFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	quizzes := make(map[string]domain.Quiz, len(file.Quizzes))
	for _, quiz := range file.Quizzes {
		if err := quiz.Validate(); err != nil {
			return nil, err
		}
		if _, dup := quizzes[quiz.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate quiz %s", domain.ErrInvalidQuiz, quiz.ID)
		}
		quizzes[quiz.ID] = quiz
	}
	return quizzes, nil
}
