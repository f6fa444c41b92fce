package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"quiz-attempt-engine/internal/domain"
)

func writeFile(t *testing.T, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quizzes.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write quizzes: %v", err)
	}
	return path
}

func TestLoadQuizzes(t *testing.T) {
	path := writeFile(t, `
quizzes:
  - id: harbour
    title: Harbour walk
    difficulty: easy
    reward: 40
    questions:
      - id: q1
        position: 1
        type: multiple_choice
        prompt: Which pier is oldest?
        options:
          - {id: a, text: North}
          - {id: b, text: South}
        correctAnswer: b
      - id: q2
        position: 2
        type: true_false
        prompt: The lighthouse is still in use.
        correctAnswer: "true"
`)
	quizzes, err := LoadQuizzes(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	quiz, ok := quizzes["harbour"]
	if !ok {
		t.Fatalf("harbour quiz missing: %+v", quizzes)
	}
	if quiz.Reward != 40 || quiz.Difficulty != domain.Easy || len(quiz.Questions) != 2 {
		t.Fatalf("unexpected quiz %+v", quiz)
	}
	if q := quiz.Questions[0]; q.CorrectAnswer != "b" || len(q.Options) != 2 || q.Type != domain.MultipleChoice {
		t.Fatalf("unexpected question %+v", q)
	}
}

func TestLoadQuizzesRejectsInvalid(t *testing.T) {
	path := writeFile(t, `
quizzes:
  - id: broken
    questions:
      - id: q1
        type: multiple_choice
        options:
          - {id: a, text: A}
        correctAnswer: z
`)
	if _, err := LoadQuizzes(path); !errors.Is(err, domain.ErrInvalidQuiz) {
		t.Fatalf("expected ErrInvalidQuiz, got %v", err)
	}

	path = writeFile(t, `
quizzes:
  - id: twice
  - id: twice
`)
	if _, err := LoadQuizzes(path); !errors.Is(err, domain.ErrInvalidQuiz) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
}
