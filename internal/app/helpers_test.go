package app_test

import (
	"fmt"
	"sync"
	"time"

	"quiz-attempt-engine/internal/app"
	"quiz-attempt-engine/internal/domain"
	"quiz-attempt-engine/internal/infra/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type collectingPublisher struct {
	mu      sync.Mutex
	results []domain.Result
}

func (p *collectingPublisher) Publish(result domain.Result) {
	p.mu.Lock()
	p.results = append(p.results, result)
	p.mu.Unlock()
}

func (p *collectingPublisher) Results() []domain.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Result(nil), p.results...)
}

type fixture struct {
	clock     *fakeClock
	published *collectingPublisher
	store     *memory.AttemptStore
	bank      *app.QuestionBank
	service   *app.AttemptService
}

// newFixture builds a service with a one-minute-per-question time limit.
func newFixture(policy app.ScoringPolicy) *fixture {
	f := &fixture{
		clock:     newFakeClock(),
		published: &collectingPublisher{},
		store:     memory.NewAttemptStore(),
	}
	repo := memory.NewQuizRepository(memory.NewStaticQuizLoader(testQuizzes()), time.Hour)
	f.bank = app.NewQuestionBank(repo, app.TimeLimitPolicy{PerQuestion: time.Minute})
	ids := 0
	f.service = app.NewAttemptService(f.store, f.bank, app.NewScorer(policy),
		app.WithClock(f.clock.Now),
		app.WithResultPublisher(f.published),
		app.WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("attempt-%d", ids)
		}),
	)
	return f
}

var alice = domain.Player{UserID: "u1", DisplayName: "Alice"}

func mcQuestion(id string, position int, correct string) domain.Question {
	return domain.Question{
		ID:       id,
		Position: position,
		Type:     domain.MultipleChoice,
		Prompt:   "Pick one for " + id,
		Options: []domain.Option{
			{ID: "a", Text: "A"},
			{ID: "b", Text: "B"},
			{ID: "c", Text: "C"},
		},
		CorrectAnswer: correct,
	}
}

func testQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"museum": {
			ID:         "museum",
			Title:      "Museum quarter",
			Difficulty: domain.Medium,
			Reward:     100,
			Questions: []domain.Question{
				mcQuestion("q3", 3, "c"),
				mcQuestion("q1", 1, "a"),
				mcQuestion("q2", 2, "b"),
				{ID: "q4", Position: 4, Type: domain.TrueFalse, Prompt: "Open on Mondays?", CorrectAnswer: "false"},
			},
		},
		"harbour": {
			ID:     "harbour",
			Title:  "Harbour",
			Reward: 50,
			Questions: []domain.Question{
				mcQuestion("h1", 1, "a"),
				mcQuestion("h2", 2, "a"),
				mcQuestion("h3", 3, "a"),
				mcQuestion("h4", 4, "a"),
				{ID: "h5", Position: 5, Type: domain.OpenEnded, Prompt: "Favourite boat?"},
			},
		},
	}
}
