package domain

import "time"

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	OpenEnded      QuestionType = "open_ended"
)

// Difficulty of a quiz.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Option represents a possible answer for a multiple choice question.
type Option struct {
	ID   string `json:"id" yaml:"id"`
	Text string `json:"text" yaml:"text"`
}

// Question models a single quiz question. CorrectAnswer holds the option ID,
// "true"/"false", or reference text depending on Type.
type Question struct {
	ID            string       `json:"id" yaml:"id"`
	Position      int          `json:"position" yaml:"position"`
	Type          QuestionType `json:"type" yaml:"type"`
	Prompt        string       `json:"prompt" yaml:"prompt"`
	Options       []Option     `json:"options,omitempty" yaml:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer" yaml:"correctAnswer"`
}

// Quiz is an immutable, published collection of questions.
type Quiz struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Topic       string     `json:"topic" yaml:"topic"`
	Difficulty  Difficulty `json:"difficulty" yaml:"difficulty"`
	Reward      int        `json:"reward" yaml:"reward"`
	Questions   []Question `json:"questions" yaml:"questions"`
}

// Question returns the question with the given ID.
func (q Quiz) Question(id string) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return Question{}, false
}

// PublicQuestion is a question as shown to the attempt holder.
type PublicQuestion struct {
	ID       string       `json:"id"`
	Position int          `json:"position"`
	Type     QuestionType `json:"type"`
	Prompt   string       `json:"prompt"`
	Options  []Option     `json:"options,omitempty"`
}

// PublicQuiz is a quiz without correct answers.
type PublicQuiz struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Topic       string           `json:"topic"`
	Difficulty  Difficulty       `json:"difficulty"`
	Reward      int              `json:"reward"`
	TimeLimit   int              `json:"timeLimitSeconds"`
	Questions   []PublicQuestion `json:"questions"`
}

// Player identifies the user taking a quiz.
type Player struct {
	UserID      string
	DisplayName string
}

// AttemptStatus is the lifecycle state of an attempt.
type AttemptStatus string

const (
	StatusInProgress AttemptStatus = "in_progress"
	StatusCompleted  AttemptStatus = "completed"
	StatusExpired    AttemptStatus = "expired"
)

// Terminal reports whether no further transitions are possible.
func (s AttemptStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusExpired
}

// Answer is a recorded answer for one question of an attempt.
type Answer struct {
	QuestionID  string      `json:"questionId"`
	Value       AnswerValue `json:"value"`
	Correct     bool        `json:"-"`
	SubmittedAt time.Time   `json:"submittedAt"`
}

// Result is the immutable outcome of a finalized attempt.
type Result struct {
	AttemptID   string        `json:"attemptId"`
	UserID      string        `json:"userId"`
	DisplayName string        `json:"displayName"`
	QuizID      string        `json:"quizId"`
	Status      AttemptStatus `json:"status"`
	Score       int           `json:"score"`
	Correct     int           `json:"correct"`
	Total       int           `json:"total"`
	Reward      int           `json:"reward"`
	HighScore   bool          `json:"highScore"`
	FinalizedAt time.Time     `json:"finalizedAt"`
}

// ReviewItem reveals the correct answer for a question once an attempt is final.
type ReviewItem struct {
	QuestionID    string      `json:"questionId"`
	Submitted     AnswerValue `json:"submitted,omitempty"`
	CorrectAnswer string      `json:"correctAnswer"`
	Correct       bool        `json:"correct"`
}

// AttemptView is a read-only snapshot of an attempt.
type AttemptView struct {
	ID               string            `json:"id"`
	UserID           string            `json:"userId"`
	QuizID           string            `json:"quizId"`
	Status           AttemptStatus     `json:"status"`
	StartedAt        time.Time         `json:"startedAt"`
	ExpiresAt        time.Time         `json:"expiresAt"`
	RemainingSeconds int               `json:"remainingSeconds"`
	Remaining        string            `json:"remaining"`
	Answers          map[string]Answer `json:"answers"`
	FinalizedAt      *time.Time        `json:"finalizedAt,omitempty"`
	Result           *Result           `json:"result,omitempty"`
	Review           []ReviewItem      `json:"review,omitempty"`
}

// Aggregate is a per-user summary of quiz performance.
type Aggregate struct {
	UserID         string    `json:"userId"`
	DisplayName    string    `json:"displayName"`
	QuizPoints     int       `json:"quizPoints"`
	HighScoreCount int       `json:"highScoreCount"`
	AttemptCount   int       `json:"attemptCount"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// LeaderboardEntry is a ranked aggregate.
type LeaderboardEntry struct {
	Rank int `json:"rank"`
	Aggregate
}

// Pagination describes a leaderboard page.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Leaderboard is one page of the ranking plus the caller's own position.
type Leaderboard struct {
	QuizID       string             `json:"quizId,omitempty"`
	Entries      []LeaderboardEntry `json:"entries"`
	Pagination   Pagination         `json:"pagination"`
	YourPosition *LeaderboardEntry  `json:"yourPosition,omitempty"`
}

// With returns the aggregate after counting one more finalized result.
// UpdatedAt only moves when points change, so it records when the current
// total was first reached.
func (a Aggregate) With(result Result) Aggregate {
	a.UserID = result.UserID
	if result.DisplayName != "" {
		a.DisplayName = result.DisplayName
	}
	a.AttemptCount++
	a.QuizPoints += result.Reward
	if result.HighScore {
		a.HighScoreCount++
	}
	if result.Reward > 0 || a.UpdatedAt.IsZero() {
		a.UpdatedAt = result.FinalizedAt
	}
	return a
}
