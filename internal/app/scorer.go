package app

import "quiz-attempt-engine/internal/domain"

// RewardMode selects how a quiz reward is granted.
type RewardMode string

const (
	// RewardFlat grants the full quiz reward once the minimum score is met.
	RewardFlat RewardMode = "flat"
	// RewardProrated grants reward*score/100 once the minimum score is met.
	RewardProrated RewardMode = "prorated"
)

// ScoringPolicy holds the business constants used at finalization.
type ScoringPolicy struct {
	Mode          RewardMode
	MinScore      int
	GrantOnExpiry bool
	HighScore     int
}

func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		Mode:          RewardFlat,
		MinScore:      50,
		GrantOnExpiry: true,
		HighScore:     80,
	}
}

// Scorer computes results. It is pure: no clock, no I/O.
type Scorer struct {
	policy ScoringPolicy
}

func NewScorer(policy ScoringPolicy) Scorer {
	return Scorer{policy: policy}
}

// Score counts correct answers over every question of the quiz; unanswered
// questions earn nothing. Identity fields of the result are left to the caller.
func (s Scorer) Score(quiz domain.Quiz, answers map[string]domain.Answer, status domain.AttemptStatus) domain.Result {
	total := len(quiz.Questions)
	correct := 0
	for _, q := range quiz.Questions {
		if answer, ok := answers[q.ID]; ok && answer.Correct {
			correct++
		}
	}

	score := percentage(correct, total)
	return domain.Result{
		QuizID:    quiz.ID,
		Status:    status,
		Score:     score,
		Correct:   correct,
		Total:     total,
		Reward:    s.reward(quiz.Reward, score, status),
		HighScore: total > 0 && score >= s.policy.HighScore,
	}
}

func (s Scorer) reward(amount, score int, status domain.AttemptStatus) int {
	if amount <= 0 || score < s.policy.MinScore {
		return 0
	}
	if status == domain.StatusExpired && !s.policy.GrantOnExpiry {
		return 0
	}
	if s.policy.Mode == RewardProrated {
		return amount * score / 100
	}
	return amount
}

// percentage rounds half up.
func percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}
