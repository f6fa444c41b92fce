package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-attempt-engine/internal/domain"
)

// aggregateSQL folds quiz_results into leaderboard aggregates. updated_at is
// the last time a rewarded attempt changed the user's points.
const aggregateSQL = `
SELECT user_id,
       COALESCE((ARRAY_AGG(display_name ORDER BY finalized_at DESC) FILTER (WHERE display_name <> ''))[1], ''),
       COALESCE(SUM(reward), 0),
       COUNT(*) FILTER (WHERE high_score),
       COUNT(*),
       COALESCE(MAX(finalized_at) FILTER (WHERE reward > 0), MIN(finalized_at))
FROM quiz_results
WHERE ($1::text = '' OR quiz_id = $1::text)
  AND ($2::text = '' OR user_id = $2::text)
GROUP BY user_id`

// ResultStore durably records results and derives aggregates with SQL.
// The attempt_id primary key makes each reward count at most once.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) Apply(ctx context.Context, r domain.Result) (domain.Aggregate, domain.Aggregate, error) {
	_, err := s.pool.Exec(ctx, `
INSERT INTO quiz_results (attempt_id, user_id, display_name, quiz_id, status, score, correct, total, reward, high_score, finalized_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (attempt_id) DO NOTHING`,
		r.AttemptID, r.UserID, r.DisplayName, r.QuizID, string(r.Status),
		r.Score, r.Correct, r.Total, r.Reward, r.HighScore, r.FinalizedAt,
	)
	if err != nil {
		return domain.Aggregate{}, domain.Aggregate{}, fmt.Errorf("insert result: %w", err)
	}

	global, err := s.one(ctx, "", r.UserID)
	if err != nil {
		return domain.Aggregate{}, domain.Aggregate{}, err
	}
	perQuiz, err := s.one(ctx, r.QuizID, r.UserID)
	if err != nil {
		return domain.Aggregate{}, domain.Aggregate{}, err
	}
	return global, perQuiz, nil
}

func (s *ResultStore) List(ctx context.Context, quizID string) ([]domain.Aggregate, error) {
	rows, err := s.pool.Query(ctx, aggregateSQL, quizID, "")
	if err != nil {
		return nil, fmt.Errorf("query aggregates: %w", err)
	}
	defer rows.Close()

	var out []domain.Aggregate
	for rows.Next() {
		agg, err := scanAggregate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, agg)
	}
	return out, rows.Err()
}

// Result returns the stored result of an attempt.
func (s *ResultStore) Result(ctx context.Context, attemptID string) (domain.Result, error) {
	var (
		r      domain.Result
		status string
	)
	err := s.pool.QueryRow(ctx, `
SELECT attempt_id, user_id, display_name, quiz_id, status, score, correct, total, reward, high_score, finalized_at
FROM quiz_results WHERE attempt_id = $1`, attemptID).Scan(
		&r.AttemptID, &r.UserID, &r.DisplayName, &r.QuizID, &status,
		&r.Score, &r.Correct, &r.Total, &r.Reward, &r.HighScore, &r.FinalizedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Result{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Result{}, fmt.Errorf("load result: %w", err)
	}
	r.Status = domain.AttemptStatus(status)
	return r, nil
}

func (s *ResultStore) one(ctx context.Context, quizID, userID string) (domain.Aggregate, error) {
	agg, err := scanAggregate(s.pool.QueryRow(ctx, aggregateSQL, quizID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Aggregate{UserID: userID}, nil
	}
	return agg, err
}

func scanAggregate(row pgx.Row) (domain.Aggregate, error) {
	var agg domain.Aggregate
	err := row.Scan(&agg.UserID, &agg.DisplayName, &agg.QuizPoints, &agg.HighScoreCount, &agg.AttemptCount, &agg.UpdatedAt)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return domain.Aggregate{}, fmt.Errorf("scan aggregate: %w", err)
	}
	return agg, err
}
