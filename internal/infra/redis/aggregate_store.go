package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-attempt-engine/internal/domain"
)

// applyScript counts one result into the global and the per-quiz scope.
// KEYS[1] is the applied-attempts set, KEYS[2..6] and KEYS[7..11] are the
// points/high/attempts/names/updated keys of each scope.
// ARGV: attemptID, userID, displayName, reward, highScore(0|1), finalizedAt(unix nanos).
var applyScript = redis.NewScript(`
if redis.call("SADD", KEYS[1], ARGV[1]) == 0 then
	return 0
end
for base = 2, 7, 5 do
	redis.call("ZINCRBY", KEYS[base], ARGV[4], ARGV[2])
	redis.call("HINCRBY", KEYS[base + 1], ARGV[2], ARGV[5])
	redis.call("HINCRBY", KEYS[base + 2], ARGV[2], 1)
	if ARGV[3] ~= "" then
		redis.call("HSET", KEYS[base + 3], ARGV[2], ARGV[3])
	end
	if tonumber(ARGV[4]) > 0 then
		redis.call("HSET", KEYS[base + 4], ARGV[2], ARGV[6])
	else
		redis.call("HSETNX", KEYS[base + 4], ARGV[2], ARGV[6])
	end
end
return 1
`)

// AggregateStore keeps leaderboard aggregates in Redis:
//
//	ZSET leaderboard:{scope}:points   user -> points
//	HASH leaderboard:{scope}:high     user -> high score count
//	HASH leaderboard:{scope}:attempts user -> attempt count
//	HASH leaderboard:{scope}:names    user -> display name
//	HASH leaderboard:{scope}:updated  user -> unix nanos the points last changed
//
// scope is "global" or "quiz:{quizID}".
type AggregateStore struct {
	client *redis.Client
}

func NewAggregateStore(client *redis.Client) *AggregateStore {
	return &AggregateStore{client: client}
}

type scopeKeys struct {
	points, high, attempts, names, updated string
}

func keysFor(quizID string) scopeKeys {
	scope := "global"
	if quizID != "" {
		scope = "quiz:" + quizID
	}
	prefix := "leaderboard:" + scope + ":"
	return scopeKeys{
		points:   prefix + "points",
		high:     prefix + "high",
		attempts: prefix + "attempts",
		names:    prefix + "names",
		updated:  prefix + "updated",
	}
}

func (k scopeKeys) list() []string {
	return []string{k.points, k.high, k.attempts, k.names, k.updated}
}

func (s *AggregateStore) Apply(ctx context.Context, result domain.Result) (domain.Aggregate, domain.Aggregate, error) {
	global, perQuiz := keysFor(""), keysFor(result.QuizID)
	keys := append([]string{"leaderboard:applied"}, global.list()...)
	keys = append(keys, perQuiz.list()...)

	high := 0
	if result.HighScore {
		high = 1
	}
	err := applyScript.Run(ctx, s.client, keys,
		result.AttemptID,
		result.UserID,
		result.DisplayName,
		result.Reward,
		high,
		strconv.FormatInt(result.FinalizedAt.UnixNano(), 10),
	).Err()
	if err != nil {
		return domain.Aggregate{}, domain.Aggregate{}, fmt.Errorf("apply result: %w", err)
	}

	g, err := s.aggregate(ctx, global, result.UserID)
	if err != nil {
		return domain.Aggregate{}, domain.Aggregate{}, err
	}
	q, err := s.aggregate(ctx, perQuiz, result.UserID)
	if err != nil {
		return domain.Aggregate{}, domain.Aggregate{}, err
	}
	return g, q, nil
}

func (s *AggregateStore) aggregate(ctx context.Context, keys scopeKeys, userID string) (domain.Aggregate, error) {
	pipe := s.client.Pipeline()
	points := pipe.ZScore(ctx, keys.points, userID)
	high := pipe.HGet(ctx, keys.high, userID)
	attempts := pipe.HGet(ctx, keys.attempts, userID)
	name := pipe.HGet(ctx, keys.names, userID)
	updated := pipe.HGet(ctx, keys.updated, userID)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return domain.Aggregate{}, fmt.Errorf("read aggregate: %w", err)
	}

	return domain.Aggregate{
		UserID:         userID,
		DisplayName:    name.Val(),
		QuizPoints:     int(points.Val()),
		HighScoreCount: atoi(high.Val()),
		AttemptCount:   atoi(attempts.Val()),
		UpdatedAt:      fromNanos(updated.Val()),
	}, nil
}

func (s *AggregateStore) List(ctx context.Context, quizID string) ([]domain.Aggregate, error) {
	keys := keysFor(quizID)

	pipe := s.client.Pipeline()
	points := pipe.ZRangeWithScores(ctx, keys.points, 0, -1)
	high := pipe.HGetAll(ctx, keys.high)
	attempts := pipe.HGetAll(ctx, keys.attempts)
	names := pipe.HGetAll(ctx, keys.names)
	updated := pipe.HGetAll(ctx, keys.updated)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("list aggregates: %w", err)
	}

	out := make([]domain.Aggregate, 0, len(points.Val()))
	for _, z := range points.Val() {
		userID, _ := z.Member.(string)
		out = append(out, domain.Aggregate{
			UserID:         userID,
			DisplayName:    names.Val()[userID],
			QuizPoints:     int(z.Score),
			HighScoreCount: atoi(high.Val()[userID]),
			AttemptCount:   atoi(attempts.Val()[userID]),
			UpdatedAt:      fromNanos(updated.Val()[userID]),
		})
	}
	return out, nil
}

func atoi(raw string) int {
	n, _ := strconv.Atoi(raw)
	return n
}

func fromNanos(raw string) time.Time {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
