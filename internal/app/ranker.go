package app

import (
	"sort"

	"quiz-attempt-engine/internal/domain"
)

// Ranker keeps aggregates in a total order: points desc, high scores desc,
// earliest to reach the total first, then user ID. Not safe for concurrent use.
type Ranker struct {
	ordered []domain.Aggregate
	byUser  map[string]domain.Aggregate
}

// NewRanker sorts aggregates. A user listed twice keeps the last aggregate.
func NewRanker(aggregates []domain.Aggregate) *Ranker {
	r := &Ranker{byUser: make(map[string]domain.Aggregate, len(aggregates))}
	for _, agg := range aggregates {
		r.byUser[agg.UserID] = agg
	}
	r.ordered = make([]domain.Aggregate, 0, len(r.byUser))
	for _, agg := range r.byUser {
		r.ordered = append(r.ordered, agg)
	}
	sort.Slice(r.ordered, func(i, j int) bool {
		return rankedBefore(r.ordered[i], r.ordered[j])
	})
	return r
}

func rankedBefore(a, b domain.Aggregate) bool {
	if a.QuizPoints != b.QuizPoints {
		return a.QuizPoints > b.QuizPoints
	}
	if a.HighScoreCount != b.HighScoreCount {
		return a.HighScoreCount > b.HighScoreCount
	}
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.Before(b.UpdatedAt)
	}
	return a.UserID < b.UserID
}

func (r *Ranker) Len() int {
	return len(r.ordered)
}

// search returns the index of the first aggregate not ranked before agg.
func (r *Ranker) search(agg domain.Aggregate) int {
	return sort.Search(len(r.ordered), func(i int) bool {
		return !rankedBefore(r.ordered[i], agg)
	})
}

// Upsert inserts or moves one aggregate without re-sorting the rest.
func (r *Ranker) Upsert(agg domain.Aggregate) {
	if old, ok := r.byUser[agg.UserID]; ok {
		i := r.search(old)
		if i < len(r.ordered) && r.ordered[i].UserID == old.UserID {
			r.ordered = append(r.ordered[:i], r.ordered[i+1:]...)
		}
	}
	r.byUser[agg.UserID] = agg

	i := r.search(agg)
	r.ordered = append(r.ordered, domain.Aggregate{})
	copy(r.ordered[i+1:], r.ordered[i:])
	r.ordered[i] = agg
}

// Page returns 1-based page of size limit. Out of range pages are empty.
func (r *Ranker) Page(page, limit int) []domain.LeaderboardEntry {
	if page < 1 || limit < 1 {
		return []domain.LeaderboardEntry{}
	}
	start := (page - 1) * limit
	if start >= len(r.ordered) {
		return []domain.LeaderboardEntry{}
	}
	end := start + limit
	if end > len(r.ordered) {
		end = len(r.ordered)
	}
	entries := make([]domain.LeaderboardEntry, 0, end-start)
	for i := start; i < end; i++ {
		entries = append(entries, domain.LeaderboardEntry{Rank: i + 1, Aggregate: r.ordered[i]})
	}
	return entries
}

// Top returns the first n entries.
func (r *Ranker) Top(n int) []domain.LeaderboardEntry {
	return r.Page(1, n)
}

// Position locates userID anywhere in the ranking.
func (r *Ranker) Position(userID string) (domain.LeaderboardEntry, bool) {
	agg, ok := r.byUser[userID]
	if !ok {
		return domain.LeaderboardEntry{}, false
	}
	i := r.search(agg)
	if i >= len(r.ordered) || r.ordered[i].UserID != userID {
		return domain.LeaderboardEntry{}, false
	}
	return domain.LeaderboardEntry{Rank: i + 1, Aggregate: r.ordered[i]}, true
}
