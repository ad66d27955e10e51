package app

import (
	"sort"

	"exam-quiz-service/internal/domain"
)

// Leaderboard ranks users by mean percentage across all their attempts,
// highest first. Ties are broken by username.
func Leaderboard(records []domain.PerformanceRecord) []domain.LeaderboardEntry {
	type acc struct {
		sum      float64
		attempts int
	}
	byUser := make(map[string]*acc)
	for _, r := range records {
		a, ok := byUser[r.Username]
		if !ok {
			a = &acc{}
			byUser[r.Username] = a
		}
		a.sum += r.Percentage
		a.attempts++
	}

	entries := make([]domain.LeaderboardEntry, 0, len(byUser))
	for username, a := range byUser {
		entries = append(entries, domain.LeaderboardEntry{
			Username:       username,
			MeanPercentage: a.sum / float64(a.attempts),
			Attempts:       a.attempts,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].MeanPercentage != entries[j].MeanPercentage {
			return entries[i].MeanPercentage > entries[j].MeanPercentage
		}
		return entries[i].Username < entries[j].Username
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// SeriesByUser groups records into one time-ordered series per user, sorted
// by username. Records with equal timestamps keep their log order.
func SeriesByUser(records []domain.PerformanceRecord) []domain.Series {
	index := make(map[string]int)
	var series []domain.Series
	for _, r := range records {
		i, ok := index[r.Username]
		if !ok {
			i = len(series)
			index[r.Username] = i
			series = append(series, domain.Series{Username: r.Username})
		}
		series[i].Points = append(series[i].Points, domain.SeriesPoint{
			Timestamp:  r.Timestamp,
			Percentage: r.Percentage,
		})
	}
	for i := range series {
		points := series[i].Points
		sort.SliceStable(points, func(a, b int) bool {
			return points[a].Timestamp.Before(points[b].Timestamp)
		})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Username < series[j].Username
	})
	return series
}

// Stats summarizes one user's history.
func Stats(username string, history []domain.PerformanceRecord) domain.UserStats {
	stats := domain.UserStats{
		Username: username,
		Attempts: len(history),
		History:  history,
	}
	if len(history) == 0 {
		return stats
	}
	var sum float64
	for _, r := range history {
		sum += r.Percentage
	}
	stats.MeanPercentage = sum / float64(len(history))
	return stats
}
