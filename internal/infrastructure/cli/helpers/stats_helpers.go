package helpers

import (
	"sort"

	"github.com/doeshing/orbit-go/internal/domain"
)

// ActionStatistic represents usage statistics for an action
type ActionStatistic struct {
	Action string
	Count  int
}

// HistorySummary aggregates a slice of history records.
type HistorySummary struct {
	Total         int
	Successful    int
	Retried       int
	AverageMS     int64
	ActionCounts  map[string]int
	RiskCounts    map[domain.RiskLevel]int
	FailureCounts map[string]int
}

// SummarizeHistory counts outcomes per action and risk level.
func SummarizeHistory(records []domain.HistoryRecord) HistorySummary {
	summary := HistorySummary{
		ActionCounts:  make(map[string]int),
		RiskCounts:    make(map[domain.RiskLevel]int),
		FailureCounts: make(map[string]int),
	}
	var totalMS int64
	for _, rec := range records {
		summary.Total++
		if rec.Success {
			summary.Successful++
		} else {
			summary.FailureCounts[rec.Action]++
		}
		if rec.Attempts > 1 {
			summary.Retried++
		}
		totalMS += rec.ExecutionTimeMS
		summary.ActionCounts[rec.Action]++
		summary.RiskCounts[rec.RiskLevel]++
	}
	if summary.Total > 0 {
		summary.AverageMS = totalMS / int64(summary.Total)
	}
	return summary
}

// CalculateTopActions returns the top N most frequently used actions.
// If limit is 0 or negative, returns all actions.
func CalculateTopActions(frequency map[string]int, limit int) []ActionStatistic {
	stats := make([]ActionStatistic, 0, len(frequency))
	for action, count := range frequency {
		stats = append(stats, ActionStatistic{Action: action, Count: count})
	}
	sortStatisticsByFrequency(stats)

	if shouldLimitResults(limit, len(stats)) {
		return stats[:limit]
	}
	return stats
}

// sortStatisticsByFrequency sorts by count (descending) then by name (ascending)
func sortStatisticsByFrequency(stats []ActionStatistic) {
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count == stats[j].Count {
			return stats[i].Action < stats[j].Action
		}
		return stats[i].Count > stats[j].Count
	})
}

func shouldLimitResults(limit int, actualLength int) bool {
	return limit > 0 && actualLength > limit
}

// CalculateSuccessRate calculates the success rate as a percentage
func CalculateSuccessRate(successfulCount int, executedCount int) float64 {
	if executedCount == 0 {
		return 0.0
	}
	return float64(successfulCount) / float64(executedCount) * 100.0
}
