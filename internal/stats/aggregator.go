// Package stats folds story collections into fleet-wide compliance
// statistics.
package stats

import "github.com/storyforge/storyforge/internal/domain"

// Report is the aggregate view over a story collection.
type Report struct {
	TotalStories        int                       `json:"total_stories"`
	TestStatusBreakdown map[domain.TestStatus]int `json:"test_status_breakdown"`
	InvestCompliance    map[string]float64        `json:"invest_compliance"`
}

// Aggregate computes the test-status histogram and per-criterion
// INVEST compliance percentages. All three statuses and all six
// criteria are always present, zero-filled when absent; an empty
// collection yields 0.0 everywhere rather than an error.
func Aggregate(stories []domain.UserStory) Report {
	report := Report{
		TotalStories:        len(stories),
		TestStatusBreakdown: make(map[domain.TestStatus]int, 3),
		InvestCompliance:    make(map[string]float64, 6),
	}

	for _, status := range domain.AllTestStatuses() {
		report.TestStatusBreakdown[status] = 0
	}

	names := domain.InvestCriterionNames()
	counts := make([]int, len(names))

	for _, story := range stories {
		report.TestStatusBreakdown[story.TestStatus]++
		for i, flag := range story.InvestCriteria.Flags() {
			if flag {
				counts[i]++
			}
		}
	}

	for i, name := range names {
		report.InvestCompliance[name] = percentage(counts[i], len(stories))
	}

	return report
}

// percentage returns count/total as a percentage rounded half-up to
// one decimal place. Integer arithmetic keeps the result bit-for-bit
// reproducible; 0/0 is defined as 0.0.
func percentage(count, total int) float64 {
	if total == 0 {
		return 0.0
	}
	tenths := (count*2000 + total) / (2 * total)
	return float64(tenths) / 10.0
}
