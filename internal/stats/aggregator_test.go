package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storyforge/storyforge/internal/domain"
)

func storyWith(status domain.TestStatus, criteria domain.InvestCriteria) domain.UserStory {
	return domain.UserStory{
		Title:          "As a customer, I want things so that goals are met",
		TestStatus:     status,
		InvestCriteria: criteria,
	}
}

func TestAggregate_Empty(t *testing.T) {
	report := Aggregate(nil)

	assert.Equal(t, 0, report.TotalStories)
	assert.Equal(t, map[domain.TestStatus]int{
		domain.StatusNotTested: 0,
		domain.StatusPassed:    0,
		domain.StatusFailed:    0,
	}, report.TestStatusBreakdown)

	assert.Len(t, report.InvestCompliance, 6)
	for _, name := range domain.InvestCriterionNames() {
		assert.Equal(t, 0.0, report.InvestCompliance[name])
	}
}

func TestAggregate_TestStatusBreakdown(t *testing.T) {
	stories := []domain.UserStory{
		storyWith(domain.StatusPassed, domain.InvestCriteria{}),
		storyWith(domain.StatusPassed, domain.InvestCriteria{}),
		storyWith(domain.StatusFailed, domain.InvestCriteria{}),
		storyWith(domain.StatusNotTested, domain.InvestCriteria{}),
	}

	report := Aggregate(stories)

	assert.Equal(t, 4, report.TotalStories)
	assert.Equal(t, 2, report.TestStatusBreakdown[domain.StatusPassed])
	assert.Equal(t, 1, report.TestStatusBreakdown[domain.StatusFailed])
	assert.Equal(t, 1, report.TestStatusBreakdown[domain.StatusNotTested])
}

func TestAggregate_InvestCompliance(t *testing.T) {
	// 2 of 3 stories independent -> 66.7
	stories := []domain.UserStory{
		storyWith(domain.StatusNotTested, domain.InvestCriteria{Independent: true, Testable: true}),
		storyWith(domain.StatusNotTested, domain.InvestCriteria{Independent: true}),
		storyWith(domain.StatusNotTested, domain.InvestCriteria{Valuable: true}),
	}

	report := Aggregate(stories)

	assert.Equal(t, 66.7, report.InvestCompliance["independent"])
	assert.Equal(t, 33.3, report.InvestCompliance["valuable"])
	assert.Equal(t, 33.3, report.InvestCompliance["testable"])
	assert.Equal(t, 0.0, report.InvestCompliance["negotiable"])
	assert.Equal(t, 0.0, report.InvestCompliance["estimable"])
	assert.Equal(t, 0.0, report.InvestCompliance["small"])
}

func TestAggregate_FullCompliance(t *testing.T) {
	all := domain.InvestCriteria{
		Independent: true, Negotiable: true, Valuable: true,
		Estimable: true, Small: true, Testable: true,
	}
	report := Aggregate([]domain.UserStory{
		storyWith(domain.StatusPassed, all),
		storyWith(domain.StatusPassed, all),
	})

	for _, name := range domain.InvestCriterionNames() {
		assert.Equal(t, 100.0, report.InvestCompliance[name])
	}
}

func TestPercentage_RoundsHalfUp(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		total    int
		expected float64
	}{
		{name: "zero over zero is defined as zero", count: 0, total: 0, expected: 0.0},
		{name: "two thirds", count: 2, total: 3, expected: 66.7},
		{name: "one third", count: 1, total: 3, expected: 33.3},
		{name: "exact half rounds up", count: 1, total: 8, expected: 12.5},
		{name: "one sixth", count: 1, total: 6, expected: 16.7},
		{name: "one seventh", count: 1, total: 7, expected: 14.3},
		{name: "boundary half tenth rounds up", count: 1, total: 16, expected: 6.3},
		{name: "full", count: 5, total: 5, expected: 100.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, percentage(tt.count, tt.total))
		})
	}
}

func TestAggregate_Reproducible(t *testing.T) {
	stories := []domain.UserStory{
		storyWith(domain.StatusPassed, domain.InvestCriteria{Independent: true}),
		storyWith(domain.StatusFailed, domain.InvestCriteria{Small: true}),
		storyWith(domain.StatusNotTested, domain.InvestCriteria{Independent: true, Small: true}),
	}

	first := Aggregate(stories)
	second := Aggregate(stories)

	assert.Equal(t, first, second)
}
