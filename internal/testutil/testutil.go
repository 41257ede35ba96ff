// Package testutil provides test fixtures shared across the storyforge
// tests.
package testutil

import (
	"testing"
	"time"

	"github.com/storyforge/storyforge/internal/domain"
	"github.com/storyforge/storyforge/internal/store"
)

// FixedTime is the deterministic timestamp used by test clocks.
var FixedTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// NewTestStore creates a MemoryStore with a fixed clock.
func NewTestStore(t *testing.T) *store.MemoryStore {
	t.Helper()

	s := store.NewMemoryStore()
	s.SetClock(func() time.Time { return FixedTime })
	return s
}

// NewTestSQLiteStore creates an in-memory SQLite store, closed when
// the test completes.
func NewTestSQLiteStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewInMemorySQLiteStore()
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// CompleteScenario returns a scenario with one Given, one When, and
// one Then step.
func CompleteScenario(title string) domain.GherkinScenario {
	return domain.GherkinScenario{
		ScenarioTitle: title,
		Steps: []domain.GherkinStep{
			{Keyword: domain.KeywordGiven, Text: "the checkout page is open"},
			{Keyword: domain.KeywordWhen, Text: "the customer submits a valid card"},
			{Keyword: domain.KeywordThen, Text: "the order is confirmed"},
		},
	}
}

// ValidStory returns a story that passes every validation rule.
func ValidStory() domain.UserStory {
	return domain.UserStory{
		Title:       "As a customer, I want to pay by card so that checkout is quick",
		Description: "Card payments at checkout",
		InvestCriteria: domain.InvestCriteria{
			Independent: true,
			Negotiable:  true,
			Valuable:    true,
			Estimable:   true,
			Small:       true,
			Testable:    true,
		},
		DefinitionOfDone:   "Card payments succeed end to end with receipts emailed",
		AcceptanceCriteria: []domain.GherkinScenario{CompleteScenario("Successful card payment")},
		TestStatus:         domain.StatusNotTested,
	}
}
