package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storyforge/storyforge/internal/domain"
)

func completeScenario() domain.GherkinScenario {
	return domain.GherkinScenario{
		ScenarioTitle: "Successful payment",
		Steps: []domain.GherkinStep{
			{Keyword: domain.KeywordGiven, Text: "a cart with items"},
			{Keyword: domain.KeywordWhen, Text: "a valid card is submitted"},
			{Keyword: domain.KeywordThen, Text: "the order is confirmed"},
		},
	}
}

func validStory() domain.UserStory {
	return domain.UserStory{
		Title:       "As a customer, I want to pay by card so that checkout is quick",
		Description: "Card payments",
		InvestCriteria: domain.InvestCriteria{
			Independent: true, Negotiable: true, Valuable: true,
			Estimable: true, Small: true, Testable: true,
		},
		DefinitionOfDone:   "Card payments succeed end to end with receipts",
		AcceptanceCriteria: []domain.GherkinScenario{completeScenario()},
	}
}

func TestStoryValidator_ValidStory(t *testing.T) {
	v := NewStoryValidator(NewSource(nil))

	result := v.Validate(validStory())

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestStoryValidator_ShortDefinitionOfDone(t *testing.T) {
	v := NewStoryValidator(NewSource(nil))

	story := validStory()
	story.DefinitionOfDone = "ok"

	result := v.Validate(story)

	assert.False(t, result.IsValid)
	assert.Len(t, result.Errors, 1, "only the length rule should fail")
	assert.Equal(t, "definition_of_done", result.Errors[0].Field)
}

func TestStoryValidator_TitleFormat(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		isValid bool
	}{
		{
			name:    "canonical format",
			title:   "As a customer, I want to pay by card so that checkout is quick",
			isValid: true,
		},
		{
			name:    "case-insensitive keywords",
			title:   "as a MANAGER, I WANT reports so that I can plan",
			isValid: true,
		},
		{
			name:    "an article accepted",
			title:   "As an admin, I want audit logs so that changes are traceable",
			isValid: true,
		},
		{
			name:    "missing so that",
			title:   "As a customer, I want to pay by card",
			isValid: false,
		},
		{
			name:    "missing role",
			title:   "I want to pay by card so that checkout is quick",
			isValid: false,
		},
		{
			name:    "free-form title",
			title:   "Implement card payments",
			isValid: false,
		},
	}

	v := NewStoryValidator(NewSource(nil))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			story := validStory()
			story.Title = tt.title

			result := v.Validate(story)

			assert.Equal(t, tt.isValid, result.IsValid)
			if !tt.isValid {
				assert.Len(t, result.Errors, 1)
				assert.Equal(t, "title", result.Errors[0].Field)
			}
		})
	}
}

func TestStoryValidator_InvestThresholdHardFails(t *testing.T) {
	v := NewStoryValidator(NewSource(nil))

	story := validStory()
	story.InvestCriteria = domain.InvestCriteria{Valuable: true, Testable: true}

	result := v.Validate(story)

	assert.False(t, result.IsValid)
	assert.Len(t, result.Errors, 1)
	assert.Equal(t, "invest_criteria", result.Errors[0].Field)
}

func TestStoryValidator_CollectsAllFailuresInOrder(t *testing.T) {
	v := NewStoryValidator(NewSource(nil))

	story := domain.UserStory{
		Title:            "free-form",
		DefinitionOfDone: "ok",
	}

	result := v.Validate(story)

	assert.False(t, result.IsValid)
	// Fixed order: definition_of_done, title, acceptance_criteria, invest_criteria
	fields := make([]string, len(result.Errors))
	for i, e := range result.Errors {
		fields[i] = e.Field
	}
	assert.Equal(t, []string{"definition_of_done", "title", "acceptance_criteria", "invest_criteria"}, fields)
}

func TestStoryValidator_Deterministic(t *testing.T) {
	v := NewStoryValidator(NewSource(nil))

	story := validStory()
	story.DefinitionOfDone = "ok"
	story.AcceptanceCriteria = nil

	first := v.Validate(story)
	second := v.Validate(story)

	assert.Equal(t, first, second)
}

func TestStoryValidator_CustomThreshold(t *testing.T) {
	rs := DefaultRuleset()
	rs.InvestMinimum = 2
	v := NewStoryValidator(NewSource(rs))

	story := validStory()
	story.InvestCriteria = domain.InvestCriteria{Valuable: true, Testable: true}

	result := v.Validate(story)

	assert.True(t, result.IsValid)
}
