package generate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/storyforge/storyforge/internal/domain"
)

// sentencePattern splits notes into rough requirement sentences.
var sentencePattern = regexp.MustCompile(`[.!?;\n]+`)

// TemplateGenerator drafts stories from raw notes without any external
// model: one story per requirement sentence, capped at maxStories.
// Output is deterministic, which makes it the offline fallback and the
// fixture generator for tests.
type TemplateGenerator struct{}

// NewTemplateGenerator creates a TemplateGenerator.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

// Generate builds one templated story per non-empty sentence in the
// notes, up to maxStories.
func (g *TemplateGenerator) Generate(_ context.Context, notes domain.RawNotes, maxStories int) ([]domain.UserStory, error) {
	sentences := splitSentences(notes.Content)
	if len(sentences) > maxStories {
		sentences = sentences[:maxStories]
	}

	stories := make([]domain.UserStory, 0, len(sentences))
	for _, sentence := range sentences {
		goal := strings.ToLower(strings.TrimSpace(sentence))
		story := domain.UserStory{
			Title:       fmt.Sprintf("As a customer, I want %s so that my needs are met", goal),
			Description: sentence,
			InvestCriteria: domain.InvestCriteria{
				Negotiable: true,
				Valuable:   true,
				Estimable:  true,
				Small:      true,
				Testable:   true,
			},
			DefinitionOfDone: fmt.Sprintf("The capability %q is implemented, reviewed, and covered by passing acceptance tests", goal),
			AcceptanceCriteria: []domain.GherkinScenario{
				{
					ScenarioTitle: sentence,
					Steps: []domain.GherkinStep{
						{Keyword: domain.KeywordGiven, Text: "the system is available"},
						{Keyword: domain.KeywordWhen, Text: fmt.Sprintf("the customer attempts to %s", goal)},
						{Keyword: domain.KeywordThen, Text: "the expected outcome is observed"},
					},
				},
			},
			TestStatus: domain.StatusNotTested,
		}
		stories = append(stories, story)
	}

	return stories, nil
}

func splitSentences(content string) []string {
	parts := sentencePattern.Split(content, -1)
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	return sentences
}
