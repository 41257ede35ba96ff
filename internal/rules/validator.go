package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/storyforge/storyforge/internal/domain"
)

// titlePattern matches "As a <role>, I want <goal> so that <reason>"
// with three non-empty components, case-insensitive.
var titlePattern = regexp.MustCompile(`(?i)^as an? .+, i want .+ so that .+`)

// StoryValidator runs every structural check against a story and
// collects all failures. Checks run in a fixed order so error lists
// are deterministic; nothing short-circuits.
type StoryValidator struct {
	source  *Source
	gherkin *GherkinValidator
}

// NewStoryValidator creates a validator reading thresholds from the
// given rule source.
func NewStoryValidator(source *Source) *StoryValidator {
	if source == nil {
		source = NewSource(nil)
	}
	return &StoryValidator{
		source:  source,
		gherkin: NewGherkinValidator(),
	}
}

// Validate checks the story and reports every violation found, in
// check order: definition of done, title format, acceptance criteria,
// INVEST threshold. IsValid is true iff no errors were collected.
func (v *StoryValidator) Validate(story domain.UserStory) domain.ValidationResult {
	rs := v.source.Current()
	var errs []domain.ValidationError

	if len(strings.TrimSpace(story.DefinitionOfDone)) < rs.MinDefinitionOfDone {
		errs = append(errs, domain.ValidationError{
			Field: "definition_of_done",
			Message: fmt.Sprintf("definition of done must be at least %d characters long",
				rs.MinDefinitionOfDone),
		})
	}

	if !titlePattern.MatchString(strings.TrimSpace(story.Title)) {
		errs = append(errs, domain.ValidationError{
			Field:   "title",
			Message: "title must follow format: 'As a [role], I want [goal] so that [reason]'",
		})
	}

	errs = append(errs, v.gherkin.Validate(story.AcceptanceCriteria)...)

	evaluator := NewInvestEvaluator(rs.InvestMinimum)
	if eval := evaluator.Evaluate(story.InvestCriteria); !eval.MeetsThreshold {
		errs = append(errs, domain.ValidationError{
			Field: "invest_criteria",
			Message: fmt.Sprintf("story meets %d of 6 INVEST criteria; at least %d required",
				eval.CompliantCount, evaluator.Minimum()),
		})
	}

	return domain.ValidationResult{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}
