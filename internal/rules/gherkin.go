package rules

import (
	"fmt"
	"strings"

	"github.com/storyforge/storyforge/internal/domain"
)

// GherkinValidator checks a scenario list for structural completeness.
type GherkinValidator struct{}

// NewGherkinValidator creates a GherkinValidator.
func NewGherkinValidator() *GherkinValidator {
	return &GherkinValidator{}
}

// Validate returns one error when the scenario list is empty, and at
// most one error per incomplete scenario. All missing step kinds for a
// scenario collapse into a single error listing every missing kind; a
// scenario with zero steps reports all three at once.
func (v *GherkinValidator) Validate(scenarios []domain.GherkinScenario) []domain.ValidationError {
	if len(scenarios) == 0 {
		return []domain.ValidationError{{
			Field:   "acceptance_criteria",
			Message: "user story must have at least one acceptance criteria scenario",
		}}
	}

	var errs []domain.ValidationError
	for i, scenario := range scenarios {
		missing := scenario.MissingKeywords()
		if len(missing) == 0 {
			continue
		}

		names := make([]string, len(missing))
		for j, kw := range missing {
			names[j] = string(kw)
		}

		errs = append(errs, domain.ValidationError{
			Field: fmt.Sprintf("acceptance_criteria[%d]", i),
			Message: fmt.Sprintf("scenario %q missing %s step(s)",
				scenario.ScenarioTitle, strings.Join(names, ", ")),
		})
	}

	return errs
}
