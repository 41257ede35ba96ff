package domain

import "time"

// GherkinKeyword is the step kind in a Gherkin scenario
type GherkinKeyword string

const (
	KeywordGiven GherkinKeyword = "Given"
	KeywordWhen  GherkinKeyword = "When"
	KeywordThen  GherkinKeyword = "Then"
	KeywordAnd   GherkinKeyword = "And"
	KeywordBut   GherkinKeyword = "But"
)

// RequiredKeywords returns the step kinds every complete scenario must
// contain, in reporting order. And/But may supplement but never
// substitute for these.
func RequiredKeywords() []GherkinKeyword {
	return []GherkinKeyword{KeywordGiven, KeywordWhen, KeywordThen}
}

// GherkinStep is a single step of an acceptance scenario
type GherkinStep struct {
	Keyword GherkinKeyword `json:"keyword"`
	Text    string         `json:"text"`
}

// GherkinScenario is an ordered list of steps under a scenario title.
// Step order is execution order.
type GherkinScenario struct {
	ScenarioTitle string        `json:"scenario_title"`
	Steps         []GherkinStep `json:"steps"`
}

// MissingKeywords returns the required step kinds absent from the
// scenario, in Given/When/Then order. A scenario with zero steps is
// missing all three.
func (s GherkinScenario) MissingKeywords() []GherkinKeyword {
	present := make(map[GherkinKeyword]bool)
	for _, step := range s.Steps {
		present[step.Keyword] = true
	}

	var missing []GherkinKeyword
	for _, kw := range RequiredKeywords() {
		if !present[kw] {
			missing = append(missing, kw)
		}
	}
	return missing
}

// IsComplete returns true if the scenario has at least one Given, one
// When, and one Then step.
func (s GherkinScenario) IsComplete() bool {
	return len(s.MissingKeywords()) == 0
}

// InvestCriteria holds the six INVEST flags assigned by the generation
// collaborator. Each flag is evaluated independently.
type InvestCriteria struct {
	Independent bool `json:"independent"`
	Negotiable  bool `json:"negotiable"`
	Valuable    bool `json:"valuable"`
	Estimable   bool `json:"estimable"`
	Small       bool `json:"small"`
	Testable    bool `json:"testable"`
}

// InvestCriterionNames returns the six criterion names in their
// canonical order, shared by statistics and reporting.
func InvestCriterionNames() []string {
	return []string{"independent", "negotiable", "valuable", "estimable", "small", "testable"}
}

// Flags returns the boolean values in the same order as
// InvestCriterionNames.
func (c InvestCriteria) Flags() []bool {
	return []bool{c.Independent, c.Negotiable, c.Valuable, c.Estimable, c.Small, c.Testable}
}

// CompliantCount returns how many of the six flags are true.
func (c InvestCriteria) CompliantCount() int {
	count := 0
	for _, f := range c.Flags() {
		if f {
			count++
		}
	}
	return count
}

// TestStatus is the acceptance-test state of a story. Any state may
// move to any other state; transitions are operator-driven.
type TestStatus string

const (
	StatusNotTested TestStatus = "not_tested"
	StatusPassed    TestStatus = "passed"
	StatusFailed    TestStatus = "failed"
)

// AllTestStatuses returns every status in reporting order.
func AllTestStatuses() []TestStatus {
	return []TestStatus{StatusNotTested, StatusPassed, StatusFailed}
}

// IsValid reports whether the status is one of the three known values.
func (s TestStatus) IsValid() bool {
	switch s {
	case StatusNotTested, StatusPassed, StatusFailed:
		return true
	}
	return false
}

// UserStory is the canonical story record. The store owns the
// canonical copy; callers receive clones and mutate only through
// store operations.
type UserStory struct {
	ID                 string            `json:"id"`
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	InvestCriteria     InvestCriteria    `json:"invest_criteria"`
	DefinitionOfDone   string            `json:"definition_of_done"`
	AcceptanceCriteria []GherkinScenario `json:"acceptance_criteria"`
	TestStatus         TestStatus        `json:"test_status"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          *time.Time        `json:"updated_at,omitempty"`
}

// Clone returns a deep copy of the story so callers cannot mutate the
// store's canonical record through shared slices.
func (s UserStory) Clone() UserStory {
	out := s

	if s.AcceptanceCriteria != nil {
		out.AcceptanceCriteria = make([]GherkinScenario, len(s.AcceptanceCriteria))
		for i, sc := range s.AcceptanceCriteria {
			copied := sc
			if sc.Steps != nil {
				copied.Steps = make([]GherkinStep, len(sc.Steps))
				copy(copied.Steps, sc.Steps)
			}
			out.AcceptanceCriteria[i] = copied
		}
	}

	if s.UpdatedAt != nil {
		t := *s.UpdatedAt
		out.UpdatedAt = &t
	}

	return out
}

// RawNotes is the free-text requirement input
type RawNotes struct {
	Content string `json:"content"`
	Context string `json:"context,omitempty"`
}

// ValidationError names a single offending field with a human-readable
// reason.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is the normal, expected output of story validation.
// It is never surfaced as a fault: an invalid story is a result, not
// an error.
type ValidationResult struct {
	IsValid bool              `json:"is_valid"`
	Errors  []ValidationError `json:"errors"`
}
