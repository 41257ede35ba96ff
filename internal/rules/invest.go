package rules

import "github.com/storyforge/storyforge/internal/domain"

// InvestEvaluation is the outcome of checking the six INVEST flags
// against the configured minimum.
type InvestEvaluation struct {
	CompliantCount int  `json:"compliant_count"`
	MeetsThreshold bool `json:"meets_threshold"`
}

// InvestEvaluator counts true INVEST flags and judges them against a
// minimum. It never inspects story content; flag quality is the
// generation collaborator's job.
type InvestEvaluator struct {
	minimum int
}

// NewInvestEvaluator creates an evaluator with the given minimum.
// Out-of-range minimums fall back to the default of 4.
func NewInvestEvaluator(minimum int) *InvestEvaluator {
	if minimum <= 0 || minimum > 6 {
		minimum = DefaultInvestMinimum
	}
	return &InvestEvaluator{minimum: minimum}
}

// Minimum returns the configured threshold.
func (e *InvestEvaluator) Minimum() int {
	return e.minimum
}

// Evaluate returns the compliant flag count and whether it meets the
// threshold.
func (e *InvestEvaluator) Evaluate(criteria domain.InvestCriteria) InvestEvaluation {
	count := criteria.CompliantCount()
	return InvestEvaluation{
		CompliantCount: count,
		MeetsThreshold: count >= e.minimum,
	}
}
