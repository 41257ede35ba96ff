// Package rules holds the externalized rule tables consulted by the
// ambiguity scanner and the story validators, plus the validators
// themselves. Rule lists live in data, not control flow, so they can
// be tuned without touching code.
package rules

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Default rule values
const (
	DefaultInvestMinimum       = 4
	DefaultMinDefinitionOfDone = 10
)

// Ruleset is the full set of tunable rule tables. A zero value is not
// usable; start from DefaultRuleset or Load.
type Ruleset struct {
	// Scanner tables
	VagueTerms       []string `yaml:"vague_terms"`
	Quantifiers      []string `yaml:"quantifiers"`
	OpenEndedMarkers []string `yaml:"open_ended_markers"`
	GenericRoles     []string `yaml:"generic_roles"`
	SpecificRoles    []string `yaml:"specific_roles"`
	OutcomeKeywords  []string `yaml:"outcome_keywords"`

	// Validator thresholds
	MinDefinitionOfDone int `yaml:"min_definition_of_done"`
	InvestMinimum       int `yaml:"invest_minimum"`
}

// DefaultRuleset returns the built-in rule tables.
func DefaultRuleset() *Ruleset {
	return &Ruleset{
		VagueTerms: []string{
			"user-friendly", "easy to use", "fast", "secure", "reliable",
			"better", "good", "nice", "intuitive", "seamless", "robust",
			"as needed", "when possible", "if required",
		},
		Quantifiers: []string{
			"many", "few", "some", "several", "most", "a lot",
			"often", "rarely", "sometimes", "usually", "generally",
		},
		OpenEndedMarkers: []string{
			"etc", "and so on", "and more", "among others",
		},
		GenericRoles: []string{
			"user", "someone", "people", "everyone",
		},
		SpecificRoles: []string{
			"customer", "admin", "administrator", "manager", "employee",
			"client", "developer", "operator", "analyst", "tester",
			"owner", "visitor", "subscriber",
		},
		OutcomeKeywords: []string{
			"so that", "in order to", "result", "success", "complete",
			"done", "finish", "achieve",
		},
		MinDefinitionOfDone: DefaultMinDefinitionOfDone,
		InvestMinimum:       DefaultInvestMinimum,
	}
}

// Load reads a ruleset from a YAML file. Missing fields fall back to
// the defaults so a partial file only overrides what it names.
func Load(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	rs := DefaultRuleset()
	if err := yaml.Unmarshal(data, rs); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	if rs.MinDefinitionOfDone <= 0 {
		rs.MinDefinitionOfDone = DefaultMinDefinitionOfDone
	}
	if rs.InvestMinimum <= 0 || rs.InvestMinimum > 6 {
		rs.InvestMinimum = DefaultInvestMinimum
	}

	return rs, nil
}

// Source hands out the current ruleset and accepts replacements, so
// the file watcher can hot-reload rules while scans are in flight.
// Readers always see a complete ruleset, never a partially applied one.
type Source struct {
	mu sync.RWMutex
	rs *Ruleset
}

// NewSource creates a Source seeded with the given ruleset.
func NewSource(rs *Ruleset) *Source {
	if rs == nil {
		rs = DefaultRuleset()
	}
	return &Source{rs: rs}
}

// Current returns the active ruleset.
func (s *Source) Current() *Ruleset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rs
}

// Replace swaps in a new ruleset.
func (s *Source) Replace(rs *Ruleset) {
	if rs == nil {
		return
	}
	s.mu.Lock()
	s.rs = rs
	s.mu.Unlock()
}

// ReloadFile loads the rules file at path and swaps it in. On error
// the previous ruleset stays active.
func (s *Source) ReloadFile(path string) error {
	rs, err := Load(path)
	if err != nil {
		return err
	}
	s.Replace(rs)
	return nil
}
