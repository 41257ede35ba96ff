// Package scanner detects linguistic ambiguity markers in raw
// requirement text. Detection is surface pattern matching over
// configured rule tables; no semantic understanding is attempted.
package scanner

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/storyforge/storyforge/internal/rules"
)

// digitPattern matches a token containing a digit, used to decide
// whether a quantifier has an accompanying number.
var digitPattern = regexp.MustCompile(`\d`)

// tokenPattern splits text into word tokens.
var tokenPattern = regexp.MustCompile(`[a-z0-9][a-z0-9'-]*`)

// Scanner flags ambiguous phrasing in requirement notes. Scanning is a
// pure function of the text and the active ruleset: same input, same
// flags, same order.
type Scanner struct {
	source *rules.Source
}

// New creates a Scanner reading its term tables from the given source.
func New(source *rules.Source) *Scanner {
	if source == nil {
		source = rules.NewSource(nil)
	}
	return &Scanner{source: source}
}

// hit is one matched term with its first-occurrence position.
type hit struct {
	index   int
	message string
}

// Scan returns human-readable ambiguity flags for the text. Categories
// run independently over the whole text and their hits concatenate in
// category-declaration order: vague terms, unclear quantifiers,
// open-ended lists, undefined roles, missing success criteria. Within
// a category, hits follow first occurrence in the input and each term
// is flagged at most once. Matching is case-insensitive.
func (s *Scanner) Scan(text string) []string {
	rs := s.source.Current()
	lower := strings.ToLower(text)
	tokens := tokenPattern.FindAllString(lower, -1)
	positions := tokenPattern.FindAllStringIndex(lower, -1)

	flags := make([]string, 0)

	flags = append(flags, collectHits(lower, rs.VagueTerms,
		"Ambiguous term detected: '%s' - needs specific definition")...)

	flags = append(flags, s.scanQuantifiers(lower, tokens, positions, rs)...)

	flags = append(flags, collectHits(lower, rs.OpenEndedMarkers,
		"Open-ended list detected: '%s' - needs complete specification")...)

	flags = append(flags, s.scanRoles(lower, rs)...)

	if !containsAny(lower, rs.OutcomeKeywords) {
		flags = append(flags, "No clear success criteria defined - specify what constitutes completion")
	}

	return flags
}

// collectHits finds the first occurrence of each term and formats one
// flag per matched term, ordered by position in the text.
func collectHits(lower string, terms []string, format string) []string {
	var hits []hit
	for _, term := range terms {
		if idx := findTerm(lower, term); idx >= 0 {
			hits = append(hits, hit{index: idx, message: fmt.Sprintf(format, term)})
		}
	}
	return sortHits(hits)
}

// scanQuantifiers flags vague quantifiers unless a number appears
// within two tokens of the match.
func (s *Scanner) scanQuantifiers(lower string, tokens []string, positions [][]int, rs *rules.Ruleset) []string {
	var hits []hit

	for _, quantifier := range rs.Quantifiers {
		parts := strings.Fields(quantifier)
		for i := range tokens {
			if !matchesAt(tokens, i, parts) {
				continue
			}
			if hasNearbyNumber(tokens, i, i+len(parts)-1) {
				break
			}
			hits = append(hits, hit{
				index:   positions[i][0],
				message: fmt.Sprintf("Vague quantifier detected: '%s' - needs specific numbers", quantifier),
			})
			break
		}
	}

	return sortHits(hits)
}

// scanRoles flags generic actor words when no specific role noun from
// the configured list appears anywhere in the text.
func (s *Scanner) scanRoles(lower string, rs *rules.Ruleset) []string {
	for _, role := range rs.SpecificRoles {
		if findTerm(lower, role) >= 0 {
			return nil
		}
	}

	var hits []hit
	for _, generic := range rs.GenericRoles {
		if idx := findTerm(lower, generic); idx >= 0 {
			hits = append(hits, hit{
				index:   idx,
				message: fmt.Sprintf("Undefined role detected: '%s' - specify a concrete actor", generic),
			})
		}
	}
	return sortHits(hits)
}

// findTerm returns the index of the first whole-word occurrence of
// term in lower, or -1.
func findTerm(lower, term string) int {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(term)) + `\b`)
	loc := re.FindStringIndex(lower)
	if loc == nil {
		return -1
	}
	return loc[0]
}

// matchesAt reports whether the token sequence starting at i equals
// parts.
func matchesAt(tokens []string, i int, parts []string) bool {
	if i+len(parts) > len(tokens) {
		return false
	}
	for j, part := range parts {
		if tokens[i+j] != part {
			return false
		}
	}
	return true
}

// hasNearbyNumber reports whether a digit-bearing token appears within
// two tokens of the span [start, end].
func hasNearbyNumber(tokens []string, start, end int) bool {
	lo := start - 2
	if lo < 0 {
		lo = 0
	}
	hi := end + 2
	if hi >= len(tokens) {
		hi = len(tokens) - 1
	}
	for i := lo; i <= hi; i++ {
		if digitPattern.MatchString(tokens[i]) {
			return true
		}
	}
	return false
}

func containsAny(lower string, terms []string) bool {
	for _, term := range terms {
		if findTerm(lower, term) >= 0 {
			return true
		}
	}
	return false
}

func sortHits(hits []hit) []string {
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].index < hits[j].index
	})
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.message
	}
	return out
}
