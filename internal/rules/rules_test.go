package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRulesFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultRuleset(t *testing.T) {
	rs := DefaultRuleset()

	assert.Equal(t, DefaultInvestMinimum, rs.InvestMinimum)
	assert.Equal(t, DefaultMinDefinitionOfDone, rs.MinDefinitionOfDone)
	assert.Contains(t, rs.VagueTerms, "user-friendly")
	assert.Contains(t, rs.Quantifiers, "many")
	assert.Contains(t, rs.OpenEndedMarkers, "etc")
	assert.Contains(t, rs.GenericRoles, "user")
	assert.Contains(t, rs.OutcomeKeywords, "so that")
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeRulesFile(t, "invest_minimum: 5\nvague_terms:\n  - fuzzy\n")

	rs, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 5, rs.InvestMinimum)
	assert.Equal(t, []string{"fuzzy"}, rs.VagueTerms)
	// Fields the file does not name keep their defaults
	assert.Contains(t, rs.Quantifiers, "many")
	assert.Equal(t, DefaultMinDefinitionOfDone, rs.MinDefinitionOfDone)
}

func TestLoad_OutOfRangeValuesFallBack(t *testing.T) {
	path := writeRulesFile(t, "invest_minimum: 9\nmin_definition_of_done: -1\n")

	rs, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, DefaultInvestMinimum, rs.InvestMinimum)
	assert.Equal(t, DefaultMinDefinitionOfDone, rs.MinDefinitionOfDone)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeRulesFile(t, "vague_terms: [unclosed\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSource_ReplaceAndReload(t *testing.T) {
	source := NewSource(nil)
	assert.Equal(t, DefaultInvestMinimum, source.Current().InvestMinimum)

	custom := DefaultRuleset()
	custom.InvestMinimum = 6
	source.Replace(custom)
	assert.Equal(t, 6, source.Current().InvestMinimum)

	// Replace(nil) keeps the current ruleset
	source.Replace(nil)
	assert.Equal(t, 6, source.Current().InvestMinimum)

	path := writeRulesFile(t, "invest_minimum: 3\n")
	require.NoError(t, source.ReloadFile(path))
	assert.Equal(t, 3, source.Current().InvestMinimum)
}

func TestSource_ReloadFailureKeepsPrevious(t *testing.T) {
	custom := DefaultRuleset()
	custom.InvestMinimum = 5
	source := NewSource(custom)

	err := source.ReloadFile(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.Error(t, err)
	assert.Equal(t, 5, source.Current().InvestMinimum)
}
