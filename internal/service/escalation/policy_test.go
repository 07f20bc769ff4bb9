package escalation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mental-buddy/backend/internal/analysis/crisis"
	"github.com/zhouzirui/mental-buddy/backend/internal/model/lookup"
)

func TestHandleHighCrisisKnownLocation(t *testing.T) {
	p := NewPolicy(nil)
	got := p.HandleCrisis(crisis.High, "US", "Sam")

	assert.Equal(t, ActionImmediateIntervention, got.Action)
	assert.Equal(t, PriorityCritical, got.Priority)
	assert.Equal(t, lookup.Found, got.Location)
	assert.Contains(t, got.Text, "Sam, I'm really concerned")
	assert.Contains(t, got.Text, "Emergency: 911")
	assert.Contains(t, got.Text, "Crisis Line: 988")
	assert.Contains(t, got.Text, "Text HOME to 741741")
	require.NotNil(t, got.Resource)
	assert.Equal(t, "988", got.Resource.SuicidePrevention)
}

func TestHandleHighCrisisUnknownLocationFallsBackToUS(t *testing.T) {
	got := NewPolicy(nil).HandleCrisis(crisis.High, "UNKNOWN_LOCATION", "Sam")
	assert.Equal(t, lookup.FallbackUsed, got.Location)
	assert.Contains(t, got.Text, "Crisis Line: 988")
	require.NotNil(t, got.Resource)
	assert.Equal(t, "https://988lifeline.org", got.Resource.URL)
}

func TestHandleCrisisUsesTalkSuicideWhenNoPreventionLine(t *testing.T) {
	got := NewPolicy(nil).HandleCrisis(crisis.High, "ca", "Sam")
	assert.Equal(t, lookup.Found, got.Location)
	assert.Equal(t, lookup.FallbackUsed, got.Line)
	assert.Contains(t, got.Text, "1-833-456-4566")
	assert.Contains(t, got.Text, "Text 45645")
}

func TestHandleCrisisGenericStringWhenEntryLacksLine(t *testing.T) {
	table, err := ParseResourceTable([]byte(`
emergency: "112"
default_location: XX
locations:
  XX:
    url: https://example.org
`))
	require.NoError(t, err)

	got := NewPolicy(table).HandleCrisis(crisis.High, "XX", "Sam")
	assert.Equal(t, lookup.Unresolved, got.Line)
	assert.Contains(t, got.Text, "Emergency: 112")
	assert.Contains(t, got.Text, "Crisis Line: Contact local emergency services")

	medium := NewPolicy(table).HandleCrisis(crisis.Medium, "XX", "Sam")
	assert.Contains(t, medium.Text, "Talk to someone: Contact local crisis line")
	assert.Contains(t, medium.Text, "More resources: https://example.org")
}

func TestHandleMediumCrisis(t *testing.T) {
	got := NewPolicy(nil).HandleCrisis(crisis.Medium, "UK", "Sam")
	assert.Equal(t, ActionProvideSupport, got.Action)
	assert.Equal(t, PriorityHigh, got.Priority)
	assert.Contains(t, got.Text, "116 123")
	assert.Contains(t, got.Text, "https://samaritans.org")
	assert.Contains(t, got.Text, "Would you like to talk")
	assert.NotContains(t, got.Text, "{username}")
}

func TestHandleLowAndNoneSkipResources(t *testing.T) {
	p := NewPolicy(nil)
	for _, tier := range []crisis.Tier{crisis.Low, crisis.None} {
		got := p.HandleCrisis(tier, "US", "Sam")
		assert.Equal(t, ActionContinueConversation, got.Action)
		assert.Equal(t, PriorityNormal, got.Priority)
		assert.Nil(t, got.Resource)
		assert.Equal(t, lookup.Unresolved, got.Location)
	}
}

func TestParseResourceTableValidation(t *testing.T) {
	_, err := ParseResourceTable([]byte(`default_location: US
locations:
  US: {suicide_prevention: "988"}`))
	assert.ErrorIs(t, err, ErrInvalidResourceTable)

	_, err = ParseResourceTable([]byte(`emergency: "911"
default_location: ZZ
locations:
  US: {suicide_prevention: "988"}`))
	assert.ErrorIs(t, err, ErrInvalidResourceTable)

	_, err = ParseResourceTable([]byte(`: : :`))
	assert.Error(t, err)
}

func TestLoadResourceTableFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
emergency: "000"
default_location: au
locations:
  au: {suicide_prevention: "13 11 14"}
`), 0o600))

	table, err := LoadResourceTable(path)
	require.NoError(t, err)
	assert.Equal(t, "AU", table.DefaultLocation)
	assert.Equal(t, []string{"AU"}, table.Codes())

	table, err = LoadResourceTable("")
	require.NoError(t, err)
	assert.Equal(t, []string{"AU", "CA", "IN", "UK", "US"}, table.Codes())

	_, err = LoadResourceTable(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
