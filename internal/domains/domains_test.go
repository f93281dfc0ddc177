package domains

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NoCustomPath(t *testing.T) {
	m, err := New("")
	require.NoError(t, err)
	selected, _ := m.Match([]string{"payment"})
	assert.Contains(t, selected, "payments")
}

func TestNew_MissingCustomPathSkipsSilently(t *testing.T) {
	m, err := New(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestNew_LoadsCustomDomainsFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "domains.yaml")
	content := `
mobile:
  description: Mobile app concerns
  keywords:
    - ios
    - android
    - swift
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	m, err := New(path)
	require.NoError(t, err)

	selected, weights := m.Match([]string{"swift", "ios"})
	assert.Contains(t, selected, "mobile")
	assert.Greater(t, weights["mobile"], float32(0))
}

func TestMatch_EmptyKeywordsSelectsNothing(t *testing.T) {
	m, err := New("")
	require.NoError(t, err)
	selected, weights := m.Match(nil)
	assert.Nil(t, selected)
	assert.Empty(t, weights)
}

func TestMatch_WeightIsHitsOverTotal(t *testing.T) {
	m, err := New("")
	require.NoError(t, err)
	// "payment" and "stripe" both hit the payments table; "zzz" hits nothing.
	selected, weights := m.Match([]string{"payment", "stripe", "zzz"})
	assert.Contains(t, selected, "payments")
	assert.InDelta(t, float32(2)/3, weights["payments"], 1e-6)
}

func TestFromPathPrefix(t *testing.T) {
	m, err := New("")
	require.NoError(t, err)
	assert.Equal(t, "payments", m.FromPathPrefix("app/services/PaymentGateway.php"))
}

func TestFromPathPrefix_NoMatch(t *testing.T) {
	m, err := New("")
	require.NoError(t, err)
	assert.Equal(t, "", m.FromPathPrefix("zzz/qqq.xyz"))
}
