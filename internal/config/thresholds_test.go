package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeThresholds(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	return path
}

func TestLoadThresholds_EmptyPathUsesDefaults(t *testing.T) {
	set, err := LoadThresholds("")
	require.NoError(t, err)
	assert.Equal(t, DefaultThresholds.Default, set.Default)
}

func TestLoadThresholds_ParsesCategories(t *testing.T) {
	path := writeThresholds(t, `
default:
  display: 0.30
  inclusion: 0.50
  autoAmend: 0.85
categories:
  medical:
    display: 0.50
    inclusion: 0.70
    autoAmend: 0.95
`)

	set, err := LoadThresholds(path)
	require.NoError(t, err)

	medical := set.For("medical")
	assert.Equal(t, 0.50, medical.DisplayThreshold)
	assert.Equal(t, 0.70, medical.InclusionThreshold)
	assert.Equal(t, 0.95, medical.AutoAmendThreshold)

	// Unknown categories fall back to the default.
	assert.Equal(t, set.Default, set.For("unlisted"))
}

func TestLoadThresholds_RejectsBadOrdering(t *testing.T) {
	path := writeThresholds(t, `
default:
  display: 0.60
  inclusion: 0.50
  autoAmend: 0.85
`)

	_, err := LoadThresholds(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "display")
}

func TestLoadThresholds_RejectsOutOfRange(t *testing.T) {
	path := writeThresholds(t, `
categories:
  physics:
    display: 0.10
    inclusion: 0.50
    autoAmend: 1.50
`)

	_, err := LoadThresholds(path)
	require.Error(t, err)
}

func TestLoadThresholds_MissingDefaultBackfilled(t *testing.T) {
	path := writeThresholds(t, `
categories:
  history:
    display: 0.20
    inclusion: 0.40
    autoAmend: 0.80
`)

	set, err := LoadThresholds(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultThresholds.Default, set.Default)
}

func TestLoadThresholds_MissingFile(t *testing.T) {
	_, err := LoadThresholds("/nonexistent/thresholds.yaml")
	require.Error(t, err)
}
