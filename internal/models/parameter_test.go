package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "parameters.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadCatalog_DefaultWhenEmpty(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Equal(t, DefaultCatalog(), c)
	assert.Len(t, c, 6)
}

func TestLoadCatalog_File(t *testing.T) {
	path := writeCatalog(t, `
parameters:
  - name: ph_level
    label: pH level
    min: 4.5
    max: 7.5
    guidance: buffered solution
  - name: potency
    min: 0.9
    max: 1.1
`)
	c, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, c, 2)
	assert.Equal(t, []string{"ph_level", "potency"}, c.Names())
	assert.Equal(t, 4.5, c[0].Min)
	assert.Equal(t, "potency", c[1].Label)
	assert.True(t, c[1].InRange(1.0))
	assert.False(t, c[1].InRange(1.2))
}

func TestLoadCatalog_Invalid(t *testing.T) {
	tests := map[string]string{
		"empty":     "parameters: []\n",
		"duplicate": "parameters:\n  - name: a\n  - name: a\n",
		"reserved":  "parameters:\n  - name: result\n",
		"no name":   "parameters:\n  - label: x\n",
		"min > max": "parameters:\n  - name: a\n    min: 2\n    max: 1\n",
		"bad yaml":  "parameters: [\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadCatalog(writeCatalog(t, body))
			assert.Error(t, err)
		})
	}

	_, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
