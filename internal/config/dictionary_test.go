package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDictionary(t *testing.T) {
	d := DefaultDictionary()
	assert.Contains(t, d.Couriers, "CJ")
	assert.Contains(t, d.Couriers, "용차")
	assert.Contains(t, d.HeaderKeywords, "invoice")
	require.NotEmpty(t, d.PhonePatterns)
	assert.Equal(t, "mobile", d.PhonePatterns[0].Name)
	assert.Equal(t, "fallback", d.PhonePatterns[len(d.PhonePatterns)-1].Name)
	require.Len(t, d.DiscountKeywords, 3)
	assert.InDelta(t, 0.10, d.DiscountKeywords[0].Rate, 1e-9)
}

func TestLoadDictionary_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dict.yaml")
	body := "couriers: [ACME]\nphone_patterns:\n  - name: any\n    pattern: '\\d{8,}'\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	d, err := LoadDictionary(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ACME"}, d.Couriers)
	assert.Equal(t, `\d{8,}`, d.PhonePatterns[0].Pattern)
}

func TestLoadDictionary_Errors(t *testing.T) {
	_, err := LoadDictionary(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = ParseDictionary([]byte("couriers: [A]\n"))
	assert.Error(t, err)
}
