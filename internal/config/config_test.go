package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("missing file yields full defaults", func(t *testing.T) {
		cfg := Load(filepath.Join(t.TempDir(), "nope.yaml"))

		require.NoError(t, cfg.Validate())
		assert.Equal(t, 24, cfg.DefaultTTLUnits)
		assert.Equal(t, UnitHours, cfg.TTLUnit)
		assert.Equal(t, 10, cfg.DefaultUsageLimit)
		assert.Len(t, cfg.Defaulted(), 12)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := writeConfig(t, `
default_ttl_units: 48
ttl_unit: minutes
default_usage_limit: 3
code_length: 8
base_url: https://sho.rt/
sweep_interval: 5s
`)

		cfg := Load(path)

		require.NoError(t, cfg.Validate())
		assert.Equal(t, 48, cfg.DefaultTTLUnits)
		assert.Equal(t, UnitMinutes, cfg.TTLUnit)
		assert.Equal(t, 48*time.Minute, cfg.DefaultTTL())
		assert.Equal(t, 3, cfg.DefaultUsageLimit)
		assert.Equal(t, 8, cfg.CodeLength)
		assert.Equal(t, "https://sho.rt/", cfg.BaseURL)
		assert.Equal(t, 5*time.Second, cfg.SweepInterval.Std())
		assert.NotContains(t, cfg.Defaulted(), "default_ttl_units")
	})

	t.Run("invalid values fall back per key and are recorded", func(t *testing.T) {
		path := writeConfig(t, `
default_ttl_units: -1
ttl_unit: fortnights
default_usage_limit: 7
code_alphabet: ""
sweep_interval: soon
`)

		cfg := Load(path)

		require.NoError(t, cfg.Validate())
		assert.Equal(t, 24, cfg.DefaultTTLUnits)
		assert.Equal(t, UnitHours, cfg.TTLUnit)
		assert.Equal(t, 7, cfg.DefaultUsageLimit)
		assert.NotEmpty(t, cfg.CodeAlphabet)
		assert.Contains(t, cfg.Defaulted(), "default_ttl_units")
		assert.Contains(t, cfg.Defaulted(), "ttl_unit")
		assert.Contains(t, cfg.Defaulted(), "code_alphabet")
		assert.Contains(t, cfg.Defaulted(), "sweep_interval")
		assert.Equal(t, 15*time.Second, cfg.SweepInterval.Std())
		assert.NotContains(t, cfg.Defaulted(), "default_usage_limit")
	})

	t.Run("undecodable file yields full defaults", func(t *testing.T) {
		path := writeConfig(t, "{not yaml: [")

		cfg := Load(path)

		require.NoError(t, cfg.Validate())
		assert.Len(t, cfg.Defaulted(), 12)
	})

	t.Run("alphabet whitespace is stripped", func(t *testing.T) {
		path := writeConfig(t, `code_alphabet: "abc def"`)

		cfg := Load(path)

		assert.Equal(t, "abcdef", cfg.CodeAlphabet)
	})
}

func TestTimeUnit_Duration(t *testing.T) {
	assert.Equal(t, 30*time.Second, UnitSeconds.Duration(30))
	assert.Equal(t, 5*time.Minute, UnitMinutes.Duration(5))
	assert.Equal(t, 2*time.Hour, UnitHours.Duration(2))
	assert.Equal(t, 48*time.Hour, UnitDays.Duration(2))
}
