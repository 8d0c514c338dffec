// Package config loads the service settings from a YAML file. A missing or
// unreadable file never crashes the service: every setting falls back to its
// default, and the set of defaulted keys is recorded so callers and tests can
// see a degraded configuration instead of guessing from log output.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// TimeUnit is the unit in which TTL values are expressed.
type TimeUnit string

const (
	UnitSeconds TimeUnit = "seconds"
	UnitMinutes TimeUnit = "minutes"
	UnitHours   TimeUnit = "hours"
	UnitDays    TimeUnit = "days"
)

// Duration converts a number of units into a time.Duration.
func (u TimeUnit) Duration(units int) time.Duration {
	switch u {
	case UnitSeconds:
		return time.Duration(units) * time.Second
	case UnitMinutes:
		return time.Duration(units) * time.Minute
	case UnitDays:
		return time.Duration(units) * 24 * time.Hour
	default:
		return time.Duration(units) * time.Hour
	}
}

// Duration wraps time.Duration so YAML values like "15s" decode. A value
// that does not parse decodes to zero, which sanitize then replaces with the
// default instead of failing the whole file.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		*d = 0
		return nil
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	DefaultTTLUnits   int      `yaml:"default_ttl_units"`
	TTLUnit           TimeUnit `yaml:"ttl_unit"`
	MaxTTLUnits       int      `yaml:"max_ttl_units"`
	DefaultUsageLimit int      `yaml:"default_usage_limit"`
	MaxUsageLimit     int      `yaml:"max_usage_limit"`
	CodeAlphabet      string   `yaml:"code_alphabet"`
	CodeLength        int      `yaml:"code_length"`
	MaxLinksPerOwner  int      `yaml:"max_links_per_owner"`
	BaseURL           string   `yaml:"base_url"`
	LegacyBaseURLs    []string `yaml:"legacy_base_urls"`
	StoragePath       string   `yaml:"storage_path"`
	SweepInterval     Duration `yaml:"sweep_interval"`

	defaulted []string
}

// Default values match the original service configuration. The alphabet is
// base58-like: visually ambiguous characters (0, O, I, l) are excluded by
// convention, not by requirement.
var defaults = Config{
	DefaultTTLUnits:   24,
	TTLUnit:           UnitHours,
	MaxTTLUnits:       72,
	DefaultUsageLimit: 10,
	MaxUsageLimit:     50,
	CodeAlphabet:      "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz",
	CodeLength:        6,
	MaxLinksPerOwner:  100,
	BaseURL:           "https://yush.ru/",
	LegacyBaseURLs:    nil,
	StoragePath:       "shortlink_appdata/data_storage.json",
	SweepInterval:     Duration(15 * time.Second),
}

// Load reads the config file at path. A missing or undecodable file yields
// the full default configuration with every key recorded as defaulted;
// individually invalid values are replaced per key.
func Load(path string) *Config {
	cfg := defaults

	data, err := os.ReadFile(path)
	if err != nil {
		cfg.markAllDefaulted()
		return &cfg
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		cfg = defaults
		cfg.markAllDefaulted()
		return &cfg
	}

	cfg.sanitize()
	return &cfg
}

// Defaulted returns the config keys whose file values were missing or
// unusable and were replaced by defaults.
func (c *Config) Defaulted() []string {
	return c.defaulted
}

// Validate checks the invariants that cannot be repaired by defaulting. It is
// the only fatal configuration path and must run before anything else starts.
func (c *Config) Validate() error {
	const op = "config.Config.Validate"

	if c.CodeAlphabet == "" || c.CodeLength <= 0 {
		return fmt.Errorf("%s: code alphabet and length must be set", op)
	}
	if c.DefaultUsageLimit <= 0 || c.MaxUsageLimit <= 0 || c.DefaultTTLUnits <= 0 || c.MaxTTLUnits <= 0 {
		return fmt.Errorf("%s: limits and TTLs must be positive", op)
	}
	if c.MaxLinksPerOwner <= 0 || c.SweepInterval <= 0 {
		return fmt.Errorf("%s: per-owner cap and sweep interval must be positive", op)
	}
	if c.BaseURL == "" || c.StoragePath == "" {
		return fmt.Errorf("%s: base URL and storage path must be set", op)
	}
	return nil
}

// DefaultTTL is the lifetime given to newly created links.
func (c *Config) DefaultTTL() time.Duration {
	return c.TTLUnit.Duration(c.DefaultTTLUnits)
}

// TTL converts a user-supplied unit count into a duration.
func (c *Config) TTL(units int) time.Duration {
	return c.TTLUnit.Duration(units)
}

func (c *Config) markAllDefaulted() {
	c.defaulted = []string{
		"default_ttl_units", "ttl_unit", "max_ttl_units", "default_usage_limit",
		"max_usage_limit", "code_alphabet", "code_length", "max_links_per_owner",
		"base_url", "legacy_base_urls", "storage_path", "sweep_interval",
	}
}

func (c *Config) useDefault(key string) {
	c.defaulted = append(c.defaulted, key)
}

// sanitize replaces individually unusable values with their defaults,
// recording each replaced key.
func (c *Config) sanitize() {
	if c.DefaultTTLUnits <= 0 {
		c.DefaultTTLUnits = defaults.DefaultTTLUnits
		c.useDefault("default_ttl_units")
	}
	switch c.TTLUnit {
	case UnitSeconds, UnitMinutes, UnitHours, UnitDays:
	default:
		c.TTLUnit = defaults.TTLUnit
		c.useDefault("ttl_unit")
	}
	if c.MaxTTLUnits <= 0 {
		c.MaxTTLUnits = defaults.MaxTTLUnits
		c.useDefault("max_ttl_units")
	}
	if c.DefaultUsageLimit <= 0 {
		c.DefaultUsageLimit = defaults.DefaultUsageLimit
		c.useDefault("default_usage_limit")
	}
	if c.MaxUsageLimit <= 0 {
		c.MaxUsageLimit = defaults.MaxUsageLimit
		c.useDefault("max_usage_limit")
	}
	if strings.TrimSpace(c.CodeAlphabet) == "" {
		c.CodeAlphabet = defaults.CodeAlphabet
		c.useDefault("code_alphabet")
	} else {
		c.CodeAlphabet = strings.Join(strings.Fields(c.CodeAlphabet), "")
	}
	if c.CodeLength <= 0 {
		c.CodeLength = defaults.CodeLength
		c.useDefault("code_length")
	}
	if c.MaxLinksPerOwner <= 0 {
		c.MaxLinksPerOwner = defaults.MaxLinksPerOwner
		c.useDefault("max_links_per_owner")
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = defaults.BaseURL
		c.useDefault("base_url")
	} else {
		c.BaseURL = strings.TrimSpace(c.BaseURL)
	}
	legacy := c.LegacyBaseURLs[:0]
	for _, u := range c.LegacyBaseURLs {
		if s := strings.TrimSpace(u); s != "" {
			legacy = append(legacy, s)
		}
	}
	c.LegacyBaseURLs = legacy
	if strings.TrimSpace(c.StoragePath) == "" {
		c.StoragePath = defaults.StoragePath
		c.useDefault("storage_path")
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = defaults.SweepInterval
		c.useDefault("sweep_interval")
	}
}
