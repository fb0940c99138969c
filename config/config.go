// Package config loads the gateway configuration from an optional YAML
// file with environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration for YAML fields like "30s" or "5m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full gateway configuration. Redis and Postgres are
// optional: empty address/DSN disables the result cache and the circuit
// library respectively.
type Config struct {
	ListenAddr     string   `yaml:"listen_addr"`
	AttemptTimeout Duration `yaml:"attempt_timeout"`
	MaxShots       int      `yaml:"max_shots"`

	RedisAddr      string   `yaml:"redis_addr"`
	ResultCacheTTL Duration `yaml:"result_cache_ttl"`

	PostgresDSN string `yaml:"postgres_dsn"`
}

func Default() Config {
	return Config{
		ListenAddr:     ":8080",
		AttemptTimeout: Duration(5 * time.Minute),
		MaxShots:       100000,
		ResultCacheTTL: Duration(time.Hour),
	}
}

// Load reads a YAML config file over the defaults, then applies
// environment overrides. An empty path skips the file entirely.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("QB_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := getenv("QB_REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := getenv("QB_POSTGRES_DSN"); v != "" {
		c.PostgresDSN = v
	}
	if v := getenv("QB_ATTEMPT_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			c.AttemptTimeout = Duration(parsed)
		}
	}
}
