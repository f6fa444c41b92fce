package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		// Grace keeps the active-attempt marker alive past the deadline.
		Grace string `yaml:"grace"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL               string `yaml:"ttl"`
		PerQuestion       string `yaml:"perQuestion"`
		Minimum           string `yaml:"minimum"`
		Maximum           string `yaml:"maximum"`
		ReconcileInterval string `yaml:"reconcileInterval"`
		// SeedFile is a YAML quiz file served when Postgres is not configured
		// and imported by the seed command.
		SeedFile string `yaml:"seedFile"`
	} `yaml:"quiz"`
	Reward struct {
		Mode          string `yaml:"mode"`
		MinScore      *int   `yaml:"minScore"`
		GrantOnExpiry *bool  `yaml:"grantOnExpiry"`
		HighScore     *int   `yaml:"highScore"`
	} `yaml:"reward"`
	Leaderboard struct {
		Refresh    string `yaml:"refresh"`
		FeedBuffer int    `yaml:"feedBuffer"`
	} `yaml:"leaderboard"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// IntOr dereferences v or returns fallback when unset.
func IntOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

// BoolOr dereferences v or returns fallback when unset.
func BoolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
