package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8081" {
		t.Fatalf("default port = %s", cfg.Port)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Fatalf("default session TTL = %v", cfg.SessionTTL)
	}
	if cfg.BcryptCost != 10 {
		t.Fatalf("default bcrypt cost = %d", cfg.BcryptCost)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("port = %s", cfg.Port)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("session TTL = %v", cfg.SessionTTL)
	}
	if cfg.BcryptCost != 12 {
		t.Fatalf("bcrypt cost = %d", cfg.BcryptCost)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("log level = %s", cfg.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	base := func(t *testing.T) *Config {
		return &Config{
			Port:         "8081",
			SQLiteDBPath: filepath.Join(t.TempDir(), "financas.db"),
			SessionTTL:   time.Hour,
			BcryptCost:   10,
			LogLevel:     "info",
		}
	}

	t.Run("valid", func(t *testing.T) {
		if err := base(t).Validate(); err != nil {
			t.Fatalf("valid config rejected: %v", err)
		}
	})

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"non-numeric port", func(c *Config) { c.Port = "http" }, "invalid port"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "invalid port"},
		{"empty db path", func(c *Config) { c.SQLiteDBPath = "" }, "database path"},
		{"session ttl too short", func(c *Config) { c.SessionTTL = time.Second }, "session TTL"},
		{"bcrypt cost too low", func(c *Config) { c.BcryptCost = 2 }, "bcrypt cost"},
		{"unknown log level", func(c *Config) { c.LogLevel = "trace" }, "log level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base(t)
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}
