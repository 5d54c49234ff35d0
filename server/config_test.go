package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/an1noX/techpinoyv3-sub002/common/config"
)

func TestWriteDefaultConfig(t *testing.T) {
	t.Parallel()

	t.Run("creates new config file", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := WriteDefaultConfig(configPath); err != nil {
			t.Fatalf("WriteDefaultConfig() failed: %v", err)
		}

		content, err := os.ReadFile(configPath)
		if err != nil {
			t.Fatalf("Failed to read config file: %v", err)
		}
		contentStr := string(content)
		for _, section := range []string{"[server]", "[tls]", "[database]", "[logging]", "[security]", "[snmp]", "[tonerwiki]"} {
			if !strings.Contains(contentStr, section) {
				t.Errorf("Config file missing expected section: %s", section)
			}
		}
		for _, want := range []string{"http_port = 8080", "max_size_mb = 50", `mode = "off"`, `community = "public"`, `policy = "partial"`} {
			if !strings.Contains(contentStr, want) {
				t.Errorf("Config file missing %q", want)
			}
		}
	})

	t.Run("does not overwrite existing config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("# mine\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		err := WriteDefaultConfig(configPath)
		if !errors.Is(err, config.ErrConfigExists) {
			t.Fatalf("WriteDefaultConfig() error = %v, want ErrConfigExists", err)
		}
		content, _ := os.ReadFile(configPath)
		if string(content) != "# mine\n" {
			t.Errorf("existing config was modified: %q", content)
		}
	})

	t.Run("written defaults load back", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := WriteDefaultConfig(configPath); err != nil {
			t.Fatal(err)
		}
		cfg, _, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("LoadConfig() failed: %v", err)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() on defaults = %v", err)
		}
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
http_port = 9191
allowed_origins = ["https://ops.example.com"]

[database]
driver = "postgres"
host = "db.internal"
name = "fleet"

[snmp]
community = "private"
version = "1"
timeout_seconds = 7

[tonerwiki]
url = "https://wiki.example.com/toners.yaml"
policy = "strict"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.Server.HTTPPort != 9191 {
		t.Errorf("HTTPPort = %d, want 9191", cfg.Server.HTTPPort)
	}
	if len(cfg.Server.AllowedOrigins) != 1 || cfg.Server.AllowedOrigins[0] != "https://ops.example.com" {
		t.Errorf("AllowedOrigins = %v", cfg.Server.AllowedOrigins)
	}
	if cfg.Database.EffectiveDriver() != "postgres" || cfg.Database.Host != "db.internal" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	// Untouched sections keep their defaults.
	if cfg.Logging.Level != "info" || cfg.TLS.Mode != "off" {
		t.Errorf("defaults lost: logging=%q tls=%q", cfg.Logging.Level, cfg.TLS.Mode)
	}

	pc := cfg.ProbeConfig()
	if pc.Community != "private" || pc.Version != "1" || pc.Timeout != 7*time.Second || pc.Port != 161 {
		t.Errorf("ProbeConfig() = %+v", pc)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, tracker, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.Server.HTTPPort != DefaultConfig().Server.HTTPPort {
		t.Errorf("HTTPPort = %d", cfg.Server.HTTPPort)
	}
	if tracker == nil {
		t.Fatal("tracker is nil")
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[server]\nhttp_prot = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadConfig(configPath); err == nil || !strings.Contains(err.Error(), "http_prot") {
		t.Fatalf("LoadConfig() error = %v, want unknown key error", err)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("FLEET_HTTP_PORT", "7000")
	t.Setenv("FLEET_DB_DRIVER", "postgres")
	t.Setenv("FLEET_DB_DSN", "postgres://fleet@localhost/fleet")
	t.Setenv("SNMP_COMMUNITY", "site-ro")
	t.Setenv("FLEET_LOG_LEVEL", "DEBUG")
	t.Setenv("FLEET_API_KEY_HASHES", "hash-a, hash-b ,")
	t.Setenv("FLEET_REQUIRE_API_KEY", "true")

	cfg, tracker, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.Server.HTTPPort != 7000 {
		t.Errorf("HTTPPort = %d, want 7000", cfg.Server.HTTPPort)
	}
	if cfg.Database.EffectiveDriver() != "postgres" || cfg.Database.BuildDSN() != "postgres://fleet@localhost/fleet" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.SNMP.Community != "site-ro" {
		t.Errorf("SNMP.Community = %q", cfg.SNMP.Community)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if len(cfg.Security.APIKeyHashes) != 2 || cfg.Security.APIKeyHashes[1] != "hash-b" {
		t.Errorf("APIKeyHashes = %q", cfg.Security.APIKeyHashes)
	}
	if !cfg.Security.RequireAPIKey {
		t.Error("RequireAPIKey not applied")
	}

	for _, key := range []string{"server.http_port", "database.driver", "database.dsn", "snmp.community", "logging.level", "security.api_key_hashes"} {
		if !tracker.EnvKeys[key] {
			t.Errorf("tracker missing %s (have %v)", key, tracker.Keys())
		}
	}
}

func TestLoadConfigEnvBadPort(t *testing.T) {
	t.Setenv("FLEET_HTTP_PORT", "eighty")
	if _, _, err := LoadConfig(""); err == nil {
		t.Fatal("expected error for non-numeric port")
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"port zero", func(c *Config) { c.Server.HTTPPort = 0 }, false},
		{"port too high", func(c *Config) { c.Server.HTTPPort = 70000 }, false},
		{"bad tls mode", func(c *Config) { c.TLS.Mode = "acme" }, false},
		{"tls mode any case", func(c *Config) { c.TLS.Mode = "Self-Signed" }, true},
		{"bad snmp version", func(c *Config) { c.SNMP.Version = "3" }, false},
		{"bad policy", func(c *Config) { c.TonerWiki.Policy = "lenient" }, false},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, false},
		{"negative log rotation", func(c *Config) { c.Logging.MaxFiles = -1 }, false},
		{"rotation disabled", func(c *Config) { c.Logging.MaxSizeMB = 0 }, true},
		{"require key without hashes", func(c *Config) { c.Security.RequireAPIKey = true }, false},
		{"require key with hashes", func(c *Config) {
			c.Security.RequireAPIKey = true
			c.Security.APIKeyHashes = []string{"$argon2id$..."}
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err == nil) != tt.ok {
				t.Errorf("Validate() = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestShutdownTimeout(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Server.ShutdownTimeoutSeconds = 0
	if got := cfg.ShutdownTimeout(); got != 15*time.Second {
		t.Errorf("ShutdownTimeout() = %v, want 15s", got)
	}
	cfg.Server.ShutdownTimeoutSeconds = 3
	if got := cfg.ShutdownTimeout(); got != 3*time.Second {
		t.Errorf("ShutdownTimeout() = %v, want 3s", got)
	}
}
