package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/an1noX/techpinoyv3-sub002/common/config"
	"github.com/an1noX/techpinoyv3-sub002/common/logger"
	"github.com/an1noX/techpinoyv3-sub002/common/model"
	"github.com/an1noX/techpinoyv3-sub002/server/probe"
)

// envPrefix is the component prefix for environment overrides
// (FLEET_HTTP_PORT, FLEET_DB_DRIVER, ...). Unprefixed names are honoured too.
const envPrefix = "FLEET"

// ConfigSourceTracker records which keys were set by environment variables.
type ConfigSourceTracker struct {
	EnvKeys map[string]bool
}

func newConfigSourceTracker() *ConfigSourceTracker {
	return &ConfigSourceTracker{EnvKeys: make(map[string]bool)}
}

// Keys returns the env-set keys in a stable order for logging.
func (t *ConfigSourceTracker) Keys() []string {
	keys := make([]string, 0, len(t.EnvKeys))
	for k := range t.EnvKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Config represents the server configuration
type Config struct {
	Server    ServerConfig          `toml:"server"`
	TLS       TLSConfigTOML         `toml:"tls"`
	Database  config.DatabaseConfig `toml:"database"`
	Logging   config.LoggingConfig  `toml:"logging"`
	Security  SecurityConfig        `toml:"security"`
	SNMP      SNMPConfig            `toml:"snmp"`
	TonerWiki TonerWikiConfig       `toml:"tonerwiki"`
}

// ServerConfig holds listener settings
type ServerConfig struct {
	HTTPPort               int      `toml:"http_port"`
	HTTPSPort              int      `toml:"https_port"`
	BindAddress            string   `toml:"bind_address"`
	AllowedOrigins         []string `toml:"allowed_origins"` // websocket origins; empty allows any
	ShutdownTimeoutSeconds int      `toml:"shutdown_timeout_seconds"`
	DiscoveryEnabled       bool     `toml:"discovery_enabled"`
}

// TLSConfigTOML holds TLS configuration from TOML
type TLSConfigTOML struct {
	Mode        string            `toml:"mode"` // off, self-signed, custom, letsencrypt
	Domain      string            `toml:"domain"`
	CertPath    string            `toml:"cert_path"`
	KeyPath     string            `toml:"key_path"`
	CertDir     string            `toml:"cert_dir"` // self-signed output directory
	LetsEncrypt LetsEncryptConfig `toml:"letsencrypt"`
}

// LetsEncryptConfig holds Let's Encrypt specific settings
type LetsEncryptConfig struct {
	Domain    string `toml:"domain"`
	Email     string `toml:"email"`
	CacheDir  string `toml:"cache_dir"`
	AcceptTOS bool   `toml:"accept_tos"`
}

// SecurityConfig controls API key authentication. Keys are stored as
// argon2id hashes produced by `fleet-server apikey hash`.
type SecurityConfig struct {
	RequireAPIKey bool     `toml:"require_api_key"`
	APIKeyHashes  []string `toml:"api_key_hashes"`
}

// SNMPConfig holds probe settings.
type SNMPConfig struct {
	Enabled        bool   `toml:"enabled"`
	Community      string `toml:"community"`
	Version        string `toml:"version"`
	Port           int    `toml:"port"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Retries        int    `toml:"retries"`
}

// TonerWikiConfig points at a wiki dump imported at startup.
type TonerWikiConfig struct {
	URL           string `toml:"url"`
	Policy        string `toml:"policy"` // strict or partial
	ImportOnStart bool   `toml:"import_on_start"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	snmp := probe.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			HTTPPort:               8080,
			HTTPSPort:              8443,
			BindAddress:            "0.0.0.0",
			ShutdownTimeoutSeconds: 15,
			DiscoveryEnabled:       true,
		},
		TLS: TLSConfigTOML{
			Mode:    string(TLSModeOff),
			Domain:  "localhost",
			CertDir: "certs",
			LetsEncrypt: LetsEncryptConfig{
				CacheDir: "letsencrypt-cache",
			},
		},
		Database: config.DatabaseConfig{
			Driver: "sqlite",
		},
		Logging: config.LoggingConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxAgeDays: 7,
			MaxFiles:   10,
		},
		Security: SecurityConfig{
			RequireAPIKey: false,
			APIKeyHashes:  []string{},
		},
		SNMP: SNMPConfig{
			Enabled:        true,
			Community:      snmp.Community,
			Version:        snmp.Version,
			Port:           int(snmp.Port),
			TimeoutSeconds: int(snmp.Timeout / time.Second),
			Retries:        snmp.Retries,
		},
		TonerWiki: TonerWikiConfig{
			Policy: model.PolicyPartial.String(),
		},
	}
}

// LoadConfig loads configuration from TOML file with environment variable overrides.
// A missing file is not an error; defaults apply.
func LoadConfig(configPath string) (*Config, *ConfigSourceTracker, error) {
	cfg := DefaultConfig()
	tracker := newConfigSourceTracker()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := config.LoadTOML(configPath, cfg); err != nil {
				return nil, nil, err
			}
		}
	}

	env := func(key string) string { return config.GetEnvPrefixed(envPrefix, key) }
	setInt := func(key, name string, dst *int) error {
		val := env(key)
		if val == "" {
			return nil
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s_%s %q: %w", envPrefix, key, val, err)
		}
		*dst = n
		tracker.EnvKeys[name] = true
		return nil
	}
	setString := func(key, name string, dst *string) {
		if val := env(key); val != "" {
			*dst = val
			tracker.EnvKeys[name] = true
		}
	}
	setBool := func(key, name string, dst *bool) {
		if val := env(key); val != "" {
			*dst = val == "true" || val == "1"
			tracker.EnvKeys[name] = true
		}
	}

	if err := setInt("HTTP_PORT", "server.http_port", &cfg.Server.HTTPPort); err != nil {
		return nil, nil, err
	}
	if err := setInt("HTTPS_PORT", "server.https_port", &cfg.Server.HTTPSPort); err != nil {
		return nil, nil, err
	}
	setString("BIND_ADDRESS", "server.bind_address", &cfg.Server.BindAddress)
	setBool("DISCOVERY_ENABLED", "server.discovery_enabled", &cfg.Server.DiscoveryEnabled)

	setString("TLS_MODE", "tls.mode", &cfg.TLS.Mode)
	setString("TLS_CERT_PATH", "tls.cert_path", &cfg.TLS.CertPath)
	setString("TLS_KEY_PATH", "tls.key_path", &cfg.TLS.KeyPath)
	setString("LETSENCRYPT_DOMAIN", "tls.letsencrypt.domain", &cfg.TLS.LetsEncrypt.Domain)
	setString("LETSENCRYPT_EMAIL", "tls.letsencrypt.email", &cfg.TLS.LetsEncrypt.Email)
	setBool("LETSENCRYPT_ACCEPT_TOS", "tls.letsencrypt.accept_tos", &cfg.TLS.LetsEncrypt.AcceptTOS)

	setBool("REQUIRE_API_KEY", "security.require_api_key", &cfg.Security.RequireAPIKey)
	if val := env("API_KEY_HASHES"); val != "" {
		cfg.Security.APIKeyHashes = splitList(val)
		tracker.EnvKeys["security.api_key_hashes"] = true
	}

	setBool("SNMP_ENABLED", "snmp.enabled", &cfg.SNMP.Enabled)
	setString("SNMP_COMMUNITY", "snmp.community", &cfg.SNMP.Community)
	setString("SNMP_VERSION", "snmp.version", &cfg.SNMP.Version)
	if err := setInt("SNMP_TIMEOUT_SECONDS", "snmp.timeout_seconds", &cfg.SNMP.TimeoutSeconds); err != nil {
		return nil, nil, err
	}

	setString("TONERWIKI_URL", "tonerwiki.url", &cfg.TonerWiki.URL)
	setString("TONERWIKI_POLICY", "tonerwiki.policy", &cfg.TonerWiki.Policy)

	for _, key := range config.ApplyLoggingEnvOverrides(&cfg.Logging, envPrefix) {
		tracker.EnvKeys["logging."+strings.ToLower(strings.TrimPrefix(key, "LOG_"))] = true
	}
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	for _, key := range config.ApplyDatabaseEnvOverrides(&cfg.Database, envPrefix) {
		tracker.EnvKeys["database."+strings.ToLower(strings.TrimPrefix(key, "DB_"))] = true
	}

	return cfg, tracker, nil
}

// Validate checks values that would otherwise fail late at startup.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port out of range: %d", c.Server.HTTPPort)
	}
	if _, err := parseTLSMode(c.TLS.Mode); err != nil {
		return err
	}
	if _, err := probe.ParseVersion(c.SNMP.Version); err != nil {
		return fmt.Errorf("snmp.version: %w", err)
	}
	if _, err := model.ParseConversionPolicy(c.TonerWiki.Policy); err != nil {
		return fmt.Errorf("tonerwiki.policy: %w", err)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxAgeDays < 0 || c.Logging.MaxFiles < 0 {
		return fmt.Errorf("logging rotation limits must not be negative")
	}
	if c.Security.RequireAPIKey && len(c.Security.APIKeyHashes) == 0 {
		return fmt.Errorf("security.require_api_key is set but no api_key_hashes are configured")
	}
	return nil
}

// ProbeConfig converts the [snmp] section for the probe package.
func (c *Config) ProbeConfig() probe.Config {
	pc := probe.DefaultConfig()
	if c.SNMP.Community != "" {
		pc.Community = c.SNMP.Community
	}
	if c.SNMP.Version != "" {
		pc.Version = c.SNMP.Version
	}
	if c.SNMP.Port > 0 && c.SNMP.Port <= 65535 {
		pc.Port = uint16(c.SNMP.Port)
	}
	if c.SNMP.TimeoutSeconds > 0 {
		pc.Timeout = time.Duration(c.SNMP.TimeoutSeconds) * time.Second
	}
	if c.SNMP.Retries >= 0 {
		pc.Retries = c.SNMP.Retries
	}
	return pc
}

// ShutdownTimeout is the grace period for in-flight requests.
func (c *Config) ShutdownTimeout() time.Duration {
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

// ToTLSConfig converts the TOML section to a TLSConfig
func (c *Config) ToTLSConfig() *TLSConfig {
	mode, _ := parseTLSMode(c.TLS.Mode)
	return &TLSConfig{
		Mode:              mode,
		Domain:            c.TLS.Domain,
		CertPath:          c.TLS.CertPath,
		KeyPath:           c.TLS.KeyPath,
		CertDir:           c.TLS.CertDir,
		LetsEncryptDomain: c.TLS.LetsEncrypt.Domain,
		LetsEncryptEmail:  c.TLS.LetsEncrypt.Email,
		LetsEncryptCache:  c.TLS.LetsEncrypt.CacheDir,
		AcceptTOS:         c.TLS.LetsEncrypt.AcceptTOS,
	}
}

// WriteDefaultConfig writes a default configuration file
func WriteDefaultConfig(configPath string) error {
	return config.WriteDefaultTOML(configPath, DefaultConfig())
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
