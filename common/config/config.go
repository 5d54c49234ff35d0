// Package config provides configuration utilities shared by the fleet server
// and its command line tools.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// AppName is the directory name used under platform config and data roots.
const AppName = "printfleet"

// ErrConfigExists is returned by WriteDefaultTOML when the target exists.
var ErrConfigExists = errors.New("config file already exists")

// FindConfigFile searches for a config file in multiple platform-appropriate
// locations. Returns the path and data of the first file found.
func FindConfigFile(filename string, component string) (string, []byte, error) {
	for _, path := range GetConfigSearchPaths(filename, component) {
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}
	return "", nil, fmt.Errorf("%s not found in any search path", filename)
}

// GetConfigSearchPaths returns an ordered list of paths to search for config
// files, highest priority first.
func GetConfigSearchPaths(filename string, component string) []string {
	var searchPaths []string

	// System directory, used when running as a service.
	switch runtime.GOOS {
	case "windows":
		searchPaths = append(searchPaths, filepath.Join(os.Getenv("ProgramData"), "PrintFleet", component, filename))
	case "darwin":
		searchPaths = append(searchPaths, filepath.Join("/Library/Application Support", "PrintFleet", component, filename))
	default:
		searchPaths = append(searchPaths, filepath.Join("/etc", AppName, component, filename))
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		switch runtime.GOOS {
		case "windows":
			searchPaths = append(searchPaths, filepath.Join(homeDir, "AppData", "Local", "PrintFleet", component, filename))
		case "darwin":
			searchPaths = append(searchPaths, filepath.Join(homeDir, "Library", "Application Support", "PrintFleet", component, filename))
		default:
			searchPaths = append(searchPaths, filepath.Join(homeDir, ".config", AppName, component, filename))
		}
	}

	if exePath, err := os.Executable(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(filepath.Dir(exePath), filename))
	}

	searchPaths = append(searchPaths, filepath.Join(".", filename))
	return searchPaths
}

// GetDataDirectory returns (and creates) the directory for application data.
// Service mode uses a system-wide location, interactive mode the user's.
func GetDataDirectory(component string, isService bool) (string, error) {
	var dataDir string
	if isService {
		switch runtime.GOOS {
		case "windows":
			dataDir = filepath.Join(os.Getenv("ProgramData"), "PrintFleet", component)
		default:
			dataDir = filepath.Join("/var/lib", AppName, component)
		}
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not get user home directory: %w", err)
		}
		switch runtime.GOOS {
		case "windows":
			dataDir = filepath.Join(homeDir, "AppData", "Local", "PrintFleet", component)
		case "darwin":
			dataDir = filepath.Join(homeDir, "Library", "Application Support", "PrintFleet", component)
		default:
			dataDir = filepath.Join(homeDir, ".local", "share", AppName, component)
		}
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dataDir, nil
}

// GetLogDirectory returns (and creates) the directory for log files.
func GetLogDirectory(component string, isService bool) (string, error) {
	logDir := "logs"
	if isService {
		switch runtime.GOOS {
		case "windows":
			logDir = filepath.Join(os.Getenv("ProgramData"), "PrintFleet", component, "logs")
		default:
			logDir = filepath.Join("/var/log", AppName, component)
		}
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}
	return logDir, nil
}

// WriteDefaultTOML writes config as TOML to configPath. It refuses to
// overwrite an existing file.
func WriteDefaultTOML(configPath string, config interface{}) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(configPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s: %w", configPath, ErrConfigExists)
		}
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(config); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadTOML loads a TOML configuration file into config. Keys present in the
// file that config has no field for are reported as an error.
func LoadTOML(configPath string, config interface{}) error {
	if _, err := os.Stat(configPath); err != nil {
		return fmt.Errorf("config file not found: %w", err)
	}

	md, err := toml.DecodeFile(configPath, config)
	if err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys in %s: %s", configPath, strings.Join(keys, ", "))
	}
	return nil
}

// DatabaseConfig selects and configures the storage backend.
type DatabaseConfig struct {
	Driver   string `toml:"driver"` // sqlite (default) or postgres
	DSN      string `toml:"dsn"`    // full connection string, wins over the fields below
	Path     string `toml:"path"`   // SQLite file, ":memory:" for an ephemeral store
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Name     string `toml:"name"`
	SSLMode  string `toml:"sslmode"`

	MaxOpenConns int `toml:"max_open_conns"`
	MaxIdleConns int `toml:"max_idle_conns"`
}

// EffectiveDriver returns the normalised driver name, defaulting to sqlite.
func (c *DatabaseConfig) EffectiveDriver() string {
	switch d := strings.ToLower(strings.TrimSpace(c.Driver)); d {
	case "", "sqlite", "sqlite3", "modernc":
		return "sqlite"
	case "postgres", "postgresql", "pgx":
		return "postgres"
	default:
		return d
	}
}

// BuildDSN returns the connection string for the configured driver. For
// SQLite it is the file path; for PostgreSQL a postgres:// URL built from
// the discrete fields unless DSN is set.
func (c *DatabaseConfig) BuildDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	if c.EffectiveDriver() == "sqlite" {
		return c.Path
	}
	if c.Host == "" {
		return ""
	}

	u := url.URL{Scheme: "postgres", Path: "/" + c.Name}
	host := c.Host
	if c.Port > 0 {
		host += ":" + strconv.Itoa(c.Port)
	}
	u.Host = host
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	u.RawQuery = url.Values{"sslmode": {sslmode}}.Encode()
	return u.String()
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string `toml:"level"`
	Dir   string `toml:"dir"` // empty = platform log directory

	// Rotation; max_size_mb = 0 disables it.
	MaxSizeMB  int `toml:"max_size_mb"`
	MaxAgeDays int `toml:"max_age_days"`
	MaxFiles   int `toml:"max_files"`
}

// GetEnvPrefixed returns <prefix>_<key> when set, otherwise <key>.
func GetEnvPrefixed(prefix, key string) string {
	if prefix != "" {
		if val := os.Getenv(prefix + "_" + key); val != "" {
			return val
		}
	}
	return os.Getenv(key)
}

// ResolveConfigPath picks the config file path from, in order,
// <prefix>_CONFIG, <prefix>_CONFIG_PATH, CONFIG, CONFIG_PATH and the
// command line flag value.
func ResolveConfigPath(prefix, flagValue string) string {
	for _, key := range []string{"CONFIG", "CONFIG_PATH"} {
		if val := GetEnvPrefixed(prefix, key); val != "" {
			return val
		}
	}
	return flagValue
}

// ApplyDatabaseEnvOverrides applies <prefix>_DB_DRIVER, <prefix>_DB_DSN and
// <prefix>_DB_PATH (each falling back to the unprefixed name). It returns
// the keys that were applied.
func ApplyDatabaseEnvOverrides(cfg *DatabaseConfig, prefix string) []string {
	var applied []string
	if val := GetEnvPrefixed(prefix, "DB_DRIVER"); val != "" {
		cfg.Driver = val
		applied = append(applied, "DB_DRIVER")
	}
	if val := GetEnvPrefixed(prefix, "DB_DSN"); val != "" {
		cfg.DSN = val
		applied = append(applied, "DB_DSN")
	}
	if val := GetEnvPrefixed(prefix, "DB_PATH"); val != "" {
		cfg.Path = val
		applied = append(applied, "DB_PATH")
	}
	return applied
}

// ApplyLoggingEnvOverrides applies <prefix>_LOG_LEVEL and <prefix>_LOG_DIR.
func ApplyLoggingEnvOverrides(cfg *LoggingConfig, prefix string) []string {
	var applied []string
	if val := GetEnvPrefixed(prefix, "LOG_LEVEL"); val != "" {
		cfg.Level = val
		applied = append(applied, "LOG_LEVEL")
	}
	if val := GetEnvPrefixed(prefix, "LOG_DIR"); val != "" {
		cfg.Dir = val
		applied = append(applied, "LOG_DIR")
	}
	return applied
}
