// ABOUTME: Health status configuration management with backend selection.
// ABOUTME: Handles settings, HEALTHSTATUS_* overrides, the storage factory, and the CLI session file.

package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/harperreed/healthstatus/internal/charm"
	"github.com/harperreed/healthstatus/internal/storage"
)

// Backend names accepted by OpenStorage.
const (
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
	BackendCharm  = "charm"
)

// DefaultMongoDatabase is used when mongo_database is unset.
const DefaultMongoDatabase = "healthstatus"

// Config stores healthstatus configuration.
type Config struct {
	// Backend selects the storage backend: "sqlite" (default), "mongo", or "charm".
	Backend string `json:"backend,omitempty"`

	// DataDir is the root directory for local data. SQLite puts healthstatus.db here.
	// Supports ~ expansion. Defaults to ~/.local/share/healthstatus.
	DataDir string `json:"data_dir,omitempty"`

	MongoURI      string `json:"mongo_uri,omitempty"`
	MongoDatabase string `json:"mongo_database,omitempty"`
	CharmHost     string `json:"charm_host,omitempty"`

	ListenAddr    string `json:"listen_addr,omitempty"`
	SessionKey    string `json:"session_key,omitempty"`
	SecureCookies bool   `json:"secure_cookies,omitempty"`
	CSRF          bool   `json:"csrf,omitempty"`

	LogLevel  string `json:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty"`

	// BcryptCost overrides the password hashing cost; zero means the library default.
	BcryptCost int `json:"bcrypt_cost,omitempty"`
}

// GetBackend returns the configured backend, defaulting to "sqlite".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return BackendSQLite
	}
	return c.Backend
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetMongoDatabase returns the configured database name.
func (c *Config) GetMongoDatabase() string {
	if c.MongoDatabase == "" {
		return DefaultMongoDatabase
	}
	return c.MongoDatabase
}

// GetLogLevel returns the configured log level, defaulting to "info".
func (c *Config) GetLogLevel() string {
	if c.LogLevel == "" {
		return "info"
	}
	return c.LogLevel
}

// GetLogFormat returns the configured log format, defaulting to "console".
func (c *Config) GetLogFormat() string {
	if c.LogFormat == "" {
		return "console"
	}
	return c.LogFormat
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage creates a Store implementation based on the configured backend.
func (c *Config) OpenStorage(ctx context.Context) (storage.Store, error) {
	switch backend := c.GetBackend(); backend {
	case BackendSQLite:
		db, err := storage.Open(filepath.Join(c.GetDataDir(), "healthstatus.db"))
		if err != nil {
			return nil, err
		}
		return db, nil
	case BackendMongo:
		if c.MongoURI == "" {
			return nil, errors.New("mongo backend requires mongo_uri")
		}
		ms, err := storage.OpenMongo(ctx, c.MongoURI, c.GetMongoDatabase())
		if err != nil {
			return nil, err
		}
		return ms, nil
	case BackendCharm:
		client, err := charm.Open(c.CharmHost, charm.DefaultDBName)
		if err != nil {
			return nil, err
		}
		return charm.NewStore(client), nil
	default:
		return nil, fmt.Errorf("unknown backend: %q", backend)
	}
}

// GetConfigDir returns the directory holding config.json and session.json.
func GetConfigDir() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "healthstatus")
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.json")
}

// Load reads config from disk and applies environment overrides.
func Load() (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(GetConfigPath())
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays HEALTHSTATUS_* variables on c.
func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"HEALTHSTATUS_BACKEND":        &c.Backend,
		"HEALTHSTATUS_DATA_DIR":       &c.DataDir,
		"HEALTHSTATUS_MONGO_URI":      &c.MongoURI,
		"HEALTHSTATUS_MONGO_DATABASE": &c.MongoDatabase,
		"HEALTHSTATUS_CHARM_HOST":     &c.CharmHost,
		"HEALTHSTATUS_LISTEN_ADDR":    &c.ListenAddr,
		"HEALTHSTATUS_SESSION_KEY":    &c.SessionKey,
		"HEALTHSTATUS_LOG_LEVEL":      &c.LogLevel,
		"HEALTHSTATUS_LOG_FORMAT":     &c.LogFormat,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"HEALTHSTATUS_SECURE_COOKIES": &c.SecureCookies,
		"HEALTHSTATUS_CSRF":           &c.CSRF,
	}
	for name, dst := range bools {
		v, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = b
	}

	if v, ok := os.LookupEnv("HEALTHSTATUS_BCRYPT_COST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HEALTHSTATUS_BCRYPT_COST: %w", err)
		}
		c.BcryptCost = n
	}
	return nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	return writeJSONFile(GetConfigPath(), c)
}

func writeJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
