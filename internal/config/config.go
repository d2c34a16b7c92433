// Package config loads stockroom settings with viper and builds the
// process logger.
//
// Settings come from config.yaml in the config directory, overridden by
// STOCKROOM_* environment variables (mongo.uri reads STOCKROOM_MONGO_URI).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/stockroom/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "STOCKROOM"
)

// Config keys.
const (
	KeyBackend          = "backend"
	KeyDataDir          = "data_dir"
	KeyMongoURI         = "mongo.uri"
	KeyMongoDatabase    = "mongo.database"
	KeySelectionTimeout = "session.selection_timeout"
	KeyFormTimeout      = "session.form_timeout"
	KeyLogLevel         = "log.level"
	KeyLogFormat        = "log.format"
	KeyAuditEnabled     = "audit.enabled"
	KeyAuditFile        = "audit.file"
	KeyAuditChannel     = "audit.channel"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# stockroom configuration

# Backend selection: sqlite or mongo
backend: sqlite

# Data directory for the sqlite backend (optional; overridable by --data-dir)
# data_dir:

# mongo:
#   uri: mongodb://localhost:27017
#   database: stockroom

session:
  selection_timeout: 60s
  form_timeout: 60s

log:
  level: info
  format: text

audit:
  enabled: true
  # file: defaults to audit.jsonl in the data directory
  # channel: chat channel that receives audit messages
`

// Settings is the full process configuration.
type Settings struct {
	Store types.Config  `json:"store" yaml:",inline"`
	Log   LogSettings   `json:"log" yaml:"log"`
	Audit AuditSettings `json:"audit" yaml:"audit"`
}

// LogSettings selects the slog handler.
type LogSettings struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// AuditSettings selects the audit sinks.
type AuditSettings struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	File    string `json:"file,omitempty" yaml:"file,omitempty"`
	Channel string `json:"channel,omitempty" yaml:"channel,omitempty"`
}

// Load reads config.yaml from configDir. It creates the directory and a
// default config.yaml on first run. A missing config.yaml is not an error.
// The returned Settings have not been validated; DataDir is as configured
// and still needs resolving against flags.
func Load(configDir string) (*Settings, error) {
	v, err := read(configDir)
	if err != nil {
		return nil, err
	}
	return fromViper(v)
}

func read(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyBackend, types.BackendSQLite)
	v.SetDefault(KeyMongoDatabase, types.DefaultMongoDatabase)
	v.SetDefault(KeySelectionTimeout, types.DefaultStepTimeout)
	v.SetDefault(KeyFormTimeout, types.DefaultStepTimeout)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyAuditEnabled, true)
}

func fromViper(v *viper.Viper) (*Settings, error) {
	sel, err := duration(v, KeySelectionTimeout)
	if err != nil {
		return nil, err
	}
	form, err := duration(v, KeyFormTimeout)
	if err != nil {
		return nil, err
	}

	return &Settings{
		Store: types.Config{
			Backend: v.GetString(KeyBackend),
			DataDir: v.GetString(KeyDataDir),
			Mongo: types.MongoConfig{
				URI:      v.GetString(KeyMongoURI),
				Database: v.GetString(KeyMongoDatabase),
			},
			Session: types.SessionConfig{SelectionTimeout: sel, FormTimeout: form},
		},
		Log: LogSettings{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
		Audit: AuditSettings{
			Enabled: v.GetBool(KeyAuditEnabled),
			File:    v.GetString(KeyAuditFile),
			Channel: v.GetString(KeyAuditChannel),
		},
	}, nil
}

// duration reads a duration key, accepting Go duration strings.
func duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.Get(key)
	if d, ok := raw.(time.Duration); ok {
		return d, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(fmt.Sprint(raw)))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

// AuditFile returns the audit file path, defaulting to audit.jsonl in
// dataDir.
func (s *Settings) AuditFile(dataDir string) string {
	if s.Audit.File != "" {
		return s.Audit.File
	}
	return filepath.Join(dataDir, "audit.jsonl")
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
