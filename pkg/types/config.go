package types

import (
	"errors"
	"time"
)

// Config holds backend selection and runtime parameters.
type Config struct {
	Backend string        `json:"backend" yaml:"backend"`
	DataDir string        `json:"data_dir" yaml:"data_dir"`
	Mongo   MongoConfig   `json:"mongo" yaml:"mongo"`
	Session SessionConfig `json:"session" yaml:"session"`
}

// MongoConfig configures the MongoDB backend. Ignored for sqlite.
type MongoConfig struct {
	URI      string `json:"uri" yaml:"uri"`
	Database string `json:"database" yaml:"database"`
}

// SessionConfig bounds how long a conversation waits at each step.
type SessionConfig struct {
	SelectionTimeout time.Duration `json:"selection_timeout" yaml:"selection_timeout"`
	FormTimeout      time.Duration `json:"form_timeout" yaml:"form_timeout"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

// DefaultStepTimeout is how long a collector waits for the user.
const DefaultStepTimeout = 60 * time.Second

// DefaultMongoDatabase is used when MongoConfig.Database is empty.
const DefaultMongoDatabase = "stockroom"

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrMongoURIEmpty  = errors.New("mongo backend requires mongo.uri")
	ErrTimeoutInvalid = errors.New("session timeouts must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
	BackendMongo:  true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure. Zero timeouts are accepted and mean
// DefaultStepTimeout; negative ones are rejected.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendMongo && c.Mongo.URI == "" {
		return ErrMongoURIEmpty
	}
	if c.Session.SelectionTimeout < 0 || c.Session.FormTimeout < 0 {
		return ErrTimeoutInvalid
	}
	return nil
}

// SelectionTimeoutOrDefault returns the configured selection window or the default.
func (s SessionConfig) SelectionTimeoutOrDefault() time.Duration {
	if s.SelectionTimeout <= 0 {
		return DefaultStepTimeout
	}
	return s.SelectionTimeout
}

// FormTimeoutOrDefault returns the configured form window or the default.
func (s SessionConfig) FormTimeoutOrDefault() time.Duration {
	if s.FormTimeout <= 0 {
		return DefaultStepTimeout
	}
	return s.FormTimeout
}

// DatabaseOrDefault returns the configured database name or the default.
func (m MongoConfig) DatabaseOrDefault() string {
	if m.Database == "" {
		return DefaultMongoDatabase
	}
	return m.Database
}
