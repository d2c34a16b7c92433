// Package backend is the public factory for inventory backends.
//
// Example:
//
//	b, err := backend.Open(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: "/var/lib/stockroom",
//	}, logger)
//	if err != nil {
//	    return err
//	}
//	defer b.Detach()
package backend

import (
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/stockroom/internal/mongo"
	"github.com/mesh-intelligence/stockroom/internal/sqlite"
	"github.com/mesh-intelligence/stockroom/pkg/types"
)

// New returns an unattached backend for the named kind.
// Returns ErrBackendUnknown for any other name.
func New(name string, logger *slog.Logger) (types.Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch name {
	case types.BackendSQLite:
		return sqlite.NewBackend(sqlite.WithLogger(logger)), nil
	case types.BackendMongo:
		return mongo.New(mongo.WithLogger(logger)), nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, name)
	}
}

// Open creates the backend config names and attaches it.
func Open(config types.Config, logger *slog.Logger) (types.Backend, error) {
	b, err := New(config.Backend, logger)
	if err != nil {
		return nil, err
	}
	if err := b.Attach(config); err != nil {
		return nil, fmt.Errorf("attach %s backend: %w", config.Backend, err)
	}
	return b, nil
}
