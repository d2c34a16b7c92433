package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stockroom/internal/config"
	"github.com/mesh-intelligence/stockroom/internal/paths"
	"github.com/mesh-intelligence/stockroom/pkg/types"
)

// app holds flag values and the state PersistentPreRunE loads for every
// subcommand.
type app struct {
	flagConfigDir string
	flagDataDir   string
	flagJSON      bool

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configDir string
	settings  *config.Settings
	logger    *slog.Logger
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{in: in, out: out, errOut: errOut, logger: slog.Default()}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "stockroom",
		Short:         "Stockroom tracks a community's shared inventory",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.load()
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVar(&a.flagConfigDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/stockroom)")
	root.PersistentFlags().StringVar(&a.flagDataDir, "data-dir", "", "data directory (default: $XDG_DATA_HOME/stockroom)")
	root.PersistentFlags().BoolVar(&a.flagJSON, "json", false, "output as JSON")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newConfigCmd(a),
		newCategoryCmd(a),
		newItemCmd(a),
		newConsoleCmd(a),
	)
	return root
}

// load resolves the config directory, reads settings and builds the logger.
func (a *app) load() error {
	dir, err := paths.ResolveConfigDir(a.flagConfigDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	settings, err := config.Load(dir)
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(settings.Log, a.errOut)
	if err != nil {
		return err
	}
	a.configDir = dir
	a.settings = settings
	a.logger = logger
	return nil
}

// storeConfig returns the backend config with the data directory resolved
// against --data-dir and STOCKROOM_DATA_DIR.
func (a *app) storeConfig() (types.Config, error) {
	cfg := a.settings.Store
	dir, err := paths.ResolveDataDir(a.flagDataDir, cfg.DataDir)
	if err != nil {
		return cfg, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg.DataDir = dir
	return cfg, nil
}
