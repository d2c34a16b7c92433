package main

import (
	"fmt"
	"io"
	"net/url"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/stockroom/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.storeConfig()
			if err != nil {
				return err
			}
			effective := *a.settings
			effective.Store = store
			effective.Store.Mongo.URI = redact(store.Mongo.URI)
			if effective.Audit.Enabled {
				effective.Audit.File = a.settings.AuditFile(store.DataDir)
			}

			out := cmd.OutOrStdout()
			if a.flagJSON {
				return printJSON(out, effective)
			}
			fmt.Fprintf(out, "# config dir: %s\n", a.configDir)
			return writeYAML(out, &effective)
		},
	})
	return cmd
}

func writeYAML(w io.Writer, s *config.Settings) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

// redact hides the password of a connection URI.
func redact(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.User == nil {
		return uri
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
