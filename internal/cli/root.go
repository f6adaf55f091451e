// Package cli implements the a11yscan command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/raysh454/a11yscan/internal/app"
	"github.com/raysh454/a11yscan/internal/logging"
)

// runtime carries the global flags and the component overrides used by tests.
type runtime struct {
	configPath string
	dbPath     string
	verbose    bool

	components app.Components
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&runtime{})
}

func newRootCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "a11yscan",
		Short: "Accessibility auditing for websites",
		Long: `a11yscan crawls a site, replays optional browser steps, runs the axe
rule engine on every page and builds reports with rule documentation.

Run "a11yscan serve" for the HTTP API or use the scan and report commands
directly against the local database.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&rt.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/a11yscan/config.yaml if present)")
	cmd.PersistentFlags().StringVar(&rt.dbPath, "db", "", "SQLite database path (overrides storage_path)")
	cmd.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(newServeCmd(rt))
	cmd.AddCommand(newCrawlCmd(rt))
	cmd.AddCommand(newScanCmd(rt))
	cmd.AddCommand(newReportCmd(rt))
	cmd.AddCommand(newCompareCmd(rt))
	cmd.AddCommand(newRulesCmd(rt))
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// config loads the configuration the global flags point at.
func (rt *runtime) config() (*app.Config, error) {
	path := rt.configPath
	if path == "" {
		if _, err := os.Stat(app.DefaultConfigPath()); err == nil {
			path = app.DefaultConfigPath()
		}
	}
	cfg, err := app.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	if rt.dbPath != "" {
		cfg.StoragePath = rt.dbPath
	}
	if rt.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// cliLogger logs human-readable lines to stderr, warnings only unless
// --verbose is set.
func (rt *runtime) cliLogger(cmd *cobra.Command, cfg *app.Config) (logging.Logger, error) {
	lc := cfg.Log
	if lc.File == "" {
		lc.Format = "text"
		lc.Output = cmd.ErrOrStderr()
	}
	if !rt.verbose {
		lc.Level = "warn"
	}
	return logging.NewLogger(lc, "cli")
}

// open loads the configuration and wires the application.
func (rt *runtime) open(cmd *cobra.Command) (*app.Application, error) {
	cfg, err := rt.config()
	if err != nil {
		return nil, err
	}
	logger, err := rt.cliLogger(cmd, cfg)
	if err != nil {
		return nil, err
	}
	return app.New(cfg, logger, rt.components)
}
