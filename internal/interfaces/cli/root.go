// Package cli implements the molvista command tree: analyze runs the full
// pipeline, validate checks configuration and input without running anything,
// and convert translates SDF libraries into the CSV input format.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/turtacn/MolVista/internal/config"
	"github.com/turtacn/MolVista/internal/infrastructure/logging"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// RootOptions holds the global flags shared by every subcommand.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
	Verbose    bool
}

// NewRootCommand creates the root cobra command with global flags and the
// subcommand tree attached.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "molvista",
		Short: "MolVista — molecular property analysis and visualization",
		Long: "MolVista ingests a compound table (CSV with SMILES, or SDF via convert),\n" +
			"computes physicochemical descriptors and chemical-space projections,\n" +
			"optionally docks every compound against a receptor, and renders a\n" +
			"self-contained interactive HTML dashboard.",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./molvista.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&opts.LogFormat, "log-format", "console", "log format (console, json)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output (implies --log-level debug)")

	cmd.AddCommand(
		NewAnalyzeCmd(opts),
		NewValidateCmd(opts),
		NewConvertCmd(opts),
	)

	return cmd
}

// loadConfig resolves configuration with priority flags > env > file >
// defaults.  An explicit --config path must exist; otherwise the default
// search locations are tried and absence falls back to defaults plus
// environment overrides.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}

	searchPaths := []string{"./molvista.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".molvista", "config.yaml"))
	}
	for _, p := range searchPaths {
		if _, err := os.Stat(p); err == nil {
			return config.Load(p)
		}
	}

	return config.LoadFromEnv()
}

// newLogger builds the CLI logger on stderr so stdout stays clean for
// redirectable output.
func newLogger(cfg *config.Config, opts *RootOptions) (logging.Logger, error) {
	logCfg := cfg.Log
	if opts.LogLevel != "" {
		logCfg.Level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		logCfg.Format = opts.LogFormat
	}
	if opts.Verbose {
		logCfg.Level = "debug"
	}
	logCfg.OutputPaths = []string{"stderr"}
	logCfg.ErrorOutputPaths = []string{"stderr"}
	return logging.NewLogger(logCfg)
}

// Execute runs the command tree and reports the error in one place, matching
// SilenceErrors on the root command.
func Execute() error {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		return err
	}
	return nil
}
