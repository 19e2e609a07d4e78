package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"prism/internal/config"
	"prism/internal/errors"
	"prism/internal/logging"
	"prism/internal/version"
)

var (
	repoFlag      string
	logLevelFlag  string
	logFormatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "prism",
	Short: "prism - architecture graph diff and change planning",
	Long: `prism builds a typed property graph of a codebase's architecture,
diffs two versions of that graph, and simulates declarative change plans
against it before anyone touches the code.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("prism version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", ".", "Repository root")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "Log format: json or human")
}

// loadConfig reads the repo config and applies CLI overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(repoFlag)
	if err != nil {
		return nil, err
	}
	if logLevelFlag != "" {
		cfg.Logging.Level = logLevelFlag
	}
	if logFormatFlag != "" {
		cfg.Logging.Format = logFormatFlag
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logging.Logger {
	format := logging.HumanFormat
	if cfg.Logging.Format == "json" {
		format = logging.JSONFormat
	}
	return logging.NewLogger(logging.Config{
		Format: format,
		Level:  logging.ParseLevel(cfg.Logging.Level),
	})
}

// exitErr prints an error (with suggested fixes when we have them) and
// terminates.
func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if perr, ok := err.(*errors.PrismError); ok && len(perr.SuggestedFixes) > 0 {
		fmt.Fprintln(os.Stderr, "\nTry:")
		for _, fix := range perr.SuggestedFixes {
			fmt.Fprintf(os.Stderr, "  %s   # %s\n", fix.Command, fix.Description)
		}
	}
	os.Exit(1)
}
