package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"prism/internal/graph"
	"prism/internal/plan"
)

var (
	planGraphDir   string
	planFormat     string
	planOutputPath string
)

var planCmd = &cobra.Command{
	Use:   "plan <plan-file>",
	Short: "Simulate a change plan against the architecture graph",
	Long: `Apply a declarative change plan (JSON or YAML) to a copy of the
architecture graph and report the structural diff it would cause. The
stored graph is never modified.

Examples:
  prism plan extract-billing.yaml
  prism plan refactor.json --graph /tmp/graph --format human`,
	Args: cobra.ExactArgs(1),
	Run:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planGraphDir, "graph", "", "Graph directory (default: <repo>/.prism/graph)")
	planCmd.Flags().StringVar(&planFormat, "format", "json", "Output format: json or human")
	planCmd.Flags().StringVar(&planOutputPath, "output", "", "Output file (default: stdout)")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr(err)
	}

	graphDir := planGraphDir
	if graphDir == "" {
		graphDir = filepath.Join(cfg.RepoRoot, cfg.Output.GraphDir)
	}

	g, err := graph.Load(graphDir)
	if err != nil {
		exitErr(err)
	}

	p, err := plan.Load(args[0])
	if err != nil {
		exitErr(err)
	}

	report, err := plan.Apply(g, p)
	if err != nil {
		if verr, ok := err.(*plan.ValidationError); ok {
			fmt.Fprintf(os.Stderr, "Plan rejected: %v\n", verr)
			os.Exit(1)
		}
		exitErr(err)
	}

	emitReport(report, planFormat, planOutputPath)
}
