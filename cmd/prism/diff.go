package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"prism/internal/diff"
	"prism/internal/graph"
	"prism/internal/output"
	"prism/internal/store"
	"prism/internal/workflow"
)

var (
	diffGraphA     string
	diffGraphB     string
	diffRefA       string
	diffRefB       string
	diffFormat     string
	diffOutputPath string
	diffNoCache    bool
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Compare two versions of the architecture graph",
	Long: `Compare two versions of the architecture graph and report every
added, removed, moved, and modified node and edge.

Two modes:
  # Diff two graph directories produced by prism analyze
  prism diff --graph-a /tmp/old --graph-b /tmp/new

  # Diff two git refs of the current repository
  prism diff --ref-a main --ref-b feature/extract-billing`,
	Run: runDiff,
}

func init() {
	diffCmd.Flags().StringVar(&diffGraphA, "graph-a", "", "Base graph directory")
	diffCmd.Flags().StringVar(&diffGraphB, "graph-b", "", "New graph directory")
	diffCmd.Flags().StringVar(&diffRefA, "ref-a", "", "Base git ref")
	diffCmd.Flags().StringVar(&diffRefB, "ref-b", "", "New git ref")
	diffCmd.Flags().StringVar(&diffFormat, "format", "json", "Output format: json or human")
	diffCmd.Flags().StringVar(&diffOutputPath, "output", "", "Output file (default: stdout)")
	diffCmd.Flags().BoolVar(&diffNoCache, "no-cache", false, "Skip the snapshot cache")
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr(err)
	}
	logger := newLogger(cfg)

	refMode := diffRefA != "" || diffRefB != ""
	dirMode := diffGraphA != "" || diffGraphB != ""
	if refMode == dirMode {
		fmt.Fprintln(os.Stderr, "Error: use either --graph-a/--graph-b or --ref-a/--ref-b")
		os.Exit(1)
	}

	var report *diff.Report
	if dirMode {
		if diffGraphA == "" || diffGraphB == "" {
			fmt.Fprintln(os.Stderr, "Error: both --graph-a and --graph-b are required")
			os.Exit(1)
		}
		a, err := graph.Load(diffGraphA)
		if err != nil {
			exitErr(err)
		}
		b, err := graph.Load(diffGraphB)
		if err != nil {
			exitErr(err)
		}
		report, err = diff.Compute(a, b, diff.Meta{
			Source: diff.SourceCommits,
			RefA:   diffGraphA,
			RefB:   diffGraphB,
		})
		if err != nil {
			exitErr(err)
		}
	} else {
		if diffRefA == "" || diffRefB == "" {
			fmt.Fprintln(os.Stderr, "Error: both --ref-a and --ref-b are required")
			os.Exit(1)
		}
		var cache *store.Store
		if cfg.Cache.Enabled && !diffNoCache {
			cache, err = store.Open(filepath.Join(cfg.RepoRoot, cfg.Cache.Path), logger)
			if err != nil {
				exitErr(err)
			}
			defer func() { _ = cache.Close() }()
		}
		comparer := workflow.NewComparer(cfg, cache, logger)
		report, err = comparer.CompareRefs(diffRefA, diffRefB)
		if err != nil {
			exitErr(err)
		}
	}

	emitReport(report, diffFormat, diffOutputPath)
}

// emitReport writes a report to the given file (stdout when empty) in the
// selected format.
func emitReport(report *diff.Report, format, outputPath string) {
	var data []byte
	if format == "human" {
		data = []byte(output.RenderHuman(report))
	} else {
		var err error
		data, err = report.ToJSON()
		if err != nil {
			exitErr(err)
		}
		data = append(data, '\n')
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			exitErr(err)
		}
		return
	}
	fmt.Print(string(data))
}
