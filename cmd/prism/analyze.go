package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"prism/internal/analyze"
	"prism/internal/graph"
	"prism/internal/scipload"
)

var (
	analyzeOutputDir string
	analyzeScipIndex string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Build the architecture graph for a source tree",
	Long: `Build the architecture graph for a source tree and write it as
nodes.json and edges.json.

Examples:
  # Analyze the current repository
  prism analyze .

  # Analyze into an explicit graph directory
  prism analyze . --output /tmp/graph

  # Build the graph from a SCIP index instead of parsing sources
  prism analyze --scip index.scip`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeOutputDir, "output", "", "Graph output directory (default: <repo>/.prism/graph)")
	analyzeCmd.Flags().StringVar(&analyzeScipIndex, "scip", "", "Build the graph from a SCIP index file")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) {
	if len(args) > 0 {
		repoFlag = args[0]
	}
	cfg, err := loadConfig()
	if err != nil {
		exitErr(err)
	}
	logger := newLogger(cfg)

	outDir := analyzeOutputDir
	if outDir == "" {
		outDir = filepath.Join(cfg.RepoRoot, cfg.Output.GraphDir)
	}

	var g *graph.Graph
	if analyzeScipIndex != "" {
		layers, err := analyze.LoadLayerTable(filepath.Join(cfg.RepoRoot, cfg.Analyzer.LayersFile))
		if err != nil {
			exitErr(err)
		}
		g, err = scipload.FromFile(analyzeScipIndex, layers)
		if err != nil {
			exitErr(err)
		}
	} else {
		analyzer, err := analyze.New(cfg, logger)
		if err != nil {
			exitErr(err)
		}
		g, err = analyzer.Run(cfg.RepoRoot, cfg.Analyzer.IgnoreGlobs)
		if err != nil {
			exitErr(err)
		}
	}

	if err := graph.Write(g, outDir); err != nil {
		exitErr(err)
	}

	fmt.Printf("Wrote %d nodes and %d edges to %s\n", len(g.Nodes), len(g.Edges), outDir)
}
