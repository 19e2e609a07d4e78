package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"prism/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the snapshot cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show how many graph snapshots are cached",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		s := openCache()
		defer func() { _ = s.Close() }()

		n, err := s.Count()
		if err != nil {
			exitErr(err)
		}
		fmt.Printf("%d cached snapshots\n", n)
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop snapshots beyond the configured retention",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			exitErr(err)
		}
		s := openCache()
		defer func() { _ = s.Close() }()

		deleted, err := s.Prune(cfg.Cache.MaxSnapshots)
		if err != nil {
			exitErr(err)
		}
		fmt.Printf("Pruned %d snapshots\n", deleted)
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

func openCache() *store.Store {
	cfg, err := loadConfig()
	if err != nil {
		exitErr(err)
	}
	s, err := store.Open(filepath.Join(cfg.RepoRoot, cfg.Cache.Path), newLogger(cfg))
	if err != nil {
		exitErr(err)
	}
	return s
}
