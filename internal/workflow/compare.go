// Package workflow orchestrates the ref-vs-ref comparison: materialize
// each commit in a temporary worktree, analyze it (or pull the snapshot
// from cache), and hand both graphs to the diff engine.
package workflow

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"prism/internal/analyze"
	"prism/internal/config"
	"prism/internal/diff"
	"prism/internal/graph"
	"prism/internal/logging"
	"prism/internal/store"
)

// Comparer diffs two git refs of one repository.
type Comparer struct {
	cfg   *config.Config
	cache *store.Store // nil when caching is disabled
	log   *logging.Logger
}

// NewComparer wires a comparer. cache may be nil.
func NewComparer(cfg *config.Config, cache *store.Store, log *logging.Logger) *Comparer {
	return &Comparer{cfg: cfg, cache: cache, log: log}
}

// CompareRefs analyzes both refs and diffs ref A against ref B. Each run
// gets its own id so concurrent invocations never share a worktree.
func (c *Comparer) CompareRefs(refA, refB string) (*diff.Report, error) {
	shaA, err := ResolveRef(c.cfg.RepoRoot, refA)
	if err != nil {
		return nil, err
	}
	shaB, err := ResolveRef(c.cfg.RepoRoot, refB)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	c.log.Info("comparing refs", logging.Fields{
		"run":   runID,
		"ref_a": refA, "sha_a": shaA,
		"ref_b": refB, "sha_b": shaB,
	})

	graphA, err := c.snapshot(runID, shaA)
	if err != nil {
		return nil, err
	}
	graphB, err := c.snapshot(runID, shaB)
	if err != nil {
		return nil, err
	}

	return diff.Compute(graphA, graphB, diff.Meta{
		Source: diff.SourceCommits,
		RefA:   refA,
		RefB:   refB,
	})
}

// snapshot returns the graph for one commit, from cache when possible.
// The worktree is removed before any error propagates.
func (c *Comparer) snapshot(runID, sha string) (*graph.Graph, error) {
	if c.cache != nil {
		if g, found, err := c.cache.Get(sha); err != nil {
			c.log.Warn("snapshot cache read failed", logging.Fields{"commit": sha, "error": err.Error()})
		} else if found {
			c.log.Debug("snapshot cache hit", logging.Fields{"commit": sha})
			return g, nil
		}
	}

	dir := filepath.Join(os.TempDir(), "prism-"+runID+"-"+sha[:12])
	if err := worktreeAdd(c.cfg.RepoRoot, dir, sha); err != nil {
		return nil, err
	}
	defer func() {
		if err := worktreeRemove(c.cfg.RepoRoot, dir); err != nil {
			c.log.Warn("worktree cleanup failed", logging.Fields{"dir": dir, "error": err.Error()})
			_ = os.RemoveAll(dir)
		}
	}()

	analyzer, err := analyze.New(c.snapshotConfig(dir), c.log)
	if err != nil {
		return nil, err
	}
	g, err := analyzer.Run(dir, c.cfg.Analyzer.IgnoreGlobs)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Put(sha, g); err != nil {
			c.log.Warn("snapshot cache write failed", logging.Fields{"commit": sha, "error": err.Error()})
		} else if _, err := c.cache.Prune(c.cfg.Cache.MaxSnapshots); err != nil {
			c.log.Warn("snapshot prune failed", logging.Fields{"error": err.Error()})
		}
	}
	return g, nil
}

// snapshotConfig points the analyzer config at the worktree so the layer
// override file is read from the commit being analyzed, not from HEAD.
func (c *Comparer) snapshotConfig(worktree string) *config.Config {
	cfg := *c.cfg
	cfg.RepoRoot = worktree
	return &cfg
}
