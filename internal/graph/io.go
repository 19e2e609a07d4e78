package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"prism/internal/errors"
)

const (
	nodesFile = "nodes.json"
	edgesFile = "edges.json"
)

// Write serializes the graph into dir as nodes.json + edges.json, creating
// dir if needed. This is the on-disk graph format both producers emit and
// the viewer consumes.
func Write(g *Graph, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create graph dir: %w", err)
	}

	nodes, err := json.MarshalIndent(g.Nodes, "", "  ")
	if err != nil {
		return fmt.Errorf("encode nodes: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, nodesFile), nodes, 0o644); err != nil {
		return err
	}

	edges, err := json.MarshalIndent(g.Edges, "", "  ")
	if err != nil {
		return fmt.Errorf("encode edges: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, edgesFile), edges, 0o644)
}

// Load reads a graph directory written by Write and validates node identity
// fields before handing the graph to any engine.
func Load(dir string) (*Graph, error) {
	nodesPath := filepath.Join(dir, nodesFile)
	nodesData, err := os.ReadFile(nodesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewPrismError(errors.GraphMissing,
				fmt.Sprintf("no graph found at %s", dir), err)
		}
		return nil, err
	}

	edgesData, err := os.ReadFile(filepath.Join(dir, edgesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewPrismError(errors.GraphMissing,
				fmt.Sprintf("graph at %s has no edges.json", dir), err)
		}
		return nil, err
	}

	g := &Graph{}
	if err := json.Unmarshal(nodesData, &g.Nodes); err != nil {
		return nil, errors.NewPrismError(errors.MalformedGraph,
			fmt.Sprintf("parse %s", nodesPath), err)
	}
	if err := json.Unmarshal(edgesData, &g.Edges); err != nil {
		return nil, errors.NewPrismError(errors.MalformedGraph,
			fmt.Sprintf("parse edges in %s", dir), err)
	}

	if err := g.ValidateIdentity(); err != nil {
		return nil, err
	}
	return g, nil
}
