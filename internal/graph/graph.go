// Package graph defines the typed property graph shared by the analyzer,
// the diff engine, and the plan engine.
package graph

import (
	"fmt"

	"prism/internal/errors"
)

// NodeType identifies what kind of codebase entity a node represents.
type NodeType string

const (
	NodeDirectory NodeType = "directory"
	NodeFile      NodeType = "file"
	NodeClass     NodeType = "class"
	NodeFunction  NodeType = "function"
	NodeInterface NodeType = "interface"
	NodeTypeAlias NodeType = "type_alias"
	NodeComponent NodeType = "component"
	NodeContainer NodeType = "container"
	NodeSystem    NodeType = "system"
)

// EdgeType identifies the relationship an edge expresses.
type EdgeType string

const (
	EdgeContains     EdgeType = "contains"
	EdgeImports      EdgeType = "imports"
	EdgeCalls        EdgeType = "calls"
	EdgeInheritsFrom EdgeType = "inherits_from"
	EdgeDependsOn    EdgeType = "depends_on"
)

// Node is a versioned snapshot of a codebase entity. Two nodes from
// different graphs describe the same entity iff their IDs are equal.
type Node struct {
	ID               string   `json:"id"`
	Type             NodeType `json:"type"`
	Name             string   `json:"name"`
	FilePath         string   `json:"file_path,omitempty"`
	Language         string   `json:"language,omitempty"`
	LinesOfCode      int      `json:"lines_of_code"`
	ExportCount      int      `json:"export_count"`
	AbstractionLevel int      `json:"abstraction_level"`
	Parent           string   `json:"parent,omitempty"`
}

// Edge is a directed, typed relationship between two nodes. Identity for
// matching purposes is the (From, To, Type) tuple; Weight carries strength
// only and is never part of edge identity.
type Edge struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Type   EdgeType `json:"type"`
	Weight int      `json:"weight"`
}

// Key returns the identity tuple of the edge as a single string.
func (e Edge) Key() string {
	return e.From + "\x00" + e.To + "\x00" + string(e.Type)
}

// Graph is one immutable snapshot of a codebase.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Clone returns a fully independent deep copy. The plan engine mutates the
// copy while the caller's graph stays untouched, so the two must share no
// backing storage.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	copy(out.Nodes, g.Nodes)
	copy(out.Edges, g.Edges)
	return out
}

// NodeIndex builds a fresh id -> index map over g.Nodes. Built per call so
// no index ever outlives a mutation of the graph that produced it.
func (g *Graph) NodeIndex() map[string]int {
	idx := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		idx[n.ID] = i
	}
	return idx
}

// ValidateIdentity rejects nodes missing the identity fields the engines
// key on. Everything else is optional input the engines must tolerate.
func (g *Graph) ValidateIdentity() error {
	seen := make(map[string]struct{}, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.ID == "" {
			return errors.NewPrismError(errors.MalformedGraph,
				fmt.Sprintf("node at index %d has no id", i), nil)
		}
		if n.Type == "" {
			return errors.NewPrismError(errors.MalformedGraph,
				fmt.Sprintf("node %q has no type", n.ID), nil)
		}
		if _, dup := seen[n.ID]; dup {
			return errors.NewPrismError(errors.MalformedGraph,
				fmt.Sprintf("duplicate node id %q", n.ID), nil)
		}
		seen[n.ID] = struct{}{}
	}
	return nil
}
