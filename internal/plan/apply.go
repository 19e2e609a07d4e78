package plan

import (
	"fmt"
	"strings"

	"prism/internal/diff"
	"prism/internal/graph"
)

// RootSentinelID is the synthetic owner a plan-added node attaches to when
// no unambiguous enclosing node exists. It has no backing node, so the
// sentinel edge never shows up in diff output; it only keeps ownership
// traversal sound.
const RootSentinelID = "root:graph"

// Apply runs every operation of p, in order, against a clone of g and
// returns the diff of g versus the edited clone. Any invalid operation
// fails the whole application before the diff step; g itself is never
// mutated under any outcome.
func Apply(g *graph.Graph, p *Plan) (*diff.Report, error) {
	if err := g.ValidateIdentity(); err != nil {
		return nil, err
	}

	clone := g.Clone()
	for i, op := range p.Operations {
		var err error
		switch op.Op {
		case OpAdd:
			err = applyAdd(clone, i, op)
		case OpRemove:
			err = applyRemove(clone, i, op)
		case OpMove:
			err = applyMove(clone, i, op)
		default:
			err = validationErr(i, op, "", fmt.Sprintf("unknown operation %q", op.Op))
		}
		if err != nil {
			return nil, err
		}
	}

	meta := diff.Meta{Source: diff.SourcePlan, PlanName: p.Name}
	return diff.Compute(g, clone, meta)
}

// applyAdd synthesizes a new node with a deterministic id, imports edges to
// its declared dependencies, and a contains edge from its enclosing node
// when one is unambiguous.
func applyAdd(g *graph.Graph, index int, op Operation) error {
	if op.Name == "" {
		return validationErr(index, op, "", "add requires a name")
	}
	level, err := graph.LayerLevel(op.Layer)
	if err != nil {
		return validationErr(index, op, "", err.Error())
	}
	if !graph.DiffVisible(level) {
		return validationErr(index, op, "",
			fmt.Sprintf("layer %s is code level; planned nodes must be C1..C3", op.Layer))
	}

	id := SynthesizeID(op.Name, op.Layer)
	idx := g.NodeIndex()
	if _, exists := idx[id]; exists {
		return validationErr(index, op, id, "node id already exists")
	}

	node := graph.Node{
		ID:               id,
		Type:             nodeTypeForLevel(level),
		Name:             op.Name,
		FilePath:         "(planned)/" + op.Name,
		AbstractionLevel: level,
	}

	// Dependency edges first so a bad reference aborts before any mutation
	// of the clone's edge list.
	for _, depID := range op.DependsOn {
		if _, ok := idx[depID]; !ok {
			return validationErr(index, op, depID, "depends_on references unknown node id")
		}
	}

	if parentID, ok := uniqueEnclosingNode(g, level); ok {
		node.Parent = parentID
		g.Edges = append(g.Edges, graph.Edge{
			From: parentID, To: id, Type: graph.EdgeContains, Weight: 1,
		})
	} else {
		g.Edges = append(g.Edges, graph.Edge{
			From: RootSentinelID, To: id, Type: graph.EdgeContains, Weight: 1,
		})
	}

	g.Nodes = append(g.Nodes, node)
	for _, depID := range op.DependsOn {
		g.Edges = append(g.Edges, graph.Edge{
			From: id, To: depID, Type: graph.EdgeImports, Weight: 1,
		})
	}
	return nil
}

// applyRemove deletes the target node, every node transitively owned by it,
// and every edge touching a removed id. Traversal is iterative with a
// visited set so a malformed ownership cycle cannot hang it.
func applyRemove(g *graph.Graph, index int, op Operation) error {
	if op.ID == "" {
		return validationErr(index, op, "", "remove requires an id")
	}
	idx := g.NodeIndex()
	if _, ok := idx[op.ID]; !ok {
		return validationErr(index, op, op.ID, "unknown node id")
	}

	removed := map[string]struct{}{op.ID: {}}
	queue := []string{op.ID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, e := range g.Edges {
			if e.Type == graph.EdgeContains && e.From == current {
				if _, seen := removed[e.To]; !seen {
					removed[e.To] = struct{}{}
					queue = append(queue, e.To)
				}
			}
		}
		for _, n := range g.Nodes {
			if n.Parent == current {
				if _, seen := removed[n.ID]; !seen {
					removed[n.ID] = struct{}{}
					queue = append(queue, n.ID)
				}
			}
		}
	}

	nodes := g.Nodes[:0]
	for _, n := range g.Nodes {
		if _, gone := removed[n.ID]; !gone {
			nodes = append(nodes, n)
		}
	}
	g.Nodes = nodes

	edges := g.Edges[:0]
	for _, e := range g.Edges {
		_, fromGone := removed[e.From]
		_, toGone := removed[e.To]
		if !fromGone && !toGone {
			edges = append(edges, e)
		}
	}
	g.Edges = edges
	return nil
}

// applyMove reassigns the target's abstraction level. The id and every
// attached edge stay as they are, so the subsequent diff sees exactly one
// modified node and never a delete+add pair.
func applyMove(g *graph.Graph, index int, op Operation) error {
	if op.ID == "" {
		return validationErr(index, op, "", "move requires an id")
	}
	level, err := graph.LayerLevel(op.ToLayer)
	if err != nil {
		return validationErr(index, op, op.ID, err.Error())
	}

	idx := g.NodeIndex()
	i, ok := idx[op.ID]
	if !ok {
		return validationErr(index, op, op.ID, "unknown node id")
	}
	g.Nodes[i].AbstractionLevel = level
	return nil
}

// SynthesizeID derives the stable id of a plan-added node from its layer
// and name. The same name and layer always yield the same id.
func SynthesizeID(name string, layer graph.Layer) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "_")
	slug = strings.ReplaceAll(slug, "/", "_")
	return fmt.Sprintf("plan:%s:%s", strings.ToLower(string(layer)), slug)
}

// uniqueEnclosingNode finds the node one abstraction level above the given
// level, if exactly one exists. More than one candidate is ambiguous and
// yields no parent rather than a guess.
func uniqueEnclosingNode(g *graph.Graph, level int) (string, bool) {
	parentLevel := level + 1
	if parentLevel > graph.LevelSystem {
		return "", false
	}
	var found string
	count := 0
	for _, n := range g.Nodes {
		if n.AbstractionLevel == parentLevel {
			found = n.ID
			count++
		}
	}
	if count == 1 {
		return found, true
	}
	return "", false
}

func nodeTypeForLevel(level int) graph.NodeType {
	switch level {
	case graph.LevelSystem:
		return graph.NodeSystem
	case graph.LevelContainer:
		return graph.NodeContainer
	default:
		return graph.NodeComponent
	}
}
