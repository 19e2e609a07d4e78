package diff

import (
	"sort"
	"strconv"

	"prism/internal/graph"
)

// Compute compares two graph snapshots and returns a structural diff
// restricted to diff-visible nodes (abstraction_level >= 1). Neither input
// is mutated. Output ordering is fully deterministic: every collection is
// sorted by id (moves by the new id).
func Compute(a, b *graph.Graph, meta Meta) (*Report, error) {
	if err := a.ValidateIdentity(); err != nil {
		return nil, err
	}
	if err := b.ValidateIdentity(); err != nil {
		return nil, err
	}

	visibleA := visibleNodes(a)
	visibleB := visibleNodes(b)
	sigA := adjacencySignatures(a)
	sigB := adjacencySignatures(b)

	report := &Report{
		Meta:          meta,
		AddedNodes:    []graph.Node{},
		RemovedNodes:  []graph.Node{},
		MovedNodes:    []MovedNode{},
		ModifiedNodes: []ModifiedNode{},
		AddedEdges:    []EdgeRef{},
		RemovedEdges:  []EdgeRef{},
	}

	// Partition by id.
	onlyA := make(map[string]graph.Node)
	onlyB := make(map[string]graph.Node)
	var common []string
	for id, n := range visibleA {
		if _, ok := visibleB[id]; ok {
			common = append(common, id)
		} else {
			onlyA[id] = n
		}
	}
	for id, n := range visibleB {
		if _, ok := visibleA[id]; !ok {
			onlyB[id] = n
		}
	}

	// Modified: same id, differing tracked fields.
	sort.Strings(common)
	for _, id := range common {
		changes := detectChanges(visibleA[id], visibleB[id], sigA[id], sigB[id])
		if len(changes) > 0 {
			report.ModifiedNodes = append(report.ModifiedNodes, ModifiedNode{
				Node:    visibleB[id],
				Changes: changes,
			})
		}
	}

	// Moves: a removed and an added node with the same name and type match
	// iff each side has exactly one candidate. Anything ambiguous degrades
	// to plain add/remove rather than a guessed pairing.
	for _, m := range detectMoves(onlyA, onlyB) {
		report.MovedNodes = append(report.MovedNodes, m)
		delete(onlyA, m.OldID)
		delete(onlyB, m.ID)
	}

	for _, n := range onlyA {
		report.RemovedNodes = append(report.RemovedNodes, n)
	}
	for _, n := range onlyB {
		report.AddedNodes = append(report.AddedNodes, n)
	}

	// Edge diff over identity tuples, restricted to edges whose endpoints
	// are visible in at least one snapshot. Stale endpoint references are
	// excluded here rather than treated as fatal.
	endpointIDs := make(map[string]struct{}, len(visibleA)+len(visibleB))
	for id := range visibleA {
		endpointIDs[id] = struct{}{}
	}
	for id := range visibleB {
		endpointIDs[id] = struct{}{}
	}
	tuplesA := edgeTuples(a, endpointIDs)
	tuplesB := edgeTuples(b, endpointIDs)
	for key, e := range tuplesB {
		if _, ok := tuplesA[key]; !ok {
			report.AddedEdges = append(report.AddedEdges, e)
		}
	}
	for key, e := range tuplesA {
		if _, ok := tuplesB[key]; !ok {
			report.RemovedEdges = append(report.RemovedEdges, e)
		}
	}

	sortReport(report)
	report.Summary = report.ComputeSummary()
	return report, nil
}

// visibleNodes returns the diff-visible node set keyed by id.
func visibleNodes(g *graph.Graph) map[string]graph.Node {
	out := make(map[string]graph.Node)
	for _, n := range g.Nodes {
		if graph.DiffVisible(n.AbstractionLevel) {
			out[n.ID] = n
		}
	}
	return out
}

// adjacencySignatures builds, per node id, the sorted set of typed edge
// endpoints touching it. Weight is folded in so that a weight change shows
// up as a modification of both owning nodes instead of vanishing.
func adjacencySignatures(g *graph.Graph) map[string][]string {
	sigs := make(map[string][]string)
	for _, e := range g.Edges {
		w := strconv.Itoa(e.Weight)
		sigs[e.From] = append(sigs[e.From], "out:"+string(e.Type)+":"+e.To+":"+w)
		sigs[e.To] = append(sigs[e.To], "in:"+string(e.Type)+":"+e.From+":"+w)
	}
	for id := range sigs {
		sort.Strings(sigs[id])
	}
	return sigs
}

// detectChanges compares the tracked fields of two versions of one node.
// Only fields that actually differ appear in the result.
func detectChanges(a, b graph.Node, sigA, sigB []string) map[string]Change {
	changes := make(map[string]Change)
	if a.LinesOfCode != b.LinesOfCode {
		changes["lines_of_code"] = Change{a.LinesOfCode, b.LinesOfCode}
	}
	if a.ExportCount != b.ExportCount {
		changes["export_count"] = Change{a.ExportCount, b.ExportCount}
	}
	if a.AbstractionLevel != b.AbstractionLevel {
		changes["abstraction_level"] = Change{a.AbstractionLevel, b.AbstractionLevel}
	}
	if !equalStrings(sigA, sigB) {
		changes["edges"] = Change{sigA, sigB}
	}
	return changes
}

// detectMoves pairs removed and added nodes by (name, type). The outcome per
// key is tri-state: a unique pair is a move, no counterpart or multiple
// candidates on either side means no move is inferred.
func detectMoves(onlyA, onlyB map[string]graph.Node) []MovedNode {
	type key struct {
		name string
		typ  graph.NodeType
	}
	removedBy := make(map[key][]string)
	addedBy := make(map[key][]string)
	for id, n := range onlyA {
		removedBy[key{n.Name, n.Type}] = append(removedBy[key{n.Name, n.Type}], id)
	}
	for id, n := range onlyB {
		addedBy[key{n.Name, n.Type}] = append(addedBy[key{n.Name, n.Type}], id)
	}

	var moves []MovedNode
	for k, added := range addedBy {
		removed := removedBy[k]
		if len(added) != 1 || len(removed) != 1 {
			continue
		}
		oldNode := onlyA[removed[0]]
		moves = append(moves, MovedNode{
			Node:        onlyB[added[0]],
			OldID:       removed[0],
			OldFilePath: oldNode.FilePath,
		})
	}
	return moves
}

// edgeTuples builds the (from, to, type) identity set for edges whose both
// endpoints are in the visible id set.
func edgeTuples(g *graph.Graph, visible map[string]struct{}) map[string]EdgeRef {
	out := make(map[string]EdgeRef)
	for _, e := range g.Edges {
		if _, ok := visible[e.From]; !ok {
			continue
		}
		if _, ok := visible[e.To]; !ok {
			continue
		}
		out[e.Key()] = EdgeRef{From: e.From, To: e.To, Type: e.Type}
	}
	return out
}

func sortReport(r *Report) {
	sort.Slice(r.AddedNodes, func(i, j int) bool { return r.AddedNodes[i].ID < r.AddedNodes[j].ID })
	sort.Slice(r.RemovedNodes, func(i, j int) bool { return r.RemovedNodes[i].ID < r.RemovedNodes[j].ID })
	sort.Slice(r.MovedNodes, func(i, j int) bool { return r.MovedNodes[i].ID < r.MovedNodes[j].ID })
	sort.Slice(r.ModifiedNodes, func(i, j int) bool { return r.ModifiedNodes[i].ID < r.ModifiedNodes[j].ID })
	sortEdgeRefs(r.AddedEdges)
	sortEdgeRefs(r.RemovedEdges)
}

func sortEdgeRefs(edges []EdgeRef) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		if edges[i].To != edges[j].To {
			return edges[i].To < edges[j].To
		}
		return edges[i].Type < edges[j].Type
	})
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
