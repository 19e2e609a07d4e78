// Package diff compares two property-graph snapshots and classifies every
// visible node and edge into added/removed/moved/modified. The comparison is
// a pure function: two graphs in, one report out, byte-identical on repeat
// calls with the same inputs.
package diff

import (
	"encoding/json"

	"prism/internal/graph"
)

// Source identifies which producer generated the two snapshots.
const (
	SourceCommits = "commits"
	SourcePlan    = "plan"
)

// Meta carries report provenance. RefA/RefB are arbitrary caller-supplied
// labels for commit comparisons; PlanName is set for plan applications.
type Meta struct {
	Source   string `json:"source"`
	RefA     string `json:"ref_a,omitempty"`
	RefB     string `json:"ref_b,omitempty"`
	PlanName string `json:"plan_name,omitempty"`
}

// Summary holds the six collection counts. It is derived purely from the
// collection lengths, never computed independently.
type Summary struct {
	AddedNodes    int `json:"added_nodes"`
	RemovedNodes  int `json:"removed_nodes"`
	MovedNodes    int `json:"moved_nodes"`
	ModifiedNodes int `json:"modified_nodes"`
	AddedEdges    int `json:"added_edges"`
	RemovedEdges  int `json:"removed_edges"`
}

// Change is a [old, new] value pair for one tracked field.
type Change [2]interface{}

// MovedNode reports an entity whose id changed while name and type stayed
// stable. It carries the new node's data plus where it came from.
type MovedNode struct {
	graph.Node
	OldID       string `json:"old_id"`
	OldFilePath string `json:"old_file_path,omitempty"`
}

// ModifiedNode reports an entity present in both snapshots whose tracked
// fields differ. Changes holds only the fields that actually changed.
type ModifiedNode struct {
	graph.Node
	Changes map[string]Change `json:"changes"`
}

// EdgeRef is the identity tuple of an added or removed edge. Weight deltas
// are not separately reported; weight participates in the owning nodes'
// adjacency signatures instead.
type EdgeRef struct {
	From string         `json:"from"`
	To   string         `json:"to"`
	Type graph.EdgeType `json:"type"`
}

// Report is the single diff output shape. Constructed once per invocation,
// immutable thereafter, serialized verbatim to the consumer.
type Report struct {
	Meta          Meta           `json:"meta"`
	Summary       Summary        `json:"summary"`
	AddedNodes    []graph.Node   `json:"added_nodes"`
	RemovedNodes  []graph.Node   `json:"removed_nodes"`
	MovedNodes    []MovedNode    `json:"moved_nodes"`
	ModifiedNodes []ModifiedNode `json:"modified_nodes"`
	AddedEdges    []EdgeRef      `json:"added_edges"`
	RemovedEdges  []EdgeRef      `json:"removed_edges"`
}

// IsEmpty returns true if the report contains no changes.
func (r *Report) IsEmpty() bool {
	return len(r.AddedNodes) == 0 &&
		len(r.RemovedNodes) == 0 &&
		len(r.MovedNodes) == 0 &&
		len(r.ModifiedNodes) == 0 &&
		len(r.AddedEdges) == 0 &&
		len(r.RemovedEdges) == 0
}

// ComputeSummary derives the summary from the collection lengths.
func (r *Report) ComputeSummary() Summary {
	return Summary{
		AddedNodes:    len(r.AddedNodes),
		RemovedNodes:  len(r.RemovedNodes),
		MovedNodes:    len(r.MovedNodes),
		ModifiedNodes: len(r.ModifiedNodes),
		AddedEdges:    len(r.AddedEdges),
		RemovedEdges:  len(r.RemovedEdges),
	}
}

// ToJSON serializes the report to indented JSON.
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// ParseReport deserializes a report from JSON.
func ParseReport(data []byte) (*Report, error) {
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
