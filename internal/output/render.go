// Package output renders diff reports for terminals. JSON output comes
// straight from the report's own encoder; this package only owns the
// human-readable form.
package output

import (
	"fmt"
	"sort"
	"strings"

	"prism/internal/diff"
)

// RenderHuman formats a diff report as plain text.
func RenderHuman(r *diff.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Structural Diff\n")
	fmt.Fprintf(&b, "===============\n")
	switch r.Meta.Source {
	case diff.SourcePlan:
		fmt.Fprintf(&b, "Source:  plan %q\n", r.Meta.PlanName)
	default:
		fmt.Fprintf(&b, "Source:  %s..%s\n", r.Meta.RefA, r.Meta.RefB)
	}
	fmt.Fprintf(&b, "\n")

	fmt.Fprintf(&b, "Nodes:   +%d  ~%d  -%d  moved %d\n",
		r.Summary.AddedNodes, r.Summary.ModifiedNodes, r.Summary.RemovedNodes, r.Summary.MovedNodes)
	fmt.Fprintf(&b, "Edges:   +%d       -%d\n",
		r.Summary.AddedEdges, r.Summary.RemovedEdges)

	if r.IsEmpty() {
		fmt.Fprintf(&b, "\nNo structural changes detected.\n")
		return b.String()
	}

	if len(r.AddedNodes) > 0 {
		fmt.Fprintf(&b, "\nAdded:\n")
		for _, n := range r.AddedNodes {
			fmt.Fprintf(&b, "  + %-10s %s\n", n.Type, n.ID)
		}
	}
	if len(r.RemovedNodes) > 0 {
		fmt.Fprintf(&b, "\nRemoved:\n")
		for _, n := range r.RemovedNodes {
			fmt.Fprintf(&b, "  - %-10s %s\n", n.Type, n.ID)
		}
	}
	if len(r.MovedNodes) > 0 {
		fmt.Fprintf(&b, "\nMoved:\n")
		for _, m := range r.MovedNodes {
			fmt.Fprintf(&b, "  > %-10s %s -> %s\n", m.Type, m.OldID, m.ID)
		}
	}
	if len(r.ModifiedNodes) > 0 {
		fmt.Fprintf(&b, "\nModified:\n")
		for _, m := range r.ModifiedNodes {
			fmt.Fprintf(&b, "  ~ %-10s %s (%s)\n", m.Type, m.ID, changeKeys(m.Changes))
		}
	}
	if len(r.AddedEdges) > 0 {
		fmt.Fprintf(&b, "\nAdded edges:\n")
		for _, e := range r.AddedEdges {
			fmt.Fprintf(&b, "  + %s --%s--> %s\n", e.From, e.Type, e.To)
		}
	}
	if len(r.RemovedEdges) > 0 {
		fmt.Fprintf(&b, "\nRemoved edges:\n")
		for _, e := range r.RemovedEdges {
			fmt.Fprintf(&b, "  - %s --%s--> %s\n", e.From, e.Type, e.To)
		}
	}

	return b.String()
}

func changeKeys(changes map[string]diff.Change) string {
	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
