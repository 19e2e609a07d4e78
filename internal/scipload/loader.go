// Package scipload builds an architecture graph from a SCIP index instead
// of parsing sources directly. It is the producer of choice when a repo
// already ships a scip-go / scip-typescript index.
package scipload

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"prism/internal/analyze"
	"prism/internal/errors"
	"prism/internal/graph"
)

// LoadIndex reads and parses a SCIP index file.
func LoadIndex(indexPath string) (*scippb.Index, error) {
	data, err := os.ReadFile(indexPath)
	if os.IsNotExist(err) {
		return nil, errors.NewPrismError(errors.GraphMissing,
			fmt.Sprintf("SCIP index not found at %s", indexPath), err)
	}
	if err != nil {
		return nil, errors.NewPrismError(errors.InternalError,
			fmt.Sprintf("failed to read SCIP index from %s", indexPath), err)
	}

	var index scippb.Index
	if err := proto.Unmarshal(data, &index); err != nil {
		return nil, errors.NewPrismError(errors.ParseError,
			fmt.Sprintf("failed to parse SCIP index from %s", indexPath), err)
	}
	return &index, nil
}

// FromFile loads indexPath and converts it to a graph.
func FromFile(indexPath string, layers *analyze.LayerTable) (*graph.Graph, error) {
	index, err := LoadIndex(indexPath)
	if err != nil {
		return nil, err
	}
	return FromIndex(index, layers), nil
}

// FromIndex converts a parsed SCIP index into an architecture graph.
// Documents become file nodes under a directory chain; cross-document
// references collapse into file-level imports edges weighted by reference
// count. SCIP carries no line counts, so lines_of_code stays zero.
func FromIndex(index *scippb.Index, layers *analyze.LayerTable) *graph.Graph {
	g := &graph.Graph{Nodes: []graph.Node{}, Edges: []graph.Edge{}}

	docs := make([]*scippb.Document, len(index.Documents))
	copy(docs, index.Documents)
	sort.Slice(docs, func(i, j int) bool { return docs[i].RelativePath < docs[j].RelativePath })

	seenDirs := make(map[string]struct{})
	seenFiles := make(map[string]struct{})
	for _, doc := range docs {
		rel := path.Clean(filepathToSlash(doc.RelativePath))
		if rel == "." || rel == "" {
			continue
		}
		if _, dup := seenFiles[rel]; dup {
			continue
		}
		seenFiles[rel] = struct{}{}

		parts := strings.Split(rel, "/")
		for i := 0; i < len(parts)-1; i++ {
			dirPath := strings.Join(parts[:i+1], "/")
			if _, ok := seenDirs[dirPath]; ok {
				continue
			}
			seenDirs[dirPath] = struct{}{}
			node := graph.Node{
				ID:               "dir:" + dirPath,
				Type:             graph.NodeDirectory,
				Name:             parts[i],
				FilePath:         dirPath,
				AbstractionLevel: layers.Level(dirPath),
			}
			if i > 0 {
				parentPath := strings.Join(parts[:i], "/")
				node.Parent = "dir:" + parentPath
				g.Edges = append(g.Edges, graph.Edge{
					From: "dir:" + parentPath, To: "dir:" + dirPath,
					Type: graph.EdgeContains, Weight: 1,
				})
			}
			g.Nodes = append(g.Nodes, node)
		}

		g.Nodes = append(g.Nodes, graph.Node{
			ID:               "file:" + rel,
			Type:             graph.NodeFile,
			Name:             path.Base(rel),
			FilePath:         rel,
			Language:         strings.ToLower(doc.Language),
			ExportCount:      len(doc.Symbols),
			AbstractionLevel: layers.Level(rel),
			Parent:           "dir:" + path.Dir(rel),
		})
		g.Edges = append(g.Edges, graph.Edge{
			From: "dir:" + path.Dir(rel), To: "file:" + rel,
			Type: graph.EdgeContains, Weight: 1,
		})
	}

	g.Edges = append(g.Edges, referenceEdges(docs)...)
	return g
}

// referenceEdges aggregates cross-document symbol references into one
// imports edge per (from, to) file pair.
func referenceEdges(docs []*scippb.Document) []graph.Edge {
	definedIn := make(map[string]string)
	for _, doc := range docs {
		rel := path.Clean(filepathToSlash(doc.RelativePath))
		for _, occ := range doc.Occurrences {
			if occ.Symbol == "" {
				continue
			}
			if occ.SymbolRoles&int32(scippb.SymbolRole_Definition) != 0 {
				if _, ok := definedIn[occ.Symbol]; !ok {
					definedIn[occ.Symbol] = rel
				}
			}
		}
	}

	type pair struct{ from, to string }
	weights := make(map[pair]int)
	for _, doc := range docs {
		rel := path.Clean(filepathToSlash(doc.RelativePath))
		for _, occ := range doc.Occurrences {
			if occ.Symbol == "" || occ.SymbolRoles&int32(scippb.SymbolRole_Definition) != 0 {
				continue
			}
			target, ok := definedIn[occ.Symbol]
			if !ok || target == rel {
				continue
			}
			weights[pair{from: rel, to: target}]++
		}
	}

	edges := make([]graph.Edge, 0, len(weights))
	for p, w := range weights {
		edges = append(edges, graph.Edge{
			From: "file:" + p.from, To: "file:" + p.to,
			Type: graph.EdgeImports, Weight: w,
		})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
