package analyze

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"prism/internal/config"
	"prism/internal/graph"
	"prism/internal/logging"
)

// Analyzer turns a source tree into an architecture graph.
type Analyzer struct {
	extractor   Extractor
	layers      *LayerTable
	maxFileSize int
	log         *logging.Logger
}

// New wires an analyzer from config.
func New(cfg *config.Config, log *logging.Logger) (*Analyzer, error) {
	layers, err := LoadLayerTable(filepath.Join(cfg.RepoRoot, cfg.Analyzer.LayersFile))
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		extractor:   NewExtractor(),
		layers:      layers,
		maxFileSize: cfg.Analyzer.MaxFileSizeBytes,
		log:         log,
	}, nil
}

// NewWithExtractor builds an analyzer around an explicit extractor. Tests
// use this to run the builder without a tree-sitter toolchain.
func NewWithExtractor(extractor Extractor, layers *LayerTable, log *logging.Logger) *Analyzer {
	return &Analyzer{extractor: extractor, layers: layers, log: log}
}

// Run discovers, parses, and assembles the graph for root.
func (a *Analyzer) Run(root string, ignoreGlobs []string) (*graph.Graph, error) {
	files, err := DiscoverFiles(root, ignoreGlobs)
	if err != nil {
		return nil, err
	}
	a.log.Info("discovered source files", logging.Fields{"count": len(files)})

	parses := make(map[string]*FileParse, len(files))
	kept := files[:0]
	for _, f := range files {
		src, err := os.ReadFile(f.AbsPath)
		if err != nil {
			a.log.Warn("skipping unreadable file", logging.Fields{"path": f.Path, "error": err.Error()})
			continue
		}
		if a.maxFileSize > 0 && len(src) > a.maxFileSize {
			a.log.Warn("skipping oversized file", logging.Fields{"path": f.Path, "bytes": len(src)})
			continue
		}
		fp, err := a.extractor.Extract(f, src)
		if err != nil {
			a.log.Warn("skipping unparseable file", logging.Fields{"path": f.Path, "error": err.Error()})
			continue
		}
		parses[f.Path] = fp
		kept = append(kept, f)
	}

	return a.build(kept, parses), nil
}

// build assembles nodes and edges from parse results. Iteration follows the
// sorted file list throughout so output is deterministic.
func (a *Analyzer) build(files []SourceFile, parses map[string]*FileParse) *graph.Graph {
	g := &graph.Graph{Nodes: []graph.Node{}, Edges: []graph.Edge{}}
	seenDirs := make(map[string]struct{})

	// Directory chain for every file, outermost first.
	for _, f := range files {
		parts := strings.Split(f.Path, "/")
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
				AbstractionLevel: a.layers.Level(dirPath),
			}
			if i > 0 {
				parentPath := strings.Join(parts[:i], "/")
				node.Parent = "dir:" + parentPath
				g.Edges = append(g.Edges, graph.Edge{
					From:   "dir:" + parentPath,
					To:     "dir:" + dirPath,
					Type:   graph.EdgeContains,
					Weight: 1,
				})
			}
			g.Nodes = append(g.Nodes, node)
		}
	}

	// File and symbol nodes with their containment edges.
	for _, f := range files {
		fp := parses[f.Path]
		fileID := "file:" + f.Path
		parentDir := path.Dir(f.Path)
		level := a.layers.Level(f.Path)

		g.Nodes = append(g.Nodes, graph.Node{
			ID:               fileID,
			Type:             graph.NodeFile,
			Name:             path.Base(f.Path),
			FilePath:         f.Path,
			Language:         f.Language,
			LinesOfCode:      fp.LinesOfCode,
			ExportCount:      len(fp.Symbols),
			AbstractionLevel: level,
			Parent:           "dir:" + parentDir,
		})
		g.Edges = append(g.Edges, graph.Edge{
			From:   "dir:" + parentDir,
			To:     fileID,
			Type:   graph.EdgeContains,
			Weight: 1,
		})

		for _, sym := range fp.Symbols {
			symID := symbolID(sym, f.Path)
			g.Nodes = append(g.Nodes, graph.Node{
				ID:               symID,
				Type:             symbolNodeType(sym.Kind),
				Name:             sym.Name,
				FilePath:         f.Path,
				Language:         f.Language,
				LinesOfCode:      sym.Lines,
				AbstractionLevel: graph.LevelCode,
				Parent:           fileID,
			})
			g.Edges = append(g.Edges, graph.Edge{
				From:   fileID,
				To:     symID,
				Type:   graph.EdgeContains,
				Weight: 1,
			})
		}
	}

	filePaths := make(map[string]struct{}, len(files))
	for _, f := range files {
		filePaths[f.Path] = struct{}{}
	}

	a.buildImportEdges(g, files, parses, filePaths)
	a.buildCallEdges(g, files, parses, filePaths)

	// Symbol ids collide when one file declares the same name twice (e.g.
	// an overload pair); drop the later duplicates rather than fail.
	dedupeNodes(g)
	return g
}

func symbolID(sym ParsedSymbol, filePath string) string {
	prefix := "func:"
	if sym.Kind == KindClass {
		prefix = "class:"
	}
	return prefix + filePath + ":" + sym.Name
}

func symbolNodeType(kind SymbolKind) graph.NodeType {
	if kind == KindClass {
		return graph.NodeClass
	}
	return graph.NodeFunction
}

// buildImportEdges emits file-to-file imports edges, weighted by the number
// of named imports.
func (a *Analyzer) buildImportEdges(g *graph.Graph, files []SourceFile, parses map[string]*FileParse, filePaths map[string]struct{}) {
	for _, f := range files {
		for _, imp := range parses[f.Path].Imports {
			target := resolveImport(imp.Module, f.Path, filePaths)
			if target == "" {
				continue
			}
			weight := len(imp.Names)
			if weight == 0 {
				weight = 1
			}
			g.Edges = append(g.Edges, graph.Edge{
				From:   "file:" + f.Path,
				To:     "file:" + target,
				Type:   graph.EdgeImports,
				Weight: weight,
			})
		}
	}
}

// resolveImport maps a module string to a discovered file path. Relative
// specifiers try the script-family extensions and index files; dotted
// specifiers try package-style layouts. Unresolvable modules (stdlib,
// third-party) yield no edge.
func resolveImport(module, sourcePath string, filePaths map[string]struct{}) string {
	if strings.HasPrefix(module, ".") {
		sourceDir := path.Dir(sourcePath)
		if strings.HasPrefix(module, "..") {
			sourceDir = path.Dir(sourceDir)
			module = strings.TrimLeft(module[2:], "/")
		} else {
			module = strings.TrimLeft(module[1:], "/")
		}
		candidates := []string{
			sourceDir + "/" + module + ".ts",
			sourceDir + "/" + module + ".tsx",
			sourceDir + "/" + module + ".js",
			sourceDir + "/" + module + "/index.ts",
			sourceDir + "/" + module + "/index.tsx",
		}
		for _, c := range candidates {
			c = path.Clean(c)
			if _, ok := filePaths[c]; ok {
				return c
			}
		}
		return ""
	}

	dotted := strings.ReplaceAll(module, ".", "/")
	candidates := []string{
		dotted + ".py",
		dotted + "/__init__.py",
		dotted + ".ts",
		dotted + ".tsx",
	}
	for _, c := range candidates {
		if _, ok := filePaths[c]; ok {
			return c
		}
	}
	return ""
}

// buildCallEdges resolves bare callee names to function nodes, first in the
// caller's own file, then through its named imports.
func (a *Analyzer) buildCallEdges(g *graph.Graph, files []SourceFile, parses map[string]*FileParse, filePaths map[string]struct{}) {
	fileSymbols := make(map[string]map[string]string, len(files))
	for _, f := range files {
		symbols := make(map[string]string)
		for _, sym := range parses[f.Path].Symbols {
			if sym.Kind == KindFunction {
				symbols[sym.Name] = symbolID(sym, f.Path)
			}
		}
		fileSymbols[f.Path] = symbols
	}

	importMaps := make(map[string]map[string]string, len(files))
	for _, f := range files {
		m := make(map[string]string)
		for _, imp := range parses[f.Path].Imports {
			target := resolveImport(imp.Module, f.Path, filePaths)
			if target == "" {
				continue
			}
			for _, name := range imp.Names {
				m[name] = target
			}
		}
		importMaps[f.Path] = m
	}

	seen := make(map[string]struct{})
	for _, f := range files {
		local := fileSymbols[f.Path]
		imports := importMaps[f.Path]

		for _, sym := range parses[f.Path].Symbols {
			if sym.Kind != KindFunction {
				continue
			}
			callerID := symbolID(sym, f.Path)
			for _, callee := range sym.Calls {
				targetID := ""
				if id, ok := local[callee]; ok && id != callerID {
					targetID = id
				} else if targetFile, ok := imports[callee]; ok {
					targetID = fileSymbols[targetFile][callee]
				}
				if targetID == "" {
					continue
				}
				edgeKey := callerID + "\x00" + targetID
				if _, dup := seen[edgeKey]; dup {
					continue
				}
				seen[edgeKey] = struct{}{}
				g.Edges = append(g.Edges, graph.Edge{
					From:   callerID,
					To:     targetID,
					Type:   graph.EdgeCalls,
					Weight: 1,
				})
			}
		}
	}
}

func dedupeNodes(g *graph.Graph) {
	seen := make(map[string]struct{}, len(g.Nodes))
	out := g.Nodes[:0]
	for _, n := range g.Nodes {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		out = append(out, n)
	}
	g.Nodes = out
}
