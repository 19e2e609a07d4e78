package analyze

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"prism/internal/graph"
	"prism/internal/logging"
)

type fakeExtractor struct {
	parses map[string]*FileParse
}

func (f *fakeExtractor) Extract(file SourceFile, src []byte) (*FileParse, error) {
	if fp, ok := f.parses[file.Path]; ok {
		return fp, nil
	}
	return &FileParse{LinesOfCode: countLines(src)}, nil
}

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Level: logging.ErrorLevel, Format: logging.JSONFormat, Output: io.Discard})
}

func testAnalyzer(parses map[string]*FileParse) *Analyzer {
	return NewWithExtractor(&fakeExtractor{parses: parses}, NewLayerTable(), testLogger())
}

func sourceFiles(paths ...string) []SourceFile {
	var files []SourceFile
	for _, p := range paths {
		lang := extensionMap[filepath.Ext(p)]
		files = append(files, SourceFile{Path: p, Language: lang})
	}
	return files
}

func findNode(t *testing.T, g *graph.Graph, id string) graph.Node {
	t.Helper()
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}
	t.Fatalf("node %q not in graph", id)
	return graph.Node{}
}

func hasEdge(g *graph.Graph, from, to string, typ graph.EdgeType) bool {
	for _, e := range g.Edges {
		if e.From == from && e.To == to && e.Type == typ {
			return true
		}
	}
	return false
}

func TestBuildDirectoryChain(t *testing.T) {
	files := sourceFiles("src/services/auth.py")
	a := testAnalyzer(map[string]*FileParse{
		"src/services/auth.py": {LinesOfCode: 10},
	})

	g := a.build(files, map[string]*FileParse{"src/services/auth.py": {LinesOfCode: 10}})

	src := findNode(t, g, "dir:src")
	if src.Parent != "" {
		t.Errorf("root dir parent = %q, want empty", src.Parent)
	}
	services := findNode(t, g, "dir:src/services")
	if services.Parent != "dir:src" {
		t.Errorf("nested dir parent = %q, want dir:src", services.Parent)
	}
	if services.AbstractionLevel != graph.LevelComponent {
		t.Errorf("services level = %d, want %d", services.AbstractionLevel, graph.LevelComponent)
	}
	if !hasEdge(g, "dir:src", "dir:src/services", graph.EdgeContains) {
		t.Error("missing dir->dir contains edge")
	}
	if !hasEdge(g, "dir:src/services", "file:src/services/auth.py", graph.EdgeContains) {
		t.Error("missing dir->file contains edge")
	}
}

func TestBuildFileAndSymbolNodes(t *testing.T) {
	files := sourceFiles("src/services/auth.py")
	parses := map[string]*FileParse{
		"src/services/auth.py": {
			LinesOfCode: 42,
			Symbols: []ParsedSymbol{
				{Name: "login", Kind: KindFunction, Lines: 12},
				{Name: "Session", Kind: KindClass, Lines: 20},
			},
		},
	}
	g := testAnalyzer(parses).build(files, parses)

	file := findNode(t, g, "file:src/services/auth.py")
	if file.LinesOfCode != 42 {
		t.Errorf("file lines_of_code = %d, want 42", file.LinesOfCode)
	}
	if file.ExportCount != 2 {
		t.Errorf("file export_count = %d, want 2", file.ExportCount)
	}
	if file.Language != "python" {
		t.Errorf("file language = %q, want python", file.Language)
	}

	fn := findNode(t, g, "func:src/services/auth.py:login")
	if fn.Type != graph.NodeFunction {
		t.Errorf("symbol type = %q, want function", fn.Type)
	}
	if fn.AbstractionLevel != graph.LevelCode {
		t.Errorf("symbol level = %d, want %d", fn.AbstractionLevel, graph.LevelCode)
	}
	if fn.Parent != "file:src/services/auth.py" {
		t.Errorf("symbol parent = %q", fn.Parent)
	}

	cls := findNode(t, g, "class:src/services/auth.py:Session")
	if cls.Type != graph.NodeClass {
		t.Errorf("class symbol type = %q", cls.Type)
	}
	if !hasEdge(g, "file:src/services/auth.py", "func:src/services/auth.py:login", graph.EdgeContains) {
		t.Error("missing file->symbol contains edge")
	}
}

func TestImportEdgeRelative(t *testing.T) {
	files := sourceFiles("src/app.ts", "src/utils/date.ts")
	parses := map[string]*FileParse{
		"src/app.ts": {
			Imports: []ParsedImport{{Module: "./utils/date", Names: []string{"formatDate", "parseDate"}}},
		},
		"src/utils/date.ts": {},
	}
	g := testAnalyzer(parses).build(files, parses)

	var found bool
	for _, e := range g.Edges {
		if e.Type == graph.EdgeImports && e.From == "file:src/app.ts" && e.To == "file:src/utils/date.ts" {
			found = true
			if e.Weight != 2 {
				t.Errorf("import weight = %d, want 2 (named imports)", e.Weight)
			}
		}
	}
	if !found {
		t.Fatal("relative import did not resolve to an edge")
	}
}

func TestImportEdgeDotted(t *testing.T) {
	files := sourceFiles("backend/services/auth.py", "backend/main.py")
	parses := map[string]*FileParse{
		"backend/main.py": {
			Imports: []ParsedImport{{Module: "backend.services.auth", Names: []string{"login"}}},
		},
		"backend/services/auth.py": {},
	}
	g := testAnalyzer(parses).build(files, parses)

	if !hasEdge(g, "file:backend/main.py", "file:backend/services/auth.py", graph.EdgeImports) {
		t.Fatal("dotted import did not resolve to an edge")
	}
}

func TestUnresolvableImportDropped(t *testing.T) {
	files := sourceFiles("src/app.ts")
	parses := map[string]*FileParse{
		"src/app.ts": {
			Imports: []ParsedImport{{Module: "react", Names: []string{"useState"}}},
		},
	}
	g := testAnalyzer(parses).build(files, parses)

	for _, e := range g.Edges {
		if e.Type == graph.EdgeImports {
			t.Fatalf("unexpected import edge %v", e)
		}
	}
}

func TestCallEdges(t *testing.T) {
	files := sourceFiles("src/app.ts", "src/utils/math.ts")
	parses := map[string]*FileParse{
		"src/app.ts": {
			Imports: []ParsedImport{{Module: "./utils/math", Names: []string{"add"}}},
			Symbols: []ParsedSymbol{
				{Name: "main", Kind: KindFunction, Calls: []string{"helper", "add", "add", "unknown"}},
				{Name: "helper", Kind: KindFunction},
			},
		},
		"src/utils/math.ts": {
			Symbols: []ParsedSymbol{{Name: "add", Kind: KindFunction}},
		},
	}
	g := testAnalyzer(parses).build(files, parses)

	if !hasEdge(g, "func:src/app.ts:main", "func:src/app.ts:helper", graph.EdgeCalls) {
		t.Error("missing same-file call edge")
	}
	if !hasEdge(g, "func:src/app.ts:main", "func:src/utils/math.ts:add", graph.EdgeCalls) {
		t.Error("missing cross-file call edge through import")
	}

	count := 0
	for _, e := range g.Edges {
		if e.Type == graph.EdgeCalls {
			count++
		}
	}
	if count != 2 {
		t.Errorf("call edge count = %d, want 2 (dedupe, skip unresolved)", count)
	}
}

func TestCallEdgeNeverSelf(t *testing.T) {
	files := sourceFiles("src/rec.py")
	parses := map[string]*FileParse{
		"src/rec.py": {
			Symbols: []ParsedSymbol{{Name: "walk", Kind: KindFunction, Calls: []string{"walk"}}},
		},
	}
	g := testAnalyzer(parses).build(files, parses)

	for _, e := range g.Edges {
		if e.Type == graph.EdgeCalls {
			t.Fatalf("self call produced edge %v", e)
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	files := sourceFiles("src/a.py", "src/b.py", "src/sub/c.py")
	parses := map[string]*FileParse{
		"src/a.py":     {Symbols: []ParsedSymbol{{Name: "fa", Kind: KindFunction}}},
		"src/b.py":     {Symbols: []ParsedSymbol{{Name: "fb", Kind: KindFunction}}},
		"src/sub/c.py": {},
	}
	a := testAnalyzer(parses)

	first := a.build(files, parses)
	for i := 0; i < 5; i++ {
		next := a.build(files, parses)
		if len(next.Nodes) != len(first.Nodes) || len(next.Edges) != len(first.Edges) {
			t.Fatal("graph size varies between runs")
		}
		for j := range first.Nodes {
			if next.Nodes[j] != first.Nodes[j] {
				t.Fatalf("node order differs at %d: %v vs %v", j, next.Nodes[j], first.Nodes[j])
			}
		}
		for j := range first.Edges {
			if next.Edges[j] != first.Edges[j] {
				t.Fatalf("edge order differs at %d", j)
			}
		}
	}
}

func TestDuplicateSymbolNamesKeepFirst(t *testing.T) {
	files := sourceFiles("src/dup.ts")
	parses := map[string]*FileParse{
		"src/dup.ts": {
			Symbols: []ParsedSymbol{
				{Name: "render", Kind: KindFunction, Lines: 4},
				{Name: "render", Kind: KindFunction, Lines: 9},
			},
		},
	}
	g := testAnalyzer(parses).build(files, parses)

	if err := g.ValidateIdentity(); err != nil {
		t.Fatalf("graph with duplicate symbol names invalid: %v", err)
	}
	n := findNode(t, g, "func:src/dup.ts:render")
	if n.LinesOfCode != 4 {
		t.Errorf("kept symbol lines = %d, want first occurrence (4)", n.LinesOfCode)
	}
}

func TestDiscoverFiles(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, root, "src/app.ts", "export {}\n")
	mustWrite(t, root, "src/services/auth.py", "def login(): pass\n")
	mustWrite(t, root, "node_modules/pkg/index.js", "module.exports = 1\n")
	mustWrite(t, root, "dist/bundle.js", "x\n")
	mustWrite(t, root, "README.md", "docs\n")
	mustWrite(t, root, "generated/schema.ts", "export {}\n")

	files, err := DiscoverFiles(root, []string{"generated/**"})
	if err != nil {
		t.Fatal(err)
	}

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	want := []string{"src/app.ts", "src/services/auth.py"}
	if len(paths) != len(want) {
		t.Fatalf("discovered %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("discovered %v, want %v", paths, want)
		}
	}
	if files[0].Language != "typescript" || files[1].Language != "python" {
		t.Errorf("language mapping wrong: %v", files)
	}
}

func TestLayerTableDefaults(t *testing.T) {
	table := NewLayerTable()
	cases := []struct {
		path string
		want int
	}{
		{"src/models/user.py", graph.LevelCode},
		{"src/services/auth.py", graph.LevelComponent},
		{"src/api/routes.py", graph.LevelContainer},
		{"src/main.py", graph.LevelSystem},
		{"src/index.ts", graph.LevelSystem},
		{"src/misc/thing.py", graph.LevelComponent},
	}
	for _, tc := range cases {
		if got := table.Level(tc.path); got != tc.want {
			t.Errorf("Level(%q) = %d, want %d", tc.path, got, tc.want)
		}
	}
}

func TestLayerTableOverrides(t *testing.T) {
	root := t.TempDir()
	layersPath := filepath.Join(root, "LAYERS.toml")
	content := "[levels]\nservices = 2\ndomain = 0\n"
	if err := os.WriteFile(layersPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadLayerTable(layersPath)
	if err != nil {
		t.Fatal(err)
	}
	if got := table.Level("src/services/auth.py"); got != graph.LevelContainer {
		t.Errorf("override ignored: Level = %d, want %d", got, graph.LevelContainer)
	}
	if got := table.Level("src/domain/user.py"); got != graph.LevelCode {
		t.Errorf("new stem ignored: Level = %d, want %d", got, graph.LevelCode)
	}
	if got := table.Level("src/api/routes.py"); got != graph.LevelContainer {
		t.Errorf("untouched default changed: Level = %d", got)
	}
}

func TestLayerTableMissingFile(t *testing.T) {
	table, err := LoadLayerTable(filepath.Join(t.TempDir(), "LAYERS.toml"))
	if err != nil {
		t.Fatalf("missing layers file should not error: %v", err)
	}
	if got := table.Level("src/services/x.py"); got != graph.LevelComponent {
		t.Errorf("defaults not loaded: %d", got)
	}
}

func TestLayerTableRejectsOutOfRange(t *testing.T) {
	root := t.TempDir()
	layersPath := filepath.Join(root, "LAYERS.toml")
	if err := os.WriteFile(layersPath, []byte("[levels]\nservices = 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadLayerTable(layersPath); err == nil {
		t.Fatal("expected error for level outside 0..3")
	}
}

func TestRunEndToEnd(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, root, "src/a.py", "line1\nline2\nline3\n")
	mustWrite(t, root, "src/b.py", "x = 1\n")

	a := testAnalyzer(map[string]*FileParse{
		"src/a.py": {LinesOfCode: 4, Symbols: []ParsedSymbol{{Name: "fa", Kind: KindFunction, Lines: 2}}},
	})
	g, err := a.Run(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.ValidateIdentity(); err != nil {
		t.Fatal(err)
	}

	findNode(t, g, "dir:src")
	fa := findNode(t, g, "file:src/a.py")
	if fa.ExportCount != 1 {
		t.Errorf("export_count = %d, want 1", fa.ExportCount)
	}
	fb := findNode(t, g, "file:src/b.py")
	if fb.LinesOfCode != 2 {
		t.Errorf("fallback line count = %d, want 2", fb.LinesOfCode)
	}
}

func mustWrite(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
