package analyze

// SymbolKind distinguishes the two symbol node flavors the graph carries.
type SymbolKind string

const (
	KindFunction SymbolKind = "function"
	KindClass    SymbolKind = "class"
)

// ParsedSymbol is a top-level function or class found in one file. Calls
// holds the bare callee names seen inside its body; resolution to graph
// edges happens later, once every file's symbol table exists.
type ParsedSymbol struct {
	Name  string
	Kind  SymbolKind
	Line  int
	Lines int
	Calls []string
}

// ParsedImport is one import statement. Module is the raw module string as
// written in the source ("./utils/date", "app.services.auth"); Names are
// the imported symbol names, empty for whole-module imports.
type ParsedImport struct {
	Module string
	Names  []string
}

// FileParse is the extraction result for a single file.
type FileParse struct {
	LinesOfCode int
	Symbols     []ParsedSymbol
	Imports     []ParsedImport
}

// Extractor turns source bytes into a FileParse. The tree-sitter
// implementation is cgo-only; builds without cgo fall back to a line-count
// extractor that yields structure-only graphs.
type Extractor interface {
	Extract(file SourceFile, src []byte) (*FileParse, error)
}

func countLines(src []byte) int {
	if len(src) == 0 {
		return 0
	}
	n := 1
	for _, b := range src {
		if b == '\n' {
			n++
		}
	}
	return n
}
