//go:build !cgo

package analyze

// NewExtractor returns a line-count extractor when tree-sitter is not
// compiled in. Graphs built this way have directory and file structure
// with line counts but no symbol or call information.
func NewExtractor() Extractor {
	return &lineCountExtractor{}
}

// ExtractionAvailable reports whether AST-level extraction is compiled in.
func ExtractionAvailable() bool { return false }

type lineCountExtractor struct{}

func (*lineCountExtractor) Extract(file SourceFile, src []byte) (*FileParse, error) {
	return &FileParse{LinesOfCode: countLines(src)}, nil
}
