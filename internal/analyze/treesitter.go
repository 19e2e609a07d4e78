//go:build cgo

package analyze

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"prism/internal/errors"
)

// TreeSitterExtractor extracts symbols, imports, and call names from source
// files using tree-sitter grammars.
type TreeSitterExtractor struct {
	parser *sitter.Parser
}

// NewExtractor creates the full tree-sitter extractor.
func NewExtractor() Extractor {
	return &TreeSitterExtractor{parser: sitter.NewParser()}
}

// ExtractionAvailable reports whether AST-level extraction is compiled in.
func ExtractionAvailable() bool { return true }

func sitterLanguage(lang string) *sitter.Language {
	switch lang {
	case "python":
		return python.GetLanguage()
	case "typescript":
		return typescript.GetLanguage()
	case "typescriptreact":
		return tsx.GetLanguage()
	case "javascript", "javascriptreact":
		return javascript.GetLanguage()
	case "go":
		return golang.GetLanguage()
	default:
		return nil
	}
}

// Extract parses src and returns the file's symbols and imports.
func (e *TreeSitterExtractor) Extract(file SourceFile, src []byte) (*FileParse, error) {
	lang := sitterLanguage(file.Language)
	if lang == nil {
		return &FileParse{LinesOfCode: countLines(src)}, nil
	}

	e.parser.SetLanguage(lang)
	tree, err := e.parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, errors.NewPrismError(errors.ParseError, "failed to parse "+file.Path, err)
	}
	defer tree.Close()

	fp := &FileParse{LinesOfCode: countLines(src)}
	root := tree.RootNode()

	switch file.Language {
	case "python":
		extractPythonSymbols(root, src, fp)
		extractPythonImports(root, src, fp)
	default:
		extractScriptSymbols(root, src, fp)
		extractScriptImports(root, src, fp)
	}
	return fp, nil
}

func nodeText(n *sitter.Node, src []byte) string {
	return string(src[n.StartByte():n.EndByte()])
}

func nodeLines(n *sitter.Node) int {
	return int(n.EndPoint().Row-n.StartPoint().Row) + 1
}

// extractPythonSymbols walks the tree collecting top-level and nested
// function and class definitions.
func extractPythonSymbols(node *sitter.Node, src []byte, fp *FileParse) {
	switch node.Type() {
	case "class_definition":
		if name := node.ChildByFieldName("name"); name != nil {
			fp.Symbols = append(fp.Symbols, ParsedSymbol{
				Name:  nodeText(name, src),
				Kind:  KindClass,
				Line:  int(node.StartPoint().Row) + 1,
				Lines: nodeLines(node),
			})
		}
	case "function_definition":
		if name := node.ChildByFieldName("name"); name != nil {
			sym := ParsedSymbol{
				Name:  nodeText(name, src),
				Kind:  KindFunction,
				Line:  int(node.StartPoint().Row) + 1,
				Lines: nodeLines(node),
			}
			if body := node.ChildByFieldName("body"); body != nil {
				sym.Calls = collectPythonCalls(body, src, nil)
			}
			fp.Symbols = append(fp.Symbols, sym)
		}
	}
	for i := uint32(0); i < node.ChildCount(); i++ {
		extractPythonSymbols(node.Child(int(i)), src, fp)
	}
}

// collectPythonCalls gathers callee names inside a body. Attribute calls
// keep only the attribute name; self and cls receivers are dropped so
// method dispatch does not masquerade as cross-file calls.
func collectPythonCalls(node *sitter.Node, src []byte, calls []string) []string {
	if node.Type() == "call" {
		if fn := node.ChildByFieldName("function"); fn != nil {
			switch fn.Type() {
			case "identifier":
				calls = append(calls, nodeText(fn, src))
			case "attribute":
				attr := fn.ChildByFieldName("attribute")
				obj := fn.ChildByFieldName("object")
				if attr != nil && obj != nil {
					if recv := nodeText(obj, src); recv != "self" && recv != "cls" {
						calls = append(calls, nodeText(attr, src))
					}
				}
			}
		}
	}
	for i := uint32(0); i < node.ChildCount(); i++ {
		calls = collectPythonCalls(node.Child(int(i)), src, calls)
	}
	return calls
}

func extractPythonImports(node *sitter.Node, src []byte, fp *FileParse) {
	switch node.Type() {
	case "import_from_statement":
		module := node.ChildByFieldName("module_name")
		if module == nil {
			return
		}
		imp := ParsedImport{Module: nodeText(module, src)}
		for i := uint32(0); i < node.ChildCount(); i++ {
			child := node.Child(int(i))
			switch {
			case child.Type() == "dotted_name" && !child.Equal(module):
				imp.Names = append(imp.Names, nodeText(child, src))
			case child.Type() == "aliased_import":
				if name := child.ChildByFieldName("name"); name != nil {
					imp.Names = append(imp.Names, nodeText(name, src))
				}
			}
		}
		fp.Imports = append(fp.Imports, imp)
		return
	case "import_statement":
		for i := uint32(0); i < node.ChildCount(); i++ {
			child := node.Child(int(i))
			if child.Type() == "dotted_name" {
				fp.Imports = append(fp.Imports, ParsedImport{Module: nodeText(child, src)})
			}
		}
		return
	}
	for i := uint32(0); i < node.ChildCount(); i++ {
		extractPythonImports(node.Child(int(i)), src, fp)
	}
}

// extractScriptSymbols handles the TypeScript/JavaScript family: function
// declarations, arrow functions bound to const, classes, interfaces, and
// type aliases, including exported forms. It does not descend into
// function bodies, keeping extraction to the file's top-level shape.
func extractScriptSymbols(node *sitter.Node, src []byte, fp *FileParse) {
	switch node.Type() {
	case "function_declaration", "generator_function_declaration":
		if name := node.ChildByFieldName("name"); name != nil {
			appendScriptFunction(fp, name, node, src)
		}
	case "lexical_declaration":
		for i := uint32(0); i < node.ChildCount(); i++ {
			child := node.Child(int(i))
			if child.Type() != "variable_declarator" {
				continue
			}
			name := child.ChildByFieldName("name")
			value := child.ChildByFieldName("value")
			if name != nil && value != nil && value.Type() == "arrow_function" {
				appendScriptFunction(fp, name, node, src)
			}
		}
	case "class_declaration", "interface_declaration", "type_alias_declaration":
		if name := node.ChildByFieldName("name"); name != nil {
			fp.Symbols = append(fp.Symbols, ParsedSymbol{
				Name:  nodeText(name, src),
				Kind:  KindClass,
				Line:  int(node.StartPoint().Row) + 1,
				Lines: nodeLines(node),
			})
		}
	}

	if node.Type() == "function_declaration" || node.Type() == "arrow_function" || node.Type() == "method_definition" {
		return
	}
	for i := uint32(0); i < node.ChildCount(); i++ {
		extractScriptSymbols(node.Child(int(i)), src, fp)
	}
}

func appendScriptFunction(fp *FileParse, name, scope *sitter.Node, src []byte) {
	sym := ParsedSymbol{
		Name:  nodeText(name, src),
		Kind:  KindFunction,
		Line:  int(scope.StartPoint().Row) + 1,
		Lines: nodeLines(scope),
		Calls: collectScriptCalls(scope, src, nil),
	}
	fp.Symbols = append(fp.Symbols, sym)
}

func collectScriptCalls(node *sitter.Node, src []byte, calls []string) []string {
	if node.Type() == "call_expression" {
		if fn := node.ChildByFieldName("function"); fn != nil {
			switch fn.Type() {
			case "identifier":
				calls = append(calls, nodeText(fn, src))
			case "member_expression":
				if prop := fn.ChildByFieldName("property"); prop != nil {
					if obj := fn.ChildByFieldName("object"); obj != nil && nodeText(obj, src) != "this" {
						calls = append(calls, nodeText(prop, src))
					}
				}
			}
		}
	}
	for i := uint32(0); i < node.ChildCount(); i++ {
		calls = collectScriptCalls(node.Child(int(i)), src, calls)
	}
	return calls
}

func extractScriptImports(node *sitter.Node, src []byte, fp *FileParse) {
	if node.Type() == "import_statement" {
		source := node.ChildByFieldName("source")
		if source == nil {
			return
		}
		imp := ParsedImport{Module: strings.Trim(nodeText(source, src), `'"`)}
		for i := uint32(0); i < node.ChildCount(); i++ {
			clause := node.Child(int(i))
			if clause.Type() != "import_clause" {
				continue
			}
			for j := uint32(0); j < clause.ChildCount(); j++ {
				sub := clause.Child(int(j))
				switch sub.Type() {
				case "identifier":
					imp.Names = append(imp.Names, nodeText(sub, src))
				case "named_imports":
					for k := uint32(0); k < sub.ChildCount(); k++ {
						spec := sub.Child(int(k))
						if spec.Type() == "import_specifier" {
							if name := spec.ChildByFieldName("name"); name != nil {
								imp.Names = append(imp.Names, nodeText(name, src))
							}
						}
					}
				}
			}
		}
		fp.Imports = append(fp.Imports, imp)
		return
	}
	for i := uint32(0); i < node.ChildCount(); i++ {
		extractScriptImports(node.Child(int(i)), src, fp)
	}
}
