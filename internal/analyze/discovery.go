// Package analyze builds the architecture graph from a source tree. It is
// one of the two snapshot producers feeding the diff engine; the other is
// the plan engine's synthetic edit of an existing graph.
package analyze

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// SourceFile is one discovered source file, paths relative to the scan root.
type SourceFile struct {
	Path     string
	AbsPath  string
	Language string
}

var extensionMap = map[string]string{
	".py":  "python",
	".ts":  "typescript",
	".tsx": "typescriptreact",
	".js":  "javascript",
	".jsx": "javascriptreact",
	".go":  "go",
}

var skipDirs = map[string]struct{}{
	"node_modules": {},
	".git":         {},
	"__pycache__":  {},
	".venv":        {},
	"dist":         {},
	"vendor":       {},
	".prism":       {},
}

// DiscoverFiles walks root and returns every recognized source file in
// deterministic (path-sorted) order. ignoreGlobs are doublestar patterns
// matched against the relative path.
func DiscoverFiles(root string, ignoreGlobs []string) ([]SourceFile, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var files []SourceFile
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if _, skip := skipDirs[d.Name()]; skip && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		lang, ok := extensionMap[strings.ToLower(filepath.Ext(path))]
		if !ok {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		for _, pattern := range ignoreGlobs {
			if matched, _ := doublestar.Match(pattern, rel); matched {
				return nil
			}
		}

		files = append(files, SourceFile{Path: rel, AbsPath: path, Language: lang})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
