package analyze

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"prism/internal/errors"
	"prism/internal/graph"
)

// defaultLevels maps well-known path segment stems to abstraction levels.
// Any segment of a path can trigger a match; the first hit wins.
var defaultLevels = map[string]int{
	"models":  graph.LevelCode,
	"types":   graph.LevelCode,
	"schemas": graph.LevelCode,

	"services": graph.LevelComponent,
	"utils":    graph.LevelComponent,
	"hooks":    graph.LevelComponent,
	"lib":      graph.LevelComponent,

	"api":        graph.LevelContainer,
	"routes":     graph.LevelContainer,
	"components": graph.LevelContainer,
	"views":      graph.LevelContainer,

	"main":  graph.LevelSystem,
	"app":   graph.LevelSystem,
	"index": graph.LevelSystem,
}

var sourceExtensions = []string{".py", ".ts", ".tsx", ".js", ".jsx", ".go"}

// LayerTable resolves repo paths to abstraction levels. Entries loaded from
// a LAYERS.toml file override the built-in heuristics per segment stem.
type LayerTable struct {
	levels map[string]int
}

// NewLayerTable returns a table with the built-in heuristics only.
func NewLayerTable() *LayerTable {
	levels := make(map[string]int, len(defaultLevels))
	for k, v := range defaultLevels {
		levels[k] = v
	}
	return &LayerTable{levels: levels}
}

type layersFile struct {
	Levels map[string]int `toml:"levels"`
}

// LoadLayerTable reads overrides from path when it exists. A missing file
// is not an error; a malformed one is.
func LoadLayerTable(path string) (*LayerTable, error) {
	t := NewLayerTable()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return t, nil
	}
	if err != nil {
		return nil, err
	}

	var lf layersFile
	if err := toml.Unmarshal(data, &lf); err != nil {
		return nil, errors.NewPrismError(errors.ParseError, "invalid layers file: "+path, err)
	}
	for stem, level := range lf.Levels {
		if level < graph.LevelCode || level > graph.LevelSystem {
			return nil, errors.NewPrismError(errors.ParseError,
				"layers file maps "+stem+" outside levels 0..3", nil)
		}
		t.levels[strings.ToLower(stem)] = level
	}
	return t, nil
}

// Level returns the abstraction level for a slash-separated repo path by
// scanning its segments outermost-first. Paths with no known segment land
// at the component level.
func (t *LayerTable) Level(path string) int {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		stem := part
		for _, ext := range sourceExtensions {
			stem = strings.TrimSuffix(stem, ext)
		}
		if level, ok := t.levels[stem]; ok {
			return level
		}
	}
	return graph.LevelComponent
}
