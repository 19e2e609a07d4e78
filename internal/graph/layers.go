package graph

import "fmt"

// Layer is an architectural tier label (C1 coarsest .. C4 code level).
type Layer string

const (
	LayerC1 Layer = "C1"
	LayerC2 Layer = "C2"
	LayerC3 Layer = "C3"
	LayerC4 Layer = "C4"
)

// Abstraction levels corresponding to the C1..C4 tiers. Only levels at or
// above LevelComponent appear in diff output.
const (
	LevelCode      = 0 // C4
	LevelComponent = 1 // C3
	LevelContainer = 2 // C2
	LevelSystem    = 3 // C1
)

var layerToLevel = map[Layer]int{
	LayerC1: LevelSystem,
	LayerC2: LevelContainer,
	LayerC3: LevelComponent,
	LayerC4: LevelCode,
}

// LayerLevel maps a tier label to its abstraction level.
func LayerLevel(l Layer) (int, error) {
	level, ok := layerToLevel[l]
	if !ok {
		return 0, fmt.Errorf("unknown layer %q", l)
	}
	return level, nil
}

// DiffVisible reports whether a node at the given abstraction level belongs
// in diff output. Code-level entities are always excluded.
func DiffVisible(level int) bool {
	return level >= LevelComponent
}
