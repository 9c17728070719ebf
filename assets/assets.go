package assets

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/automoto/breakaway-mp/shared/leveldata"
)

//go:embed all:levels
var assetFS embed.FS

// LevelsDir is the directory holding the bundled TMX arenas inside FS.
const LevelsDir = "levels"

// FS exposes the embedded assets for loaders that take an fs.FS.
func FS() fs.FS { return assetFS }

type LevelLoader struct {
	levels map[string]*leveldata.Arena
	names  []string
}

func NewLevelLoader() *LevelLoader {
	return &LevelLoader{}
}

// MustLoadLevels parses every bundled arena once and panics when none load,
// like any other missing embedded asset.
func (l *LevelLoader) MustLoadLevels() []string {
	if l.levels != nil {
		return l.names
	}
	levels, names, err := leveldata.LoadAllLevels(assetFS, LevelsDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to load levels: %v", err))
	}
	l.levels, l.names = levels, names
	return names
}

// MustLoadLevel returns a bundled arena by name.
func (l *LevelLoader) MustLoadLevel(name string) *leveldata.Arena {
	l.MustLoadLevels()
	arena, ok := l.levels[name]
	if !ok {
		panic(fmt.Sprintf("Unknown level %q (have %v)", name, l.names))
	}
	return arena
}
