package leveldata

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lafriks/go-tiled"
)

// LoadArena parses a TMX file. It takes an fs.FS so callers can pass embed.FS
// (client) or os.DirFS (server).
func LoadArena(fsys fs.FS, tmxPath string) (*Arena, error) {
	levelMap, err := tiled.LoadFile(tmxPath, tiled.WithFileSystem(fsys))
	if err != nil {
		return nil, fmt.Errorf("load TMX %s: %w", tmxPath, err)
	}

	arena := &Arena{
		Name:   strings.TrimSuffix(filepath.Base(tmxPath), ".tmx"),
		Width:  levelMap.Width * levelMap.TileWidth,
		Height: levelMap.Height * levelMap.TileHeight,
	}

	for _, og := range levelMap.ObjectGroups {
		switch og.Name {
		case "Geometry":
			for _, o := range og.Objects {
				bottom := o.Properties.GetFloat("bottom")
				top := o.Properties.GetFloat("top")
				if top <= bottom {
					return nil, fmt.Errorf("%s: block %d has top %.0f below bottom %.0f", tmxPath, o.ID, top, bottom)
				}
				arena.Blocks = append(arena.Blocks, Block{
					Min:  [3]float64{o.X, o.Y, bottom},
					Max:  [3]float64{o.X + o.Width, o.Y + o.Height, top},
					Rise: o.Properties.GetString("rise"),
				})
			}
		case "PlayerSpawn":
			for _, o := range og.Objects {
				arena.PlayerSpawns = append(arena.PlayerSpawns, PlayerSpawn{
					Pos:   [3]float64{o.X, o.Y, o.Properties.GetFloat("z")},
					Team:  o.Properties.GetInt("team"),
					Index: o.Properties.GetInt("spawnIndex"),
				})
			}
		case "RelicSpawn":
			for _, o := range og.Objects {
				arena.RelicSpawns = append(arena.RelicSpawns, [3]float64{o.X, o.Y, o.Properties.GetFloat("z")})
			}
		case "GoalZone":
			for _, o := range og.Objects {
				arena.Goals = append(arena.Goals, Goal{
					Name: o.Name,
					Team: o.Properties.GetInt("team"),
					Min:  [3]float64{o.X, o.Y, o.Properties.GetFloat("bottom")},
					Max:  [3]float64{o.X + o.Width, o.Y + o.Height, o.Properties.GetFloat("top")},
				})
			}
		}
	}

	if len(arena.RelicSpawns) == 0 {
		return nil, fmt.Errorf("%s: no relic spawns", tmxPath)
	}

	// Sort spawns by team then index for consistent assignment
	sort.SliceStable(arena.PlayerSpawns, func(i, j int) bool {
		a, b := arena.PlayerSpawns[i], arena.PlayerSpawns[j]
		if a.Team != b.Team {
			return a.Team < b.Team
		}
		return a.Index < b.Index
	})

	return arena, nil
}

// LoadAllLevels discovers all .tmx files in levelsDir within fsys, loads each
// arena, and returns a map keyed by stem name plus a sorted list of names.
func LoadAllLevels(fsys fs.FS, levelsDir string) (map[string]*Arena, []string, error) {
	pattern := levelsDir + "/*.tmx"
	matches, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, nil, fmt.Errorf("no .tmx files found in %s", levelsDir)
	}

	levels := make(map[string]*Arena, len(matches))
	names := make([]string, 0, len(matches))

	for _, path := range matches {
		arena, err := LoadArena(fsys, path)
		if err != nil {
			return nil, nil, fmt.Errorf("load %s: %w", path, err)
		}
		levels[arena.Name] = arena
		names = append(names, arena.Name)
	}

	sort.Strings(names)
	return levels, names, nil
}
