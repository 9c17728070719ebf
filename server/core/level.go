package core

import (
	"fmt"
	"log"
	"os"

	"github.com/automoto/breakaway-mp/shared/collision"
	"github.com/automoto/breakaway-mp/shared/leveldata"
	"github.com/automoto/breakaway-mp/shared/relic"
	"github.com/go-gl/mathgl/mgl64"
)

// ServerLevel holds the server's collision world and spawn data for a level.
type ServerLevel struct {
	Arena       *leveldata.Arena
	World       *collision.World
	Goals       []relic.GoalZone
	RelicSpawns []mgl64.Vec3
}

// NewServerLevel builds the collision world from a parsed arena.
func NewServerLevel(arena *leveldata.Arena) (*ServerLevel, error) {
	world, err := arena.CollisionWorld()
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", arena.Name, err)
	}

	log.Printf("[server] loaded level %s: %d blocks, %d player spawns, %d relic spawns, %d goals, %dx%d map",
		arena.Name, len(arena.Blocks), len(arena.PlayerSpawns), len(arena.RelicSpawns), len(arena.Goals),
		arena.Width, arena.Height)

	return &ServerLevel{
		Arena:       arena,
		World:       world,
		Goals:       arena.GoalZones(),
		RelicSpawns: arena.RelicSpawnPoints(),
	}, nil
}

// Spawn returns where the n-th player of team enters the level, falling back
// to the middle of the map above the floor.
func (l *ServerLevel) Spawn(team, n int) mgl64.Vec3 {
	if s, ok := l.Arena.SpawnFor(team, n); ok {
		return s.Pos
	}
	return mgl64.Vec3{float64(l.Arena.Width) / 2, float64(l.Arena.Height) / 2, 200}
}

// LoadAllServerLevels loads all .tmx levels from the given assets directory,
// returning a map of ServerLevel keyed by stem name plus a sorted name list.
func LoadAllServerLevels(assetsDir string) (map[string]*ServerLevel, []string, error) {
	arenas, names, err := leveldata.LoadAllLevels(os.DirFS(assetsDir), "levels")
	if err != nil {
		return nil, nil, fmt.Errorf("load all levels: %w", err)
	}

	levels := make(map[string]*ServerLevel, len(names))
	for _, name := range names {
		level, err := NewServerLevel(arenas[name])
		if err != nil {
			return nil, nil, err
		}
		levels[name] = level
	}

	return levels, names, nil
}
