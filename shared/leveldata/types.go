// Package leveldata provides TMX arena parsing shared between client and server.
// It has no dependencies on ebitengine or donburi, pure data only.
package leveldata

import (
	"github.com/automoto/breakaway-mp/shared/collision"
	"github.com/automoto/breakaway-mp/shared/relic"
	"github.com/go-gl/mathgl/mgl64"
)

// Arena holds everything the simulation needs from a TMX level file. TMX x and
// y map to world x and y; heights come from object properties.
type Arena struct {
	Name         string
	Width        int
	Height       int
	Blocks       []Block
	PlayerSpawns []PlayerSpawn
	RelicSpawns  [][3]float64
	Goals        []Goal
}

// Block is a solid box or ramp.
type Block struct {
	Min, Max [3]float64
	Rise     string // "", "+x", "-x", "+y", "-y"
}

// PlayerSpawn represents a player spawn location.
type PlayerSpawn struct {
	Pos   [3]float64
	Team  int
	Index int
}

// Goal is a team's scoring volume.
type Goal struct {
	Name     string
	Team     int
	Min, Max [3]float64
}

// CollisionWorld builds the static geometry of the arena.
func (a *Arena) CollisionWorld() (*collision.World, error) {
	blocks := make([]*collision.Block, 0, len(a.Blocks))
	for _, b := range a.Blocks {
		if b.Rise == "" {
			blocks = append(blocks, collision.NewBox(b.Min, b.Max))
			continue
		}
		ramp, err := collision.NewRamp(b.Min, b.Max, collision.Rise(b.Rise))
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, ramp)
	}
	return collision.NewWorld(blocks...), nil
}

func (a *Arena) GoalZones() []relic.GoalZone {
	zones := make([]relic.GoalZone, len(a.Goals))
	for i, g := range a.Goals {
		zones[i] = relic.GoalZone{Name: g.Name, Team: g.Team, Min: g.Min, Max: g.Max}
	}
	return zones
}

func (a *Arena) RelicSpawnPoints() []mgl64.Vec3 {
	points := make([]mgl64.Vec3, len(a.RelicSpawns))
	for i, p := range a.RelicSpawns {
		points[i] = p
	}
	return points
}

// SpawnFor returns the n-th spawn of team, wrapping around. ok is false when
// the team has no spawns.
func (a *Arena) SpawnFor(team, n int) (PlayerSpawn, bool) {
	var spawns []PlayerSpawn
	for _, s := range a.PlayerSpawns {
		if s.Team == team {
			spawns = append(spawns, s)
		}
	}
	if len(spawns) == 0 {
		return PlayerSpawn{}, false
	}
	return spawns[n%len(spawns)], true
}
