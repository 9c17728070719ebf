package components

import (
	"github.com/automoto/breakaway-mp/shared/collision"
	"github.com/automoto/breakaway-mp/shared/leveldata"
	"github.com/yohamta/donburi"
)

type LevelData struct {
	Name  string
	Arena *leveldata.Arena
	World *collision.World // Same geometry the server simulates against
}

var Level = donburi.NewComponentType[LevelData]()
