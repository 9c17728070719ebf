package netcomponents

import (
	"github.com/automoto/breakaway-mp/shared/movement"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi"
)

type NetCharacterData struct {
	Name       string
	Team       int
	Move       movement.Snapshot
	Ack        uint32 // Last move sequence simulated by the server
	Correction uint32 // Bumped whenever the owning client must replay from Move
	RelicKey   uint32 // Last relic prediction key the server answered for this client
	IsLocal    bool   // Client-side only, not synced
}

var NetCharacter = donburi.NewComponentType[NetCharacterData]()

func (d *NetCharacterData) Position() mgl64.Vec3 { return d.Move.Position }

// LerpNetCharacter interpolates the position of a remote character; everything
// else snaps to the newer state.
func LerpNetCharacter(from, to NetCharacterData, t float64) *NetCharacterData {
	out := to
	for i := range out.Move.Position {
		out.Move.Position[i] = from.Move.Position[i] + (to.Move.Position[i]-from.Move.Position[i])*t
	}
	return &out
}
