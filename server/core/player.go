package core

import (
	"log"

	"github.com/automoto/breakaway-mp/shared/movement"
	"github.com/automoto/breakaway-mp/shared/netcomponents"
	"github.com/automoto/breakaway-mp/shared/relic"
	"github.com/automoto/breakaway-mp/shared/settings"
	"github.com/go-gl/mathgl/mgl64"
)

// Player holds per-client simulation state on the server. This is not a
// donburi component; it exists only on the server and is never synced
// directly. NetData derives the replicated view.
type Player struct {
	ID   relic.ID
	Name string
	Team int

	Char      *movement.Character
	Authority *movement.Authority
	Carrier   *relic.Character

	// Move packets received since the last tick, drained by the loop.
	queue []movement.MovePacket
	// Last relic prediction key answered for this client.
	relicKey uint32
}

func newPlayer(level *ServerLevel, id relic.ID, name string, team int, spawn mgl64.Vec3) *Player {
	char := movement.NewCharacter(level.World, &settings.Movement, spawn)
	char.Name = name
	p := &Player{
		ID:        id,
		Name:      name,
		Team:      team,
		Char:      char,
		Authority: movement.NewAuthority(char),
	}
	p.Carrier = &relic.Character{
		NetID:        id,
		TeamID:       team,
		Char:         char,
		SocketOffset: settings.Relic.SocketOffset,
	}
	return p
}

// enqueue buffers a move packet. When a client floods the server the oldest
// packets go first; the client replays whatever the ack skips.
func (p *Player) enqueue(pkt movement.MovePacket) {
	if limit := settings.Net.MaxQueuedMoves; limit > 0 && len(p.queue) >= limit {
		log.Printf("[server] Warning: move queue of %s full, dropping %d packets", p.Name, len(p.queue)-limit+1)
		p.queue = p.queue[len(p.queue)-limit+1:]
	}
	p.queue = append(p.queue, pkt)
}

// processMoves re-simulates every queued packet in arrival order and returns
// how many moves ran.
func (p *Player) processMoves() int {
	n := 0
	for _, pkt := range p.queue {
		n += p.Authority.Process(pkt)
	}
	clear(p.queue)
	p.queue = p.queue[:0]
	return n
}

// teleport moves the character somewhere its client cannot predict.
func (p *Player) teleport(pos mgl64.Vec3) {
	p.Char.State.Position = pos
	p.Char.State.Velocity = mgl64.Vec3{}
	p.Char.SetMode(movement.Falling{})
	p.Authority.ForceCorrection()
}

// NetData is the replicated view of the player.
func (p *Player) NetData() netcomponents.NetCharacterData {
	ack, correction := p.Authority.Ack()
	return netcomponents.NetCharacterData{
		Name:       p.Name,
		Team:       p.Team,
		Move:       p.Char.State.Snapshot(),
		Ack:        ack,
		Correction: correction,
		RelicKey:   p.relicKey,
	}
}
