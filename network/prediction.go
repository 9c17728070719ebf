package network

import (
	"github.com/automoto/breakaway-mp/shared/collision"
	"github.com/automoto/breakaway-mp/shared/messages"
	"github.com/automoto/breakaway-mp/shared/movement"
	"github.com/automoto/breakaway-mp/shared/netcomponents"
	"github.com/automoto/breakaway-mp/shared/relic"
	"github.com/automoto/breakaway-mp/shared/settings"
	"github.com/go-gl/mathgl/mgl64"
)

// MessageSender delivers a message to the server. *Client implements it.
type MessageSender interface {
	SendMessage(msg any) error
}

// MoveSender ships packed move batches as ServerMovePacked.
func MoveSender(s MessageSender) movement.Sender {
	return func(bits []byte, numBits uint32) error {
		return s.SendMessage(messages.ServerMovePacked{Bits: bits, NumBits: numBits})
	}
}

// RelicSender ships relic requests, tagged with the team the client thinks it
// is on.
func RelicSender(s MessageSender, team func() int) relic.RequestSender {
	return func(kind relic.Request, key uint32) error {
		return s.SendMessage(messages.RelicRequest{Kind: uint8(kind), PredictionKey: key, Team: team()})
	}
}

// Prediction owns the local player's predicted movement and relic view, plus
// the remote characters the relic can attach to.
type Prediction struct {
	Predictor *movement.Predictor
	Relic     *relic.ClientRelic
	Self      *relic.Character
	Watchdog  *relic.Watchdog

	world   collision.Query
	roster  relic.RosterMap
	remotes map[relic.ID]*relic.Character
	synced  bool
}

// NewPrediction builds prediction for the player with network id local,
// standing at spawn until the first server state arrives.
func NewPrediction(world collision.Query, local relic.ID, team int, spawn mgl64.Vec3, s MessageSender) *Prediction {
	char := movement.NewCharacter(world, &settings.Movement, spawn)
	self := &relic.Character{NetID: local, TeamID: team, Char: char, SocketOffset: settings.Relic.SocketOffset}
	p := &Prediction{
		Predictor: movement.NewPredictor(char, MoveSender(s)),
		Self:      self,
		world:     world,
		roster:    relic.RosterMap{},
		remotes:   make(map[relic.ID]*relic.Character),
	}
	p.roster.Add(self)
	p.Relic = relic.NewClientRelic(&settings.Relic, world, p.roster, local, RelicSender(s, func() int { return p.Self.TeamID }))
	p.Watchdog = relic.NewClientWatchdog(&settings.Watchdog, p.Relic)
	return p
}

// Tick simulates one frame of local input and moves the relic view. A view
// the watchdog flags is only logged; the server recovers the relic.
func (p *Prediction) Tick(in movement.Input, dt float64) {
	p.Predictor.Tick(in, dt)
	p.followAuthority(func() { p.Relic.Tick(dt) })
	p.Watchdog.Check()
}

// followAuthority runs fn, which may change the local carrier modifiers to
// match the server. The server applied that change after the last move it
// acknowledged, so the unacknowledged moves take the new modifiers.
func (p *Prediction) followAuthority(fn func()) {
	before := p.Self.Char.Effects()
	fn()
	if !p.Self.Char.Effects().Equal(before) {
		p.Predictor.RestampEffects()
	}
}

// Synced reports whether the server state for the local player has arrived.
func (p *Prediction) Synced() bool { return p.synced }

// ApplyLocal reconciles the replicated state of the local player. The first
// state is taken as is; later ones replay pending moves when the server
// flagged a correction. It reports whether the position was corrected.
func (p *Prediction) ApplyLocal(d netcomponents.NetCharacterData) bool {
	p.Self.TeamID = d.Team
	if !p.synced {
		p.synced = true
		p.Predictor.Char.State = d.Move.State()
		p.Predictor.Reconcile(d.Ack, d.Correction, d.Move)
		return true
	}
	return p.Predictor.Reconcile(d.Ack, d.Correction, d.Move)
}

// ApplyRemote updates (or adds) a remote character from its replicated state.
func (p *Prediction) ApplyRemote(id relic.ID, d netcomponents.NetCharacterData) *relic.Character {
	c, ok := p.remotes[id]
	if !ok {
		char := movement.NewCharacter(p.world, &settings.Movement, d.Move.Position)
		char.Name = d.Name
		c = &relic.Character{NetID: id, Char: char, SocketOffset: settings.Relic.SocketOffset}
		p.remotes[id] = c
		p.roster.Add(c)
	}
	c.TeamID = d.Team
	c.Char.State = d.Move.State()
	return c
}

// Remote returns the remote character with id.
func (p *Prediction) Remote(id relic.ID) (*relic.Character, bool) {
	c, ok := p.remotes[id]
	return c, ok
}

// Forget drops remote characters whose ids are not in present.
func (p *Prediction) Forget(present func(relic.ID) bool) {
	for id := range p.remotes {
		if !present(id) {
			delete(p.remotes, id)
			delete(p.roster, id)
		}
	}
}

// ApplyRelic reconciles the relic view. resolvedKey is the last prediction
// key the server answered for this client.
func (p *Prediction) ApplyRelic(d netcomponents.NetRelicData, resolvedKey uint32) {
	p.followAuthority(func() { p.Relic.ApplyServerState(d.Snapshot(resolvedKey)) })
}

// Interact picks the relic up, or drops it when the local player carries it.
// Moves simulated so far are sent first, so the server applies the carrier
// modifiers at the same move the client does.
func (p *Prediction) Interact() bool {
	if p.Relic.DisplayState() == relic.Carried && p.Relic.Attached() == p.Self.NetID {
		p.Predictor.Flush()
		return p.Relic.DropRelic()
	}
	if !p.Relic.InPickupRange(p.Self) {
		return false
	}
	p.Predictor.Flush()
	return p.Relic.TryPickup(p.Self)
}

// Throw throws the relic when the local player carries it.
func (p *Prediction) Throw() bool {
	p.Predictor.Flush()
	return p.Relic.ThrowRelic()
}
