package relic

import (
	"log"

	"github.com/automoto/breakaway-mp/shared/collision"
	"github.com/automoto/breakaway-mp/shared/gamemath"
	"github.com/automoto/breakaway-mp/shared/movement"
	"github.com/automoto/breakaway-mp/shared/settings"
	"github.com/go-gl/mathgl/mgl64"
)

// Request is a client's ask to the authority.
type Request uint8

const (
	RequestPickup Request = iota + 1
	RequestDrop
	RequestThrow
)

func (r Request) String() string {
	switch r {
	case RequestPickup:
		return "pickup"
	case RequestDrop:
		return "drop"
	case RequestThrow:
		return "throw"
	}
	return "unknown"
}

// RequestSender delivers a request with its prediction key to the server.
type RequestSender func(kind Request, key uint32) error

// ClientRelic is a client's view of the relic. The state comes from
// replication; the local player's own pickups and drops are predicted and
// reconciled once the server answers or the prediction goes stale.
type ClientRelic struct {
	Machine *StateMachine
	Body    Body
	Ledger  *Ledger
	Smooth  *Smoother

	cfg    *settings.RelicConfig
	world  collision.Query
	roster Roster
	local  ID
	send   RequestSender
	now    float64

	auth       Snapshot
	predicting bool
	predicted  Prediction

	attached  ID
	effects   movement.ModifierHandle
	effectsOn ID

	corrections int
}

// NewClientRelic builds the view for the player with id local.
func NewClientRelic(cfg *settings.RelicConfig, world collision.Query, roster Roster, local ID, send RequestSender) *ClientRelic {
	c := &ClientRelic{
		Machine: NewStateMachine(cfg.EnableThrow),
		Body:    NewBody(cfg),
		Ledger:  NewLedger(),
		Smooth:  NewSmoother(cfg),
		cfg:     cfg,
		world:   world,
		roster:  roster,
		local:   local,
		send:    send,
		auth:    Snapshot{LastTeam: NoTeam},
	}
	c.Machine.Observe(c.handleReplicated)
	return c
}

func (c *ClientRelic) State() State         { return c.Machine.State() }
func (c *ClientRelic) Attached() ID         { return c.attached }
func (c *ClientRelic) Predicting() bool     { return c.predicting }
func (c *ClientRelic) Corrections() int     { return c.corrections }
func (c *ClientRelic) Position() mgl64.Vec3 { return c.Body.Position }

// DisplayState is the predicted state while a prediction is in flight and the
// replicated state otherwise.
func (c *ClientRelic) DisplayState() State {
	if c.predicting {
		return c.predicted.State
	}
	return c.Machine.State()
}

// InPickupRange reports whether who is close enough to the displayed relic
// to ask for it.
func (c *ClientRelic) InPickupRange(who Carrier) bool {
	return inPickupRange(c.Body.Position, who, c.cfg.PickupRadius)
}

func (c *ClientRelic) available() bool {
	if c.predicting {
		return false
	}
	switch c.Machine.State() {
	case Neutral, Dropped:
		return true
	case Thrown:
		return c.Machine.ThrowEnabled()
	}
	return false
}

// TryPickup predicts the local player's pickup and asks the server for it.
// Requests always act on the sender, so other characters are refused.
func (c *ClientRelic) TryPickup(who Carrier) bool {
	if who == nil || who.CarrierID() != c.local || !c.available() {
		return false
	}
	key := c.predict(Carried, c.local)
	c.Smooth.StartAttach(c.Body.Position)
	c.attach(c.local)
	c.request(RequestPickup, key)
	return true
}

// DropRelic predicts the local carrier letting go.
func (c *ClientRelic) DropRelic() bool {
	if c.predicting || c.Machine.State() != Carried || c.Machine.Carrier() != c.local {
		return false
	}
	key := c.predict(Dropped, 0)
	c.detach(true)
	toss := mgl64.Vec3(c.cfg.DropImpulse).Mul(c.cfg.DropImpulseMultiplier)
	c.Body.AddImpulse(toss, true)
	c.request(RequestDrop, key)
	return true
}

// ThrowRelic predicts the local carrier throwing the relic.
func (c *ClientRelic) ThrowRelic() bool {
	if c.predicting || !c.Machine.ThrowEnabled() || c.Machine.State() != Carried || c.Machine.Carrier() != c.local {
		return false
	}
	who, ok := c.roster.Carrier(c.local)
	if !ok {
		return false
	}
	key := c.predict(Thrown, 0)
	c.detach(true)
	launch := gamemath.LaunchVelocity(who.Facing(), c.cfg.ThrowVelocity, c.cfg.ThrowAngle)
	c.Body.AddImpulse(launch.Add(gamemath.Horizontal(who.Velocity())), true)
	c.request(RequestThrow, key)
	return true
}

func (c *ClientRelic) predict(state State, carrier ID) uint32 {
	key := c.Ledger.NextKey()
	c.Ledger.AddPrediction(key, state, carrier, c.now)
	c.predicted = Prediction{Key: key, State: state, Carrier: carrier, Timestamp: c.now}
	c.predicting = true
	return key
}

func (c *ClientRelic) request(kind Request, key uint32) {
	if c.send == nil {
		return
	}
	if err := c.send(kind, key); err != nil {
		log.Printf("[relic] Warning: %s request %d not sent: %v", kind, key, err)
	}
}

// ApplyServerState takes a replicated snapshot.
func (c *ClientRelic) ApplyServerState(snap Snapshot) {
	c.auth = snap
	c.Machine.ApplyReplicated(snap)
	if !c.predicting && snap.State.simulatesPhysics() {
		c.Body.Position = snap.Position
		c.Body.Velocity = snap.Velocity
	}
	c.reconcile()
}

// Tick reconciles predictions and moves the displayed relic.
func (c *ClientRelic) Tick(dt float64) {
	c.now += dt
	c.Machine.Update(dt)
	c.reconcile()
	if c.Ledger.ClearStaleData(c.now, c.cfg.PredictionStaleAge) > 0 && c.predicting {
		if _, ok := c.Ledger.Get(c.predicted.Key); !ok {
			log.Printf("[relic] Warning: prediction %d went stale", c.predicted.Key)
			c.predicting = false
			c.correct()
		}
	}

	switch {
	case c.attached != 0:
		who, ok := c.roster.Carrier(c.attached)
		if !ok {
			break
		}
		if c.attached == c.local {
			c.Body.Position = c.Smooth.Attach(who.Socket(), dt)
		} else {
			c.Body.Position, _ = c.Smooth.Follow(c.Body.Position, who.Socket(), who.Velocity(), dt)
		}
	case c.Body.Simulating:
		c.Body.Step(c.world, dt)
	}
}

// reconcile compares the in-flight prediction with the authority. A match
// confirms it silently; a mismatch after the server answered the request
// replays the authoritative state.
func (c *ClientRelic) reconcile() {
	if !c.predicting {
		return
	}
	p := c.predicted
	if c.auth.State == p.State && (p.State != Carried || c.auth.Carrier == p.Carrier) {
		c.Ledger.ConfirmPrediction(p.Key)
		c.predicting = false
		return
	}
	if !keyAnswered(c.auth.ResolvedKey, p.Key) {
		return
	}
	c.Ledger.RejectPrediction(p.Key, c.auth.State, c.auth.Carrier)
	c.predicting = false
	c.correct()
}

// keyAnswered reports whether resolved is at or past key, allowing for wrap.
func keyAnswered(resolved, key uint32) bool {
	return resolved != 0 && int32(resolved-key) >= 0
}

// correct puts the view back on the authoritative state.
func (c *ClientRelic) correct() {
	c.corrections++
	if c.auth.State == Carried && c.auth.Carrier != 0 {
		if c.attached != c.auth.Carrier {
			c.Smooth.StartAttach(c.Body.Position)
		}
		c.attach(c.auth.Carrier)
		return
	}
	c.detach(c.auth.State.simulatesPhysics())
	c.Body.Position = c.auth.Position
	c.Body.Velocity = c.auth.Velocity
}

// handleReplicated follows authoritative transitions while nothing is being
// predicted; during a prediction the predicted view stays until reconcile.
func (c *ClientRelic) handleReplicated(t Transition) {
	if c.predicting {
		return
	}
	if t.To == Carried {
		if c.attached != t.Carrier {
			c.Smooth.StartAttach(c.Body.Position)
		}
		c.attach(t.Carrier)
		return
	}
	c.detach(t.To.simulatesPhysics())
	c.Body.Position = c.auth.Position
}

func (c *ClientRelic) attach(carrier ID) {
	c.attached = carrier
	c.Body.SetSimulating(false)
	c.syncEffects()
}

func (c *ClientRelic) detach(physics bool) {
	c.attached = 0
	c.Body.SetSimulating(physics)
	c.syncEffects()
}

// syncEffects keeps the carrier modifier on the local character exactly
// while the relic is attached to it, so movement prediction matches the
// server.
func (c *ClientRelic) syncEffects() {
	want := c.attached == c.local && c.local != 0
	if want == (c.effectsOn != 0) {
		return
	}
	if want {
		who, ok := c.roster.Carrier(c.local)
		if !ok {
			return
		}
		c.effects = who.AddModifier(movement.Modifier{
			SpeedMultiplier: c.cfg.CarrierSpeedModifier,
			Blocked:         c.cfg.RestrictWhileCarrying,
		})
		c.effectsOn = c.local
		return
	}
	if who, ok := c.roster.Carrier(c.effectsOn); ok {
		who.RemoveModifier(c.effects)
	}
	c.effectsOn = 0
}
