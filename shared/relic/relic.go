package relic

import (
	"log"
	"math/rand/v2"

	"github.com/automoto/breakaway-mp/shared/collision"
	"github.com/automoto/breakaway-mp/shared/gamemath"
	"github.com/automoto/breakaway-mp/shared/movement"
	"github.com/automoto/breakaway-mp/shared/settings"
	"github.com/automoto/breakaway-mp/shared/timer"
	"github.com/go-gl/mathgl/mgl64"
)

// repickDelay keeps auto pickup from handing the relic straight back to the
// character that just let go of it.
const repickDelay = 0.75

// Relic is the authoritative possession object. All methods run on the
// server's simulation goroutine.
type Relic struct {
	Machine *StateMachine
	Body    Body

	cfg    *settings.RelicConfig
	world  collision.Query
	timers *timer.Scheduler
	roster Roster
	rng    *rand.Rand

	spawns   []mgl64.Vec3
	spawnIdx int

	effects      movement.ModifierHandle
	effectsOn    ID
	effectsCount int

	activateTimer timer.Handle
	droppedTimer  timer.Handle
	scoringTimer  timer.Handle
	resetTimer    timer.Handle
	flightTimer   timer.Handle

	lastDropper ID

	// OnScore is called after a score is accepted, with the team that scored
	// and the carrier that brought the relic in.
	OnScore func(team int, carrier ID)
	// OnTransition is called after every accepted transition.
	OnTransition func(Transition)
}

// NewRelic builds an Inactive relic. rng picks random spawns and may be nil
// when spawns are round-robin.
func NewRelic(cfg *settings.RelicConfig, world collision.Query, timers *timer.Scheduler, roster Roster, spawns []mgl64.Vec3, rng *rand.Rand) *Relic {
	r := &Relic{
		Machine: NewStateMachine(cfg.EnableThrow),
		Body:    NewBody(cfg),
		cfg:     cfg,
		world:   world,
		timers:  timers,
		roster:  roster,
		rng:     rng,
		spawns:  spawns,
	}
	r.Machine.Observe(r.handleStateChanged)
	return r
}

func (r *Relic) State() State { return r.Machine.State() }

// Carrier resolves the current carrier.
func (r *Relic) Carrier() (Carrier, bool) {
	id := r.Machine.Carrier()
	if id == 0 {
		return nil, false
	}
	return r.roster.Carrier(id)
}

// EffectApplications counts how many times carrier effects were applied.
func (r *Relic) EffectApplications() int { return r.effectsCount }

// Activate brings an Inactive relic into play after the activation delay.
func (r *Relic) Activate() {
	if r.Machine.State() != Inactive {
		return
	}
	if r.cfg.ActivationDelay <= 0 {
		r.Machine.RequestStateChange(Neutral, nil)
		return
	}
	r.timers.Cancel(&r.activateTimer)
	r.activateTimer = r.timers.Schedule(r.cfg.ActivationDelay, false, func() {
		r.Machine.RequestStateChange(Neutral, nil)
	})
}

// Deactivate takes the relic out of play.
func (r *Relic) Deactivate() bool {
	r.timers.Cancel(&r.activateTimer)
	return r.Machine.RequestStateChange(Inactive, nil)
}

// IsAvailableForPickup reports whether a pickup could currently succeed.
func (r *Relic) IsAvailableForPickup() bool {
	switch r.Machine.State() {
	case Neutral, Dropped:
		return true
	case Thrown:
		return r.Machine.ThrowEnabled()
	}
	return false
}

// TryPickup gives the relic to c.
func (r *Relic) TryPickup(c Carrier) bool {
	if c == nil || !r.IsAvailableForPickup() {
		return false
	}
	return r.Machine.RequestStateChange(Carried, c)
}

// InPickupRange reports whether c is within the pickup radius of the relic,
// measured to the vertical segment through the character.
func (r *Relic) InPickupRange(c Carrier) bool {
	return inPickupRange(r.Body.Position, c, r.cfg.PickupRadius)
}

func inPickupRange(at mgl64.Vec3, c Carrier, radius float64) bool {
	p, h := c.Position(), c.HalfHeight()
	z := mgl64.Clamp(at[2], p[2]-h, p[2]+h)
	closest := mgl64.Vec3{p[0], p[1], z}
	return closest.Sub(at).Len() <= radius
}

// CheckAutoPickup hands the relic to the first candidate in range when auto
// pickup is on. The character that just dropped it is skipped for a moment.
func (r *Relic) CheckAutoPickup(candidates []Carrier) bool {
	if !r.cfg.AutoPickup || !r.IsAvailableForPickup() {
		return false
	}
	for _, c := range candidates {
		if c.CarrierID() == r.lastDropper && r.Machine.TimeInState() < repickDelay {
			continue
		}
		if r.InPickupRange(c) && r.TryPickup(c) {
			return true
		}
	}
	return false
}

// DropRelic releases the relic with an upward toss. intentional is false for
// forced drops such as a carrier leaving.
func (r *Relic) DropRelic(intentional bool) bool {
	if r.Machine.State() != Carried {
		return false
	}
	dropper := r.Machine.Carrier()
	if !r.Machine.RequestStateChange(Dropped, nil) {
		return false
	}
	r.lastDropper = dropper
	toss := mgl64.Vec3(r.cfg.DropImpulse).Mul(r.cfg.DropImpulseMultiplier)
	r.Body.AddImpulse(toss, true)
	if !intentional {
		log.Printf("[relic] forced drop from carrier %d", dropper)
	}
	return true
}

// ThrowRelic launches the relic along the carrier's facing.
func (r *Relic) ThrowRelic() bool {
	if r.Machine.State() != Carried || !r.Machine.ThrowEnabled() {
		return false
	}
	c, ok := r.Carrier()
	if !ok {
		return false
	}
	if !r.Machine.RequestStateChange(Thrown, c) {
		return false
	}
	r.lastDropper = c.CarrierID()
	launch := gamemath.LaunchVelocity(c.Facing(), r.cfg.ThrowVelocity, r.cfg.ThrowAngle)
	r.Body.AddImpulse(launch.Add(gamemath.Horizontal(c.Velocity())), true)
	return true
}

// TryScore scores the carried relic into a zone owned by scoringTeam. It is
// refused when that team was the last to possess the relic.
func (r *Relic) TryScore(scoringTeam int) bool {
	if r.Machine.State() != Carried || r.Machine.LastTeam() == scoringTeam {
		return false
	}
	carrier, team := r.Machine.Carrier(), r.Machine.LastTeam()
	if !r.Machine.RequestStateChange(Scoring, nil) {
		return false
	}
	if r.OnScore != nil {
		r.OnScore(team, carrier)
	}
	return true
}

// ResetRelic sends the relic back to a spawn. From Scoring it goes through
// Resetting; from anywhere else it is hard reset through Inactive.
func (r *Relic) ResetRelic() bool {
	if r.Machine.CanTransitionTo(Resetting, nil) {
		return r.Machine.RequestStateChange(Resetting, nil)
	}
	if !r.Machine.RequestStateChange(Inactive, nil) {
		return false
	}
	return r.Machine.RequestStateChange(Neutral, nil)
}

// NextSpawnLocation picks a spawn: random or round-robin over the level's
// spawns, or the configured default when the level has none.
func (r *Relic) NextSpawnLocation() mgl64.Vec3 {
	if len(r.spawns) == 0 {
		return mgl64.Vec3(r.cfg.DefaultSpawnLocation)
	}
	if r.cfg.UseRandomSpawnLocation && r.rng != nil {
		return r.spawns[r.rng.IntN(len(r.spawns))]
	}
	if r.spawnIdx >= len(r.spawns) {
		r.spawnIdx = 0
	}
	p := r.spawns[r.spawnIdx]
	r.spawnIdx++
	return p
}

// Tick advances time in state, keeps a carried relic on its carrier's socket
// and simulates a free one. Timers are advanced by the owner of the
// scheduler.
func (r *Relic) Tick(dt float64) {
	r.Machine.Update(dt)
	if r.Machine.State() == Carried {
		if c, ok := r.Carrier(); ok {
			r.Body.Position = c.Socket()
			r.Body.Velocity = c.Velocity()
		}
		return
	}
	landed := r.Body.Step(r.world, dt)
	if landed && r.Machine.State() == Thrown {
		r.Machine.RequestStateChange(Dropped, nil)
	}
}

// Snapshot is the state replicated to clients. ResolvedKey is per client and
// left for the replication layer to fill in.
func (r *Relic) Snapshot() Snapshot {
	return Snapshot{
		State:       r.Machine.State(),
		Previous:    r.Machine.Previous(),
		Carrier:     r.Machine.Carrier(),
		LastTeam:    r.Machine.LastTeam(),
		TimeInState: r.Machine.TimeInState(),
		Position:    r.Body.Position,
		Velocity:    r.Body.Velocity,
	}
}

func (r *Relic) handleStateChanged(t Transition) {
	log.Printf("[relic] %s -> %s (carrier=%d)", t.From, t.To, t.Carrier)

	r.timers.Cancel(&r.droppedTimer)
	r.timers.Cancel(&r.scoringTimer)
	r.timers.Cancel(&r.resetTimer)
	r.timers.Cancel(&r.flightTimer)
	if t.From == Carried {
		r.removeEffects()
	}

	switch t.To {
	case Neutral:
		if t.From == Inactive {
			r.Body.Teleport(r.NextSpawnLocation())
		}
		r.Body.SetSimulating(true)
	case Carried:
		r.Body.SetSimulating(false)
		if c, ok := r.roster.Carrier(t.Carrier); ok {
			r.Body.Position = c.Socket()
			r.applyEffects(c)
		}
	case Dropped:
		r.Body.SetSimulating(true)
		r.droppedTimer = r.timers.Schedule(r.cfg.DroppedTimeout, false, func() {
			r.Machine.RequestStateChange(Neutral, nil)
		})
	case Thrown:
		r.Body.SetSimulating(true)
		r.flightTimer = r.timers.Schedule(r.cfg.ThrowFlightTime, false, func() {
			r.Machine.RequestStateChange(Dropped, nil)
		})
	case Scoring:
		r.Body.SetSimulating(false)
		r.scoringTimer = r.timers.Schedule(r.cfg.ScoringConfirmationDuration, false, func() {
			if r.Machine.State() == Scoring {
				r.ResetRelic()
			}
		})
	case Resetting:
		r.Body.SetSimulating(false)
		r.Body.Teleport(r.NextSpawnLocation())
		r.resetTimer = r.timers.Schedule(r.cfg.ResetDuration, false, func() {
			r.Machine.RequestStateChange(Neutral, nil)
		})
	case Inactive:
		r.Body.SetSimulating(false)
	}

	if r.OnTransition != nil {
		r.OnTransition(t)
	}
}

func (r *Relic) applyEffects(c Carrier) {
	r.effects = c.AddModifier(movement.Modifier{
		SpeedMultiplier: r.cfg.CarrierSpeedModifier,
		Blocked:         r.cfg.RestrictWhileCarrying,
	})
	r.effectsOn = c.CarrierID()
	r.effectsCount++
}

// removeEffects undoes applyEffects. A carrier that already left has nothing
// to remove.
func (r *Relic) removeEffects() {
	if r.effectsOn == 0 {
		return
	}
	if c, ok := r.roster.Carrier(r.effectsOn); ok {
		c.RemoveModifier(r.effects)
	}
	r.effectsOn = 0
}
