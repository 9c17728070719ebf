package movement

import (
	"log"
	"math"
	"slices"

	"github.com/automoto/breakaway-mp/shared/collision"
	"github.com/automoto/breakaway-mp/shared/gamemath"
	"github.com/automoto/breakaway-mp/shared/settings"
	"github.com/go-gl/mathgl/mgl64"
)

// Role says which copy of a character this simulator drives.
type Role uint8

const (
	// RoleStandalone simulates a locally controlled character with authority
	// (bots, tests, listen hosts).
	RoleStandalone Role = iota
	// RoleAutonomous predicts the local player on a client.
	RoleAutonomous
	// RoleAuthority replays a remote client's moves on the server.
	RoleAuthority
)

// Ability tags a modifier can block.
const (
	AbilityDash    = "Ability.Dash"
	AbilityWallRun = "Ability.WallRun"
)

// Extensions are the hooks the movement core exposes to mode strategies.
type Extensions struct {
	PreMove  []func(c *Character)
	PostMove []func(c *Character)
	MaxSpeed []func(c *Character) (float64, bool)
	Braking  []func(c *Character) (float64, bool)
	Custom   map[ModeID]func(c *Character, dt float64, iterations int)
}

// Strategy installs a movement mode into a character's extension points.
type Strategy interface {
	Install(ext *Extensions)
}

// DefaultStrategies returns slide, dash and wall run in the order their
// pre-move hooks must run.
func DefaultStrategies() []Strategy {
	return []Strategy{dashStrategy{}, slideStrategy{}, wallRunStrategy{}}
}

// ModifierHandle identifies an applied modifier.
type ModifierHandle uint32

// Modifier changes movement while applied, for example while carrying the
// relic.
type Modifier struct {
	SpeedMultiplier float64
	Blocked         []string
}

// Character is the per-character movement simulator.
type Character struct {
	State State
	Role  Role
	Name  string

	cfg   *settings.MovementConfig
	world collision.Query
	ext   Extensions

	modifiers  map[ModifierHandle]Modifier
	nextHandle ModifierHandle
	replay     *Effects

	// OnSuspectedCheat is called when the authority refuses a move that the
	// client should never have sent.
	OnSuspectedCheat func(reason string)

	input        Input
	rootThisTick bool
}

// NewCharacter builds a walking character at spawn. Strategies default to
// DefaultStrategies when none are given.
func NewCharacter(world collision.Query, cfg *settings.MovementConfig, spawn mgl64.Vec3, strategies ...Strategy) *Character {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	c := &Character{
		State:     NewState(spawn),
		cfg:       cfg,
		world:     world,
		ext:       Extensions{Custom: map[ModeID]func(*Character, float64, int){}},
		modifiers: map[ModifierHandle]Modifier{},
	}
	for _, s := range strategies {
		s.Install(&c.ext)
	}
	c.findFloor()
	return c
}

func (c *Character) Config() *settings.MovementConfig { return c.cfg }
func (c *Character) World() collision.Query           { return c.world }

// Move advances the simulation by one input tick. Ticks shorter than
// MinTickTime are skipped entirely.
func (c *Character) Move(in Input, dt float64) {
	if dt < c.cfg.MinTickTime {
		return
	}
	s := &c.State
	c.input = in
	s.Time += dt

	if IsMovingOnGround(s.Mode) {
		c.findFloor()
	}
	c.applyInput(in)
	c.checkJump(in.Flags.Has(FlagJump))
	for _, fn := range c.ext.PreMove {
		fn(c)
	}
	c.updateCrouch(in.Flags.Has(FlagCrouch) || s.Mode.ID() == ModeSliding)

	c.rootThisTick = s.RootMotion.Active()
	c.startNewPhysics(dt, 0)

	rootEnded := false
	if c.rootThisTick {
		s.RootMotion.Remaining -= dt
		if s.RootMotion.Remaining <= 0 {
			s.RootMotion = RootMotion{}
			rootEnded = true
		}
	}
	if rootEnded {
		s.TransitionFinished = true
	}
	for _, fn := range c.ext.PostMove {
		fn(c)
	}
	s.HadAnimRootMotion = s.RootMotion.Active()
	s.PrevWantsToCrouch = in.Flags.Has(FlagCrouch)
}

func (c *Character) applyInput(in Input) {
	s := &c.State
	s.Acceleration = gamemath.ClampMaxSize(in.Acceleration, c.cfg.MaxAcceleration)
	s.WantsToSprint = in.Flags.Has(FlagSprint)
	s.WantsToDash = in.Flags.Has(FlagDash)

	if _, ok := s.Mode.(WallRunning); ok {
		if f := gamemath.SafeNormal2D(s.Velocity); f != (mgl64.Vec3{}) {
			s.Facing = f
		}
		return
	}
	if f := gamemath.SafeNormal2D(s.Acceleration); f != (mgl64.Vec3{}) {
		s.Facing = f
	}
}

// startNewPhysics runs the physics of the current mode. Modes that change
// mode part way through call it again with the time they have left.
func (c *Character) startNewPhysics(dt float64, iterations int) {
	if dt < c.cfg.MinTickTime || iterations >= c.cfg.MaxSimulationIterations {
		return
	}
	switch c.State.Mode.(type) {
	case Walking:
		c.physWalking(dt, iterations)
	case Falling:
		c.physFalling(dt, iterations)
	case Flying:
		c.physFlying(dt, iterations)
	default:
		if fn, ok := c.ext.Custom[c.State.Mode.ID()]; ok {
			fn(c, dt, iterations)
			return
		}
		log.Printf("[movement] Warning: no physics for mode %s, falling back to Falling", c.State.Mode)
		c.SetMode(Falling{})
		c.physFalling(dt, iterations)
	}
}

// SetMode switches mode and applies the entry rules of the new mode.
func (c *Character) SetMode(m Mode) {
	s := &c.State
	prev := s.Mode
	if prev == m {
		return
	}
	s.Mode = m
	switch m.(type) {
	case Walking:
		s.Velocity[2] = 0
		c.findFloor()
	case Falling:
		s.Floor = Floor{}
	case WallRunning:
		s.Floor = Floor{}
	}
}

// simTimeStep splits long ticks so fast modes do not tunnel.
func (c *Character) simTimeStep(remaining float64, iterations int) float64 {
	if remaining > c.cfg.MaxSimulationTimeStep && iterations < c.cfg.MaxSimulationIterations {
		return math.Min(c.cfg.MaxSimulationTimeStep, remaining*0.5)
	}
	return math.Max(c.cfg.MinTickTime, remaining)
}

// MaxSpeed is the speed input acceleration may reach in the current mode.
func (c *Character) MaxSpeed() float64 {
	speed := c.baseMaxSpeed()
	return speed * c.SpeedMultiplier()
}

func (c *Character) baseMaxSpeed() float64 {
	for _, fn := range c.ext.MaxSpeed {
		if v, ok := fn(c); ok {
			return v
		}
	}
	s := &c.State
	switch {
	case s.Crouched:
		return c.cfg.MaxWalkSpeedCrouched
	case s.WantsToSprint && s.Mode.ID() == ModeWalking:
		return c.cfg.MaxSprintSpeed
	default:
		return c.cfg.MaxWalkSpeed
	}
}

func (c *Character) brakingDeceleration() float64 {
	for _, fn := range c.ext.Braking {
		if v, ok := fn(c); ok {
			return v
		}
	}
	switch c.State.Mode.(type) {
	case Falling:
		return c.cfg.BrakingDecelFalling
	case Walking:
		return c.cfg.BrakingDecelWalking
	}
	return 0
}

// calcVelocity applies friction, braking and input acceleration to the
// current velocity.
func (c *Character) calcVelocity(dt, friction, brakingDecel float64, accel mgl64.Vec3) {
	s := &c.State
	maxSpeed := c.MaxSpeed()
	zeroAccel := accel.LenSqr() < gamemath.SmallNumber
	overMax := s.Velocity.LenSqr() > maxSpeed*maxSpeed*1.0001

	if zeroAccel || overMax {
		old := s.Velocity
		s.Velocity = gamemath.ApplyBraking(s.Velocity, dt, friction*c.cfg.BrakingFrictionFactor, brakingDecel, c.cfg.BrakingSubStepTime)
		// Do not brake below max speed while still pushing forward.
		if overMax && s.Velocity.LenSqr() < maxSpeed*maxSpeed && accel.Dot(old) > 0 {
			s.Velocity = gamemath.SafeNormal(old).Mul(maxSpeed)
		}
	} else {
		dir := gamemath.SafeNormal(accel)
		speed := s.Velocity.Len()
		s.Velocity = s.Velocity.Sub(s.Velocity.Sub(dir.Mul(speed)).Mul(math.Min(dt*friction, 1)))
	}

	if !zeroAccel {
		limit := math.Max(maxSpeed, s.Velocity.Len())
		s.Velocity = gamemath.ClampMaxSize(s.Velocity.Add(accel.Mul(dt)), limit)
	}
}

// AddModifier applies m until RemoveModifier is called with the handle.
func (c *Character) AddModifier(m Modifier) ModifierHandle {
	c.nextHandle++
	c.modifiers[c.nextHandle] = m
	return c.nextHandle
}

// RemoveModifier removes a modifier. Unknown handles are ignored.
func (c *Character) RemoveModifier(h ModifierHandle) {
	delete(c.modifiers, h)
}

// ClearModifiers removes every modifier.
func (c *Character) ClearModifiers() {
	clear(c.modifiers)
}

// Effects is the combined movement effect of the applied modifiers.
type Effects struct {
	SpeedMultiplier float64
	Blocked         []string
}

// Equal reports whether both effects change movement the same way.
func (e Effects) Equal(o Effects) bool {
	return e.speed() == o.speed() && slices.Equal(e.Blocked, o.Blocked)
}

func (e Effects) speed() float64 {
	if e.SpeedMultiplier > 0 {
		return e.SpeedMultiplier
	}
	return 1
}

// Effects combines the applied modifiers: speed multipliers multiply and
// blocked tags are merged and sorted.
func (c *Character) Effects() Effects {
	if c.replay != nil {
		return *c.replay
	}
	e := Effects{SpeedMultiplier: 1}
	for _, m := range c.modifiers {
		if m.SpeedMultiplier > 0 {
			e.SpeedMultiplier *= m.SpeedMultiplier
		}
		for _, b := range m.Blocked {
			if !slices.Contains(e.Blocked, b) {
				e.Blocked = append(e.Blocked, b)
			}
		}
	}
	slices.Sort(e.Blocked)
	return e
}

// withEffects runs fn with e in place of the applied modifiers. Replayed
// moves use it to see the modifiers they were first simulated with.
func (c *Character) withEffects(e Effects, fn func()) {
	c.replay = &e
	defer func() { c.replay = nil }()
	fn()
}

// SpeedMultiplier is the product of all applied speed multipliers.
func (c *Character) SpeedMultiplier() float64 {
	if c.replay != nil {
		return c.replay.speed()
	}
	mul := 1.0
	for _, m := range c.modifiers {
		if m.SpeedMultiplier > 0 {
			mul *= m.SpeedMultiplier
		}
	}
	return mul
}

// Blocks reports whether any applied modifier blocks the ability tag.
func (c *Character) Blocks(tag string) bool {
	if c.replay != nil {
		return slices.Contains(c.replay.Blocked, tag)
	}
	for _, m := range c.modifiers {
		if slices.Contains(m.Blocked, tag) {
			return true
		}
	}
	return false
}

func (c *Character) halfHeight() float64 {
	if c.State.Crouched {
		return c.cfg.CrouchedHalfHeight
	}
	return c.cfg.CapsuleHalfHeight
}

// Shape is the collision shape for the current crouch state.
func (c *Character) Shape() collision.Shape {
	return collision.Box(c.cfg.CapsuleRadius, c.halfHeight())
}

func (c *Character) isAuthorityProxy() bool { return c.Role == RoleAuthority }

func (c *Character) suspectedCheat(reason string) {
	log.Printf("[movement] Warning: client %s %s", c.Name, reason)
	if c.OnSuspectedCheat != nil {
		c.OnSuspectedCheat(reason)
	}
}
