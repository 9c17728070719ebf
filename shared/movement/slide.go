package movement

import (
	"github.com/automoto/breakaway-mp/shared/collision"
	"github.com/automoto/breakaway-mp/shared/gamemath"
	"github.com/go-gl/mathgl/mgl64"
)

// slideStrategy adds the Slide mode: a crouched, low friction ground mode
// that gains speed down slopes and steers only sideways.
type slideStrategy struct{}

func (slideStrategy) Install(ext *Extensions) {
	ext.PreMove = append(ext.PreMove, slidePreMove)
	ext.Custom[ModeSliding] = physSlide
	ext.MaxSpeed = append(ext.MaxSpeed, func(c *Character) (float64, bool) {
		if c.State.Mode.ID() == ModeSliding {
			return c.cfg.MaxSlideSpeed, true
		}
		return 0, false
	})
	ext.Braking = append(ext.Braking, func(c *Character) (float64, bool) {
		if c.State.Mode.ID() == ModeSliding {
			return c.cfg.BrakingDecelSliding, true
		}
		return 0, false
	})
}

func slidePreMove(c *Character) {
	s := &c.State
	crouch := c.input.Flags.Has(FlagCrouch)
	switch s.Mode.(type) {
	case Walking:
		if crouch && !s.PrevWantsToCrouch {
			c.TryEnterSlide()
		}
	case Sliding:
		if !crouch {
			c.exitSlide()
		}
	}
}

// TryEnterSlide enters Slide when walking fast enough over a walkable floor.
// It reports whether the slide started.
func (c *Character) TryEnterSlide() bool {
	s := &c.State
	if s.Mode.ID() != ModeWalking {
		return false
	}
	if s.Time-s.LastSlideJumpTime < c.cfg.SlideJumpGrace {
		return false
	}
	if gamemath.Size2D(s.Velocity) < c.cfg.MinSpeedToEnterSlide {
		return false
	}
	if !c.CanSlide() {
		return false
	}
	s.Velocity = s.Velocity.Add(gamemath.SafeNormal2D(s.Velocity).Mul(c.cfg.SlideEnterBoost))
	c.SetMode(Sliding{})
	return true
}

func (c *Character) exitSlide() {
	c.SetMode(Walking{})
}

// CanSlide reports whether a walkable surface lies within the ledge probe
// distance below the character.
func (c *Character) CanSlide() bool {
	s := &c.State
	end := s.Position.Sub(gamemath.Up.Mul(c.halfHeight() * c.cfg.SlideLedgeProbeFactor))
	hit := c.world.Sweep(collision.Ray(), s.Position, end)
	return hit.Blocking && gamemath.IsWalkable(hit.Normal, c.cfg.WalkableFloorZ)
}

func physSlide(c *Character, dt float64, iterations int) {
	s := &c.State
	if !c.CanSlide() {
		c.SetMode(Falling{})
		c.startNewPhysics(dt, iterations)
		return
	}

	remaining := dt
	var checkedFall, triedLedgeMove bool
	for remaining >= c.cfg.MinTickTime && iterations < c.cfg.MaxSimulationIterations && s.Mode.ID() == ModeSliding {
		iterations++
		step := c.simTimeStep(remaining, iterations)
		remaining -= step

		oldLoc, oldFloor := s.Position, s.Floor
		s.Velocity[2] = 0

		// Slope gravity pushes along the downhill part of the floor normal.
		if s.Floor.Walkable {
			s.Velocity = s.Velocity.Add(gamemath.Horizontal(s.Floor.Normal).Mul(c.cfg.SlideGravityForce * step))
		}

		// Steering works across the slide direction only.
		if input := gamemath.SafeNormal2D(s.Acceleration); input != (mgl64.Vec3{}) {
			if dir := gamemath.SafeNormal2D(s.Velocity); dir != (mgl64.Vec3{}) {
				steer := gamemath.PlaneProject(input, dir)
				s.Velocity = s.Velocity.Add(steer.Mul(c.cfg.SlideDirectionalControlStrength * step))
			}
		}

		accel := gamemath.ProjectOnto(s.Acceleration, gamemath.RightOf(s.Facing))
		c.calcVelocity(step, c.cfg.GroundFriction*c.cfg.SlideFrictionFactor, c.brakingDeceleration(), accel)

		delta := s.Velocity.Mul(step)
		if gamemath.IsNearlyZero(delta, gamemath.SmallNumber) {
			remaining = 0
		} else {
			c.moveAlongFloor(s.Velocity, step)
			if s.Mode.ID() != ModeSliding {
				c.startNewPhysics(remaining, iterations)
				return
			}
		}
		c.findFloor()

		switch c.afterGroundMove(oldLoc, oldFloor, delta, step, &remaining, iterations, &triedLedgeMove, &checkedFall) {
		case groundFell, groundStop:
			return
		case groundRetry:
			continue
		}

		if s.Mode.ID() == ModeSliding && step >= c.cfg.MinTickTime {
			s.Velocity = s.Position.Sub(oldLoc).Mul(1 / step)
			s.Velocity[2] = 0
		}
		if s.Position == oldLoc {
			break
		}
	}

	if s.Mode.ID() == ModeSliding && gamemath.Size2D(s.Velocity) < c.cfg.MinSlideSpeed {
		c.exitSlide()
	}
}
