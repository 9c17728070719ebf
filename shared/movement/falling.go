package movement

import (
	"math"

	"github.com/automoto/breakaway-mp/shared/collision"
	"github.com/automoto/breakaway-mp/shared/gamemath"
)

func (c *Character) physFalling(dt float64, iterations int) {
	s := &c.State
	remaining := dt

	for remaining >= c.cfg.MinTickTime && iterations < c.cfg.MaxSimulationIterations {
		iterations++
		step := c.simTimeStep(remaining, iterations)
		remaining -= step

		oldLoc, oldV := s.Position, s.Velocity

		lateral := gamemath.Horizontal(s.Acceleration).Mul(c.cfg.AirControl)
		vz := s.Velocity[2]
		s.Velocity[2] = 0
		c.calcVelocity(step, c.cfg.FallingLateralFriction, c.brakingDeceleration(), lateral)
		s.Velocity[2] = math.Max(vz+c.cfg.GravityZ*step, -c.cfg.TerminalVelocity)

		adjusted := oldV.Add(s.Velocity).Mul(0.5 * step)
		hit := c.safeMove(adjusted)
		if hit.StartPenetrating {
			continue
		}
		if !hit.Blocking {
			continue
		}
		if c.isValidLandingSpot(hit) {
			remaining += step * (1 - hit.Time)
			c.processLanded(remaining, iterations)
			return
		}

		c.slideAlongSurface(adjusted, 1-hit.Time, hit)
		s.Velocity = s.Position.Sub(oldLoc).Mul(1 / step)
		if s.Velocity[2] <= 0 {
			c.findFloor()
			if s.Floor.Walkable {
				c.processLanded(remaining, iterations)
				return
			}
		}
	}
}

func (c *Character) isValidLandingSpot(hit collision.Hit) bool {
	return hit.Blocking && !hit.StartPenetrating &&
		gamemath.IsWalkable(hit.Normal, c.cfg.WalkableFloorZ) &&
		hit.Point[2] < c.State.Position[2]
}

func (c *Character) processLanded(remaining float64, iterations int) {
	c.SetMode(Walking{})
	c.startNewPhysics(remaining, iterations)
}

// physFlying moves with the root motion velocity when there is one, which is
// how dashes travel. Low obstacles are stepped over.
func (c *Character) physFlying(dt float64, iterations int) {
	s := &c.State
	if c.rootThisTick {
		s.Velocity = s.RootMotion.Velocity
	} else {
		c.calcVelocity(dt, c.cfg.GroundFriction, 0, s.Acceleration)
	}

	oldLoc := s.Position
	delta := s.Velocity.Mul(dt)
	hit := c.safeMove(delta)
	if hit.Blocking && !hit.StartPenetrating {
		stepped := false
		dir := gamemath.SafeNormal(s.Velocity)
		upDown := -dir[2]
		if math.Abs(hit.Normal[2]) < 0.2 && upDown < 0.5 && upDown > -0.2 && c.canStepUp(hit) {
			stepped = c.stepUp(delta.Mul(1-hit.Time), hit)
		}
		if !stepped {
			c.slideAlongSurface(delta, 1-hit.Time, hit)
		}
	}
	if !c.rootThisTick {
		s.Velocity = s.Position.Sub(oldLoc).Mul(1 / dt)
	}
}
