package movement

import (
	"math"

	"github.com/automoto/breakaway-mp/shared/collision"
	"github.com/automoto/breakaway-mp/shared/gamemath"
	"github.com/go-gl/mathgl/mgl64"
)

// wallRunStrategy adds WallRunning, entered from Falling next to a wall.
type wallRunStrategy struct{}

func (wallRunStrategy) Install(ext *Extensions) {
	ext.PreMove = append(ext.PreMove, func(c *Character) {
		if c.State.Mode.ID() == ModeFalling {
			c.TryWallRun()
		}
	})
	ext.Custom[ModeWallRunning] = physWallRun
	ext.MaxSpeed = append(ext.MaxSpeed, func(c *Character) (float64, bool) {
		if c.State.Mode.ID() == ModeWallRunning {
			return c.cfg.MaxWallRunSpeed, true
		}
		return 0, false
	})
	ext.Braking = append(ext.Braking, func(c *Character) (float64, bool) {
		if c.State.Mode.ID() == ModeWallRunning {
			return 0, true
		}
		return 0, false
	})
}

func (c *Character) canWallRun() bool {
	return c.cfg.EnableWallRun && !c.Blocks(AbilityWallRun)
}

// wallSide returns the sideways cast offset for the given side.
func (c *Character) wallSide(right bool) mgl64.Vec3 {
	side := gamemath.RightOf(c.State.Facing)
	if !right {
		side = side.Mul(-1)
	}
	return side.Mul(c.cfg.CapsuleRadius * 2)
}

// TryWallRun starts a wall run when falling fast enough beside a wall that
// faces against the velocity. The left side is tried first.
func (c *Character) TryWallRun() bool {
	s := &c.State
	if !c.canWallRun() || s.Mode.ID() != ModeFalling {
		return false
	}
	minSpeed := c.cfg.MinWallRunSpeed
	if gamemath.SizeSquared2D(s.Velocity) < minSpeed*minSpeed {
		return false
	}
	if s.Velocity[2] < -c.cfg.MaxVerticalWallRunSpeed {
		return false
	}
	below := s.Position.Sub(gamemath.Up.Mul(c.halfHeight() + c.cfg.MinWallRunHeight))
	if c.world.Test(collision.Ray(), s.Position, below) {
		return false
	}

	var hit collision.Hit
	right := false
	for _, r := range []bool{false, true} {
		h := c.world.Sweep(collision.Ray(), s.Position, s.Position.Add(c.wallSide(r)))
		if h.Blocking && s.Velocity.Dot(h.Normal) < 0 {
			hit, right = h, r
			break
		}
	}
	if !hit.Blocking {
		return false
	}

	projected := gamemath.PlaneProject(s.Velocity, hit.Normal)
	if gamemath.SizeSquared2D(projected) < minSpeed*minSpeed {
		return false
	}
	projected[2] = mgl64.Clamp(projected[2], 0, c.cfg.MaxVerticalWallRunSpeed)
	s.Velocity = projected
	s.WallNormal = hit.Normal
	c.SetMode(WallRunning{Right: right})
	return true
}

func physWallRun(c *Character, dt float64, iterations int) {
	s := &c.State
	if !c.canWallRun() {
		c.SetMode(Falling{})
		c.startNewPhysics(dt, iterations)
		return
	}
	mode, _ := s.Mode.(WallRunning)
	gravity := NewCurve(c.cfg.WallRunGravityCurve)
	minSpeed := c.cfg.MinWallRunSpeed
	pullAway := math.Sin(mgl64.DegToRad(c.cfg.WallRunPullAwayAngle))

	remaining := dt
	for remaining >= c.cfg.MinTickTime && iterations < c.cfg.MaxSimulationIterations {
		iterations++
		step := c.simTimeStep(remaining, iterations)
		remaining -= step
		oldLoc := s.Position

		wall := c.world.Sweep(collision.Ray(), s.Position, s.Position.Add(c.wallSide(mode.Right)))
		if !wall.Blocking || gamemath.SafeNormal(s.Acceleration).Dot(wall.Normal) > pullAway {
			c.SetMode(Falling{})
			c.startNewPhysics(remaining+step, iterations)
			return
		}
		n := wall.Normal
		s.WallNormal = n

		s.Acceleration = gamemath.PlaneProject(s.Acceleration, n)
		s.Acceleration[2] = 0
		c.calcVelocity(step, 0, 0, s.Acceleration)
		s.Velocity = gamemath.PlaneProject(s.Velocity, n)

		scale := 0.0
		if s.Velocity[2] <= 0 {
			scale = gamemath.SafeNormal(s.Acceleration).Dot(gamemath.SafeNormal2D(s.Velocity))
		}
		s.Velocity[2] += c.cfg.GravityZ * gravity.Eval(scale) * step

		if gamemath.SizeSquared2D(s.Velocity) < minSpeed*minSpeed || s.Velocity[2] < -c.cfg.MaxVerticalWallRunSpeed {
			c.SetMode(Falling{})
			c.startNewPhysics(remaining+step, iterations)
			return
		}

		delta := s.Velocity.Mul(step)
		if hit := c.safeMove(delta); hit.Blocking && !hit.StartPenetrating {
			c.slideAlongSurface(delta, 1-hit.Time, hit)
		}
		c.safeMove(n.Mul(-c.cfg.WallAttractionForce * step))

		if s.Position == oldLoc {
			break
		}
		s.Velocity = s.Position.Sub(oldLoc).Mul(1 / step)
	}

	below := s.Position.Sub(gamemath.Up.Mul(c.halfHeight() + c.cfg.MinWallRunHeight*0.5))
	wallGone := !c.world.Test(collision.Ray(), s.Position, s.Position.Add(c.wallSide(mode.Right)))
	slow := gamemath.SizeSquared2D(s.Velocity) < minSpeed*minSpeed
	if c.world.Test(collision.Ray(), s.Position, below) || wallGone || slow {
		c.SetMode(Falling{})
	}
}
