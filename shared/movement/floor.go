package movement

import (
	"math"

	"github.com/automoto/breakaway-mp/shared/collision"
	"github.com/automoto/breakaway-mp/shared/gamemath"
	"github.com/go-gl/mathgl/mgl64"
)

// The character hovers inside this band above its floor so that sliding
// along the floor never starts a sweep in contact with it.
const (
	minFloorDist = 1.9
	maxFloorDist = 2.4
	avgFloorDist = (minFloorDist + maxFloorDist) / 2

	ledgeCheckThreshold = 4.0
)

// findFloor probes below the character. Grounded modes probe a step height
// deeper so walking down stairs and ramps keeps contact.
func (c *Character) findFloor() {
	s := &c.State
	dist := c.cfg.FloorProbeDistance
	if IsMovingOnGround(s.Mode) {
		dist += c.cfg.MaxStepHeight
	}
	s.Floor = c.probeFloor(s.Position, dist)
	if s.Floor.Walkable && !IsMovingOnGround(s.Mode) && s.Floor.Distance > maxFloorDist {
		s.Floor.Walkable = false
	}
}

func (c *Character) probeFloor(p mgl64.Vec3, dist float64) Floor {
	hit := c.world.Sweep(c.Shape(), p, p.Sub(gamemath.Up.Mul(dist)))
	if !hit.Blocking {
		return Floor{}
	}
	f := Floor{
		Blocking: true,
		Normal:   hit.Normal,
		Walkable: gamemath.IsWalkable(hit.Normal, c.cfg.WalkableFloorZ),
	}
	if hit.StartPenetrating {
		f.Penetrating = true
		return f
	}
	f.Distance = hit.ContactDistance
	return f
}

// adjustFloorHeight keeps the character inside the floor distance band.
func (c *Character) adjustFloorHeight() {
	s := &c.State
	if !s.Floor.Walkable {
		return
	}
	d := s.Floor.Distance
	if d >= minFloorDist && d <= maxFloorDist {
		return
	}
	before := s.Position[2]
	c.safeMove(gamemath.Up.Mul(avgFloorDist - d))
	s.Floor.Distance = d + (s.Position[2] - before)
}

// safeMove sweeps the character by delta and stops at the first blocking hit.
// A move that starts inside geometry is pushed out and tried once more.
func (c *Character) safeMove(delta mgl64.Vec3) collision.Hit {
	s := &c.State
	shape := c.Shape()
	hit := c.world.Sweep(shape, s.Position, s.Position.Add(delta))
	if hit.StartPenetrating {
		if push, ok := c.world.Depenetrate(shape, s.Position); ok {
			s.Position = s.Position.Add(push)
			hit = c.world.Sweep(shape, s.Position, s.Position.Add(delta))
			if hit.StartPenetrating {
				return hit
			}
		} else {
			return hit
		}
	}
	s.Position = hit.Location
	return hit
}

// slideAlongSurface moves the remaining part of delta along the surface that
// stopped it, adjusting once more against a second wall. It returns the
// fraction of the slide that was applied.
func (c *Character) slideAlongSurface(delta mgl64.Vec3, timeLeft float64, hit collision.Hit) float64 {
	if !hit.Blocking {
		return 0
	}
	s := &c.State
	normal := hit.Normal
	if IsMovingOnGround(s.Mode) {
		// Never climb unwalkable slopes or get pushed into the floor.
		if normal[2] > 0 && !gamemath.IsWalkable(normal, c.cfg.WalkableFloorZ) {
			normal = gamemath.SafeNormal2D(normal)
		} else if normal[2] < 0 {
			normal = gamemath.SafeNormal2D(normal)
		}
	}

	slide := c.computeSlideVector(delta, timeLeft, normal)
	if slide.Dot(delta) <= 0 {
		return 0
	}
	second := c.safeMove(slide)
	applied := second.Time
	if second.Blocking {
		adjust := c.twoWallAdjust(slide, second, normal)
		if adjust != (mgl64.Vec3{}) && adjust.Dot(delta) > 0 {
			third := c.safeMove(adjust)
			applied += (1 - applied) * third.Time
		}
	}
	return math.Min(applied, 1) * timeLeft
}

func (c *Character) computeSlideVector(delta mgl64.Vec3, timeLeft float64, normal mgl64.Vec3) mgl64.Vec3 {
	result := gamemath.PlaneProject(delta, normal).Mul(timeLeft)
	if _, falling := c.State.Mode.(Falling); !falling || result[2] <= 0 {
		return result
	}
	// Do not boost up slopes faster than the original move went up.
	limit := delta[2] * timeLeft
	if result[2]-limit <= gamemath.SmallNumber {
		return result
	}
	var up mgl64.Vec3
	if limit > 0 {
		up = result.Mul(limit / result[2])
	}
	rest := gamemath.Horizontal(result.Sub(up))
	return up.Add(gamemath.PlaneProject(rest, gamemath.SafeNormal2D(normal)))
}

// twoWallAdjust redirects a slide that hit a second wall along the crease
// between the two walls, or along the second wall when they form an open
// angle.
func (c *Character) twoWallAdjust(delta mgl64.Vec3, hit collision.Hit, oldNormal mgl64.Vec3) mgl64.Vec3 {
	timeLeft := 1 - hit.Time
	n := hit.Normal
	if IsMovingOnGround(c.State.Mode) && n[2] < 0 {
		n = gamemath.SafeNormal2D(n)
	}
	if oldNormal.Dot(n) <= 0 {
		crease := gamemath.SafeNormal(oldNormal.Cross(n))
		out := crease.Mul(delta.Dot(crease) * timeLeft)
		if IsMovingOnGround(c.State.Mode) {
			out[2] = 0
		}
		return out
	}
	out := gamemath.PlaneProject(delta, n).Mul(timeLeft)
	if out.Dot(delta) <= 0 {
		return mgl64.Vec3{}
	}
	return out
}

// moveAlongFloor moves horizontally along the current floor, following ramps
// and stepping over low obstacles.
func (c *Character) moveAlongFloor(v mgl64.Vec3, dt float64) {
	s := &c.State
	if !s.Floor.Walkable {
		return
	}
	delta := gamemath.Horizontal(v).Mul(dt)
	hit := c.safeMove(c.groundMovementDelta(delta, s.Floor.Normal))
	applied := hit.Time

	if hit.StartPenetrating {
		c.slideAlongSurface(delta, 1, hit)
		return
	}
	if !hit.Blocking {
		return
	}
	if hit.Time > 0 && hit.Normal[2] > gamemath.SmallNumber && gamemath.IsWalkable(hit.Normal, c.cfg.WalkableFloorZ) {
		// Walked onto a ramp: continue along it.
		left := 1 - applied
		hit = c.safeMove(c.groundMovementDelta(delta.Mul(left), hit.Normal))
		applied = mgl64.Clamp(applied+hit.Time*left, 0, 1)
	}
	if !hit.Blocking {
		return
	}
	rest := delta.Mul(1 - applied)
	if c.canStepUp(hit) && c.stepUp(rest, hit) {
		return
	}
	c.slideAlongSurface(delta, 1-applied, hit)
}

// groundMovementDelta bends a horizontal delta so it follows a walkable ramp
// without changing its horizontal extent.
func (c *Character) groundMovementDelta(delta, floorNormal mgl64.Vec3) mgl64.Vec3 {
	n := floorNormal
	if n[2] < 1-gamemath.SmallNumber && n[2] > gamemath.SmallNumber && gamemath.IsWalkable(n, c.cfg.WalkableFloorZ) {
		return mgl64.Vec3{delta[0], delta[1], -n.Dot(delta) / n[2]}
	}
	return delta
}

func (c *Character) canStepUp(hit collision.Hit) bool {
	if c.cfg.MaxStepHeight <= 0 || hit.StartPenetrating || hit.Block == nil {
		return false
	}
	bottom := c.State.Position[2] - c.halfHeight()
	return hit.Block.TopZ(hit.Point[0], hit.Point[1])-bottom <= c.cfg.MaxStepHeight
}

// stepUp tries to climb over the obstacle in hit: up, forward, then down onto
// a walkable surface. The move is reverted when any leg fails.
func (c *Character) stepUp(delta mgl64.Vec3, hit collision.Hit) bool {
	s := &c.State
	startPos, startFloor := s.Position, s.Floor

	revert := func() bool {
		s.Position, s.Floor = startPos, startFloor
		return false
	}

	up := c.safeMove(gamemath.Up.Mul(c.cfg.MaxStepHeight))
	if up.StartPenetrating {
		return revert()
	}
	climbed := s.Position[2] - startPos[2]

	fwd := c.safeMove(delta)
	if fwd.StartPenetrating || (fwd.Blocking && fwd.Time == 0) {
		return revert()
	}

	down := c.safeMove(gamemath.Up.Mul(-(climbed + maxFloorDist*2)))
	if !down.Blocking || down.StartPenetrating || !gamemath.IsWalkable(down.Normal, c.cfg.WalkableFloorZ) {
		return revert()
	}
	if s.Position[2]-startPos[2] > c.cfg.MaxStepHeight || gamemath.Size2D(s.Position.Sub(startPos)) < 1e-3 {
		return revert()
	}
	c.findFloor()
	c.adjustFloorHeight()
	return true
}

// getLedgeMove looks sideways for floor when a crouched character would step
// off a ledge.
func (c *Character) getLedgeMove(oldLoc, delta mgl64.Vec3) mgl64.Vec3 {
	if gamemath.IsNearlyZero(delta, gamemath.SmallNumber) {
		return mgl64.Vec3{}
	}
	side := mgl64.Vec3{delta[1], -delta[0], 0}
	if c.checkLedgeDirection(oldLoc, side) {
		return side
	}
	side = side.Mul(-1)
	if c.checkLedgeDirection(oldLoc, side) {
		return side
	}
	return mgl64.Vec3{}
}

func (c *Character) checkLedgeDirection(oldLoc, side mgl64.Vec3) bool {
	shape := c.Shape()
	dest := oldLoc.Add(side)
	if c.world.Test(shape, oldLoc, dest) {
		return false
	}
	hit := c.world.Sweep(shape, dest, dest.Sub(gamemath.Up.Mul(c.cfg.MaxStepHeight+ledgeCheckThreshold)))
	return hit.Blocking && !hit.StartPenetrating && gamemath.IsWalkable(hit.Normal, c.cfg.WalkableFloorZ)
}

// canWalkOffLedges is false while crouched so crouching and sliding stop at
// edges instead of dropping off them.
func (c *Character) canWalkOffLedges() bool { return !c.State.Crouched }
