package movement

import (
	"math"

	"github.com/automoto/breakaway-mp/shared/gamemath"
	"github.com/go-gl/mathgl/mgl64"
)

type groundResult int

const (
	groundContinue groundResult = iota
	groundRetry
	groundStop
	groundFell
)

func (c *Character) physWalking(dt float64, iterations int) {
	s := &c.State
	remaining := dt
	var checkedFall, triedLedgeMove bool

	for remaining >= c.cfg.MinTickTime && iterations < c.cfg.MaxSimulationIterations && s.Mode.ID() == ModeWalking {
		iterations++
		step := c.simTimeStep(remaining, iterations)
		remaining -= step

		oldLoc, oldFloor := s.Position, s.Floor
		s.Acceleration[2] = 0
		s.Velocity[2] = 0
		c.calcVelocity(step, c.cfg.GroundFriction, c.brakingDeceleration(), s.Acceleration)

		delta := s.Velocity.Mul(step)
		if gamemath.IsNearlyZero(delta, gamemath.SmallNumber) {
			remaining = 0
		} else {
			c.moveAlongFloor(s.Velocity, step)
			if s.Mode.ID() != ModeWalking {
				c.startNewPhysics(remaining, iterations)
				return
			}
		}
		c.findFloor()

		switch c.afterGroundMove(oldLoc, oldFloor, delta, step, &remaining, iterations, &triedLedgeMove, &checkedFall) {
		case groundFell:
			return
		case groundRetry:
			continue
		case groundStop:
			return
		}

		if s.Mode.ID() == ModeWalking && step >= c.cfg.MinTickTime {
			s.Velocity = s.Position.Sub(oldLoc).Mul(1 / step)
			s.Velocity[2] = 0
		}
		if s.Position == oldLoc {
			break
		}
	}
}

// afterGroundMove validates the floor after a grounded move: it tries a
// sideways ledge move once, starts falling, or reverts the move.
func (c *Character) afterGroundMove(oldLoc mgl64.Vec3, oldFloor Floor, delta mgl64.Vec3, step float64, remaining *float64, iterations int, triedLedgeMove, checkedFall *bool) groundResult {
	s := &c.State
	zeroDelta := gamemath.IsNearlyZero(delta, gamemath.SmallNumber)

	if !c.canWalkOffLedges() && !s.Floor.Walkable {
		var ledge mgl64.Vec3
		if !*triedLedgeMove {
			ledge = c.getLedgeMove(oldLoc, delta)
		}
		if ledge != (mgl64.Vec3{}) {
			s.Position, s.Floor = oldLoc, oldFloor
			*triedLedgeMove = true
			s.Velocity = ledge.Mul(1 / step)
			*remaining += step
			return groundRetry
		}
		mustJump := zeroDelta || !oldFloor.Walkable
		if (mustJump || !*checkedFall) && c.checkFall(oldLoc, delta, step, *remaining, iterations, mustJump) {
			return groundFell
		}
		*checkedFall = true
		s.Position, s.Floor = oldLoc, oldFloor
		*remaining = 0
		return groundStop
	}

	if s.Floor.Walkable {
		c.adjustFloorHeight()
	} else if s.Floor.Penetrating && *remaining <= 0 {
		if push, ok := c.world.Depenetrate(c.Shape(), s.Position); ok {
			s.Position = s.Position.Add(push)
		}
	}
	if !s.Floor.Walkable && !s.Floor.Penetrating {
		mustJump := zeroDelta || !oldFloor.Walkable
		if (mustJump || !*checkedFall) && c.checkFall(oldLoc, delta, step, *remaining, iterations, mustJump) {
			return groundFell
		}
		*checkedFall = true
	}
	return groundContinue
}

// checkFall starts falling when the character may leave the floor here.
func (c *Character) checkFall(oldLoc, delta mgl64.Vec3, step, remaining float64, iterations int, mustJump bool) bool {
	if !mustJump && !c.canWalkOffLedges() {
		return false
	}
	s := &c.State
	if desired := delta.Len(); desired > gamemath.SmallNumber {
		actual := gamemath.Size2D(s.Position.Sub(oldLoc))
		remaining += step * (1 - math.Min(1, actual/desired))
	}
	c.SetMode(Falling{})
	c.startNewPhysics(remaining, iterations)
	return true
}
