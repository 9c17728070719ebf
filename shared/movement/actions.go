package movement

import (
	"github.com/automoto/breakaway-mp/shared/collision"
)

// checkJump jumps on the rising edge of the jump flag. Sliding jumps end the
// slide and wall-running jumps push off the wall.
func (c *Character) checkJump(pressed bool) {
	s := &c.State
	edge := pressed && !s.JumpHeld
	s.JumpHeld = pressed
	if !edge {
		return
	}
	switch s.Mode.(type) {
	case Walking:
		if s.Crouched {
			return
		}
		c.doJump()
	case Sliding:
		s.LastSlideJumpTime = s.Time
		c.doJump()
	case WallRunning:
		s.Velocity = s.Velocity.Add(s.WallNormal.Mul(c.cfg.WallJumpOffForce))
		c.doJump()
	}
}

func (c *Character) doJump() {
	c.State.Velocity[2] = c.cfg.JumpZVelocity
	c.SetMode(Falling{})
}

// updateCrouch resizes the capsule. Crouching only starts on the ground;
// standing up needs room for the full capsule.
func (c *Character) updateCrouch(want bool) {
	s := &c.State
	shift := c.cfg.CapsuleHalfHeight - c.cfg.CrouchedHalfHeight
	switch {
	case want && !s.Crouched:
		if !IsMovingOnGround(s.Mode) {
			return
		}
		s.Crouched = true
		s.Position[2] -= shift
	case !want && s.Crouched:
		p := s.Position
		p[2] += shift
		if c.world.Overlap(collision.Box(c.cfg.CapsuleRadius, c.cfg.CapsuleHalfHeight), p) {
			return
		}
		s.Crouched = false
		s.Position = p
	}
}
