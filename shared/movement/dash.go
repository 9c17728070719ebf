package movement

import (
	"fmt"

	"github.com/automoto/breakaway-mp/shared/timer"
)

// dashStrategy adds the dash: a burst of root motion carried by Flying.
type dashStrategy struct{}

func (dashStrategy) Install(ext *Extensions) {
	ext.PreMove = append(ext.PreMove, dashPreMove)
	ext.PostMove = append(ext.PostMove, dashPostMove)
}

func dashPreMove(c *Character) {
	s := &c.State
	if s.TransitionFinished {
		s.TransitionFinished = false
		if s.Mode.ID() == ModeFlying && !s.RootMotion.Active() {
			c.SetMode(Walking{})
		}
	}
	if !s.WantsToDash || !c.CanDash() {
		return
	}
	elapsed := s.Time - s.DashStartTime
	if c.isAuthorityProxy() && elapsed <= c.cfg.AuthDashCooldown {
		c.suspectedCheat(fmt.Sprintf("tried to dash before cooldown (%.3fs elapsed, %.3fs required)", elapsed, c.cfg.AuthDashCooldown))
		return
	}
	c.performDash()
}

// dashPostMove leaves Flying once the dash root motion has played out.
func dashPostMove(c *Character) {
	s := &c.State
	if s.Mode.ID() == ModeFlying && s.HadAnimRootMotion && !s.RootMotion.Active() {
		c.SetMode(Walking{})
	}
}

// CanDash reports whether the current mode and modifiers allow a dash.
func (c *Character) CanDash() bool {
	if c.Blocks(AbilityDash) {
		return false
	}
	switch c.State.Mode.(type) {
	case Walking, Falling, Sliding:
		return true
	}
	return false
}

func (c *Character) performDash() {
	s := &c.State
	s.DashStartTime = s.Time
	s.RootMotion = RootMotion{
		Remaining: c.cfg.DashDuration,
		Velocity:  s.Facing.Mul(c.cfg.DashSpeed),
	}
	c.SetMode(Flying{})
}

// DashInput turns dash key presses into the dash flag. A press during the
// cooldown arms a timer that raises the flag once the cooldown is over;
// releasing the key cancels it.
type DashInput struct {
	timers   *timer.Scheduler
	cooldown float64
	wants    bool
	retry    timer.Handle
	seen     float64
}

func NewDashInput(timers *timer.Scheduler, cooldown float64) *DashInput {
	return &DashInput{timers: timers, cooldown: cooldown, seen: -1e9}
}

// Press handles the dash key going down at simulation time now.
func (d *DashInput) Press(now, lastDashStart float64) {
	elapsed := now - lastDashStart
	if elapsed >= d.cooldown {
		d.wants = true
		return
	}
	d.timers.Cancel(&d.retry)
	d.retry = d.timers.Schedule(d.cooldown-elapsed, false, func() {
		d.wants = true
	})
}

// Release handles the dash key going up.
func (d *DashInput) Release() {
	d.timers.Cancel(&d.retry)
	d.wants = false
}

func (d *DashInput) Wants() bool { return d.wants }

// Observe clears the request once the simulation has performed a dash.
func (d *DashInput) Observe(dashStart float64) {
	if dashStart > d.seen {
		d.seen = dashStart
		d.wants = false
	}
}
