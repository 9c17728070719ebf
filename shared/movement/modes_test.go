package movement

import (
	"math"
	"testing"

	"github.com/automoto/breakaway-mp/shared/collision"
	"github.com/automoto/breakaway-mp/shared/gamemath"
	"github.com/automoto/breakaway-mp/shared/settings"
	"github.com/automoto/breakaway-mp/shared/timer"
	"github.com/go-gl/mathgl/mgl64"
)

func TestSlideEntryThreshold(t *testing.T) {
	const eps = 1e-6
	cfg := settings.DefaultMovement()
	tests := []struct {
		name       string
		speed      float64
		prevCrouch bool
		want       ModeID
	}{
		{"below threshold", cfg.MinSpeedToEnterSlide - eps, false, ModeWalking},
		{"at threshold", cfg.MinSpeedToEnterSlide, false, ModeSliding},
		{"above threshold", cfg.MinSpeedToEnterSlide + eps, false, ModeSliding},
		{"crouch held over", cfg.MinSpeedToEnterSlide + 100, true, ModeWalking},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCharacter(t, flatWorld())
			c.State.Velocity = mgl64.Vec3{tt.speed, 0, 0}
			c.State.PrevWantsToCrouch = tt.prevCrouch
			c.Move(Input{Flags: FlagCrouch}, tick)
			if got := c.State.Mode.ID(); got != tt.want {
				t.Errorf("mode = %s, want %d", c.State.Mode, tt.want)
			}
			if !c.State.Crouched {
				t.Error("crouch input did not crouch the capsule")
			}
		})
	}
}

func TestSlideEndsOnRelease(t *testing.T) {
	c, cfg := newTestCharacter(t, flatWorld())
	c.State.Velocity = mgl64.Vec3{cfg.MinSpeedToEnterSlide + 50, 0, 0}
	c.Move(Input{Flags: FlagCrouch}, tick)
	if c.State.Mode.ID() != ModeSliding {
		t.Fatalf("mode = %s, want Slide", c.State.Mode)
	}
	c.Move(Input{}, tick)
	if c.State.Mode.ID() != ModeWalking {
		t.Errorf("mode after release = %s, want Walking", c.State.Mode)
	}
}

func TestSlideJumpEndsSlide(t *testing.T) {
	c, cfg := newTestCharacter(t, flatWorld())
	c.State.Velocity = mgl64.Vec3{cfg.MinSpeedToEnterSlide + 50, 0, 0}
	c.Move(Input{Flags: FlagCrouch}, tick)
	c.Move(Input{Flags: FlagCrouch | FlagJump}, tick)
	if c.State.Mode.ID() != ModeFalling {
		t.Fatalf("mode = %s, want Falling", c.State.Mode)
	}
	if c.State.LastSlideJumpTime != c.State.Time {
		t.Errorf("slide jump time = %v, want %v", c.State.LastSlideJumpTime, c.State.Time)
	}
}

// placeOn drops the crouched capsule onto whatever is below x, y.
func placeOn(t *testing.T, w *collision.World, cfg *settings.MovementConfig, x, y float64) mgl64.Vec3 {
	t.Helper()
	shape := collision.Box(cfg.CapsuleRadius, cfg.CrouchedHalfHeight)
	hit := w.Sweep(shape, mgl64.Vec3{x, y, 1000}, mgl64.Vec3{x, y, -100})
	if !hit.Blocking {
		t.Fatalf("nothing below %v,%v", x, y)
	}
	return hit.Location.Add(mgl64.Vec3{0, 0, avgFloorDist - collision.Skin})
}

func TestSlideGainsSpeedDownhill(t *testing.T) {
	ramp, err := collision.NewRamp(mgl64.Vec3{-800, -400, 0}, mgl64.Vec3{-400, 400, 200}, collision.RiseNegX)
	if err != nil {
		t.Fatal(err)
	}
	w := collision.NewWorld(collision.NewBox(mgl64.Vec3{-5000, -5000, -100}, mgl64.Vec3{5000, 5000, 0}), ramp)

	run := func(x float64) float64 {
		cfg := settings.DefaultMovement()
		c := NewCharacter(w, &cfg, placeOn(t, w, &cfg, x, 0))
		c.State.Crouched = true
		c.State.PrevWantsToCrouch = true
		c.State.Mode = Sliding{}
		c.State.Velocity = mgl64.Vec3{300, 0, 0}
		for range 5 {
			c.Move(Input{Flags: FlagCrouch}, tick)
		}
		if c.State.Mode.ID() != ModeSliding {
			t.Fatalf("x=%v: mode = %s, want Slide", x, c.State.Mode)
		}
		return gamemath.Size2D(c.State.Velocity)
	}

	if flat := run(1000); flat >= 300 {
		t.Errorf("flat slide speed = %.1f, want braking below 300", flat)
	}
	if down := run(-700); down <= 300 {
		t.Errorf("downhill slide speed = %.1f, want acceleration above 300", down)
	}
}

func TestSlideFallsWithoutFloor(t *testing.T) {
	c, _ := newTestCharacter(t, flatWorld())
	c.State.Position[2] += 1000
	c.State.Crouched = true
	c.State.Mode = Sliding{}
	c.State.Velocity = mgl64.Vec3{500, 0, 0}
	start := c.State.Position
	c.Move(Input{Flags: FlagCrouch}, tick)
	if c.State.Mode.ID() != ModeFalling {
		t.Fatalf("mode = %s, want Falling", c.State.Mode)
	}
	if c.State.Position[2] >= start[2] {
		t.Error("did not fall during the transition tick")
	}
}

func TestDashTravelsAndReturnsToWalking(t *testing.T) {
	c, cfg := newTestCharacter(t, flatWorld())
	c.Move(forward(cfg, 0), tick)
	startX := c.State.Position[0]

	c.Move(forward(cfg, FlagDash), tick)
	if c.State.Mode.ID() != ModeFlying {
		t.Fatalf("mode = %s, want Flying", c.State.Mode)
	}
	ticks := 1
	for ; ticks < 30 && c.State.Mode.ID() == ModeFlying; ticks++ {
		c.Move(forward(cfg, 0), tick)
	}
	if c.State.Mode.ID() != ModeWalking {
		t.Fatalf("mode after dash = %s, want Walking", c.State.Mode)
	}
	if want := int(cfg.DashDuration/tick) + 2; ticks > want {
		t.Errorf("dash lasted %d ticks, want at most %d", ticks, want)
	}
	if d := c.State.Position[0] - startX; d < cfg.DashSpeed*cfg.DashDuration*0.9 {
		t.Errorf("dash travelled %.1f", d)
	}
}

func TestAuthorityRefusesEarlyDash(t *testing.T) {
	c, cfg := newTestCharacter(t, flatWorld())
	c.Role = RoleAuthority
	var cheats int
	c.OnSuspectedCheat = func(string) { cheats++ }

	c.Move(forward(cfg, FlagDash), tick)
	if c.State.Mode.ID() != ModeFlying {
		t.Fatalf("first dash refused: mode = %s", c.State.Mode)
	}
	for i := 0; i < 30 && c.State.Mode.ID() == ModeFlying; i++ {
		c.Move(forward(cfg, 0), tick)
	}
	c.Move(forward(cfg, FlagDash), tick)
	if c.State.Mode.ID() != ModeWalking {
		t.Errorf("early dash performed: mode = %s", c.State.Mode)
	}
	if cheats != 1 {
		t.Errorf("cheat reports = %d, want 1", cheats)
	}
}

func TestDashBlockedByModifier(t *testing.T) {
	c, cfg := newTestCharacter(t, flatWorld())
	h := c.AddModifier(Modifier{SpeedMultiplier: 0.8, Blocked: []string{AbilityDash}})
	c.Move(forward(cfg, FlagDash), tick)
	if c.State.Mode.ID() != ModeWalking {
		t.Fatalf("blocked dash performed: mode = %s", c.State.Mode)
	}
	c.RemoveModifier(h)
	c.Move(forward(cfg, FlagDash), tick)
	if c.State.Mode.ID() != ModeFlying {
		t.Errorf("dash after removing modifier: mode = %s", c.State.Mode)
	}
}

func TestDashInputRetriesAfterCooldown(t *testing.T) {
	timers := timer.NewScheduler()
	d := NewDashInput(timers, 1.0)

	d.Press(0.5, 0)
	if d.Wants() {
		t.Fatal("dash requested during cooldown")
	}
	timers.Advance(0.49)
	if d.Wants() {
		t.Fatal("retry fired early")
	}
	timers.Advance(0.02)
	if !d.Wants() {
		t.Fatal("retry did not fire after cooldown")
	}
	d.Observe(1.0)
	if d.Wants() {
		t.Error("request not cleared after the dash ran")
	}

	d.Press(1.2, 1.0)
	d.Release()
	timers.Advance(2)
	if d.Wants() {
		t.Error("released dash still fired")
	}
}

// wallWorld has a floor and a wall along +Y at x=100 that ends at y=400.
func wallWorld() *collision.World {
	return collision.NewWorld(
		collision.NewBox(mgl64.Vec3{-5000, -5000, -100}, mgl64.Vec3{5000, 5000, 0}),
		collision.NewBox(mgl64.Vec3{100, -1000, 0}, mgl64.Vec3{200, 400, 1000}),
	)
}

func airborne(t *testing.T, x, z float64, v mgl64.Vec3) (*Character, *settings.MovementConfig) {
	t.Helper()
	cfg := settings.DefaultMovement()
	c := NewCharacter(wallWorld(), &cfg, mgl64.Vec3{x, 0, z})
	c.State.Mode = Falling{}
	c.State.Floor = Floor{}
	c.State.Velocity = v
	return c, &cfg
}

func TestTryWallRun(t *testing.T) {
	tests := []struct {
		name    string
		x, z    float64
		v       mgl64.Vec3
		blocked bool
		want    bool
	}{
		{"runs along the wall", 60, 500, mgl64.Vec3{100, 600, 0}, false, true},
		{"too slow", 60, 500, mgl64.Vec3{50, 150, 0}, false, false},
		{"moving away from the wall", 60, 500, mgl64.Vec3{-100, 600, 0}, false, false},
		{"falling too fast", 60, 500, mgl64.Vec3{100, 600, -400}, false, false},
		{"too close to the floor", 60, 120, mgl64.Vec3{100, 600, 0}, false, false},
		{"no wall in reach", -100, 500, mgl64.Vec3{100, 600, 0}, false, false},
		{"blocked while carrying", 60, 500, mgl64.Vec3{100, 600, 0}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := airborne(t, tt.x, tt.z, tt.v)
			c.State.Facing = mgl64.Vec3{0, 1, 0}
			if tt.blocked {
				c.AddModifier(Modifier{Blocked: []string{AbilityWallRun}})
			}
			if got := c.TryWallRun(); got != tt.want {
				t.Fatalf("TryWallRun = %v, want %v", got, tt.want)
			}
			if !tt.want {
				if c.State.Mode.ID() != ModeFalling {
					t.Errorf("failed entry changed mode to %s", c.State.Mode)
				}
				return
			}
			wr, ok := c.State.Mode.(WallRunning)
			if !ok || !wr.Right {
				t.Errorf("mode = %s, want WallRun(right)", c.State.Mode)
			}
			if c.State.Velocity[0] != 0 {
				t.Errorf("velocity into the wall = %v, want projected out", c.State.Velocity[0])
			}
		})
	}
}

func TestWallRunEndsWhenWallEnds(t *testing.T) {
	c, cfg := airborne(t, 60, 500, mgl64.Vec3{100, 600, 0})
	in := NewInput(mgl64.Vec3{0, 1, 0}, 0, cfg.MaxAcceleration)

	c.Move(in, tick)
	if c.State.Mode.ID() != ModeWallRunning {
		t.Fatalf("mode = %s, want WallRun", c.State.Mode)
	}
	for i := 0; i < 120; i++ {
		before := c.State
		c.Move(in, tick)
		if c.State.Mode.ID() == ModeWallRunning {
			continue
		}
		if c.State.Mode.ID() != ModeFalling {
			t.Fatalf("left wall run into %s", c.State.Mode)
		}
		if before.Position[1] < 350 {
			t.Errorf("stopped wall running at y=%.1f, before the wall ended", before.Position[1])
		}
		if !gamemath.IsFinite(c.State.Velocity) || c.State.Velocity[1] <= 0 {
			t.Errorf("velocity after leaving the wall = %v", c.State.Velocity)
		}
		return
	}
	t.Fatalf("still wall running at y=%.1f", c.State.Position[1])
}

func TestWallJumpPushesOff(t *testing.T) {
	c, cfg := airborne(t, 60, 500, mgl64.Vec3{100, 600, 0})
	in := NewInput(mgl64.Vec3{0, 1, 0}, 0, cfg.MaxAcceleration)
	c.Move(in, tick)
	c.Move(in, tick)
	if c.State.Mode.ID() != ModeWallRunning {
		t.Fatalf("mode = %s, want WallRun", c.State.Mode)
	}
	in.Flags |= FlagJump
	c.Move(in, tick)
	if c.State.Mode.ID() != ModeFalling {
		t.Fatalf("mode after wall jump = %s", c.State.Mode)
	}
	if c.State.Velocity[0] >= 0 {
		t.Errorf("velocity x = %.1f, want away from the wall", c.State.Velocity[0])
	}
	if c.State.Velocity[2] <= 0 {
		t.Errorf("velocity z = %.1f, want upward", c.State.Velocity[2])
	}
}

func TestWallRunPullAway(t *testing.T) {
	tests := []struct {
		name      string
		angle     float64 // degrees off the run direction, away from the wall
		fromLimit bool    // angle is relative to the pull-away angle
		want      ModeID
	}{
		{"along the wall", 0, false, ModeWallRunning},
		{"just inside the pull-away angle", -1, true, ModeWallRunning},
		{"just past the pull-away angle", 1, true, ModeFalling},
		{"straight off the wall", 90, false, ModeFalling},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, cfg := airborne(t, 60, 500, mgl64.Vec3{100, 600, 0})
			c.Move(NewInput(mgl64.Vec3{0, 1, 0}, 0, cfg.MaxAcceleration), tick)
			if c.State.Mode.ID() != ModeWallRunning {
				t.Fatalf("mode = %s, want WallRun", c.State.Mode)
			}

			angle := tt.angle
			if tt.fromLimit {
				angle += cfg.WallRunPullAwayAngle
			}
			rad := mgl64.DegToRad(angle)
			// The wall is on +X, so away is -X.
			dir := mgl64.Vec3{-math.Sin(rad), math.Cos(rad), 0}
			c.Move(NewInput(dir, 0, cfg.MaxAcceleration), tick)
			if got := c.State.Mode.ID(); got != tt.want {
				t.Errorf("mode after steering %.0f degrees off = %s, want %d", angle, c.State.Mode, tt.want)
			}
		})
	}
}

func TestWallRunGravityCurve(t *testing.T) {
	const eps = 1e-6
	tests := []struct {
		name  string
		vz    float64
		dir   mgl64.Vec3
		curve float64 // where the gravity curve is sampled
	}{
		{"rising", 100, mgl64.Vec3{0, 1, 0}, 0},
		{"rising against the run", 100, mgl64.Vec3{0, -1, 0}, 0},
		{"falling with the run", -50, mgl64.Vec3{0, 1, 0}, 1},
		{"falling against the run", -50, mgl64.Vec3{0, -1, 0}, -1},
		{"falling without input", -50, mgl64.Vec3{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, cfg := airborne(t, 60, 500, mgl64.Vec3{100, 600, 0})
			cfg.WallRunGravityCurve = []settings.CurveKey{
				{Time: -1, Value: 3, Ease: "linear"},
				{Time: 0, Value: 0.5, Ease: "linear"},
				{Time: 1, Value: 0.25, Ease: "linear"},
			}
			c.State.Facing = mgl64.Vec3{0, 1, 0}
			if !c.TryWallRun() {
				t.Fatal("did not start wall running")
			}
			c.State.Velocity[2] = tt.vz

			c.Move(NewInput(tt.dir, 0, cfg.MaxAcceleration), tick)
			if c.State.Mode.ID() != ModeWallRunning {
				t.Fatalf("mode = %s, want WallRun", c.State.Mode)
			}
			scale := NewCurve(cfg.WallRunGravityCurve).Eval(tt.curve)
			want := tt.vz + cfg.GravityZ*scale*tick
			if got := c.State.Velocity[2]; math.Abs(got-want) > eps {
				t.Errorf("vertical velocity = %.6f, want %.6f (curve at %v)", got, want, tt.curve)
			}
		})
	}
}
