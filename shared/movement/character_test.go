package movement

import (
	"math"
	"testing"

	"github.com/automoto/breakaway-mp/shared/collision"
	"github.com/automoto/breakaway-mp/shared/gamemath"
	"github.com/automoto/breakaway-mp/shared/settings"
	"github.com/go-gl/mathgl/mgl64"
)

const tick = 1.0 / 60.0

func flatWorld() *collision.World {
	return collision.NewWorld(collision.NewBox(mgl64.Vec3{-5000, -5000, -100}, mgl64.Vec3{5000, 5000, 0}))
}

func newTestCharacter(t *testing.T, w collision.Query) (*Character, *settings.MovementConfig) {
	t.Helper()
	cfg := settings.DefaultMovement()
	c := NewCharacter(w, &cfg, mgl64.Vec3{0, 0, cfg.CapsuleHalfHeight + avgFloorDist})
	c.Name = t.Name()
	return c, &cfg
}

func forward(cfg *settings.MovementConfig, flags Flags) Input {
	return NewInput(mgl64.Vec3{1, 0, 0}, flags, cfg.MaxAcceleration)
}

func TestStandingStill(t *testing.T) {
	c, cfg := newTestCharacter(t, flatWorld())
	start := c.State.Position
	for range 30 {
		c.Move(Input{}, tick)
	}
	if c.State.Mode.ID() != ModeWalking {
		t.Fatalf("mode = %s, want Walking", c.State.Mode)
	}
	if d := c.State.Position.Sub(start).Len(); d > 1e-6 {
		t.Errorf("moved %.6f while standing still", d)
	}
	bottom := c.State.Position[2] - cfg.CapsuleHalfHeight
	if bottom < minFloorDist || bottom > maxFloorDist {
		t.Errorf("floor gap = %.3f, want within [%v, %v]", bottom, minFloorDist, maxFloorDist)
	}
}

func TestWalkingReachesMaxSpeed(t *testing.T) {
	tests := []struct {
		name  string
		flags Flags
		mul   float64
		want  func(cfg *settings.MovementConfig) float64
	}{
		{"walk", 0, 0, func(cfg *settings.MovementConfig) float64 { return cfg.MaxWalkSpeed }},
		{"sprint", FlagSprint, 0, func(cfg *settings.MovementConfig) float64 { return cfg.MaxSprintSpeed }},
		{"carrying", 0, 0.8, func(cfg *settings.MovementConfig) float64 { return cfg.MaxWalkSpeed * 0.8 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, cfg := newTestCharacter(t, flatWorld())
			if tt.mul > 0 {
				c.AddModifier(Modifier{SpeedMultiplier: tt.mul})
			}
			for range 60 {
				c.Move(forward(cfg, tt.flags), tick)
			}
			want := tt.want(cfg)
			if got := gamemath.Size2D(c.State.Velocity); math.Abs(got-want) > 0.5 {
				t.Errorf("speed = %.2f, want %.2f", got, want)
			}
			if c.State.Position[0] <= 0 {
				t.Errorf("x = %.2f, want forward progress", c.State.Position[0])
			}
		})
	}
}

func TestSubEpsilonTickSkipped(t *testing.T) {
	c, cfg := newTestCharacter(t, flatWorld())
	before := c.State
	c.Move(forward(cfg, 0), cfg.MinTickTime/2)
	if c.State.Time != before.Time || c.State.Position != before.Position {
		t.Errorf("sub-epsilon tick changed state: time %v -> %v", before.Time, c.State.Time)
	}
}

func TestJumpAndLand(t *testing.T) {
	c, cfg := newTestCharacter(t, flatWorld())
	c.Move(Input{Flags: FlagJump}, tick)
	if c.State.Mode.ID() != ModeFalling {
		t.Fatalf("mode after jump = %s, want Falling", c.State.Mode)
	}
	peak := 0.0
	for i := 0; i < 300 && c.State.Mode.ID() == ModeFalling; i++ {
		c.Move(Input{Flags: FlagJump}, tick)
		peak = math.Max(peak, c.State.Position[2])
	}
	if c.State.Mode.ID() != ModeWalking {
		t.Fatalf("never landed, mode = %s", c.State.Mode)
	}
	// v^2 / 2g with v = 700 and g = 980 is 250cm.
	if rise := peak - (cfg.CapsuleHalfHeight + avgFloorDist); rise < 230 || rise > 260 {
		t.Errorf("jump height = %.1f, want about 250", rise)
	}

	// Holding jump does not jump again.
	c.Move(Input{Flags: FlagJump}, tick)
	if c.State.Mode.ID() != ModeWalking {
		t.Errorf("held jump re-triggered: mode = %s", c.State.Mode)
	}
}

func TestWallStopsWalking(t *testing.T) {
	w := collision.NewWorld(
		collision.NewBox(mgl64.Vec3{-5000, -5000, -100}, mgl64.Vec3{5000, 5000, 0}),
		collision.NewBox(mgl64.Vec3{200, -500, 0}, mgl64.Vec3{300, 500, 400}),
	)
	c, cfg := newTestCharacter(t, w)
	for range 120 {
		c.Move(forward(cfg, 0), tick)
	}
	if limit := 200 - cfg.CapsuleRadius; c.State.Position[0] > limit {
		t.Errorf("x = %.3f, walked into the wall at %.1f", c.State.Position[0], limit)
	}
	if c.State.Position[0] < 150 {
		t.Errorf("x = %.3f, stopped short of the wall", c.State.Position[0])
	}
	if math.Abs(c.State.Velocity[0]) > 1 {
		t.Errorf("velocity x = %.3f against the wall, want about 0", c.State.Velocity[0])
	}
}

func TestStepUpLowObstacle(t *testing.T) {
	w := collision.NewWorld(
		collision.NewBox(mgl64.Vec3{-5000, -5000, -100}, mgl64.Vec3{5000, 5000, 0}),
		collision.NewBox(mgl64.Vec3{200, -500, 0}, mgl64.Vec3{2000, 500, 30}),
	)
	c, cfg := newTestCharacter(t, w)
	for range 90 {
		c.Move(forward(cfg, 0), tick)
	}
	if c.State.Position[0] < 300 {
		t.Fatalf("x = %.1f, did not climb the 30cm step", c.State.Position[0])
	}
	if bottom := c.State.Position[2] - cfg.CapsuleHalfHeight; bottom < 30 {
		t.Errorf("bottom = %.1f, want on top of the step", bottom)
	}
}

func TestCrouchNeedsRoomToStand(t *testing.T) {
	w := collision.NewWorld(
		collision.NewBox(mgl64.Vec3{-5000, -5000, -100}, mgl64.Vec3{5000, 5000, 0}),
		collision.NewBox(mgl64.Vec3{-100, -100, 120}, mgl64.Vec3{100, 100, 200}),
	)
	cfg := settings.DefaultMovement()
	c := NewCharacter(w, &cfg, mgl64.Vec3{-300, 0, cfg.CapsuleHalfHeight + avgFloorDist})

	c.Move(Input{Flags: FlagCrouch}, tick)
	if !c.State.Crouched {
		t.Fatal("did not crouch")
	}
	// Crawl under the low ceiling.
	for range 90 {
		c.Move(NewInput(mgl64.Vec3{1, 0, 0}, FlagCrouch, cfg.MaxAcceleration), tick)
		if c.State.Position[0] > 0 {
			break
		}
	}
	if c.State.Position[0] < -66 {
		t.Fatalf("x = %.1f, never got under the ceiling", c.State.Position[0])
	}
	c.Move(Input{}, tick)
	if !c.State.Crouched {
		t.Error("stood up under a 120cm ceiling")
	}
}

func TestSnapshotRoundTripKeepsSimulation(t *testing.T) {
	c, cfg := newTestCharacter(t, flatWorld())
	for range 10 {
		c.Move(forward(cfg, FlagSprint), tick)
	}
	c.Move(forward(cfg, FlagJump), tick)

	clone := NewCharacter(flatWorld(), cfg, mgl64.Vec3{})
	clone.State = c.State.Snapshot().State()
	for i := range 40 {
		in := forward(cfg, 0)
		if i == 30 {
			in.Flags |= FlagCrouch
		}
		c.Move(in, tick)
		clone.Move(in, tick)
	}
	if c.State.Position != clone.State.Position || c.State.Velocity != clone.State.Velocity {
		t.Errorf("restored copy diverged: %v / %v vs %v / %v",
			c.State.Position, c.State.Velocity, clone.State.Position, clone.State.Velocity)
	}
	if c.State.Mode != clone.State.Mode {
		t.Errorf("mode %s vs %s", c.State.Mode, clone.State.Mode)
	}
}
