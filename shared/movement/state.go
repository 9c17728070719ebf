package movement

import "github.com/go-gl/mathgl/mgl64"

// Floor is the result of the last floor probe.
type Floor struct {
	Blocking    bool
	Walkable    bool
	Penetrating bool
	Distance    float64 // gap between the bottom of the shape and the surface
	Normal      mgl64.Vec3
}

// RootMotion is an animation-driven velocity override. Dashes use it.
type RootMotion struct {
	Remaining float64
	Velocity  mgl64.Vec3
}

func (r RootMotion) Active() bool { return r.Remaining > 0 }

// State is everything the simulation reads and writes between ticks. Given the
// same State, Input, delta time and world it produces the same result, which
// is what saved-move replay relies on.
type State struct {
	Position     mgl64.Vec3
	Velocity     mgl64.Vec3
	Acceleration mgl64.Vec3
	Facing       mgl64.Vec3 // unit, horizontal
	Mode         Mode
	Time         float64
	Floor        Floor
	WallNormal   mgl64.Vec3

	Crouched          bool
	PrevWantsToCrouch bool
	WantsToSprint     bool
	WantsToDash       bool
	JumpHeld          bool

	HadAnimRootMotion  bool
	TransitionFinished bool
	RootMotion         RootMotion

	DashStartTime     float64
	LastSlideJumpTime float64
}

// NewState places a standing, walking character at p facing +X.
func NewState(p mgl64.Vec3) State {
	return State{
		Position:          p,
		Facing:            mgl64.Vec3{1, 0, 0},
		Mode:              Walking{},
		DashStartTime:     -1e9,
		LastSlideJumpTime: -1e9,
	}
}

// Flags returns the physics-owned bits of the compressed flag byte.
func (s *State) Flags() Flags {
	var f Flags
	if w, ok := s.Mode.(WallRunning); ok && w.Right {
		f |= FlagWallRunRight
	}
	if s.PrevWantsToCrouch {
		f |= FlagPrevCrouch
	}
	return f
}

// Snapshot is the flat, serializable form of State used in replication.
type Snapshot struct {
	Position          [3]float64
	Velocity          [3]float64
	Acceleration      [3]float64
	Facing            [3]float64
	WallNormal        [3]float64
	RootMotionVel     [3]float64
	RootMotionLeft    float64
	Time              float64
	DashStartTime     float64
	LastSlideJumpTime float64
	Mode              ModeID
	WallRunRight      bool
	Crouched          bool
	PrevWantsToCrouch bool
	JumpHeld          bool
	HadRootMotion     bool
	TransitionDone    bool
}

func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Position:          s.Position,
		Velocity:          s.Velocity,
		Acceleration:      s.Acceleration,
		Facing:            s.Facing,
		WallNormal:        s.WallNormal,
		RootMotionVel:     s.RootMotion.Velocity,
		RootMotionLeft:    s.RootMotion.Remaining,
		Time:              s.Time,
		DashStartTime:     s.DashStartTime,
		LastSlideJumpTime: s.LastSlideJumpTime,
		Mode:              s.Mode.ID(),
		Crouched:          s.Crouched,
		PrevWantsToCrouch: s.PrevWantsToCrouch,
		JumpHeld:          s.JumpHeld,
		HadRootMotion:     s.HadAnimRootMotion,
		TransitionDone:    s.TransitionFinished,
	}
	if w, ok := s.Mode.(WallRunning); ok {
		snap.WallRunRight = w.Right
	}
	return snap
}

// State rebuilds the simulation state. The floor is not part of the snapshot;
// the next tick probes it again.
func (snap Snapshot) State() State {
	return State{
		Position:           snap.Position,
		Velocity:           snap.Velocity,
		Acceleration:       snap.Acceleration,
		Facing:             snap.Facing,
		WallNormal:         snap.WallNormal,
		Mode:               ModeFromID(snap.Mode, snap.WallRunRight),
		Time:               snap.Time,
		Crouched:           snap.Crouched,
		PrevWantsToCrouch:  snap.PrevWantsToCrouch,
		JumpHeld:           snap.JumpHeld,
		HadAnimRootMotion:  snap.HadRootMotion,
		TransitionFinished: snap.TransitionDone,
		RootMotion:         RootMotion{Remaining: snap.RootMotionLeft, Velocity: snap.RootMotionVel},
		DashStartTime:      snap.DashStartTime,
		LastSlideJumpTime:  snap.LastSlideJumpTime,
	}
}
