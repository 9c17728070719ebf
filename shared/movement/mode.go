package movement

// ModeID identifies a movement mode on the wire and in replicated snapshots.
type ModeID uint8

const (
	ModeNone ModeID = iota
	ModeWalking
	ModeFalling
	ModeFlying
	ModeSliding
	ModeWallRunning
)

// Mode is the active movement mode. It is a closed set: Walking, Falling,
// Flying, Sliding and WallRunning. Only WallRunning carries extra state.
type Mode interface {
	ID() ModeID
	String() string
	isMode()
}

type Walking struct{}
type Falling struct{}

// Flying is driven by root motion. The dash uses it as its carrier mode.
type Flying struct{}
type Sliding struct{}

// WallRunning keeps the side it entered on. The side is never re-evaluated
// while the run lasts.
type WallRunning struct {
	Right bool
}

func (Walking) ID() ModeID     { return ModeWalking }
func (Falling) ID() ModeID     { return ModeFalling }
func (Flying) ID() ModeID      { return ModeFlying }
func (Sliding) ID() ModeID     { return ModeSliding }
func (WallRunning) ID() ModeID { return ModeWallRunning }

func (Walking) String() string { return "Walking" }
func (Falling) String() string { return "Falling" }
func (Flying) String() string  { return "Flying" }
func (Sliding) String() string { return "Slide" }
func (w WallRunning) String() string {
	if w.Right {
		return "WallRun(right)"
	}
	return "WallRun(left)"
}

func (Walking) isMode()     {}
func (Falling) isMode()     {}
func (Flying) isMode()      {}
func (Sliding) isMode()     {}
func (WallRunning) isMode() {}

// ModeFromID rebuilds a mode from its wire form. Unknown ids decode as
// Walking.
func ModeFromID(id ModeID, right bool) Mode {
	switch id {
	case ModeFalling:
		return Falling{}
	case ModeFlying:
		return Flying{}
	case ModeSliding:
		return Sliding{}
	case ModeWallRunning:
		return WallRunning{Right: right}
	default:
		return Walking{}
	}
}

// IsMovingOnGround reports whether the mode keeps the character on a floor.
func IsMovingOnGround(m Mode) bool {
	switch m.(type) {
	case Walking, Sliding:
		return true
	}
	return false
}
