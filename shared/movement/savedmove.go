package movement

import (
	"github.com/automoto/breakaway-mp/shared/gamemath"
	"github.com/go-gl/mathgl/mgl64"
)

// accelDotThresholdCombine is how parallel two accelerations must be for
// their moves to merge.
const accelDotThresholdCombine = 0.996

// SavedMove is one simulated client tick kept until the server acknowledges
// it.
type SavedMove struct {
	Seq          uint32
	Timestamp    float64 // simulation time at the start of the move
	DeltaTime    float64
	Acceleration mgl64.Vec3
	Flags        Flags

	HadAnimRootMotion  bool
	TransitionFinished bool

	StartMode   ModeID
	EndMode     ModeID
	EndRight    bool
	EndPosition mgl64.Vec3
	EndVelocity mgl64.Vec3

	// Effects are the modifiers the move was simulated with. They stay with
	// the move so a replay runs it the same way.
	Effects Effects

	start State
}

// Input rebuilds the input the move was simulated with.
func (m *SavedMove) Input() Input {
	return Input{Acceleration: m.Acceleration, Flags: m.Flags & inputFlags}
}

// captureStart records the state the move starts from, the flags it
// carries on the wire and the modifiers in effect.
func (m *SavedMove) captureStart(s *State, in Input, fx Effects) {
	m.start = *s
	m.Effects = fx
	m.Timestamp = s.Time
	m.Acceleration = in.Acceleration
	m.Flags = in.Flags&inputFlags | s.Flags()
	m.HadAnimRootMotion = s.HadAnimRootMotion
	m.TransitionFinished = s.TransitionFinished
	m.StartMode = s.Mode.ID()
}

func (m *SavedMove) captureEnd(s *State) {
	m.EndMode = s.Mode.ID()
	if w, ok := s.Mode.(WallRunning); ok {
		m.EndRight = w.Right
	}
	m.EndPosition = s.Position
	m.EndVelocity = s.Velocity
}

const customFlags = FlagSprint | FlagDash | FlagWallRunRight

// CanCombineWith reports whether next can be merged into m for sending. The
// sprint, dash and wall-run side bits must match, as must the base flags, the
// modifiers, the direction of acceleration and the mode hand-over between the
// two moves.
func (m *SavedMove) CanCombineWith(next *SavedMove, maxDelta float64) bool {
	if m.Flags&customFlags != next.Flags&customFlags {
		return false
	}
	if !m.Effects.Equal(next.Effects) {
		return false
	}
	if m.Flags != next.Flags {
		return false
	}
	if m.Flags.Has(FlagJump) || m.HadAnimRootMotion || next.HadAnimRootMotion || m.TransitionFinished || next.TransitionFinished {
		return false
	}
	if m.EndMode != next.StartMode || m.StartMode != m.EndMode {
		return false
	}
	zero, nextZero := m.Acceleration.LenSqr() == 0, next.Acceleration.LenSqr() == 0
	if zero != nextZero {
		return false
	}
	if !zero && gamemath.SafeNormal(m.Acceleration).Dot(gamemath.SafeNormal(next.Acceleration)) < accelDotThresholdCombine {
		return false
	}
	return m.DeltaTime+next.DeltaTime <= maxDelta
}

// Combined returns the merged move: it keeps m's sequence number and start
// state, uses next's input and lasts for both delta times. The caller
// re-simulates it.
func (m *SavedMove) Combined(next *SavedMove) SavedMove {
	out := *next
	out.Seq = m.Seq
	out.start = m.start
	out.Timestamp = m.Timestamp
	out.StartMode = m.StartMode
	out.Flags = next.Flags&inputFlags | m.start.Flags()
	out.HadAnimRootMotion = m.HadAnimRootMotion
	out.TransitionFinished = m.TransitionFinished
	out.DeltaTime = QuantizeDeltaTime(m.DeltaTime + next.DeltaTime)
	return out
}

// LocationError is the distance between the move's predicted end position and
// p.
func (m *SavedMove) LocationError(p mgl64.Vec3) float64 {
	return m.EndPosition.Sub(p).Len()
}

const moveBufferSize = 128

// MoveBuffer is a ring of saved moves keyed by sequence number.
type MoveBuffer struct {
	history [moveBufferSize]SavedMove
	used    [moveBufferSize]bool
	nextSeq uint32
}

// Store saves a move. It overwrites whatever held the slot before.
func (b *MoveBuffer) Store(m SavedMove) {
	idx := m.Seq % moveBufferSize
	b.history[idx] = m
	b.used[idx] = true
	b.nextSeq = m.Seq + 1
}

// Get retrieves a stored move by sequence number. Returns false if not found
// or if the slot has been overwritten.
func (b *MoveBuffer) Get(seq uint32) (*SavedMove, bool) {
	idx := seq % moveBufferSize
	if !b.used[idx] || b.history[idx].Seq != seq {
		return nil, false
	}
	return &b.history[idx], true
}

// NextSeq returns the sequence number the next move will get.
func (b *MoveBuffer) NextSeq() uint32 {
	return b.nextSeq
}

// Unacknowledged returns the stored moves after lastAcked in order.
func (b *MoveBuffer) Unacknowledged(lastAcked uint32) []*SavedMove {
	var out []*SavedMove
	for seq := lastAcked + 1; seq < b.nextSeq; seq++ {
		if m, ok := b.Get(seq); ok {
			out = append(out, m)
		}
	}
	return out
}

// Acknowledge drops every move up to and including seq.
func (b *MoveBuffer) Acknowledge(seq uint32) {
	for i := range b.history {
		if b.used[i] && b.history[i].Seq <= seq {
			b.used[i] = false
		}
	}
}

// Len is the number of moves held.
func (b *MoveBuffer) Len() int {
	n := 0
	for _, u := range b.used {
		if u {
			n++
		}
	}
	return n
}

// PredictionError is the distance between the predicted end position of seq
// and the server's position for it.
func (b *MoveBuffer) PredictionError(seq uint32, server mgl64.Vec3) float64 {
	m, ok := b.Get(seq)
	if !ok {
		return 0
	}
	return m.LocationError(server)
}
