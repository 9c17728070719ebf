package movement

import (
	"log"

	"github.com/go-gl/mathgl/mgl64"
)

// Authority re-simulates a remote client's moves on the server.
type Authority struct {
	Char *Character

	lastSeq       uint32
	correctionSeq uint32
	dirty         bool
	mismatches    int
}

func NewAuthority(c *Character) *Authority {
	c.Role = RoleAuthority
	return &Authority{Char: c}
}

// Process simulates the moves of a packet in order. Moves at or before the
// last processed sequence are duplicates and skipped. Delta times are clamped
// to MaxMoveDeltaTime. It returns how many moves were simulated.
func (a *Authority) Process(pkt MovePacket) int {
	cfg := a.Char.cfg
	checked := pkt.Correction == a.correctionSeq
	n := 0
	for _, m := range pkt.Moves {
		if m.Seq <= a.lastSeq {
			continue
		}
		dt := mgl64.Clamp(float64(m.DeltaTime), 0, cfg.MaxMoveDeltaTime)
		a.Char.Move(m.Input(), dt)
		a.lastSeq = m.Seq
		n++

		if !checked || a.dirty {
			continue
		}
		s := &a.Char.State
		if err := m.ClientPosition.Sub(s.Position).Len(); err > cfg.PositionCorrectionThreshold || m.ClientMode != s.Mode.ID() {
			log.Printf("[movement] client %s diverged at move %d: %.2fcm, mode %d vs %s", a.Char.Name, m.Seq, err, m.ClientMode, s.Mode)
			a.dirty = true
			a.mismatches++
		}
	}
	return n
}

// Ack returns the last processed move and the correction counter to
// replicate. A pending correction bumps the counter once.
func (a *Authority) Ack() (seq, correction uint32) {
	if a.dirty {
		a.correctionSeq++
		a.dirty = false
	}
	return a.lastSeq, a.correctionSeq
}

// ForceCorrection makes the next Ack carry a correction, for teleports and
// respawns the client cannot predict.
func (a *Authority) ForceCorrection() { a.dirty = true }

// Mismatches counts moves whose client result disagreed with the server.
func (a *Authority) Mismatches() int { return a.mismatches }
