package movement

import (
	"log"

	"github.com/automoto/breakaway-mp/shared/timer"
)

// Sender delivers a packed move batch to the server.
type Sender func(bits []byte, numBits uint32) error

// Predictor runs the local player's movement ahead of the server. Every tick
// is simulated immediately and saved; saved moves are combined when nothing
// relevant changed, sent at the net send rate, and replayed on top of the
// server state whenever the server flags a correction.
type Predictor struct {
	Char   *Character
	Dash   *DashInput
	Timers *timer.Scheduler

	send Sender
	buf  MoveBuffer

	pending        *SavedMove
	nextSeq        uint32
	sentUpTo       uint32
	sinceSend      float64
	lastAck        uint32
	lastCorrection uint32
	dropped        uint32
	corrections    int
}

// NewPredictor predicts c. A nil send predicts offline: moves are saved and
// replayed on corrections but never sent.
func NewPredictor(c *Character, send Sender) *Predictor {
	c.Role = RoleAutonomous
	timers := timer.NewScheduler()
	return &Predictor{
		Char:    c,
		Timers:  timers,
		Dash:    NewDashInput(timers, c.cfg.DashCooldown),
		send:    send,
		nextSeq: 1,
	}
}

// Tick simulates one frame of input and sends moves when due.
func (p *Predictor) Tick(in Input, dt float64) {
	dt = QuantizeDeltaTime(dt)
	if dt < p.Char.cfg.MinTickTime {
		return
	}
	p.Timers.Advance(dt)
	in.Flags &^= FlagDash
	if p.Dash.Wants() {
		in.Flags |= FlagDash
	}

	var move SavedMove
	move.DeltaTime = dt
	move.captureStart(&p.Char.State, in, p.Char.Effects())

	if p.pending != nil {
		if cur := p.pending; cur.CanCombineWith(&move, p.Char.cfg.MaxMoveDeltaTime) {
			combined := cur.Combined(&move)
			p.Char.State = combined.start
			p.Char.Move(combined.Input(), combined.DeltaTime)
			combined.captureEnd(&p.Char.State)
			p.buf.Store(combined)
			p.pending, _ = p.buf.Get(combined.Seq)
			p.afterTick(dt)
			return
		}
	}

	move.Seq = p.nextSeq
	p.nextSeq++
	p.Char.Move(in, dt)
	move.captureEnd(&p.Char.State)
	p.trim()
	p.buf.Store(move)
	p.pending, _ = p.buf.Get(move.Seq)
	p.afterTick(dt)
}

func (p *Predictor) afterTick(dt float64) {
	p.Dash.Observe(p.Char.State.DashStartTime)
	p.sinceSend += dt
	if p.sinceSend >= p.Char.cfg.NetSendInterval || p.unsent() >= MaxMovesPerPacket {
		p.Flush()
	}
}

// trim drops the oldest history when the server has stopped acknowledging.
func (p *Predictor) trim() {
	limit := min(p.Char.cfg.MaxSavedMoves, moveBufferSize-1)
	if p.buf.Len() < limit {
		return
	}
	oldest := p.nextSeq - uint32(limit)
	log.Printf("[netmove] Warning: %d unacknowledged moves, dropping history up to %d", p.buf.Len(), oldest)
	p.buf.Acknowledge(oldest)
	p.dropped = max(p.dropped, oldest)
}

// unsent counts the saved moves after the last one sent. Sequence numbers in
// the buffer are contiguous, so no walk is needed.
func (p *Predictor) unsent() int {
	last := p.nextSeq - 1
	from := max(p.sentUpTo, p.lastAck, p.dropped)
	if last <= from {
		return 0
	}
	return int(last - from)
}

// Flush sends every move the server has not been sent yet. Failed sends are
// logged and retried on the next flush; simulation is never interrupted.
// Call it before a request whose effect on movement the server must apply
// after these moves.
func (p *Predictor) Flush() {
	p.sinceSend = 0
	p.pending = nil
	if p.send == nil {
		return
	}
	moves := p.buf.Unacknowledged(max(p.sentUpTo, p.lastAck))
	for len(moves) > 0 {
		n := min(len(moves), MaxMovesPerPacket)
		pkt := MovePacket{Correction: p.lastCorrection, Moves: make([]WireMove, n)}
		for i, m := range moves[:n] {
			pkt.Moves[i] = m.Wire()
		}
		bits, numBits, err := EncodeMoves(pkt)
		if err == nil {
			err = p.send(bits, numBits)
		}
		if err != nil {
			log.Printf("[netmove] server move dropped: %v", err)
			return
		}
		p.sentUpTo = moves[n-1].Seq
		moves = moves[n:]
	}
}

// Reconcile applies the replicated server state. ack is the last move the
// server simulated and correction its correction counter; snap is the state
// after ack. It reports whether a correction was replayed.
func (p *Predictor) Reconcile(ack, correction uint32, snap Snapshot) bool {
	if ack < p.lastAck {
		return false
	}
	p.lastAck = ack
	p.buf.Acknowledge(ack)
	if correction == p.lastCorrection {
		return false
	}
	p.lastCorrection = correction
	p.corrections++

	p.Char.State = snap.State()
	for _, m := range p.buf.Unacknowledged(ack) {
		in := m.Input()
		m.captureStart(&p.Char.State, in, m.Effects)
		p.Char.withEffects(m.Effects, func() { p.Char.Move(in, m.DeltaTime) })
		m.captureEnd(&p.Char.State)
	}
	p.Dash.Observe(p.Char.State.DashStartTime)
	return true
}

// RestampEffects gives every unacknowledged move the modifiers applied now.
// Call it after the server changed the modifiers: the server applies them
// after the last move it acknowledged, so replays of later moves must see
// them too.
func (p *Predictor) RestampEffects() {
	fx := p.Char.Effects()
	for _, m := range p.buf.Unacknowledged(p.lastAck) {
		m.Effects = fx
	}
}

// PressDash and ReleaseDash forward the dash key to the dash input handler.
func (p *Predictor) PressDash() {
	p.Dash.Press(p.Char.State.Time, p.Char.State.DashStartTime)
}

func (p *Predictor) ReleaseDash() { p.Dash.Release() }

// LastAck is the newest move the server acknowledged.
func (p *Predictor) LastAck() uint32 { return p.lastAck }

// Pending is the number of moves not yet acknowledged.
func (p *Predictor) Pending() int { return p.buf.Len() }

// Corrections counts replayed server corrections.
func (p *Predictor) Corrections() int { return p.corrections }
