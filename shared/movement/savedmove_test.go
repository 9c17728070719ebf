package movement

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/automoto/breakaway-mp/shared/bitstream"
	"github.com/automoto/breakaway-mp/shared/collision"
	"github.com/go-gl/mathgl/mgl64"
)

func rotatedZ(v mgl64.Vec3, deg float64) mgl64.Vec3 {
	return mgl64.Rotate3DZ(mgl64.DegToRad(deg)).Mul3x1(v)
}

func TestCanCombineWith(t *testing.T) {
	accel := mgl64.Vec3{2048, 0, 0}
	base := func() SavedMove {
		return SavedMove{DeltaTime: tick, Acceleration: accel, StartMode: ModeWalking, EndMode: ModeWalking}
	}

	tests := []struct {
		name   string
		edit   func(m, next *SavedMove)
		expect bool
	}{
		{"identical", func(m, next *SavedMove) {}, true},
		{"both sprinting", func(m, next *SavedMove) { m.Flags, next.Flags = FlagSprint, FlagSprint }, true},
		{"sprint changed", func(m, next *SavedMove) { next.Flags = FlagSprint }, false},
		{"dash changed", func(m, next *SavedMove) { m.Flags = FlagDash }, false},
		{"wall side changed", func(m, next *SavedMove) { next.Flags = FlagWallRunRight }, false},
		{"crouch changed", func(m, next *SavedMove) { next.Flags = FlagCrouch }, false},
		{"jump pressed", func(m, next *SavedMove) { m.Flags, next.Flags = FlagJump, FlagJump }, false},
		{"root motion", func(m, next *SavedMove) { next.HadAnimRootMotion = true }, false},
		{"transition finished", func(m, next *SavedMove) { m.TransitionFinished = true }, false},
		{"mode changed", func(m, next *SavedMove) { m.EndMode, next.StartMode = ModeFalling, ModeFalling }, false},
		{"small turn", func(m, next *SavedMove) { next.Acceleration = rotatedZ(accel, 3) }, true},
		{"sharp turn", func(m, next *SavedMove) { next.Acceleration = rotatedZ(accel, 10) }, false},
		{"stopped", func(m, next *SavedMove) { next.Acceleration = mgl64.Vec3{} }, false},
		{"both idle", func(m, next *SavedMove) { m.Acceleration, next.Acceleration = mgl64.Vec3{}, mgl64.Vec3{} }, true},
		{"too long", func(m, next *SavedMove) { m.DeltaTime, next.DeltaTime = 0.07, 0.07 }, false},
		{"carrier slowdown started", func(m, next *SavedMove) { next.Effects = Effects{SpeedMultiplier: 0.8} }, false},
		{"dash blocked", func(m, next *SavedMove) { m.Effects = Effects{SpeedMultiplier: 1, Blocked: []string{AbilityDash}} }, false},
		{"same modifiers", func(m, next *SavedMove) {
			m.Effects = Effects{SpeedMultiplier: 0.8, Blocked: []string{AbilityDash}}
			next.Effects = Effects{SpeedMultiplier: 0.8, Blocked: []string{AbilityDash}}
		}, true},
		{"no modifiers", func(m, next *SavedMove) { m.Effects = Effects{SpeedMultiplier: 1} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, next := base(), base()
			tt.edit(&m, &next)
			if got := m.CanCombineWith(&next, 0.125); got != tt.expect {
				t.Errorf("CanCombineWith = %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestMoveBuffer(t *testing.T) {
	var b MoveBuffer
	for seq := uint32(1); seq <= 5; seq++ {
		b.Store(SavedMove{Seq: seq, EndPosition: mgl64.Vec3{float64(seq), 0, 0}})
	}
	b.Acknowledge(3)

	left := b.Unacknowledged(3)
	if len(left) != 2 || left[0].Seq != 4 || left[1].Seq != 5 {
		t.Fatalf("Unacknowledged = %v", left)
	}
	if b.Len() != 2 {
		t.Errorf("Len = %d, want 2", b.Len())
	}
	if got := b.PredictionError(5, mgl64.Vec3{2, 0, 0}); got != 3 {
		t.Errorf("PredictionError = %v, want 3", got)
	}

	b.Store(SavedMove{Seq: 4 + moveBufferSize})
	if _, ok := b.Get(4); ok {
		t.Error("overwritten slot still returned")
	}
}

func TestMovePacketRoundTrip(t *testing.T) {
	want := MovePacket{
		Correction: 3,
		Moves: []WireMove{
			{
				Seq: 7, DeltaTime: 1.0 / 60, Acceleration: mgl64.Vec3{2048, 0, 0}, Flags: FlagSprint,
				ClientPosition: mgl64.Vec3{123.4, -56.7, 90.2}, ClientMode: ModeWalking,
			},
			{
				Seq: 8, DeltaTime: 1.0 / 30, Acceleration: mgl64.Vec3{-1448.2, 1448.2, 0}, Flags: FlagDash | FlagWallRunRight,
				HadAnimRootMotion: true, ClientPosition: mgl64.Vec3{-4000, 2500.5, 300}, ClientMode: ModeWallRunning, ClientRight: true,
			},
			{
				Seq: 200, DeltaTime: 0.125, Flags: FlagJump | FlagCrouch | FlagPrevCrouch,
				TransitionFinished: true, ClientMode: ModeSliding,
			},
		},
	}
	bits, n, err := EncodeMoves(want)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeMoves(bits, n)
	if err != nil {
		t.Fatal(err)
	}
	if got.Correction != want.Correction || len(got.Moves) != len(want.Moves) {
		t.Fatalf("header = %d/%d moves, want %d/%d", got.Correction, len(got.Moves), want.Correction, len(want.Moves))
	}
	for i := range want.Moves {
		if got.Moves[i] != want.Moves[i] {
			t.Errorf("move %d = %+v, want %+v", i, got.Moves[i], want.Moves[i])
		}
	}
}

func TestDecodeMovesRejectsBadInput(t *testing.T) {
	valid := MovePacket{Moves: []WireMove{{Seq: 1, DeltaTime: 1.0 / 60}}}
	bits, n, err := EncodeMoves(valid)
	if err != nil {
		t.Fatal(err)
	}

	var empty bitstream.Writer
	empty.WriteIntPacked(0)
	empty.WriteBits(0, countBits)

	nan := MovePacket{Moves: []WireMove{{Seq: 1, DeltaTime: float32(math.NaN())}}}
	nanBits, nanN, err := EncodeMoves(nan)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		buf     []byte
		numBits uint32
		target  error
	}{
		{"truncated", bits, n - 1, bitstream.ErrOverflow},
		{"no bits", nil, 0, bitstream.ErrOverflow},
		{"bit count past buffer", bits, uint32(len(bits)*8 + 1), bitstream.ErrOverflow},
		{"zero moves", empty.Bytes(), uint32(empty.NumBits()), ErrBadMoveCount},
		{"garbage", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, 48, nil},
		{"nan delta", nanBits, nanN, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMoves(tt.buf, tt.numBits)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("error = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestEncodeMovesCount(t *testing.T) {
	if _, _, err := EncodeMoves(MovePacket{}); !errors.Is(err, ErrBadMoveCount) {
		t.Errorf("empty packet error = %v", err)
	}
	if _, _, err := EncodeMoves(MovePacket{Moves: make([]WireMove, MaxMovesPerPacket+1)}); !errors.Is(err, ErrBadMoveCount) {
		t.Errorf("oversized packet error = %v", err)
	}
}

// linked wires a predictor straight into an authority.
func linked(t *testing.T, serverWorld collision.Query) (*Predictor, *Authority) {
	t.Helper()
	client, _ := newTestCharacter(t, flatWorld())
	server, _ := newTestCharacter(t, serverWorld)
	auth := NewAuthority(server)
	pred := NewPredictor(client, func(bits []byte, n uint32) error {
		pkt, err := DecodeMoves(bits, n)
		if err != nil {
			return err
		}
		auth.Process(pkt)
		return nil
	})
	return pred, auth
}

func TestServerAgreesWithPrediction(t *testing.T) {
	pred, auth := linked(t, flatWorld())
	cfg := pred.Char.Config()

	for i := range 40 {
		var flags Flags
		if i == 10 {
			flags = FlagJump
		}
		in := forward(cfg, flags)
		if i >= 30 {
			in = Input{}
		}
		pred.Tick(in, tick)
	}
	pred.Flush()

	if auth.Mismatches() != 0 {
		t.Fatalf("server flagged %d mismatches", auth.Mismatches())
	}
	if pred.Char.State.Position != auth.Char.State.Position {
		t.Fatalf("client at %v, server at %v", pred.Char.State.Position, auth.Char.State.Position)
	}

	seq, correction := auth.Ack()
	if pred.Reconcile(seq, correction, auth.Char.State.Snapshot()) {
		t.Error("reconciled without a correction")
	}
	if pred.Pending() != 0 || pred.LastAck() != seq {
		t.Errorf("pending = %d, last ack = %d, want 0 and %d", pred.Pending(), pred.LastAck(), seq)
	}

	// One unsent move is replayed on top of a forced correction and must land
	// exactly where it was predicted.
	pred.Tick(forward(cfg, FlagSprint), tick)
	auth.ForceCorrection()
	seq, correction = auth.Ack()
	before := pred.Char.State.Snapshot()
	if !pred.Reconcile(seq, correction, auth.Char.State.Snapshot()) {
		t.Fatal("forced correction not applied")
	}
	if after := pred.Char.State.Snapshot(); after != before {
		t.Errorf("replay changed the prediction:\n got %+v\nwant %+v", after, before)
	}
	if pred.Corrections() != 1 {
		t.Errorf("Corrections = %d, want 1", pred.Corrections())
	}
}

func TestServerCorrectsDivergedClient(t *testing.T) {
	serverWorld := collision.NewWorld(
		collision.NewBox(mgl64.Vec3{-5000, -5000, -100}, mgl64.Vec3{5000, 5000, 0}),
		collision.NewBox(mgl64.Vec3{300, -1000, 0}, mgl64.Vec3{400, 1000, 400}),
	)
	pred, auth := linked(t, serverWorld)
	cfg := pred.Char.Config()

	for range 60 {
		pred.Tick(forward(cfg, 0), tick)
	}
	pred.Flush()

	if auth.Mismatches() != 1 {
		t.Fatalf("Mismatches = %d, want 1", auth.Mismatches())
	}
	if pred.Char.State.Position[0] < 400 {
		t.Fatalf("client should have walked through the unseen wall, at %v", pred.Char.State.Position)
	}

	seq, correction := auth.Ack()
	if correction != 1 {
		t.Fatalf("correction = %d, want 1", correction)
	}
	if !pred.Reconcile(seq, correction, auth.Char.State.Snapshot()) {
		t.Fatal("correction not applied")
	}
	if pred.Char.State.Position != auth.Char.State.Position {
		t.Errorf("client at %v after correction, server at %v", pred.Char.State.Position, auth.Char.State.Position)
	}
}

func TestAuthoritySkipsDuplicates(t *testing.T) {
	c, cfg := newTestCharacter(t, flatWorld())
	auth := NewAuthority(c)
	in := forward(cfg, 0)
	pkt := MovePacket{Moves: []WireMove{
		{Seq: 1, DeltaTime: float32(tick), Acceleration: in.Acceleration, ClientMode: ModeWalking, ClientPosition: c.State.Position},
		{Seq: 2, DeltaTime: float32(tick), Acceleration: in.Acceleration, ClientMode: ModeWalking, ClientPosition: c.State.Position},
	}}
	if n := auth.Process(pkt); n != 2 {
		t.Fatalf("first Process = %d, want 2", n)
	}
	pos := c.State.Position
	if n := auth.Process(pkt); n != 0 {
		t.Errorf("duplicate Process = %d, want 0", n)
	}
	if c.State.Position != pos {
		t.Error("duplicate moves were simulated")
	}
}

func TestPredictorRetriesFailedSend(t *testing.T) {
	c, cfg := newTestCharacter(t, flatWorld())
	fail := true
	var sent [][]uint32
	pred := NewPredictor(c, func(bits []byte, n uint32) error {
		if fail {
			fail = false
			return errors.New("connection reset")
		}
		pkt, err := DecodeMoves(bits, n)
		if err != nil {
			return err
		}
		var seqs []uint32
		for _, m := range pkt.Moves {
			seqs = append(seqs, m.Seq)
		}
		sent = append(sent, seqs)
		return nil
	})

	for range 4 {
		pred.Tick(forward(cfg, 0), tick)
	}
	if len(sent) != 1 {
		t.Fatalf("sent %d packets, want 1", len(sent))
	}
	if got := sent[0]; len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("retried packet carried %v, want [1 2]", got)
	}
}

func TestReplayUsesMoveModifiers(t *testing.T) {
	c, cfg := newTestCharacter(t, flatWorld())
	pred := NewPredictor(c, nil)
	start := c.State.Snapshot()

	for range 20 {
		pred.Tick(forward(cfg, 0), tick)
	}
	h := c.AddModifier(Modifier{SpeedMultiplier: 0.8, Blocked: []string{AbilityDash}})
	predicted := c.State.Position

	if !pred.Reconcile(0, 1, start) {
		t.Fatal("correction not replayed")
	}
	if got := c.State.Position; !got.ApproxEqualThreshold(predicted, 1e-6) {
		t.Fatalf("moves made before the slowdown replayed to %v, predicted %v", got, predicted)
	}

	// The slowdown covers the next moves only.
	for range 20 {
		pred.Tick(forward(cfg, 0), tick)
	}
	c.RemoveModifier(h)
	predicted = c.State.Position

	if !pred.Reconcile(0, 2, start) {
		t.Fatal("second correction not replayed")
	}
	if got := c.State.Position; !got.ApproxEqualThreshold(predicted, 1e-6) {
		t.Errorf("slowed moves replayed to %v, predicted %v", got, predicted)
	}
	if c.SpeedMultiplier() != 1 || c.Blocks(AbilityDash) {
		t.Errorf("replay left speed %v, dash blocked %v", c.SpeedMultiplier(), c.Blocks(AbilityDash))
	}
	if pred.LastAck() != 0 || pred.Pending() == 0 {
		t.Errorf("offline predictor ack %d pending %d", pred.LastAck(), pred.Pending())
	}
}

func TestRestampEffects(t *testing.T) {
	c, cfg := newTestCharacter(t, flatWorld())
	pred := NewPredictor(c, nil)
	start := c.State.Snapshot()
	for range 20 {
		pred.Tick(forward(cfg, 0), tick)
	}
	predicted := c.State.Position

	// The server slowed the character right at the start.
	c.AddModifier(Modifier{SpeedMultiplier: 0.8})
	pred.RestampEffects()
	for _, m := range pred.buf.Unacknowledged(0) {
		if !m.Effects.Equal(Effects{SpeedMultiplier: 0.8}) {
			t.Fatalf("move %d kept effects %+v", m.Seq, m.Effects)
		}
	}

	pred.Reconcile(0, 1, start)
	if got := c.State.Position; got[0] >= predicted[0] {
		t.Errorf("restamped replay reached x=%.2f, unslowed prediction x=%.2f", got[0], predicted[0])
	}
}

func TestEffectsCombineModifiers(t *testing.T) {
	c, _ := newTestCharacter(t, flatWorld())
	if got := c.Effects(); !got.Equal(Effects{}) || got.SpeedMultiplier != 1 {
		t.Fatalf("no modifiers: %+v", got)
	}
	c.AddModifier(Modifier{SpeedMultiplier: 0.8, Blocked: []string{AbilityWallRun}})
	c.AddModifier(Modifier{SpeedMultiplier: 0.5, Blocked: []string{AbilityDash, AbilityWallRun}})

	want := Effects{SpeedMultiplier: 0.4, Blocked: []string{AbilityDash, AbilityWallRun}}
	if got := c.Effects(); math.Abs(got.SpeedMultiplier-0.4) > 1e-12 || !slices.Equal(got.Blocked, want.Blocked) {
		t.Errorf("Effects = %+v, want %+v", got, want)
	}

	c.withEffects(Effects{SpeedMultiplier: 1}, func() {
		if c.SpeedMultiplier() != 1 || c.Blocks(AbilityDash) {
			t.Error("replayed effects ignored")
		}
	})
	if !c.Blocks(AbilityDash) {
		t.Error("applied modifiers not restored after replay")
	}
}

func TestUnsentCountsContiguousMoves(t *testing.T) {
	c, cfg := newTestCharacter(t, flatWorld())
	pred := NewPredictor(c, func([]byte, uint32) error { return errors.New("offline") })
	for i := range 3 * moveBufferSize {
		// Alternate direction so no two moves combine.
		dir := mgl64.Vec3{1, 0, 0}
		if i%2 == 1 {
			dir = mgl64.Vec3{0, 1, 0}
		}
		pred.Tick(NewInput(dir, 0, cfg.MaxAcceleration), tick)
		if got, want := pred.unsent(), pred.Pending(); got != want {
			t.Fatalf("tick %d: unsent %d, held %d", i, got, want)
		}
	}
}
