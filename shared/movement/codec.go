package movement

import (
	"errors"
	"fmt"
	"math"

	"github.com/automoto/breakaway-mp/shared/bitstream"
	"github.com/go-gl/mathgl/mgl64"
)

// MaxMovesPerPacket bounds a packet so its count fits in four bits.
const MaxMovesPerPacket = 15

const (
	countBits = 4
	accelBits = 16
	modeBits  = 3
)

var ErrBadMoveCount = errors.New("movement: move count out of range")

// WireMove is a move as the server receives it.
type WireMove struct {
	Seq          uint32
	DeltaTime    float32
	Acceleration mgl64.Vec3
	Flags        Flags

	HadAnimRootMotion  bool
	TransitionFinished bool

	ClientPosition mgl64.Vec3
	ClientMode     ModeID
	ClientRight    bool
}

// Input is the input the server re-simulates the move with.
func (w WireMove) Input() Input {
	return Input{Acceleration: w.Acceleration, Flags: w.Flags & inputFlags}
}

// Wire converts a saved move to its wire form.
func (m *SavedMove) Wire() WireMove {
	return WireMove{
		Seq:                m.Seq,
		DeltaTime:          float32(m.DeltaTime),
		Acceleration:       m.Acceleration,
		Flags:              m.Flags,
		HadAnimRootMotion:  m.HadAnimRootMotion,
		TransitionFinished: m.TransitionFinished,
		ClientPosition:     m.EndPosition,
		ClientMode:         m.EndMode,
		ClientRight:        m.EndRight,
	}
}

// MovePacket is one client to server batch. Correction echoes the last
// correction the client applied, so the server does not flag moves that were
// simulated before the client saw it.
type MovePacket struct {
	Correction uint32
	Moves      []WireMove
}

// EncodeMoves packs a batch into a bit buffer. The buffer grows as needed.
func EncodeMoves(p MovePacket) ([]byte, uint32, error) {
	if len(p.Moves) == 0 || len(p.Moves) > MaxMovesPerPacket {
		return nil, 0, fmt.Errorf("encode %d moves: %w", len(p.Moves), ErrBadMoveCount)
	}
	var w bitstream.Writer
	w.WriteIntPacked(p.Correction)
	w.WriteBits(uint64(len(p.Moves)), countBits)

	var prev uint32
	for i, m := range p.Moves {
		if i == 0 {
			w.WriteUint32(m.Seq)
		} else {
			w.WriteIntPacked(m.Seq - prev)
		}
		prev = m.Seq
		w.WriteFloat32(m.DeltaTime)
		for _, a := range m.Acceleration {
			w.WriteSigned(int64(math.Round(a*10)), accelBits)
		}
		w.WriteUint8(uint8(m.Flags))
		w.WriteBool(m.HadAnimRootMotion)
		w.WriteBool(m.TransitionFinished)
		for _, c := range m.ClientPosition {
			w.WriteZigZag(int32(math.Round(c * 10)))
		}
		w.WriteBits(uint64(m.ClientMode), modeBits)
		w.WriteBool(m.ClientRight)
	}
	return w.Bytes(), uint32(w.NumBits()), nil
}

// DecodeMoves unpacks a batch. Truncated or malformed input returns an error,
// never a panic.
func DecodeMoves(buf []byte, numBits uint32) (MovePacket, error) {
	r := bitstream.NewReader(buf, int(numBits))
	var p MovePacket
	p.Correction = r.ReadIntPacked()
	n := int(r.ReadBits(countBits))
	if err := r.Err(); err != nil {
		return MovePacket{}, fmt.Errorf("decode move header: %w", err)
	}
	if n == 0 {
		return MovePacket{}, fmt.Errorf("decode moves: %w", ErrBadMoveCount)
	}

	p.Moves = make([]WireMove, 0, n)
	var prev uint32
	for i := range n {
		var m WireMove
		if i == 0 {
			m.Seq = r.ReadUint32()
		} else {
			m.Seq = prev + r.ReadIntPacked()
		}
		prev = m.Seq
		m.DeltaTime = r.ReadFloat32()
		for j := range m.Acceleration {
			m.Acceleration[j] = float64(r.ReadSigned(accelBits)) / 10
		}
		m.Flags = Flags(r.ReadUint8())
		m.HadAnimRootMotion = r.ReadBool()
		m.TransitionFinished = r.ReadBool()
		for j := range m.ClientPosition {
			m.ClientPosition[j] = float64(r.ReadZigZag()) / 10
		}
		m.ClientMode = ModeID(r.ReadBits(modeBits))
		m.ClientRight = r.ReadBool()
		if err := r.Err(); err != nil {
			return MovePacket{}, fmt.Errorf("decode move %d: %w", i, err)
		}
		if dt := float64(m.DeltaTime); math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
			return MovePacket{}, fmt.Errorf("decode move %d: bad delta time %v", i, m.DeltaTime)
		}
		p.Moves = append(p.Moves, m)
	}
	return p, nil
}
