package movement

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Flags is the compressed per-move flag byte. The low nibble holds the base
// movement bits, the high nibble the custom mode bits.
type Flags uint8

const (
	FlagJump   Flags = 0x01
	FlagCrouch Flags = 0x02

	FlagSprint       Flags = 0x10
	FlagDash         Flags = 0x20
	FlagWallRunRight Flags = 0x40
	FlagPrevCrouch   Flags = 0x80

	// inputFlags are written by the input handler, the rest by the physics step.
	inputFlags = FlagJump | FlagCrouch | FlagSprint | FlagDash
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// Input is what the player asks for in one simulated tick.
type Input struct {
	Acceleration mgl64.Vec3 // world space, cm/s^2, already quantized
	Flags        Flags      // only the input bits are read
}

// NewInput scales a stick/keyboard direction (length <= 1, Z ignored) into an
// acceleration and quantizes it the same way the wire does, so client and
// server simulate identical values.
func NewInput(dir mgl64.Vec3, flags Flags, maxAccel float64) Input {
	dir[2] = 0
	if l := dir.Len(); l > 1 {
		dir = dir.Mul(1 / l)
	}
	return Input{
		Acceleration: QuantizeAcceleration(dir.Mul(maxAccel)),
		Flags:        flags & inputFlags,
	}
}

// QuantizeAcceleration rounds each component to 0.1 cm/s^2.
func QuantizeAcceleration(a mgl64.Vec3) mgl64.Vec3 {
	for i := range a {
		a[i] = math.Round(a[i]*10) / 10
	}
	return a
}

// QuantizeDeltaTime rounds a frame time to the float32 the wire carries.
func QuantizeDeltaTime(dt float64) float64 {
	return float64(float32(dt))
}
