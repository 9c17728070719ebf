package gamemath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// LaunchVelocity returns a velocity along the horizontal facing direction
// pitched up by angleDeg.
func LaunchVelocity(facing mgl64.Vec3, speed, angleDeg float64) mgl64.Vec3 {
	dir := SafeNormal2D(facing)
	if dir.LenSqr() == 0 {
		dir = Forward
	}
	rad := mgl64.DegToRad(angleDeg)
	return dir.Mul(math.Cos(rad) * speed).Add(Up.Mul(math.Sin(rad) * speed))
}
