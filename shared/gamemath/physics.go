package gamemath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ApplyBraking decelerates v toward zero with combined friction and constant
// braking deceleration, sub-stepped so large frames do not reverse direction.
func ApplyBraking(v mgl64.Vec3, dt, friction, brakingDecel, maxSubStep float64) mgl64.Vec3 {
	if v.LenSqr() < SmallNumber || dt < 1e-6 {
		return v
	}
	if friction <= 0 && brakingDecel <= 0 {
		return v
	}
	if maxSubStep <= 0 {
		maxSubStep = dt
	}

	oldVel := v
	revAccel := SafeNormal(v).Mul(-brakingDecel)
	remaining := dt
	for remaining >= 1e-6 {
		step := math.Min(remaining, maxSubStep)
		remaining -= step

		v = v.Add(v.Mul(-friction).Add(revAccel).Mul(step))
		if v.Dot(oldVel) <= 0 {
			return mgl64.Vec3{}
		}
	}
	if v.LenSqr() <= 1e-4 {
		return mgl64.Vec3{}
	}
	return v
}
