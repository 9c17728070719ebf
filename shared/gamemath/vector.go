// Package gamemath holds the small vector helpers shared by movement and relic
// physics. Z is up.
package gamemath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SmallNumber is the length below which a vector has no usable direction.
const SmallNumber = 1e-8

var (
	Up      = mgl64.Vec3{0, 0, 1}
	Zero    = mgl64.Vec3{}
	Forward = mgl64.Vec3{1, 0, 0}
)

// SafeNormal returns v normalized, or the zero vector if v is too short.
func SafeNormal(v mgl64.Vec3) mgl64.Vec3 {
	sq := v.LenSqr()
	if sq < SmallNumber {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / math.Sqrt(sq))
}

// SafeNormal2D returns the horizontal part of v normalized, or zero.
func SafeNormal2D(v mgl64.Vec3) mgl64.Vec3 {
	return SafeNormal(Horizontal(v))
}

// Horizontal drops the Z component.
func Horizontal(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v[0], v[1], 0}
}

// Size2D is the horizontal length of v.
func Size2D(v mgl64.Vec3) float64 {
	return math.Hypot(v[0], v[1])
}

// SizeSquared2D is the squared horizontal length of v.
func SizeSquared2D(v mgl64.Vec3) float64 {
	return v[0]*v[0] + v[1]*v[1]
}

// PlaneProject removes the component of v along the plane normal n.
func PlaneProject(v, n mgl64.Vec3) mgl64.Vec3 {
	return v.Sub(n.Mul(v.Dot(n)))
}

// ProjectOnto returns the projection of v onto the direction d.
func ProjectOnto(v, d mgl64.Vec3) mgl64.Vec3 {
	sq := d.LenSqr()
	if sq < SmallNumber {
		return mgl64.Vec3{}
	}
	return d.Mul(v.Dot(d) / sq)
}

// ClampMaxSize shortens v to max if it is longer.
func ClampMaxSize(v mgl64.Vec3, max float64) mgl64.Vec3 {
	if max < SmallNumber {
		return mgl64.Vec3{}
	}
	sq := v.LenSqr()
	if sq > max*max {
		return v.Mul(max / math.Sqrt(sq))
	}
	return v
}

// Lerp interpolates between a and b.
func Lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// LerpFloat interpolates between two scalars.
func LerpFloat(a, b, t float64) float64 {
	return a + (b-a)*t
}

// RightOf returns the right-hand horizontal direction of a facing vector.
func RightOf(forward mgl64.Vec3) mgl64.Vec3 {
	f := SafeNormal2D(forward)
	return mgl64.Vec3{f[1], -f[0], 0}
}

// IsNearlyZero reports whether every component of v is within tol of zero.
func IsNearlyZero(v mgl64.Vec3, tol float64) bool {
	return math.Abs(v[0]) <= tol && math.Abs(v[1]) <= tol && math.Abs(v[2]) <= tol
}

// IsFinite reports whether v has no NaN or infinite component.
func IsFinite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
