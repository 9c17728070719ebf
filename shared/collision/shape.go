// Package collision is the world query primitive used by movement and relic
// physics: sweep an axis-aligned box (or a ray) through static level geometry
// and report the nearest blocking hit. Geometry is a set of convex blocks kept
// in a resolv space for horizontal broadphase.
package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Shape is an axis-aligned box described by its half extents. The zero Shape
// is a ray.
type Shape struct {
	HalfExtents mgl64.Vec3
}

// Box returns the box approximating a character capsule.
func Box(radius, halfHeight float64) Shape {
	return Shape{HalfExtents: mgl64.Vec3{radius, radius, halfHeight}}
}

// Ray returns a zero-extent shape.
func Ray() Shape { return Shape{} }

// Support returns how far the shape reaches along the unit direction n.
func (s Shape) Support(n mgl64.Vec3) float64 {
	e := s.HalfExtents
	return math.Abs(n[0])*e[0] + math.Abs(n[1])*e[1] + math.Abs(n[2])*e[2]
}

// Hit is the result of a sweep.
type Hit struct {
	Blocking         bool
	StartPenetrating bool
	Time             float64    // fraction of the sweep in [0,1]
	Distance         float64    // distance travelled before the hit
	ContactDistance  float64    // distance to first contact, before the skin pull-back
	Location         mgl64.Vec3 // shape centre at the hit
	Point            mgl64.Vec3 // approximate impact point on the surface
	Normal           mgl64.Vec3 // surface normal facing the shape
	PenetrationDepth float64
	Block            *Block
}

// Query is what movement and relic physics need from the world.
type Query interface {
	// Sweep returns the nearest blocking hit moving shape from start to end.
	Sweep(shape Shape, start, end mgl64.Vec3) Hit
	// Test reports whether anything blocks the sweep.
	Test(shape Shape, start, end mgl64.Vec3) bool
	// Overlap reports whether shape placed at p penetrates geometry.
	Overlap(shape Shape, p mgl64.Vec3) bool
	// Depenetrate returns the offset that pushes shape at p out of geometry.
	Depenetrate(shape Shape, p mgl64.Vec3) (mgl64.Vec3, bool)
}
