package collision

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Resolv tags for level geometry.
const (
	TagSolid = "solid"
	TagRamp  = "ramp"
	tagProbe = "probe"
)

// Rise is the horizontal direction a ramp climbs toward.
type Rise string

const (
	RisePosX Rise = "+x"
	RiseNegX Rise = "-x"
	RisePosY Rise = "+y"
	RiseNegY Rise = "-y"
)

type plane struct {
	n mgl64.Vec3 // outward unit normal
	d float64    // points inside satisfy n·p <= d
}

func (p plane) dist(x mgl64.Vec3) float64 { return p.n.Dot(x) - p.d }

// Block is a convex piece of static geometry.
type Block struct {
	Min, Max mgl64.Vec3
	Rise     Rise // empty for boxes
	planes   []plane
}

// NewBox returns an axis-aligned solid box.
func NewBox(min, max mgl64.Vec3) *Block {
	b := &Block{Min: min, Max: max}
	b.planes = boxPlanes(min, max)
	return b
}

// NewRamp returns a wedge filling the box footprint whose top rises from
// Min.Z at one edge to Max.Z at the opposite edge.
func NewRamp(min, max mgl64.Vec3, rise Rise) (*Block, error) {
	h := max[2] - min[2]
	b := &Block{Min: min, Max: max, Rise: rise}
	var top mgl64.Vec3
	var anchor mgl64.Vec3
	switch rise {
	case RisePosX:
		top = mgl64.Vec3{-h, 0, max[0] - min[0]}
		anchor = mgl64.Vec3{min[0], 0, min[2]}
	case RiseNegX:
		top = mgl64.Vec3{h, 0, max[0] - min[0]}
		anchor = mgl64.Vec3{max[0], 0, min[2]}
	case RisePosY:
		top = mgl64.Vec3{0, -h, max[1] - min[1]}
		anchor = mgl64.Vec3{0, min[1], min[2]}
	case RiseNegY:
		top = mgl64.Vec3{0, h, max[1] - min[1]}
		anchor = mgl64.Vec3{0, max[1], min[2]}
	default:
		return nil, fmt.Errorf("unknown ramp rise %q", rise)
	}
	top = top.Normalize()
	b.planes = append(boxPlanes(min, max), plane{n: top, d: top.Dot(anchor)})
	return b, nil
}

func boxPlanes(min, max mgl64.Vec3) []plane {
	return []plane{
		{n: mgl64.Vec3{1, 0, 0}, d: max[0]},
		{n: mgl64.Vec3{-1, 0, 0}, d: -min[0]},
		{n: mgl64.Vec3{0, 1, 0}, d: max[1]},
		{n: mgl64.Vec3{0, -1, 0}, d: -min[1]},
		{n: mgl64.Vec3{0, 0, 1}, d: max[2]},
		{n: mgl64.Vec3{0, 0, -1}, d: -min[2]},
	}
}

// IsRamp reports whether the block has a sloped top.
func (b *Block) IsRamp() bool { return b.Rise != "" }

// TopZ returns the height of the block's top surface above (x, y).
func (b *Block) TopZ(x, y float64) float64 {
	if !b.IsRamp() {
		return b.Max[2]
	}
	var f float64
	switch b.Rise {
	case RisePosX:
		f = (x - b.Min[0]) / (b.Max[0] - b.Min[0])
	case RiseNegX:
		f = (b.Max[0] - x) / (b.Max[0] - b.Min[0])
	case RisePosY:
		f = (y - b.Min[1]) / (b.Max[1] - b.Min[1])
	case RiseNegY:
		f = (b.Max[1] - y) / (b.Max[1] - b.Min[1])
	}
	f = mgl64.Clamp(f, 0, 1)
	return b.Min[2] + f*(b.Max[2]-b.Min[2])
}

// inflated returns the block planes grown by the shape's support so the shape
// can be treated as a point.
func (b *Block) inflated(s Shape) []plane {
	out := make([]plane, len(b.planes))
	for i, p := range b.planes {
		out[i] = plane{n: p.n, d: p.d + s.Support(p.n)}
	}
	return out
}

// sweep clips the segment start+t*delta against the inflated block.
func (b *Block) sweep(s Shape, start, delta mgl64.Vec3) (t float64, n mgl64.Vec3, rate float64, ok bool) {
	planes := b.inflated(s)

	tEnter, tExit := 0.0, 1.0
	entered := false
	for _, p := range planes {
		denom := p.n.Dot(delta)
		dist := p.dist(start)
		if dist > -touchTolerance && dist < 0 {
			dist = 0
		}
		if math.Abs(denom) < 1e-12 {
			if dist > 0 {
				return 0, n, 0, false
			}
			continue
		}
		pt := -dist / denom
		if denom < 0 {
			if pt >= tEnter {
				tEnter = pt
				n = p.n
				rate = -denom
				entered = true
			}
		} else if pt < tExit {
			tExit = pt
		}
		if tEnter > tExit {
			return 0, n, 0, false
		}
	}
	if !entered {
		return 0, n, 0, false
	}
	return tEnter, n, rate, true
}

// penetration returns the depth and push-out normal when the shape at p is
// inside the block by more than the touch tolerance.
func (b *Block) penetration(s Shape, p mgl64.Vec3) (float64, mgl64.Vec3, bool) {
	best := math.Inf(-1)
	var n mgl64.Vec3
	for _, pl := range b.inflated(s) {
		d := pl.dist(p)
		if d >= -touchTolerance {
			return 0, n, false
		}
		if d > best {
			best = d
			n = pl.n
		}
	}
	return -best, n, true
}
