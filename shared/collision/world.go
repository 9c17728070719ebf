package collision

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/solarlune/resolv"
)

const (
	// Skin is the gap kept between a swept shape and the surface it hit.
	Skin = 0.1

	touchTolerance = 0.01
	cellSize       = 64
	spaceMargin    = 512
)

// World is the static level geometry. It is not safe for concurrent use: each
// simulation owner (server loop, client scene) builds its own.
type World struct {
	blocks []*Block
	space  *resolv.Space
	probe  *resolv.Object
	origin mgl64.Vec3

	seen map[*Block]struct{}
	buf  []*Block
}

// NewWorld indexes blocks for horizontal broadphase.
func NewWorld(blocks ...*Block) *World {
	w := &World{blocks: blocks, seen: make(map[*Block]struct{})}

	min := mgl64.Vec3{math.Inf(1), math.Inf(1), 0}
	max := mgl64.Vec3{math.Inf(-1), math.Inf(-1), 0}
	for _, b := range blocks {
		min[0] = math.Min(min[0], b.Min[0])
		min[1] = math.Min(min[1], b.Min[1])
		max[0] = math.Max(max[0], b.Max[0])
		max[1] = math.Max(max[1], b.Max[1])
	}
	if len(blocks) == 0 {
		min, max = mgl64.Vec3{}, mgl64.Vec3{}
	}
	w.origin = mgl64.Vec3{min[0] - spaceMargin, min[1] - spaceMargin, 0}
	width := int(max[0]-min[0]) + 2*spaceMargin
	height := int(max[1]-min[1]) + 2*spaceMargin
	w.space = resolv.NewSpace(width, height, cellSize, cellSize)

	for _, b := range blocks {
		x, y := b.Min[0]-w.origin[0], b.Min[1]-w.origin[1]
		bw, bh := b.Max[0]-b.Min[0], b.Max[1]-b.Min[1]
		tags := []string{TagSolid}
		if b.IsRamp() {
			tags = append(tags, TagRamp, string(b.Rise))
		}
		obj := resolv.NewObject(x, y, bw, bh, tags...)
		obj.SetShape(resolv.NewRectangle(0, 0, bw, bh))
		obj.Data = b
		w.space.Add(obj)
	}

	w.probe = resolv.NewObject(0, 0, 1, 1, tagProbe)
	w.space.Add(w.probe)
	return w
}

// Blocks returns the geometry in insertion order.
func (w *World) Blocks() []*Block { return w.blocks }

// candidates returns blocks whose footprint may touch the XY box spanning
// a and b grown by the shape extents.
func (w *World) candidates(s Shape, a, b mgl64.Vec3) []*Block {
	e := s.HalfExtents
	minX := math.Min(a[0], b[0]) - e[0] - touchTolerance - 1
	minY := math.Min(a[1], b[1]) - e[1] - touchTolerance - 1
	maxX := math.Max(a[0], b[0]) + e[0] + touchTolerance + 1
	maxY := math.Max(a[1], b[1]) + e[1] + touchTolerance + 1

	w.probe.X = minX - w.origin[0]
	w.probe.Y = minY - w.origin[1]
	w.probe.W = maxX - minX
	w.probe.H = maxY - minY
	w.probe.Update()

	w.buf = w.buf[:0]
	clear(w.seen)
	check := w.probe.Check(0, 0, TagSolid)
	if check == nil {
		return w.buf
	}
	for _, obj := range check.ObjectsByTags(TagSolid) {
		blk, ok := obj.Data.(*Block)
		if !ok {
			continue
		}
		if _, dup := w.seen[blk]; dup {
			continue
		}
		w.seen[blk] = struct{}{}
		w.buf = append(w.buf, blk)
	}
	return w.buf
}

// Sweep returns the nearest blocking hit moving shape from start to end.
func (w *World) Sweep(s Shape, start, end mgl64.Vec3) Hit {
	delta := end.Sub(start)
	length := delta.Len()
	best := Hit{Time: 1, Location: end}
	bestRate := 0.0

	for _, b := range w.candidates(s, start, end) {
		if depth, n, inside := b.penetration(s, start); inside {
			if !best.StartPenetrating || depth > best.PenetrationDepth {
				best = Hit{
					Blocking:         true,
					StartPenetrating: true,
					Location:         start,
					Normal:           n,
					PenetrationDepth: depth,
					Block:            b,
				}
			}
			continue
		}
		if best.StartPenetrating || length < 1e-9 {
			continue
		}
		t, n, rate, ok := b.sweep(s, start, delta)
		if !ok || t > best.Time || (best.Blocking && t == best.Time) {
			continue
		}
		best = Hit{Blocking: true, Time: t, Normal: n, Block: b}
		bestRate = rate
	}

	if !best.Blocking || best.StartPenetrating {
		if best.StartPenetrating {
			best.Point = start.Sub(best.Normal.Mul(s.Support(best.Normal)))
		}
		return best
	}

	// Pull back along the sweep so the shape rests Skin away from the surface.
	raw := best.Time
	if bestRate > 0 && length > 0 {
		best.Time = math.Max(0, raw-Skin/length)
	}
	best.Location = start.Add(delta.Mul(best.Time))
	best.Distance = length * best.Time
	best.ContactDistance = length * raw
	best.Point = start.Add(delta.Mul(raw)).Sub(best.Normal.Mul(s.Support(best.Normal)))
	return best
}

// Test reports whether anything blocks the sweep.
func (w *World) Test(s Shape, start, end mgl64.Vec3) bool {
	delta := end.Sub(start)
	for _, b := range w.candidates(s, start, end) {
		if _, _, inside := b.penetration(s, start); inside {
			return true
		}
		if _, _, _, ok := b.sweep(s, start, delta); ok {
			return true
		}
	}
	return false
}

// Overlap reports whether shape placed at p penetrates any block.
func (w *World) Overlap(s Shape, p mgl64.Vec3) bool {
	for _, b := range w.candidates(s, p, p) {
		if _, _, inside := b.penetration(s, p); inside {
			return true
		}
	}
	return false
}

// Depenetrate returns the offset that moves shape at p out of every block it
// penetrates, resolving the deepest first. It gives up after a few passes.
func (w *World) Depenetrate(s Shape, p mgl64.Vec3) (mgl64.Vec3, bool) {
	var total mgl64.Vec3
	for range 4 {
		var worst *Block
		var depth float64
		var n mgl64.Vec3
		for _, b := range w.candidates(s, p.Add(total), p.Add(total)) {
			if d, bn, inside := b.penetration(s, p.Add(total)); inside && d > depth {
				worst, depth, n = b, d, bn
			}
		}
		if worst == nil {
			return total, true
		}
		total = total.Add(n.Mul(depth + Skin))
	}
	return total, !w.Overlap(s, p.Add(total))
}
