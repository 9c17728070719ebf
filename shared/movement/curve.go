package movement

import (
	"sort"

	"github.com/automoto/breakaway-mp/shared/settings"
	"github.com/tanema/gween/ease"
)

var easeFuncs = map[string]ease.TweenFunc{
	"linear":    ease.Linear,
	"inQuad":    ease.InQuad,
	"outQuad":   ease.OutQuad,
	"inOutQuad": ease.InOutQuad,
	"inCubic":   ease.InCubic,
	"outCubic":  ease.OutCubic,
	"inSine":    ease.InSine,
	"outSine":   ease.OutSine,
}

// Curve is a piecewise eased float curve. Outside its keys it holds the first
// or last value.
type Curve struct {
	keys []settings.CurveKey
}

func NewCurve(keys []settings.CurveKey) Curve {
	k := append([]settings.CurveKey(nil), keys...)
	sort.SliceStable(k, func(i, j int) bool { return k[i].Time < k[j].Time })
	return Curve{keys: k}
}

// Eval returns the curve value at t.
func (c Curve) Eval(t float64) float64 {
	if len(c.keys) == 0 {
		return 1
	}
	first, last := c.keys[0], c.keys[len(c.keys)-1]
	if t <= first.Time {
		return first.Value
	}
	if t >= last.Time {
		return last.Value
	}
	i := sort.Search(len(c.keys), func(i int) bool { return c.keys[i].Time > t }) - 1
	a, b := c.keys[i], c.keys[i+1]
	fn, ok := easeFuncs[a.Ease]
	if !ok {
		fn = ease.Linear
	}
	return float64(fn(float32(t-a.Time), float32(a.Value), float32(b.Value-a.Value), float32(b.Time-a.Time)))
}

// KnownEase reports whether name is a supported ease.
func KnownEase(name string) bool {
	_, ok := easeFuncs[name]
	return ok
}
