package components

import "github.com/yohamta/donburi"

// NetInterpData stores interpolation state for smooth rendering of remote
// networked entities between server snapshots.
type NetInterpData struct {
	Prev        [3]float64
	Target      [3]float64
	Current     [3]float64
	T           float64
	Initialized bool
}

// Push starts a new interpolation segment toward target from wherever the
// entity is drawn now.
func (d *NetInterpData) Push(target [3]float64) {
	if !d.Initialized {
		d.Prev, d.Target, d.Current = target, target, target
		d.T = 1
		d.Initialized = true
		return
	}
	d.Prev = d.Current
	d.Target = target
	d.T = 0
}

// Advance moves along the segment by step (a fraction of a server tick) and
// returns the drawn position.
func (d *NetInterpData) Advance(step float64) [3]float64 {
	d.T = min(d.T+step, 1)
	for i := range d.Current {
		d.Current[i] = d.Prev[i] + (d.Target[i]-d.Prev[i])*d.T
	}
	return d.Current
}

var NetInterp = donburi.NewComponentType[NetInterpData]()
