package systems

import (
	"github.com/automoto/breakaway-mp/components"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// NewNetInterpSystem advances remote entity interpolation so one server tick
// is spread over the frames it takes to arrive.
func NewNetInterpSystem(tickRate func() int) func(*ecs.ECS) {
	return func(e *ecs.ECS) {
		rate := tickRate()
		if rate <= 0 {
			rate = 20
		}
		step := float64(rate) / float64(ebiten.TPS())
		components.NetInterp.Each(e.World, func(entry *donburi.Entry) {
			components.NetInterp.Get(entry).Advance(step)
		})
	}
}
