package systems

import (
	"math"

	"github.com/automoto/breakaway-mp/components"
	"github.com/automoto/breakaway-mp/config"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/yohamta/donburi/ecs"
)

// NewNetCameraSystem returns an update system that follows the local player's
// predicted position, clamped so the arena fills the screen where it can.
func NewNetCameraSystem(target func() (mgl64.Vec3, bool)) func(*ecs.ECS) {
	return func(e *ecs.ECS) {
		cameraEntry, ok := components.Camera.First(e.World)
		if !ok {
			return
		}
		camera := components.Camera.Get(cameraEntry)

		levelEntry, ok := components.Level.First(e.World)
		if !ok {
			return
		}
		arena := components.Level.Get(levelEntry).Arena
		if arena == nil {
			return
		}

		pos, ok := target()
		if !ok {
			return
		}

		zoom := camera.Zoom
		if zoom == 0 {
			zoom = config.Camera.Zoom
			camera.Zoom = zoom
		}
		targetX := clampAxis(pos[0], float64(config.C.Width)/zoom, float64(arena.Width))
		targetY := clampAxis(pos[1], float64(config.C.Height)/zoom, float64(arena.Height))

		// Smooth follow
		camera.Position.X += (targetX - camera.Position.X) * config.Camera.FollowSmoothing
		camera.Position.Y += (targetY - camera.Position.Y) * config.Camera.FollowSmoothing
	}
}

// clampAxis keeps a visible span inside [0, size], centering when the span
// is larger than the arena.
func clampAxis(v, visible, size float64) float64 {
	lo, hi := visible/2, size-visible/2
	if lo > hi {
		return size / 2
	}
	return math.Max(lo, math.Min(hi, v))
}
