package components

import (
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/math"
)

type CameraData struct {
	Position math.Vec2 // World XY at the center of the screen
	Zoom     float64   // Screen pixels per world unit
}

var Camera = donburi.NewComponentType[CameraData]()

// WorldToScreen maps world XY to screen pixels. World +Y is drawn up.
func (c *CameraData) WorldToScreen(x, y float64, screenW, screenH int) (float32, float32) {
	sx := (x-c.Position.X)*c.Zoom + float64(screenW)/2
	sy := float64(screenH)/2 - (y-c.Position.Y)*c.Zoom
	return float32(sx), float32(sy)
}
