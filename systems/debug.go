package systems

import (
	"fmt"
	"image/color"

	"github.com/automoto/breakaway-mp/components"
	cfg "github.com/automoto/breakaway-mp/config"
	"github.com/automoto/breakaway-mp/network"
	"github.com/automoto/breakaway-mp/shared/settings"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/yohamta/donburi/ecs"
)

var (
	debugRampColor  = color.RGBA{0, 255, 255, 255}
	debugSolidColor = color.RGBA{160, 160, 160, 255}
)

// NewDebugRenderer draws collision outlines, the pickup radius and the
// prediction counters while the overlay is on (F3).
func NewDebugRenderer(pred *network.Prediction) func(*ecs.ECS, *ebiten.Image) {
	return func(e *ecs.ECS, screen *ebiten.Image) {
		if !cfg.Settings.ShowDebug {
			return
		}
		v, ok := newView(e, screen)
		if !ok {
			return
		}

		if levelEntry, ok := components.Level.First(e.World); ok {
			if world := components.Level.Get(levelEntry).World; world != nil {
				for _, b := range world.Blocks() {
					c := debugSolidColor
					if b.Rise != "" {
						c = debugRampColor
					}
					x, y, w, h := v.rect(b.Min, b.Max)
					vector.StrokeRect(screen, x, y, w, h, 1, c, false)
				}
			}
		}

		x, y := v.point(pred.Relic.Position())
		vector.StrokeCircle(screen, x, y, v.scale(settings.Relic.PickupRadius), 1, cfg.Yellow, true)

		if pred.Synced() {
			s := &pred.Predictor.Char.State
			half := pred.Predictor.Char.Shape().HalfExtents
			bx, by, bw, bh := v.rect(s.Position.Sub(half), s.Position.Add(half))
			vector.StrokeRect(screen, bx, by, bw, bh, 1, cfg.BrightGreen, false)
		}

		lines := []string{
			fmt.Sprintf("TPS %.0f  FPS %.0f", ebiten.ActualTPS(), ebiten.ActualFPS()),
			fmt.Sprintf("moves: pending %d  ack %d  corrections %d",
				pred.Predictor.Pending(), pred.Predictor.LastAck(), pred.Predictor.Corrections()),
			fmt.Sprintf("relic: %s (server %s)  predicting %v  ledger %d  corrections %d",
				pred.Relic.DisplayState(), pred.Relic.State(), pred.Relic.Predicting(),
				pred.Relic.Ledger.Len(), pred.Relic.Corrections()),
			fmt.Sprintf("crouch mode: %s", crouchModeLabel(cfg.Settings.ToggleCrouch)),
		}
		for i, l := range lines {
			ebitenutil.DebugPrintAt(screen, l, screen.Bounds().Dx()-420, 40+i*16)
		}
	}
}
