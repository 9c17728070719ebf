package systems

import (
	"fmt"
	"image/color"

	"github.com/automoto/breakaway-mp/components"
	cfg "github.com/automoto/breakaway-mp/config"
	"github.com/automoto/breakaway-mp/network"
	"github.com/automoto/breakaway-mp/shared/leveldata"
	"github.com/automoto/breakaway-mp/shared/movement"
	"github.com/automoto/breakaway-mp/shared/netcomponents"
	"github.com/automoto/breakaway-mp/shared/relic"
	"github.com/automoto/breakaway-mp/shared/settings"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/leap-fish/necs/esync"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/ecs"
)

// view bundles the camera and screen size for world-space drawing.
type view struct {
	cam  *components.CameraData
	w, h int
}

func newView(e *ecs.ECS, screen *ebiten.Image) (view, bool) {
	entry, ok := components.Camera.First(e.World)
	if !ok {
		return view{}, false
	}
	return view{cam: components.Camera.Get(entry), w: screen.Bounds().Dx(), h: screen.Bounds().Dy()}, true
}

func (v view) point(p [3]float64) (float32, float32) {
	return v.cam.WorldToScreen(p[0], p[1], v.w, v.h)
}

// rect converts a world XY box to a screen rectangle.
func (v view) rect(min, max [3]float64) (x, y, w, h float32) {
	x0, y0 := v.point(min)
	x1, y1 := v.point(max)
	return x0, y1, x1 - x0, y0 - y1
}

func (v view) scale(d float64) float32 { return float32(d * v.cam.Zoom) }

// DrawArena renders the level blocks shaded by height, and the goal zones.
func DrawArena(e *ecs.ECS, screen *ebiten.Image) {
	levelEntry, ok := components.Level.First(e.World)
	if !ok {
		return
	}
	arena := components.Level.Get(levelEntry).Arena
	v, ok := newView(e, screen)
	if arena == nil || !ok {
		return
	}

	for _, b := range arena.Blocks {
		x, y, w, h := v.rect(b.Min, b.Max)
		vector.FillRect(screen, x, y, w, h, blockColor(b), false)
	}
	for _, g := range arena.Goals {
		x, y, w, h := v.rect(g.Min, g.Max)
		c := cfg.TeamColor(g.Team)
		c.A = 90
		vector.FillRect(screen, x, y, w, h, c, false)
		vector.StrokeRect(screen, x, y, w, h, 2, cfg.TeamColor(g.Team), false)
	}
}

// blockColor gets lighter with height so walls, platforms and ramps read
// apart from the floor in a top-down view.
func blockColor(b leveldata.Block) color.RGBA {
	shade := uint8(min(60+b.Max[2]/4, 220))
	if b.Rise != "" {
		return color.RGBA{R: shade, G: shade, B: shade / 2, A: 255}
	}
	return color.RGBA{R: shade / 2, G: shade / 2, B: shade / 2, A: 255}
}

// NewPlayerRenderer draws remote players at their interpolated positions and
// the local player at its predicted position.
func NewPlayerRenderer(pred *network.Prediction) func(*ecs.ECS, *ebiten.Image) {
	return func(e *ecs.ECS, screen *ebiten.Image) {
		v, ok := newView(e, screen)
		if !ok {
			return
		}
		esync.NetworkEntityQuery.Each(e.World, func(entry *donburi.Entry) {
			if !entry.HasComponent(netcomponents.NetCharacter) {
				return
			}
			data := netcomponents.NetCharacter.Get(entry)
			if data.IsLocal {
				return
			}
			pos := data.Move.Position
			if entry.HasComponent(components.NetInterp) {
				pos = components.NetInterp.Get(entry).Current
			}
			drawCharacter(screen, v, pos, data.Move.Facing, data.Move.Mode, data.Team, data.Name, false)
		})

		if pred.Synced() {
			s := &pred.Predictor.Char.State
			drawCharacter(screen, v, s.Position, s.Facing, s.Mode.ID(), pred.Self.TeamID, "you", true)
		}
	}
}

func drawCharacter(screen *ebiten.Image, v view, pos, facing [3]float64, mode movement.ModeID, team int, label string, local bool) {
	x, y := v.point(pos)
	r := v.scale(settings.Movement.CapsuleRadius)
	vector.FillCircle(screen, x, y, r, cfg.TeamColor(team), true)
	if local {
		vector.StrokeCircle(screen, x, y, r+2, 2, cfg.BrightGreen, true)
	}
	fx, fy := v.point([3]float64{pos[0] + facing[0]*settings.Movement.CapsuleRadius*1.5, pos[1] + facing[1]*settings.Movement.CapsuleRadius*1.5})
	vector.StrokeLine(screen, x, y, fx, fy, 2, cfg.White, true)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s %c", label, modeLetter(mode)), int(x)-12, int(y-r)-16)
}

// modeLetter abbreviates a movement mode for the player label.
func modeLetter(m movement.ModeID) rune {
	switch m {
	case movement.ModeWalking:
		return 'W'
	case movement.ModeFalling:
		return 'F'
	case movement.ModeFlying:
		return 'D'
	case movement.ModeSliding:
		return 'S'
	case movement.ModeWallRunning:
		return 'R'
	}
	return '?'
}

// NewRelicRenderer draws the relic where the local view shows it.
func NewRelicRenderer(pred *network.Prediction) func(*ecs.ECS, *ebiten.Image) {
	return func(e *ecs.ECS, screen *ebiten.Image) {
		state := pred.Relic.DisplayState()
		if state == relic.Inactive {
			return
		}
		v, ok := newView(e, screen)
		if !ok {
			return
		}
		x, y := v.point(pred.Relic.Position())
		r := max(v.scale(settings.Relic.Radius), 4)
		vector.FillCircle(screen, x, y, r, relicColor(state), true)
		if pred.Relic.Predicting() {
			vector.StrokeCircle(screen, x, y, r+3, 1, cfg.White, true)
		}
	}
}

func relicColor(s relic.State) color.RGBA {
	switch s {
	case relic.Neutral:
		return cfg.Yellow
	case relic.Carried:
		return cfg.Orange
	case relic.Dropped, relic.Thrown:
		return cfg.Magenta
	case relic.Scoring:
		return cfg.BrightGreen
	case relic.Resetting:
		return cfg.Purple
	}
	return cfg.Grey
}
