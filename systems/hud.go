package systems

import (
	"fmt"
	"strings"

	"github.com/automoto/breakaway-mp/components"
	cfg "github.com/automoto/breakaway-mp/config"
	"github.com/automoto/breakaway-mp/network"
	"github.com/automoto/breakaway-mp/shared/gamemath"
	"github.com/automoto/breakaway-mp/shared/netconfig"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/yohamta/donburi/ecs"
)

const hudMargin = 8

// NewHUDRenderer draws the scoreboard and the local player's status line.
func NewHUDRenderer(pred *network.Prediction) func(*ecs.ECS, *ebiten.Image) {
	return func(e *ecs.ECS, screen *ebiten.Image) {
		match := getOrCreateMatch(e)
		w := screen.Bounds().Dx()

		board := scoreLine(match)
		if match.Flash > 0 && match.FlashTeam >= 0 {
			c := cfg.TeamColor(match.FlashTeam)
			c.A = uint8(min(match.Flash/scoreFlashSeconds, 1) * 160)
			vector.FillRect(screen, float32(w/2-120), 4, 240, 22, c, false)
		}
		ebitenutil.DebugPrintAt(screen, board, w/2-len(board)*3, 8)

		if !pred.Synced() {
			ebitenutil.DebugPrintAt(screen, "joining...", hudMargin, hudMargin)
			return
		}
		ebitenutil.DebugPrintAt(screen, statusLine(pred), hudMargin, screen.Bounds().Dy()-20)
	}
}

func scoreLine(m *components.MatchData) string {
	if m.State == netconfig.MatchStateWaiting {
		return "waiting for players"
	}
	parts := make([]string, 0, len(m.Scores))
	for team, score := range m.Scores {
		parts = append(parts, fmt.Sprintf("%s %d", netconfig.TeamName(team), score))
	}
	return strings.Join(parts, "  -  ")
}

func statusLine(pred *network.Prediction) string {
	s := &pred.Predictor.Char.State
	carrying := ""
	if pred.Relic.Attached() == pred.Self.NetID {
		carrying = "  CARRYING"
	}
	return fmt.Sprintf("%s  %s  speed %.0f  relic %s  ledger %d%s",
		netconfig.TeamName(pred.Self.TeamID), s.Mode, gamemath.Horizontal(s.Velocity).Len(),
		pred.Relic.DisplayState(), pred.Relic.Ledger.Len(), carrying)
}
