package systems

import (
	"fmt"
	"image/color"

	"github.com/automoto/breakaway-mp/components"
	cfg "github.com/automoto/breakaway-mp/config"
	"github.com/automoto/breakaway-mp/shared/messages"
	"github.com/automoto/breakaway-mp/shared/netcomponents"
	"github.com/automoto/breakaway-mp/shared/netconfig"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/leap-fish/necs/esync"
	"github.com/yohamta/donburi/ecs"
)

const scoreFlashSeconds = 2.0

// EventSource yields the cosmetic events the server multicast since the last
// frame. *network.Client implements it.
type EventSource interface {
	DrainRelicEvents() []messages.RelicEvent
	DrainScoreEvents() []messages.ScoreEvent
}

// NewNetEventSystem returns a system that turns relic and score events into
// feed lines and the score flash.
func NewNetEventSystem(src EventSource) func(*ecs.ECS) {
	return func(e *ecs.ECS) {
		for _, evt := range src.DrainRelicEvents() {
			name := characterName(e, evt.CarrierID)
			pushFeed(e, describeRelicEvent(evt, name), cfg.TeamColor(evt.Team))
		}
		for _, evt := range src.DrainScoreEvents() {
			match := getOrCreateMatch(e)
			match.Scores = append(match.Scores[:0], evt.Scores...)
			match.FlashTeam = evt.Team
			match.Flash = scoreFlashSeconds
			pushFeed(e, describeScore(evt), cfg.TeamColor(evt.Team))
		}
	}
}

// UpdateFeed ages feed lines and the score flash.
func UpdateFeed(e *ecs.ECS) {
	dt := 1 / float64(ebiten.TPS())
	getOrCreateFeed(e).Age(dt)
	match := getOrCreateMatch(e)
	match.Flash = max(match.Flash-dt, 0)
}

// DrawFeed renders recent events under the scoreboard.
func DrawFeed(e *ecs.ECS, screen *ebiten.Image) {
	feed := getOrCreateFeed(e)
	y := cfg.Feed.TopY
	for _, line := range feed.Lines {
		ebitenutil.DebugPrintAt(screen, line.Text, 8, y)
		y += 16
	}
}

func describeRelicEvent(evt messages.RelicEvent, name string) string {
	team := netconfig.TeamName(evt.Team)
	switch evt.Kind {
	case netconfig.RelicEventPickup:
		return fmt.Sprintf("%s (%s) picked up the relic", name, team)
	case netconfig.RelicEventDrop:
		return fmt.Sprintf("%s dropped the relic", name)
	case netconfig.RelicEventThrow:
		return fmt.Sprintf("%s threw the relic", name)
	case netconfig.RelicEventScore:
		return fmt.Sprintf("%s scored for %s", name, team)
	case netconfig.RelicEventReset:
		return "the relic returned to its spawn"
	case netconfig.RelicEventRecovered:
		return "the relic was recovered"
	}
	return "relic " + evt.Kind.String()
}

func describeScore(evt messages.ScoreEvent) string {
	s := fmt.Sprintf("%s +%d", netconfig.TeamName(evt.Team), evt.Points)
	for team, score := range evt.Scores {
		s += fmt.Sprintf("  %s %d", netconfig.TeamName(team), score)
	}
	return s
}

// characterName looks up the replicated name of a network entity.
func characterName(e *ecs.ECS, id uint) string {
	if id == 0 {
		return "someone"
	}
	entity := esync.FindByNetworkId(e.World, esync.NetworkId(id))
	if !e.World.Valid(entity) {
		return fmt.Sprintf("player %d", id)
	}
	entry := e.World.Entry(entity)
	if !entry.HasComponent(netcomponents.NetCharacter) {
		return fmt.Sprintf("player %d", id)
	}
	return netcomponents.NetCharacter.Get(entry).Name
}

func pushFeed(e *ecs.ECS, text string, c color.RGBA) {
	getOrCreateFeed(e).Push(components.FeedLine{Text: text, Color: c, Remaining: cfg.Feed.Duration}, cfg.Feed.MaxLines)
}

// getOrCreateFeed returns the singleton Feed component
func getOrCreateFeed(e *ecs.ECS) *components.FeedData {
	entry, ok := components.Feed.First(e.World)
	if !ok {
		entry = e.World.Entry(e.World.Create(components.Feed))
	}
	return components.Feed.Get(entry)
}

// getOrCreateMatch returns the singleton Match component
func getOrCreateMatch(e *ecs.ECS) *components.MatchData {
	entry, ok := components.Match.First(e.World)
	if !ok {
		entry = e.World.Entry(e.World.Create(components.Match))
		components.Match.SetValue(entry, components.MatchData{FlashTeam: -1})
	}
	return components.Match.Get(entry)
}
