package core

import (
	"log"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/automoto/breakaway-mp/server/store"
	"github.com/automoto/breakaway-mp/shared/movement"
	"github.com/automoto/breakaway-mp/shared/netcomponents"
	"github.com/automoto/breakaway-mp/shared/netconfig"
	"github.com/automoto/breakaway-mp/shared/relic"
	"github.com/automoto/breakaway-mp/shared/settings"
	"github.com/automoto/breakaway-mp/shared/timer"
	"github.com/oklog/ulid/v2"
)

// Recorder persists match history. *store.Store implements it.
type Recorder interface {
	RecordScore(matchID ulid.ULID, team int, carrier uint32, at time.Time) error
	RecordIncident(matchID ulid.ULID, kind, subject string, detail store.IncidentDetail, at time.Time) (ulid.ULID, error)
}

// Match is the authoritative simulation of one level: the players' movement,
// the relic and the score. It is owned by the game loop goroutine.
type Match struct {
	ID       ulid.ULID
	Level    *ServerLevel
	Relic    *relic.Relic
	Watchdog *relic.Watchdog
	Scores   *relic.Scoreboard

	// MinPlayers is how many players must be connected for the relic to be
	// in play.
	MinPlayers int

	timers  *timer.Scheduler
	players map[relic.ID]*Player
	roster  relic.RosterMap
	state   netconfig.MatchStateID
	joined  [netconfig.TeamCount]int
	events  []any
	rec     Recorder
	now     func() time.Time
}

// NewMatch builds a waiting match on level. rec may be nil.
func NewMatch(id ulid.ULID, level *ServerLevel, rec Recorder, rng *rand.Rand) *Match {
	m := &Match{
		ID:         id,
		Level:      level,
		Scores:     relic.NewScoreboard(settings.Relic.PointsPerScore),
		MinPlayers: 1,
		timers:     timer.NewScheduler(),
		players:    make(map[relic.ID]*Player),
		roster:     relic.RosterMap{},
		rec:        rec,
		now:        time.Now,
	}
	m.Relic = relic.NewRelic(&settings.Relic, level.World, m.timers, m.roster, level.RelicSpawns, rng)
	m.Relic.OnTransition = m.onRelicTransition
	m.Relic.OnScore = m.onScore
	m.Watchdog = relic.NewWatchdog(&settings.Watchdog, m.Relic)
	m.Watchdog.OnRecover = m.onRecover
	for t := range netconfig.TeamCount {
		m.Scores.Set(t, 0)
	}
	return m
}

func (m *Match) State() netconfig.MatchStateID { return m.state }

// Player returns a connected player.
func (m *Match) Player(id relic.ID) (*Player, bool) {
	p, ok := m.players[id]
	return p, ok
}

// Players returns the connected players ordered by id.
func (m *Match) Players() []*Player {
	out := make([]*Player, 0, len(m.players))
	for _, p := range m.players {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b *Player) int { return int(a.ID) - int(b.ID) })
	return out
}

// BalancedTeam returns the team with the fewest players.
func (m *Match) BalancedTeam() int {
	var counts [netconfig.TeamCount]int
	for _, p := range m.players {
		counts[p.Team]++
	}
	best := 0
	for t := 1; t < netconfig.TeamCount; t++ {
		if counts[t] < counts[best] {
			best = t
		}
	}
	return best
}

// AddPlayer spawns a player on team, or on the emptier team when team is
// out of range.
func (m *Match) AddPlayer(id relic.ID, name string, team int) *Player {
	if team < 0 || team >= netconfig.TeamCount {
		team = m.BalancedTeam()
	}
	spawn := m.Level.Spawn(team, m.joined[team])
	m.joined[team]++

	p := newPlayer(m.Level, id, name, team, spawn)
	p.Char.OnSuspectedCheat = func(reason string) {
		m.recordIncident(store.KindCheat, p.Name, store.IncidentDetail{
			Position: p.Char.State.Position,
			Note:     reason,
		})
	}
	m.players[id] = p
	m.roster.Add(p.Carrier)
	log.Printf("[server] %s joined team %s at (%.0f, %.0f, %.0f)",
		name, netconfig.TeamName(team), spawn[0], spawn[1], spawn[2])

	if m.state == netconfig.MatchStateWaiting && len(m.players) >= m.MinPlayers {
		m.start()
	}
	return p
}

// RemovePlayer takes a player out of the match. A departing carrier drops
// the relic where they stood.
func (m *Match) RemovePlayer(id relic.ID) {
	p, ok := m.players[id]
	if !ok {
		return
	}
	if m.Relic.Machine.Carrier() == id {
		m.Relic.DropRelic(false)
	}
	delete(m.players, id)
	delete(m.roster, id)
	log.Printf("[server] %s left", p.Name)

	if m.state == netconfig.MatchStatePlaying && len(m.players) < m.MinPlayers {
		m.state = netconfig.MatchStateWaiting
		m.Relic.Deactivate()
		log.Printf("[server] match %s waiting for players", m.ID)
	}
}

func (m *Match) start() {
	m.state = netconfig.MatchStatePlaying
	m.Relic.Activate()
	log.Printf("[server] match %s started on %s", m.ID, m.Level.Arena.Name)
}

// QueueMoves buffers a decoded move packet for the next tick.
func (m *Match) QueueMoves(id relic.ID, pkt movement.MovePacket) {
	if p, ok := m.players[id]; ok {
		p.enqueue(pkt)
	}
}

// Step advances the match by one server tick: queued moves are simulated,
// then the relic runs in sub-steps with pickup and goal checks, then the
// watchdog inspects the result.
func (m *Match) Step(dt float64) {
	players := m.Players()
	for _, p := range players {
		p.processMoves()
		if p.Char.State.Position[2] < settings.Watchdog.KillZ {
			log.Printf("[server] %s fell out of the level, respawning", p.Name)
			p.teleport(m.Level.Spawn(p.Team, 0))
		}
	}

	steps := max(settings.Net.PhysicsSubsteps, 1)
	sub := dt / float64(steps)
	candidates := make([]relic.Carrier, len(players))
	for i, p := range players {
		candidates[i] = p.Carrier
	}
	for range steps {
		m.timers.Advance(sub)
		if m.state != netconfig.MatchStatePlaying {
			continue
		}
		m.Relic.Tick(sub)
		m.Relic.CheckAutoPickup(candidates)
		relic.CheckGoals(m.Relic, m.Level.Goals)
	}

	if m.state == netconfig.MatchStatePlaying {
		m.Watchdog.Check()
	}
}

// NetRelic is the replicated relic state.
func (m *Match) NetRelic() netcomponents.NetRelicData {
	return netcomponents.NetRelicFromSnapshot(m.Relic.Snapshot())
}

// NetMatch is the replicated match state.
func (m *Match) NetMatch() netcomponents.NetMatchData {
	return netcomponents.NetMatchData{
		MatchID:    m.ID.String(),
		Level:      m.Level.Arena.Name,
		MatchState: m.state,
		Scores:     m.scoreList(),
	}
}

// DrainEvents returns the messages to broadcast since the last call.
func (m *Match) DrainEvents() []any {
	out := m.events
	m.events = nil
	return out
}

func (m *Match) scoreList() []int {
	scores := make([]int, netconfig.TeamCount)
	for t := range scores {
		scores[t] = m.Scores.Score(t)
	}
	return scores
}

func (m *Match) recordIncident(kind, subject string, detail store.IncidentDetail) {
	if m.rec == nil {
		return
	}
	if _, err := m.rec.RecordIncident(m.ID, kind, subject, detail, m.now()); err != nil {
		log.Printf("[store] Warning: %s incident not recorded: %v", kind, err)
	}
}
