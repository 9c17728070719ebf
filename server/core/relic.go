package core

import (
	"log"

	"github.com/automoto/breakaway-mp/server/store"
	"github.com/automoto/breakaway-mp/shared/messages"
	"github.com/automoto/breakaway-mp/shared/netconfig"
	"github.com/automoto/breakaway-mp/shared/relic"
)

// HandleRelicRequest applies a client's pickup, drop or throw. The request's
// prediction key is marked answered whether or not it succeeded, so the
// client reconciles against the next snapshot either way.
//
// The client sends every move it made before the request, so the moves
// queued now run first and the carrier modifiers start at the same move on
// both sides.
func (m *Match) HandleRelicRequest(id relic.ID, req messages.RelicRequest) bool {
	p, ok := m.players[id]
	if !ok {
		return false
	}
	p.processMoves()
	if req.Team != p.Team {
		log.Printf("[relic] Warning: %s asked as team %d but plays for %d", p.Name, req.Team, p.Team)
	}

	kind := relic.Request(req.Kind)
	var done bool
	switch kind {
	case relic.RequestPickup:
		done = m.Relic.InPickupRange(p.Carrier) && m.Relic.TryPickup(p.Carrier)
	case relic.RequestDrop:
		done = m.Relic.Machine.Carrier() == id && m.Relic.DropRelic(true)
	case relic.RequestThrow:
		done = m.Relic.Machine.Carrier() == id && m.Relic.ThrowRelic()
	default:
		log.Printf("[relic] Warning: unknown request %d from %s", req.Kind, p.Name)
	}

	if req.PredictionKey != 0 {
		p.relicKey = req.PredictionKey
	}
	if !done {
		log.Printf("[relic] %s %s refused in %s", p.Name, kind, m.Relic.State())
	}
	return done
}

func (m *Match) onRelicTransition(t relic.Transition) {
	var kind netconfig.RelicEventKind
	carrier := t.Carrier
	switch t.To {
	case relic.Carried:
		kind = netconfig.RelicEventPickup
	case relic.Dropped:
		kind, carrier = netconfig.RelicEventDrop, t.Previous
	case relic.Thrown:
		kind = netconfig.RelicEventThrow
	case relic.Scoring:
		kind, carrier = netconfig.RelicEventScore, t.Previous
	case relic.Resetting, relic.Neutral:
		kind = netconfig.RelicEventReset
	default:
		return
	}
	m.emitRelicEvent(kind, carrier)
}

func (m *Match) emitRelicEvent(kind netconfig.RelicEventKind, carrier relic.ID) {
	pos := m.Relic.Body.Position
	m.events = append(m.events, messages.RelicEvent{
		Kind:      kind,
		State:     uint8(m.Relic.State()),
		CarrierID: uint(carrier),
		Team:      m.Relic.Machine.LastTeam(),
		X:         pos[0],
		Y:         pos[1],
		Z:         pos[2],
	})
}

func (m *Match) onScore(team int, carrier relic.ID) {
	total := m.Scores.Credit(team)
	log.Printf("[relic] team %s scored (carrier=%d, total=%d)", netconfig.TeamName(team), carrier, total)
	if m.rec != nil {
		if err := m.rec.RecordScore(m.ID, team, uint32(carrier), m.now()); err != nil {
			log.Printf("[store] Warning: score not recorded: %v", err)
		}
	}
	m.events = append(m.events, messages.ScoreEvent{
		Team:    team,
		Points:  m.Scores.PointsPerScore,
		Scores:  m.scoreList(),
		Carrier: uint(carrier),
	})
}

func (m *Match) onRecover(inc relic.Incident) {
	m.recordIncident(store.KindWatchdog, "relic", store.IncidentDetail{
		State:       inc.State.String(),
		TimeInState: inc.TimeInState,
		Position:    inc.Position,
		Action:      inc.Action,
		Note:        inc.Problem.String(),
	})
	m.emitRelicEvent(netconfig.RelicEventRecovered, 0)
}
