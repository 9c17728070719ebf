package netcomponents

import (
	"github.com/automoto/breakaway-mp/shared/relic"
	"github.com/yohamta/donburi"
)

type NetRelicData struct {
	State       uint8
	Previous    uint8
	Carrier     uint32 // NetworkId of the carrier, 0 when not carried
	LastTeam    int
	TimeInState float64
	Position    [3]float64
	Velocity    [3]float64 // Client extrapolation between snapshots
}

var NetRelic = donburi.NewComponentType[NetRelicData]()

// NetRelicFromSnapshot converts the authority's relic snapshot for
// replication.
func NetRelicFromSnapshot(s relic.Snapshot) NetRelicData {
	return NetRelicData{
		State:       uint8(s.State),
		Previous:    uint8(s.Previous),
		Carrier:     uint32(s.Carrier),
		LastTeam:    s.LastTeam,
		TimeInState: s.TimeInState,
		Position:    s.Position,
		Velocity:    s.Velocity,
	}
}

// Snapshot rebuilds the relic snapshot a client reconciles against.
// resolvedKey is the last prediction key the server answered for that client.
func (d NetRelicData) Snapshot(resolvedKey uint32) relic.Snapshot {
	return relic.Snapshot{
		State:       relic.State(d.State),
		Previous:    relic.State(d.Previous),
		Carrier:     relic.ID(d.Carrier),
		LastTeam:    d.LastTeam,
		TimeInState: d.TimeInState,
		Position:    d.Position,
		Velocity:    d.Velocity,
		ResolvedKey: resolvedKey,
	}
}

// LerpNetRelic interpolates between two relic states
func LerpNetRelic(from, to NetRelicData, t float64) *NetRelicData {
	out := to
	for i := range out.Position {
		out.Position[i] = from.Position[i] + (to.Position[i]-from.Position[i])*t
	}
	return &out
}
