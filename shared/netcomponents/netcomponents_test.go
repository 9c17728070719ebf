package netcomponents

import (
	"testing"

	"github.com/automoto/breakaway-mp/shared/movement"
	"github.com/automoto/breakaway-mp/shared/relic"
)

func TestLerpNetCharacter(t *testing.T) {
	from := NetCharacterData{Move: movement.Snapshot{Position: [3]float64{0, 0, 100}}}
	to := NetCharacterData{Team: 1, Ack: 9, Move: movement.Snapshot{Position: [3]float64{100, -50, 100}, Mode: movement.ModeFalling}}

	got := LerpNetCharacter(from, to, 0.25)
	if got.Move.Position != [3]float64{25, -12.5, 100} {
		t.Errorf("position = %v", got.Move.Position)
	}
	if got.Team != 1 || got.Ack != 9 || got.Move.Mode != movement.ModeFalling {
		t.Errorf("non-positional fields not taken from the newer state: %+v", got)
	}
	if to.Move.Position != [3]float64{100, -50, 100} {
		t.Error("lerp modified its input")
	}
}

func TestNetRelicSnapshot(t *testing.T) {
	snap := relic.Snapshot{
		State:       relic.Carried,
		Previous:    relic.Dropped,
		Carrier:     4,
		LastTeam:    1,
		TimeInState: 2.5,
		Position:    [3]float64{1, 2, 3},
		Velocity:    [3]float64{4, 5, 6},
	}
	got := NetRelicFromSnapshot(snap).Snapshot(7)
	snap.ResolvedKey = 7
	if got != snap {
		t.Errorf("snapshot = %+v, want %+v", got, snap)
	}
}

func TestLerpNetRelic(t *testing.T) {
	from := NetRelicData{Position: [3]float64{0, 0, 0}}
	to := NetRelicData{State: uint8(relic.Dropped), Position: [3]float64{10, 20, 30}}
	got := LerpNetRelic(from, to, 0.5)
	if got.Position != [3]float64{5, 10, 15} || got.State != uint8(relic.Dropped) {
		t.Errorf("lerp = %+v", got)
	}
}
