// Package relic implements the possession object: its state machine, the
// authoritative actor, client prediction with its ledger, remote smoothing,
// goal zones and the recovery watchdog.
package relic

import "fmt"

// State is the possession state of the relic.
type State uint8

const (
	Inactive State = iota
	Neutral
	Carried
	Dropped
	Scoring
	Resetting
	Thrown
)

var stateNames = [...]string{"Inactive", "Neutral", "Carried", "Dropped", "Scoring", "Resetting", "Thrown"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}

// ParseState is the inverse of String, used by debug commands.
func ParseState(name string) (State, bool) {
	for i, n := range stateNames {
		if n == name {
			return State(i), true
		}
	}
	return Inactive, false
}

// simulatesPhysics reports whether the body is free in the given state.
func (s State) simulatesPhysics() bool {
	switch s {
	case Neutral, Dropped, Thrown:
		return true
	}
	return false
}

// NoTeam marks a relic nobody has possessed yet.
const NoTeam = -1

// Snapshot is the replicated form of the relic.
type Snapshot struct {
	State       State
	Previous    State
	Carrier     ID
	LastTeam    int
	TimeInState float64
	Position    [3]float64
	Velocity    [3]float64
	// ResolvedKey is the newest prediction key the authority has answered for
	// the receiving client.
	ResolvedKey uint32
}
