// Package netconfig defines lightweight types shared between client and server
// for network serialization. It must have zero dependencies on ebiten or any
// graphics library so the dedicated server binary stays headless.
package netconfig

// ProtocolVersion is checked on join; clients with a different version are
// rejected.
const ProtocolVersion = "breakaway/1"

// Team identifies a side. Relic code uses -1 for no team.
type Team = int

const (
	TeamBlue Team = iota
	TeamRed
	TeamCount // Must be last - used for array sizing
)

// TeamName returns the display name of a team.
func TeamName(t Team) string {
	switch t {
	case TeamBlue:
		return "blue"
	case TeamRed:
		return "red"
	}
	return "none"
}

// MatchStateID represents the current state of a match.
type MatchStateID int

const (
	MatchStateWaiting MatchStateID = iota // Not enough players yet
	MatchStatePlaying                     // Relic active
)

// RelicEventKind tags a cosmetic relic event multicast by the server.
type RelicEventKind uint8

const (
	RelicEventPickup RelicEventKind = iota + 1
	RelicEventDrop
	RelicEventThrow
	RelicEventScore
	RelicEventReset
	RelicEventRecovered
)

var relicEventNames = map[RelicEventKind]string{
	RelicEventPickup:    "pickup",
	RelicEventDrop:      "drop",
	RelicEventThrow:     "throw",
	RelicEventScore:     "score",
	RelicEventReset:     "reset",
	RelicEventRecovered: "recovered",
}

func (k RelicEventKind) String() string {
	if name, ok := relicEventNames[k]; ok {
		return name
	}
	return "unknown"
}
