package messages

import "github.com/automoto/breakaway-mp/shared/netconfig"

// RelicRequest asks the server to pick up, drop or throw the relic.
// PredictionKey is the client's ledger key, 0 when nothing was predicted.
type RelicRequest struct {
	Kind          uint8 // relic.Request
	PredictionKey uint32
	Team          int // Team the client believes it is on, checked by the server
}

// RelicEvent is broadcast when the relic changes hands. It is cosmetic;
// clients tolerate losing it because the state is also replicated.
type RelicEvent struct {
	Kind      netconfig.RelicEventKind
	State     uint8 // relic.State after the event
	CarrierID uint  // NetworkId of the carrier involved, 0 if none
	Team      int
	X, Y, Z   float64
}

// ScoreEvent is broadcast when a team scores.
type ScoreEvent struct {
	Team    int
	Points  int
	Scores  []int // Indexed by team
	Carrier uint  // NetworkId of the scoring carrier
}
