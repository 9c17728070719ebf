package components

import (
	"github.com/automoto/breakaway-mp/shared/netconfig"
	"github.com/yohamta/donburi"
)

// MatchData is the client's view of the match, fed by replication and score
// events. This is a singleton component.
type MatchData struct {
	State     netconfig.MatchStateID
	Scores    []int   // Indexed by team
	FlashTeam int     // Team that scored last, drawn highlighted while Flash > 0
	Flash     float64 // Seconds
}

var Match = donburi.NewComponentType[MatchData]()
